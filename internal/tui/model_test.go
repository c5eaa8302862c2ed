package tui

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ttbud/ttbud-sub001/internal/board"
	"github.com/ttbud/ttbud-sub001/internal/event"
	"github.com/ttbud/ttbud-sub001/internal/grid"
	"github.com/ttbud/ttbud-sub001/internal/session"
	"github.com/ttbud/ttbud-sub001/internal/transport"
)

func newModel(t *testing.T) (*Model, *transport.Hub) {
	t.Helper()
	hub := transport.NewHub(grid.MustNew(50), nil)
	sess, err := session.Join(context.Background(), hub.Connect(), session.Options{CellSize: 50, Origin: "me"})
	if err != nil {
		t.Fatalf("Join() error = %v", err)
	}
	t.Cleanup(func() { _ = sess.Close() })

	m := New(context.Background(), sess, "table", nil)
	m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	return m, hub
}

func mouse(action tea.MouseAction, button tea.MouseButton, x, y int) tea.MouseMsg {
	return tea.MouseMsg{X: x, Y: y, Action: action, Button: button}
}

func press(x, y int) tea.MouseMsg {
	return mouse(tea.MouseActionPress, tea.MouseButtonLeft, x, y)
}

func release(x, y int) tea.MouseMsg {
	return mouse(tea.MouseActionRelease, tea.MouseButtonNone, x, y)
}

func motion(x, y int) tea.MouseMsg {
	return mouse(tea.MouseActionMotion, tea.MouseButtonLeft, x, y)
}

// placeArcher drags the first tray slot onto board pixel (100, 100).
func placeArcher(t *testing.T, m *Model) board.Token {
	t.Helper()
	m.Update(press(2, 1))
	m.Update(motion(25, 5))
	m.Update(release(25, 5))

	tokens := m.sess.Tokens()
	if len(tokens) != 1 {
		t.Fatalf("tokens = %+v, want one", tokens)
	}
	return tokens[0]
}

func TestModel_TrayDragCreatesToken(t *testing.T) {
	m, hub := newModel(t)

	tok := placeArcher(t, m)
	if tok.IconRef != "archer" || tok.Kind != board.KindCharacter {
		t.Errorf("token = %+v, want archer character", tok)
	}
	if tok.Pos != (grid.Pos{X: 100, Y: 100}) {
		t.Errorf("Pos = %v, want (100,100)", tok.Pos)
	}
	if got := hub.Tokens(); len(got) != 1 || got[0].ID != tok.ID {
		t.Errorf("hub tokens = %+v, want the new token", got)
	}
}

func TestModel_BoardDragMovesToken(t *testing.T) {
	m, _ := newModel(t)
	tok := placeArcher(t, m)

	m.Update(press(24, 6))
	if _, ok := m.ctl.Active(); !ok {
		t.Fatal("press on token did not start a drag")
	}
	m.Update(motion(27, 6))
	m.Update(release(28, 6))

	got, err := m.sess.Token(tok.ID)
	if err != nil {
		t.Fatalf("Token() error = %v", err)
	}
	if got.Pos != (grid.Pos{X: 150, Y: 100}) {
		t.Errorf("Pos = %v, want (150,100)", got.Pos)
	}
}

func TestModel_RightClickDeletes(t *testing.T) {
	m, hub := newModel(t)
	placeArcher(t, m)

	m.Update(mouse(tea.MouseActionPress, tea.MouseButtonRight, 24, 6))

	if n := len(m.sess.Tokens()); n != 0 {
		t.Errorf("tokens after delete = %d, want 0", n)
	}
	if n := len(hub.Tokens()); n != 0 {
		t.Errorf("hub tokens after delete = %d, want 0", n)
	}
}

func TestModel_CancelGestures(t *testing.T) {
	tests := []struct {
		name   string
		cancel tea.Msg
	}{
		{name: "escape", cancel: tea.KeyMsg{Type: tea.KeyEsc}},
		{name: "focus lost", cancel: tea.BlurMsg{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _ := newModel(t)
			tok := placeArcher(t, m)

			m.Update(press(24, 6))
			m.Update(motion(40, 10))
			m.Update(tt.cancel)
			m.Update(release(40, 10))

			if _, ok := m.ctl.Active(); ok {
				t.Error("drag still active after cancel")
			}
			got, _ := m.sess.Token(tok.ID)
			if got.Pos != tok.Pos {
				t.Errorf("Pos = %v, want unchanged %v", got.Pos, tok.Pos)
			}
		})
	}
}

func TestModel_PressOnEmptyBoardDoesNothing(t *testing.T) {
	m, _ := newModel(t)

	m.Update(press(60, 15))
	if _, ok := m.ctl.Active(); ok {
		t.Error("press on empty board started a drag")
	}
	m.Update(release(60, 15))
	if m.status != "" {
		t.Errorf("status = %q, want empty", m.status)
	}
}

func TestModel_RemoteEvents(t *testing.T) {
	m, hub := newModel(t)
	other := hub.Connect()

	ev := event.Create(board.Token{ID: "remote", Kind: board.KindFloor, IconRef: "grass", Pos: grid.Pos{X: 50, Y: 0}})
	ev.Origin = "them"
	other.Publish(ev)

	_, cmd := m.Update(m.waitForEvent()())
	if cmd == nil {
		t.Error("Update(remote) did not keep listening")
	}
	if _, err := m.sess.Token("remote"); err != nil {
		t.Errorf("remote token not applied: %v", err)
	}

	_ = other.Close()
	m.Update(remoteMsg{ok: false})
	if m.status != "disconnected" {
		t.Errorf("status = %q, want disconnected", m.status)
	}
}

func TestModel_Resync(t *testing.T) {
	m, hub := newModel(t)
	hub.Seed([]board.Token{{ID: "f", Kind: board.KindFloor, IconRef: "water", Pos: grid.Pos{}}})

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	if cmd == nil {
		t.Fatal("resync returned no command")
	}
	m.Update(cmd())

	if _, err := m.sess.Token("f"); err != nil {
		t.Errorf("snapshot token missing after resync: %v", err)
	}
	if !strings.Contains(m.status, "resynced 1") {
		t.Errorf("status = %q", m.status)
	}
}

func TestModel_ResyncKeepsEventsArrivingMeanwhile(t *testing.T) {
	m, hub := newModel(t)
	other, err := session.Join(context.Background(), hub.Connect(), session.Options{CellSize: 50, Origin: "other"})
	if err != nil {
		t.Fatalf("Join() error = %v", err)
	}
	t.Cleanup(func() { _ = other.Close() })

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	if cmd == nil {
		t.Fatal("resync returned no command")
	}
	if _, again := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")}); again != nil {
		t.Error("second resync started while one is in flight")
	}
	snapshot := cmd()

	ctl := other.Controller()
	_ = ctl.BeginTrayDrag("archer", grid.Point{})
	id, err := ctl.Drop(grid.Point{X: 100, Y: 50})
	if err != nil {
		t.Fatalf("Drop() error = %v", err)
	}
	m.Update(remoteMsg{ev: <-m.sess.Events(), ok: true})
	m.Update(snapshot)

	if _, err := m.sess.Token(id); err != nil {
		t.Errorf("token created during resync was lost: %v", err)
	}
}

func TestModel_View(t *testing.T) {
	m, _ := newModel(t)
	placeArcher(t, m)

	view := m.View()
	for _, want := range []string{"ttbud - table", "archer", "stone", "1 tokens"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q", want)
		}
	}

	m.Update(press(2, 1))
	m.Update(motion(40, 9))
	if !strings.Contains(m.View(), "drop at") {
		t.Error("View() does not show the pending drop")
	}
}

func TestScreenMapping(t *testing.T) {
	tests := []struct {
		x, y int
		want grid.Point
	}{
		{x: boardLeft, y: boardTop, want: grid.Point{}},
		{x: boardLeft + 4, y: boardTop + 2, want: grid.Point{X: 50, Y: 50}},
		{x: boardLeft - 4, y: boardTop, want: grid.Point{X: -50}},
	}

	for _, tt := range tests {
		got := boardPoint(tt.x, tt.y, 50)
		if got != tt.want {
			t.Errorf("boardPoint(%d, %d) = %v, want %v", tt.x, tt.y, got, tt.want)
		}
		x, y := screenCell(got, 50)
		if x != tt.x || y != tt.y {
			t.Errorf("screenCell(%v) = (%d, %d), want (%d, %d)", got, x, y, tt.x, tt.y)
		}
	}
}

func TestModel_Quit(t *testing.T) {
	m, _ := newModel(t)
	m.Update(press(2, 1))

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatal("ctrl+c returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("ctrl+c did not quit")
	}
	if _, ok := m.ctl.Active(); ok {
		t.Error("quitting left a drag active")
	}
}

func TestKeyMap_Help(t *testing.T) {
	help := defaultKeyMap().help()
	for _, want := range []string{"[q] quit", "[esc] cancel drag", "[r] resync"} {
		if !strings.Contains(help, want) {
			t.Errorf("help %q missing %q", help, want)
		}
	}
}
