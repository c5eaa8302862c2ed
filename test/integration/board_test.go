package integration

import (
	"context"
	"testing"

	"github.com/ttbud/ttbud-sub001/internal/board"
	"github.com/ttbud/ttbud-sub001/internal/grid"
	"github.com/ttbud/ttbud-sub001/internal/hash"
	"github.com/ttbud/ttbud-sub001/internal/persist"
	"github.com/ttbud/ttbud-sub001/internal/reconcile"
	"github.com/ttbud/ttbud-sub001/internal/session"
	"github.com/ttbud/ttbud-sub001/internal/transport"
)

// placeArcher drags an archer from alice's tray and delivers it to the
// other sessions.
func placeArcher(t *testing.T, alice *session.Session, others ...*session.Session) board.ID {
	t.Helper()
	ctl := alice.Controller()
	if err := ctl.BeginTrayDrag("archer", grid.Point{X: 10, Y: 10}); err != nil {
		t.Fatalf("BeginTrayDrag() error = %v", err)
	}
	ctl.DragTo(grid.Point{X: 40, Y: 20})
	id, err := ctl.Drop(grid.Point{X: 84, Y: 36})
	if err != nil {
		t.Fatalf("Drop() error = %v", err)
	}
	for _, s := range others {
		pump(t, s, 1)
	}
	return id
}

func TestRelay_ConcurrentDragsConverge(t *testing.T) {
	relay := startRelay(t)
	alice := relay.join(t, "table", "alice")
	bob := relay.join(t, "table", "bob")

	id := placeArcher(t, alice, bob)
	if got, err := bob.Token(id); err != nil || got.Pos != (grid.Pos{X: 50, Y: 50}) {
		t.Fatalf("bob sees %+v, %v; want archer at (50, 50)", got, err)
	}

	// Bob grabs the archer, then alice moves it before bob lets go.
	if err := bob.Controller().BeginBoardDrag(id, grid.Point{X: 60, Y: 60}); err != nil {
		t.Fatalf("bob BeginBoardDrag() error = %v", err)
	}
	if err := alice.Controller().BeginBoardDrag(id, grid.Point{X: 55, Y: 55}); err != nil {
		t.Fatalf("alice BeginBoardDrag() error = %v", err)
	}
	if _, err := alice.Controller().Drop(grid.Point{X: 205, Y: 205}); err != nil {
		t.Fatalf("alice Drop() error = %v", err)
	}

	if res := pump(t, bob, 1); res[0].Outcome != reconcile.Buffered {
		t.Fatalf("bob outcome = %v, want buffered while dragging", res[0].Outcome)
	}
	if got, _ := bob.Token(id); got.Pos != (grid.Pos{X: 50, Y: 50}) {
		t.Errorf("remote move leaked into bob's drag: %v", got.Pos)
	}

	if _, err := bob.Controller().Drop(grid.Point{X: 160, Y: 110}); err != nil {
		t.Fatalf("bob Drop() error = %v", err)
	}
	pump(t, alice, 1)

	want := grid.Pos{X: 150, Y: 100}
	for name, s := range map[string]*session.Session{"alice": alice, "bob": bob} {
		got, err := s.Token(id)
		if err != nil || got.Pos != want {
			t.Errorf("%s sees %+v, %v; want archer at %v", name, got, err, want)
		}
		if s.State(id) != reconcile.Settled {
			t.Errorf("%s state = %v, want settled", name, s.State(id))
		}
	}

	fa, fb := hash.Board(alice.Tokens()), hash.Board(bob.Tokens())
	fr := hash.Board(relay.relay.Hub("table").Tokens())
	if fa != fb || fa != fr {
		t.Errorf("boards diverged: alice %s, bob %s, relay %s", hash.Short(fa), hash.Short(fb), hash.Short(fr))
	}
	expectQuiet(t, alice)
	expectQuiet(t, bob)
}

func TestRelay_DeleteDuringDragWins(t *testing.T) {
	relay := startRelay(t)
	alice := relay.join(t, "table", "alice")
	bob := relay.join(t, "table", "bob")
	id := placeArcher(t, alice, bob)

	if err := alice.Controller().BeginBoardDrag(id, grid.Point{X: 60, Y: 60}); err != nil {
		t.Fatalf("BeginBoardDrag() error = %v", err)
	}
	if err := bob.Controller().Delete(id); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if res := pump(t, alice, 1); res[0].Outcome != reconcile.Buffered {
		t.Fatalf("alice outcome = %v, want buffered", res[0].Outcome)
	}

	// Alice's drop commits, then the held delete removes the token.
	if _, err := alice.Controller().Drop(grid.Point{X: 310, Y: 310}); err != nil {
		t.Fatalf("Drop() error = %v", err)
	}
	if _, err := alice.Token(id); err == nil {
		t.Error("alice still has the deleted token")
	}

	// Bob has already deleted it; the late move is ignored.
	if res := pump(t, bob, 1); res[0].Outcome != reconcile.Ignored {
		t.Errorf("bob outcome = %v, want ignored", res[0].Outcome)
	}

	for name, tokens := range map[string][]board.Token{
		"alice": alice.Tokens(),
		"bob":   bob.Tokens(),
		"relay": relay.relay.Hub("table").Tokens(),
	} {
		if len(tokens) != 0 {
			t.Errorf("%s board = %+v, want empty", name, tokens)
		}
	}
}

func TestRelay_LateJoinerGetsSnapshot(t *testing.T) {
	relay := startRelay(t)
	alice := relay.join(t, "table", "alice")
	id := placeArcher(t, alice)

	relay.waitForTokens(t, "table", 1)

	carol := relay.join(t, "table", "carol")
	got, err := carol.Token(id)
	if err != nil {
		t.Fatalf("carol missing archer: %v", err)
	}
	if got.Pos != (grid.Pos{X: 50, Y: 50}) || got.IconRef != "archer" {
		t.Errorf("carol sees %+v", got)
	}

	// Other boards on the same relay stay separate.
	dave := relay.join(t, "other-table", "dave")
	if n := len(dave.Tokens()); n != 0 {
		t.Errorf("dave sees %d tokens on a different board", n)
	}
}

func TestSnapshot_SeedsOfflineBoard(t *testing.T) {
	relay := startRelay(t)
	alice := relay.join(t, "table", "alice")
	bob := relay.join(t, "table", "bob")
	placeArcher(t, alice, bob)

	fs := newTestFS()
	snapshots := persist.NewSnapshotManager(fs, "/data/snapshots")
	if err := snapshots.Save("table.json", "table", bob.Tokens()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if ok, _ := fs.Exists("/data/snapshots/table.json"); !ok {
		t.Fatal("snapshot not written")
	}

	tokens, err := snapshots.Load("table.json")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	hub := transport.NewHub(grid.MustNew(50), nil)
	if errs := hub.Seed(tokens); len(errs) != 0 {
		t.Fatalf("Seed() errors = %v", errs)
	}
	offline, err := session.Join(context.Background(), hub.Connect(), session.Options{CellSize: 50})
	if err != nil {
		t.Fatalf("Join() error = %v", err)
	}
	defer offline.Close()

	if hash.Board(offline.Tokens()) != hash.Board(alice.Tokens()) {
		t.Errorf("offline board %+v does not match %+v", offline.Tokens(), alice.Tokens())
	}
}
