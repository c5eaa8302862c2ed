// Package tui is a terminal front end for a shared board.
//
// The terminal is split into a tray panel on the left and the board on the
// right. One grid cell is drawn as a block of cellCols columns by cellRows
// rows; pointer positions are converted to board pixels before they reach the
// placement controller, so the controller sees the same coordinates a
// graphical client would.
package tui

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ttbud/ttbud-sub001/internal/board"
	"github.com/ttbud/ttbud-sub001/internal/event"
	"github.com/ttbud/ttbud-sub001/internal/grid"
	"github.com/ttbud/ttbud-sub001/internal/logging"
	"github.com/ttbud/ttbud-sub001/internal/placement"
	"github.com/ttbud/ttbud-sub001/internal/session"
)

const (
	cellCols  = 4
	cellRows  = 2
	trayWidth = 14

	boardLeft = trayWidth + 1
	boardTop  = 1
)

// remoteMsg carries one event from the transport.
type remoteMsg struct {
	ev event.Event
	ok bool
}

// resyncMsg carries a freshly fetched snapshot.
type resyncMsg struct {
	tokens []board.Token
	err    error
}

// Model is the bubbletea model for one session.
type Model struct {
	ctx     context.Context
	sess    *session.Session
	ctl     *placement.Controller
	boardID string
	log     *logging.Logger
	keys    keyMap

	width  int
	height int
	status string
}

// New creates a Model driving sess.
func New(ctx context.Context, sess *session.Session, boardID string, log *logging.Logger) *Model {
	if log == nil {
		log = logging.Discard()
	}
	return &Model{
		ctx:     ctx,
		sess:    sess,
		ctl:     sess.Controller(),
		boardID: boardID,
		log:     log,
		keys:    defaultKeyMap(),
		width:   80,
		height:  24,
	}
}

// Run starts the terminal UI and blocks until the user quits.
func Run(ctx context.Context, sess *session.Session, boardID string, log *logging.Logger) error {
	p := tea.NewProgram(
		New(ctx, sess, boardID, log),
		tea.WithContext(ctx),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithReportFocus(),
	)
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func (m *Model) Init() tea.Cmd {
	return m.waitForEvent()
}

func (m *Model) waitForEvent() tea.Cmd {
	events := m.sess.Events()
	return func() tea.Msg {
		ev, ok := <-events
		return remoteMsg{ev: ev, ok: ok}
	}
}

func (m *Model) resync() tea.Cmd {
	ctx, sess := m.ctx, m.sess
	return func() tea.Msg {
		tokens, err := sess.FetchSnapshot(ctx)
		return resyncMsg{tokens: tokens, err: err}
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.ctl.Cancel()
			return m, tea.Quit
		case key.Matches(msg, m.keys.Cancel):
			m.ctl.Cancel()
			m.status = ""
		case key.Matches(msg, m.keys.Resync):
			if m.sess.Resyncing() {
				return m, nil
			}
			m.sess.BeginResync()
			m.status = "resyncing..."
			return m, m.resync()
		}
		return m, nil

	case tea.BlurMsg:
		// Losing focus mid-drag means the release will never arrive.
		m.ctl.Cancel()
		return m, nil

	case tea.MouseMsg:
		m.handleMouse(msg)
		return m, nil

	case remoteMsg:
		if !msg.ok {
			m.status = "disconnected"
			return m, nil
		}
		m.sess.Apply(msg.ev)
		return m, m.waitForEvent()

	case resyncMsg:
		if msg.err != nil {
			m.sess.AbortResync()
			m.status = msg.err.Error()
			m.log.Warn("resync failed", logging.Fields{"error": msg.err.Error()})
			return m, nil
		}
		m.sess.Reseed(msg.tokens)
		m.status = fmt.Sprintf("resynced %d tokens", len(msg.tokens))
		return m, nil
	}
	return m, nil
}

func (m *Model) handleMouse(msg tea.MouseMsg) {
	switch msg.Action {
	case tea.MouseActionPress:
		switch msg.Button {
		case tea.MouseButtonLeft:
			m.press(msg.X, msg.Y)
		case tea.MouseButtonRight:
			if id, ok := m.tokenAt(boardPoint(msg.X, msg.Y, m.cell())); ok {
				if err := m.ctl.Delete(id); err != nil {
					m.status = err.Error()
				}
			}
		}

	case tea.MouseActionMotion:
		m.ctl.DragTo(boardPoint(msg.X, msg.Y, m.cell()))

	case tea.MouseActionRelease:
		if _, active := m.ctl.Active(); !active {
			return
		}
		if _, err := m.ctl.Drop(boardPoint(msg.X, msg.Y, m.cell())); err != nil {
			m.status = err.Error()
		}
	}
}

func (m *Model) press(x, y int) {
	cell := m.cell()
	if x < trayWidth {
		slot, ok := m.slotAt(y)
		if !ok {
			m.ctl.Cancel()
			return
		}
		if err := m.ctl.BeginTrayDrag(slot, trayPoint(x, y, cell)); err != nil {
			m.status = err.Error()
		}
		return
	}
	if x < boardLeft {
		m.ctl.Cancel()
		return
	}

	pointer := boardPoint(x, y, cell)
	id, ok := m.tokenAt(pointer)
	if !ok {
		m.ctl.Cancel()
		return
	}
	if err := m.ctl.BeginBoardDrag(id, pointer); err != nil {
		m.status = err.Error()
	}
}

func (m *Model) cell() float64 {
	return float64(m.sess.Quantizer().CellSize())
}

// slotAt returns the tray slot drawn on terminal row y.
func (m *Model) slotAt(y int) (string, bool) {
	if y < boardTop {
		return "", false
	}
	i := (y - boardTop) / cellRows
	slots := m.ctl.Catalog().Slots()
	if i >= len(slots) {
		return "", false
	}
	return slots[i].TypeID, true
}

// tokenAt returns the topmost token whose cell contains p.
func (m *Model) tokenAt(p grid.Point) (board.ID, bool) {
	cell := m.cell()
	tokens := m.sess.Tokens()
	for i := len(tokens) - 1; i >= 0; i-- {
		at := tokens[i].Pos.Point()
		if p.X >= at.X && p.X < at.X+cell && p.Y >= at.Y && p.Y < at.Y+cell {
			return tokens[i].ID, true
		}
	}
	return "", false
}

// boardPoint converts a terminal cell to board pixels.
func boardPoint(x, y int, cell float64) grid.Point {
	return grid.Point{
		X: float64(x-boardLeft) * cell / cellCols,
		Y: float64(y-boardTop) * cell / cellRows,
	}
}

// trayPoint converts a terminal cell to pixels relative to the tray. The
// horizontal position is clamped to the slot's icon so the grab offset never
// exceeds one cell.
func trayPoint(x, y int, cell float64) grid.Point {
	if x >= cellCols {
		x = cellCols - 1
	}
	return grid.Point{
		X: float64(x) * cell / cellCols,
		Y: float64(y-boardTop) * cell / cellRows,
	}
}

// screenCell converts board pixels to the terminal cell they are drawn in.
func screenCell(p grid.Point, cell float64) (x, y int) {
	return boardLeft + floorDiv(p.X*cellCols, cell), boardTop + floorDiv(p.Y*cellRows, cell)
}

func floorDiv(v, d float64) int {
	q := v / d
	i := int(q)
	if float64(i) > q {
		i--
	}
	return i
}
