// Package placement turns pointer gestures into board mutations.
//
// Three gestures are supported:
//   - dragging a tray slot onto the board creates a new token,
//   - dragging a board token repositions it,
//   - a secondary click on a board token deletes it.
//
// While a drag is in flight the dragged icon follows the raw pointer; only the
// drop commits a value, and that value is always quantized. Every commit is
// published to the other sessions without waiting for delivery.
package placement

import (
	"errors"
	"fmt"

	"github.com/ttbud/ttbud-sub001/internal/board"
	"github.com/ttbud/ttbud-sub001/internal/clock"
	"github.com/ttbud/ttbud-sub001/internal/event"
	"github.com/ttbud/ttbud-sub001/internal/grid"
	"github.com/ttbud/ttbud-sub001/internal/logging"
	"github.com/ttbud/ttbud-sub001/internal/reconcile"
	"github.com/ttbud/ttbud-sub001/internal/tray"
)

// Publisher sends committed mutations to other sessions. Publish must not
// block on delivery.
type Publisher interface {
	Publish(ev event.Event)
}

// Source is where a drag started.
type Source int

const (
	FromTray Source = iota
	FromBoard
)

// Drag is an in-flight drag gesture.
type Drag struct {
	Source  Source
	SlotID  string
	TokenID board.ID

	// Pointer is the last observed pointer position.
	Pointer grid.Point

	// grab is the pointer offset from the dragged icon's top-left corner.
	grab grid.Point
}

// At returns where the dragged icon is drawn: the raw, unquantized position
// under the pointer.
func (d Drag) At() grid.Point {
	return d.Pointer.Sub(d.grab)
}

// Controller applies local gestures to the board.
type Controller struct {
	store   *board.Store
	rec     *reconcile.Reconciler
	catalog tray.Catalog
	pub     Publisher
	clock   clock.Clock
	origin  string
	log     *logging.Logger

	drag *Drag
}

// New creates a Controller. origin identifies this session on published events.
func New(
	store *board.Store,
	rec *reconcile.Reconciler,
	catalog tray.Catalog,
	pub Publisher,
	clk clock.Clock,
	origin string,
	log *logging.Logger,
) *Controller {
	if log == nil {
		log = logging.Discard()
	}
	return &Controller{
		store:   store,
		rec:     rec,
		catalog: catalog,
		pub:     pub,
		clock:   clk,
		origin:  origin,
		log:     log,
	}
}

// BeginTrayDrag starts dragging a copy of a tray slot. An unfinished drag is
// cancelled first.
func (c *Controller) BeginTrayDrag(typeID string, pointer grid.Point) error {
	c.Cancel()

	slot, err := c.catalog.Lookup(typeID)
	if err != nil {
		return err
	}
	c.drag = &Drag{
		Source:  FromTray,
		SlotID:  slot.TypeID,
		Pointer: pointer,
		grab:    pointer.Sub(slot.Origin),
	}
	return nil
}

// BeginBoardDrag starts repositioning a token. While the drag is in flight,
// remote moves and deletes for the token are held back. An unfinished drag is
// cancelled first.
func (c *Controller) BeginBoardDrag(id board.ID, pointer grid.Point) error {
	c.Cancel()

	tok, err := c.store.Get(id)
	if err != nil {
		return err
	}
	if err := c.rec.Hold(id); err != nil {
		return err
	}
	c.drag = &Drag{
		Source:  FromBoard,
		TokenID: id,
		Pointer: pointer,
		grab:    pointer.Sub(tok.Pos.Point()),
	}
	return nil
}

// DragTo records a new pointer position for the active drag. Nothing is
// committed.
func (c *Controller) DragTo(pointer grid.Point) bool {
	if c.drag == nil {
		return false
	}
	c.drag.Pointer = pointer
	return true
}

// Drop ends the active drag at pointer and commits a quantized position. Any
// coordinate is a valid drop target. It returns the id of the created or
// moved token. If the dragged token was deleted meanwhile, the drop is a no-op
// and the error wraps board.ErrNotFound.
func (c *Controller) Drop(pointer grid.Point) (board.ID, error) {
	if c.drag == nil {
		return "", ErrNoDrag
	}
	d := *c.drag
	c.drag = nil
	d.Pointer = pointer
	target := c.store.Quantizer().Quantize(d.At())

	if d.Source == FromTray {
		return c.spawn(d.SlotID, target)
	}
	return c.reposition(d.TokenID, target)
}

func (c *Controller) spawn(typeID string, target grid.Pos) (board.ID, error) {
	slot, err := c.catalog.Lookup(typeID)
	if err != nil {
		return "", err
	}
	id := c.store.Create(slot.Kind, slot.IconRef, target)
	tok, err := c.store.Get(id)
	if err != nil {
		return "", fmt.Errorf("failed to read created token: %w", err)
	}
	c.publish(event.Create(tok))
	return id, nil
}

func (c *Controller) reposition(id board.ID, target grid.Pos) (board.ID, error) {
	if err := c.store.Move(id, target); err != nil {
		c.rec.Release(id, false)
		if errors.Is(err, board.ErrNotFound) {
			c.log.Debug("drop on deleted token", logging.Fields{"id": string(id)})
		}
		return id, err
	}
	c.publish(event.Move(id, target))
	c.rec.Release(id, true)
	return id, nil
}

// Cancel abandons the active drag without committing. Remote events held back
// during a board drag are applied.
func (c *Controller) Cancel() {
	if c.drag == nil {
		return
	}
	d := *c.drag
	c.drag = nil
	if d.Source == FromBoard {
		c.rec.Release(d.TokenID, false)
	}
}

// Delete removes a token immediately. Deleting a token that is being dragged
// ends that drag.
func (c *Controller) Delete(id board.ID) error {
	if c.drag != nil && c.drag.Source == FromBoard && c.drag.TokenID == id {
		c.drag = nil
	}
	err := c.store.Delete(id)
	c.rec.Forget(id)
	if err != nil {
		return err
	}
	c.publish(event.Delete(id))
	return nil
}

// Active returns the in-flight drag, if any.
func (c *Controller) Active() (Drag, bool) {
	if c.drag == nil {
		return Drag{}, false
	}
	return *c.drag, true
}

// DrawPosition returns where a board token should be drawn: the raw pointer
// position while it is being dragged, its committed position otherwise.
func (c *Controller) DrawPosition(t board.Token) grid.Point {
	if c.drag != nil && c.drag.Source == FromBoard && c.drag.TokenID == t.ID {
		return c.drag.At()
	}
	return t.Pos.Point()
}

// Catalog returns the tray catalog.
func (c *Controller) Catalog() tray.Catalog {
	return c.catalog
}

func (c *Controller) publish(ev event.Event) {
	ev.Origin = c.origin
	ev.At = c.clock.Now()
	c.pub.Publish(ev)
}
