// Package event defines the mutation events exchanged with other sessions of
// the same board.
package event

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/ttbud/ttbud-sub001/internal/board"
	"github.com/ttbud/ttbud-sub001/internal/grid"
)

// Op is the kind of mutation an event carries.
type Op string

const (
	OpCreate Op = "create"
	OpMove   Op = "move"
	OpDelete Op = "delete"
)

// Event is a single per-token mutation. Kind and IconRef are only set for
// creates; Pos is set for creates and moves.
type Event struct {
	Op      Op         `json:"op"`
	ID      board.ID   `json:"id"`
	Kind    board.Kind `json:"kind,omitempty"`
	IconRef string     `json:"icon_ref,omitempty"`
	Pos     *grid.Pos  `json:"position,omitempty"`

	// Origin is the session that published the event.
	Origin string `json:"origin,omitempty"`

	// At is when the origin published the event. Informational only; events
	// are applied in arrival order.
	At time.Time `json:"at,omitempty"`
}

// Create builds a create event for t.
func Create(t board.Token) Event {
	pos := t.Pos
	return Event{Op: OpCreate, ID: t.ID, Kind: t.Kind, IconRef: t.IconRef, Pos: &pos}
}

// Move builds a move event.
func Move(id board.ID, pos grid.Pos) Event {
	return Event{Op: OpMove, ID: id, Pos: &pos}
}

// Delete builds a delete event.
func Delete(id board.ID) Event {
	return Event{Op: OpDelete, ID: id}
}

// Validate checks the event carries every field its op requires.
func (e Event) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("%w: %s event without id", board.ErrInvalidEntity, e.Op)
	}
	switch e.Op {
	case OpCreate:
		if e.Pos == nil {
			return fmt.Errorf("%w: create %s without position", board.ErrInvalidEntity, e.ID)
		}
		return e.Token().Validate()
	case OpMove:
		if e.Pos == nil {
			return fmt.Errorf("%w: move %s without position", board.ErrInvalidEntity, e.ID)
		}
		return nil
	case OpDelete:
		return nil
	default:
		return fmt.Errorf("%w: unknown op %q", board.ErrInvalidEntity, e.Op)
	}
}

// Token returns the token described by a create event.
func (e Event) Token() board.Token {
	t := board.Token{ID: e.ID, Kind: e.Kind, IconRef: e.IconRef}
	if e.Pos != nil {
		t.Pos = *e.Pos
	}
	return t
}

func (e Event) String() string {
	if e.Pos != nil {
		return fmt.Sprintf("%s %s %s", e.Op, e.ID, e.Pos)
	}
	return fmt.Sprintf("%s %s", e.Op, e.ID)
}

// Decode parses and validates a JSON-encoded event.
func Decode(data []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return Event{}, fmt.Errorf("%w: %v", board.ErrInvalidEntity, err)
	}
	if err := e.Validate(); err != nil {
		return Event{}, err
	}
	return e, nil
}
