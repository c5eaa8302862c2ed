package board

import (
	"fmt"

	"github.com/ttbud/ttbud-sub001/internal/grid"
)

// ID identifies a token for the lifetime of a board session. IDs are never
// reused, even after the token is deleted.
type ID string

// Kind determines how a token is layered and handled.
type Kind string

const (
	// KindCharacter tokens render above floor tiles.
	KindCharacter Kind = "character"

	// KindFloor tokens render beneath characters.
	KindFloor Kind = "floor"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k == KindCharacter || k == KindFloor
}

// layer returns the render layer; lower layers are drawn first.
func (k Kind) layer() int {
	if k == KindFloor {
		return 0
	}
	return 1
}

// Token is a single placed game piece.
type Token struct {
	ID      ID       `json:"id"`
	Kind    Kind     `json:"kind"`
	IconRef string   `json:"icon_ref"`
	Pos     grid.Pos `json:"position"`
}

// Validate checks that the token carries every field required to place it.
func (t Token) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidEntity)
	}
	if !t.Kind.Valid() {
		return fmt.Errorf("%w: token %s has unknown kind %q", ErrInvalidEntity, t.ID, t.Kind)
	}
	if t.IconRef == "" {
		return fmt.Errorf("%w: token %s has no icon", ErrInvalidEntity, t.ID)
	}
	return nil
}
