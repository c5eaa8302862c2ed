// Package tray holds the fixed palette of spawnable token types.
//
// A Catalog is loaded once when a session starts and never changes afterwards.
// Its slots are templates: placing one creates a new board token and leaves the
// slot itself, including its pinned origin, exactly as it was.
package tray

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/ttbud/ttbud-sub001/internal/board"
	"github.com/ttbud/ttbud-sub001/internal/grid"
)

// ErrUnknownSlot indicates a type id that is not in the catalog.
var ErrUnknownSlot = errors.New("unknown tray slot")

// Slot is a spawnable token type.
type Slot struct {
	TypeID  string     `json:"type_id" mapstructure:"type_id"`
	Kind    board.Kind `json:"kind" mapstructure:"kind"`
	IconRef string     `json:"icon_ref" mapstructure:"icon_ref"`

	// Origin is where the slot's own icon is pinned inside the tray.
	Origin grid.Point `json:"origin" mapstructure:"-"`
}

// Catalog is an immutable, ordered set of slots. Copies share nothing mutable.
type Catalog struct {
	slots []Slot
	index map[string]int
}

// New builds a catalog from slots, laying them out in a single column of
// cells starting at the tray origin.
func New(slots []Slot, cellSize int) (Catalog, error) {
	c := Catalog{
		slots: make([]Slot, 0, len(slots)),
		index: make(map[string]int, len(slots)),
	}
	for i, s := range slots {
		s.TypeID = strings.TrimSpace(s.TypeID)
		if s.TypeID == "" {
			return Catalog{}, fmt.Errorf("tray slot %d: missing type id", i)
		}
		if !s.Kind.Valid() {
			return Catalog{}, fmt.Errorf("tray slot %q: unknown kind %q", s.TypeID, s.Kind)
		}
		if s.IconRef == "" {
			return Catalog{}, fmt.Errorf("tray slot %q: missing icon", s.TypeID)
		}
		if _, dup := c.index[s.TypeID]; dup {
			return Catalog{}, fmt.Errorf("tray slot %q: duplicate type id", s.TypeID)
		}
		s.Origin = grid.Point{X: 0, Y: float64(i * cellSize)}
		c.index[s.TypeID] = len(c.slots)
		c.slots = append(c.slots, s)
	}
	return c, nil
}

// Default returns the built-in catalog.
func Default(cellSize int) Catalog {
	c, err := New(defaultSlots, cellSize)
	if err != nil {
		panic(err)
	}
	return c
}

var defaultSlots = []Slot{
	{TypeID: "archer", Kind: board.KindCharacter, IconRef: "archer"},
	{TypeID: "knight", Kind: board.KindCharacter, IconRef: "knight"},
	{TypeID: "wizard", Kind: board.KindCharacter, IconRef: "wizard"},
	{TypeID: "rogue", Kind: board.KindCharacter, IconRef: "rogue"},
	{TypeID: "dragon", Kind: board.KindCharacter, IconRef: "dragon"},
	{TypeID: "stone", Kind: board.KindFloor, IconRef: "stone-floor"},
	{TypeID: "grass", Kind: board.KindFloor, IconRef: "grass"},
	{TypeID: "water", Kind: board.KindFloor, IconRef: "water"},
	{TypeID: "wall", Kind: board.KindFloor, IconRef: "wall"},
}

// LoadFile reads a catalog from a TOML, YAML or JSON file with a top-level
// "slots" list.
func LoadFile(path string, cellSize int) (Catalog, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return Catalog{}, fmt.Errorf("failed to read tray file: %w", err)
	}

	var file struct {
		Slots []Slot `mapstructure:"slots"`
	}
	if err := v.Unmarshal(&file); err != nil {
		return Catalog{}, fmt.Errorf("failed to parse tray file: %w", err)
	}
	if len(file.Slots) == 0 {
		return Catalog{}, fmt.Errorf("tray file %s has no slots", path)
	}
	return New(file.Slots, cellSize)
}

// Slots returns a copy of the slots in display order.
func (c Catalog) Slots() []Slot {
	out := make([]Slot, len(c.slots))
	copy(out, c.slots)
	return out
}

// Lookup returns the slot with the given type id.
func (c Catalog) Lookup(typeID string) (Slot, error) {
	i, ok := c.index[typeID]
	if !ok {
		return Slot{}, fmt.Errorf("%w: %q", ErrUnknownSlot, typeID)
	}
	return c.slots[i], nil
}

// Len returns the number of slots.
func (c Catalog) Len() int {
	return len(c.slots)
}
