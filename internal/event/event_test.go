package event

import (
	"errors"
	"testing"

	"github.com/ttbud/ttbud-sub001/internal/board"
	"github.com/ttbud/ttbud-sub001/internal/grid"
)

func TestValidate(t *testing.T) {
	pos := &grid.Pos{X: 50, Y: 50}

	tests := []struct {
		name    string
		ev      Event
		wantErr bool
	}{
		{name: "create", ev: Event{Op: OpCreate, ID: "a", Kind: board.KindCharacter, IconRef: "archer", Pos: pos}},
		{name: "move", ev: Move("a", grid.Pos{X: 50})},
		{name: "delete", ev: Delete("a")},
		{name: "missing id", ev: Event{Op: OpDelete}, wantErr: true},
		{name: "create without position", ev: Event{Op: OpCreate, ID: "a", Kind: board.KindFloor, IconRef: "stone"}, wantErr: true},
		{name: "create without icon", ev: Event{Op: OpCreate, ID: "a", Kind: board.KindFloor, Pos: pos}, wantErr: true},
		{name: "create with unknown kind", ev: Event{Op: OpCreate, ID: "a", Kind: "dragon", IconRef: "x", Pos: pos}, wantErr: true},
		{name: "move without position", ev: Event{Op: OpMove, ID: "a"}, wantErr: true},
		{name: "unknown op", ev: Event{Op: "teleport", ID: "a"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ev.Validate()
			if tt.wantErr {
				if !errors.Is(err, board.ErrInvalidEntity) {
					t.Errorf("Validate() error = %v, want ErrInvalidEntity", err)
				}
				return
			}
			if err != nil {
				t.Errorf("Validate() error = %v", err)
			}
		})
	}
}

func TestDecode(t *testing.T) {
	ev, err := Decode([]byte(`{"op":"create","id":"a","kind":"floor","icon_ref":"stone","position":{"x":100,"y":50},"origin":"s1"}`))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	tok := ev.Token()
	if tok.Kind != board.KindFloor || tok.Pos != (grid.Pos{X: 100, Y: 50}) || ev.Origin != "s1" {
		t.Errorf("Decode() = %+v", ev)
	}

	for _, raw := range []string{`not json`, `{"op":"move","id":"a"}`} {
		if _, err := Decode([]byte(raw)); !errors.Is(err, board.ErrInvalidEntity) {
			t.Errorf("Decode(%s) error = %v, want ErrInvalidEntity", raw, err)
		}
	}
}
