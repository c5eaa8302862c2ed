// Package grid snaps continuous pointer coordinates onto the board's square grid.
//
// Two coordinate types are used throughout the board packages:
//   - Point: a raw pixel coordinate as produced by a pointer. Only used while a
//     gesture is in flight, never stored.
//   - Pos: a committed position. Always a whole multiple of the cell size once it
//     has passed through a Quantizer.
package grid

import (
	"errors"
	"fmt"
	"math"
)

// DefaultCellSize is the cell size used when none is configured.
const DefaultCellSize = 50

// MaxCoord bounds committed coordinates on each axis. Inputs beyond it snap to
// the outermost cell, which keeps every Pos exactly representable as a Point.
const MaxCoord = 1 << 50

// ErrInvalidCellSize indicates a non-positive cell size.
var ErrInvalidCellSize = errors.New("invalid cell size")

// Point is a raw pixel coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Pos is a committed, grid-aligned position.
type Pos struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Point converts a committed position back into pixel space.
func (p Pos) Point() Point {
	return Point{X: float64(p.X), Y: float64(p.Y)}
}

func (p Pos) String() string {
	return fmt.Sprintf("(%d, %d)", p.X, p.Y)
}

// Sub returns p - o.
func (p Point) Sub(o Point) Point {
	return Point{X: p.X - o.X, Y: p.Y - o.Y}
}

// Add returns p + o.
func (p Point) Add(o Point) Point {
	return Point{X: p.X + o.X, Y: p.Y + o.Y}
}

// Quantizer maps pixel coordinates to the nearest cell of a fixed-size grid.
// The zero value is not usable; construct one with New.
type Quantizer struct {
	cellSize int
}

// New creates a Quantizer for the given cell size.
func New(cellSize int) (Quantizer, error) {
	if cellSize <= 0 {
		return Quantizer{}, fmt.Errorf("%w: %d", ErrInvalidCellSize, cellSize)
	}
	return Quantizer{cellSize: cellSize}, nil
}

// MustNew is like New but panics on an invalid cell size. Intended for tests
// and package-level defaults.
func MustNew(cellSize int) Quantizer {
	q, err := New(cellSize)
	if err != nil {
		panic(err)
	}
	return q
}

// CellSize returns the configured cell size in pixels.
func (q Quantizer) CellSize() int {
	return q.cellSize
}

// Quantize snaps a pixel coordinate to the nearest cell, independently per axis.
func (q Quantizer) Quantize(p Point) Pos {
	return Pos{X: q.axis(p.X), Y: q.axis(p.Y)}
}

// Snap re-aligns an already integral position. It is a no-op for aligned
// positions.
func (q Quantizer) Snap(p Pos) Pos {
	return q.Quantize(p.Point())
}

// Aligned reports whether p sits exactly on a cell boundary in both axes.
func (q Quantizer) Aligned(p Pos) bool {
	return p.X%q.cellSize == 0 && p.Y%q.cellSize == 0
}

// Cell returns the cell indices (column, row) of an aligned position.
func (q Quantizer) Cell(p Pos) (col, row int) {
	p = q.Snap(p)
	return p.X / q.cellSize, p.Y / q.cellSize
}

// axis rounds half away from zero. Non-finite input maps to 0 so Quantize is total.
// The cell index is clamped to +-MaxCoord/cellSize so the product cannot overflow.
func (q Quantizer) axis(v float64) int {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	limit := MaxCoord / q.cellSize
	idx := math.Round(v / float64(q.cellSize))
	switch {
	case idx > float64(limit):
		return limit * q.cellSize
	case idx < -float64(limit):
		return -limit * q.cellSize
	}
	return int(idx) * q.cellSize
}
