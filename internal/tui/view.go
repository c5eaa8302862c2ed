package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/ttbud/ttbud-sub001/internal/board"
	"github.com/ttbud/ttbud-sub001/internal/grid"
	"github.com/ttbud/ttbud-sub001/internal/placement"
)

type paint int

const (
	paintNone paint = iota
	paintGrid
	paintTray
	paintFloor
	paintCharacter
	paintDragging
)

// styles
var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Underline(true)
	statusStyle = lipgloss.NewStyle().Faint(true)
	paintStyles = map[paint]lipgloss.Style{
		paintGrid:      lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		paintTray:      lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Background(lipgloss.Color("236")),
		paintFloor:     lipgloss.NewStyle().Foreground(lipgloss.Color("250")).Background(lipgloss.Color("238")),
		paintCharacter: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("230")).Background(lipgloss.Color("94")),
		paintDragging:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("16")).Background(lipgloss.Color("214")),
	}
)

type canvasCell struct {
	r rune
	p paint
}

// canvas is the drawable area between the title and status lines.
type canvas struct {
	w, h  int
	cells [][]canvasCell
}

func newCanvas(w, h int) *canvas {
	c := &canvas{w: w, h: h, cells: make([][]canvasCell, h)}
	for y := range c.cells {
		row := make([]canvasCell, w)
		for x := range row {
			row[x] = canvasCell{r: ' '}
		}
		c.cells[y] = row
	}
	return c
}

// put writes s starting at screen cell (x, y). Screen row boardTop is canvas
// row 0. Anything outside the canvas is clipped.
func (c *canvas) put(x, y int, s string, p paint) {
	cy := y - boardTop
	if cy < 0 || cy >= c.h {
		return
	}
	for i, r := range []rune(s) {
		cx := x + i
		if cx < 0 || cx >= c.w {
			continue
		}
		c.cells[cy][cx] = canvasCell{r: r, p: p}
	}
}

func (c *canvas) String() string {
	var b strings.Builder
	for y, row := range c.cells {
		if y > 0 {
			b.WriteByte('\n')
		}
		start := 0
		for x := 1; x <= len(row); x++ {
			if x < len(row) && row[x].p == row[start].p {
				continue
			}
			run := make([]rune, 0, x-start)
			for _, cell := range row[start:x] {
				run = append(run, cell.r)
			}
			if style, ok := paintStyles[row[start].p]; ok {
				b.WriteString(style.Render(string(run)))
			} else {
				b.WriteString(string(run))
			}
			start = x
		}
	}
	return b.String()
}

func (m *Model) View() string {
	title := titleStyle.Render("ttbud - " + m.boardID)

	h := m.height - 2
	if h < 1 {
		h = 1
	}
	c := newCanvas(m.width, h)
	m.drawGrid(c)
	m.drawTray(c)
	m.drawTokens(c)

	status := ansi.Truncate(m.statusLine(), m.width, "…")
	return fmt.Sprintf("%s\n%s\n%s", title, c.String(), statusStyle.Render(status))
}

func (m *Model) drawGrid(c *canvas) {
	for y := boardTop; y < boardTop+c.h; y += cellRows {
		for x := boardLeft; x < c.w; x += cellCols {
			c.put(x, y, "·", paintGrid)
		}
	}
}

func (m *Model) drawTray(c *canvas) {
	for i, slot := range m.ctl.Catalog().Slots() {
		y := boardTop + i*cellRows
		c.put(0, y, pad(slot.TypeID, trayWidth), paintTray)
		c.put(0, y+1, pad("", trayWidth), paintTray)
	}
}

func (m *Model) drawTokens(c *canvas) {
	cell := m.cell()
	drag, dragging := m.ctl.Active()

	for _, t := range m.sess.Tokens() {
		p := paintCharacter
		if t.Kind == board.KindFloor {
			p = paintFloor
		}
		if dragging && drag.Source == placement.FromBoard && drag.TokenID == t.ID {
			p = paintDragging
		}
		drawToken(c, m.ctl.DrawPosition(t), t.IconRef, t.Kind, p, cell)
	}

	// A tray drag has no token yet; draw the slot's icon under the pointer.
	if dragging && drag.Source == placement.FromTray {
		if slot, err := m.ctl.Catalog().Lookup(drag.SlotID); err == nil {
			drawToken(c, drag.At(), slot.IconRef, slot.Kind, paintDragging, cell)
		}
	}
}

func drawToken(c *canvas, at grid.Point, iconRef string, kind board.Kind, p paint, cell float64) {
	x, y := screenCell(at, cell)
	fill := strings.Repeat(" ", cellCols)
	if kind == board.KindFloor {
		fill = strings.Repeat("░", cellCols)
	}
	c.put(x, y, pad(iconRef, cellCols), p)
	for row := 1; row < cellRows; row++ {
		c.put(x, y+row, fill, p)
	}
}

func (m *Model) statusLine() string {
	parts := []string{fmt.Sprintf("%d tokens", len(m.sess.Tokens()))}
	if drag, ok := m.ctl.Active(); ok {
		pos := m.sess.Quantizer().Quantize(drag.At())
		parts = append(parts, "drop at "+pos.String())
	}
	if m.status != "" {
		parts = append(parts, m.status)
	}
	parts = append(parts, m.keys.help())
	return strings.Join(parts, "  ")
}

func pad(s string, n int) string {
	r := []rune(s)
	if len(r) >= n {
		return string(r[:n])
	}
	return s + strings.Repeat(" ", n-len(r))
}
