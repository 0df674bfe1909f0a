package render

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/featuremap/pkg/editor"
	"github.com/matzehuels/featuremap/pkg/scene"
	"github.com/matzehuels/featuremap/pkg/viewport"
)

// Terminal colors.
const (
	edgeColor      = "#8888aa"
	highlightColor = "#ffffff"
	rubberColor    = "#666688"
	textColor      = "#e6e9ff"
	noteColor      = "#ffd166"
)

// TermOptions sizes a terminal frame.
type TermOptions struct {
	Cols, Rows int
	// CellWidth and CellHeight are the screen size of one cell in pixels.
	CellWidth, CellHeight float64
	// Color enables ANSI styling. Without it the frame is plain text.
	Color bool
}

// Size returns the frame size in screen pixels.
func (o TermOptions) Size() viewport.Size {
	return viewport.Size{Width: float64(o.Cols) * o.CellWidth, Height: float64(o.Rows) * o.CellHeight}
}

// CellCenter returns the screen pixel at the center of a cell.
func (o TermOptions) CellCenter(col, row int) scene.Point {
	return scene.Point{X: (float64(col) + 0.5) * o.CellWidth, Y: (float64(row) + 0.5) * o.CellHeight}
}

// Cell returns the cell containing a screen pixel.
func (o TermOptions) Cell(p scene.Point) (col, row int) {
	return int(math.Floor(p.X / o.CellWidth)), int(math.Floor(p.Y / o.CellHeight))
}

// Terminal draws one frame of v. The result has exactly opts.Rows lines of
// opts.Cols cells each.
func Terminal(v editor.View, opts TermOptions) string {
	if opts.Cols <= 0 || opts.Rows <= 0 || opts.CellWidth <= 0 || opts.CellHeight <= 0 {
		return ""
	}
	c := newCanvas(opts)
	w := v.World
	cam := w.Camera
	idx := w.NodeIndex()
	screen := func(n *scene.Node) scene.Point { return viewport.ToScreen(cam, n.X, n.Y) }

	for _, e := range w.Edges {
		a, b := idx[e.AID], idx[e.BID]
		if !e.Visible || a == nil || b == nil || !a.Visible || !b.Visible {
			continue
		}
		pa, pb := screen(a), screen(b)
		if v.EdgeHighlighted(e) {
			c.line(pa, pb, '•', highlightColor, true)
		} else {
			c.line(pa, pb, '·', edgeColor, false)
		}
		if e.Label != "" {
			c.textAt(scene.Point{X: (pa.X + pb.X) / 2, Y: (pa.Y + pb.Y) / 2}, -1, e.Label, textColor, false)
		}
	}

	if src := idx[v.EdgeSource]; src != nil && src.Visible {
		c.line(screen(src), v.Mouse, '.', rubberColor, false)
	}

	for _, n := range w.Nodes {
		if !n.Visible {
			continue
		}
		hot := v.Highlighted(n) || v.InSelection(n.ID)
		p := screen(n)
		r := n.R * cam.Scale
		if n.IsGroup() {
			c.box(p, r, n.Color, hot)
			c.textAt(scene.Point{X: p.X, Y: p.Y - r}, -1, n.Name, textColor, hot)
		} else {
			c.disc(p, r, n.Color, hot)
			c.textAt(scene.Point{X: p.X, Y: p.Y + r}, 1, n.Name, textColor, hot)
		}
		if n.HasNote() && w.Settings.ShowIndicators {
			col, row := opts.Cell(scene.Point{X: p.X + r*0.6, Y: p.Y - r*0.6})
			c.set(col, row, '*', noteColor, true)
		}
	}

	if pop := v.Popover; pop != nil {
		c.textAt(pop.At, -1, "[ "+pop.Text+" ]", noteColor, true)
	}
	return c.String()
}

// =============================================================================
// Canvas
// =============================================================================

type style struct {
	fg   string
	bold bool
}

type cell struct {
	r rune
	style
}

type canvas struct {
	opts   TermOptions
	cells  []cell
	styles map[style]lipgloss.Style
}

func newCanvas(opts TermOptions) *canvas {
	cells := make([]cell, opts.Cols*opts.Rows)
	for i := range cells {
		cells[i].r = ' '
	}
	return &canvas{opts: opts, cells: cells, styles: make(map[style]lipgloss.Style)}
}

func (c *canvas) set(col, row int, r rune, fg string, bold bool) {
	if col < 0 || row < 0 || col >= c.opts.Cols || row >= c.opts.Rows {
		return
	}
	c.cells[row*c.opts.Cols+col] = cell{r: r, style: style{fg: fg, bold: bold}}
}

// line draws a segment between two screen points, one rune per cell.
func (c *canvas) line(a, b scene.Point, r rune, fg string, bold bool) {
	c0, r0 := c.opts.Cell(a)
	c1, r1 := c.opts.Cell(b)
	steps := max(abs(c1-c0), abs(r1-r0))
	if steps == 0 {
		c.set(c0, r0, r, fg, bold)
		return
	}
	// Segments with far off-screen endpoints are sampled, not walked cell
	// by cell.
	n := min(steps, 4*(c.opts.Cols+c.opts.Rows))
	for i := 0; i <= n; i++ {
		t := float64(i) / float64(n)
		col := int(math.Round(float64(c0) + t*float64(c1-c0)))
		row := int(math.Round(float64(r0) + t*float64(r1-r0)))
		c.set(col, row, r, fg, bold)
	}
}

// box draws the outline of a group square of half-side r.
func (c *canvas) box(center scene.Point, r float64, fg string, bold bool) {
	left, top := c.opts.Cell(scene.Point{X: center.X - r, Y: center.Y - r})
	right, bottom := c.opts.Cell(scene.Point{X: center.X + r, Y: center.Y + r})
	if left == right || top == bottom {
		col, row := c.opts.Cell(center)
		c.set(col, row, '■', fg, bold)
		return
	}
	for col := max(left+1, 0); col < min(right, c.opts.Cols); col++ {
		c.set(col, top, '─', fg, bold)
		c.set(col, bottom, '─', fg, bold)
	}
	for row := max(top+1, 0); row < min(bottom, c.opts.Rows); row++ {
		c.set(left, row, '│', fg, bold)
		c.set(right, row, '│', fg, bold)
	}
	c.set(left, top, '╭', fg, bold)
	c.set(right, top, '╮', fg, bold)
	c.set(left, bottom, '╰', fg, bold)
	c.set(right, bottom, '╯', fg, bold)
}

// disc fills every cell whose center lies within r of center. The cell
// under the center is always filled.
func (c *canvas) disc(center scene.Point, r float64, fg string, bold bool) {
	left, top := c.opts.Cell(scene.Point{X: center.X - r, Y: center.Y - r})
	right, bottom := c.opts.Cell(scene.Point{X: center.X + r, Y: center.Y + r})
	for row := max(top, 0); row <= min(bottom, c.opts.Rows-1); row++ {
		for col := max(left, 0); col <= min(right, c.opts.Cols-1); col++ {
			p := c.opts.CellCenter(col, row)
			if math.Hypot(p.X-center.X, p.Y-center.Y) <= r {
				c.set(col, row, '●', fg, bold)
			}
		}
	}
	col, row := c.opts.Cell(center)
	c.set(col, row, '●', fg, bold)
}

// textAt writes s centered on the column of p, one row above (dir -1) or
// below (dir 1) the row of p.
func (c *canvas) textAt(p scene.Point, dir int, s string, fg string, bold bool) {
	runes := []rune(s)
	col, row := c.opts.Cell(p)
	row += dir
	start := col - len(runes)/2
	for i, r := range runes {
		c.set(start+i, row, r, fg, bold)
	}
}

func (c *canvas) String() string {
	var b strings.Builder
	for row := 0; row < c.opts.Rows; row++ {
		if row > 0 {
			b.WriteByte('\n')
		}
		line := c.cells[row*c.opts.Cols : (row+1)*c.opts.Cols]
		if !c.opts.Color {
			for _, cl := range line {
				b.WriteRune(cl.r)
			}
			continue
		}
		for start := 0; start < len(line); {
			end := start + 1
			for end < len(line) && line[end].style == line[start].style {
				end++
			}
			run := make([]rune, 0, end-start)
			for _, cl := range line[start:end] {
				run = append(run, cl.r)
			}
			b.WriteString(c.render(line[start].style, string(run)))
			start = end
		}
	}
	return b.String()
}

func (c *canvas) render(s style, text string) string {
	if s.fg == "" && !s.bold {
		return text
	}
	st, ok := c.styles[s]
	if !ok {
		st = lipgloss.NewStyle().Bold(s.bold)
		if s.fg != "" {
			st = st.Foreground(lipgloss.Color(s.fg))
		}
		c.styles[s] = st
	}
	return st.Render(text)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
