package visualizer

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Each terminal cell is a CellWidth x CellHeight braille dot grid.
const (
	CellWidth  = 2
	CellHeight = 4

	minVisible = 0.15
)

var brailleDots = [CellHeight][CellWidth]rune{
	{0x01, 0x08},
	{0x02, 0x10},
	{0x04, 0x20},
	{0x40, 0x80},
}

type point struct{ x, y float64 }

// Canvas is a pixel surface with per pixel alpha, rendered as braille.
type Canvas struct {
	cols, rows int
	alpha      []float64
	paths      [][]point
	drawCalls  int
	styles     [3]lipgloss.Style
}

func NewCanvas(cols, rows int, color string) *Canvas {
	c := &Canvas{}
	c.styles = [3]lipgloss.Style{
		lipgloss.NewStyle().Foreground(Shade(color, 0.35)),
		lipgloss.NewStyle().Foreground(Shade(color, 0.65)),
		lipgloss.NewStyle().Foreground(Shade(color, 1)),
	}
	c.Resize(cols, rows)
	return c
}

// Resize sets the size in terminal cells. Like resizing an HTML canvas, it clears it.
func (c *Canvas) Resize(cols, rows int) {
	c.cols, c.rows = max(cols, 0), max(rows, 0)
	w, h := c.Size()
	c.alpha = make([]float64, w*h)
	c.paths = nil
}

func (c *Canvas) Size() (int, int) {
	return c.cols * CellWidth, c.rows * CellHeight
}

func (c *Canvas) Cells() (int, int) {
	return c.cols, c.rows
}

// DrawCalls counts the drawing operations issued since the canvas was created.
func (c *Canvas) DrawCalls() int {
	return c.drawCalls
}

func (c *Canvas) FadeOut(a float64) {
	c.drawCalls++
	keep := 1 - a
	for i, v := range c.alpha {
		v *= keep
		if v < 0.01 {
			v = 0
		}
		c.alpha[i] = v
	}
}

func (c *Canvas) BeginPath() {
	c.drawCalls++
	c.paths = c.paths[:0]
}

func (c *Canvas) MoveTo(x, y float64) {
	c.drawCalls++
	c.paths = append(c.paths, []point{{x, y}})
}

func (c *Canvas) LineTo(x, y float64) {
	c.drawCalls++
	if len(c.paths) == 0 {
		c.paths = append(c.paths, []point{{x, y}})
		return
	}
	last := len(c.paths) - 1
	c.paths[last] = append(c.paths[last], point{x, y})
}

func (c *Canvas) Stroke() {
	c.drawCalls++
	for _, path := range c.paths {
		for i := 1; i < len(path); i++ {
			c.line(path[i-1], path[i])
		}
	}
}

// At returns the alpha of a pixel; out of range is 0.
func (c *Canvas) At(x, y int) float64 {
	w, h := c.Size()
	if x < 0 || y < 0 || x >= w || y >= h {
		return 0
	}
	return c.alpha[y*w+x]
}

func (c *Canvas) plot(x, y int) {
	w, h := c.Size()
	if x < 0 || y < 0 || x >= w || y >= h {
		return
	}
	c.alpha[y*w+x] = 1
}

// line is Bresenham between the rounded end points.
func (c *Canvas) line(a, b point) {
	x0, y0 := int(math.Round(a.x)), int(math.Round(a.y))
	x1, y1 := int(math.Round(b.x)), int(math.Round(b.y))
	dx, dy := abs(x1-x0), -abs(y1-y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	for {
		c.plot(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

// Render returns the terminal lines for cell rows [from, to).
func (c *Canvas) Render(from, to int) []string {
	from, to = max(from, 0), min(to, c.rows)
	lines := make([]string, 0, max(to-from, 0))
	w, _ := c.Size()

	var line, run strings.Builder
	for row := from; row < to; row++ {
		line.Reset()
		run.Reset()
		level := -1
		flush := func() {
			if run.Len() == 0 {
				return
			}
			if level < 0 {
				line.WriteString(run.String())
			} else {
				line.WriteString(c.styles[level].Render(run.String()))
			}
			run.Reset()
		}

		for col := 0; col < c.cols; col++ {
			var dots rune
			peak := 0.0
			for dy := range CellHeight {
				y := row*CellHeight + dy
				for dx := range CellWidth {
					a := c.alpha[y*w+col*CellWidth+dx]
					if a >= minVisible {
						dots |= brailleDots[dy][dx]
						peak = max(peak, a)
					}
				}
			}

			cellLevel := -1
			ch := ' '
			if dots != 0 {
				ch = 0x2800 + dots
				switch {
				case peak >= 0.6:
					cellLevel = 2
				case peak >= 0.3:
					cellLevel = 1
				default:
					cellLevel = 0
				}
			}
			if cellLevel != level {
				flush()
				level = cellLevel
			}
			run.WriteRune(ch)
		}
		flush()
		lines = append(lines, line.String())
	}
	return lines
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
