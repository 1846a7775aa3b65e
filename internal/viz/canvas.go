// Package viz renders running simulations in the terminal: a braille
// pixel canvas for world polygons and a bubbletea live view around it.
package viz

import (
	"strings"

	"github.com/san-kum/rigid2d/internal/geometry"
)

// Braille patterns encode 2x4 dots per character cell, so a W x H cell
// canvas has 2W x 4H addressable pixels. Unicode offset 0x2800.
var pixelMap = [4][2]rune{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

const brailleBase = 0x2800

// Canvas is a braille pixel grid with a world-to-pixel transform.
type Canvas struct {
	Width, Height int // in character cells
	grid          [][]rune

	center geometry.Vec2
	scale  float64 // pixels per world unit
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{Width: w, Height: h, scale: 10}
	c.grid = make([][]rune, h)
	for i := range c.grid {
		c.grid[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

// SetView centres the canvas on a world point at the given zoom
// (pixels per world unit).
func (c *Canvas) SetView(center geometry.Vec2, scale float64) {
	c.center = center
	c.scale = scale
}

func (c *Canvas) Scale() float64 { return c.scale }

func (c *Canvas) Clear() {
	for i := range c.grid {
		for j := range c.grid[i] {
			c.grid[i][j] = brailleBase
		}
	}
}

// Set lights one pixel. x is in [0, 2*Width), y in [0, 4*Height), y
// growing downward.
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}
	col, row := x/2, y/4
	if col >= c.Width || row >= c.Height {
		return
	}
	c.grid[row][col] |= pixelMap[y%4][x%2]
}

// project maps a world point to pixel coordinates, y up in the world and
// down on the canvas.
func (c *Canvas) project(p geometry.Vec2) (int, int) {
	d := p.Sub(c.center)
	x := float64(c.Width) + d.X*c.scale
	y := 2*float64(c.Height) - d.Y*c.scale
	return int(x), int(y)
}

// Point lights the pixel under a world point.
func (c *Canvas) Point(p geometry.Vec2) {
	x, y := c.project(p)
	c.Set(x, y)
}

// Line draws a world-space segment with Bresenham.
func (c *Canvas) Line(a, b geometry.Vec2) {
	x0, y0 := c.project(a)
	x1, y1 := c.project(b)

	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy

	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

// Polygon draws the closed outline of a world-frame vertex list.
func (c *Canvas) Polygon(vertices []geometry.Vec2) {
	for i, v := range vertices {
		c.Line(v, vertices[(i+1)%len(vertices)])
	}
}

// String renders the canvas as Height lines of Width runes.
func (c *Canvas) String() string {
	var sb strings.Builder
	sb.Grow((c.Width + 1) * c.Height)
	for i, row := range c.grid {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(string(row))
	}
	return sb.String()
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
