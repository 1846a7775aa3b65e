// Package export writes scene snapshots to SVG.
package export

import (
	"fmt"
	"os"
	"strings"

	"github.com/san-kum/rigid2d/internal/geometry"
	"github.com/san-kum/rigid2d/internal/rigid"
)

const (
	svgPadding = 0.15 // fraction of the scene extent on each side
	background = "#0a0a0a"
	bodyColor  = "#00ff00"
	linkColor  = "#555555"
)

// SceneSVG renders the bodies' world polygons and the constraint links as
// an SVG document of the given pixel size.
func SceneSVG(bodies []*rigid.Body, constraints []rigid.Constraint, width, height int) string {
	if len(bodies) == 0 {
		return ""
	}

	bb := sceneBounds(bodies)
	span := bb.Max.Sub(bb.Min)
	bb.Min = bb.Min.Sub(span.Mult(svgPadding))
	bb.Max = bb.Max.Add(span.Mult(svgPadding))
	span = bb.Max.Sub(bb.Min)

	scale := float64(width) / span.X
	if s := float64(height) / span.Y; s < scale {
		scale = s
	}

	// World y grows up, SVG y grows down.
	project := func(p geometry.Vec2) (float64, float64) {
		return (p.X - bb.Min.X) * scale, (bb.Max.Y - p.Y) * scale
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d">
<rect width="100%%" height="100%%" fill="%s"/>
`, width, height, background))

	for _, c := range constraints {
		coupled := c.Bodies()
		for i := 1; i < len(coupled); i++ {
			x1, y1 := project(coupled[i-1].Pos())
			x2, y2 := project(coupled[i].Pos())
			sb.WriteString(fmt.Sprintf(
				`<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="%s" stroke-width="1"/>`+"\n",
				x1, y1, x2, y2, linkColor))
		}
	}

	for _, b := range bodies {
		points := make([]string, 0, len(b.World()))
		for _, v := range b.World() {
			x, y := project(v)
			points = append(points, fmt.Sprintf("%.1f,%.1f", x, y))
		}
		fill := "none"
		if !b.Dynamic() {
			fill = linkColor
		}
		sb.WriteString(fmt.Sprintf(
			`<polygon points="%s" fill="%s" stroke="%s" stroke-width="1.5"/>`+"\n",
			strings.Join(points, " "), fill, bodyColor))
	}

	sb.WriteString("</svg>\n")
	return sb.String()
}

// WriteSceneSVG renders SceneSVG to a file.
func WriteSceneSVG(path string, bodies []*rigid.Body, constraints []rigid.Constraint, width, height int) error {
	svg := SceneSVG(bodies, constraints, width, height)
	if svg == "" {
		return fmt.Errorf("nothing to export")
	}
	return os.WriteFile(path, []byte(svg), 0644)
}

func sceneBounds(bodies []*rigid.Body) geometry.AABB {
	bb := bodies[0].Bound()
	for _, b := range bodies[1:] {
		other := b.Bound()
		bb.Min.X = min(bb.Min.X, other.Min.X)
		bb.Min.Y = min(bb.Min.Y, other.Min.Y)
		bb.Max.X = max(bb.Max.X, other.Max.X)
		bb.Max.Y = max(bb.Max.Y, other.Max.Y)
	}
	return bb
}
