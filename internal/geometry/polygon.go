package geometry

import (
	"errors"
	"math"
)

// ErrDegeneratePolygon indicates a vertex list that does not describe a
// simple polygon with nonzero area.
var ErrDegeneratePolygon = errors.New("geometry: degenerate polygon")

const minPolygonArea = 1e-12

// Polygon is an ordered set of vertices expressed in the body frame. The
// vertex list is re-centred on the centroid at construction so that the
// body origin coincides with the centre of mass.
type Polygon struct {
	vertices []Vec2
	area     float64
	inertia  float64 // unit-mass second moment about the centroid
}

// NewPolygon builds a polygon from at least 3 ordered vertices. Winding may
// be either direction. Returns ErrDegeneratePolygon when the vertex list has
// fewer than 3 points, two of its edges cross, or it encloses (near) zero
// area.
func NewPolygon(vertices []Vec2) (*Polygon, error) {
	if len(vertices) < 3 {
		return nil, ErrDegeneratePolygon
	}

	// Two non-adjacent edges that properly cross make the outline non-simple.
	n := len(vertices)
	for i := 0; i < n; i++ {
		a, b := vertices[i], vertices[(i+1)%n]
		for j := i + 2; j < n; j++ {
			if i == 0 && j == n-1 {
				continue // edges n-1 and 0 share vertex 0
			}
			c, d := vertices[j], vertices[(j+1)%n]
			ab, cd := b.Sub(a), d.Sub(c)
			if ab.Cross(c.Sub(a))*ab.Cross(d.Sub(a)) < 0 && cd.Cross(a.Sub(c))*cd.Cross(b.Sub(c)) < 0 {
				return nil, ErrDegeneratePolygon
			}
		}
	}

	signed := signedArea(vertices)
	area := math.Abs(signed)
	if area < minPolygonArea {
		return nil, ErrDegeneratePolygon
	}

	centroid := centroid(vertices, signed)
	centred := make([]Vec2, len(vertices))
	for i, v := range vertices {
		centred[i] = v.Sub(centroid)
	}

	return &Polygon{
		vertices: centred,
		area:     area,
		inertia:  unitInertia(centred),
	}, nil
}

// MustPolygon is NewPolygon that panics on error. Intended for literals in
// presets and tests.
func MustPolygon(vertices []Vec2) *Polygon {
	p, err := NewPolygon(vertices)
	if err != nil {
		panic(err)
	}
	return p
}

// Box returns an axis-aligned rectangle of the given width and height
// centred on the origin.
func Box(width, height float64) *Polygon {
	hw, hh := width/2, height/2
	return MustPolygon([]Vec2{{-hw, -hh}, {hw, -hh}, {hw, hh}, {-hw, hh}})
}

func (p *Polygon) Size() int         { return len(p.vertices) }
func (p *Polygon) Vertex(i int) Vec2 { return p.vertices[i] }
func (p *Polygon) Vertices() []Vec2  { return p.vertices }
func (p *Polygon) Area() float64     { return p.area }
func (p *Polygon) Inertia() float64  { return p.inertia }

// Transform writes the world-frame vertices R(angle)·v + pos into dst,
// which must have length Size.
func (p *Polygon) Transform(pos Vec2, angle float64, dst []Vec2) {
	sin, cos := math.Sincos(angle)
	for i, v := range p.vertices {
		dst[i] = Vec2{
			X: pos.X + v.X*cos - v.Y*sin,
			Y: pos.Y + v.X*sin + v.Y*cos,
		}
	}
}

// Transformed is Transform into a freshly allocated slice.
func (p *Polygon) Transformed(pos Vec2, angle float64) []Vec2 {
	dst := make([]Vec2, len(p.vertices))
	p.Transform(pos, angle, dst)
	return dst
}

func signedArea(vertices []Vec2) float64 {
	sum := 0.0
	for i, v := range vertices {
		sum += v.Cross(vertices[(i+1)%len(vertices)])
	}
	return sum / 2
}

func centroid(vertices []Vec2, signed float64) Vec2 {
	var c Vec2
	for i, v := range vertices {
		next := vertices[(i+1)%len(vertices)]
		cross := v.Cross(next)
		c = c.Add(v.Add(next).Mult(cross))
	}
	return c.Mult(1 / (6 * signed))
}

// unitInertia computes the second moment of area about the origin divided by
// the area, i.e. the moment of inertia per unit mass. Vertices are assumed
// already centred on the centroid.
func unitInertia(vertices []Vec2) float64 {
	num, den := 0.0, 0.0
	for i, v := range vertices {
		next := vertices[(i+1)%len(vertices)]
		cross := v.Cross(next)
		num += cross * (v.Dot(v) + v.Dot(next) + next.Dot(next))
		den += cross
	}
	return num / (6 * den)
}
