package geometry

import "math"

// AABB is an axis-aligned bounding box.
type AABB struct {
	Min, Max Vec2
}

// Bound returns the tightest AABB containing every vertex.
func Bound(vertices []Vec2) AABB {
	bb := AABB{
		Min: Vec2{math.MaxFloat64, math.MaxFloat64},
		Max: Vec2{-math.MaxFloat64, -math.MaxFloat64},
	}
	for _, v := range vertices {
		bb.Min.X = math.Min(bb.Min.X, v.X)
		bb.Min.Y = math.Min(bb.Min.Y, v.Y)
		bb.Max.X = math.Max(bb.Max.X, v.X)
		bb.Max.Y = math.Max(bb.Max.Y, v.Y)
	}
	return bb
}

func (bb AABB) Overlaps(other AABB) bool {
	return bb.Min.X <= other.Max.X && other.Min.X <= bb.Max.X &&
		bb.Min.Y <= other.Max.Y && other.Min.Y <= bb.Max.Y
}

func (bb AABB) Contains(p Vec2) bool {
	return p.X >= bb.Min.X && p.X <= bb.Max.X && p.Y >= bb.Min.Y && p.Y <= bb.Max.Y
}
