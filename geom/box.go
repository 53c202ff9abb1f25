package geom

import "math"

// Box3 is an axis-aligned bounding box.
type Box3 struct {
	Min Vector3
	Max Vector3
}

// NewBox3 returns an empty box.
func NewBox3() *Box3 {
	inf := math.Inf(1)
	return &Box3{
		Min: Vector3{inf, inf, inf},
		Max: Vector3{-inf, -inf, -inf},
	}
}

func (b *Box3) Empty() bool {
	return b.Max.X < b.Min.X || b.Max.Y < b.Min.Y || b.Max.Z < b.Min.Z
}

func (b *Box3) Extend(v *Vector3) *Box3 {
	b.Min.X = math.Min(b.Min.X, v.X)
	b.Min.Y = math.Min(b.Min.Y, v.Y)
	b.Min.Z = math.Min(b.Min.Z, v.Z)
	b.Max.X = math.Max(b.Max.X, v.X)
	b.Max.Y = math.Max(b.Max.Y, v.Y)
	b.Max.Z = math.Max(b.Max.Z, v.Z)
	return b
}

// Size returns max - min, or zero for an empty box.
func (b *Box3) Size() *Vector3 {
	if b.Empty() {
		return &Vector3{}
	}
	return b.Max.Sub(&b.Min)
}

func (b *Box3) Center() *Vector3 {
	return b.Min.Add(&b.Max).Scale(0.5)
}

func (b *Box3) Contains(v *Vector3) bool {
	return v.X >= b.Min.X && v.X <= b.Max.X &&
		v.Y >= b.Min.Y && v.Y <= b.Max.Y &&
		v.Z >= b.Min.Z && v.Z <= b.Max.Z
}
