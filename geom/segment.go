package geom

// DegenerateSegmentEpsilon is the squared length below which a segment is
// treated as a point.
const DegenerateSegmentEpsilon = 1e-10

// ClosestPointOnSegment projects p onto the line ab and clamps the
// parameter to [0, 1]. Returns the point and the parameter.
func ClosestPointOnSegment(p, a, b *Vector3) (*Vector3, Element) {
	ab := b.Sub(a)
	l2 := ab.LenSqr()
	if l2 < DegenerateSegmentEpsilon {
		return &Vector3{a.X, a.Y, a.Z}, 0
	}
	t := Clamp(p.Sub(a).Dot(ab)/l2, 0, 1)
	return a.Add(ab.Scale(t)), t
}

func PointToSegmentDistance(p, a, b *Vector3) Element {
	c, _ := ClosestPointOnSegment(p, a, b)
	return p.Distance(c)
}
