package geom

import (
	"math"
	"testing"
)

func TestTriangulate(t *testing.T) {
	tris := Triangulate([]*Vector3{
		{0, 0, 0},
		{0, 1, 0},
		{0, 1, 1},
	})
	if len(tris) != 1 {
		t.Error("triangle: ", tris)
	}

	tris2 := Triangulate([]*Vector3{
		{0, 0, 0},
		{0, 1, 0},
		{0, 1, 1},
		{0, 0, 1},
	})
	if len(tris2) != 2 {
		t.Error("quad: ", tris2)
	}

	// non-convex
	tris3 := Triangulate([]*Vector3{
		{0, 0, 0},
		{0, 1, 0},
		{0, 1, 1},
		{0, 0.8, 0.2},
	})
	if len(tris3) != 2 {
		t.Error("non-convex: ", tris3)
	}

	// Empty
	if len(Triangulate(nil)) != 0 {
		t.Error("not empty")
	}
}

func TestClamp(t *testing.T) {
	if Clamp(2.0, 0, 1) != 1 || Clamp(-1.0, 0, 1) != 0 || Clamp(0.5, 0, 1) != 0.5 {
		t.Error("Clamp float")
	}
	if Clamp(7, 1, 5) != 5 {
		t.Error("Clamp int")
	}
	if Lerp(1, 3, 0.5) != 2 || Lerp(1, 3, 2) != 3 {
		t.Error("Lerp")
	}
}

func TestPointToSegmentDistance(t *testing.T) {
	const eps = 0.000001

	a, b := NewVector3(0, 0, 0), NewVector3(0, 0, 2)
	for i, c := range []struct {
		p    *Vector3
		want Element
	}{
		{NewVector3(1, 0, 1), 1},
		{NewVector3(0, 0, 3), 1},
		{NewVector3(0, 0, -2), 2},
		{NewVector3(3, 4, 0), 5},
	} {
		if d := PointToSegmentDistance(c.p, a, b); math.Abs(d-c.want) > eps {
			t.Error("distance: ", i, d, c.want)
		}
	}

	// degenerate segment
	if d := PointToSegmentDistance(NewVector3(3, 4, 0), a, a); math.Abs(d-5) > eps {
		t.Error("degenerate: ", d)
	}
}

func TestBox3(t *testing.T) {
	b := NewBox3()
	if !b.Empty() || b.Size().Len() != 0 {
		t.Error("new box should be empty")
	}
	b.Extend(NewVector3(-1, 0, 2)).Extend(NewVector3(1, 3, -2))
	if *b.Size() != *NewVector3(2, 3, 4) {
		t.Error("Size(): ", b.Size())
	}
	if !b.Contains(NewVector3(0, 1, 0)) || b.Contains(NewVector3(0, 4, 0)) {
		t.Error("Contains()")
	}
}
