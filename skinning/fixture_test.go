package skinning

import (
	"testing"

	"github.com/binzume/quadrig/geom"
	"github.com/binzume/quadrig/mesh"
	"github.com/binzume/quadrig/skeleton"
)

// quadrupedJoints is a small deer-like rig: Z up, X > 0 left, head at -Y.
func quadrupedJoints() []skeleton.JointDesc {
	j := func(name string, index int, parent string, x, y, z float64) skeleton.JointDesc {
		return skeleton.JointDesc{Name: name, Index: index, Parent: parent, Head: [3]float64{x, y, z}, Tail: [3]float64{x, y, z}}
	}
	return []skeleton.JointDesc{
		j("rigRoot", 0, "", 0, 0.3, 0.6),
		j("rigSpine1", 1, "rigRoot", 0, 0, 0.6),
		j("rigChest", 2, "rigSpine1", 0, -0.3, 0.6),
		j("rigNeck1", 3, "rigChest", 0, -0.4, 0.75),
		j("rigHead", 4, "rigNeck1", 0, -0.5, 0.9),
		j("rigHeadTip", 5, "rigHead", 0, -0.6, 0.9),
		j("rigTail1", 6, "rigRoot", 0, 0.5, 0.6),
		j("rigTail2", 7, "rigTail1", 0, 0.7, 0.55),
		j("rigLFLeg1", 8, "rigChest", 0.1, -0.3, 0.5),
		j("rigLFLeg2", 9, "rigLFLeg1", 0.1, -0.3, 0.25),
		j("rigLFLegAnkle", 10, "rigLFLeg2", 0.1, -0.3, 0.05),
		j("rigRFLeg1", 11, "rigChest", -0.1, -0.3, 0.5),
		j("rigRFLeg2", 12, "rigRFLeg1", -0.1, -0.3, 0.25),
		j("rigRFLegAnkle", 13, "rigRFLeg2", -0.1, -0.3, 0.05),
		j("rigLBLeg1", 14, "rigRoot", 0.1, 0.3, 0.5),
		j("rigLBLeg2", 15, "rigLBLeg1", 0.1, 0.3, 0.25),
		j("rigLBLegAnkle", 16, "rigLBLeg2", 0.1, 0.3, 0.05),
		j("rigRBLeg1", 17, "rigRoot", -0.1, 0.3, 0.5),
		j("rigRBLeg2", 18, "rigRBLeg1", -0.1, 0.3, 0.25),
		j("rigRBLegAnkle", 19, "rigRBLeg2", -0.1, 0.3, 0.05),
	}
}

func newQuadruped(t *testing.T) *skeleton.Skeleton {
	t.Helper()
	sk, err := skeleton.New(quadrupedJoints())
	if err != nil {
		t.Fatal(err)
	}
	return sk
}

// sampleMesh scatters vertices around every bone and spans Z = 0..1.
func sampleMesh(sk *skeleton.Skeleton) *mesh.Mesh {
	m := mesh.NewMesh("sample")
	offsets := []geom.Vector3{{X: 0.02, Y: 0, Z: 0}, {X: -0.02, Y: 0, Z: 0}, {X: 0, Y: 0.02, Z: 0.01}, {X: 0, Y: -0.02, Z: -0.01}}
	for _, b := range sk.Bones {
		a, c := sk.BoneSegment(b)
		for _, t := range []float64{0.25, 0.5, 0.75} {
			p := a.Add(c.Sub(a).Scale(t))
			for i := range offsets {
				m.Vertices = append(m.Vertices, *p.Add(&offsets[i]))
			}
		}
	}
	m.Vertices = append(m.Vertices,
		geom.Vector3{X: 0, Y: 0, Z: 0},
		geom.Vector3{X: 0, Y: -0.5, Z: 1},
		// antler-like protrusion above the head
		geom.Vector3{X: 0.15, Y: -0.5, Z: 1},
	)
	return m
}
