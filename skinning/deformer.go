package skinning

import (
	"fmt"

	"github.com/binzume/quadrig/geom"
	"github.com/binzume/quadrig/skeleton"
)

// Deformer applies linear blend skinning:
//
//	v' = Σ w[v,b] · (G_b · B_b⁻¹) · v_bind
//
// where G_b and B_b are the global and bind matrices of the start joint
// of bone b.
type Deformer struct {
	sk         *skeleton.Skeleton
	weights    *WeightMatrix
	bind       []geom.Vector3
	deformed   []geom.Vector3
	influences [][]Influence
	used       []bool
	skinning   []*geom.Matrix4
	Workers    int
}

func NewDeformer(bindVertices []geom.Vector3, sk *skeleton.Skeleton, weights *WeightMatrix) (*Deformer, error) {
	if weights.Rows != len(bindVertices) {
		return nil, fmt.Errorf("%w: %d weight rows for %d vertices", ErrShape, weights.Rows, len(bindVertices))
	}
	if weights.Cols != len(sk.Bones) {
		return nil, fmt.Errorf("%w: %d weight columns for %d bones", ErrShape, weights.Cols, len(sk.Bones))
	}
	d := &Deformer{
		sk:         sk,
		weights:    weights,
		bind:       make([]geom.Vector3, len(bindVertices)),
		deformed:   make([]geom.Vector3, len(bindVertices)),
		influences: make([][]Influence, len(bindVertices)),
		used:       weights.UsedBones(),
		skinning:   make([]*geom.Matrix4, len(sk.Bones)),
		Workers:    1,
	}
	copy(d.bind, bindVertices)
	copy(d.deformed, bindVertices)
	for v := range d.influences {
		d.influences[v] = weights.Influences(v)
	}
	return d, nil
}

// Update recomputes the deformed vertices from the current global
// transforms. Call it after Skeleton.UpdateGlobalTransforms.
func (d *Deformer) Update() error {
	for i, bone := range d.sk.Bones {
		if d.used[i] {
			d.skinning[i] = d.sk.SkinningMatrix(bone.Start)
		}
	}
	err := forEachChunk(len(d.bind), d.Workers, func(_, lo, hi int) error {
		for v := lo; v < hi; v++ {
			d.deformed[v] = d.deform(v)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("deform: %w", err)
	}
	return nil
}

func (d *Deformer) deform(v int) geom.Vector3 {
	var p geom.Vector3
	for _, inf := range d.influences[v] {
		q, _ := d.skinning[inf.Bone].ApplyToW(&d.bind[v])
		p.X += inf.Weight * q.X
		p.Y += inf.Weight * q.Y
		p.Z += inf.Weight * q.Z
	}
	return p
}

// Vertices returns a copy of the deformed vertices.
func (d *Deformer) Vertices() []geom.Vector3 {
	r := make([]geom.Vector3, len(d.deformed))
	copy(r, d.deformed)
	return r
}

// VerticesView returns the internal buffer. It is overwritten by Update.
func (d *Deformer) VerticesView() []geom.Vector3 {
	return d.deformed
}

func (d *Deformer) BindVertices() []geom.Vector3 {
	return d.bind
}

// SkinningMatrix returns the matrix of bone computed by the last Update,
// or nil if the bone has no weights.
func (d *Deformer) SkinningMatrix(bone int) *geom.Matrix4 {
	return d.skinning[bone]
}

func (d *Deformer) Weights() *WeightMatrix {
	return d.weights
}
