// Package mesh is the static triangle mesh consumed by the rigging core.
package mesh

import (
	"fmt"

	"github.com/binzume/quadrig/geom"
)

type Mesh struct {
	Name     string
	Vertices []geom.Vector3
	// Faces are polygons of vertex indices (usually triangles).
	Faces [][]int
}

func NewMesh(name string) *Mesh {
	return &Mesh{Name: name}
}

func (m *Mesh) VertexCount() int {
	return len(m.Vertices)
}

// Validate checks that every face index refers to a vertex.
func (m *Mesh) Validate() error {
	for fi, f := range m.Faces {
		for _, vi := range f {
			if vi < 0 || vi >= len(m.Vertices) {
				return fmt.Errorf("face %d: vertex index %d out of range (%d vertices)", fi, vi, len(m.Vertices))
			}
		}
	}
	return nil
}

// BoundingBox covers the vertices referenced by faces, or all vertices
// when the mesh has no faces.
func (m *Mesh) BoundingBox() *geom.Box3 {
	box := geom.NewBox3()
	if len(m.Faces) == 0 {
		for i := range m.Vertices {
			box.Extend(&m.Vertices[i])
		}
		return box
	}
	for _, f := range m.Faces {
		for _, vi := range f {
			if vi >= 0 && vi < len(m.Vertices) {
				box.Extend(&m.Vertices[vi])
			}
		}
	}
	return box
}

// Height is the Z extent of the bounding box.
func (m *Mesh) Height() float64 {
	return m.BoundingBox().Size().Z
}

// Triangles splits polygons into triangles.
func (m *Mesh) Triangles() [][3]int {
	var tris [][3]int
	for _, f := range m.Faces {
		switch {
		case len(f) == 3:
			tris = append(tris, [3]int{f[0], f[1], f[2]})
		case len(f) > 3:
			poly := make([]*geom.Vector3, len(f))
			for i, vi := range f {
				poly[i] = &m.Vertices[vi]
			}
			for _, t := range geom.Triangulate(poly) {
				tris = append(tris, [3]int{f[t[0]], f[t[1]], f[t[2]]})
			}
		}
	}
	return tris
}

// WithVertices returns a shallow copy of m using vertices.
func (m *Mesh) WithVertices(vertices []geom.Vector3) *Mesh {
	return &Mesh{Name: m.Name, Vertices: vertices, Faces: m.Faces}
}
