package converter

import (
	"fmt"

	"github.com/binzume/quadrig/geom"
	"github.com/binzume/quadrig/logging"
	"github.com/binzume/quadrig/mesh"
	"github.com/binzume/quadrig/skeleton"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

type GLTFToMeshOption struct {
	// SwapYZ converts glTF Y-up coordinates to Z-up.
	SwapYZ bool
}

type gltfToMesh struct {
	*GLTFToMeshOption
}

func NewGLTFToMeshConverter(options *GLTFToMeshOption) *gltfToMesh {
	if options == nil {
		options = &GLTFToMeshOption{}
	}
	return &gltfToMesh{GLTFToMeshOption: options}
}

func nodeMatrix(n *gltf.Node) *geom.Matrix4 {
	if n.MatrixOrDefault() != gltf.DefaultMatrix {
		a := n.MatrixOrDefault()
		var m geom.Matrix4
		for i, v := range a {
			m[i] = float64(v)
		}
		return &m
	}
	t := n.Translation
	r := n.RotationOrDefault()
	s := n.ScaleOrDefault()
	return geom.NewTRSMatrix4(
		geom.NewVector3(float64(t[0]), float64(t[1]), float64(t[2])),
		geom.NewQuaternion(float64(r[0]), float64(r[1]), float64(r[2]), float64(r[3])),
		geom.NewVector3(float64(s[0]), float64(s[1]), float64(s[2])))
}

func (c *gltfToMesh) position(v *geom.Vector3) geom.Vector3 {
	if c.SwapYZ {
		return *geom.NewVector3FromArray(skeleton.SwapYZ([3]float64{v.X, v.Y, v.Z}))
	}
	return *v
}

// worldMatrices returns the global transform of every node reachable from
// the scenes.
func worldMatrices(src *gltf.Document) map[uint32]*geom.Matrix4 {
	world := map[uint32]*geom.Matrix4{}
	var walk func(node uint32, parent *geom.Matrix4)
	walk = func(node uint32, parent *geom.Matrix4) {
		if _, done := world[node]; done || int(node) >= len(src.Nodes) {
			return
		}
		m := parent.Mul(nodeMatrix(src.Nodes[node]))
		world[node] = m
		for _, child := range src.Nodes[node].Children {
			walk(child, m)
		}
	}
	for _, scene := range src.Scenes {
		for _, n := range scene.Nodes {
			walk(n, geom.NewMatrix4())
		}
	}
	return world
}

func (c *gltfToMesh) convertMesh(src *gltf.Document, gm *gltf.Mesh, world *geom.Matrix4, dst *mesh.Mesh) error {
	for _, p := range gm.Primitives {
		a, ok := p.Attributes["POSITION"]
		if !ok {
			continue
		}
		pos, err := modeler.ReadPosition(src, src.Accessors[a], [][3]float32{})
		if err != nil {
			return err
		}
		base := len(dst.Vertices)
		for _, v := range pos {
			wv := world.ApplyTo(geom.NewVector3(float64(v[0]), float64(v[1]), float64(v[2])))
			dst.Vertices = append(dst.Vertices, c.position(wv))
		}
		if p.Indices == nil {
			continue
		}
		if p.Mode != gltf.PrimitiveTriangles {
			logging.Warnf("mesh %q: primitive mode %v ignored", gm.Name, p.Mode)
			continue
		}
		indices, err := modeler.ReadIndices(src, src.Accessors[*p.Indices], []uint32{})
		if err != nil {
			return err
		}
		for i := 0; i+2 < len(indices); i += 3 {
			f := []int{base + int(indices[i]), base + int(indices[i+1]), base + int(indices[i+2])}
			for _, vi := range f {
				if vi >= len(dst.Vertices) {
					return fmt.Errorf("mesh %q: index %d out of range", gm.Name, vi-base)
				}
			}
			dst.Faces = append(dst.Faces, f)
		}
	}
	return nil
}

// Convert merges every mesh instanced in the scenes into one mesh in world
// coordinates.
func (c *gltfToMesh) Convert(src *gltf.Document) (*mesh.Mesh, error) {
	dst := mesh.NewMesh("")
	world := worldMatrices(src)
	for i, node := range src.Nodes {
		if node.Mesh == nil {
			continue
		}
		m, ok := world[uint32(i)]
		if !ok {
			continue
		}
		gm := src.Meshes[*node.Mesh]
		if dst.Name == "" {
			dst.Name = gm.Name
		}
		if err := c.convertMesh(src, gm, m, dst); err != nil {
			return nil, err
		}
	}
	if dst.VertexCount() == 0 {
		return nil, fmt.Errorf("no mesh vertices in glTF document")
	}
	return dst, nil
}

// JointList builds a joint list from the first skin. Heads are the joint
// world positions and each tail is the first child's head.
func (c *gltfToMesh) JointList(src *gltf.Document) ([]skeleton.JointDesc, error) {
	if len(src.Skins) == 0 {
		return nil, fmt.Errorf("%w: glTF document has no skin", skeleton.ErrStructure)
	}
	skin := src.Skins[0]
	world := worldMatrices(src)
	inSkin := map[uint32]int{}
	for i, n := range skin.Joints {
		inSkin[n] = i
	}
	parents := map[uint32]uint32{}
	for i, n := range src.Nodes {
		for _, child := range n.Children {
			parents[child] = uint32(i)
		}
	}

	descs := make([]skeleton.JointDesc, len(skin.Joints))
	for i, n := range skin.Joints {
		m, ok := world[n]
		if !ok {
			m = nodeMatrix(src.Nodes[n])
		}
		head := c.position(m.Translation())
		descs[i] = skeleton.JointDesc{
			Name:  src.Nodes[n].Name,
			Index: i,
			Head:  [3]float64{head.X, head.Y, head.Z},
			Tail:  [3]float64{head.X, head.Y, head.Z},
		}
		if descs[i].Name == "" {
			descs[i].Name = fmt.Sprintf("joint%d", i)
		}
	}
	for i, n := range skin.Joints {
		if p, ok := parents[n]; ok {
			if pi, ok := inSkin[p]; ok {
				descs[i].Parent = descs[pi].Name
			}
		}
		for _, child := range src.Nodes[n].Children {
			if ci, ok := inSkin[child]; ok {
				descs[i].Tail = descs[ci].Head
				break
			}
		}
	}
	return descs, nil
}
