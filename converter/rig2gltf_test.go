package converter

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/binzume/quadrig/anim"
	"github.com/binzume/quadrig/geom"
	"github.com/binzume/quadrig/gltfutil"
	"github.com/binzume/quadrig/mesh"
	"github.com/binzume/quadrig/skeleton"
	"github.com/binzume/quadrig/skinning"
	"github.com/qmuntal/gltf"
)

// a -> b -> c along -Y, and a -> d.
func testRig(t *testing.T) (*skeleton.Skeleton, *mesh.Mesh, *skinning.WeightMatrix) {
	t.Helper()
	sk, err := skeleton.New([]skeleton.JointDesc{
		{Name: "a", Index: 0, Head: [3]float64{0, 0, 1}},
		{Name: "b", Index: 1, Head: [3]float64{0, -1, 1}, Parent: "a"},
		{Name: "c", Index: 2, Head: [3]float64{0, -2, 1}, Parent: "b"},
		{Name: "d", Index: 3, Head: [3]float64{0, 0, 0}, Parent: "a"},
	})
	if err != nil {
		t.Fatal(err)
	}
	m := mesh.NewMesh("body")
	m.Vertices = []geom.Vector3{{X: 0, Y: -0.5, Z: 1}, {X: 0, Y: -1.5, Z: 1}, {X: 0.1, Y: -1, Z: 1}, {X: 0, Y: 0, Z: 0.5}}
	m.Faces = [][]int{{0, 1, 2}, {0, 2, 3}}

	// bones: a_to_b, b_to_c, a_to_d
	w, err := skinning.NewWeightMatrixFromData(4, 3, []float64{
		1, 0, 0,
		0, 1, 0,
		0.5, 0.5, 0,
		0.25, 0, 0.75,
	})
	if err != nil {
		t.Fatal(err)
	}
	return sk, m, w
}

func TestRigToGLTF(t *testing.T) {
	sk, m, w := testRig(t)
	doc, err := NewRigToGLTFConverter(nil).Convert(m, sk, w)
	if err != nil {
		t.Fatal(err)
	}

	if len(doc.Nodes) != 5 {
		t.Fatal("node count:", len(doc.Nodes))
	}
	if doc.Nodes[1].Translation != [3]float32{0, -1, 0} {
		t.Error("joint b translation:", doc.Nodes[1].Translation)
	}
	if doc.Nodes[0].Translation != [3]float32{0, 0, 1} {
		t.Error("root translation:", doc.Nodes[0].Translation)
	}
	if len(doc.Nodes[0].Children) != 2 {
		t.Error("root children:", doc.Nodes[0].Children)
	}
	if len(doc.Skins) != 1 || len(doc.Skins[0].Joints) != 4 {
		t.Fatal("skin:", doc.Skins)
	}
	ibm := doc.Accessors[*doc.Skins[0].InverseBindMatrices]
	if ibm.Type != gltf.AccessorMat4 || ibm.Count != 4 {
		t.Error("inverse bind matrices:", ibm.Type, ibm.Count)
	}
	meshNode := doc.Nodes[4]
	if meshNode.Mesh == nil || meshNode.Skin == nil {
		t.Fatal("mesh node not skinned")
	}
	if len(doc.Scenes[0].Nodes) != 2 {
		t.Error("scene nodes:", doc.Scenes[0].Nodes)
	}
}

func TestRigToGLTFWeightsFoldToJoints(t *testing.T) {
	sk, _, w := testRig(t)
	conv := NewRigToGLTFConverter(nil)
	conv.addJointNodes(sk)
	joints, weights := conv.getWeights(sk, w)

	// a_to_b and a_to_d both start at joint a.
	if joints[3][0] != 0 || math.Abs(float64(weights[3][0])-1) > 1e-6 {
		t.Error("vertex 3:", joints[3], weights[3])
	}
	if weights[3][1] != 0 {
		t.Error("vertex 3 has extra influence:", weights[3])
	}
	if weights[2][0]+weights[2][1] != 1 {
		t.Error("vertex 2 not normalized:", weights[2])
	}
	if joints[1][0] != 1 {
		t.Error("vertex 1 should follow joint b:", joints[1])
	}
}

func TestRigToGLTFMaxInfluences(t *testing.T) {
	sk, _, _ := testRig(t)
	w, _ := skinning.NewWeightMatrixFromData(1, 3, []float64{0.3, 0.35, 0.35})
	conv := NewRigToGLTFConverter(&RigToGLTFOption{MaxInfluences: 1})
	joints, weights := conv.getWeights(sk, w)
	// joint a carries 0.65 (a_to_b + a_to_d), joint b carries 0.35
	if weights[0][0] != 1 || weights[0][1] != 0 {
		t.Error("weights:", weights[0])
	}
	if joints[0][0] != 0 {
		t.Error("joints:", joints[0])
	}
}

func TestRigToGLTFShape(t *testing.T) {
	sk, m, _ := testRig(t)
	w := skinning.NewWeightMatrix(3, 3)
	if _, err := NewRigToGLTFConverter(nil).Convert(m, sk, w); err == nil {
		t.Error("shape mismatch must fail")
	}
}

func TestRigToGLTFAnimation(t *testing.T) {
	sk, m, w := testRig(t)
	clip := anim.NewClip("bend", 1)
	clip.AddKeyframe("b", anim.NewKeyframe(0, [3]float64{0, 0, 0}))
	clip.AddKeyframe("b", anim.NewKeyframe(1, [3]float64{math.Pi / 2, 0, 0}))
	clip.AddKeyframe("unknown", anim.NewKeyframe(0, [3]float64{0, 0, 0}))

	doc, err := NewRigToGLTFConverter(&RigToGLTFOption{Scale: 2, Clip: clip}).Convert(m, sk, w)
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Animations) != 1 {
		t.Fatal("animations:", len(doc.Animations))
	}
	a := doc.Animations[0]
	if len(a.Channels) != 2 {
		t.Fatal("channels:", len(a.Channels))
	}
	for _, ch := range a.Channels {
		if *ch.Target.Node != 1 {
			t.Error("channel target:", *ch.Target.Node)
		}
	}
	if doc.Nodes[1].Translation != [3]float32{0, -2, 0} {
		t.Error("scaled translation:", doc.Nodes[1].Translation)
	}
	keys := doc.Accessors[*a.Samplers[0].Input]
	if keys.Count != 2 || keys.Max[0] != 1 {
		t.Error("keys:", keys.Count, keys.Max)
	}
}

func TestGLTFRoundTrip(t *testing.T) {
	sk, m, w := testRig(t)
	doc, err := NewRigToGLTFConverter(nil).Convert(m, sk, w)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "rig.glb")
	if err := gltfutil.Save(doc, path); err != nil {
		t.Fatal(err)
	}
	loaded, err := gltfutil.Load(path)
	if err != nil {
		t.Fatal(err)
	}

	conv := NewGLTFToMeshConverter(nil)
	m2, err := conv.Convert(loaded)
	if err != nil {
		t.Fatal(err)
	}
	if m2.VertexCount() != m.VertexCount() || len(m2.Faces) != len(m.Faces) {
		t.Fatal("mesh:", m2.VertexCount(), len(m2.Faces))
	}
	for i := range m.Vertices {
		if m2.Vertices[i].Distance(&m.Vertices[i]) > 1e-6 {
			t.Error("vertex", i, m2.Vertices[i], m.Vertices[i])
		}
	}

	descs, err := conv.JointList(loaded)
	if err != nil {
		t.Fatal(err)
	}
	sk2, err := skeleton.New(descs)
	if err != nil {
		t.Fatal(err)
	}
	for i, j := range sk.Joints {
		if sk2.Joints[i].Name != j.Name || sk2.Joints[i].Head.Distance(&j.Head) > 1e-6 {
			t.Error("joint", i, sk2.Joints[i].Name, sk2.Joints[i].Head)
		}
	}

	joints, weights, err := gltfutil.ReadSkinWeights(loaded)
	if err != nil {
		t.Fatal(err)
	}
	if len(joints) != 4 || gltfutil.JointCount(loaded) != 4 {
		t.Error("skin weights:", len(joints), gltfutil.JointCount(loaded))
	}
	if math.Abs(float64(weights[3][0])-1) > 1e-3 {
		t.Error("weights[3]:", weights[3])
	}
}

func TestGLTFToMeshSwapYZ(t *testing.T) {
	doc := gltf.NewDocument()
	doc.Nodes = []*gltf.Node{{Name: "n", Translation: [3]float32{0, 1, 0}, Mesh: gltf.Index(0)}}
	doc.Scenes[0].Nodes = []uint32{0}
	m := mesh.NewMesh("m")
	m.Vertices = []geom.Vector3{{X: 1, Y: 2, Z: 3}}
	conv := NewRigToGLTFConverter(nil)
	doc.Meshes = []*gltf.Mesh{conv.convertMesh(m, nil, nil)}
	doc.Buffers = conv.Buffers
	doc.BufferViews = conv.BufferViews
	doc.Accessors = conv.Accessors

	m2, err := NewGLTFToMeshConverter(&GLTFToMeshOption{SwapYZ: true}).Convert(doc)
	if err != nil {
		t.Fatal(err)
	}
	// (1, 3, 3) in Y-up becomes (1, 3, -3) in Z-up.
	if m2.Vertices[0].Distance(geom.NewVector3(1, 3, -3)) > 1e-6 {
		t.Error("swapped vertex:", m2.Vertices[0])
	}
}

func TestGLTFToMeshErrors(t *testing.T) {
	conv := NewGLTFToMeshConverter(nil)
	if _, err := conv.Convert(gltf.NewDocument()); err == nil {
		t.Error("empty document must fail")
	}
	if _, err := conv.JointList(gltf.NewDocument()); err == nil {
		t.Error("document without skin must fail")
	}
}
