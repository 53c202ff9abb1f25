package converter

import (
	"fmt"
	"sort"

	"github.com/binzume/quadrig/anim"
	"github.com/binzume/quadrig/geom"
	"github.com/binzume/quadrig/logging"
	"github.com/binzume/quadrig/mesh"
	"github.com/binzume/quadrig/skeleton"
	"github.com/binzume/quadrig/skinning"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// glTF allows at most 4 influences per JOINTS_0/WEIGHTS_0 set.
const MaxGLTFInfluences = 4

type RigToGLTFOption struct {
	Scale         float32 // Default: 1.0
	MaxInfluences int     // Default: 4
	Clip          *anim.Clip
}

type rigToGltf struct {
	*RigToGLTFOption
	*gltf.Document
	jointNodes []uint32 // joint slot => node
}

func NewRigToGLTFConverter(options *RigToGLTFOption) *rigToGltf {
	if options == nil {
		options = &RigToGLTFOption{}
	}
	if options.Scale == 0 {
		options.Scale = 1.0
	}
	if options.MaxInfluences <= 0 || options.MaxInfluences > MaxGLTFInfluences {
		options.MaxInfluences = MaxGLTFInfluences
	}
	return &rigToGltf{
		RigToGLTFOption: options,
		Document:        gltf.NewDocument(),
	}
}

func (m *rigToGltf) addMatrices(mat [][4][4]float32) uint32 {
	a := make([][4]float32, len(mat)*4)
	for i, m := range mat {
		a[i*4+0] = m[0]
		a[i*4+1] = m[1]
		a[i*4+2] = m[2]
		a[i*4+3] = m[3]
	}
	acc := modeler.WriteTangent(m.Document, a)
	m.Accessors[acc].Type = gltf.AccessorMat4
	m.Accessors[acc].Count /= 4
	m.BufferViews[*m.Accessors[acc].BufferView].ByteStride *= 4
	return acc
}

func (m *rigToGltf) scaled(v *geom.Vector3) [3]float32 {
	return v.Scale(float64(m.Scale)).ToFloat32()
}

// restOffset is the translation of joint j relative to its parent.
func restOffset(sk *skeleton.Skeleton, j *skeleton.Joint) *geom.Vector3 {
	if j.Parent == skeleton.NoParent {
		return &j.Head
	}
	return j.Head.Sub(&sk.Joints[j.Parent].Head)
}

func (m *rigToGltf) addJointNodes(sk *skeleton.Skeleton) {
	m.jointNodes = make([]uint32, len(sk.Joints))
	for slot, j := range sk.Joints {
		m.jointNodes[slot] = uint32(len(m.Nodes))
		m.Nodes = append(m.Nodes, &gltf.Node{
			Name:        j.Name,
			Translation: m.scaled(restOffset(sk, j)),
			Rotation:    [4]float32{0, 0, 0, 1},
		})
	}
	for slot, j := range sk.Joints {
		if j.Parent == skeleton.NoParent {
			m.Scenes[0].Nodes = append(m.Scenes[0].Nodes, m.jointNodes[slot])
			continue
		}
		parent := m.Nodes[m.jointNodes[j.Parent]]
		parent.Children = append(parent.Children, m.jointNodes[slot])
	}
}

// getWeights folds bone weights onto their start joints and keeps the
// heaviest MaxInfluences joints per vertex.
func (m *rigToGltf) getWeights(sk *skeleton.Skeleton, w *skinning.WeightMatrix) ([][4]uint16, [][4]float32) {
	joints := make([][4]uint16, w.Rows)
	weights := make([][4]float32, w.Rows)
	var folded []skinning.Influence
	for v := 0; v < w.Rows; v++ {
		folded = folded[:0]
		for _, inf := range w.Influences(v) {
			slot := sk.Bones[inf.Bone].Start
			merged := false
			for i := range folded {
				if folded[i].Bone == slot {
					folded[i].Weight += inf.Weight
					merged = true
					break
				}
			}
			if !merged {
				folded = append(folded, skinning.Influence{Bone: slot, Weight: inf.Weight})
			}
		}
		sort.SliceStable(folded, func(i, j int) bool {
			return folded[i].Weight > folded[j].Weight
		})
		n := len(folded)
		if n > m.MaxInfluences {
			n = m.MaxInfluences
		}
		var sum float64
		for _, inf := range folded[:n] {
			sum += inf.Weight
		}
		if sum <= 0 {
			weights[v][0] = 1
			continue
		}
		for i, inf := range folded[:n] {
			joints[v][i] = uint16(inf.Bone)
			weights[v][i] = float32(inf.Weight / sum)
		}
	}
	return joints, weights
}

func (m *rigToGltf) addSkin(sk *skeleton.Skeleton) uint32 {
	invmats := make([][4][4]float32, len(sk.Joints))
	for slot, j := range sk.Joints {
		a := j.InvBind.ToFloat32()
		for c := 0; c < 4; c++ {
			copy(invmats[slot][c][:], a[c*4:c*4+4])
		}
		invmats[slot][3][0] *= m.Scale
		invmats[slot][3][1] *= m.Scale
		invmats[slot][3][2] *= m.Scale
	}
	m.Skins = append(m.Skins, &gltf.Skin{
		Name:                "Armature",
		Skeleton:            gltf.Index(m.jointNodes[sk.Root]),
		Joints:              m.jointNodes,
		InverseBindMatrices: gltf.Index(m.addMatrices(invmats)),
	})
	return uint32(len(m.Skins) - 1)
}

func (m *rigToGltf) convertMesh(src *mesh.Mesh, sk *skeleton.Skeleton, w *skinning.WeightMatrix) *gltf.Mesh {
	vertexes := make([][3]float32, len(src.Vertices))
	for i := range src.Vertices {
		vertexes[i] = m.scaled(&src.Vertices[i])
	}
	var indices []uint32
	for _, t := range src.Triangles() {
		indices = append(indices, uint32(t[0]), uint32(t[1]), uint32(t[2]))
	}

	attributes := map[string]uint32{
		"POSITION": modeler.WritePosition(m.Document, vertexes),
	}
	if w != nil {
		joints0, weights0 := m.getWeights(sk, w)
		attributes["JOINTS_0"] = modeler.WriteJoints(m.Document, joints0)
		attributes["WEIGHTS_0"] = modeler.WriteWeights(m.Document, weights0)
	}

	prim := &gltf.Primitive{Attributes: attributes}
	if len(indices) > 0 {
		prim.Indices = gltf.Index(modeler.WriteIndices(m.Document, indices))
	} else {
		prim.Mode = gltf.PrimitivePoints
	}
	return &gltf.Mesh{Name: src.Name, Primitives: []*gltf.Primitive{prim}}
}

// addAnimation writes one rotation and one translation channel per
// animated joint. Node TRS is T(offset + t)·R·S which equals
// T(offset)·local of the skeleton.
func (m *rigToGltf) addAnimation(sk *skeleton.Skeleton, clip *anim.Clip) {
	a := &gltf.Animation{Name: clip.Name}
	for _, name := range clip.JointNames() {
		slot, ok := sk.Slot(name)
		if !ok {
			logging.Warnf("animation track for unknown joint %q skipped", name)
			continue
		}
		track := clip.Tracks[name]
		if len(track) == 0 {
			continue
		}
		offset := restOffset(sk, sk.Joints[slot])

		keys := make([]float32, len(track))
		rotations := make([][4]float32, len(track))
		translations := make([][3]float32, len(track))
		scales := make([][3]float32, len(track))
		scaled := false
		for i, kf := range track {
			keys[i] = float32(kf.Time)
			q := geom.NewEuler(kf.Rotation[0], kf.Rotation[1], kf.Rotation[2], geom.RotationOrderZYX).ToQuaternion()
			rotations[i] = q.ToFloat32()
			translations[i] = m.scaled(offset.Add(geom.NewVector3FromArray(kf.Translation)))
			scales[i] = geom.NewVector3FromArray(kf.Scale).ToFloat32()
			if scales[i] != [3]float32{1, 1, 1} {
				scaled = true
			}
		}
		keysAcc := modeler.WriteAccessor(m.Document, gltf.TargetArrayBuffer, keys)
		m.Accessors[keysAcc].Min = []float32{keys[0]}
		m.Accessors[keysAcc].Max = []float32{keys[len(keys)-1]}
		node := m.jointNodes[slot]

		m.addChannel(a, keysAcc, modeler.WriteAccessor(m.Document, gltf.TargetArrayBuffer, rotations), node, gltf.TRSRotation)
		m.addChannel(a, keysAcc, modeler.WriteAccessor(m.Document, gltf.TargetArrayBuffer, translations), node, gltf.TRSTranslation)
		if scaled {
			m.addChannel(a, keysAcc, modeler.WriteAccessor(m.Document, gltf.TargetArrayBuffer, scales), node, gltf.TRSScale)
		}
	}
	if len(a.Channels) > 0 {
		m.Animations = append(m.Animations, a)
	}
}

func (m *rigToGltf) addChannel(a *gltf.Animation, keysAcc, samplesAcc, node uint32, path gltf.TRSProperty) {
	a.Samplers = append(a.Samplers, &gltf.AnimationSampler{
		Input:         gltf.Index(keysAcc),
		Output:        gltf.Index(samplesAcc),
		Interpolation: gltf.InterpolationLinear,
	})
	a.Channels = append(a.Channels, &gltf.Channel{
		Sampler: gltf.Index(uint32(len(a.Samplers) - 1)),
		Target: gltf.ChannelTarget{
			Node: gltf.Index(node),
			Path: path,
		},
	})
}

// Convert builds a skinned glTF document. weights may be nil to export the
// skeleton and an unskinned mesh.
func (m *rigToGltf) Convert(src *mesh.Mesh, sk *skeleton.Skeleton, weights *skinning.WeightMatrix) (*gltf.Document, error) {
	if weights != nil && (weights.Rows != src.VertexCount() || weights.Cols != len(sk.Bones)) {
		return nil, fmt.Errorf("%w: weights %dx%d for %d vertices and %d bones",
			skinning.ErrShape, weights.Rows, weights.Cols, src.VertexCount(), len(sk.Bones))
	}
	if len(sk.Joints) > 0xffff {
		return nil, fmt.Errorf("%w: %d joints do not fit JOINTS_0", skeleton.ErrStructure, len(sk.Joints))
	}
	m.addJointNodes(sk)

	node := &gltf.Node{Name: src.Name}
	if src.VertexCount() > 0 {
		node.Mesh = gltf.Index(uint32(len(m.Meshes)))
		m.Meshes = append(m.Meshes, m.convertMesh(src, sk, weights))
		if weights != nil {
			node.Skin = gltf.Index(m.addSkin(sk))
		}
	}
	m.Scenes[0].Nodes = append(m.Scenes[0].Nodes, uint32(len(m.Nodes)))
	m.Nodes = append(m.Nodes, node)

	if m.Clip != nil {
		m.addAnimation(sk, m.Clip)
	}
	logging.Debugf("glTF: %d nodes, %d accessors, %d animations", len(m.Nodes), len(m.Accessors), len(m.Animations))
	return m.Document, nil
}
