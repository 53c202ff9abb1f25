package gltfutil

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

func Load(path string) (*gltf.Document, error) {
	return gltf.Open(path)
}

// Save writes doc as .glb, or as .gltf with an embedded buffer.
func Save(doc *gltf.Document, path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".glb":
		return gltf.SaveBinary(doc, path)
	case ".gltf":
		return gltf.Save(doc, path)
	}
	return fmt.Errorf("unsupported glTF extension: %v", path)
}

// JointCount returns the number of joints of the first skin, or 0.
func JointCount(doc *gltf.Document) int {
	if len(doc.Skins) == 0 {
		return 0
	}
	return len(doc.Skins[0].Joints)
}

// ReadSkinWeights reads JOINTS_0/WEIGHTS_0 of the first skinned primitive.
func ReadSkinWeights(doc *gltf.Document) ([][4]uint16, [][4]float32, error) {
	for _, m := range doc.Meshes {
		for _, p := range m.Primitives {
			j, ok := p.Attributes["JOINTS_0"]
			if !ok {
				continue
			}
			w, ok := p.Attributes["WEIGHTS_0"]
			if !ok {
				return nil, nil, fmt.Errorf("mesh %q: JOINTS_0 without WEIGHTS_0", m.Name)
			}
			joints, err := modeler.ReadJoints(doc, doc.Accessors[j], [][4]uint16{})
			if err != nil {
				return nil, nil, err
			}
			weights, err := modeler.ReadWeights(doc, doc.Accessors[w], [][4]float32{})
			if err != nil {
				return nil, nil, err
			}
			return joints, weights, nil
		}
	}
	return nil, nil, fmt.Errorf("no skinned primitive")
}
