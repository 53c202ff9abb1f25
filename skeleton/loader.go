package skeleton

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

type skeletonFile struct {
	Joints []JointDesc `json:"joints"`
}

// ReadJointList decodes {"joints": [{name, index, head, tail, parent}, ...]}.
// With swapYZ, Y-up positions are converted to Z-up: (x, y, z) -> (x, z, -y).
func ReadJointList(r io.Reader, swapYZ bool) ([]JointDesc, error) {
	var f skeletonFile
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return nil, err
	}
	if len(f.Joints) == 0 {
		return nil, fmt.Errorf("%w: empty joint list", ErrStructure)
	}
	if swapYZ {
		for i := range f.Joints {
			f.Joints[i].Head = SwapYZ(f.Joints[i].Head)
			f.Joints[i].Tail = SwapYZ(f.Joints[i].Tail)
		}
	}
	return f.Joints, nil
}

// SwapYZ converts a Y-up position to Z-up.
func SwapYZ(p [3]float64) [3]float64 {
	return [3]float64{p[0], p[2], -p[1]}
}

func LoadJSON(r io.Reader, swapYZ bool) (*Skeleton, error) {
	joints, err := ReadJointList(r, swapYZ)
	if err != nil {
		return nil, err
	}
	return New(joints)
}

func Load(path string, swapYZ bool) (*Skeleton, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	s, err := LoadJSON(f, swapYZ)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}
