// Package skeleton holds the joint/bone tree, its bind pose and the
// per-frame global transforms.
package skeleton

import (
	"errors"
	"fmt"

	"github.com/binzume/quadrig/geom"
	"github.com/binzume/quadrig/logging"
)

var (
	ErrStructure    = errors.New("invalid skeleton structure")
	ErrUnknownJoint = errors.New("unknown joint")
)

const NoParent = -1

// JointDesc is one entry of a serialized joint list.
type JointDesc struct {
	Name   string     `json:"name"`
	Index  int        `json:"index"`
	Head   [3]float64 `json:"head"`
	Tail   [3]float64 `json:"tail"`
	Parent string     `json:"parent"`
}

type Joint struct {
	Name       string
	Index      int
	Head       geom.Vector3
	Tail       geom.Vector3
	ParentName string

	// slots in Skeleton.Joints
	Parent   int
	Children []int

	Local   *geom.Matrix4
	Bind    *geom.Matrix4
	InvBind *geom.Matrix4
	Global  *geom.Matrix4

	// BindFault is set when Bind could not be inverted.
	BindFault bool
}

// Bone connects a parent joint (Start) to a child joint (End).
type Bone struct {
	Index int
	Name  string
	Start int
	End   int
}

type Skeleton struct {
	Joints []*Joint
	Bones  []*Bone
	Root   int

	byName  map[string]int
	byIndex map[int]int
	order   []int
	faults  int
}

// New builds a skeleton from descs and resolves its hierarchy.
func New(descs []JointDesc) (*Skeleton, error) {
	s := &Skeleton{
		Root:    NoParent,
		byName:  map[string]int{},
		byIndex: map[int]int{},
	}
	for _, d := range descs {
		if err := s.AddJoint(d); err != nil {
			return nil, err
		}
	}
	if err := s.BuildHierarchy(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Skeleton) AddJoint(d JointDesc) error {
	if d.Name == "" {
		return fmt.Errorf("%w: joint without name (index %d)", ErrStructure, d.Index)
	}
	if _, ok := s.byName[d.Name]; ok {
		return fmt.Errorf("%w: duplicate joint name %q", ErrStructure, d.Name)
	}
	if _, ok := s.byIndex[d.Index]; ok {
		return fmt.Errorf("%w: duplicate joint index %d", ErrStructure, d.Index)
	}
	j := &Joint{
		Name:       d.Name,
		Index:      d.Index,
		Head:       *geom.NewVector3FromArray(d.Head),
		Tail:       *geom.NewVector3FromArray(d.Tail),
		ParentName: d.Parent,
		Parent:     NoParent,
		Local:      geom.NewMatrix4(),
		Bind:       geom.NewMatrix4(),
		InvBind:    geom.NewMatrix4(),
		Global:     geom.NewMatrix4(),
	}
	s.byName[d.Name] = len(s.Joints)
	s.byIndex[d.Index] = len(s.Joints)
	s.Joints = append(s.Joints, j)
	return nil
}

// BuildHierarchy links joints by parent name, creates bones and computes
// the bind matrices. It must be called again after AddJoint.
func (s *Skeleton) BuildHierarchy() error {
	s.Root = NoParent
	s.Bones = nil
	s.order = nil
	s.faults = 0
	for _, j := range s.Joints {
		j.Parent = NoParent
		j.Children = nil
	}

	for slot, j := range s.Joints {
		if j.ParentName == "" {
			if s.Root != NoParent {
				return fmt.Errorf("%w: multiple root joints %q and %q", ErrStructure, s.Joints[s.Root].Name, j.Name)
			}
			s.Root = slot
			continue
		}
		p, ok := s.byName[j.ParentName]
		if !ok {
			return fmt.Errorf("%w: joint %q references unknown parent %q", ErrStructure, j.Name, j.ParentName)
		}
		if p == slot {
			return fmt.Errorf("%w: joint %q is its own parent", ErrStructure, j.Name)
		}
		j.Parent = p
		s.Joints[p].Children = append(s.Joints[p].Children, slot)
		s.Bones = append(s.Bones, &Bone{
			Index: len(s.Bones),
			Name:  s.Joints[p].Name + "_to_" + j.Name,
			Start: p,
			End:   slot,
		})
	}
	if s.Root == NoParent {
		return fmt.Errorf("%w: no root joint", ErrStructure)
	}

	// pre-order, children in joint list order
	stack := []int{s.Root}
	for len(stack) > 0 {
		slot := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		s.order = append(s.order, slot)
		children := s.Joints[slot].Children
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, children[i])
		}
	}
	if len(s.order) != len(s.Joints) {
		return fmt.Errorf("%w: %d joints are not reachable from root %q (cycle)",
			ErrStructure, len(s.Joints)-len(s.order), s.Joints[s.Root].Name)
	}

	for _, slot := range s.order {
		j := s.Joints[slot]
		if j.Parent == NoParent {
			s.setBind(j, geom.NewTranslateMatrix4FromVector(&j.Head))
		} else {
			p := s.Joints[j.Parent]
			s.setBind(j, p.Bind.Mul(geom.NewTranslateMatrix4FromVector(j.Head.Sub(&p.Head))))
		}
	}
	if s.faults > 0 {
		logging.Warnf("%d joints have singular bind matrices; nearby weights may be wrong", s.faults)
	}
	s.UpdateGlobalTransforms()
	return nil
}

func (s *Skeleton) setBind(j *Joint, bind *geom.Matrix4) {
	j.Bind = bind
	inv, ok := bind.Inverse()
	j.BindFault = !ok
	if !ok {
		logging.Warnf("singular bind matrix for joint %q, using identity", j.Name)
		inv = geom.NewMatrix4()
		s.faults++
	}
	j.InvBind = inv
}

// BindFaults returns the number of joints whose bind inverse was replaced
// by identity.
func (s *Skeleton) BindFaults() int {
	return s.faults
}

// Order returns joint slots in pre-order from the root.
func (s *Skeleton) Order() []int {
	return s.order
}

func (s *Skeleton) Slot(name string) (int, bool) {
	slot, ok := s.byName[name]
	return slot, ok
}

func (s *Skeleton) JointByName(name string) *Joint {
	if slot, ok := s.byName[name]; ok {
		return s.Joints[slot]
	}
	return nil
}

func (s *Skeleton) JointByIndex(index int) *Joint {
	if slot, ok := s.byIndex[index]; ok {
		return s.Joints[slot]
	}
	return nil
}

func (s *Skeleton) RootJoint() *Joint {
	if s.Root == NoParent {
		return nil
	}
	return s.Joints[s.Root]
}

// BoneStart and BoneEnd return the start and end joint of bone b.
func (s *Skeleton) BoneStart(b *Bone) *Joint {
	return s.Joints[b.Start]
}

func (s *Skeleton) BoneEnd(b *Bone) *Joint {
	return s.Joints[b.End]
}

// BoneSegment returns the bind-pose head positions of the bone's joints.
func (s *Skeleton) BoneSegment(b *Bone) (*geom.Vector3, *geom.Vector3) {
	return &s.Joints[b.Start].Head, &s.Joints[b.End].Head
}
