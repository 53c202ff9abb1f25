package skeleton

import (
	"fmt"

	"github.com/binzume/quadrig/geom"
)

// LocalFromEuler returns the rotation Rz·Ry·Rx (radians).
func LocalFromEuler(rx, ry, rz float64) *geom.Matrix4 {
	return geom.NewEulerRotationMatrix4(geom.NewEuler(rx, ry, rz, geom.RotationOrderZYX))
}

// NewLocalTransform returns T·R·S where R is built as in LocalFromEuler.
// A nil scale means unit scale.
func NewLocalTransform(translation, euler, scale *geom.Vector3) *geom.Matrix4 {
	m := geom.NewTranslateMatrix4FromVector(translation).Mul(LocalFromEuler(euler.X, euler.Y, euler.Z))
	if scale != nil {
		m = m.Mul(geom.NewScaleMatrix4(scale.X, scale.Y, scale.Z))
	}
	return m
}

// SetLocalTransform sets the animated local transform of a joint. Global
// transforms are not updated until UpdateGlobalTransforms.
func (s *Skeleton) SetLocalTransform(name string, m *geom.Matrix4) error {
	slot, ok := s.byName[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownJoint, name)
	}
	s.Joints[slot].Local = m.Clone()
	return nil
}

// ResetPose sets every local transform to identity and recomputes.
func (s *Skeleton) ResetPose() {
	for _, j := range s.Joints {
		j.Local = geom.NewMatrix4()
	}
	s.UpdateGlobalTransforms()
}

// SetPose resets the pose, applies the given local transforms and
// recomputes the global transforms. Joints not in pose stay at rest.
func (s *Skeleton) SetPose(pose map[string]*geom.Matrix4) error {
	for name := range pose {
		if _, ok := s.byName[name]; !ok {
			return fmt.Errorf("%w: %q", ErrUnknownJoint, name)
		}
	}
	for _, j := range s.Joints {
		if m, ok := pose[j.Name]; ok {
			j.Local = m.Clone()
		} else {
			j.Local = geom.NewMatrix4()
		}
	}
	s.UpdateGlobalTransforms()
	return nil
}

// UpdateGlobalTransforms recomputes all global transforms parent first.
func (s *Skeleton) UpdateGlobalTransforms() {
	for _, slot := range s.order {
		j := s.Joints[slot]
		if j.Parent == NoParent {
			j.Global = geom.NewTranslateMatrix4FromVector(&j.Head).Mul(j.Local)
			continue
		}
		p := s.Joints[j.Parent]
		offset := j.Head.Sub(&p.Head)
		j.Global = p.Global.Mul(geom.NewTranslateMatrix4FromVector(offset)).Mul(j.Local)
	}
}

// JointPosition returns the current animated head position of a joint.
func (s *Skeleton) JointPosition(slot int) *geom.Vector3 {
	return s.Joints[slot].Global.Translation()
}

// SkinningMatrix returns Global·InvBind of a joint.
func (s *Skeleton) SkinningMatrix(slot int) *geom.Matrix4 {
	j := s.Joints[slot]
	return j.Global.Mul(j.InvBind)
}
