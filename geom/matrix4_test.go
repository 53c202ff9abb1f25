package geom

import (
	"math"
	"testing"
)

func TestDecomposeMatrix(t *testing.T) {
	const eps = 0.000001

	pos := NewVector3(1, 2, 3)
	rot := NewEuler(10*math.Pi/180, 20*math.Pi/180, 30*math.Pi/180, RotationOrderZXY).ToQuaternion()
	scale := NewVector3(1.5, 1.6, 1.7)

	mat := NewTRSMatrix4(pos, rot, scale)
	pos1, rot1, scale1 := mat.Decompose()

	if pos.Sub(pos1).Len() > eps {
		t.Error("pos: ", pos, pos1)
	}
	if rot.Sub(rot1).Len() > eps {
		t.Error("rot: ", rot, rot1)
	}
	if scale.Sub(scale1).Len() > eps {
		t.Error("scale: ", scale, scale1)
	}

	mat2 := NewRotationMatrix4FromQuaternion(rot)
	pos1, rot1, scale1 = mat2.Decompose()
	if rot.Sub(rot1).Len() > eps {
		t.Error("rot: ", rot, rot1)
	}
	if pos1.Len() > eps {
		t.Error("pos: ", pos1)
	}
	if scale1.Sub(NewVector3(1, 1, 1)).Len() > eps {
		t.Error("scale: ", scale1)
	}
}

func TestInverse(t *testing.T) {
	const eps = 0.000001

	rot := NewEuler(0.3, -0.2, 1.1, RotationOrderZYX).ToQuaternion()
	mat := NewTRSMatrix4(NewVector3(0.5, -2, 3), rot, NewVector3(2, 2, 2))
	inv, ok := mat.Inverse()
	if !ok {
		t.Fatal("Inverse() failed")
	}
	if !mat.Mul(inv).ApproxEqual(NewMatrix4(), eps) {
		t.Error("m * inv(m) != I", mat.Mul(inv))
	}

	v := NewVector3(1, 2, 3)
	if inv.ApplyTo(mat.ApplyTo(v)).Sub(v).Len() > eps {
		t.Error("inv(m) * m * v != v")
	}

	if _, ok := NewScaleMatrix4(1, 0, 1).Inverse(); ok {
		t.Error("singular matrix should not be inverted")
	}
}

func TestMulOrder(t *testing.T) {
	const eps = 0.000001

	// T·R rotates first, then translates.
	m := NewTranslateMatrix4(1, 0, 0).Mul(NewRotationZMatrix4(math.Pi / 2))
	v := m.ApplyTo(NewVector3(1, 0, 0))
	if v.Sub(NewVector3(1, 1, 0)).Len() > eps {
		t.Error("T*R: ", v)
	}

	p, w := m.ApplyToW(NewVector3(1, 0, 0))
	if w != 1 || p.Sub(v).Len() > eps {
		t.Error("ApplyToW: ", p, w)
	}

	if m.Translation().Sub(NewVector3(1, 0, 0)).Len() > eps {
		t.Error("Translation(): ", m.Translation())
	}
}
