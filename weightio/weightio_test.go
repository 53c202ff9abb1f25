package weightio

import (
	"bytes"
	"errors"
	"math"
	"path/filepath"
	"testing"

	"github.com/binzume/quadrig/skinning"
	"github.com/sbinet/npyio"
)

func TestNPYHeader(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteNPY(&buf, 2, 3, []float64{1, 2, 3, 4, 5, 6}); err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("\x93NUMPY")) {
		t.Error("magic: ", buf.Bytes()[:8])
	}
	r, err := npyio.NewReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	if r.Header.Descr.Type != "<f8" || r.Header.Descr.Fortran {
		t.Error("descr: ", r.Header.Descr.Type, r.Header.Descr.Fortran)
	}
	if len(r.Header.Descr.Shape) != 2 || r.Header.Descr.Shape[0] != 2 || r.Header.Descr.Shape[1] != 3 {
		t.Error("shape: ", r.Header.Descr.Shape)
	}

	rows, cols, data, err := ReadNPY(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	if rows != 2 || cols != 3 || data[5] != 6 || data[1] != 2 {
		t.Error("read: ", rows, cols, data)
	}
}

func TestNPYRejectsVectors(t *testing.T) {
	var buf bytes.Buffer
	if err := npyio.Write(&buf, []float64{1, 2, 3}); err != nil {
		t.Fatal(err)
	}
	if _, _, _, err := ReadNPY(&buf); !errors.Is(err, ErrFormat) {
		t.Error("1D array: ", err)
	}
}

func TestNPZRoundTrip(t *testing.T) {
	w, _ := skinning.NewWeightMatrixFromData(2, 3, []float64{0.25, 0, 0.75, 0, 1, 0})

	path := filepath.Join(t.TempDir(), "weights.npz")
	if err := Save(path, w); err != nil {
		t.Fatal(err)
	}
	w2, err := LoadFor(path, 2, 3)
	if err != nil {
		t.Fatal(err)
	}
	for i := range w.Data {
		if math.Abs(w.Data[i]-w2.Data[i]) > 1e-12 {
			t.Error("value: ", i, w.Data[i], w2.Data[i])
		}
	}

	if _, err := LoadFor(path, 3, 3); !errors.Is(err, skinning.ErrShape) {
		t.Error("expected ErrShape: ", err)
	}
}

func TestReadErrors(t *testing.T) {
	if _, _, _, err := ReadNPY(bytes.NewReader([]byte("NOTNUMPY"))); !errors.Is(err, ErrFormat) {
		t.Error("bad magic: ", err)
	}

	var buf bytes.Buffer
	if err := WriteNPY(&buf, 2, 2, []float64{1}); !errors.Is(err, ErrFormat) {
		t.Error("length mismatch: ", err)
	}

	// empty matrix
	var empty bytes.Buffer
	w, _ := skinning.NewWeightMatrixFromData(0, 0, nil)
	if err := Write(&empty, w); err != nil {
		t.Fatal(err)
	}
	if _, err := Read(bytes.NewReader(empty.Bytes()), int64(empty.Len())); err != nil {
		t.Error("empty matrix: ", err)
	}
	if _, err := Read(bytes.NewReader([]byte("junk")), 4); err == nil {
		t.Error("junk archive should fail")
	}
}
