package weightio

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/binzume/quadrig/skinning"
	"github.com/sbinet/npyio/npz"
)

// FieldName is the array name of the weight matrix inside the archive.
const FieldName = "weights"

// Write stores w as an .npz with a single "weights" array.
func Write(w io.Writer, weights *skinning.WeightMatrix) error {
	v, err := matrixValue(weights.Rows, weights.Cols, weights.Data)
	if err != nil {
		return err
	}
	zw := npz.NewWriter(w)
	if err := zw.Write(FieldName+".npy", v); err != nil {
		zw.Close()
		return err
	}
	return zw.Close()
}

func Read(r io.ReaderAt, size int64) (*skinning.WeightMatrix, error) {
	zr, err := npz.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	for _, key := range zr.Keys() {
		if key != FieldName && key != FieldName+".npy" {
			continue
		}
		rows, cols, data, err := decode(zr.Header(key), func(ptr interface{}) error {
			return zr.Read(key, ptr)
		})
		if err != nil {
			return nil, err
		}
		return skinning.NewWeightMatrixFromData(rows, cols, data)
	}
	return nil, fmt.Errorf("%w: no %q array", ErrFormat, FieldName)
}

func Save(path string, weights *skinning.WeightMatrix) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Write(f, weights); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func Load(path string) (*skinning.WeightMatrix, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	w, err := Read(bytes.NewReader(b), int64(len(b)))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return w, nil
}

// LoadFor loads weights and checks them against the expected shape.
func LoadFor(path string, vertices, bones int) (*skinning.WeightMatrix, error) {
	w, err := Load(path)
	if err != nil {
		return nil, err
	}
	if w.Rows != vertices || w.Cols != bones {
		return nil, fmt.Errorf("%s: %w: weights are %dx%d, want %dx%d",
			path, skinning.ErrShape, w.Rows, w.Cols, vertices, bones)
	}
	return w, nil
}
