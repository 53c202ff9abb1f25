// Package weightio persists weight matrices as NumPy .npy/.npz files.
package weightio

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/sbinet/npyio"
	"github.com/sbinet/npyio/npy"
	"gonum.org/v1/gonum/mat"
)

var ErrFormat = errors.New("unsupported npy data")

// matrixValue is what npyio writes for a rows x cols float64 array. An
// empty matrix is stored as a zero-length vector.
func matrixValue(rows, cols int, data []float64) (interface{}, error) {
	if len(data) != rows*cols {
		return nil, fmt.Errorf("%w: %d values for shape (%d, %d)", ErrFormat, len(data), rows, cols)
	}
	if rows == 0 || cols == 0 {
		return []float64{}, nil
	}
	return mat.NewDense(rows, cols, data), nil
}

// WriteNPY writes a rows x cols float64 array in C order.
func WriteNPY(w io.Writer, rows, cols int, data []float64) error {
	v, err := matrixValue(rows, cols, data)
	if err != nil {
		return err
	}
	return npyio.Write(w, v)
}

// ReadNPY reads a 2D little-endian float32 or float64 array in C order.
func ReadNPY(r io.Reader) (rows, cols int, data []float64, err error) {
	nr, err := npyio.NewReader(r)
	if err != nil {
		return 0, 0, nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	return decode(&nr.Header, nr.Read)
}

// decode checks the header and reads the payload with read.
func decode(hdr *npy.Header, read func(ptr interface{}) error) (rows, cols int, data []float64, err error) {
	if hdr.Descr.Fortran {
		return 0, 0, nil, fmt.Errorf("%w: fortran order", ErrFormat)
	}
	switch shape := hdr.Descr.Shape; {
	case len(shape) == 2:
		rows, cols = shape[0], shape[1]
	case len(shape) == 1 && shape[0] == 0:
	default:
		return 0, 0, nil, fmt.Errorf("%w: shape %v", ErrFormat, shape)
	}

	switch hdr.Descr.Type {
	case "<f4":
		var buf []float32
		if err = read(&buf); err != nil {
			return 0, 0, nil, err
		}
		data = make([]float64, len(buf))
		for i, v := range buf {
			data[i] = float64(v)
		}
	case "<f8":
		if err = read(&data); err != nil {
			return 0, 0, nil, err
		}
	default:
		return 0, 0, nil, fmt.Errorf("%w: dtype %s", ErrFormat, hdr.Descr.Type)
	}
	if len(data) != rows*cols {
		return 0, 0, nil, fmt.Errorf("%w: %d values for shape %v", ErrFormat, len(data), hdr.Descr.Shape)
	}
	for _, v := range data {
		if math.IsNaN(v) {
			return 0, 0, nil, fmt.Errorf("%w: NaN weight", ErrFormat)
		}
	}
	return rows, cols, data, nil
}
