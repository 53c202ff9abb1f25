package skinning

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// RowTolerance is the allowed deviation of a row sum from 1.
const RowTolerance = 1e-4

var ErrShape = errors.New("shape mismatch")

// WeightMatrix is a dense vertices x bones matrix stored row-major.
type WeightMatrix struct {
	Rows int
	Cols int
	Data []float64
}

type Influence struct {
	Bone   int
	Weight float64
}

func NewWeightMatrix(rows, cols int) *WeightMatrix {
	return &WeightMatrix{Rows: rows, Cols: cols, Data: make([]float64, rows*cols)}
}

// NewWeightMatrixFromData wraps data without copying.
func NewWeightMatrixFromData(rows, cols int, data []float64) (*WeightMatrix, error) {
	if rows < 0 || cols < 0 || len(data) != rows*cols {
		return nil, fmt.Errorf("%w: %d values for %dx%d weights", ErrShape, len(data), rows, cols)
	}
	return &WeightMatrix{Rows: rows, Cols: cols, Data: data}, nil
}

func (w *WeightMatrix) At(v, b int) float64 {
	return w.Data[v*w.Cols+b]
}

func (w *WeightMatrix) Set(v, b int, value float64) {
	w.Data[v*w.Cols+b] = value
}

// Row returns a view of row v.
func (w *WeightMatrix) Row(v int) []float64 {
	return w.Data[v*w.Cols : (v+1)*w.Cols]
}

func (w *WeightMatrix) RowSum(v int) float64 {
	var sum float64
	for _, x := range w.Row(v) {
		sum += x
	}
	return sum
}

func (w *WeightMatrix) NonZero(v int) int {
	n := 0
	for _, x := range w.Row(v) {
		if x != 0 {
			n++
		}
	}
	return n
}

// Influences returns the non-zero entries of row v, heaviest first.
func (w *WeightMatrix) Influences(v int) []Influence {
	var inf []Influence
	for b, x := range w.Row(v) {
		if x != 0 {
			inf = append(inf, Influence{Bone: b, Weight: x})
		}
	}
	sort.SliceStable(inf, func(i, j int) bool {
		return inf[i].Weight > inf[j].Weight
	})
	return inf
}

// TopInfluences returns at most n influences of row v renormalized to sum 1.
func (w *WeightMatrix) TopInfluences(v, n int) []Influence {
	inf := w.Influences(v)
	if len(inf) > n {
		inf = inf[:n]
	}
	var total float64
	for _, x := range inf {
		total += x.Weight
	}
	if total > 0 {
		for i := range inf {
			inf[i].Weight /= total
		}
	}
	return inf
}

// UsedBones reports which columns have any non-zero weight.
func (w *WeightMatrix) UsedBones() []bool {
	used := make([]bool, w.Cols)
	for i, x := range w.Data {
		if x != 0 {
			used[i%w.Cols] = true
		}
	}
	return used
}

// Validate checks non-negativity, row sums and the influence bound.
func (w *WeightMatrix) Validate(maxInfluences int) error {
	for v := 0; v < w.Rows; v++ {
		for b, x := range w.Row(v) {
			if x < 0 || math.IsNaN(x) {
				return fmt.Errorf("vertex %d bone %d: invalid weight %v", v, b, x)
			}
		}
		if sum := w.RowSum(v); math.Abs(sum-1) > RowTolerance {
			return fmt.Errorf("vertex %d: weights sum to %v", v, sum)
		}
		if maxInfluences > 0 {
			if n := w.NonZero(v); n > maxInfluences {
				return fmt.Errorf("vertex %d: %d influences (max %d)", v, n, maxInfluences)
			}
		}
	}
	return nil
}

func (w *WeightMatrix) Clone() *WeightMatrix {
	data := make([]float64, len(w.Data))
	copy(data, w.Data)
	return &WeightMatrix{Rows: w.Rows, Cols: w.Cols, Data: data}
}
