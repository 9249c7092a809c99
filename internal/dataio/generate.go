package dataio

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"pyrcn/internal/sparse"
)

// RandomMatrix draws a rows×cols matrix uniformly from [min, max).
func RandomMatrix(seed int64, rows, cols int, min, max float64) (*mat.Dense, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("random matrix shape must be positive, got %dx%d", rows, cols)
	}
	rng := rand.New(rand.NewSource(seed))
	data := make([]float64, 0, rows*cols)
	for i := 0; i < rows; i++ {
		data = append(data, randomVector(rng, cols, min, max)...)
	}
	return mat.NewDense(rows, cols, data), nil
}

// RandomSparse keeps each entry of a RandomMatrix draw with probability
// density and returns the survivors in CSR form.
func RandomSparse(seed int64, rows, cols int, density, min, max float64) (*sparse.CSR, error) {
	if density < 0 || density > 1 {
		return nil, fmt.Errorf("density must be within [0,1], got %g", density)
	}
	dense, err := RandomMatrix(seed, rows, cols, min, max)
	if err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewSource(seed + 1))
	dense.Apply(func(_, _ int, v float64) float64 {
		if rng.Float64() < density {
			return v
		}
		return 0
	}, dense)
	return sparse.FromDense(dense), nil
}

func randomVector(rng *rand.Rand, length int, min float64, max float64) []float64 {
	if max < min {
		min, max = max, min
	}
	span := max - min
	out := make([]float64, length)
	for i := range out {
		if span == 0 {
			out[i] = min
			continue
		}
		out[i] = min + rng.Float64()*span
	}
	return out
}
