// Package weights generates the random connectivity matrices of a reservoir
// layer. Every generator takes an explicit *rand.Rand so that a seeded layer
// reproduces the same matrices bit for bit.
package weights

import (
	"errors"
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"pyrcn/internal/sparse"
)

// DenseFanIn is the fan-in value that selects fully dense rows.
const DenseFanIn = -1

var (
	ErrShape = errors.New("weights: invalid matrix shape")
	ErrFanIn = errors.New("weights: invalid fan-in")
)

// Distribution draws one weight value.
type Distribution func(rng *rand.Rand) float64

// Uniform draws from [-1, 1).
func Uniform(rng *rand.Rand) float64 {
	return rng.Float64()*2 - 1
}

// Normal draws from the standard normal distribution.
func Normal(rng *rand.Rand) float64 {
	return rng.NormFloat64()
}

// Scaled multiplies every draw of d by factor.
func Scaled(d Distribution, factor float64) Distribution {
	if factor == 1 {
		return d
	}
	return func(rng *rand.Rand) float64 {
		return d(rng) * factor
	}
}

// Initializer produces a rows x cols connectivity matrix.
type Initializer interface {
	Generate(rng *rand.Rand, rows, cols int) (mat.Matrix, error)
}

// NewInitializer selects the connectivity strategy for fan-in k: DenseFanIn
// gives Dense, anything else FanIn.
func NewInitializer(k int, dist Distribution) Initializer {
	if k == DenseFanIn {
		return Dense{Dist: dist}
	}
	return FanIn{K: k, Dist: dist}
}

// Dense fills every entry with an independent draw.
type Dense struct {
	Dist Distribution
}

func (d Dense) Generate(rng *rand.Rand, rows, cols int) (mat.Matrix, error) {
	if err := checkShape(rng, rows, cols); err != nil {
		return nil, err
	}
	data := make([]float64, rows*cols)
	for i := range data {
		data[i] = d.Dist(rng)
	}
	return mat.NewDense(rows, cols, data), nil
}

// FanIn places exactly K nonzero draws in every row. Columns are the first K
// entries of a fresh random permutation of the row, so no column repeats.
type FanIn struct {
	K    int
	Dist Distribution
}

func (f FanIn) Generate(rng *rand.Rand, rows, cols int) (mat.Matrix, error) {
	if err := checkShape(rng, rows, cols); err != nil {
		return nil, err
	}
	if f.K < 1 || f.K > cols {
		return nil, fmt.Errorf("%w: k=%d with %d columns", ErrFanIn, f.K, cols)
	}

	ri := make([]int, 0, rows*f.K)
	ci := make([]int, 0, rows*f.K)
	values := make([]float64, 0, rows*f.K)
	for r := 0; r < rows; r++ {
		perm := rng.Perm(cols)[:f.K]
		for _, c := range perm {
			ri = append(ri, r)
			ci = append(ci, c)
			values = append(values, f.Dist(rng))
		}
	}
	m, err := sparse.FromTriplets(rows, cols, ri, ci, values)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// Bias draws n values from dist.
func Bias(rng *rand.Rand, n int, dist Distribution) ([]float64, error) {
	if err := checkShape(rng, n, 1); err != nil {
		return nil, err
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = dist(rng)
	}
	return out, nil
}

func checkShape(rng *rand.Rand, rows, cols int) error {
	if rng == nil {
		return errors.New("weights: random source is required")
	}
	if rows <= 0 || cols <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrShape, rows, cols)
	}
	return nil
}
