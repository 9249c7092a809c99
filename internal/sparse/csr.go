// Package sparse adapts github.com/james-bowman/sparse to the reservoir
// projection: validated construction from raw arrays and triplets, plus the
// x·wᵀ products the layer needs.
package sparse

import (
	"errors"
	"fmt"
	"sort"

	jsparse "github.com/james-bowman/sparse"
	"gonum.org/v1/gonum/mat"
)

var ErrMalformed = errors.New("sparse: malformed CSR structure")

// CSR is an immutable compressed sparse row matrix backed by a
// james-bowman/sparse CSR. Column indices are strictly increasing within
// every row for matrices built by this package.
type CSR struct {
	m *jsparse.CSR
}

var _ mat.Matrix = (*CSR)(nil)

// NewCSR validates and wraps the raw CSR arrays. The slices are retained, so
// callers must not modify them afterwards.
func NewCSR(rows, cols int, indptr, indices []int, data []float64) (*CSR, error) {
	if rows < 0 || cols < 0 {
		return nil, fmt.Errorf("%w: negative shape %dx%d", ErrMalformed, rows, cols)
	}
	if len(indptr) != rows+1 {
		return nil, fmt.Errorf("%w: indptr length %d, want %d", ErrMalformed, len(indptr), rows+1)
	}
	if len(indices) != len(data) {
		return nil, fmt.Errorf("%w: %d indices for %d values", ErrMalformed, len(indices), len(data))
	}
	if indptr[0] != 0 || indptr[rows] != len(data) {
		return nil, fmt.Errorf("%w: indptr bounds [%d,%d] for %d values", ErrMalformed, indptr[0], indptr[rows], len(data))
	}
	for r := 0; r < rows; r++ {
		lo, hi := indptr[r], indptr[r+1]
		if lo > hi {
			return nil, fmt.Errorf("%w: indptr decreases at row %d", ErrMalformed, r)
		}
		for k := lo; k < hi; k++ {
			c := indices[k]
			if c < 0 || c >= cols {
				return nil, fmt.Errorf("%w: column %d out of range at row %d", ErrMalformed, c, r)
			}
			if k > lo && indices[k-1] >= c {
				return nil, fmt.Errorf("%w: columns not strictly increasing at row %d", ErrMalformed, r)
			}
		}
	}
	return wrap(jsparse.NewCSR(rows, cols, indptr, indices, data)), nil
}

func wrap(m *jsparse.CSR) *CSR { return &CSR{m: m} }

// FromTriplets builds a CSR matrix from coordinate triplets. Duplicate
// coordinates are summed in input order, so the result does not depend on
// how the library orders its COO conversion.
func FromTriplets(rows, cols int, ri, ci []int, values []float64) (*CSR, error) {
	if len(ri) != len(ci) || len(ri) != len(values) {
		return nil, fmt.Errorf("%w: triplet lengths %d/%d/%d", ErrMalformed, len(ri), len(ci), len(values))
	}
	if rows < 0 || cols < 0 {
		return nil, fmt.Errorf("%w: negative shape %dx%d", ErrMalformed, rows, cols)
	}
	order := make([]int, len(ri))
	for k := range ri {
		if ri[k] < 0 || ri[k] >= rows || ci[k] < 0 || ci[k] >= cols {
			return nil, fmt.Errorf("%w: triplet (%d,%d) outside %dx%d", ErrMalformed, ri[k], ci[k], rows, cols)
		}
		order[k] = k
	}
	sort.SliceStable(order, func(a, b int) bool {
		ka, kb := order[a], order[b]
		if ri[ka] != ri[kb] {
			return ri[ka] < ri[kb]
		}
		return ci[ka] < ci[kb]
	})

	r := make([]int, 0, len(order))
	c := make([]int, 0, len(order))
	v := make([]float64, 0, len(order))
	for _, k := range order {
		if n := len(v); n > 0 && r[n-1] == ri[k] && c[n-1] == ci[k] {
			v[n-1] += values[k]
			continue
		}
		r = append(r, ri[k])
		c = append(c, ci[k])
		v = append(v, values[k])
	}
	return wrap(jsparse.NewCOO(rows, cols, r, c, v).ToCSR()), nil
}

// FromDense copies the nonzero entries of m.
func FromDense(m mat.Matrix) *CSR {
	rows, cols := m.Dims()
	var ri, ci []int
	var values []float64
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if v := m.At(i, j); v != 0 {
				ri = append(ri, i)
				ci = append(ci, j)
				values = append(values, v)
			}
		}
	}
	return wrap(jsparse.NewCOO(rows, cols, ri, ci, values).ToCSR())
}

func (c *CSR) Dims() (r, cols int) { return c.m.Dims() }

func (c *CSR) At(i, j int) float64 {
	rows, cols := c.m.Dims()
	if i < 0 || i >= rows || j < 0 || j >= cols {
		panic(mat.ErrIndexOutOfRange)
	}
	return c.m.At(i, j)
}

func (c *CSR) T() mat.Matrix { return mat.Transpose{Matrix: c} }

func (c *CSR) NNZ() int { return c.m.NNZ() }

func (c *CSR) RowNNZ(i int) int {
	raw := c.m.RawMatrix()
	return raw.Indptr[i+1] - raw.Indptr[i]
}

// DoNonZero calls fn for every stored entry in row-major order.
func (c *CSR) DoNonZero(fn func(i, j int, v float64)) {
	c.m.DoNonZero(fn)
}

func (c *CSR) DoRowNonZero(i int, fn func(i, j int, v float64)) {
	raw := c.m.RawMatrix()
	for k := raw.Indptr[i]; k < raw.Indptr[i+1]; k++ {
		fn(i, raw.Ind[k], raw.Data[k])
	}
}

// Raw returns copies of the CSR arrays.
func (c *CSR) Raw() (indptr, indices []int, data []float64) {
	raw := c.m.RawMatrix()
	indptr = append([]int(nil), raw.Indptr...)
	indices = append([]int(nil), raw.Ind[:raw.Indptr[raw.I]]...)
	data = append([]float64(nil), raw.Data[:raw.Indptr[raw.I]]...)
	return indptr, indices, data
}

// Scale returns a new matrix with every stored value multiplied by f. The
// sparsity pattern is kept even when f is zero.
func (c *CSR) Scale(f float64) *CSR {
	return c.Map(func(v float64) float64 { return v * f })
}

// Map returns a new matrix with fn applied to every stored value.
func (c *CSR) Map(fn func(float64) float64) *CSR {
	raw := c.m.RawMatrix()
	nnz := raw.Indptr[raw.I]
	data := make([]float64, nnz)
	for k, v := range raw.Data[:nnz] {
		data[k] = fn(v)
	}
	return wrap(jsparse.NewCSR(raw.I, raw.J, raw.Indptr, raw.Ind[:nnz], data))
}

// Transpose returns the explicit transpose as a new CSR matrix. The CSR
// arrays of c are read as the CSC form of cᵀ and converted by the library.
func (c *CSR) Transpose() *CSR {
	raw := c.m.RawMatrix()
	return wrap(jsparse.NewCSC(raw.J, raw.I, raw.Indptr, raw.Ind, raw.Data).ToCSR())
}

func (c *CSR) ToDense() *mat.Dense {
	if rows, cols := c.m.Dims(); rows == 0 || cols == 0 {
		return &mat.Dense{}
	}
	return c.m.ToDense()
}

// MulVecTo computes dst = c·x.
func (c *CSR) MulVecTo(dst, x []float64) {
	rows, cols := c.m.Dims()
	if len(x) != cols || len(dst) != rows {
		panic(mat.ErrShape)
	}
	// the library accumulates into dst
	for i := range dst {
		dst[i] = 0
	}
	c.m.MulVecTo(dst, false, x)
}
