package sparse

import (
	"sort"

	jsparse "github.com/james-bowman/sparse"
	"gonum.org/v1/gonum/mat"
)

// DenseMulT returns x·wᵀ for a general left operand and a sparse right one.
// It panics with mat.ErrShape when the inner dimensions differ, like gonum.
func DenseMulT(x mat.Matrix, w *CSR) *mat.Dense {
	rows, inner := x.Dims()
	wr, wc := w.Dims()
	if inner != wc {
		panic(mat.ErrShape)
	}
	out := mat.NewDense(rows, wr, nil)
	dst := out.RawMatrix()
	at := x.At
	if raw, ok := x.(mat.RawMatrixer); ok {
		rm := raw.RawMatrix()
		at = func(i, j int) float64 { return rm.Data[i*rm.Stride+j] }
	}
	ws := w.m.RawMatrix()
	for i := 0; i < rows; i++ {
		row := dst.Data[i*dst.Stride : i*dst.Stride+wr]
		for r := 0; r < wr; r++ {
			var sum float64
			for k := ws.Indptr[r]; k < ws.Indptr[r+1]; k++ {
				sum += at(i, ws.Ind[k]) * ws.Data[k]
			}
			row[r] = sum
		}
	}
	return out
}

// MulDenseT returns c·wᵀ for a dense (or any non-CSR) right operand.
func (c *CSR) MulDenseT(w mat.Matrix) *mat.Dense {
	wr, inner := w.Dims()
	rows, cols := c.Dims()
	if inner != cols {
		panic(mat.ErrShape)
	}
	out := mat.NewDense(rows, wr, nil)
	cs := c.m.RawMatrix()
	for i := 0; i < rows; i++ {
		lo, hi := cs.Indptr[i], cs.Indptr[i+1]
		if lo == hi {
			continue
		}
		for r := 0; r < wr; r++ {
			var sum float64
			for k := lo; k < hi; k++ {
				sum += cs.Data[k] * w.At(r, cs.Ind[k])
			}
			out.Set(i, r, sum)
		}
	}
	return out
}

// MulCSRT returns c·wᵀ keeping the result sparse. w is transposed explicitly
// so the library takes its CSR×CSR path.
func (c *CSR) MulCSRT(w *CSR) *CSR {
	_, cols := c.Dims()
	if _, wc := w.Dims(); cols != wc {
		panic(mat.ErrShape)
	}
	out := &jsparse.CSR{}
	out.Mul(c.m, w.Transpose().m)
	return canonical(out)
}

// canonical sorts the columns of every row of m, which the library's
// accumulator leaves in first-touch order.
func canonical(m *jsparse.CSR) *CSR {
	raw := m.RawMatrix()
	nnz := raw.Indptr[raw.I]
	indices := append([]int(nil), raw.Ind[:nnz]...)
	data := append([]float64(nil), raw.Data[:nnz]...)
	for i := 0; i < raw.I; i++ {
		lo, hi := raw.Indptr[i], raw.Indptr[i+1]
		sort.Sort(rowEntries{indices[lo:hi], data[lo:hi]})
	}
	indptr := append([]int(nil), raw.Indptr[:raw.I+1]...)
	return wrap(jsparse.NewCSR(raw.I, raw.J, indptr, indices, data))
}

type rowEntries struct {
	ind  []int
	data []float64
}

func (r rowEntries) Len() int           { return len(r.ind) }
func (r rowEntries) Less(a, b int) bool { return r.ind[a] < r.ind[b] }
func (r rowEntries) Swap(a, b int) {
	r.ind[a], r.ind[b] = r.ind[b], r.ind[a]
	r.data[a], r.data[b] = r.data[b], r.data[a]
}
