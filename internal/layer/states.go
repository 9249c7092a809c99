package layer

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"pyrcn/internal/sparse"
)

// States runs x through the reservoir as a time series, one row per step:
//
//	h_t = act(W_in x_t + W_rec h_{t-1} + b),  h_{-1} = 0
//
// It returns every h_t as a dense [rows, NComponents] matrix.
func (l *Layer) States(x mat.Matrix) (*mat.Dense, error) {
	st, err := l.State()
	if err != nil {
		return nil, fmt.Errorf("states: %w", err)
	}
	return st.States(x)
}

func (s *State) States(x mat.Matrix) (*mat.Dense, error) {
	if err := s.checkInput(x); err != nil {
		return nil, fmt.Errorf("states: %w", err)
	}
	rows, _ := x.Dims()
	n := s.cfg.NComponents

	var drive *mat.Dense
	if ws, ok := s.feedforward.(*sparse.CSR); ok {
		drive = sparse.DenseMulT(x, ws)
	} else if xs, ok := x.(*sparse.CSR); ok {
		drive = xs.MulDenseT(s.feedforward)
	} else {
		drive = &mat.Dense{}
		drive.Mul(x, s.feedforward.T())
	}

	out := mat.NewDense(rows, n, nil)
	prev := make([]float64, n)
	rec := make([]float64, n)
	for t := 0; t < rows; t++ {
		s.recur(rec, prev)
		row := out.RawRowView(t)
		for j := 0; j < n; j++ {
			row[j] = s.act(drive.At(t, j) + rec[j] + s.bias[j])
		}
		copy(prev, row)
	}
	return out, nil
}

// recur writes W_rec·h into dst.
func (s *State) recur(dst, h []float64) {
	switch w := s.recurrent.(type) {
	case nil:
		for i := range dst {
			dst[i] = 0
		}
	case *sparse.CSR:
		w.MulVecTo(dst, h)
	default:
		var v mat.VecDense
		v.MulVec(w, mat.NewVecDense(len(h), h))
		copy(dst, v.RawVector().Data)
	}
}
