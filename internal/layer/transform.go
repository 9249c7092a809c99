package layer

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"pyrcn/internal/sparse"
)

// Transform projects x through the fitted input weights:
//
//	Y = act(X · W_inᵀ + b)
//
// The result has one row per sample and NComponents columns. It is a
// *sparse.CSR only when DenseOutput is false, both x and the input weights
// are sparse, the bias is zero and the activation maps 0 to 0.
func (l *Layer) Transform(x mat.Matrix) (mat.Matrix, error) {
	st, err := l.State()
	if err != nil {
		return nil, fmt.Errorf("transform: %w", err)
	}
	return st.Transform(x)
}

func (s *State) Transform(x mat.Matrix) (mat.Matrix, error) {
	if err := s.checkInput(x); err != nil {
		return nil, fmt.Errorf("transform: %w", err)
	}

	xs, xSparse := x.(*sparse.CSR)
	ws, wSparse := s.feedforward.(*sparse.CSR)
	if !s.cfg.DenseOutput && xSparse && wSparse {
		prod := xs.MulCSRT(ws)
		if s.zeroBias && s.act(0) == 0 {
			return prod.Map(s.act), nil
		}
		return s.activate(prod.ToDense()), nil
	}

	var prod *mat.Dense
	switch {
	case xSparse && wSparse:
		prod = xs.MulCSRT(ws).ToDense()
	case wSparse:
		prod = sparse.DenseMulT(x, ws)
	case xSparse:
		prod = xs.MulDenseT(s.feedforward)
	default:
		prod = &mat.Dense{}
		prod.Mul(x, s.feedforward.T())
	}
	return s.activate(prod), nil
}

func (s *State) checkInput(x mat.Matrix) error {
	if x == nil {
		return ErrEmptyInput
	}
	rows, cols := x.Dims()
	if cols != s.nFeatures {
		return &ShapeError{Expected: s.nFeatures, Got: cols}
	}
	if rows == 0 {
		return fmt.Errorf("%w: 0 samples", ErrEmptyInput)
	}
	return nil
}

// activate adds the bias to every row and applies the activation in place.
func (s *State) activate(m *mat.Dense) *mat.Dense {
	m.Apply(func(_, j int, v float64) float64 {
		return s.act(v + s.bias[j])
	}, m)
	return m
}
