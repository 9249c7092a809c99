package layer

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"pyrcn/internal/activation"
	"pyrcn/internal/sparse"
)

// SpectralInfo records how the recurrent weights were normalized.
type SpectralInfo struct {
	Target     float64
	Estimate   float64
	Scale      float64
	Attempts   int
	Converged  bool
	Normalized bool
}

// State is the immutable result of a successful Fit. The matrices returned
// by its accessors are shared and must not be modified.
type State struct {
	cfg         Config
	nFeatures   int
	feedforward mat.Matrix
	recurrent   mat.Matrix
	bias        []float64
	zeroBias    bool
	act         activation.Func
	spectral    SpectralInfo
}

func newState(cfg Config, nFeatures int, ff, rec mat.Matrix, bias []float64, act activation.Func, info SpectralInfo) (*State, error) {
	n := cfg.NComponents
	if r, c := ff.Dims(); r != n || c != nFeatures {
		return nil, fmt.Errorf("%w: feedforward weights are %dx%d, want %dx%d", ErrShapeMismatch, r, c, n, nFeatures)
	}
	if rec != nil {
		if r, c := rec.Dims(); r != n || c != n {
			return nil, fmt.Errorf("%w: recurrent weights are %dx%d, want %dx%d", ErrShapeMismatch, r, c, n, n)
		}
	}
	if len(bias) != n {
		return nil, fmt.Errorf("%w: bias has %d values, want %d", ErrShapeMismatch, len(bias), n)
	}
	zero := true
	for _, b := range bias {
		if b != 0 {
			zero = false
			break
		}
	}
	return &State{
		cfg:         cfg,
		nFeatures:   nFeatures,
		feedforward: ff,
		recurrent:   rec,
		bias:        bias,
		zeroBias:    zero,
		act:         act,
		spectral:    info,
	}, nil
}

func (s *State) Config() Config { return s.cfg }

// NFeatures is the input width seen by Fit.
func (s *State) NFeatures() int { return s.nFeatures }

func (s *State) NComponents() int { return s.cfg.NComponents }

// Feedforward is the [n_components, n_features] input weight matrix.
func (s *State) Feedforward() mat.Matrix { return s.feedforward }

// Recurrent is the [n_components, n_components] reservoir matrix.
func (s *State) Recurrent() mat.Matrix { return s.recurrent }

func (s *State) Bias() []float64 { return append([]float64(nil), s.bias...) }

func (s *State) Spectral() SpectralInfo { return s.spectral }

// NNZ counts stored entries; dense matrices count every cell.
func NNZ(m mat.Matrix) int {
	if m == nil {
		return 0
	}
	if csr, ok := m.(*sparse.CSR); ok {
		return csr.NNZ()
	}
	r, c := m.Dims()
	return r * c
}
