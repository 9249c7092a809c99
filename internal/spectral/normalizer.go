package spectral

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"

	"pyrcn/internal/sparse"
)

// DefaultMaxAttempts bounds how many freshly generated matrices are offered
// to the estimator before its last answer is accepted as is.
const DefaultMaxAttempts = 50

// Generator produces a new random square matrix on every call.
type Generator func() (mat.Matrix, error)

// Normalizer rescales generated matrices to a target spectral radius.
type Normalizer struct {
	Target      float64
	MaxAttempts int
	Estimator   Estimator
	Logger      *logrus.Logger
}

// Result describes the matrix chosen by Generate.
type Result struct {
	Matrix mat.Matrix
	// Estimate is the spectral radius estimate of the matrix before scaling.
	Estimate   float64
	Scale      float64
	Attempts   int
	Converged  bool
	Normalized bool
}

// Generate draws a matrix from gen and scales it by Target/max|λ|.
//
// When the estimator does not converge the whole draw is repeated, up to
// MaxAttempts times. The last attempt's estimate is then used even though it
// is unconverged; that case is reported only as a warning. A zero Target
// skips estimation and returns the first draw unchanged.
func (n *Normalizer) Generate(gen Generator) (Result, error) {
	if gen == nil {
		return Result{}, errors.New("spectral: generator is required")
	}
	if n.Target < 0 {
		return Result{}, fmt.Errorf("spectral: negative target radius %g", n.Target)
	}
	logger := n.Logger
	if logger == nil {
		logger = logrus.New()
	}

	if n.Target == 0 {
		m, err := gen()
		if err != nil {
			return Result{}, err
		}
		return Result{Matrix: m, Scale: 1, Attempts: 1}, nil
	}

	estimator := n.Estimator
	if estimator == nil {
		estimator = Arnoldi{}
	}
	maxAttempts := n.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	var (
		m         mat.Matrix
		values    []complex128
		attempts  int
		converged bool
	)
	for attempts = 1; attempts <= maxAttempts; attempts++ {
		var err error
		m, err = gen()
		if err != nil {
			return Result{}, err
		}
		values, err = estimator.Estimate(m)
		if err == nil {
			converged = true
			break
		}
		if !errors.Is(err, ErrNoConvergence) {
			return Result{}, err
		}
		if attempts == maxAttempts {
			logger.WithFields(logrus.Fields{
				"attempts": attempts,
				"estimate": SpectralRadius(values),
			}).Warn("spectral radius estimate did not converge, using best-effort eigenvalues")
			break
		}
		logger.WithFields(logrus.Fields{
			"attempt":   attempts,
			"remaining": maxAttempts - attempts,
		}).Debug("eigenvalue solver did not converge, regenerating recurrent weights")
	}

	res := Result{
		Estimate:  SpectralRadius(values),
		Attempts:  attempts,
		Converged: converged,
		Scale:     1,
		Matrix:    m,
	}
	if res.Estimate == 0 {
		logger.WithField("attempts", attempts).Warn("spectral radius estimate is zero, recurrent weights left unscaled")
		return res, nil
	}
	res.Scale = n.Target / res.Estimate
	res.Matrix = Scale(m, res.Scale)
	res.Normalized = true
	return res, nil
}

// Scale returns f·m without modifying m.
func Scale(m mat.Matrix, f float64) mat.Matrix {
	if csr, ok := m.(*sparse.CSR); ok {
		return csr.Scale(f)
	}
	var out mat.Dense
	out.Scale(f, m)
	return &out
}
