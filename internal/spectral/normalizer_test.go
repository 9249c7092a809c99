package spectral

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"pyrcn/internal/sparse"
	"pyrcn/internal/weights"
)

// scriptedEstimator fails until call number succeedOn (never when zero).
type scriptedEstimator struct {
	calls     int
	succeedOn int
	radius    float64
}

func (s *scriptedEstimator) Estimate(mat.Matrix) ([]complex128, error) {
	s.calls++
	values := []complex128{complex(s.radius, 0), complex(s.radius/2, s.radius/4)}
	if s.succeedOn > 0 && s.calls >= s.succeedOn {
		return values, nil
	}
	return values, fmt.Errorf("%w: scripted", ErrNoConvergence)
}

type panicEstimator struct{}

func (panicEstimator) Estimate(mat.Matrix) ([]complex128, error) {
	panic("estimator must not be called")
}

func identityGen(calls *int) Generator {
	return func() (mat.Matrix, error) {
		*calls++
		m, err := sparse.FromTriplets(3, 3, []int{0, 1, 2}, []int{0, 1, 2}, []float64{1, 1, 1})
		if err != nil {
			return nil, err
		}
		return m, nil
	}
}

func TestNormalizerExhaustsAttemptsAndDegrades(t *testing.T) {
	logger, hook := test.NewNullLogger()
	est := &scriptedEstimator{radius: 4}
	var calls int

	n := Normalizer{Target: 2, Estimator: est, Logger: logger}
	res, err := n.Generate(identityGen(&calls))
	require.NoError(t, err, "non-convergence must never surface as an error")

	require.Equal(t, DefaultMaxAttempts, calls, "every attempt regenerates the matrix")
	require.Equal(t, DefaultMaxAttempts, est.calls)
	require.Equal(t, DefaultMaxAttempts, res.Attempts)
	require.False(t, res.Converged)
	require.True(t, res.Normalized)
	require.Equal(t, 4.0, res.Estimate)
	require.Equal(t, 0.5, res.Scale)
	require.Equal(t, 0.5, res.Matrix.At(1, 1))

	require.Len(t, hook.AllEntries(), 1)
	require.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	require.Equal(t, DefaultMaxAttempts, hook.LastEntry().Data["attempts"])
}

func TestNormalizerStopsOnConvergence(t *testing.T) {
	logger, hook := test.NewNullLogger()
	est := &scriptedEstimator{radius: 0.5, succeedOn: 3}
	var calls int

	n := Normalizer{Target: 1.5, Estimator: est, Logger: logger, MaxAttempts: 10}
	res, err := n.Generate(identityGen(&calls))
	require.NoError(t, err)
	require.Equal(t, 3, calls)
	require.Equal(t, 3, res.Attempts)
	require.True(t, res.Converged)
	require.InDelta(t, 3.0, res.Scale, 1e-12)
	require.Empty(t, hook.AllEntries())
}

func TestNormalizerZeroTargetSkipsEstimation(t *testing.T) {
	var calls int
	var raw mat.Matrix
	gen := func() (mat.Matrix, error) {
		calls++
		m, err := weights.FanIn{K: 2, Dist: weights.Normal}.Generate(rand.New(rand.NewSource(3)), 5, 5)
		raw = m
		return m, err
	}

	n := Normalizer{Target: 0, Estimator: panicEstimator{}}
	res, err := n.Generate(gen)
	require.NoError(t, err)
	require.Equal(t, 1, calls)
	require.Same(t, raw, res.Matrix)
	require.False(t, res.Normalized)
	require.Equal(t, 1.0, res.Scale)
}

func TestNormalizerReachesTargetRadius(t *testing.T) {
	t.Parallel()
	rng := rand.New(rand.NewSource(99))
	gen := func() (mat.Matrix, error) {
		return weights.FanIn{K: 3, Dist: weights.Normal}.Generate(rng, 18, 18)
	}

	for _, target := range []float64{0.5, 0.9, 1.2} {
		n := Normalizer{Target: target}
		res, err := n.Generate(gen)
		require.NoError(t, err)
		require.True(t, res.Converged)
		require.IsType(t, &sparse.CSR{}, res.Matrix)
		require.InDelta(t, target, denseRadii(t, res.Matrix)[0], 1e-7)
	}
}

func TestNormalizerZeroEstimateKeepsMatrix(t *testing.T) {
	logger, hook := test.NewNullLogger()
	zero := mat.NewDense(4, 4, nil)
	n := Normalizer{Target: 1, Logger: logger}
	res, err := n.Generate(func() (mat.Matrix, error) { return zero, nil })
	require.NoError(t, err)
	require.Same(t, zero, res.Matrix)
	require.False(t, res.Normalized)
	require.Len(t, hook.AllEntries(), 1)
	require.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
}

func TestNormalizerPropagatesGeneratorErrors(t *testing.T) {
	n := Normalizer{Target: 1}
	_, err := n.Generate(func() (mat.Matrix, error) { return nil, weights.ErrFanIn })
	require.ErrorIs(t, err, weights.ErrFanIn)

	_, err = (&Normalizer{Target: -1}).Generate(func() (mat.Matrix, error) { return nil, nil })
	require.Error(t, err)
}

func TestScaleDense(t *testing.T) {
	m := mat.NewDense(2, 2, []float64{1, 2, 3, 4})
	out := Scale(m, 0.5)
	require.Equal(t, 2.0, out.At(1, 1))
	require.Equal(t, 4.0, m.At(1, 1))
}
