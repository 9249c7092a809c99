package layer

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"

	"pyrcn/internal/activation"
	"pyrcn/internal/spectral"
	"pyrcn/internal/weights"
)

type Option func(*Layer)

func WithLogger(logger *logrus.Logger) Option {
	return func(l *Layer) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithEstimator replaces the Arnoldi eigenvalue estimator used for
// spectral normalization.
func WithEstimator(estimator spectral.Estimator) Option {
	return func(l *Layer) {
		l.estimator = estimator
	}
}

// WithMaxAttempts overrides the number of regeneration attempts granted to
// the spectral normalizer.
func WithMaxAttempts(n int) Option {
	return func(l *Layer) {
		l.maxAttempts = n
	}
}

// Layer is a reservoir projection. Fit must not be called concurrently on
// the same Layer; Transform and States may be called concurrently once the
// layer is fitted.
type Layer struct {
	cfg         Config
	logger      *logrus.Logger
	estimator   spectral.Estimator
	maxAttempts int

	mu    sync.RWMutex
	state *State
}

func New(cfg Config, opts ...Option) *Layer {
	l := &Layer{
		cfg:         cfg,
		maxAttempts: spectral.DefaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.logger == nil {
		l.logger = logrus.New()
	}
	return l
}

func (l *Layer) Config() Config { return l.cfg }

func (l *Layer) Fitted() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state != nil
}

// State returns the fitted state or ErrNotFitted.
func (l *Layer) State() (*State, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.state == nil {
		return nil, ErrNotFitted
	}
	return l.state, nil
}

// Fit validates the configuration against x, generates all weight matrices
// and replaces the fitted state in a single step. On error the previous state
// is left untouched.
func (l *Layer) Fit(ctx context.Context, x mat.Matrix) (*Layer, error) {
	if x == nil {
		return nil, fmt.Errorf("fit: %w", ErrEmptyInput)
	}
	rows, nFeatures := x.Dims()
	if rows == 0 {
		return nil, fmt.Errorf("fit: %w: 0 samples", ErrEmptyInput)
	}
	cfg := l.cfg
	if err := cfg.Validate(nFeatures); err != nil {
		return nil, fmt.Errorf("fit: %w", err)
	}
	if !cfg.Expands(nFeatures) {
		l.logger.WithFields(logrus.Fields{
			"n_components": cfg.NComponents,
			"n_features":   nFeatures,
		}).Warn("n_components <= n_features, the projection does not expand dimensionality")
	}

	st, err := l.generate(ctx, cfg, nFeatures)
	if err != nil {
		return nil, fmt.Errorf("fit: %w", err)
	}

	l.mu.Lock()
	l.state = st
	l.mu.Unlock()

	l.logger.WithFields(logrus.Fields{
		"n_samples":       rows,
		"n_features":      nFeatures,
		"n_components":    cfg.NComponents,
		"spectral_target": cfg.SpectralRadius,
		"attempts":        st.spectral.Attempts,
	}).Debug("reservoir layer fitted")
	return l, nil
}

// FitTransform fits on x and projects the same batch.
func (l *Layer) FitTransform(ctx context.Context, x mat.Matrix) (mat.Matrix, error) {
	if _, err := l.Fit(ctx, x); err != nil {
		return nil, err
	}
	return l.Transform(x)
}

func (l *Layer) generate(ctx context.Context, cfg Config, nFeatures int) (*State, error) {
	act, err := activation.Get(cfg.Activation)
	if err != nil {
		return nil, &ConfigError{Field: "activation_function", Value: cfg.Activation, Reason: err.Error()}
	}
	rng := newRand(cfg.RandomSeed)
	n := cfg.NComponents

	ff, err := weights.NewInitializer(cfg.KIn, weights.Scaled(weights.Uniform, cfg.InputScaling)).
		Generate(rng, n, nFeatures)
	if err != nil {
		return nil, fmt.Errorf("feedforward weights: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	recurrent := weights.NewInitializer(cfg.KRec, weights.Normal)
	normalizer := spectral.Normalizer{
		Target:      cfg.SpectralRadius,
		MaxAttempts: l.maxAttempts,
		Estimator:   l.estimator,
		Logger:      l.logger,
	}
	res, err := normalizer.Generate(func() (mat.Matrix, error) {
		return recurrent.Generate(rng, n, n)
	})
	if err != nil {
		return nil, fmt.Errorf("recurrent weights: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	bias, err := weights.Bias(rng, n, weights.Scaled(weights.Uniform, cfg.BiasScaling))
	if err != nil {
		return nil, fmt.Errorf("bias weights: %w", err)
	}

	return newState(cfg, nFeatures, ff, res.Matrix, bias, act, SpectralInfo{
		Target:     cfg.SpectralRadius,
		Estimate:   res.Estimate,
		Scale:      res.Scale,
		Attempts:   res.Attempts,
		Converged:  res.Converged,
		Normalized: res.Normalized,
	})
}

func newRand(seed *int64) *rand.Rand {
	if seed == nil {
		return rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return rand.New(rand.NewSource(*seed))
}

// IsConfigError reports whether err stems from an invalid configuration.
func IsConfigError(err error) bool {
	return errors.Is(err, ErrConfiguration)
}
