package layer

import (
	"fmt"
	"math"
	"strings"

	"pyrcn/internal/activation"
)

// Validate checks c against the number of input features.
func (c Config) Validate(nFeatures int) error {
	if nFeatures <= 0 {
		return fmt.Errorf("%w: %d features", ErrEmptyInput, nFeatures)
	}
	if c.KIn < 1 && c.KIn != DenseFanIn {
		return &ConfigError{Field: "k_in", Value: c.KIn, Reason: "must be -1 or greater than 0"}
	}
	if c.KIn > nFeatures {
		return &ConfigError{Field: "k_in", Value: c.KIn, Reason: fmt.Sprintf("must not be larger than n_features=%d", nFeatures)}
	}
	if c.NComponents <= 0 {
		return &ConfigError{Field: "n_components", Value: c.NComponents, Reason: "must be greater than 0"}
	}
	if !activation.Exists(c.Activation) {
		return &ConfigError{
			Field:  "activation_function",
			Value:  c.Activation,
			Reason: "supported activations are " + strings.Join(activation.List(), ", "),
		}
	}
	if c.KRec < 1 && c.KRec != DenseFanIn {
		return &ConfigError{Field: "k_rec", Value: c.KRec, Reason: "must be -1 or greater than 0"}
	}
	if c.KRec > c.NComponents {
		return &ConfigError{Field: "k_rec", Value: c.KRec, Reason: fmt.Sprintf("must not be larger than n_components=%d", c.NComponents)}
	}
	if c.SpectralRadius < 0 || !finite(c.SpectralRadius) {
		return &ConfigError{Field: "spectral_radius", Value: c.SpectralRadius, Reason: "must be a finite value >= 0"}
	}
	if !finite(c.InputScaling) {
		return &ConfigError{Field: "input_scaling", Value: c.InputScaling, Reason: "must be finite"}
	}
	if !finite(c.BiasScaling) {
		return &ConfigError{Field: "bias_scaling", Value: c.BiasScaling, Reason: "must be finite"}
	}
	return nil
}

// Expands reports whether the projection increases dimensionality.
func (c Config) Expands(nFeatures int) bool {
	return c.NComponents > nFeatures
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
