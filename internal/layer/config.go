// Package layer implements the fixed random reservoir projection: parameter
// validation, weight generation with spectral normalization, the fitted state
// and the forward transform.
package layer

import (
	"pyrcn/internal/weights"
)

// Config holds the layer hyper-parameters. A Config may be constructed in
// an invalid state; it is only checked by Fit against the observed input.
type Config struct {
	NComponents    int     `json:"n_components"`
	DenseOutput    bool    `json:"dense_output"`
	InputScaling   float64 `json:"input_scaling"`
	KIn            int     `json:"k_in"`
	BiasScaling    float64 `json:"bias_scaling"`
	Activation     string  `json:"activation_function"`
	SpectralRadius float64 `json:"spectral_radius"`
	KRec           int     `json:"k_rec"`
	BiDirectional  bool    `json:"bi_directional"`
	// RandomSeed makes Fit reproducible; nil seeds from the clock.
	RandomSeed *int64 `json:"random_state,omitempty"`
}

func DefaultConfig() Config {
	return Config{
		NComponents:    500,
		DenseOutput:    true,
		InputScaling:   1,
		KIn:            10,
		BiasScaling:    1,
		Activation:     "tanh",
		SpectralRadius: 0,
		KRec:           10,
	}
}

// WithSeed returns a copy of c with a fixed random seed.
func (c Config) WithSeed(seed int64) Config {
	c.RandomSeed = &seed
	return c
}

// DenseFanIn marks k_in/k_rec as fully connected.
const DenseFanIn = weights.DenseFanIn
