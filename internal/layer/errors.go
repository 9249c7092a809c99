package layer

import (
	"errors"
	"fmt"
)

var (
	ErrConfiguration = errors.New("invalid layer configuration")
	ErrShapeMismatch = errors.New("input shape mismatch")
	ErrNotFitted     = errors.New("layer is not fitted")
	ErrEmptyInput    = errors.New("input matrix is empty")
)

// ConfigError reports the offending parameter. It matches ErrConfiguration.
type ConfigError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s=%v: %s", ErrConfiguration, e.Field, e.Value, e.Reason)
}

func (e *ConfigError) Unwrap() error { return ErrConfiguration }

// ShapeError reports a transform input whose feature count differs from the
// one seen by Fit. It matches ErrShapeMismatch.
type ShapeError struct {
	Expected int
	Got      int
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("%s: X has %d features, layer was fitted with %d", ErrShapeMismatch, e.Got, e.Expected)
}

func (e *ShapeError) Unwrap() error { return ErrShapeMismatch }
