package activation

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
)

var (
	ErrExists   = errors.New("activation already registered")
	ErrNotFound = errors.New("activation not found")
)

// Func is an elementwise activation applied to every entry of a projection.
type Func func(x float64) float64

var registry = struct {
	mu sync.RWMutex
	m  map[string]Func
}{
	m: make(map[string]Func),
}

func init() {
	registerBuiltins()
}

func registerBuiltins() {
	MustRegister("identity", func(x float64) float64 { return x })
	MustRegister("tanh", math.Tanh)
	MustRegister("logistic", logistic)
	MustRegister("sigmoid", logistic)
	MustRegister("relu", func(x float64) float64 {
		if x < 0 {
			return 0
		}
		return x
	})
	// bounded_relu clips to [0, 1].
	MustRegister("bounded_relu", func(x float64) float64 {
		if x < 0 {
			return 0
		}
		if x > 1 {
			return 1
		}
		return x
	})
}

func logistic(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}

func Register(name string, fn Func) error {
	if name == "" {
		return errors.New("activation name is required")
	}
	if fn == nil {
		return errors.New("activation function is required")
	}

	registry.mu.Lock()
	defer registry.mu.Unlock()

	if _, exists := registry.m[name]; exists {
		return fmt.Errorf("%w: %s", ErrExists, name)
	}
	registry.m[name] = fn
	return nil
}

func MustRegister(name string, fn Func) {
	if err := Register(name, fn); err != nil {
		panic(err)
	}
}

func Get(name string) (Func, error) {
	registry.mu.RLock()
	fn, ok := registry.m[name]
	registry.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return fn, nil
}

// Exists reports whether name is a registered activation. The registry keys
// are the only source of truth for layer configuration checks.
func Exists(name string) bool {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	_, ok := registry.m[name]
	return ok
}

func List() []string {
	registry.mu.RLock()
	defer registry.mu.RUnlock()

	names := make([]string, 0, len(registry.m))
	for name := range registry.m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func resetForTests() {
	registry.mu.Lock()
	registry.m = make(map[string]Func)
	registry.mu.Unlock()
	registerBuiltins()
}
