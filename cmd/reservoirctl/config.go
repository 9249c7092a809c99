package main

import (
	"encoding/json"
	"fmt"
	"os"

	"pyrcn/internal/layer"
)

func loadLayerConfig(path string) (layer.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return layer.Config{}, err
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return layer.Config{}, err
	}

	cfg := layer.DefaultConfig()
	if v, ok := asInt(raw["n_components"]); ok {
		cfg.NComponents = v
	}
	if v, ok := asBool(raw["dense_output"]); ok {
		cfg.DenseOutput = v
	}
	if v, ok := asFloat64(raw["input_scaling"]); ok {
		cfg.InputScaling = v
	}
	if v, ok := asInt(raw["k_in"]); ok {
		cfg.KIn = v
	}
	if v, ok := asFloat64(raw["bias_scaling"]); ok {
		cfg.BiasScaling = v
	}
	if v, ok := asString(raw["activation_function"]); ok {
		cfg.Activation = v
	}
	if v, ok := asFloat64(raw["spectral_radius"]); ok {
		cfg.SpectralRadius = v
	}
	if v, ok := asInt(raw["k_rec"]); ok {
		cfg.KRec = v
	}
	if v, ok := asBool(raw["bi_directional"]); ok {
		cfg.BiDirectional = v
	}
	if v, ok := asInt64(raw["random_state"]); ok {
		cfg = cfg.WithSeed(v)
	}
	return cfg, nil
}

func asString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func asBool(v any) (bool, bool) {
	b, ok := v.(bool)
	return b, ok
}

func asInt(v any) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case float64:
		return int(x), true
	default:
		return 0, false
	}
}

func asInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case int64:
		return x, true
	case int:
		return int64(x), true
	case float64:
		return int64(x), true
	default:
		return 0, false
	}
}

func asFloat64(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	default:
		return 0, false
	}
}

// overrideFromFlags applies only the flags that were set explicitly, so a
// config file keeps its values for everything else.
func overrideFromFlags(cfg *layer.Config, set map[string]bool, flagValue map[string]any) error {
	for name := range set {
		v, ok := flagValue[name]
		if !ok {
			continue
		}
		switch name {
		case "n-components":
			cfg.NComponents = v.(int)
		case "dense-output":
			cfg.DenseOutput = v.(bool)
		case "input-scaling":
			cfg.InputScaling = v.(float64)
		case "k-in":
			cfg.KIn = v.(int)
		case "bias-scaling":
			cfg.BiasScaling = v.(float64)
		case "activation":
			cfg.Activation = v.(string)
		case "spectral-radius":
			cfg.SpectralRadius = v.(float64)
		case "k-rec":
			cfg.KRec = v.(int)
		case "bi-directional":
			cfg.BiDirectional = v.(bool)
		case "seed":
			*cfg = cfg.WithSeed(v.(int64))
		default:
			return fmt.Errorf("unsupported override flag: %s", name)
		}
	}
	return nil
}

func loadOrDefaultConfig(configPath string) (layer.Config, error) {
	if configPath == "" {
		return layer.DefaultConfig(), nil
	}
	cfg, err := loadLayerConfig(configPath)
	if err != nil {
		return layer.Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}
