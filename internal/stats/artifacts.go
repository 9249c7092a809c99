package stats

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// WriteLayerStats writes s as indented JSON, creating parent directories.
func WriteLayerStats(path string, s LayerStats) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("stats path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return writeJSON(path, s)
}

func ReadLayerStats(path string) (LayerStats, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return LayerStats{}, false, nil
		}
		return LayerStats{}, false, err
	}
	var s LayerStats
	if err := json.Unmarshal(data, &s); err != nil {
		return LayerStats{}, false, err
	}
	return s, true, nil
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}
