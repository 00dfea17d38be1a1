package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadFile reads menus from a .json, .yaml or .yml file and validates them.
func LoadFile(path string) ([]Cafe, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	var cafes []Cafe
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		err = json.Unmarshal(data, &cafes)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cafes)
	default:
		return nil, fmt.Errorf("unsupported catalog format %q", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode catalog file %s: %w", path, err)
	}

	if len(Flatten(cafes)) == 0 {
		return nil, fmt.Errorf("catalog file %s has no dishes", path)
	}
	if err := Validate(cafes); err != nil {
		return nil, err
	}
	return cafes, nil
}

// SaveFile writes menus in the format implied by the file extension.
func SaveFile(path string, cafes []Cafe) error {
	var (
		data []byte
		err  error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		data, err = json.MarshalIndent(cafes, "", "  ")
	case ".yaml", ".yml":
		data, err = yaml.Marshal(cafes)
	default:
		return fmt.Errorf("unsupported catalog format %q", ext)
	}
	if err != nil {
		return fmt.Errorf("failed to encode catalog: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create catalog directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write catalog file: %w", err)
	}
	return nil
}
