package config

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
)

// LoadData reads the object to validate from a YAML or JSON file. The
// format follows the extension; anything other than .json is read as YAML.
func LoadData(path string) (any, error) {
	file, closeFn, err := openInRoot(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open data file: %w", err)
	}
	defer closeFn()

	format := "yaml"
	if strings.EqualFold(filepath.Ext(path), ".json") {
		format = "json"
	}
	return LoadDataFromReader(file, format)
}

// LoadDataFromReader decodes r as "json" or "yaml". Objects decode to
// map[string]any and sequences to []any.
func LoadDataFromReader(r io.Reader, format string) (any, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read data: %w", err)
	}

	var data any
	switch format {
	case "json":
		if err := json.Unmarshal(raw, &data); err != nil {
			return nil, fmt.Errorf("failed to parse JSON data: %w", err)
		}
	case "yaml", "":
		if err := yaml.Unmarshal(raw, &data); err != nil {
			return nil, fmt.Errorf("failed to parse YAML data: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported data format: %q", format)
	}
	return data, nil
}
