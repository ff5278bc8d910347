package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadYAML parses a YAML document into a Tree. Nested mappings produce
// subtrees; scalars keep the type yaml.v3 infers (string, int, float64,
// bool). yaml.v3 decodes mapping keys as `any`, so nested maps are
// normalized to map[string]any recursively.
func LoadYAML(data []byte) (*Tree, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("config: parsing yaml: %w", err)
	}
	return New(normalize(raw).(map[string]any)), nil
}

// LoadYAMLFile reads and parses a YAML file at path.
func LoadYAMLFile(path string) (*Tree, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	return LoadYAML(data)
}

// normalize recursively converts map[any]any / []any produced by
// yaml.v3's generic decode into map[string]any / []any so Tree's lookup
// logic (which assumes string keys throughout) works uniformly.
func normalize(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, vv := range val {
			out[k] = normalize(vv)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, vv := range val {
			out[fmt.Sprintf("%v", k)] = normalize(vv)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, vv := range val {
			out[i] = normalize(vv)
		}
		return out
	default:
		return v
	}
}
