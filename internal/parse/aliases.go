package parse

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// Aliases maps a label to the list of labels it expands to, loaded from
// an optional YAML file:
//
//	dev: [programming, tech]
//	ml: [ai, machine-learning]
type Aliases map[string][]string

// LoadAliases reads the alias file at path. A missing path (or empty
// string) yields an empty table; a malformed file is an error.
func LoadAliases(path string, logger *slog.Logger) (Aliases, error) {
	if path == "" {
		return Aliases{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Debug("label alias file does not exist, skipping", "path", path)
			return Aliases{}, nil
		}
		return nil, fmt.Errorf("read alias file: %w", err)
	}

	var a Aliases
	if err := yaml.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("parse alias file %s: %w", path, err)
	}
	if a == nil {
		a = Aliases{}
	}
	return a, nil
}

// Expand replaces each aliased label with its expansion, keeping order.
// Unaliased labels pass through unchanged.
func (a Aliases) Expand(labels []string) []string {
	if len(a) == 0 || len(labels) == 0 {
		return labels
	}
	out := make([]string, 0, len(labels))
	for _, lbl := range labels {
		if exp, ok := a[lbl]; ok {
			out = append(out, exp...)
			continue
		}
		out = append(out, lbl)
	}
	return out
}
