package upstreams

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Loader handles loading and validating the upstreams.yaml definition file.
type Loader struct {
	filePath string
}

// NewLoader creates a loader for the given definition file.
func NewLoader(filePath string) *Loader {
	return &Loader{filePath: filePath}
}

// Load reads and parses the definition file. Incomplete entries are a
// configuration error, reported with the offending index.
func (l *Loader) Load() (*Definitions, error) {
	data, err := os.ReadFile(l.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read upstreams file: %w", err)
	}

	var defs Definitions
	if err := yaml.Unmarshal(data, &defs); err != nil {
		return nil, fmt.Errorf("failed to parse upstreams yaml: %w", err)
	}

	for i, d := range defs.Upstreams {
		if d.Name == "" || d.Owner == "" || d.Repo == "" {
			return nil, fmt.Errorf("upstream #%d is missing name, owner or repo", i)
		}
	}
	return &defs, nil
}
