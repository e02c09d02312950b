// Package sources holds the static catalog of remote feeds. The default
// catalog is embedded; an override file can be supplied via SOURCES_PATH.
package sources

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"newsdigest/internal/domain"
)

//go:embed sources.yaml
var defaultCatalog []byte

type catalog struct {
	Sources []domain.Source `yaml:"sources"`
}

// Load returns the source catalog. With an empty path the embedded
// default catalog is used.
func Load(path string) ([]domain.Source, error) {
	raw := defaultCatalog

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read sources file: %w", err)
		}
		raw = data
	}

	var c catalog
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("unmarshal sources: %w", err)
	}

	if len(c.Sources) == 0 {
		return nil, fmt.Errorf("source catalog is empty")
	}

	for i, s := range c.Sources {
		if s.Name == "" || s.URL == "" {
			return nil, fmt.Errorf("source #%d is missing name or url", i+1)
		}
	}

	return c.Sources, nil
}
