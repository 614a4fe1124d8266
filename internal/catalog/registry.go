package catalog

import (
	"embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed config/*.yaml
var configFiles embed.FS

// SeedTag is one catalog entry from the embedded seed file.
type SeedTag struct {
	Name        string `yaml:"nombre"`
	Description string `yaml:"descripcion"`
}

type seedFile struct {
	Tags []SeedTag `yaml:"tags"`
}

// Registry holds the built-in tag catalog loaded from embedded YAML. The
// database stays authoritative at runtime; the registry only provides the
// entries seeded on startup.
type Registry struct {
	tags []SeedTag
	mu   sync.RWMutex
}

// NewRegistry creates a new catalog registry and loads the embedded seed file
func NewRegistry() (*Registry, error) {
	r := &Registry{}

	data, err := configFiles.ReadFile("config/tags.yaml")
	if err != nil {
		return nil, fmt.Errorf("read tag seed file: %w", err)
	}

	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("unmarshal tag seed file: %w", err)
	}

	r.mu.Lock()
	r.tags = seed.Tags
	r.mu.Unlock()

	return r, nil
}

// SeedTags returns the catalog entries (ordered as defined in the YAML)
func (r *Registry) SeedTags() []SeedTag {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]SeedTag, len(r.tags))
	copy(out, r.tags)
	return out
}
