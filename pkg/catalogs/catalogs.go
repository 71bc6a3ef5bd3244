// Package catalogs loads catalog definitions (YAML/JSON) and builds the page extractor
// for each catalog type.
package catalogs

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/samvad-hq/catalog-crawler/internal/pagination"
)

// Supported catalog types.
const (
	TypeHTML = "html"
	TypeJSON = "json"
)

// Catalog is a single crawl target declared in the catalogs file.
type Catalog struct {
	ID        string            `json:"id" yaml:"id"`
	Name      string            `json:"name" yaml:"name"`
	Type      string            `json:"type" yaml:"type"`
	StartURL  string            `json:"start_url" yaml:"start_url"`
	PageParam string            `json:"page_param" yaml:"page_param"`
	BaseURL   string            `json:"base_url" yaml:"base_url"`
	Enabled   *bool             `json:"enabled" yaml:"enabled"`
	Selectors map[string]string `json:"selectors" yaml:"selectors"`
	Fields    map[string]string `json:"fields" yaml:"fields"`
	Config    map[string]any    `json:"config" yaml:"config"`
}

type configFile struct {
	Catalogs []Catalog `json:"catalogs" yaml:"catalogs"`
}

// Registry holds validated catalogs in file order.
type Registry struct {
	mu       sync.RWMutex
	catalogs []Catalog
	idx      map[string]Catalog
}

// LoadRegistry loads the catalog registry from a YAML/JSON file.
func LoadRegistry(path string) (*Registry, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("catalogs file path is empty")
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalogs file: %w", err)
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read catalogs file: %w", err)
	}

	parsed, err := parseCatalogFile(raw, filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	if len(parsed.Catalogs) == 0 {
		return nil, errors.New("catalogs file contains no catalogs entries")
	}
	return NewRegistry(parsed.Catalogs)
}

// NewRegistry sanitizes and validates cats. Ids must be unique.
func NewRegistry(cats []Catalog) (*Registry, error) {
	reg := &Registry{
		catalogs: make([]Catalog, 0, len(cats)),
		idx:      make(map[string]Catalog, len(cats)),
	}
	for i := range cats {
		cat := sanitizeCatalog(cats[i])
		if err := validateCatalog(cat); err != nil {
			return nil, fmt.Errorf("catalogs[%d]: %w", i, err)
		}
		if _, exists := reg.idx[cat.ID]; exists {
			return nil, fmt.Errorf("duplicate catalog id %q", cat.ID)
		}
		reg.catalogs = append(reg.catalogs, cat)
		reg.idx[cat.ID] = cat
	}
	return reg, nil
}

func parseCatalogFile(data []byte, ext string) (configFile, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))
	decoders := []struct {
		name string
		ext  string
		fn   func([]byte, any) error
	}{
		{name: "yaml", ext: ".yaml", fn: yaml.Unmarshal},
		{name: "yaml", ext: ".yml", fn: yaml.Unmarshal},
		{name: "json", ext: ".json", fn: json.Unmarshal},
	}

	for _, d := range decoders {
		if ext != "" && ext != d.ext {
			continue
		}
		var out configFile
		if err := d.fn(data, &out); err == nil {
			return out, nil
		}
	}
	return configFile{}, errors.New("catalogs file format not recognized (expected YAML or JSON)")
}

func sanitizeCatalog(c Catalog) Catalog {
	c.ID = strings.TrimSpace(c.ID)
	c.Name = strings.TrimSpace(c.Name)
	c.Type = strings.ToLower(strings.TrimSpace(c.Type))
	c.StartURL = strings.TrimSpace(c.StartURL)
	c.PageParam = strings.TrimSpace(c.PageParam)
	c.BaseURL = strings.TrimSpace(c.BaseURL)

	if c.Name == "" {
		c.Name = c.ID
	}
	if c.Type == "" {
		c.Type = TypeHTML
	}
	if c.PageParam == "" {
		c.PageParam = pagination.DefaultPageParam
	}
	if c.Enabled == nil {
		def := true
		c.Enabled = &def
	}
	c.Selectors = trimMap(c.Selectors)
	c.Fields = trimMap(c.Fields)
	if c.Config == nil {
		c.Config = map[string]any{}
	}
	return c
}

func trimMap(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		key := strings.ToLower(strings.TrimSpace(k))
		val := strings.TrimSpace(v)
		if key == "" || val == "" {
			continue
		}
		out[key] = val
	}
	return out
}

func validateCatalog(c Catalog) error {
	if c.ID == "" {
		return errors.New("id is required")
	}
	if c.Type != TypeHTML && c.Type != TypeJSON {
		return fmt.Errorf("unsupported type %q for catalog %q", c.Type, c.ID)
	}
	if c.StartURL == "" {
		return fmt.Errorf("start_url is required for catalog %q", c.ID)
	}
	if u, err := url.Parse(c.StartURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("start_url %q is not an absolute url for catalog %q", c.StartURL, c.ID)
	}
	if c.BaseURL != "" {
		if u, err := url.Parse(c.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("base_url %q is not an absolute url for catalog %q", c.BaseURL, c.ID)
		}
	}
	return nil
}

// ByID returns the catalog with the given id.
func (r *Registry) ByID(id string) (Catalog, bool) {
	if r == nil {
		return Catalog{}, false
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return Catalog{}, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.idx[id]
	return c, ok
}

// All returns every catalog in file order.
func (r *Registry) All() []Catalog {
	if r == nil {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Catalog, len(r.catalogs))
	copy(out, r.catalogs)
	return out
}

// Enabled returns catalogs that are enabled.
func (r *Registry) Enabled() []Catalog {
	var out []Catalog
	for _, c := range r.All() {
		if c.EnabledValue() {
			out = append(out, c)
		}
	}
	return out
}

// EnabledValue returns the enabled flag defaulting to true.
func (c Catalog) EnabledValue() bool {
	if c.Enabled == nil {
		return true
	}
	return *c.Enabled
}
