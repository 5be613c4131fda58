package crs

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// CatalogEntry is one named CRS preset.
type CatalogEntry struct {
	Code  string `yaml:"code" json:"code"`
	Name  string `yaml:"name" json:"name"`
	Proj4 string `yaml:"proj4" json:"proj4,omitempty"`
}

// Catalog is the list of presets offered in the UI.
type Catalog struct {
	Entries []CatalogEntry `yaml:"crs" json:"crs"`
}

// DefaultCatalog lists the built-in definitions only.
func DefaultCatalog() *Catalog {
	return &Catalog{Entries: []CatalogEntry{
		{Code: "EPSG:4326", Name: "WGS 84"},
		{Code: "EPSG:3857", Name: "WGS 84 / Pseudo-Mercator"},
		{Code: "EPSG:4269", Name: "NAD83"},
	}}
}

// LoadCatalog reads and parses a catalog file.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read crs catalog: %w", err)
	}
	return ParseCatalog(data)
}

// ParseCatalog parses catalog YAML. Codes are normalized; entries without
// a code are rejected.
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse crs catalog: %w", err)
	}
	for i := range c.Entries {
		if c.Entries[i].Code == "" {
			return nil, fmt.Errorf("parse crs catalog: entry %d has no code", i+1)
		}
		c.Entries[i].Code = Normalize(c.Entries[i].Code)
	}
	return &c, nil
}

// Register defines every entry that carries a proj4 string. Entries without
// one must already be known or resolvable later.
func (c *Catalog) Register(r *Registry) error {
	for _, e := range c.Entries {
		if e.Proj4 == "" {
			continue
		}
		if _, err := r.Define(e.Code, e.Proj4); err != nil {
			return err
		}
	}
	return nil
}

// Find returns the entry for code.
func (c *Catalog) Find(code string) (CatalogEntry, bool) {
	code = Normalize(code)
	for _, e := range c.Entries {
		if e.Code == code {
			return e, true
		}
	}
	return CatalogEntry{}, false
}
