package crs

import (
	"fmt"
	"sort"
	"sync"
)

// Built-in definitions available without a catalog or network access.
var builtins = map[string]string{
	"EPSG:4326": "+proj=longlat +datum=WGS84 +no_defs",
	"EPSG:4269": "+proj=longlat +datum=NAD83 +no_defs",
	"EPSG:3857": "+proj=merc +a=6378137 +b=6378137 +lat_ts=0 +lon_0=0 +x_0=0 +y_0=0 +k=1 +units=m +nadgrids=@null +no_defs",
}

// Aliases resolve to a built-in definition.
var aliases = map[string]string{
	"WGS84":       "EPSG:4326",
	"EPSG:900913": "EPSG:3857",
	"EPSG:102113": "EPSG:3857",
}

// Registry is a concurrency-safe map of CRS code to parsed definition.
type Registry struct {
	mu   sync.RWMutex
	defs map[string]*Definition
}

// NewRegistry returns a registry holding the built-in definitions.
func NewRegistry() *Registry {
	r := &Registry{defs: make(map[string]*Definition)}
	for code, src := range builtins {
		if _, err := r.Define(code, src); err != nil {
			panic(fmt.Sprintf("built-in crs %s: %v", code, err))
		}
	}
	for alias, target := range aliases {
		r.defs[alias] = r.defs[target]
	}
	return r
}

// Define parses source and registers it under code, replacing any previous
// definition.
func (r *Registry) Define(code, source string) (*Definition, error) {
	code = Normalize(code)
	def, err := ParseDefinition(code, source)
	if err != nil {
		return nil, fmt.Errorf("define %s: %w", code, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.defs[code] = def
	return def, nil
}

// Lookup returns the definition for code. An inline proj4 string is parsed
// and remembered on first use.
func (r *Registry) Lookup(code string) (*Definition, bool) {
	code = Normalize(code)

	r.mu.RLock()
	def, ok := r.defs[code]
	r.mu.RUnlock()
	if ok {
		return def, true
	}

	if IsProj4(code) {
		def, err := r.Define(code, code)
		if err != nil {
			return nil, false
		}
		return def, true
	}
	return nil, false
}

// Has reports whether code is registered.
func (r *Registry) Has(code string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.defs[Normalize(code)]
	return ok
}

// Codes returns all registered codes, sorted.
func (r *Registry) Codes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	codes := make([]string, 0, len(r.defs))
	for code := range r.defs {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
