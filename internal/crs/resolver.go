package crs

import (
	"context"
	"errors"
	"log/slog"

	"github.com/JonMunkholm/reproject/internal/core"
	"golang.org/x/sync/errgroup"
)

// DefinitionStore caches fetched definitions between runs.
type DefinitionStore interface {
	GetDefinition(ctx context.Context, code string) (proj4 string, found bool, err error)
	PutDefinition(ctx context.Context, code, proj4 string) error
}

// Resolver makes codes known to a Registry. Store and Fetcher are optional.
type Resolver struct {
	Registry *Registry
	Store    DefinitionStore
	Fetcher  *Fetcher
}

// Resolve ensures every code is registered, looking in the registry, then
// the store, then the fetcher. Codes are resolved concurrently; the first
// failure is returned as a *core.CRSResolutionError.
func (r *Resolver) Resolve(ctx context.Context, codes ...string) error {
	g, ctx := errgroup.WithContext(ctx)

	seen := make(map[string]bool, len(codes))
	for _, code := range codes {
		code = Normalize(code)
		if seen[code] {
			continue
		}
		seen[code] = true

		g.Go(func() error {
			if _, err := r.Definition(ctx, code); err != nil {
				return err
			}
			return nil
		})
	}
	return g.Wait()
}

// Definition resolves a single code and returns its definition.
func (r *Resolver) Definition(ctx context.Context, code string) (*Definition, error) {
	code = Normalize(code)
	if code == "" {
		return nil, &core.CRSResolutionError{Code: code, Err: errors.New("empty code")}
	}

	if def, ok := r.Registry.Lookup(code); ok {
		return def, nil
	}

	if IsProj4(code) {
		def, err := r.Registry.Define(code, code)
		if err != nil {
			return nil, &core.CRSResolutionError{Code: code, Err: err}
		}
		return def, nil
	}

	if r.Store != nil {
		src, found, err := r.Store.GetDefinition(ctx, code)
		if err != nil {
			slog.Warn("crs cache lookup failed", "code", code, "error", err)
		} else if found {
			def, err := r.Registry.Define(code, src)
			if err == nil {
				return def, nil
			}
			slog.Warn("ignoring cached crs definition", "code", code, "error", err)
		}
	}

	if r.Fetcher == nil {
		return nil, &core.CRSResolutionError{Code: code, Err: ErrUnknownCode}
	}

	src, err := r.Fetcher.Fetch(ctx, code)
	if err != nil {
		return nil, &core.CRSResolutionError{Code: code, Err: err}
	}
	def, err := r.Registry.Define(code, src)
	if err != nil {
		return nil, &core.CRSResolutionError{Code: code, Err: err}
	}
	slog.Info("fetched crs definition", "code", code)

	if r.Store != nil {
		if err := r.Store.PutDefinition(ctx, code, src); err != nil {
			slog.Warn("failed to cache crs definition", "code", code, "error", err)
		}
	}
	return def, nil
}
