package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// GetDefinition returns the cached proj4 string for code.
func (s *Store) GetDefinition(ctx context.Context, code string) (string, bool, error) {
	var proj4 string
	err := s.db.QueryRow(ctx,
		`SELECT proj4 FROM crs_definitions WHERE code = $1`, code,
	).Scan(&proj4)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get crs definition %s: %w", code, err)
	}
	return proj4, true, nil
}

// PutDefinition inserts or replaces the cached definition for code.
func (s *Store) PutDefinition(ctx context.Context, code, proj4 string) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO crs_definitions (code, proj4, fetched_at)
		VALUES ($1, $2, now())
		ON CONFLICT (code) DO UPDATE
		SET proj4 = EXCLUDED.proj4, fetched_at = EXCLUDED.fetched_at`,
		code, proj4,
	)
	if err != nil {
		return fmt.Errorf("put crs definition %s: %w", code, err)
	}
	return nil
}
