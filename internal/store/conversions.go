package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/JonMunkholm/reproject/internal/core"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const conversionColumns = `id, file_name, input_crs, output_crs, field_x, field_y,
	row_count, converted, passed, status, error_code, error_text,
	duration_ms, ip_address, user_agent, created_at`

// RecordConversion inserts one history entry.
func (s *Store) RecordConversion(ctx context.Context, rec core.ConversionRecord) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO conversions (`+conversionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, now())`,
		pgtype.UUID{Bytes: rec.ID, Valid: true},
		rec.FileName,
		rec.InputCRS,
		rec.OutputCRS,
		rec.FieldX,
		rec.FieldY,
		int32(rec.Rows),
		int32(rec.Converted),
		int32(rec.Passed),
		rec.Status,
		textOrNull(rec.ErrorCode),
		textOrNull(rec.ErrorText),
		rec.DurationMs,
		textOrNull(rec.IPAddress),
		textOrNull(rec.UserAgent),
	)
	if err != nil {
		return fmt.Errorf("record conversion: %w", err)
	}
	return nil
}

// ListConversions returns up to limit entries, newest first.
func (s *Store) ListConversions(ctx context.Context, limit int) ([]core.ConversionRecord, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+conversionColumns+`
		FROM conversions
		ORDER BY created_at DESC
		LIMIT $1`, int32(limit))
	if err != nil {
		return nil, fmt.Errorf("list conversions: %w", err)
	}
	defer rows.Close()

	var out []core.ConversionRecord
	for rows.Next() {
		rec, err := scanConversion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan conversion: %w", err)
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list conversions: %w", err)
	}
	return out, nil
}

// GetConversion returns one entry or core.ErrConversionNotFound.
func (s *Store) GetConversion(ctx context.Context, id uuid.UUID) (*core.ConversionRecord, error) {
	row := s.db.QueryRow(ctx, `
		SELECT `+conversionColumns+`
		FROM conversions
		WHERE id = $1`, pgtype.UUID{Bytes: id, Valid: true})

	rec, err := scanConversion(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", core.ErrConversionNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get conversion %s: %w", id, err)
	}
	return rec, nil
}

// PruneConversions deletes entries older than olderThanDays and returns how
// many were removed.
func (s *Store) PruneConversions(ctx context.Context, olderThanDays int) (int64, error) {
	tag, err := s.db.Exec(ctx, `
		DELETE FROM conversions
		WHERE created_at < now() - make_interval(days => $1)`, int32(olderThanDays))
	if err != nil {
		return 0, fmt.Errorf("prune conversions: %w", err)
	}
	return tag.RowsAffected(), nil
}

// scanConversion reads one row in conversionColumns order.
func scanConversion(row pgx.Row) (*core.ConversionRecord, error) {
	var (
		id        pgtype.UUID
		rec       core.ConversionRecord
		rowCount  int32
		converted int32
		passed    int32
		errorCode pgtype.Text
		errorText pgtype.Text
		ipAddress pgtype.Text
		userAgent pgtype.Text
		createdAt pgtype.Timestamptz
	)

	err := row.Scan(
		&id, &rec.FileName, &rec.InputCRS, &rec.OutputCRS, &rec.FieldX, &rec.FieldY,
		&rowCount, &converted, &passed, &rec.Status, &errorCode, &errorText,
		&rec.DurationMs, &ipAddress, &userAgent, &createdAt,
	)
	if err != nil {
		return nil, err
	}

	rec.ID = uuid.UUID(id.Bytes)
	rec.Rows = int(rowCount)
	rec.Converted = int(converted)
	rec.Passed = int(passed)
	rec.ErrorCode = errorCode.String
	rec.ErrorText = errorText.String
	rec.IPAddress = ipAddress.String
	rec.UserAgent = userAgent.String
	rec.CreatedAt = createdAt.Time
	return &rec, nil
}

func textOrNull(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: s != ""}
}
