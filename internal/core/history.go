package core

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// History errors.
var (
	ErrConversionNotFound = errors.New("conversion not found")
	ErrHistoryUnavailable = errors.New("history is not available without a database")
)

// Conversion outcomes stored in history.
const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// ConversionRecord is one row of conversion history.
type ConversionRecord struct {
	ID         uuid.UUID `json:"id"`
	FileName   string    `json:"file_name"`
	InputCRS   string    `json:"input_crs"`
	OutputCRS  string    `json:"output_crs"`
	FieldX     string    `json:"field_x"`
	FieldY     string    `json:"field_y"`
	Rows       int       `json:"rows"`
	Converted  int       `json:"converted"`
	Passed     int       `json:"passed"`
	Status     string    `json:"status"`
	ErrorCode  string    `json:"error_code,omitempty"`
	ErrorText  string    `json:"error_text,omitempty"`
	DurationMs int64     `json:"duration_ms"`
	IPAddress  string    `json:"ip_address,omitempty"`
	UserAgent  string    `json:"user_agent,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// HistoryStore persists conversion history. GetConversion returns
// ErrConversionNotFound for an unknown id.
type HistoryStore interface {
	RecordConversion(ctx context.Context, rec ConversionRecord) error
	ListConversions(ctx context.Context, limit int) ([]ConversionRecord, error)
	GetConversion(ctx context.Context, id uuid.UUID) (*ConversionRecord, error)
	PruneConversions(ctx context.Context, olderThanDays int) (int64, error)
}

// DefaultHistoryLimit caps History when the caller passes a non-positive limit.
const DefaultHistoryLimit = 50

// History returns the most recent conversions, newest first.
func (s *Service) History(ctx context.Context, limit int) ([]ConversionRecord, error) {
	if s.history == nil {
		return nil, ErrHistoryUnavailable
	}
	if limit <= 0 || limit > 1000 {
		limit = DefaultHistoryLimit
	}
	return s.history.ListConversions(ctx, limit)
}

// Conversion returns a single history entry by id.
func (s *Service) Conversion(ctx context.Context, id string) (*ConversionRecord, error) {
	if s.history == nil {
		return nil, ErrHistoryUnavailable
	}
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrConversionNotFound
	}
	return s.history.GetConversion(ctx, uid)
}

// HistoryEnabled reports whether conversions are being recorded.
func (s *Service) HistoryEnabled() bool {
	return s.history != nil
}
