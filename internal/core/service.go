package core

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// ConvertTimeout is the default maximum duration of a single conversion.
var ConvertTimeout = 2 * time.Minute

// CRSResolver makes CRS codes known to the transform function.
type CRSResolver interface {
	Resolve(ctx context.Context, codes ...string) error
}

// ServiceConfig holds the limits applied by Service.
type ServiceConfig struct {
	MaxConcurrent int
	MaxWait       time.Duration
	Timeout       time.Duration
	MaxRows       int
}

// Service runs conversions for the HTTP and CLI front ends.
type Service struct {
	transform TransformFunc
	resolver  CRSResolver
	history   HistoryStore
	limiter   *ConversionLimiter
	timeout   time.Duration
	maxRows   int
}

// NewService creates a Service. resolver and history may be nil: without a
// resolver only already-registered CRS codes work, without a history store
// nothing is recorded.
func NewService(transform TransformFunc, resolver CRSResolver, history HistoryStore, cfg ServiceConfig) *Service {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = ConvertTimeout
	}
	return &Service{
		transform: transform,
		resolver:  resolver,
		history:   history,
		limiter:   NewConversionLimiter(cfg.MaxConcurrent, cfg.MaxWait),
		timeout:   timeout,
		maxRows:   cfg.MaxRows,
	}
}

// ConvertParams describes one conversion request.
type ConvertParams struct {
	FileName  string
	Table     *Table
	Fields    FieldSelection
	InputCRS  string
	OutputCRS string
}

// ConversionResult is the outcome of a successful conversion.
type ConversionResult struct {
	ID        string
	Table     *Table
	FileName  string
	Converted int
	Passed    int
	Duration  time.Duration
}

// Convert resolves both CRS codes and reprojects the table.
// Every attempt that got as far as a loaded table is written to history.
func (s *Service) Convert(ctx context.Context, p ConvertParams) (*ConversionResult, error) {
	start := time.Now()
	id := uuid.New()

	rec := ConversionRecord{
		ID:        id,
		FileName:  p.FileName,
		InputCRS:  p.InputCRS,
		OutputCRS: p.OutputCRS,
		FieldX:    p.Fields.X,
		FieldY:    p.Fields.Y,
		Rows:      p.Table.Len(),
		IPAddress: GetIPAddressFromContext(ctx),
		UserAgent: GetUserAgentFromContext(ctx),
	}

	result, err := s.convert(ctx, id, p)
	rec.DurationMs = time.Since(start).Milliseconds()

	if p.Table != nil {
		if err != nil {
			msg := MapError(err)
			rec.Status = StatusFailed
			rec.ErrorCode = msg.Code
			rec.ErrorText = err.Error()
		} else {
			rec.Status = StatusSucceeded
			rec.Converted = result.Converted
			rec.Passed = result.Passed
		}
		s.record(ctx, rec)
	}

	if err != nil {
		return nil, err
	}
	result.Duration = time.Since(start)
	return result, nil
}

func (s *Service) convert(ctx context.Context, id uuid.UUID, p ConvertParams) (*ConversionResult, error) {
	req := Request{
		Table:     p.Table,
		Fields:    p.Fields,
		InputCRS:  p.InputCRS,
		OutputCRS: p.OutputCRS,
		Transform: s.transform,
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if s.maxRows > 0 && p.Table.Len() > s.maxRows {
		return nil, fmt.Errorf("file too large: %d rows exceeds limit of %d", p.Table.Len(), s.maxRows)
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	convCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if s.resolver != nil {
		if err := s.resolver.Resolve(convCtx, p.InputCRS, p.OutputCRS); err != nil {
			return nil, err
		}
	}

	out, err := ReprojectContext(convCtx, req)
	if err != nil {
		return nil, err
	}

	passed := 0
	for _, row := range p.Table.Rows {
		if row.Value(p.Fields.X) == "" || row.Value(p.Fields.Y) == "" {
			passed++
		}
	}

	slog.Debug("conversion finished",
		"id", id,
		"input_crs", p.InputCRS,
		"output_crs", p.OutputCRS,
		"rows", out.Len(),
		"passed", passed,
	)

	return &ConversionResult{
		ID:        id.String(),
		Table:     out,
		FileName:  p.FileName,
		Converted: out.Len() - passed,
		Passed:    passed,
	}, nil
}

// record writes rec to history. Failures are logged, never returned.
func (s *Service) record(ctx context.Context, rec ConversionRecord) {
	if s.history == nil {
		return
	}
	// The request may already be cancelled; history is written regardless.
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := s.history.RecordConversion(writeCtx, rec); err != nil {
		slog.Warn("failed to record conversion", "id", rec.ID, "error", err)
	}
}

// WaitForConversions blocks until in-flight conversions finish or ctx is done.
func (s *Service) WaitForConversions(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

// LimiterStatus reports the conversion limiter state.
func (s *Service) LimiterStatus() LimiterStatus {
	return s.limiter.Status()
}
