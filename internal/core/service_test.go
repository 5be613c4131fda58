package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

type memHistory struct {
	mu      sync.Mutex
	records []ConversionRecord
	pruned  int
}

func (m *memHistory) RecordConversion(_ context.Context, rec ConversionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
	return nil
}

func (m *memHistory) ListConversions(_ context.Context, limit int) ([]ConversionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]ConversionRecord, 0, limit)
	for i := len(m.records) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.records[i])
	}
	return out, nil
}

func (m *memHistory) GetConversion(_ context.Context, id uuid.UUID) (*ConversionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.records {
		if m.records[i].ID == id {
			rec := m.records[i]
			return &rec, nil
		}
	}
	return nil, ErrConversionNotFound
}

func (m *memHistory) PruneConversions(_ context.Context, _ int) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pruned++
	return 0, nil
}

type stubResolver struct {
	known map[string]bool
}

func (r stubResolver) Resolve(_ context.Context, codes ...string) error {
	for _, c := range codes {
		if !r.known[c] {
			return &CRSResolutionError{Code: c}
		}
	}
	return nil
}

func testParams() ConvertParams {
	return ConvertParams{
		FileName: "points.csv",
		Table: NewTable([]string{"x", "y"}, [][]string{
			{"1", "2"},
			{"", "3"},
			{"4", "5"},
		}),
		Fields:    FieldSelection{X: "x", Y: "y"},
		InputCRS:  "EPSG:4326",
		OutputCRS: "EPSG:3857",
	}
}

func TestService_Convert(t *testing.T) {
	hist := &memHistory{}
	resolver := stubResolver{known: map[string]bool{"EPSG:4326": true, "EPSG:3857": true}}
	svc := NewService(shift(1, 1), resolver, hist, ServiceConfig{})

	ctx := ContextWithIPAddress(context.Background(), "10.0.0.1")
	res, err := svc.Convert(ctx, testParams())
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}

	if res.Converted != 2 || res.Passed != 1 {
		t.Errorf("Converted/Passed = %d/%d, want 2/1", res.Converted, res.Passed)
	}
	if _, err := uuid.Parse(res.ID); err != nil {
		t.Errorf("ID %q is not a uuid", res.ID)
	}
	if got := res.Table.Rows[2].Value("y_EPSG:3857"); got != "6.000000" {
		t.Errorf("y_EPSG:3857 = %q, want 6.000000", got)
	}

	if len(hist.records) != 1 {
		t.Fatalf("recorded %d conversions, want 1", len(hist.records))
	}
	rec := hist.records[0]
	if rec.Status != StatusSucceeded || rec.Rows != 3 || rec.IPAddress != "10.0.0.1" {
		t.Errorf("record = %+v", rec)
	}
}

func TestService_ConvertRecordsFailures(t *testing.T) {
	hist := &memHistory{}
	resolver := stubResolver{known: map[string]bool{"EPSG:4326": true}}
	svc := NewService(shift(0, 0), resolver, hist, ServiceConfig{})

	_, err := svc.Convert(context.Background(), testParams())
	if !errors.Is(err, ErrCRSResolution) {
		t.Fatalf("error = %v, want ErrCRSResolution", err)
	}

	if len(hist.records) != 1 {
		t.Fatalf("recorded %d conversions, want 1", len(hist.records))
	}
	if rec := hist.records[0]; rec.Status != StatusFailed || rec.ErrorCode != "CRS001" {
		t.Errorf("record status/code = %s/%s, want failed/CRS001", rec.Status, rec.ErrorCode)
	}
}

func TestService_ConvertMaxRows(t *testing.T) {
	svc := NewService(shift(0, 0), nil, nil, ServiceConfig{MaxRows: 2})

	_, err := svc.Convert(context.Background(), testParams())
	if got := MapError(err).Code; got != "FILE001" {
		t.Errorf("code = %s, want FILE001 (err %v)", got, err)
	}
}

func TestService_ConvertWithoutTableNotRecorded(t *testing.T) {
	hist := &memHistory{}
	svc := NewService(shift(0, 0), nil, hist, ServiceConfig{})

	p := testParams()
	p.Table = nil
	if _, err := svc.Convert(context.Background(), p); !errors.Is(err, ErrMissingPrerequisite) {
		t.Errorf("error = %v, want ErrMissingPrerequisite", err)
	}
	if len(hist.records) != 0 {
		t.Errorf("recorded %d conversions, want 0", len(hist.records))
	}
}

func TestService_ConvertBusy(t *testing.T) {
	svc := NewService(shift(0, 0), nil, nil, ServiceConfig{MaxConcurrent: 1, MaxWait: 20 * time.Millisecond})

	if !svc.limiter.TryAcquire() {
		t.Fatal("TryAcquire failed on idle limiter")
	}
	defer svc.limiter.Release()

	if _, err := svc.Convert(context.Background(), testParams()); !errors.Is(err, ErrTooManyConversions) {
		t.Errorf("error = %v, want ErrTooManyConversions", err)
	}
	if st := svc.LimiterStatus(); st.Active != 1 || st.MaxConcurrent != 1 {
		t.Errorf("LimiterStatus() = %+v", st)
	}
}

func TestService_History(t *testing.T) {
	t.Run("disabled without store", func(t *testing.T) {
		svc := NewService(shift(0, 0), nil, nil, ServiceConfig{})
		if _, err := svc.History(context.Background(), 10); !errors.Is(err, ErrHistoryUnavailable) {
			t.Errorf("History() error = %v, want ErrHistoryUnavailable", err)
		}
		if _, err := svc.Conversion(context.Background(), uuid.NewString()); !errors.Is(err, ErrHistoryUnavailable) {
			t.Errorf("Conversion() error = %v, want ErrHistoryUnavailable", err)
		}
		if svc.HistoryEnabled() {
			t.Error("HistoryEnabled() = true")
		}
	})

	t.Run("lists newest first", func(t *testing.T) {
		hist := &memHistory{}
		svc := NewService(shift(0, 0), nil, hist, ServiceConfig{})
		first, _ := svc.Convert(context.Background(), testParams())
		second, _ := svc.Convert(context.Background(), testParams())

		recs, err := svc.History(context.Background(), 0)
		if err != nil {
			t.Fatalf("History() error = %v", err)
		}
		if len(recs) != 2 || recs[0].ID.String() != second.ID {
			t.Errorf("History() order wrong: %+v", recs)
		}

		got, err := svc.Conversion(context.Background(), first.ID)
		if err != nil || got.ID.String() != first.ID {
			t.Errorf("Conversion(%s) = %+v, %v", first.ID, got, err)
		}
		if _, err := svc.Conversion(context.Background(), "not-a-uuid"); !errors.Is(err, ErrConversionNotFound) {
			t.Errorf("Conversion(bad id) error = %v", err)
		}
	})
}

func TestService_StartHistoryPruner(t *testing.T) {
	hist := &memHistory{}
	svc := NewService(shift(0, 0), nil, hist, ServiceConfig{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.StartHistoryPruner(ctx, HistoryPrunerConfig{Interval: 10 * time.Millisecond})
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("pruner did not stop after cancel")
	}

	hist.mu.Lock()
	defer hist.mu.Unlock()
	if hist.pruned < 2 {
		t.Errorf("pruned %d times, want at least 2", hist.pruned)
	}
}
