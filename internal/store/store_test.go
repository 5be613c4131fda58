package store

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/JonMunkholm/reproject/internal/core"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// testStore opens a transaction against TEST_DATABASE_URL and rolls it back
// when the test ends. Tests are skipped when the variable is unset.
func testStore(t *testing.T) *Store {
	t.Helper()

	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := Connect(ctx, url, PoolOptions{MaxConns: 2})
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	t.Cleanup(pool.Close)

	tx, err := pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		t.Fatalf("BeginTx() error = %v", err)
	}
	t.Cleanup(func() { _ = tx.Rollback(context.Background()) })

	s := New(tx)
	if err := s.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema() error = %v", err)
	}
	return s
}

func TestDefinitions(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if _, found, err := s.GetDefinition(ctx, "EPSG:999001"); err != nil || found {
		t.Fatalf("GetDefinition() found = %v, err = %v, want not found", found, err)
	}

	if err := s.PutDefinition(ctx, "EPSG:999001", "+proj=longlat +datum=WGS84"); err != nil {
		t.Fatalf("PutDefinition() error = %v", err)
	}
	if err := s.PutDefinition(ctx, "EPSG:999001", "+proj=longlat +ellps=GRS80"); err != nil {
		t.Fatalf("PutDefinition() upsert error = %v", err)
	}

	got, found, err := s.GetDefinition(ctx, "EPSG:999001")
	if err != nil || !found {
		t.Fatalf("GetDefinition() found = %v, err = %v", found, err)
	}
	if got != "+proj=longlat +ellps=GRS80" {
		t.Errorf("GetDefinition() = %q, want updated definition", got)
	}
}

func TestConversions(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	ok := core.ConversionRecord{
		ID:         uuid.New(),
		FileName:   "points.csv",
		InputCRS:   "EPSG:4326",
		OutputCRS:  "EPSG:2039",
		FieldX:     "lng",
		FieldY:     "lat",
		Rows:       10,
		Converted:  9,
		Passed:     1,
		Status:     core.StatusSucceeded,
		DurationMs: 12,
		IPAddress:  "10.0.0.1",
	}
	failed := core.ConversionRecord{
		ID:        uuid.New(),
		FileName:  "bad.csv",
		InputCRS:  "EPSG:4326",
		OutputCRS: "EPSG:3857",
		FieldX:    "x",
		FieldY:    "y",
		Rows:      3,
		Status:    core.StatusFailed,
		ErrorCode: "COORD001",
		ErrorText: "invalid coordinate value at row 2",
	}

	for _, rec := range []core.ConversionRecord{ok, failed} {
		if err := s.RecordConversion(ctx, rec); err != nil {
			t.Fatalf("RecordConversion() error = %v", err)
		}
	}

	got, err := s.GetConversion(ctx, ok.ID)
	if err != nil {
		t.Fatalf("GetConversion() error = %v", err)
	}
	if got.FileName != ok.FileName || got.Converted != 9 || got.Passed != 1 || got.IPAddress != "10.0.0.1" {
		t.Errorf("GetConversion() = %+v", got)
	}
	if got.ErrorCode != "" {
		t.Errorf("ErrorCode = %q, want empty", got.ErrorCode)
	}

	list, err := s.ListConversions(ctx, 10)
	if err != nil {
		t.Fatalf("ListConversions() error = %v", err)
	}
	if len(list) < 2 {
		t.Fatalf("ListConversions() returned %d rows, want at least 2", len(list))
	}

	_, err = s.GetConversion(ctx, uuid.New())
	if !errors.Is(err, core.ErrConversionNotFound) {
		t.Errorf("GetConversion(missing) error = %v, want ErrConversionNotFound", err)
	}

	if _, err := s.PruneConversions(ctx, 30); err != nil {
		t.Errorf("PruneConversions() error = %v", err)
	}
}
