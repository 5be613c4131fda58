package crs

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/JonMunkholm/reproject/internal/core"
)

func newEPSGServer(t *testing.T, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		switch r.URL.Path {
		case "/2039.proj4":
			w.Write([]byte(itm + "\n"))
		case "/32636.proj4":
			w.Write([]byte("+proj=utm +zone=36 +datum=WGS84 +units=m +no_defs"))
		case "/500.proj4":
			w.WriteHeader(http.StatusInternalServerError)
		case "/501.proj4":
			w.Write([]byte("<html>not found</html>"))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

type memDefinitions struct {
	mu   sync.Mutex
	defs map[string]string
	puts int
}

func (m *memDefinitions) GetDefinition(_ context.Context, code string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	src, ok := m.defs[code]
	return src, ok, nil
}

func (m *memDefinitions) PutDefinition(_ context.Context, code, src string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.defs[code] = src
	m.puts++
	return nil
}

func TestFetcher_Fetch(t *testing.T) {
	var hits atomic.Int32
	f := NewFetcher(newEPSGServer(t, &hits).URL, time.Second)

	src, err := f.Fetch(context.Background(), "epsg:2039")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if src != itm {
		t.Errorf("Fetch() = %q", src)
	}

	tests := []struct {
		code        string
		wantUnknown bool
	}{
		{"EPSG:99999", true},
		{"EPSG:501", true},
		{"WGS84", true},
		{"EPSG:500", false},
	}
	for _, tt := range tests {
		_, err := f.Fetch(context.Background(), tt.code)
		if err == nil {
			t.Errorf("Fetch(%s) succeeded, want error", tt.code)
			continue
		}
		if got := errors.Is(err, ErrUnknownCode); got != tt.wantUnknown {
			t.Errorf("Fetch(%s) error = %v, unknown = %v, want %v", tt.code, err, got, tt.wantUnknown)
		}
	}
}

func TestResolver_FetchesAndCaches(t *testing.T) {
	var hits atomic.Int32
	store := &memDefinitions{defs: map[string]string{}}
	r := &Resolver{
		Registry: NewRegistry(),
		Store:    store,
		Fetcher:  NewFetcher(newEPSGServer(t, &hits).URL, time.Second),
	}

	if err := r.Resolve(context.Background(), "2039", "EPSG:4326", "EPSG:2039", "32636"); err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got := hits.Load(); got != 2 {
		t.Errorf("fetched %d times, want 2", got)
	}
	if store.puts != 2 {
		t.Errorf("cached %d definitions, want 2", store.puts)
	}

	if err := r.Resolve(context.Background(), "EPSG:2039"); err != nil {
		t.Fatalf("second Resolve() error = %v", err)
	}
	if got := hits.Load(); got != 2 {
		t.Errorf("second Resolve fetched again (%d hits)", got)
	}
}

func TestResolver_UsesStoreBeforeFetch(t *testing.T) {
	var hits atomic.Int32
	store := &memDefinitions{defs: map[string]string{"EPSG:2039": itm}}
	r := &Resolver{
		Registry: NewRegistry(),
		Store:    store,
		Fetcher:  NewFetcher(newEPSGServer(t, &hits).URL, time.Second),
	}

	def, err := r.Definition(context.Background(), "2039")
	if err != nil {
		t.Fatalf("Definition() error = %v", err)
	}
	if def.Proj != "tmerc" {
		t.Errorf("Proj = %q", def.Proj)
	}
	if hits.Load() != 0 {
		t.Error("store hit should not fetch")
	}
}

func TestResolver_Errors(t *testing.T) {
	var hits atomic.Int32
	r := &Resolver{
		Registry: NewRegistry(),
		Fetcher:  NewFetcher(newEPSGServer(t, &hits).URL, time.Second),
	}

	err := r.Resolve(context.Background(), "EPSG:4326", "EPSG:99999")
	var crsErr *core.CRSResolutionError
	if !errors.As(err, &crsErr) || crsErr.Code != "EPSG:99999" {
		t.Fatalf("error = %v, want CRSResolutionError for EPSG:99999", err)
	}
	if got := core.MapError(err).Code; got != "CRS001" {
		t.Errorf("code = %s, want CRS001", got)
	}

	err = r.Resolve(context.Background(), "EPSG:500")
	if got := core.MapError(err).Code; got != "CRS002" {
		t.Errorf("server error code = %s, want CRS002 (%v)", got, err)
	}

	offline := &Resolver{Registry: NewRegistry()}
	if err := offline.Resolve(context.Background(), "EPSG:2039"); !errors.Is(err, ErrUnknownCode) {
		t.Errorf("offline error = %v, want ErrUnknownCode", err)
	}
	if err := offline.Resolve(context.Background(), "+proj=utm +zone=36 +datum=WGS84"); err != nil {
		t.Errorf("inline definition error = %v", err)
	}
	if err := offline.Resolve(context.Background(), "+proj=pipeline +step +proj=merc"); err == nil || !strings.Contains(err.Error(), "unsupported projection") {
		t.Errorf("inline pipeline error = %v", err)
	}
	first, err := offline.Definition(context.Background(), "+proj=lcc +lat_1=49 +lat_2=44 +lat_0=46.5 +lon_0=3")
	if err != nil {
		t.Fatalf("inline lcc error = %v", err)
	}
	again, _ := offline.Definition(context.Background(), "+proj=lcc +lat_1=49 +lat_2=44 +lat_0=46.5 +lon_0=3")
	if first != again {
		t.Error("inline definition was parsed again on the second request")
	}
}
