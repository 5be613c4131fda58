package crs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultFetchURL serves "{n}.proj4" documents for EPSG codes.
const DefaultFetchURL = "https://epsg.io"

// ErrUnknownCode is returned when the definition service has no entry for a code.
var ErrUnknownCode = errors.New("unknown crs code")

// maxDefinitionBytes bounds the response body; proj4 strings are short.
const maxDefinitionBytes = 16 << 10

// Fetcher downloads proj4 definitions over HTTP.
type Fetcher struct {
	BaseURL string
	Client  *http.Client
}

// NewFetcher returns a fetcher for baseURL (DefaultFetchURL when empty).
func NewFetcher(baseURL string, timeout time.Duration) *Fetcher {
	if baseURL == "" {
		baseURL = DefaultFetchURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Fetcher{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  &http.Client{Timeout: timeout},
	}
}

// Fetch returns the proj4 definition for an "EPSG:n" code.
func (f *Fetcher) Fetch(ctx context.Context, code string) (string, error) {
	n, ok := EPSGNumber(code)
	if !ok {
		return "", fmt.Errorf("%w: %s is not an EPSG code", ErrUnknownCode, code)
	}

	url := fmt.Sprintf("%s/%d.proj4", f.BaseURL, n)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", code, err)
	}
	req.Header.Set("Accept", "text/plain")

	resp, err := f.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", code, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return "", fmt.Errorf("%w: %s", ErrUnknownCode, code)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return "", fmt.Errorf("fetch %s: unexpected status %d", code, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDefinitionBytes))
	if err != nil {
		return "", fmt.Errorf("fetch %s: read body: %w", code, err)
	}

	def := strings.TrimSpace(string(body))
	if !IsProj4(def) {
		return "", fmt.Errorf("%w: %s", ErrUnknownCode, code)
	}
	return def, nil
}
