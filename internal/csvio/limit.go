package csvio

import (
	"errors"
	"fmt"
	"io"
)

// ErrFileTooLarge is returned once a SizeLimitedReader passes its limit.
var ErrFileTooLarge = errors.New("file too large")

// SizeLimitedReader counts bytes read and fails once more than Limit bytes
// have been seen. A Limit of zero or less disables the check.
type SizeLimitedReader struct {
	reader    io.Reader
	BytesRead int64
	Limit     int64
}

// NewSizeLimitedReader wraps r with a byte limit.
func NewSizeLimitedReader(r io.Reader, limit int64) *SizeLimitedReader {
	return &SizeLimitedReader{reader: r, Limit: limit}
}

// Read implements io.Reader.
func (r *SizeLimitedReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	r.BytesRead += int64(n)
	if r.Limit > 0 && r.BytesRead > r.Limit {
		return n, fmt.Errorf("%w: exceeds %d bytes", ErrFileTooLarge, r.Limit)
	}
	return n, err
}
