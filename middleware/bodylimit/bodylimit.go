// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package bodylimit caps request body size. Transformers and schema
// validation buffer whole request bodies, so unbounded bodies must be
// rejected before they reach the manager.
package bodylimit

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	apierrors "rivaas.dev/apicompat/errors"
	"rivaas.dev/apicompat/middleware"
)

// DefaultLimit is the body size accepted when no limit is configured.
const DefaultLimit int64 = 2 << 20 // 2MB

// ErrBodyLimitExceeded is matched by every [LimitError].
var ErrBodyLimitExceeded = errors.New("request body size exceeds limit")

// LimitError reports a body larger than Limit bytes.
type LimitError struct {
	Limit int64
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("%s of %s", ErrBodyLimitExceeded, formatSize(e.Limit))
}

// Is matches [ErrBodyLimitExceeded].
func (e *LimitError) Is(target error) bool { return target == ErrBodyLimitExceeded }

// HTTPStatus implements errors.ErrorType.
func (e *LimitError) HTTPStatus() int { return http.StatusRequestEntityTooLarge }

// Code implements errors.ErrorCode.
func (e *LimitError) Code() string { return "BODY_TOO_LARGE" }

// Details implements errors.ErrorDetails.
func (e *LimitError) Details() any {
	return map[string]any{"max_size": formatSize(e.Limit)}
}

// Option defines functional options for the bodylimit middleware.
type Option func(*config)

type config struct {
	limit     int64
	formatter apierrors.Formatter
	skipPaths map[string]bool
}

// WithLimit sets the maximum body size in bytes. It panics if size is not
// positive.
//
// Example:
//
//	bodylimit.New(bodylimit.WithLimit(10 << 20)) // 10MB
func WithLimit(size int64) Option {
	if size <= 0 {
		panic(fmt.Sprintf("bodylimit: limit must be positive, got %d", size))
	}
	return func(cfg *config) {
		cfg.limit = size
	}
}

// WithFormatter sets the error formatter for 413 responses.
func WithFormatter(f apierrors.Formatter) Option {
	return func(cfg *config) {
		cfg.formatter = f
	}
}

// WithSkipPaths disables the limit for exact paths.
func WithSkipPaths(paths ...string) Option {
	return func(cfg *config) {
		for _, p := range paths {
			cfg.skipPaths[p] = true
		}
	}
}

// New returns a middleware that limits request body size.
//
// Requests announcing a larger Content-Length are rejected with 413 before
// the handler runs. Bodies without a trustworthy length are wrapped so that
// reading past the limit fails with a [LimitError], which the manager
// renders as 413.
func New(opts ...Option) middleware.Middleware {
	cfg := &config{
		limit:     DefaultLimit,
		skipPaths: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.skipPaths[r.URL.Path] || r.Body == nil || r.Body == http.NoBody {
				next.ServeHTTP(w, r)
				return
			}

			if r.ContentLength > cfg.limit {
				_ = apierrors.Write(w, r, cfg.formatter, &LimitError{Limit: cfg.limit})
				return
			}

			r.Body = &limitedReader{reader: r.Body, limit: cfg.limit}
			next.ServeHTTP(w, r)
		})
	}
}

type limitedReader struct {
	reader io.ReadCloser
	limit  int64
	read   int64
}

func (lr *limitedReader) Read(p []byte) (int, error) {
	if lr.read > lr.limit {
		return 0, &LimitError{Limit: lr.limit}
	}

	// Allow one byte past the limit so an exact-size body still sees EOF.
	if remaining := lr.limit - lr.read + 1; int64(len(p)) > remaining {
		p = p[:remaining]
	}

	n, err := lr.reader.Read(p)
	lr.read += int64(n)
	if lr.read > lr.limit {
		return n - int(lr.read-lr.limit), &LimitError{Limit: lr.limit}
	}
	return n, err
}

func (lr *limitedReader) Close() error {
	return lr.reader.Close()
}

func formatSize(bytes int64) string {
	const (
		kb = 1024
		mb = 1024 * kb
		gb = 1024 * mb
	)

	switch {
	case bytes >= gb:
		return fmt.Sprintf("%.1fGB", float64(bytes)/float64(gb))
	case bytes >= mb:
		return fmt.Sprintf("%.1fMB", float64(bytes)/float64(mb))
	case bytes >= kb:
		return fmt.Sprintf("%.1fKB", float64(bytes)/float64(kb))
	default:
		return fmt.Sprintf("%dB", bytes)
	}
}
