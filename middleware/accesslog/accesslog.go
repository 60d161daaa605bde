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

// Package accesslog writes one structured log entry per request, including
// the API version the request was served under.
package accesslog

import (
	"crypto/sha256"
	"encoding/binary"
	"net"
	"net/http"
	"strings"

	"rivaas.dev/apicompat/middleware"
	"rivaas.dev/apicompat/strategy"
	"rivaas.dev/apicompat/telemetry/semconv"
)

// New returns a middleware that logs every request once it completes.
// Errors (status >= 400) and slow requests are always logged; sampling and
// errors-only mode only drop successful, fast requests.
//
// Basic usage:
//
//	h := accesslog.New(accesslog.WithLogger(logger.Logger()))(manager)
//
// Production setup:
//
//	accesslog.New(
//	    accesslog.WithLogger(logger.Logger()),
//	    accesslog.WithExcludePrefixes("/_meta/"),
//	    accesslog.WithSampleRate(0.1),
//	    accesslog.WithSlowThreshold(500*time.Millisecond),
//	)
func New(opts ...Option) middleware.Middleware {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.logger == nil || cfg.excluded(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			// Captured before the versioning layer strips version segments.
			path := r.URL.Path
			start := cfg.now()
			rw := &responseWriter{ResponseWriter: w}

			next.ServeHTTP(rw, r)

			duration := cfg.now().Sub(start)
			status := rw.StatusCode()
			isError := status >= http.StatusBadRequest
			isSlow := cfg.slowThreshold > 0 && duration >= cfg.slowThreshold

			if !isError && !isSlow {
				if cfg.errorsOnly {
					return
				}
				if cfg.sampleRate < 1.0 && !sampleByHash(middleware.RequestID(r), cfg.sampleRate) {
					return
				}
			}

			fields := []any{
				"method", r.Method,
				"path", path,
				"status", status,
				"duration_ms", duration.Milliseconds(),
				"bytes_sent", rw.Size(),
				"user_agent", r.UserAgent(),
				"client_ip", clientIP(r),
				"host", r.Host,
				"proto", r.Proto,
			}
			if v := rw.Header().Get(strategy.HeaderAPIVersion); v != "" {
				fields = append(fields, semconv.APIVersion, v)
			}
			if id := middleware.RequestID(r); id != "" {
				fields = append(fields, semconv.RequestID, id)
			}
			if isSlow {
				fields = append(fields, "slow", true)
			}

			switch {
			case status >= http.StatusInternalServerError:
				cfg.logger.Error("access", fields...)
			case isError, isSlow:
				cfg.logger.Warn("access", fields...)
			default:
				cfg.logger.Info("access", fields...)
			}
		})
	}
}

func (cfg *config) excluded(path string) bool {
	if cfg.excludePaths[path] {
		return true
	}
	for _, prefix := range cfg.excludePrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// sampleByHash keeps a stable fraction of request IDs so that a sampled
// request is logged at every hop that shares its ID.
func sampleByHash(id string, rate float64) bool {
	if id == "" {
		return true
	}
	h := sha256.Sum256([]byte(id))
	threshold := uint64(rate * float64(^uint64(0)))
	return binary.BigEndian.Uint64(h[:8]) <= threshold
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
	size       int64
	written    bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.written {
		rw.statusCode = code
		rw.written = true
		rw.ResponseWriter.WriteHeader(code)
	}
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.written {
		rw.WriteHeader(http.StatusOK)
	}
	n, err := rw.ResponseWriter.Write(b)
	rw.size += int64(n)
	return n, err
}

// StatusCode returns the written status, defaulting to 200.
func (rw *responseWriter) StatusCode() int {
	if rw.statusCode == 0 {
		return http.StatusOK
	}
	return rw.statusCode
}

// Size returns the number of body bytes written.
func (rw *responseWriter) Size() int64 {
	return rw.size
}

func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}
