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

// Package requestid assigns every request an ID, echoes it in a response
// header and stores it in the request context for logging and error
// correlation.
package requestid

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"rivaas.dev/apicompat/middleware"
)

// DefaultHeader carries the request ID in both directions.
const DefaultHeader = "X-Request-ID"

// maxClientIDLength caps IDs accepted from clients. Longer values are
// replaced with a generated ID.
const maxClientIDLength = 128

// Option defines functional options for the requestid middleware.
type Option func(*config)

type config struct {
	headerName    string
	generator     func() string
	allowClientID bool
}

func defaultConfig() *config {
	return &config{
		headerName:    DefaultHeader,
		generator:     uuid.NewString,
		allowClientID: true,
	}
}

// WithHeader sets the header name used for the request ID.
// Default: X-Request-ID
func WithHeader(name string) Option {
	return func(cfg *config) {
		if name != "" {
			cfg.headerName = name
		}
	}
}

// WithGenerator replaces the UUID generator.
func WithGenerator(generator func() string) Option {
	return func(cfg *config) {
		if generator != nil {
			cfg.generator = generator
		}
	}
}

// WithAllowClientID controls whether an ID sent by the client is reused.
// Default: true
func WithAllowClientID(allow bool) Option {
	return func(cfg *config) {
		cfg.allowClientID = allow
	}
}

// New returns a middleware that adds a request ID to each request.
//
// Basic usage:
//
//	handler := requestid.New()(manager)
//
// Reading the ID downstream:
//
//	id := requestid.Get(r)
func New(opts ...Option) middleware.Middleware {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var id string
			if cfg.allowClientID {
				id = r.Header.Get(cfg.headerName)
				if !validClientID(id) {
					id = ""
				}
			}
			if id == "" {
				id = cfg.generator()
			}

			w.Header().Set(cfg.headerName, id)
			ctx := context.WithValue(r.Context(), middleware.RequestIDKey, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Get returns the request ID of r, or "" when the middleware did not run.
func Get(r *http.Request) string {
	return middleware.RequestID(r)
}

// validClientID rejects IDs that would be unsafe to echo into headers or
// logs: empty, oversized or containing non-printable ASCII.
func validClientID(id string) bool {
	if id == "" || len(id) > maxClientIDLength {
		return false
	}
	for i := range len(id) {
		if c := id[i]; c < 0x21 || c > 0x7e {
			return false
		}
	}
	return true
}
