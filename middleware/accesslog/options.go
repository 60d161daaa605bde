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

package accesslog

import (
	"log/slog"
	"time"
)

// Option defines functional options for the accesslog middleware.
type Option func(*config)

type config struct {
	logger          *slog.Logger
	excludePaths    map[string]bool
	excludePrefixes []string
	sampleRate      float64
	errorsOnly      bool
	slowThreshold   time.Duration
	now             func() time.Time
}

func defaultConfig() *config {
	return &config{
		excludePaths: make(map[string]bool),
		sampleRate:   1.0,
		now:          time.Now,
	}
}

// WithLogger sets the logger. Without one the middleware is a no-op.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *config) {
		cfg.logger = logger
	}
}

// WithExcludePaths skips logging for exact paths.
//
// Example:
//
//	accesslog.New(accesslog.WithExcludePaths("/healthz"))
func WithExcludePaths(paths ...string) Option {
	return func(cfg *config) {
		for _, p := range paths {
			cfg.excludePaths[p] = true
		}
	}
}

// WithExcludePrefixes skips logging for paths starting with any prefix.
func WithExcludePrefixes(prefixes ...string) Option {
	return func(cfg *config) {
		cfg.excludePrefixes = append(cfg.excludePrefixes, prefixes...)
	}
}

// WithSampleRate logs the given fraction of successful requests, chosen by
// request ID. The rate is clamped to [0, 1].
func WithSampleRate(rate float64) Option {
	return func(cfg *config) {
		cfg.sampleRate = min(max(rate, 0), 1)
	}
}

// WithErrorsOnly logs only failed and slow requests.
func WithErrorsOnly() Option {
	return func(cfg *config) {
		cfg.errorsOnly = true
	}
}

// WithSlowThreshold marks requests slower than d with "slow": true and
// logs them at warn level regardless of sampling.
func WithSlowThreshold(d time.Duration) Option {
	return func(cfg *config) {
		cfg.slowThreshold = d
	}
}

// withClock replaces time.Now in tests.
func withClock(now func() time.Time) Option {
	return func(cfg *config) {
		cfg.now = now
	}
}
