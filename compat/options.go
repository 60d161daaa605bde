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

package compat

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	apierrors "rivaas.dev/apicompat/errors"
	"rivaas.dev/apicompat/logging"
	"rivaas.dev/apicompat/metrics"
	"rivaas.dev/apicompat/middleware"
	"rivaas.dev/apicompat/tracing"
	"rivaas.dev/apicompat/validation"
	"rivaas.dev/apicompat/version"
	"rivaas.dev/apicompat/versioning"
)

// Option configures a [Manager].
type Option func(*Manager)

// Authenticator guards the /metrics meta endpoint. A non-nil error rejects
// the request with 401.
type Authenticator func(r *http.Request) error

// BearerToken returns an [Authenticator] accepting "Authorization: Bearer
// <token>".
func BearerToken(token string) Authenticator {
	return func(r *http.Request) error {
		got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || token == "" || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			return ErrUnauthorized
		}
		return nil
	}
}

// WithVersioning passes options to the versioning middleware. A default
// version is required.
//
// Example:
//
//	compat.New(compat.WithVersioning(
//	    versioning.WithMethod(strategy.KindHeader),
//	    versioning.WithDefault("2.0.0"),
//	    versioning.WithSupportedVersions("1.0.0", "2.0.0"),
//	))
func WithVersioning(opts ...versioning.Option) Option {
	return func(m *Manager) {
		m.versioningOpts = append(m.versioningOpts, opts...)
	}
}

// WithRegistry uses an existing version registry.
func WithRegistry(reg *version.Registry) Option {
	return func(m *Manager) {
		m.registry = reg
	}
}

// WithLogger sets the logger. The default discards output.
func WithLogger(l *logging.Logger) Option {
	return func(m *Manager) {
		m.logger = l
	}
}

// WithMetrics exports request, negotiation and deprecation counters through
// an OpenTelemetry recorder. The per endpoint table behind /metrics is kept
// regardless.
func WithMetrics(r *metrics.Recorder) Option {
	return func(m *Manager) {
		m.recorder = r
	}
}

// WithTracer records a server span per versioned request.
func WithTracer(t *tracing.Tracer) Option {
	return func(m *Manager) {
		m.tracer = t
	}
}

// WithAuthenticator mounts the /metrics meta endpoint behind auth. Without an
// authenticator the endpoint does not exist.
func WithAuthenticator(auth Authenticator) Option {
	return func(m *Manager) {
		m.authenticator = auth
	}
}

// WithMetaPrefix mounts the meta endpoints under prefix, e.g. "/api" serves
// /api/versions.
func WithMetaPrefix(prefix string) Option {
	return func(m *Manager) {
		m.metaPrefix = strings.TrimSuffix(prefix, "/")
	}
}

// WithErrorFormatter sets the formatter for every error response, including
// those written by the middleware.
func WithErrorFormatter(f apierrors.Formatter) Option {
	return func(m *Manager) {
		m.formatter = f
	}
}

// WithValidator sets the validator used for endpoint and version
// declarations.
func WithValidator(v *validation.Validator) Option {
	return func(m *Manager) {
		m.validator = v
	}
}

// WithNegotiationCache bounds the negotiation memo. Entries expire after ttl;
// capacity 0 leaves the size unbounded.
func WithNegotiationCache(ttl time.Duration, capacity uint64) Option {
	return func(m *Manager) {
		m.cacheTTL = ttl
		m.cacheCapacity = capacity
	}
}

// WithClock sets the clock used for deprecation stamps, envelopes, sunset
// checks and metrics timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// WithMiddleware adds http middlewares around the manager. They run after
// request ID assignment and panic recovery, in the order given, and see the
// request before any version segment is stripped.
//
// Example:
//
//	compat.New(compat.WithMiddleware(
//	    bodylimit.New(bodylimit.WithLimit(1 << 20)),
//	    accesslog.New(accesslog.WithLogger(logger.Logger())),
//	))
func WithMiddleware(mws ...middleware.Middleware) Option {
	return func(m *Manager) {
		m.middlewares = append(m.middlewares, mws...)
	}
}
