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

package versioning

import (
	"fmt"
	"slices"
	"time"

	apierrors "rivaas.dev/apicompat/errors"
	"rivaas.dev/apicompat/strategy"
	"rivaas.dev/apicompat/version"
)

// ═══════════════════════════════════════════════════════════════════════════════
// Strategy Options
// ═══════════════════════════════════════════════════════════════════════════════

// WithStrategy sets the extraction strategy directly. It takes precedence
// over [WithMethod] and is the only way to use a custom strategy.
//
// Example:
//
//	s, _ := strategy.Custom("subdomain", extract, nil)
//	versioning.WithStrategy(s)
func WithStrategy(s strategy.Strategy) Option {
	return func(cfg *Config) error {
		if s == nil {
			return ErrNilStrategy
		}
		cfg.strategy = s

		return nil
	}
}

// WithMethod selects a built-in strategy by kind. The default is header.
//
// Example:
//
//	versioning.WithMethod(strategy.KindURL)
//	// Matches: /v1/users, /v2.1/users
func WithMethod(kind strategy.Kind) Option {
	return func(cfg *Config) error {
		cfg.kind = kind
		return nil
	}
}

// WithHeaderName sets the request header read by the header, healthcare and
// composite strategies.
//
// Example:
//
//	versioning.WithHeaderName("X-API-Version")
//	// Client sends: X-API-Version: v2
func WithHeaderName(name string) Option {
	return func(cfg *Config) error {
		if name == "" {
			return ErrEmptyHeaderName
		}
		cfg.settings.Header = name

		return nil
	}
}

// WithQueryParam sets the query parameter read by the query and composite
// strategies.
func WithQueryParam(name string) Option {
	return func(cfg *Config) error {
		if name == "" {
			return ErrEmptyQueryParam
		}
		cfg.settings.QueryParam = name

		return nil
	}
}

// WithVendor sets the organization used in vendor media types.
//
// Example:
//
//	versioning.WithVendor("acme")
//	// Client sends: Accept: application/vnd.acme.v2+json
func WithVendor(vendor string) Option {
	return func(cfg *Config) error {
		if vendor == "" {
			return ErrEmptyVendor
		}
		cfg.settings.Vendor = vendor

		return nil
	}
}

// WithPathPrefix sets the path that precedes the /v<N> segment.
//
// Example:
//
//	versioning.WithPathPrefix("/api")
//	// Matches: /api/v1/users
func WithPathPrefix(prefix string) Option {
	return func(cfg *Config) error {
		cfg.settings.PathPrefix = prefix
		return nil
	}
}

// ═══════════════════════════════════════════════════════════════════════════════
// Version Set Options
// ═══════════════════════════════════════════════════════════════════════════════

// WithDefault sets the version used when a request names none.
//
// Example:
//
//	versioning.WithDefault("v2")
func WithDefault(v string) Option {
	return func(cfg *Config) error {
		if v == "" {
			return ErrDefaultRequired
		}
		normalized, err := version.Normalize(v)
		if err != nil {
			return fmt.Errorf("default version: %w", err)
		}
		cfg.defaultVersion = normalized

		return nil
	}
}

// WithSupportedVersions sets the globally supported versions checked in
// strict mode. The default version is added if missing.
//
// Example:
//
//	versioning.WithSupportedVersions("1.0.0", "2.0.0")
func WithSupportedVersions(versions ...string) Option {
	return func(cfg *Config) error {
		cfg.supportedSet = true
		cfg.supported = cfg.supported[:0]
		for i, v := range versions {
			normalized, err := version.Normalize(v)
			if err != nil {
				return fmt.Errorf("supported version at index %d: %w", i, err)
			}
			if !slices.Contains(cfg.supported, normalized) {
				cfg.supported = append(cfg.supported, normalized)
			}
		}

		return nil
	}
}

// ═══════════════════════════════════════════════════════════════════════════════
// Behavior Options
// ═══════════════════════════════════════════════════════════════════════════════

// WithStrict rejects well-formed versions that match no supported version
// exactly or by major.
func WithStrict() Option {
	return func(cfg *Config) error {
		cfg.strict = true
		return nil
	}
}

// WithDocumentation sets the API documentation URL advertised by the
// /versions endpoint.
func WithDocumentation(url string) Option {
	return func(cfg *Config) error {
		cfg.documentation = url
		return nil
	}
}

// WithoutEnvelope disables wrapping JSON responses in
// {version, timestamp, data}.
func WithoutEnvelope() Option {
	return func(cfg *Config) error {
		cfg.envelope = false
		return nil
	}
}

// WithSunsetEnforcement enables 410 Gone responses for deprecated versions
// past their sunset date. Without it sunset dates are advertised only.
func WithSunsetEnforcement() Option {
	return func(cfg *Config) error {
		cfg.enforceSunset = true
		return nil
	}
}

// WithErrorFormatter sets the formatter used for rejected requests.
// The default is RFC 9457 problem details.
func WithErrorFormatter(f apierrors.Formatter) Option {
	return func(cfg *Config) error {
		if f == nil {
			return ErrNilFormatter
		}
		cfg.formatter = f

		return nil
	}
}

// WithSkipPaths bypasses versioning for exact paths such as health checks.
func WithSkipPaths(paths ...string) Option {
	return func(cfg *Config) error {
		for _, p := range paths {
			cfg.skipPaths[p] = struct{}{}
		}
		return nil
	}
}

// ═══════════════════════════════════════════════════════════════════════════════
// Observer Options
// ═══════════════════════════════════════════════════════════════════════════════

// ObserverOption configures the version observer.
type ObserverOption func(*Observer)

// WithObserver configures hooks for version resolution events.
//
// Example:
//
//	versioning.WithObserver(
//	    versioning.OnDetected(func(v, method string) {
//	        logger.Debug("version detected", "version", v, "method", method)
//	    }),
//	    versioning.OnDeprecatedUse(func(v, route string) {
//	        logger.Warn("deprecated API", "version", v, "route", route)
//	    }),
//	)
func WithObserver(opts ...ObserverOption) Option {
	return func(cfg *Config) error {
		obs := &Observer{}
		for _, opt := range opts {
			opt(obs)
		}
		cfg.observer = obs

		return nil
	}
}

// OnDetected sets the callback for a version named by the request.
func OnDetected(fn func(version, method string)) ObserverOption {
	return func(o *Observer) {
		o.OnDetected = fn
	}
}

// OnMissing sets the callback for requests that fall back to the default.
func OnMissing(fn func()) ObserverOption {
	return func(o *Observer) {
		o.OnMissing = fn
	}
}

// OnInvalid sets the callback for rejected versions.
func OnInvalid(fn func(attempted string, err error)) ObserverOption {
	return func(o *Observer) {
		o.OnInvalid = fn
	}
}

// OnDeprecatedUse sets the callback for deprecated version usage.
func OnDeprecatedUse(fn func(version, route string)) ObserverOption {
	return func(o *Observer) {
		o.OnDeprecatedUse = fn
	}
}

// ═══════════════════════════════════════════════════════════════════════════════
// Testing Options
// ═══════════════════════════════════════════════════════════════════════════════

// WithClock sets a custom clock function for testing.
//
// Example:
//
//	versioning.WithClock(func() time.Time {
//	    return time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC)
//	})
func WithClock(nowFn func() time.Time) Option {
	return func(cfg *Config) error {
		if nowFn == nil {
			return ErrNilClock
		}
		cfg.now = nowFn

		return nil
	}
}
