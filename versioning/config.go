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

// Config holds the middleware configuration.
// It is built from functional options passed to [New].
type Config struct {
	// Strategy, either supplied directly or built from kind and settings
	strategy strategy.Strategy
	kind     strategy.Kind
	settings strategy.Settings

	defaultVersion string
	supported      []string
	supportedSet   bool

	strict        bool
	envelope      bool
	enforceSunset bool
	documentation string

	formatter apierrors.Formatter
	observer  *Observer
	skipPaths map[string]struct{}

	// Clock function for testing
	now func() time.Time
}

// Observer holds callbacks for version resolution events.
type Observer struct {
	// OnDetected is called when a request names a version.
	OnDetected func(version, method string)

	// OnMissing is called when no version is found and the default is used.
	OnMissing func()

	// OnInvalid is called when a token is malformed, unsupported in strict
	// mode, or past its enforced sunset.
	OnInvalid func(attempted string, err error)

	// OnDeprecatedUse is called when a deprecated version is served.
	OnDeprecatedUse func(version, route string)
}

// Option configures the middleware.
type Option func(*Config) error

// NewConfig creates a Config with the given options.
func NewConfig(opts ...Option) (*Config, error) {
	cfg := &Config{
		kind:      strategy.KindHeader,
		envelope:  true,
		formatter: apierrors.NewRFC9457(""),
		skipPaths: make(map[string]struct{}),
		now:       time.Now,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.defaultVersion == "" {
		return fmt.Errorf("%w: use versioning.WithDefault(\"1.0.0\")", ErrDefaultRequired)
	}
	if c.supportedSet && len(c.supported) == 0 {
		return ErrNoSupportedVersions
	}

	if !slices.Contains(c.supported, c.defaultVersion) {
		c.supported = append(c.supported, c.defaultVersion)
	}
	version.Sort(c.supported)

	if c.strategy == nil {
		c.settings.Default = c.defaultVersion
		s, err := strategy.FromKind(c.kind, c.settings)
		if err != nil {
			return err
		}
		c.strategy = s
	}

	return nil
}

// Strategy returns the strategy used to extract versions.
func (c *Config) Strategy() strategy.Strategy {
	return c.strategy
}

// DefaultVersion returns the normalized default version.
func (c *Config) DefaultVersion() string {
	return c.defaultVersion
}

// SupportedVersions returns the supported versions ascending. The default
// version is always included.
func (c *Config) SupportedVersions() []string {
	return slices.Clone(c.supported)
}

// Strict reports whether unsupported versions are rejected.
func (c *Config) Strict() bool {
	return c.strict
}

// Documentation returns the documentation URL.
func (c *Config) Documentation() string {
	return c.documentation
}

// Envelope reports whether JSON responses are wrapped.
func (c *Config) Envelope() bool {
	return c.envelope
}

// EnforceSunset reports whether versions past their sunset date get 410 Gone.
func (c *Config) EnforceSunset() bool {
	return c.enforceSunset
}

// Formatter returns the error formatter.
func (c *Config) Formatter() apierrors.Formatter {
	return c.formatter
}

// Now returns the current time (injectable for testing).
func (c *Config) Now() time.Time {
	return c.now()
}
