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

package config

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/samber/lo"

	"rivaas.dev/apicompat/strategy"
	"rivaas.dev/apicompat/version"
)

//go:embed settings.schema.json
var settingsSchema []byte

// Settings is the file form of an apicompat deployment.
//
//	server:
//	  addr: ":8080"
//	versioning:
//	  method: header
//	  defaultVersion: "1.0.0"
//	  strict: true
//	versions:
//	  - version: "1.0.0"
//	    releaseDate: 2024-01-01
//	    deprecated: true
//	    sunsetDate: 2025-01-01
//	  - version: "2.0.0"
//	    releaseDate: 2024-06-01
type Settings struct {
	Server     ServerSettings     `config:"server"`
	Versioning VersioningSettings `config:"versioning"`
	Versions   []version.Spec     `config:"versions"`
	Logging    LoggingSettings    `config:"logging"`
	Telemetry  TelemetrySettings  `config:"telemetry"`
}

// ServerSettings configures the HTTP listener and the meta endpoints.
type ServerSettings struct {
	Addr            string        `config:"addr" default:":8080"`
	MetaPrefix      string        `config:"metaPrefix"`
	ShutdownTimeout time.Duration `config:"shutdownTimeout" default:"10s"`
	MaxBodyBytes    int64         `config:"maxBodyBytes" default:"2097152"`
	// MetricsToken enables GET /metrics for bearer tokens equal to it.
	MetricsToken string `config:"metricsToken"`
}

// VersioningSettings configures version extraction and validation.
type VersioningSettings struct {
	Method            string   `config:"method" default:"header"`
	DefaultVersion    string   `config:"defaultVersion"`
	SupportedVersions []string `config:"supportedVersions"`
	Header            string   `config:"header"`
	QueryParam        string   `config:"queryParam"`
	Vendor            string   `config:"vendor"`
	PathPrefix        string   `config:"pathPrefix"`
	Strict            bool     `config:"strict"`
	Documentation     string   `config:"documentation"`
	SunsetEnforcement bool     `config:"sunsetEnforcement"`
	DisableEnvelope   bool     `config:"disableEnvelope"`
	ErrorFormat       string   `config:"errorFormat" default:"rfc9457"`
	ProblemBaseURL    string   `config:"problemBaseURL"`
}

// LoggingSettings selects the log level and handler.
type LoggingSettings struct {
	Level  string `config:"level" default:"info"`
	Format string `config:"format" default:"json"`
	// AccessLog writes one entry per request.
	AccessLog bool `config:"accessLog"`
}

// TelemetrySettings configures metrics and tracing exporters.
type TelemetrySettings struct {
	ServiceName    string          `config:"serviceName" default:"apicompat"`
	ServiceVersion string          `config:"serviceVersion"`
	Metrics        MetricsSettings `config:"metrics"`
	Tracing        TracingSettings `config:"tracing"`
}

// MetricsSettings selects the metrics provider.
type MetricsSettings struct {
	Provider string `config:"provider" default:"prometheus"`
	Endpoint string `config:"endpoint"`
}

// TracingSettings selects the span exporter.
type TracingSettings struct {
	Provider   string  `config:"provider" default:"noop"`
	Endpoint   string  `config:"endpoint"`
	SampleRate float64 `config:"sampleRate" default:"1"`
}

var (
	// ErrInvalidSettings wraps every Settings.Validate failure.
	ErrInvalidSettings = errors.New("invalid settings")

	errorFormats     = []string{"rfc9457", "simple"}
	logFormats       = []string{"json", "text", "console"}
	metricsProviders = []string{"prometheus", "otlp", "stdout"}
	tracingProviders = []string{"noop", "stdout", "otlp-http"}
)

// Validate checks cross-field rules the schema cannot express.
func (s *Settings) Validate() error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidSettings}, args...)...))
	}

	if s.Server.MaxBodyBytes <= 0 {
		fail("server.maxBodyBytes must be positive")
	}

	v := s.Versioning
	switch strategy.Kind(v.Method) {
	case strategy.KindHeader, strategy.KindURL, strategy.KindQuery, strategy.KindAccept,
		strategy.KindComposite, strategy.KindHealthcare:
	default:
		fail("versioning.method %q is not a built-in strategy", v.Method)
	}

	if v.DefaultVersion == "" {
		fail("versioning.defaultVersion is required")
	} else if !version.Valid(v.DefaultVersion) {
		fail("versioning.defaultVersion %q is malformed", v.DefaultVersion)
	}
	for _, sv := range v.SupportedVersions {
		if !version.Valid(sv) {
			fail("versioning.supportedVersions entry %q is malformed", sv)
		}
	}
	if !lo.Contains(errorFormats, v.ErrorFormat) {
		fail("versioning.errorFormat must be one of %v", errorFormats)
	}

	seen := map[string]bool{}
	for i, spec := range s.Versions {
		n, err := version.Normalize(spec.Version)
		if err != nil {
			fail("versions[%d]: %v", i, err)
			continue
		}
		if seen[n] {
			fail("versions[%d]: duplicate version %s", i, n)
		}
		seen[n] = true
	}

	if !lo.Contains(logFormats, s.Logging.Format) {
		fail("logging.format must be one of %v", logFormats)
	}
	if !lo.Contains(metricsProviders, s.Telemetry.Metrics.Provider) {
		fail("telemetry.metrics.provider must be one of %v", metricsProviders)
	}
	if !lo.Contains(tracingProviders, s.Telemetry.Tracing.Provider) {
		fail("telemetry.tracing.provider must be one of %v", tracingProviders)
	}

	return errors.Join(errs...)
}

// SupportedVersions returns the configured supported set, or every
// registered version when none is configured.
func (s *Settings) SupportedVersions() []string {
	if len(s.Versioning.SupportedVersions) > 0 {
		return s.Versioning.SupportedVersions
	}
	return lo.Map(s.Versions, func(spec version.Spec, _ int) string { return spec.Version })
}

// Strategy builds the configured version strategy.
func (s *Settings) Strategy() (strategy.Strategy, error) {
	v := s.Versioning
	return strategy.FromKind(strategy.Kind(v.Method), strategy.Settings{
		Header:     v.Header,
		QueryParam: v.QueryParam,
		Vendor:     v.Vendor,
		PathPrefix: v.PathPrefix,
		Default:    v.DefaultVersion,
	})
}

// LoadSettings builds a Config from opts, validates it against the settings
// schema and binds it into a new Settings.
//
// Example:
//
//	s, err := config.LoadSettings(ctx,
//	    config.WithFile("apicompat.yaml"),
//	    config.WithEnv("APICOMPAT_"),
//	)
func LoadSettings(ctx context.Context, opts ...Option) (*Settings, error) {
	var s Settings
	opts = append(opts, WithJSONSchema(settingsSchema), WithBinding(&s))

	cfg, err := New(opts...)
	if err != nil {
		return nil, err
	}
	if err = cfg.Load(ctx); err != nil {
		return nil, err
	}
	return &s, nil
}
