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


package main

import (
	"fmt"
	"io"
	"time"

	"rivaas.dev/apicompat/compat"
	"rivaas.dev/apicompat/config"
	apierrors "rivaas.dev/apicompat/errors"
	"rivaas.dev/apicompat/logging"
	"rivaas.dev/apicompat/metrics"
	"rivaas.dev/apicompat/middleware"
	"rivaas.dev/apicompat/middleware/accesslog"
	"rivaas.dev/apicompat/middleware/bodylimit"
	"rivaas.dev/apicompat/tracing"
	"rivaas.dev/apicompat/versioning"
)

func newLogger(s *config.Settings, out io.Writer) (*logging.Logger, error) {
	opts, err := logging.FromSettings(s.Logging.Level, s.Logging.Format)
	if err != nil {
		return nil, err
	}
	opts = append(opts,
		logging.WithOutput(out),
		logging.WithServiceName(s.Telemetry.ServiceName),
	)
	if s.Telemetry.ServiceVersion != "" {
		opts = append(opts, logging.WithServiceVersion(s.Telemetry.ServiceVersion))
	}
	return logging.New(opts...)
}

func newRecorder(s *config.Settings, logger *logging.Logger) (*metrics.Recorder, error) {
	m := s.Telemetry.Metrics
	opts := []metrics.Option{
		metrics.WithProvider(metrics.Provider(m.Provider), m.Endpoint),
		metrics.WithServiceName(s.Telemetry.ServiceName),
		metrics.WithLogger(logger.Logger()),
	}
	if s.Telemetry.ServiceVersion != "" {
		opts = append(opts, metrics.WithServiceVersion(s.Telemetry.ServiceVersion))
	}
	return metrics.New(opts...)
}

func newTracer(s *config.Settings, logger *logging.Logger) (*tracing.Tracer, error) {
	t := s.Telemetry.Tracing
	opts := []tracing.Option{
		tracing.WithServiceName(s.Telemetry.ServiceName),
		tracing.WithSampleRate(t.SampleRate),
		tracing.WithLogger(logger.Logger()),
	}
	if t.Provider == string(tracing.OTLPHTTPProvider) {
		opts = append(opts, tracing.WithOTLPHTTP(t.Endpoint))
	} else {
		opts = append(opts, tracing.WithProvider(tracing.Provider(t.Provider)))
	}
	if s.Telemetry.ServiceVersion != "" {
		opts = append(opts, tracing.WithServiceVersion(s.Telemetry.ServiceVersion))
	}
	return tracing.New(opts...)
}

func errorFormatter(s *config.Settings) apierrors.Formatter {
	if s.Versioning.ErrorFormat == "simple" {
		return apierrors.NewSimple()
	}
	return apierrors.NewRFC9457(s.Versioning.ProblemBaseURL)
}

func versioningOptions(s *config.Settings) ([]versioning.Option, error) {
	st, err := s.Strategy()
	if err != nil {
		return nil, err
	}

	v := s.Versioning
	opts := []versioning.Option{
		versioning.WithStrategy(st),
		versioning.WithDefault(v.DefaultVersion),
	}
	if supported := s.SupportedVersions(); len(supported) > 0 {
		opts = append(opts, versioning.WithSupportedVersions(supported...))
	}
	if v.Strict {
		opts = append(opts, versioning.WithStrict())
	}
	if v.Documentation != "" {
		opts = append(opts, versioning.WithDocumentation(v.Documentation))
	}
	if v.SunsetEnforcement {
		opts = append(opts, versioning.WithSunsetEnforcement())
	}
	if v.DisableEnvelope {
		opts = append(opts, versioning.WithoutEnvelope())
	}
	return opts, nil
}

// newManager builds a Manager from s and registers every configured
// version. extra options are applied last.
func newManager(s *config.Settings, logger *logging.Logger, extra ...compat.Option) (*compat.Manager, error) {
	vopts, err := versioningOptions(s)
	if err != nil {
		return nil, err
	}

	formatter := errorFormatter(s)
	opts := []compat.Option{
		compat.WithVersioning(vopts...),
		compat.WithLogger(logger),
		compat.WithErrorFormatter(formatter),
		compat.WithMetaPrefix(s.Server.MetaPrefix),
		compat.WithMiddleware(serverMiddlewares(s, logger, formatter)...),
	}
	if s.Server.MetricsToken != "" {
		opts = append(opts, compat.WithAuthenticator(compat.BearerToken(s.Server.MetricsToken)))
	}

	m, err := compat.New(append(opts, extra...)...)
	if err != nil {
		return nil, err
	}
	for _, spec := range s.Versions {
		if _, err := m.AddVersion(spec); err != nil {
			return nil, fmt.Errorf("registering version: %w", err)
		}
	}
	return m, nil
}

// serverMiddlewares returns the access log (when enabled) and the request
// body limit, outermost first, so rejected bodies are logged too.
func serverMiddlewares(s *config.Settings, logger *logging.Logger, f apierrors.Formatter) []middleware.Middleware {
	var mws []middleware.Middleware
	if s.Logging.AccessLog {
		mws = append(mws, accesslog.New(
			accesslog.WithLogger(logger.Logger()),
			accesslog.WithSlowThreshold(time.Second),
		))
	}
	if s.Server.MaxBodyBytes > 0 {
		mws = append(mws, bodylimit.New(
			bodylimit.WithLimit(s.Server.MaxBodyBytes),
			bodylimit.WithFormatter(f),
		))
	}
	return mws
}
