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

package tracing

import (
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// WithProvider selects the span exporter.
func WithProvider(p Provider) Option {
	return func(t *Tracer) { t.provider = p }
}

// WithNoop records spans without exporting them.
func WithNoop() Option {
	return WithProvider(NoopProvider)
}

// WithStdout pretty prints spans to stdout.
func WithStdout() Option {
	return WithProvider(StdoutProvider)
}

// WithOTLPHTTP exports to an OTLP HTTP collector. An http:// endpoint
// disables TLS.
func WithOTLPHTTP(endpoint string) Option {
	return func(t *Tracer) {
		t.provider = OTLPHTTPProvider
		if strings.HasPrefix(endpoint, "http://") {
			t.otlpInsecure = true
		}
		endpoint = strings.TrimPrefix(strings.TrimPrefix(endpoint, "http://"), "https://")
		t.otlpEndpoint, _, _ = strings.Cut(endpoint, "/")
	}
}

// WithTracerProvider uses a caller supplied provider, e.g. one with a span
// recorder in tests. The tracer will not shut it down.
func WithTracerProvider(provider trace.TracerProvider) Option {
	return func(t *Tracer) {
		t.tracerProvider = provider
		t.customTracerProvider = true
	}
}

// WithGlobalTracerProvider registers the provider and propagator globally.
func WithGlobalTracerProvider() Option {
	return func(t *Tracer) { t.registerGlobal = true }
}

// WithServiceName sets the service.name resource attribute.
func WithServiceName(name string) Option {
	return func(t *Tracer) { t.serviceName = name }
}

// WithServiceVersion sets the service.version resource attribute.
func WithServiceVersion(version string) Option {
	return func(t *Tracer) { t.serviceVersion = version }
}

// WithSampleRate sets the ratio of new traces to sample, 0.0 to 1.0.
// Remote parent decisions are honored.
func WithSampleRate(rate float64) Option {
	return func(t *Tracer) { t.sampleRate = rate }
}

// WithPropagator replaces the W3C trace context and baggage propagator.
func WithPropagator(p propagation.TextMapPropagator) Option {
	return func(t *Tracer) {
		if p != nil {
			t.propagator = p
		}
	}
}

// WithEventHandler receives internal operational events.
func WithEventHandler(handler EventHandler) Option {
	return func(t *Tracer) {
		if handler != nil {
			t.eventHandler = handler
		}
	}
}

// WithLogger routes internal events to logger.
func WithLogger(logger *slog.Logger) Option {
	return WithEventHandler(DefaultEventHandler(logger))
}
