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

package metrics

import (
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// WithPrometheus selects the Prometheus provider. Mount [Recorder.Handler]
// to serve scrapes.
func WithPrometheus() Option {
	return func(r *Recorder) {
		r.provider = PrometheusProvider
		r.providerSetCount++
	}
}

// WithOTLP selects the OTLP HTTP provider. endpoint may be "host:port" or a
// URL; empty uses the exporter's environment defaults.
func WithOTLP(endpoint string) Option {
	return func(r *Recorder) {
		r.provider = OTLPProvider
		r.otlpEndpoint = endpoint
		r.providerSetCount++
	}
}

// WithStdout selects the stdout provider.
func WithStdout() Option {
	return func(r *Recorder) {
		r.provider = StdoutProvider
		r.providerSetCount++
	}
}

// WithProvider selects a provider by name, as read from configuration.
func WithProvider(p Provider, otlpEndpoint string) Option {
	switch p {
	case OTLPProvider:
		return WithOTLP(otlpEndpoint)
	case StdoutProvider:
		return WithStdout()
	case PrometheusProvider, "":
		return WithPrometheus()
	default:
		return func(r *Recorder) {
			r.provider = p
			r.providerSetCount++
		}
	}
}

// WithMeterProvider uses a caller supplied meter provider. The recorder
// will not shut it down.
func WithMeterProvider(provider metric.MeterProvider) Option {
	return func(r *Recorder) {
		r.meterProvider = provider
		r.customMeterProvider = true
	}
}

// WithGlobalMeterProvider registers the built-in provider globally.
func WithGlobalMeterProvider() Option {
	return func(r *Recorder) { r.registerGlobal = true }
}

// WithServiceName sets the service.name resource attribute.
func WithServiceName(name string) Option {
	return func(r *Recorder) { r.serviceName = name }
}

// WithServiceVersion sets the service.version resource attribute.
func WithServiceVersion(version string) Option {
	return func(r *Recorder) { r.serviceVersion = version }
}

// WithExportInterval sets the push interval of the OTLP and stdout providers.
func WithExportInterval(interval time.Duration) Option {
	return func(r *Recorder) { r.exportInterval = interval }
}

// WithDurationBuckets overrides the duration histogram boundaries (seconds).
func WithDurationBuckets(buckets ...float64) Option {
	return func(r *Recorder) {
		if len(buckets) > 0 {
			r.durationBuckets = buckets
		}
	}
}

// WithEventHandler receives internal operational events.
func WithEventHandler(handler EventHandler) Option {
	return func(r *Recorder) {
		if handler != nil {
			r.eventHandler = handler
		}
	}
}

// WithLogger routes internal events to logger.
func WithLogger(logger *slog.Logger) Option {
	return WithEventHandler(DefaultEventHandler(logger))
}
