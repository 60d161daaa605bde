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
	"context"
	"fmt"
	"strings"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"

	"rivaas.dev/apicompat/telemetry/semconv"
)

func (r *Recorder) initializeProvider() error {
	if r.customMeterProvider {
		if r.meterProvider == nil {
			return fmt.Errorf("custom meter provider is nil")
		}
		r.emit(EventDebug, "using custom meter provider")
		return r.useMeterProvider(r.meterProvider)
	}

	var reader sdkmetric.Reader
	switch r.provider {
	case PrometheusProvider:
		r.prometheusRegistry = promclient.NewRegistry()
		exporter, err := prometheus.New(prometheus.WithRegisterer(r.prometheusRegistry))
		if err != nil {
			return fmt.Errorf("failed to create Prometheus exporter: %w", err)
		}
		r.prometheusHandler = promhttp.HandlerFor(r.prometheusRegistry, promhttp.HandlerOpts{})
		reader = exporter

	case OTLPProvider:
		exporter, err := otlpmetrichttp.New(context.Background(), otlpOptions(r.otlpEndpoint)...)
		if err != nil {
			return fmt.Errorf("failed to create OTLP exporter: %w", err)
		}
		reader = sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(r.exportInterval))

	case StdoutProvider:
		exporter, err := stdoutmetric.New()
		if err != nil {
			return fmt.Errorf("failed to create stdout exporter: %w", err)
		}
		reader = sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(r.exportInterval))

	default:
		return fmt.Errorf("unsupported metrics provider: %s", r.provider)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(reader),
		sdkmetric.WithResource(r.resource()),
	)
	if r.registerGlobal {
		r.emit(EventDebug, "setting global OpenTelemetry meter provider", "provider", r.provider)
		otel.SetMeterProvider(mp)
	}
	return r.useMeterProvider(mp)
}

func (r *Recorder) useMeterProvider(mp metric.MeterProvider) error {
	r.meterProvider = mp
	r.meter = mp.Meter(meterName)
	return r.initializeMetrics()
}

func (r *Recorder) resource() *resource.Resource {
	attrs := []attribute.KeyValue{attribute.String(semconv.ServiceName, r.serviceName)}
	if r.serviceVersion != "" {
		attrs = append(attrs, attribute.String(semconv.ServiceVersion, r.serviceVersion))
	}
	return resource.NewSchemaless(attrs...)
}

// otlpOptions accepts "host:port" or a URL; an http:// scheme disables TLS.
func otlpOptions(endpoint string) []otlpmetrichttp.Option {
	if endpoint == "" {
		return nil
	}

	insecure := strings.HasPrefix(endpoint, "http://")
	endpoint = strings.TrimPrefix(strings.TrimPrefix(endpoint, "http://"), "https://")
	if idx := strings.Index(endpoint, "/"); idx != -1 {
		endpoint = endpoint[:idx]
	}

	opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(endpoint)}
	if insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}
	return opts
}
