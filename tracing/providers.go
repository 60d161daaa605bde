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
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"rivaas.dev/apicompat/telemetry/semconv"
)

func (t *Tracer) initializeProvider(ctx context.Context) error {
	if t.customTracerProvider {
		t.emit(EventDebug, "using custom tracer provider")
		t.tracer = t.tracerProvider.Tracer(tracerName)
		t.register()
		return nil
	}

	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(t.resource()),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(t.sampleRate))),
	}

	switch t.provider {
	case NoopProvider:
	case StdoutProvider:
		exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return fmt.Errorf("failed to create stdout exporter: %w", err)
		}
		opts = append(opts, sdktrace.WithBatcher(exporter))
	case OTLPHTTPProvider:
		var httpOpts []otlptracehttp.Option
		if t.otlpEndpoint != "" {
			httpOpts = append(httpOpts, otlptracehttp.WithEndpoint(t.otlpEndpoint))
		}
		if t.otlpInsecure {
			httpOpts = append(httpOpts, otlptracehttp.WithInsecure())
		}
		exporter, err := otlptracehttp.New(ctx, httpOpts...)
		if err != nil {
			return fmt.Errorf("failed to create OTLP HTTP exporter: %w", err)
		}
		opts = append(opts, sdktrace.WithBatcher(exporter))
	default:
		return fmt.Errorf("unsupported tracing provider: %s", t.provider)
	}

	tp := sdktrace.NewTracerProvider(opts...)
	t.sdkProvider = tp
	t.tracerProvider = tp
	t.tracer = tp.Tracer(tracerName)
	t.register()

	t.emit(EventInfo, "tracing initialized", "provider", t.provider, "service", t.serviceName)
	return nil
}

func (t *Tracer) resource() *resource.Resource {
	attrs := []attribute.KeyValue{attribute.String(semconv.ServiceName, t.serviceName)}
	if t.serviceVersion != "" {
		attrs = append(attrs, attribute.String(semconv.ServiceVersion, t.serviceVersion))
	}
	return resource.NewSchemaless(attrs...)
}
