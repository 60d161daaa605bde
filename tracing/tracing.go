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
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"rivaas.dev/apicompat/telemetry/semconv"
)

const tracerName = "rivaas.dev/apicompat"

// Provider represents the available span exporters.
type Provider string

const (
	// NoopProvider records spans in-process without exporting (default).
	NoopProvider Provider = "noop"
	// StdoutProvider pretty prints spans (development).
	StdoutProvider Provider = "stdout"
	// OTLPHTTPProvider exports to an OTLP HTTP collector.
	OTLPHTTPProvider Provider = "otlp-http"
)

// EventType represents the severity of an internal operational event.
type EventType int

const (
	EventError EventType = iota
	EventWarning
	EventInfo
	EventDebug
)

// Event is an internal operational event.
type Event struct {
	Type    EventType
	Message string
	Args    []any
}

// EventHandler processes internal operational events.
type EventHandler func(Event)

// DefaultEventHandler logs events to logger. A nil logger discards them.
func DefaultEventHandler(logger *slog.Logger) EventHandler {
	if logger == nil {
		return func(Event) {}
	}
	return func(e Event) {
		switch e.Type {
		case EventError:
			logger.Error(e.Message, e.Args...)
		case EventWarning:
			logger.Warn(e.Message, e.Args...)
		case EventInfo:
			logger.Info(e.Message, e.Args...)
		case EventDebug:
			logger.Debug(e.Message, e.Args...)
		}
	}
}

// Tracer creates spans for version resolution, negotiation and handler
// invocation. It is safe for concurrent use.
//
// The global tracer provider is only replaced when [WithGlobalTracerProvider]
// is set.
type Tracer struct {
	tracer         trace.Tracer
	tracerProvider trace.TracerProvider
	sdkProvider    *sdktrace.TracerProvider
	propagator     propagation.TextMapPropagator
	eventHandler   EventHandler

	serviceName    string
	serviceVersion string
	sampleRate     float64
	otlpEndpoint   string
	otlpInsecure   bool

	provider             Provider
	customTracerProvider bool
	registerGlobal       bool
}

// Option configures a [Tracer].
type Option func(*Tracer)

// New creates a [Tracer]. Without options spans are recorded by a noop
// provider and never exported.
func New(opts ...Option) (*Tracer, error) {
	t := &Tracer{
		provider:     NoopProvider,
		serviceName:  "apicompat",
		sampleRate:   1.0,
		eventHandler: func(Event) {},
		propagator: propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		),
	}
	for _, opt := range opts {
		opt(t)
	}

	if err := t.validate(); err != nil {
		return nil, err
	}
	if err := t.initializeProvider(context.Background()); err != nil {
		return nil, err
	}
	return t, nil
}

// MustNew creates a new [Tracer] or panics on error.
func MustNew(opts ...Option) *Tracer {
	t, err := New(opts...)
	if err != nil {
		panic(fmt.Sprintf("failed to create tracer: %v", err))
	}
	return t
}

func (t *Tracer) validate() error {
	if t.serviceName == "" {
		return errors.New("tracing: service name cannot be empty")
	}
	if t.sampleRate < 0 || t.sampleRate > 1 {
		return fmt.Errorf("tracing: sample rate must be between 0.0 and 1.0, got %f", t.sampleRate)
	}
	if t.customTracerProvider && t.tracerProvider == nil {
		return errors.New("tracing: custom tracer provider is nil")
	}
	return nil
}

// ServiceName returns the service.name resource attribute.
func (t *Tracer) ServiceName() string {
	return t.serviceName
}

// Provider returns the configured provider.
func (t *Tracer) Provider() Provider {
	return t.provider
}

// StartSpan starts an internal span.
func (t *Tracer) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// StartRequestSpan extracts the remote trace context from the request
// headers and starts a server span named "METHOD route".
func (t *Tracer) StartRequestSpan(req *http.Request, route string) (context.Context, trace.Span) {
	ctx := t.propagator.Extract(req.Context(), propagation.HeaderCarrier(req.Header))
	return t.tracer.Start(ctx, req.Method+" "+route,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String(semconv.HTTPRequestMethod, req.Method),
			attribute.String(semconv.HTTPRoute, route),
			attribute.String(semconv.URLPath, req.URL.Path),
			attribute.String(semconv.UserAgentOriginal, req.UserAgent()),
		),
	)
}

// FinishRequestSpan sets the status code and ends the span. Statuses of 500
// and above mark the span as failed.
func (t *Tracer) FinishRequestSpan(span trace.Span, statusCode int) {
	if span == nil {
		return
	}
	span.SetAttributes(attribute.Int(semconv.HTTPResponseStatusCode, statusCode))
	if statusCode >= http.StatusInternalServerError {
		span.SetStatus(codes.Error, http.StatusText(statusCode))
	}
	span.End()
}

// RecordError records err on the span in ctx and marks it failed.
func RecordError(ctx context.Context, err error) {
	if err == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// SetAttributes adds attributes to the span in ctx, if any.
func SetAttributes(ctx context.Context, attrs ...attribute.KeyValue) {
	trace.SpanFromContext(ctx).SetAttributes(attrs...)
}

// InjectTraceContext writes the trace context of ctx into headers.
func (t *Tracer) InjectTraceContext(ctx context.Context, headers http.Header) {
	t.propagator.Inject(ctx, propagation.HeaderCarrier(headers))
}

// TraceID returns the trace ID of the span in ctx, or "".
func TraceID(ctx context.Context) string {
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		return sc.TraceID().String()
	}
	return ""
}

// Shutdown flushes and stops the built-in provider.
func (t *Tracer) Shutdown(ctx context.Context) error {
	if t.sdkProvider == nil || t.customTracerProvider {
		return nil
	}
	if err := t.sdkProvider.Shutdown(ctx); err != nil {
		t.emit(EventError, "tracer shutdown failed", "error", err)
		return fmt.Errorf("tracer shutdown: %w", err)
	}
	return nil
}

func (t *Tracer) emit(typ EventType, msg string, args ...any) {
	t.eventHandler(Event{Type: typ, Message: msg, Args: args})
}

func (t *Tracer) register() {
	if t.registerGlobal {
		t.emit(EventDebug, "setting global OpenTelemetry tracer provider", "provider", t.provider)
		otel.SetTracerProvider(t.tracerProvider)
		otel.SetTextMapPropagator(t.propagator)
	}
}
