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
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"rivaas.dev/apicompat/telemetry/semconv"
)

const meterName = "rivaas.dev/apicompat"

// DefaultDurationBuckets are histogram boundaries for handler duration in
// seconds.
var DefaultDurationBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

// Negotiation outcomes recorded by [Recorder.RecordNegotiation].
const (
	OutcomeExact       = "exact"
	OutcomeCompatible  = "compatible"
	OutcomeTransformed = "transformed"
	OutcomeFailed      = "failed"
)

// EventType represents the severity of an internal operational event.
type EventType int

const (
	EventError EventType = iota
	EventWarning
	EventInfo
	EventDebug
)

// Event is an internal operational event, such as an exporter failure.
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

// Provider represents the available metrics exporters.
type Provider string

const (
	// PrometheusProvider exposes a scrape handler (default).
	PrometheusProvider Provider = "prometheus"
	// OTLPProvider pushes to an OTLP HTTP collector.
	OTLPProvider Provider = "otlp"
	// StdoutProvider prints metrics periodically (development).
	StdoutProvider Provider = "stdout"
)

// ErrNoPrometheusHandler is returned by [Recorder.Handler] for non-Prometheus
// providers.
var ErrNoPrometheusHandler = errors.New("prometheus handler is only available with the prometheus provider")

// Recorder exports version usage as OpenTelemetry instruments:
//
//	apicompat.requests             counter    version, method, route, outcome
//	apicompat.errors               counter    version, method, route
//	apicompat.request.duration     histogram  version, method, route (seconds)
//	apicompat.negotiations         counter    requested, selected, outcome
//	apicompat.deprecated.requests  counter    version
//	apicompat.version.rejections   counter    reason
//
// All methods are safe for concurrent use. The global meter provider is only
// replaced when [WithGlobalMeterProvider] is set.
type Recorder struct {
	meter              metric.Meter
	meterProvider      metric.MeterProvider
	prometheusHandler  http.Handler
	prometheusRegistry *promclient.Registry
	eventHandler       EventHandler

	requests     metric.Int64Counter
	errorCount   metric.Int64Counter
	duration     metric.Float64Histogram
	negotiations metric.Int64Counter
	deprecated   metric.Int64Counter
	rejections   metric.Int64Counter

	durationBuckets []float64
	exportInterval  time.Duration

	serviceName    string
	serviceVersion string
	otlpEndpoint   string

	provider            Provider
	providerSetCount    int
	customMeterProvider bool
	registerGlobal      bool
	isShuttingDown      atomic.Bool
}

// Option configures a [Recorder].
type Option func(*Recorder)

// New creates a [Recorder]. Without a provider option the Prometheus provider
// is used.
func New(opts ...Option) (*Recorder, error) {
	r := &Recorder{
		provider:        PrometheusProvider,
		durationBuckets: DefaultDurationBuckets,
		exportInterval:  30 * time.Second,
		serviceName:     "apicompat",
		eventHandler:    func(Event) {},
	}
	for _, opt := range opts {
		opt(r)
	}

	if err := r.validate(); err != nil {
		return nil, err
	}
	if err := r.initializeProvider(); err != nil {
		return nil, err
	}
	return r, nil
}

// MustNew creates a new [Recorder] or panics on error.
func MustNew(opts ...Option) *Recorder {
	r, err := New(opts...)
	if err != nil {
		panic(fmt.Sprintf("failed to create metrics recorder: %v", err))
	}
	return r
}

func (r *Recorder) validate() error {
	if r.providerSetCount > 1 {
		return errors.New("metrics: only one provider option may be set")
	}
	if r.serviceName == "" {
		return errors.New("metrics: service name cannot be empty")
	}
	if r.exportInterval <= 0 {
		return errors.New("metrics: export interval must be positive")
	}
	return nil
}

func (r *Recorder) initializeMetrics() error {
	var err error

	if r.requests, err = r.meter.Int64Counter("apicompat.requests",
		metric.WithDescription("Requests served per API version and endpoint"),
	); err != nil {
		return fmt.Errorf("create requests counter: %w", err)
	}
	if r.errorCount, err = r.meter.Int64Counter("apicompat.errors",
		metric.WithDescription("Handler errors per API version and endpoint"),
	); err != nil {
		return fmt.Errorf("create errors counter: %w", err)
	}
	if r.duration, err = r.meter.Float64Histogram("apicompat.request.duration",
		metric.WithDescription("Handler duration per API version and endpoint"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(r.durationBuckets...),
	); err != nil {
		return fmt.Errorf("create duration histogram: %w", err)
	}
	if r.negotiations, err = r.meter.Int64Counter("apicompat.negotiations",
		metric.WithDescription("Endpoint version negotiations by outcome"),
	); err != nil {
		return fmt.Errorf("create negotiations counter: %w", err)
	}
	if r.deprecated, err = r.meter.Int64Counter("apicompat.deprecated.requests",
		metric.WithDescription("Requests resolved to a deprecated API version"),
	); err != nil {
		return fmt.Errorf("create deprecated counter: %w", err)
	}
	if r.rejections, err = r.meter.Int64Counter("apicompat.version.rejections",
		metric.WithDescription("Requests rejected during version resolution"),
	); err != nil {
		return fmt.Errorf("create rejections counter: %w", err)
	}

	return nil
}

// RecordRequest records one handled request.
func (r *Recorder) RecordRequest(ctx context.Context, k Key, outcome string, elapsed time.Duration, err error) {
	if r == nil || r.isShuttingDown.Load() {
		return
	}

	base := []attribute.KeyValue{
		attribute.String(semconv.APIVersion, k.Version),
		attribute.String(semconv.HTTPRequestMethod, k.Method),
		attribute.String(semconv.HTTPRoute, k.Path),
	}
	attrs := metric.WithAttributes(base...)
	r.requests.Add(ctx, 1, metric.WithAttributes(append(base, attribute.String(semconv.Outcome, outcome))...))
	r.duration.Record(ctx, elapsed.Seconds(), attrs)
	if err != nil {
		r.errorCount.Add(ctx, 1, attrs)
	}
}

// RecordNegotiation records the result of an endpoint negotiation.
func (r *Recorder) RecordNegotiation(ctx context.Context, requested, selected, outcome string) {
	if r == nil || r.isShuttingDown.Load() {
		return
	}
	r.negotiations.Add(ctx, 1, metric.WithAttributes(
		attribute.String(semconv.APIVersionRequested, requested),
		attribute.String(semconv.APIVersionSelected, selected),
		attribute.String(semconv.Outcome, outcome),
	))
}

// RecordDeprecated counts a request resolved to a deprecated version.
func (r *Recorder) RecordDeprecated(ctx context.Context, version string) {
	if r == nil || r.isShuttingDown.Load() {
		return
	}
	r.deprecated.Add(ctx, 1, metric.WithAttributes(attribute.String(semconv.APIVersion, version)))
}

// RecordRejection counts a request rejected before routing, by reason
// (invalid_format, unsupported, sunset).
func (r *Recorder) RecordRejection(ctx context.Context, reason string) {
	if r == nil || r.isShuttingDown.Load() {
		return
	}
	r.rejections.Add(ctx, 1, metric.WithAttributes(attribute.String(semconv.RejectionReason, reason)))
}

// Handler returns the Prometheus scrape handler.
func (r *Recorder) Handler() (http.Handler, error) {
	if r.prometheusHandler == nil {
		return nil, ErrNoPrometheusHandler
	}
	return r.prometheusHandler, nil
}

// Provider returns the configured provider.
func (r *Recorder) Provider() Provider {
	return r.provider
}

// ServiceName returns the service name attached to the meter.
func (r *Recorder) ServiceName() string {
	return r.serviceName
}

// Shutdown flushes and stops the meter provider. Recording after shutdown is
// a no-op.
func (r *Recorder) Shutdown(ctx context.Context) error {
	if !r.isShuttingDown.CompareAndSwap(false, true) {
		return nil
	}
	if r.customMeterProvider {
		return nil
	}
	if mp, ok := r.meterProvider.(*sdkmetric.MeterProvider); ok {
		if err := mp.Shutdown(ctx); err != nil {
			r.emit(EventError, "metrics shutdown failed", "error", err)
			return fmt.Errorf("metrics shutdown: %w", err)
		}
	}
	return nil
}

func (r *Recorder) emit(t EventType, msg string, args ...any) {
	r.eventHandler(Event{Type: t, Message: msg, Args: args})
}
