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

// Package recovery turns panics in request handlers into 500 error responses
// instead of crashing the server.
package recovery

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apierrors "rivaas.dev/apicompat/errors"
	"rivaas.dev/apicompat/logging"
	"rivaas.dev/apicompat/middleware"
	"rivaas.dev/apicompat/telemetry/semconv"
)

// PanicError is rendered to the client when a handler panics. The panic
// value is logged but never exposed in the response.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string { return "internal server error" }

// HTTPStatus implements errors.ErrorType.
func (e *PanicError) HTTPStatus() int { return http.StatusInternalServerError }

// Code implements errors.ErrorCode.
func (e *PanicError) Code() string { return "INTERNAL_ERROR" }

// Option defines functional options for the recovery middleware.
type Option func(*config)

type config struct {
	stackTrace bool
	stackSize  int
	logger     *logging.Logger
	formatter  apierrors.Formatter
	handler    func(w http.ResponseWriter, r *http.Request, recovered any)
}

func defaultConfig() *config {
	return &config{
		stackTrace: true,
		stackSize:  4 << 10, // 4KB
	}
}

// WithStackTrace enables or disables stack capture in the panic log.
// Default: true
func WithStackTrace(enabled bool) Option {
	return func(cfg *config) {
		cfg.stackTrace = enabled
	}
}

// WithStackSize sets the maximum logged stack size in bytes.
// Default: 4KB
func WithStackSize(size int) Option {
	return func(cfg *config) {
		if size > 0 {
			cfg.stackSize = size
		}
	}
}

// WithLogger sets the logger for recovered panics. Without one, panics are
// recovered silently.
func WithLogger(l *logging.Logger) Option {
	return func(cfg *config) {
		cfg.logger = l
	}
}

// WithFormatter sets the error formatter for the 500 response.
// Default: RFC 9457 problem details.
func WithFormatter(f apierrors.Formatter) Option {
	return func(cfg *config) {
		cfg.formatter = f
	}
}

// WithHandler replaces the response written after a panic.
//
// Example:
//
//	recovery.New(recovery.WithHandler(func(w http.ResponseWriter, r *http.Request, _ any) {
//	    http.Error(w, "oops", http.StatusInternalServerError)
//	}))
func WithHandler(h func(w http.ResponseWriter, r *http.Request, recovered any)) Option {
	return func(cfg *config) {
		cfg.handler = h
	}
}

// New returns a middleware that recovers from panics in downstream handlers.
// It should be registered early in the chain, after requestid so the log
// entry carries the request ID.
//
//	h := middleware.Chain(manager,
//	    requestid.New(),
//	    recovery.New(recovery.WithLogger(logger), recovery.WithFormatter(formatter)),
//	)
func New(opts ...Option) middleware.Middleware {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tw := &trackingWriter{ResponseWriter: w}
			defer func() {
				recovered := recover()
				if recovered == nil {
					return
				}
				// Re-panic so net/http aborts the response as it intends.
				if recovered == http.ErrAbortHandler {
					panic(recovered)
				}
				cfg.recovered(tw, r, recovered)
			}()

			next.ServeHTTP(tw, r)
		})
	}
}

func (cfg *config) recovered(w *trackingWriter, r *http.Request, recovered any) {
	if span := trace.SpanFromContext(r.Context()); span.SpanContext().IsValid() {
		span.SetStatus(codes.Error, "panic recovered")
		span.SetAttributes(
			attribute.Bool(semconv.ExceptionEscaped, true),
			attribute.String(semconv.ExceptionType, fmt.Sprintf("%T", recovered)),
			attribute.String(semconv.ExceptionMessage, fmt.Sprint(recovered)),
		)
		if err, ok := recovered.(error); ok {
			span.RecordError(err)
		}
	}

	if cfg.logger != nil {
		args := []any{
			"panic", fmt.Sprint(recovered),
			"method", r.Method,
			"path", r.URL.Path,
		}
		if id := middleware.RequestID(r); id != "" {
			args = append(args, semconv.RequestID, id)
		}
		if cfg.stackTrace {
			stack := debug.Stack()
			if len(stack) > cfg.stackSize {
				stack = stack[:cfg.stackSize]
			}
			args = append(args, "stack", string(stack))
		}
		cfg.logger.Error("panic recovered", args...)
	}

	// Headers are already on the wire; the client sees a truncated response.
	if w.wroteHeader {
		return
	}
	if cfg.handler != nil {
		cfg.handler(w, r, recovered)
		return
	}
	if err := apierrors.Write(w, r, cfg.formatter, &PanicError{Value: recovered}); err != nil && cfg.logger != nil {
		cfg.logger.LogError(err, "failed to write panic response")
	}
}

// trackingWriter records whether the response has been committed.
type trackingWriter struct {
	http.ResponseWriter
	wroteHeader bool
}

func (w *trackingWriter) WriteHeader(code int) {
	w.wroteHeader = true
	w.ResponseWriter.WriteHeader(code)
}

func (w *trackingWriter) Write(b []byte) (int, error) {
	w.wroteHeader = true
	return w.ResponseWriter.Write(b)
}

// Unwrap exposes the underlying writer to http.ResponseController.
func (w *trackingWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
