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

package compat

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jellydator/ttlcache/v3"
	"go.opentelemetry.io/otel/attribute"

	apierrors "rivaas.dev/apicompat/errors"
	"rivaas.dev/apicompat/logging"
	"rivaas.dev/apicompat/metrics"
	"rivaas.dev/apicompat/middleware"
	"rivaas.dev/apicompat/telemetry/semconv"
	"rivaas.dev/apicompat/tracing"
	"rivaas.dev/apicompat/transform"
	"rivaas.dev/apicompat/version"
	"rivaas.dev/apicompat/versioning"
)

// Negotiation outcomes reported to metrics and spans.
const (
	OutcomeExact        = "exact"
	OutcomeCompatible   = "compatible"
	OutcomeTransformed  = "transformed"
	OutcomeIncompatible = "incompatible"
)

// Negotiate picks the registered version of the endpoint (method, path) that
// serves requested: an exact match, else the highest version with the same
// major. It fails with [*version.IncompatibleError] listing the endpoint's
// versions when none shares the major.
func (m *Manager) Negotiate(method, path, requested string) (version.Match, error) {
	ep, ok := m.lookup(method, path)
	if !ok {
		return version.Match{}, apierrors.WithStatus(
			fmt.Errorf("%w: %s %s", ErrEndpointNotFound, method, path), http.StatusNotFound)
	}
	v, err := version.Normalize(requested)
	if err != nil {
		return version.Match{}, err
	}
	return m.negotiate(ep, v)
}

func (m *Manager) negotiate(ep *endpoint, requested string) (version.Match, error) {
	key := ep.name() + "|" + requested
	if item := m.cache.Get(key); item != nil {
		return item.Value(), nil
	}

	match, err := version.Negotiate(requested, ep.versions)
	if err != nil {
		var incompatible *version.IncompatibleError
		if errors.As(err, &incompatible) {
			incompatible.Endpoint = ep.name()
		}
		return version.Match{}, err
	}

	m.cache.Set(key, match, ttlcache.DefaultTTL)
	return match, nil
}

// Invoke runs the endpoint matching r and returns the handler's error
// unchanged. Requests that did not pass through the middleware are resolved
// first. Unless w is the middleware's own buffer, the response is buffered
// here and flushed through the response transformer and the envelope, as
// ServeHTTP would. Nothing is written for a returned error.
func (m *Manager) Invoke(w http.ResponseWriter, r *http.Request) error {
	req := r
	state, ok := versioning.FromContext(r.Context())
	if !ok {
		resolved, s, err := m.middleware.Resolve(r)
		if err != nil {
			return err
		}
		req, state = resolved, s
	}

	rctx := chi.NewRouteContext()
	if !m.api.Match(rctx, req.Method, state.Path) {
		return apierrors.WithStatus(
			fmt.Errorf("%w: %s %s", ErrEndpointNotFound, req.Method, state.Path), http.StatusNotFound)
	}
	ep, found := m.lookup(req.Method, rctx.RoutePattern())
	if !found {
		return apierrors.WithStatus(
			fmt.Errorf("%w: %s %s", ErrEndpointNotFound, req.Method, state.Path), http.StatusNotFound)
	}

	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	if buf, buffered := w.(*versioning.ResponseBuffer); ok && buffered {
		return m.invoke(buf, req.WithContext(ctx), ep)
	}

	if ok {
		state = state.Detach()
		ctx = versioning.WithState(ctx, state)
	}
	buf := versioning.NewResponseBuffer(w)
	if err := m.invoke(buf, req.WithContext(ctx), ep); err != nil {
		return err
	}
	return buf.Flush(m.middleware.BodyFuncs(state)...)
}

func (m *Manager) routeHandler(ep *endpoint) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := m.invoke(w, r, ep); err != nil {
			m.writeError(w, r, err)
		}
	}
}

// invoke negotiates the version, applies a transformer when one is
// registered for the exact pair, enforces the route schema and runs the
// handler.
func (m *Manager) invoke(w http.ResponseWriter, r *http.Request, ep *endpoint) (err error) {
	ctx, span := m.tracer.StartRequestSpan(r, ep.path)
	r = r.WithContext(ctx)
	log := logging.NewContextLogger(ctx, m.logger)
	if id := middleware.RequestID(r); id != "" {
		log = log.With(semconv.RequestID, id)
	}

	status := http.StatusOK
	defer func() {
		if err != nil {
			status = apierrors.StatusOf(err)
			tracing.RecordError(ctx, err)
		} else if buf, ok := w.(*versioning.ResponseBuffer); ok && buf.Written() {
			status = buf.Status()
		}
		m.tracer.FinishRequestSpan(span, status)
	}()

	state, _ := versioning.FromContext(ctx)
	requested := m.middleware.Config().DefaultVersion()
	if state != nil {
		requested = state.Version
	}

	match, err := m.negotiate(ep, requested)
	if err != nil {
		m.recorder.RecordNegotiation(ctx, requested, "", OutcomeIncompatible)
		log.Debug("no compatible endpoint version", "endpoint", ep.name(), "requested", requested, "error", err)
		return err
	}

	rt := ep.routes[match.Selected]
	outcome := OutcomeExact
	if !match.Exact {
		outcome = OutcomeCompatible
		if t, ok := m.transformers.Lookup(requested, match.Selected); ok {
			outcome = OutcomeTransformed
			if err := t.ApplyRequest(r); err != nil {
				return err
			}
			if t.Response != nil && state != nil {
				state.AppendBodyFunc(responseTransform(t))
			}
		}
	}
	m.recorder.RecordNegotiation(ctx, requested, match.Selected, outcome)
	tracing.SetAttributes(ctx,
		attribute.String(semconv.APIVersionRequested, requested),
		attribute.String(semconv.APIVersionSelected, match.Selected),
		attribute.String(semconv.APINegotiation, outcome),
	)

	if rt.Deprecated {
		m.deprecateRoute(w, ep, match.Selected, state)
	}

	if rt.schema != nil {
		if err := validateBody(r, rt); err != nil {
			return err
		}
	}

	start := time.Now()
	err = rt.Handler(w, r)
	elapsed := time.Since(start)

	key := metrics.Key{Version: requested, Method: ep.method, Path: ep.path}
	m.table.Record(key, elapsed, err, m.now())
	m.recorder.RecordRequest(ctx, key, outcome, elapsed, err)

	if err != nil {
		log.Error("handler failed", "endpoint", ep.name(), "version", match.Selected, "error", err)
	}
	return err
}

func responseTransform(t transform.Transformer) versioning.BodyFunc {
	return func(contentType string, status int, body []byte) ([]byte, error) {
		if status >= http.StatusBadRequest {
			return body, nil
		}
		return t.ApplyResponse(contentType, body)
	}
}

func (m *Manager) deprecateRoute(w http.ResponseWriter, ep *endpoint, v string, state *versioning.State) {
	msg := fmt.Sprintf("Endpoint %s is deprecated in version %s.", ep.name(), v)
	w.Header().Set(versioning.HeaderDeprecation, "true")
	w.Header().Add(versioning.HeaderWarning, fmt.Sprintf("299 - %q", msg))
	if state != nil {
		state.AddWarning(msg)
	}
	m.logger.Warn("deprecated endpoint version used", "endpoint", ep.name(), "version", v)
}

// validateBody checks a JSON request body against the route schema. Other
// content types are left to the handler.
func validateBody(r *http.Request, rt *route) error {
	if r.Body == nil || r.Body == http.NoBody || !transform.IsJSON(r.Header.Get("Content-Type")) {
		return nil
	}
	raw, err := io.ReadAll(r.Body)
	_ = r.Body.Close()
	if err != nil {
		var typed apierrors.ErrorType
		if errors.As(err, &typed) {
			return err
		}
		return apierrors.WithStatus(err, http.StatusBadRequest)
	}
	r.Body = io.NopCloser(bytes.NewReader(raw))
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	return rt.schema.ValidateJSON(raw)
}
