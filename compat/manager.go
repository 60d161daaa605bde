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
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jellydator/ttlcache/v3"
	"github.com/samber/lo"

	apierrors "rivaas.dev/apicompat/errors"
	"rivaas.dev/apicompat/logging"
	"rivaas.dev/apicompat/metrics"
	"rivaas.dev/apicompat/middleware"
	"rivaas.dev/apicompat/middleware/recovery"
	"rivaas.dev/apicompat/middleware/requestid"
	"rivaas.dev/apicompat/tracing"
	"rivaas.dev/apicompat/transform"
	"rivaas.dev/apicompat/validation"
	"rivaas.dev/apicompat/version"
	"rivaas.dev/apicompat/versioning"
)

const (
	defaultCacheTTL      = 10 * time.Minute
	defaultCacheCapacity = 4096
)

type endpointKey struct {
	method string
	path   string
}

// Manager owns the versioned endpoints of an API: it negotiates which
// registered version serves each request, applies transformers, records
// metrics and serves the meta endpoints.
//
// Thread-safety: endpoints and transformers are registered at setup time,
// before the manager serves traffic. Versions may be added or deprecated at
// any time. Endpoints are immutable once registered.
type Manager struct {
	registry     *version.Registry
	middleware   *versioning.Middleware
	transformers *transform.Registry
	table        *metrics.Table

	recorder      *metrics.Recorder
	tracer        *tracing.Tracer
	logger        *logging.Logger
	validator     *validation.Validator
	formatter     apierrors.Formatter
	authenticator Authenticator
	metaPrefix    string
	now           func() time.Time

	cache         *ttlcache.Cache[string, version.Match]
	cacheTTL      time.Duration
	cacheCapacity uint64

	mu        sync.RWMutex
	endpoints map[endpointKey]*endpoint

	api         *chi.Mux
	meta        *chi.Mux
	versioned   http.Handler
	handler     http.Handler
	middlewares []middleware.Middleware

	versioningOpts []versioning.Option
}

// New creates a Manager.
//
// Example:
//
//	m, err := compat.New(
//	    compat.WithVersioning(
//	        versioning.WithDefault("2.0.0"),
//	        versioning.WithSupportedVersions("1.0.0", "2.0.0"),
//	    ),
//	    compat.WithLogger(logger),
//	)
func New(opts ...Option) (*Manager, error) {
	m := &Manager{
		transformers:  transform.NewRegistry(),
		table:         metrics.NewTable(),
		cacheTTL:      defaultCacheTTL,
		cacheCapacity: defaultCacheCapacity,
		endpoints:     make(map[endpointKey]*endpoint),
	}
	for _, opt := range opts {
		opt(m)
	}

	if err := m.init(); err != nil {
		return nil, err
	}
	return m, nil
}

// MustNew is like [New] but panics on error.
func MustNew(opts ...Option) *Manager {
	m, err := New(opts...)
	if err != nil {
		panic(fmt.Sprintf("failed to create compat manager: %v", err))
	}
	return m
}

func (m *Manager) init() error {
	if m.metaPrefix != "" && !strings.HasPrefix(m.metaPrefix, "/") {
		return fmt.Errorf("%w: %q", ErrInvalidMetaPrefix, m.metaPrefix)
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.formatter == nil {
		m.formatter = apierrors.NewRFC9457("")
	}
	if m.registry == nil {
		m.registry = version.NewRegistry(version.WithRegistryClock(m.now))
	}
	if m.validator == nil {
		m.validator = validation.MustNew()
	}
	if m.logger == nil {
		l, err := logging.New(logging.WithOutput(io.Discard))
		if err != nil {
			return err
		}
		m.logger = l
	}
	if m.tracer == nil {
		t, err := tracing.New(tracing.WithNoop())
		if err != nil {
			return err
		}
		m.tracer = t
	}

	cacheOpts := []ttlcache.Option[string, version.Match]{
		ttlcache.WithTTL[string, version.Match](m.cacheTTL),
		ttlcache.WithDisableTouchOnHit[string, version.Match](),
	}
	if m.cacheCapacity > 0 {
		cacheOpts = append(cacheOpts, ttlcache.WithCapacity[string, version.Match](m.cacheCapacity))
	}
	m.cache = ttlcache.New(cacheOpts...)

	vopts := slices.Clone(m.versioningOpts)
	vopts = append(vopts,
		versioning.WithErrorFormatter(m.formatter),
		versioning.WithClock(m.now),
		m.observer(),
	)
	mw, err := versioning.New(m.registry, vopts...)
	if err != nil {
		return err
	}
	m.middleware = mw

	m.api = chi.NewRouter()
	m.api.NotFound(func(w http.ResponseWriter, r *http.Request) {
		m.writeError(w, r, apierrors.WithStatus(
			fmt.Errorf("%w: %s %s", ErrEndpointNotFound, r.Method, r.URL.Path), http.StatusNotFound))
	})
	m.api.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		m.writeError(w, r, apierrors.WithStatus(nil, http.StatusMethodNotAllowed))
	})
	m.versioned = m.middleware.Handler(m.api)
	m.meta = m.metaRouter()

	chain := []middleware.Middleware{
		requestid.New(),
		recovery.New(recovery.WithLogger(m.logger), recovery.WithFormatter(m.formatter)),
	}
	m.handler = middleware.Chain(http.HandlerFunc(m.dispatch), append(chain, m.middlewares...)...)

	return nil
}

func (m *Manager) observer() versioning.Option {
	return versioning.WithObserver(
		versioning.OnDetected(func(v, method string) {
			m.logger.Debug("version detected", "version", v, "method", method)
		}),
		versioning.OnMissing(func() {
			m.logger.Debug("no version in request, using default")
		}),
		versioning.OnInvalid(func(attempted string, err error) {
			m.logger.Debug("version rejected", "attempted", attempted, "error", err)
			m.recorder.RecordRejection(context.Background(), rejectionReason(err))
		}),
		versioning.OnDeprecatedUse(func(v, route string) {
			m.logger.Warn("deprecated API version used", "version", v, "route", route)
			m.recorder.RecordDeprecated(context.Background(), v)
		}),
	)
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, version.ErrInvalidFormat):
		return "invalid_format"
	case errors.Is(err, version.ErrUnsupported):
		return "unsupported"
	case errors.Is(err, version.ErrSunset):
		return "sunset"
	default:
		return "other"
	}
}

// ServeHTTP assigns a request ID, recovers panics and runs the middlewares
// added with [WithMiddleware]. Meta endpoints are then served directly and
// everything else goes through the versioning middleware.
func (m *Manager) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	m.handler.ServeHTTP(w, r)
}

func (m *Manager) dispatch(w http.ResponseWriter, r *http.Request) {
	if m.meta.Match(chi.NewRouteContext(), r.Method, r.URL.Path) {
		m.meta.ServeHTTP(w, r)
		return
	}
	m.versioned.ServeHTTP(w, r)
}

// Handler returns the manager as an http.Handler.
func (m *Manager) Handler() http.Handler {
	return m
}

// AddVersion validates and registers an API version.
func (m *Manager) AddVersion(spec version.Spec) (version.Record, error) {
	if err := m.validator.Struct(spec); err != nil {
		return version.Record{}, fmt.Errorf("version %q: %w", spec.Version, err)
	}
	rec, err := m.registry.Add(spec)
	if err != nil {
		return version.Record{}, err
	}

	m.logger.Info("version registered",
		"version", rec.Version,
		"deprecated", rec.Deprecated,
		"breaking_changes", len(rec.BreakingChanges),
	)
	return rec, nil
}

// Deprecate marks a registered version deprecated.
//
// Example:
//
//	m.Deprecate("1.0.0",
//	    version.Sunset(time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)),
//	    version.SuccessorVersion("2.0.0"),
//	)
func (m *Manager) Deprecate(v string, opts ...version.LifecycleOption) (version.Record, error) {
	rec, err := m.registry.Deprecate(v, opts...)
	if err != nil {
		return version.Record{}, err
	}

	args := []any{"version", rec.Version, "deprecated_since", rec.DeprecationDate}
	if rec.HasSunset() {
		args = append(args, "sunset", rec.SunsetDate)
	}
	m.logger.Info("version deprecated", args...)
	return rec, nil
}

// RegisterEndpoint installs one route for (Method, Path) that negotiates the
// version to serve among e.Versions.
func (m *Manager) RegisterEndpoint(e Endpoint) error {
	e.Method = strings.ToUpper(strings.TrimSpace(e.Method))
	if err := m.validator.Struct(e); err != nil {
		return fmt.Errorf("endpoint %s %s: %w", e.Method, e.Path, err)
	}

	ep := &endpoint{
		method: e.Method,
		path:   e.Path,
		routes: make(map[string]*route, len(e.Versions)),
	}
	for raw, r := range e.Versions {
		v, err := version.Normalize(raw)
		if err != nil {
			return fmt.Errorf("endpoint %s: %w", ep.name(), err)
		}
		if r.Handler == nil {
			return fmt.Errorf("endpoint %s version %s: %w", ep.name(), v, ErrNilHandler)
		}
		if _, dup := ep.routes[v]; dup {
			return fmt.Errorf("endpoint %s: %w: %s", ep.name(), ErrDuplicateVersion, v)
		}

		rt := &route{Route: r}
		if r.Schema != "" {
			sum := sha256.Sum256([]byte(r.Schema))
			schema, err := validation.CompileSchema("https://schemas.apicompat.local/"+hex.EncodeToString(sum[:])+".json", r.Schema)
			if err != nil {
				return fmt.Errorf("endpoint %s version %s schema: %w", ep.name(), v, err)
			}
			rt.schema = schema
		}
		ep.routes[v] = rt
		ep.versions = append(ep.versions, v)
	}
	version.Sort(ep.versions)

	key := endpointKey{method: ep.method, path: ep.path}

	m.mu.Lock()
	if _, exists := m.endpoints[key]; exists {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrEndpointExists, ep.name())
	}
	m.endpoints[key] = ep
	m.api.Method(ep.method, ep.path, m.routeHandler(ep))
	m.mu.Unlock()

	m.cache.DeleteAll()
	m.logger.Info("endpoint registered", "method", ep.method, "path", ep.path, "versions", ep.versions)
	return nil
}

// RegisterTransformer registers a one hop transformer. It is used when a
// request for t.From is served by the t.To version of an endpoint.
func (m *Manager) RegisterTransformer(t transform.Transformer) error {
	if err := m.transformers.Register(t); err != nil {
		return err
	}
	m.logger.Info("transformer registered", "from", t.From, "to", t.To)
	return nil
}

// Endpoints lists registered endpoints ordered by path, then method.
func (m *Manager) Endpoints() []EndpointInfo {
	m.mu.RLock()
	eps := lo.Values(m.endpoints)
	m.mu.RUnlock()

	out := lo.Map(eps, func(ep *endpoint, _ int) EndpointInfo {
		deprecated := lo.Filter(ep.versions, func(v string, _ int) bool { return ep.routes[v].Deprecated })
		return EndpointInfo{
			Method:     ep.method,
			Path:       ep.path,
			Versions:   slices.Clone(ep.versions),
			Deprecated: deprecated,
		}
	})
	slices.SortFunc(out, func(a, b EndpointInfo) int {
		if c := strings.Compare(a.Path, b.Path); c != 0 {
			return c
		}
		return strings.Compare(a.Method, b.Method)
	})
	return out
}

// Registry returns the version registry.
func (m *Manager) Registry() *version.Registry {
	return m.registry
}

// Middleware returns the versioning middleware.
func (m *Manager) Middleware() *versioning.Middleware {
	return m.middleware
}

// Transformers returns the transformer registry.
func (m *Manager) Transformers() *transform.Registry {
	return m.transformers
}

// Metrics returns the per endpoint metrics table.
func (m *Manager) Metrics() *metrics.Table {
	return m.table
}

// Shutdown flushes the metrics recorder and the tracer.
func (m *Manager) Shutdown(ctx context.Context) error {
	var errs []error
	if m.recorder != nil {
		errs = append(errs, m.recorder.Shutdown(ctx))
	}
	if m.tracer != nil {
		errs = append(errs, m.tracer.Shutdown(ctx))
	}
	m.cache.DeleteAll()
	return errors.Join(errs...)
}

func (m *Manager) lookup(method, path string) (*endpoint, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ep, ok := m.endpoints[endpointKey{method: method, path: path}]
	return ep, ok
}

// writeError sends err through the formatter. A partially buffered handler
// response is discarded first.
func (m *Manager) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if buf, ok := w.(*versioning.ResponseBuffer); ok {
		buf.Reset()
	}
	if werr := apierrors.Write(w, r, m.formatter, err); werr != nil {
		m.logger.LogError(werr, "failed to write error response")
	}
}
