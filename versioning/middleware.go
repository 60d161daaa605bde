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

package versioning

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	apierrors "rivaas.dev/apicompat/errors"
	"rivaas.dev/apicompat/strategy"
	"rivaas.dev/apicompat/version"
)

// Response headers written by the middleware.
const (
	HeaderSupportedVersions = "Supported-Versions"
	HeaderDeprecation       = "Deprecation"
	HeaderSunset            = "Sunset"
	HeaderLink              = "Link"
	HeaderWarning           = "Warning"
)

// Middleware resolves the API version of each request.
type Middleware struct {
	config   *Config
	registry *version.Registry
}

// New creates the middleware. Deprecation data is read from registry on
// every request; a nil registry is replaced by an empty one.
//
// Example:
//
//	mw, err := versioning.New(reg,
//	    versioning.WithDefault("2.0.0"),
//	    versioning.WithSupportedVersions("1.0.0", "2.0.0"),
//	    versioning.WithStrict(),
//	)
func New(registry *version.Registry, opts ...Option) (*Middleware, error) {
	cfg, err := NewConfig(opts...)
	if err != nil {
		return nil, err
	}
	if registry == nil {
		registry = version.NewRegistry()
	}

	return &Middleware{config: cfg, registry: registry}, nil
}

// MustNew is like [New] but panics on error.
func MustNew(registry *version.Registry, opts ...Option) *Middleware {
	m, err := New(registry, opts...)
	if err != nil {
		panic(fmt.Sprintf("failed to create versioning middleware: %v", err))
	}
	return m
}

// Config returns the middleware configuration.
func (m *Middleware) Config() *Config {
	return m.config
}

// Registry returns the version registry.
func (m *Middleware) Registry() *version.Registry {
	return m.registry
}

// Resolve extracts, normalizes and validates the version of r. It returns a
// clone of r whose context carries the [State]; r itself is not modified.
//
// Errors are [*version.FormatError], [*version.UnsupportedError] in strict
// mode, or [*version.SunsetError] when sunset enforcement is enabled.
func (m *Middleware) Resolve(r *http.Request) (*http.Request, *State, error) {
	cfg := m.config
	req := r.Clone(r.Context())

	state := &State{OriginalPath: r.URL.Path, Method: cfg.strategy.Method()}

	token, found := cfg.strategy.Extract(req)
	token = strings.TrimSpace(token)
	if found && token != "" {
		state.Requested = token
	} else {
		token = cfg.defaultVersion
		m.notifyMissing()
	}

	v, err := version.Normalize(token)
	if err != nil {
		m.notifyInvalid(token, err)
		return nil, nil, err
	}

	if cfg.strict && !version.Supports(cfg.supported, v) {
		err := &version.UnsupportedError{Requested: v, Supported: cfg.SupportedVersions()}
		m.notifyInvalid(token, err)
		return nil, nil, err
	}

	if cfg.enforceSunset {
		if rec, ok := m.registry.Get(v); ok && rec.SunsetPassed(cfg.Now()) {
			err := &version.SunsetError{Version: v, Sunset: rec.SunsetDate}
			m.notifyInvalid(token, err)
			return nil, nil, err
		}
	}

	if state.Requested != "" {
		m.notifyDetected(v, state.Method)
	}

	state.Version = v
	state.Path = req.URL.Path

	return req.WithContext(WithState(req.Context(), state)), state, nil
}

// Handler returns net/http middleware that resolves the version, writes the
// version and deprecation headers, and wraps JSON responses in an envelope.
// Rejected requests receive an error document from the configured formatter.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, skip := m.config.skipPaths[r.URL.Path]; skip {
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set(HeaderSupportedVersions, strings.Join(m.config.supported, ", "))

		req, state, err := m.Resolve(r)
		if err != nil {
			var sunset *version.SunsetError
			if errors.As(err, &sunset) {
				w.Header().Set(HeaderSunset, sunset.Sunset.UTC().Format(http.TimeFormat))
			}
			_ = apierrors.Write(w, r, m.config.formatter, err)
			return
		}

		m.config.strategy.Apply(w, req, state.Version)
		w.Header().Set(strategy.HeaderAPIVersion, state.Version)
		m.applyDeprecation(w, state)

		buf := NewResponseBuffer(w)
		next.ServeHTTP(buf, req)

		if err := buf.Flush(m.BodyFuncs(state)...); err != nil {
			_ = apierrors.Write(w, req, m.config.formatter, err)
		}
	})
}

// BodyFuncs returns what runs over a buffered response for state: the
// scheduled funcs in order, then the envelope when it is enabled.
func (m *Middleware) BodyFuncs(state *State) []BodyFunc {
	funcs := state.pendingBodyFuncs()
	if m.config.envelope {
		funcs = append(funcs, EnvelopeFunc(state.Version, m.config.now))
	}
	return funcs
}

// NegotiateVersion picks the version of an endpoint that serves r, given the
// versions that endpoint implements. It fails with
// [*version.IncompatibleError] naming the endpoint when no available
// version shares the request's major, even if the version is globally
// supported.
func (m *Middleware) NegotiateVersion(r *http.Request, available []string) (version.Match, error) {
	requested := m.config.defaultVersion
	if state, ok := FromContext(r.Context()); ok {
		requested = state.Version
	}

	normalized := make([]string, 0, len(available))
	for _, v := range available {
		n, err := version.Normalize(v)
		if err != nil {
			return version.Match{}, fmt.Errorf("endpoint version %q: %w", v, err)
		}
		normalized = append(normalized, n)
	}

	match, err := version.Negotiate(requested, normalized)
	if err != nil {
		var incompatible *version.IncompatibleError
		if errors.As(err, &incompatible) {
			incompatible.Endpoint = r.Method + " " + r.URL.Path
		}
		return version.Match{}, err
	}
	return match, nil
}

// DeprecationMessage renders the warning sent for a deprecated record.
// target is the version clients should move to.
func DeprecationMessage(rec version.Record, target string) string {
	var b strings.Builder
	b.WriteString("API version ")
	b.WriteString(rec.Version)
	b.WriteString(" is deprecated")
	if rec.HasSunset() {
		b.WriteString(" and will be removed on ")
		b.WriteString(rec.SunsetDate.UTC().Format("2006-01-02"))
	}
	b.WriteString(".")
	if target != "" && target != rec.Version {
		b.WriteString(" Please upgrade to version ")
		b.WriteString(target)
		b.WriteString(".")
	}
	return b.String()
}

func (m *Middleware) applyDeprecation(w http.ResponseWriter, state *State) {
	rec, ok := m.registry.Get(state.Version)
	if !ok || !rec.Deprecated {
		return
	}

	target := m.registry.UpgradeTarget(rec.Version)
	if target == "" {
		target = m.config.defaultVersion
	}
	msg := DeprecationMessage(rec, target)

	h := w.Header()
	h.Set(HeaderDeprecation, "true")
	if rec.HasSunset() {
		h.Set(HeaderSunset, rec.SunsetDate.UTC().Format(http.TimeFormat))
	}
	if rec.MigrationURL != "" {
		links := []string{fmt.Sprintf("<%s>; rel=\"deprecation\"", rec.MigrationURL)}
		if rec.HasSunset() {
			links = append(links, fmt.Sprintf("<%s>; rel=\"sunset\"", rec.MigrationURL))
		}
		h.Set(HeaderLink, strings.Join(links, ", "))
	}
	h.Set(HeaderWarning, fmt.Sprintf("299 - %q", msg))

	state.Deprecated = true
	state.AddWarning(msg)

	if obs := m.config.observer; obs != nil && obs.OnDeprecatedUse != nil {
		obs.OnDeprecatedUse(rec.Version, state.Path)
	}
}

func (m *Middleware) notifyDetected(v, method string) {
	if obs := m.config.observer; obs != nil && obs.OnDetected != nil {
		obs.OnDetected(v, method)
	}
}

func (m *Middleware) notifyMissing() {
	if obs := m.config.observer; obs != nil && obs.OnMissing != nil {
		obs.OnMissing()
	}
}

func (m *Middleware) notifyInvalid(attempted string, err error) {
	if obs := m.config.observer; obs != nil && obs.OnInvalid != nil {
		obs.OnInvalid(attempted, err)
	}
}
