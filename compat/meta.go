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
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/samber/lo"

	"rivaas.dev/apicompat/docs"
	apierrors "rivaas.dev/apicompat/errors"
	"rivaas.dev/apicompat/metrics"
	"rivaas.dev/apicompat/version"
)

// VersionsInfo is the body of GET /versions.
type VersionsInfo struct {
	CurrentVersion     string              `json:"currentVersion"`
	SupportedVersions  []string            `json:"supportedVersions"`
	DeprecatedVersions []DeprecatedVersion `json:"deprecatedVersions"`
	Documentation      string              `json:"documentation,omitempty"`
	Changelog          []docs.Entry        `json:"changelog"`
}

// DeprecatedVersion summarizes one deprecated version.
type DeprecatedVersion struct {
	Version        string `json:"version"`
	DeprecatedDate string `json:"deprecatedDate,omitempty"`
	SunsetDate     string `json:"sunsetDate,omitempty"`
	Successor      string `json:"successor,omitempty"`
}

// MetricsReport is the body of GET /metrics.
type MetricsReport struct {
	GeneratedAt time.Time `json:"generatedAt"`
	metrics.Summary
}

// Versions describes the default, supported and deprecated versions.
// Supported versions are the configured set plus every registered version,
// newest first.
func (m *Manager) Versions() VersionsInfo {
	cfg := m.middleware.Config()
	records := m.registry.List()

	supported := lo.Uniq(append(cfg.SupportedVersions(),
		lo.Map(records, func(r version.Record, _ int) string { return r.Version })...))
	version.SortDesc(supported)

	deprecated := lo.FilterMap(records, func(r version.Record, _ int) (DeprecatedVersion, bool) {
		return DeprecatedVersion{
			Version:        r.Version,
			DeprecatedDate: docs.Date(r.DeprecationDate),
			SunsetDate:     docs.Date(r.SunsetDate),
			Successor:      r.Successor,
		}, r.Deprecated
	})

	return VersionsInfo{
		CurrentVersion:     cfg.DefaultVersion(),
		SupportedVersions:  supported,
		DeprecatedVersions: deprecated,
		Documentation:      cfg.Documentation(),
		Changelog:          docs.FromRecords(records).Versions,
	}
}

// metaRouter serves the meta endpoints. They bypass version resolution.
func (m *Manager) metaRouter() *chi.Mux {
	r := chi.NewRouter()
	p := m.metaPrefix

	r.Get(p+"/versions", m.metaHandler(m.handleVersions))
	r.Get(p+"/changelog", m.metaHandler(m.handleChangelog))
	r.Get(p+"/migration/{from}/{to}", m.metaHandler(m.handleMigration))
	if m.authenticator != nil {
		r.Get(p+"/metrics", m.metaHandler(m.handleMetrics))
	}
	return r
}

func (m *Manager) metaHandler(fn HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := fn(w, r); err != nil {
			m.writeError(w, r, err)
		}
	}
}

func (m *Manager) handleVersions(w http.ResponseWriter, _ *http.Request) error {
	return JSON(w, http.StatusOK, m.Versions())
}

func (m *Manager) handleChangelog(w http.ResponseWriter, r *http.Request) error {
	renderer, err := docs.RendererFor(r.URL.Query().Get("format"))
	if err != nil {
		return apierrors.WithStatus(err, http.StatusBadRequest)
	}
	w.Header().Set("Content-Type", renderer.ContentType())
	return renderer.Render(w, docs.FromRecords(m.registry.List()))
}

func (m *Manager) handleMigration(w http.ResponseWriter, r *http.Request) error {
	guide, err := m.MigrationGuide(chi.URLParam(r, "from"), chi.URLParam(r, "to"))
	if err != nil {
		return err
	}
	return JSON(w, http.StatusOK, guide)
}

func (m *Manager) handleMetrics(w http.ResponseWriter, r *http.Request) error {
	if err := m.authenticator(r); err != nil {
		w.Header().Set("WWW-Authenticate", `Bearer realm="apicompat"`)
		return apierrors.WithStatus(err, http.StatusUnauthorized)
	}

	if r.URL.Query().Get("format") == "prometheus" && m.recorder != nil {
		h, err := m.recorder.Handler()
		if err != nil {
			return apierrors.WithStatus(err, http.StatusNotFound)
		}
		h.ServeHTTP(w, r)
		return nil
	}

	return JSON(w, http.StatusOK, MetricsReport{
		GeneratedAt: m.now().UTC(),
		Summary:     m.table.Summarize(),
	})
}
