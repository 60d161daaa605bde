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


package compat_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"rivaas.dev/apicompat/compat"
	"rivaas.dev/apicompat/metrics"
	"rivaas.dev/apicompat/version"
	"rivaas.dev/apicompat/versioning"
)

var (
	releaseV1 = time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	releaseV2 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	sunsetV1  = time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	today     = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
)

func echo(label string) compat.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		return compat.JSON(w, http.StatusOK, map[string]string{
			"handler": label,
			"version": versioning.VersionFromContext(r.Context()),
		})
	}
}

func get(h http.Handler, target, apiVersion string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if apiVersion != "" {
		req.Header.Set("api-version", apiVersion)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func unwrap(rec *httptest.ResponseRecorder) map[string]string {
	var env versioning.Envelope
	ExpectWithOffset(1, json.Unmarshal(rec.Body.Bytes(), &env)).To(Succeed())
	var data map[string]string
	ExpectWithOffset(1, json.Unmarshal(env.Data, &data)).To(Succeed())
	return data
}

var _ = Describe("Compatibility Manager", func() {
	var m *compat.Manager

	BeforeEach(func() {
		m = compat.MustNew(
			compat.WithClock(func() time.Time { return today }),
			compat.WithVersioning(
				versioning.WithMethod("header"),
				versioning.WithDefault("2.0.0"),
				versioning.WithSupportedVersions("1.0.0", "2.0.0"),
			),
		)
		_, err := m.AddVersion(version.Spec{Version: "1.0.0", ReleaseDate: releaseV1, Changes: []string{"Initial release"}})
		Expect(err).NotTo(HaveOccurred())
		_, err = m.AddVersion(version.Spec{
			Version:         "2.0.0",
			ReleaseDate:     releaseV2,
			BreakingChanges: []string{"Changed authentication flow"},
		})
		Expect(err).NotTo(HaveOccurred())

		Expect(m.RegisterEndpoint(compat.Endpoint{
			Method: http.MethodGet,
			Path:   "/users",
			Versions: map[string]compat.Route{
				"1.0.0": {Handler: echo("users-v1")},
				"2.0.0": {Handler: echo("users-v2")},
			},
		})).To(Succeed())
	})

	Describe("Version resolution", func() {
		It("resolves the header version and reflects it in the response", func() {
			rec := get(m, "/users", "v1")

			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Header().Get("API-Version")).To(Equal("1.0.0"))
			Expect(unwrap(rec)).To(HaveKeyWithValue("version", "1.0.0"))
			Expect(unwrap(rec)).To(HaveKeyWithValue("handler", "users-v1"))
		})

		It("falls back to the default version", func() {
			rec := get(m, "/users", "")

			Expect(rec.Header().Get("API-Version")).To(Equal("2.0.0"))
			Expect(unwrap(rec)).To(HaveKeyWithValue("handler", "users-v2"))
		})
	})

	Describe("Endpoint negotiation", func() {
		BeforeEach(func() {
			Expect(m.RegisterEndpoint(compat.Endpoint{
				Method: http.MethodGet,
				Path:   "/orders",
				Versions: map[string]compat.Route{
					"2.0.0": {Handler: echo("orders-v2.0")},
					"2.1.0": {Handler: echo("orders-v2.1")},
				},
			})).To(Succeed())
			Expect(m.RegisterEndpoint(compat.Endpoint{
				Method:   http.MethodGet,
				Path:     "/reports",
				Versions: map[string]compat.Route{"1.0.0": {Handler: echo("reports-v1")}},
			})).To(Succeed())
		})

		It("selects the highest version within the requested major", func() {
			match, err := m.Negotiate(http.MethodGet, "/orders", "2.0.5")
			Expect(err).NotTo(HaveOccurred())
			Expect(match.Selected).To(Equal("2.1.0"))
			Expect(match.Exact).To(BeFalse())

			rec := get(m, "/orders", "2.0.5")
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(unwrap(rec)).To(HaveKeyWithValue("handler", "orders-v2.1"))
		})

		It("rejects a version with no compatible handler", func() {
			_, err := m.Negotiate(http.MethodGet, "/reports", "3.0.0")

			var incompatible *version.IncompatibleError
			Expect(errors.As(err, &incompatible)).To(BeTrue())
			Expect(incompatible.Available).To(Equal([]string{"1.0.0"}))

			rec := get(m, "/reports", "3.0.0")
			Expect(rec.Code).To(Equal(http.StatusBadRequest))

			var body map[string]any
			Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
			Expect(body).To(HaveKeyWithValue("code", "VERSION_NOT_SUPPORTED_FOR_ENDPOINT"))
			Expect(body["errors"]).To(HaveKeyWithValue("available", ConsistOf("1.0.0")))
		})
	})

	Describe("Deprecation", func() {
		BeforeEach(func() {
			_, err := m.Deprecate("1.0.0", version.Sunset(sunsetV1))
			Expect(err).NotTo(HaveOccurred())
		})

		It("announces the sunset and an upgrade target", func() {
			rec := get(m, "/users", "1.0.0")

			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Header().Get("Deprecation")).To(Equal("true"))
			Expect(rec.Header().Get("Sunset")).To(Equal(sunsetV1.Format(http.TimeFormat)))
			Expect(rec.Header().Get("Warning")).To(ContainSubstring("Please upgrade to version 2.0.0."))
		})

		It("leaves current versions untouched", func() {
			rec := get(m, "/users", "2.0.0")

			Expect(rec.Header().Get("Deprecation")).To(BeEmpty())
			Expect(rec.Header().Get("Sunset")).To(BeEmpty())
		})

		It("lists the version on the versions endpoint", func() {
			rec := get(m, "/versions", "")

			var info compat.VersionsInfo
			Expect(json.Unmarshal(rec.Body.Bytes(), &info)).To(Succeed())
			Expect(info.DeprecatedVersions).To(HaveLen(1))
			Expect(info.DeprecatedVersions[0].Version).To(Equal("1.0.0"))
			Expect(info.DeprecatedVersions[0].SunsetDate).To(Equal("2024-07-01"))
		})
	})

	Describe("Migration guides", func() {
		It("includes the destination's breaking changes", func() {
			rec := get(m, "/migration/1.0.0/2.0.0", "")
			Expect(rec.Code).To(Equal(http.StatusOK))

			var guide compat.MigrationGuide
			Expect(json.Unmarshal(rec.Body.Bytes(), &guide)).To(Succeed())
			Expect(guide.BreakingChanges).To(ContainElement("Changed authentication flow"))
			Expect(guide.Compatible).To(BeFalse())
			Expect(guide.Steps).NotTo(BeEmpty())
		})
	})

	Describe("Concurrent traffic", func() {
		It("counts every request exactly once", func() {
			const workers, perWorker = 8, 25

			var wg sync.WaitGroup
			for range workers {
				wg.Go(func() {
					defer GinkgoRecover()
					for range perWorker {
						rec := get(m, "/users", "1")
						Expect(rec.Code).To(Equal(http.StatusOK))
					}
				})
			}
			wg.Wait()

			snap, ok := m.Metrics().Get(metrics.Key{Version: "1.0.0", Method: http.MethodGet, Path: "/users"})
			Expect(ok).To(BeTrue())
			Expect(snap.RequestCount).To(Equal(int64(workers * perWorker)))
		})
	})
})

//nolint:paralleltest // Ginkgo test suite manages its own parallelization
func TestCompatIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	RegisterFailHandler(Fail)
	RunSpecs(t, "Compat Integration Suite")
}
