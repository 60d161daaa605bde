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


//go:build !integration

package compat

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rivaas.dev/apicompat/logging"
	"rivaas.dev/apicompat/metrics"
	"rivaas.dev/apicompat/middleware/bodylimit"
	"rivaas.dev/apicompat/tracing"
	"rivaas.dev/apicompat/transform"
	"rivaas.dev/apicompat/validation"
	"rivaas.dev/apicompat/version"
	"rivaas.dev/apicompat/versioning"
)

var (
	releaseV1 = time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	releaseV2 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	fixedNow  = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
)

var errBoom = errors.New("boom")

func testManager(t *testing.T, opts ...Option) *Manager {
	t.Helper()

	base := []Option{
		WithClock(func() time.Time { return fixedNow }),
		WithVersioning(
			versioning.WithDefault("2.0.0"),
			versioning.WithSupportedVersions("1.0.0", "2.0.0"),
		),
	}
	m, err := New(append(base, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Shutdown(context.Background()) })

	_, err = m.AddVersion(version.Spec{
		Version:     "1.0.0",
		ReleaseDate: releaseV1,
		Changes:     []string{"Initial release"},
	})
	require.NoError(t, err)
	_, err = m.AddVersion(version.Spec{
		Version:         "2.0.0",
		ReleaseDate:     releaseV2,
		Changes:         []string{"Profile endpoints"},
		BreakingChanges: []string{"Changed authentication flow"},
	})
	require.NoError(t, err)

	return m
}

func userHandler(label string) HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		return JSON(w, http.StatusOK, map[string]string{
			"id":      chi.URLParam(r, "id"),
			"handler": label,
		})
	}
}

func registerUsers(t *testing.T, m *Manager) {
	t.Helper()
	require.NoError(t, m.RegisterEndpoint(Endpoint{
		Method: http.MethodGet,
		Path:   "/users/{id}",
		Versions: map[string]Route{
			"1.0.0": {Handler: userHandler("v1")},
			"2.0.0": {Handler: userHandler("v2")},
			"2.1.0": {Handler: userHandler("v2.1")},
		},
	}))
}

func do(m http.Handler, method, target, apiVersion string, body io.Reader) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if apiVersion != "" {
		req.Header.Set("API-Version", apiVersion)
	}
	rec := httptest.NewRecorder()
	m.ServeHTTP(rec, req)
	return rec
}

func envelopeData(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var env versioning.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	var data map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &data))
	return data
}

func problem(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/problem+json")
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("default version required", func(t *testing.T) {
		t.Parallel()
		_, err := New()
		require.ErrorIs(t, err, versioning.ErrDefaultRequired)
		assert.Panics(t, func() { MustNew() })
	})

	t.Run("meta prefix must be absolute", func(t *testing.T) {
		t.Parallel()
		_, err := New(
			WithVersioning(versioning.WithDefault("1.0.0")),
			WithMetaPrefix("api"),
		)
		require.ErrorIs(t, err, ErrInvalidMetaPrefix)
	})

	t.Run("accessors", func(t *testing.T) {
		t.Parallel()
		m := testManager(t)
		assert.Equal(t, m, m.Handler())
		assert.NotNil(t, m.Middleware())
		assert.NotNil(t, m.Metrics())
		assert.Zero(t, m.Transformers().Len())
		assert.True(t, m.Registry().Has("2.0.0"))
	})
}

func TestManager_AddVersion(t *testing.T) {
	t.Parallel()

	m := testManager(t)

	_, err := m.AddVersion(version.Spec{Version: "3.0.0"})
	var verr *validation.Error
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, http.StatusUnprocessableEntity, verr.HTTPStatus())
	assert.False(t, m.Registry().Has("3.0.0"))

	_, err = m.AddVersion(version.Spec{Version: "v1", ReleaseDate: releaseV1})
	require.ErrorIs(t, err, version.ErrVersionExists)

	rec, err := m.AddVersion(version.Spec{Version: "2.1", ReleaseDate: releaseV2})
	require.NoError(t, err)
	assert.Equal(t, "2.1.0", rec.Version)

	rec, err = m.Deprecate("1.0.0",
		version.DeprecatedSince(releaseV2),
		version.SuccessorVersion("2.0.0"),
	)
	require.NoError(t, err)
	assert.True(t, rec.Deprecated)
	assert.Equal(t, "2.0.0", rec.Successor)

	_, err = m.Deprecate("9.0.0")
	require.ErrorIs(t, err, version.ErrVersionNotFound)
}

func TestManager_RegisterEndpoint(t *testing.T) {
	t.Parallel()

	ok := func(http.ResponseWriter, *http.Request) error { return nil }

	tests := []struct {
		name     string
		endpoint Endpoint
		wantErr  error
	}{
		{
			name:     "missing path",
			endpoint: Endpoint{Method: http.MethodGet, Versions: map[string]Route{"1.0.0": {Handler: ok}}},
		},
		{
			name:     "relative path",
			endpoint: Endpoint{Method: http.MethodGet, Path: "users", Versions: map[string]Route{"1.0.0": {Handler: ok}}},
		},
		{
			name:     "unknown method",
			endpoint: Endpoint{Method: "FETCH", Path: "/users", Versions: map[string]Route{"1.0.0": {Handler: ok}}},
		},
		{
			name:     "no versions",
			endpoint: Endpoint{Method: http.MethodGet, Path: "/users"},
		},
		{
			name:     "invalid version key",
			endpoint: Endpoint{Method: http.MethodGet, Path: "/users", Versions: map[string]Route{"latest": {Handler: ok}}},
		},
		{
			name:     "nil handler",
			endpoint: Endpoint{Method: http.MethodGet, Path: "/users", Versions: map[string]Route{"1.0.0": {}}},
			wantErr:  ErrNilHandler,
		},
		{
			name: "versions equal after normalization",
			endpoint: Endpoint{Method: http.MethodGet, Path: "/users", Versions: map[string]Route{
				"1":     {Handler: ok},
				"1.0.0": {Handler: ok},
			}},
			wantErr: ErrDuplicateVersion,
		},
		{
			name: "invalid schema",
			endpoint: Endpoint{Method: http.MethodPost, Path: "/users", Versions: map[string]Route{
				"1.0.0": {Handler: ok, Schema: `{"type": 12}`},
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m := testManager(t)

			err := m.RegisterEndpoint(tt.endpoint)
			require.Error(t, err)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			}
			assert.Empty(t, m.Endpoints())
		})
	}

	t.Run("duplicate endpoint", func(t *testing.T) {
		t.Parallel()
		m := testManager(t)
		registerUsers(t, m)

		err := m.RegisterEndpoint(Endpoint{
			Method:   "get",
			Path:     "/users/{id}",
			Versions: map[string]Route{"3.0.0": {Handler: ok}},
		})
		require.ErrorIs(t, err, ErrEndpointExists)
	})

	t.Run("lowercase method is accepted", func(t *testing.T) {
		t.Parallel()
		m := testManager(t)
		require.NoError(t, m.RegisterEndpoint(Endpoint{
			Method:   "delete",
			Path:     "/users/{id}",
			Versions: map[string]Route{"v2": {Handler: ok}},
		}))

		eps := m.Endpoints()
		require.Len(t, eps, 1)
		assert.Equal(t, http.MethodDelete, eps[0].Method)
		assert.Equal(t, []string{"2.0.0"}, eps[0].Versions)
	})
}

func TestManager_Endpoints(t *testing.T) {
	t.Parallel()

	m := testManager(t)
	ok := func(http.ResponseWriter, *http.Request) error { return nil }
	registerUsers(t, m)
	require.NoError(t, m.RegisterEndpoint(Endpoint{
		Method: http.MethodPost,
		Path:   "/orders",
		Versions: map[string]Route{
			"1.0.0": {Handler: ok, Deprecated: true},
			"2.0.0": {Handler: ok},
		},
	}))

	eps := m.Endpoints()
	require.Len(t, eps, 2)

	assert.Equal(t, "/orders", eps[0].Path)
	assert.Equal(t, []string{"1.0.0", "2.0.0"}, eps[0].Versions)
	assert.Equal(t, []string{"1.0.0"}, eps[0].Deprecated)

	assert.Equal(t, "/users/{id}", eps[1].Path)
	assert.Equal(t, []string{"1.0.0", "2.0.0", "2.1.0"}, eps[1].Versions)
	assert.Empty(t, eps[1].Deprecated)
}

func TestManager_Negotiate(t *testing.T) {
	t.Parallel()

	m := testManager(t)
	registerUsers(t, m)

	t.Run("exact", func(t *testing.T) {
		t.Parallel()
		match, err := m.Negotiate(http.MethodGet, "/users/{id}", "v1")
		require.NoError(t, err)
		assert.Equal(t, "1.0.0", match.Selected)
		assert.True(t, match.Exact)
	})

	t.Run("compatible picks newest in major", func(t *testing.T) {
		t.Parallel()
		match, err := m.Negotiate(http.MethodGet, "/users/{id}", "2.0.5")
		require.NoError(t, err)
		assert.Equal(t, "2.1.0", match.Selected)
		assert.False(t, match.Exact)
	})

	t.Run("incompatible", func(t *testing.T) {
		t.Parallel()
		_, err := m.Negotiate(http.MethodGet, "/users/{id}", "3")
		var incompatible *version.IncompatibleError
		require.ErrorAs(t, err, &incompatible)
		assert.Equal(t, "GET /users/{id}", incompatible.Endpoint)
		assert.Equal(t, []string{"1.0.0", "2.0.0", "2.1.0"}, incompatible.Available)
		require.ErrorIs(t, err, version.ErrNotSupportedForEndpoint)
	})

	t.Run("unknown endpoint", func(t *testing.T) {
		t.Parallel()
		_, err := m.Negotiate(http.MethodGet, "/missing", "1")
		require.ErrorIs(t, err, ErrEndpointNotFound)
	})

	t.Run("invalid version", func(t *testing.T) {
		t.Parallel()
		_, err := m.Negotiate(http.MethodGet, "/users/{id}", "one")
		require.ErrorIs(t, err, version.ErrInvalidFormat)
	})
}

func TestManager_NegotiationCache(t *testing.T) {
	t.Parallel()

	m := testManager(t)
	registerUsers(t, m)

	_, err := m.Negotiate(http.MethodGet, "/users/{id}", "2.0.5")
	require.NoError(t, err)
	_, err = m.Negotiate(http.MethodGet, "/users/{id}", "2.0.5")
	require.NoError(t, err)
	assert.Equal(t, 1, m.cache.Len())

	require.NoError(t, m.RegisterEndpoint(Endpoint{
		Method:   http.MethodGet,
		Path:     "/orders",
		Versions: map[string]Route{"2.0.0": {Handler: userHandler("orders")}},
	}))
	assert.Zero(t, m.cache.Len())
}

func TestManager_ServeHTTP(t *testing.T) {
	t.Parallel()

	m := testManager(t)
	registerUsers(t, m)

	t.Run("exact version", func(t *testing.T) {
		t.Parallel()
		rec := do(m, http.MethodGet, "/users/42", "1.0", nil)

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "1.0.0", rec.Header().Get("API-Version"))
		assert.Equal(t, "1.0.0, 2.0.0", rec.Header().Get(versioning.HeaderSupportedVersions))

		data := envelopeData(t, rec)
		assert.Equal(t, "v1", data["handler"])
		assert.Equal(t, "42", data["id"])
	})

	t.Run("default version", func(t *testing.T) {
		t.Parallel()
		rec := do(m, http.MethodGet, "/users/7", "", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "2.0.0", rec.Header().Get("API-Version"))
		assert.Equal(t, "v2", envelopeData(t, rec)["handler"])
	})

	t.Run("compatible version falls forward", func(t *testing.T) {
		t.Parallel()
		rec := do(m, http.MethodGet, "/users/7", "2.0.3", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "v2.1", envelopeData(t, rec)["handler"])
	})

	t.Run("incompatible version", func(t *testing.T) {
		t.Parallel()
		rec := do(m, http.MethodGet, "/users/7", "3.0.0", nil)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		body := problem(t, rec)
		assert.Equal(t, "VERSION_NOT_SUPPORTED_FOR_ENDPOINT", body["code"])
		details, ok := body["errors"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "3.0.0", details["requested"])
		assert.Equal(t, []any{"1.0.0", "2.0.0", "2.1.0"}, details["available"])
	})

	t.Run("invalid version", func(t *testing.T) {
		t.Parallel()
		rec := do(m, http.MethodGet, "/users/7", "latest", nil)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "INVALID_VERSION_FORMAT", problem(t, rec)["code"])
	})

	t.Run("unknown path", func(t *testing.T) {
		t.Parallel()
		rec := do(m, http.MethodGet, "/nothing", "1", nil)

		require.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, float64(http.StatusNotFound), problem(t, rec)["status"])
	})

	t.Run("method not allowed", func(t *testing.T) {
		t.Parallel()
		rec := do(m, http.MethodPut, "/users/7", "1", nil)

		require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
		problem(t, rec)
	})
}

func TestManager_Strict(t *testing.T) {
	t.Parallel()

	m := testManager(t, WithVersioning(versioning.WithStrict()))
	registerUsers(t, m)

	rec := do(m, http.MethodGet, "/users/1", "9", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := problem(t, rec)
	assert.Equal(t, "UNSUPPORTED_VERSION", body["code"])
}

func TestManager_Transformer(t *testing.T) {
	t.Parallel()

	m := testManager(t)

	var received map[string]any
	require.NoError(t, m.RegisterEndpoint(Endpoint{
		Method: http.MethodPost,
		Path:   "/users",
		Versions: map[string]Route{
			"1.1.0": {Handler: func(w http.ResponseWriter, r *http.Request) error {
				if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
					return err
				}
				return JSON(w, http.StatusCreated, map[string]any{"fullName": received["fullName"]})
			}},
		},
	}))
	require.NoError(t, m.RegisterTransformer(transform.Transformer{
		From: "1.0.0",
		To:   "1.1.0",
		Request: func(body any) (any, error) {
			obj, _ := body.(map[string]any)
			obj["fullName"] = obj["name"]
			delete(obj, "name")
			return obj, nil
		},
		Response: func(body any) (any, error) {
			obj, _ := body.(map[string]any)
			obj["name"] = obj["fullName"]
			delete(obj, "fullName")
			return obj, nil
		},
	}))
	assert.Equal(t, 1, m.Transformers().Len())

	rec := do(m, http.MethodPost, "/users", "1.0.0", strings.NewReader(`{"name":"Ada"}`))

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, map[string]any{"fullName": "Ada"}, received)
	assert.Equal(t, map[string]any{"name": "Ada"}, envelopeData(t, rec))

	err := m.RegisterTransformer(transform.Transformer{From: "1.0.0", To: "1.1.0", Request: func(b any) (any, error) { return b, nil }})
	require.ErrorIs(t, err, transform.ErrExists)
}

func TestManager_TransformerPrecision(t *testing.T) {
	t.Parallel()

	m := testManager(t)
	require.NoError(t, m.RegisterEndpoint(Endpoint{
		Method: http.MethodGet,
		Path:   "/accounts",
		Versions: map[string]Route{
			"1.1.0": {Handler: func(w http.ResponseWriter, _ *http.Request) error {
				w.Header().Set("Content-Type", "application/json")
				_, err := w.Write([]byte(`{"id":9007199254740993}`))
				return err
			}},
		},
	}))
	require.NoError(t, m.RegisterTransformer(transform.Transformer{
		From:     "1.0.0",
		To:       "1.1.0",
		Response: func(body any) (any, error) { return body, nil },
	}))

	rec := do(m, http.MethodGet, "/accounts", "1", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var env versioning.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, `{"id":9007199254740993}`, string(env.Data))
}

func TestManager_TransformerBodyLimit(t *testing.T) {
	t.Parallel()

	m := testManager(t, WithMiddleware(bodylimit.New(bodylimit.WithLimit(16))))
	require.NoError(t, m.RegisterEndpoint(Endpoint{
		Method: http.MethodPost,
		Path:   "/users",
		Versions: map[string]Route{
			"1.1.0": {Handler: func(w http.ResponseWriter, _ *http.Request) error {
				return JSON(w, http.StatusCreated, map[string]string{"status": "created"})
			}},
		},
	}))
	require.NoError(t, m.RegisterTransformer(transform.Transformer{
		From:    "1.0.0",
		To:      "1.1.0",
		Request: func(body any) (any, error) { return body, nil },
	}))

	req := httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(`{"name":"Ada","note":"far too long"}`))
	req.ContentLength = -1
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("API-Version", "1")
	rec := httptest.NewRecorder()
	m.ServeHTTP(rec, req)

	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code, rec.Body.String())
	assert.Equal(t, "BODY_TOO_LARGE", problem(t, rec)["code"])
}

func TestManager_RouteSchema(t *testing.T) {
	t.Parallel()

	m := testManager(t)
	require.NoError(t, m.RegisterEndpoint(Endpoint{
		Method: http.MethodPost,
		Path:   "/orders",
		Versions: map[string]Route{
			"2.0.0": {
				Schema: `{"type":"object","required":["sku"],"properties":{"sku":{"type":"string"}}}`,
				Handler: func(w http.ResponseWriter, r *http.Request) error {
					return JSON(w, http.StatusCreated, map[string]string{"status": "created"})
				},
			},
		},
	}))

	rec := do(m, http.MethodPost, "/orders", "2", strings.NewReader(`{"quantity":3}`))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
	assert.Equal(t, "VALIDATION_ERROR", problem(t, rec)["code"])

	rec = do(m, http.MethodPost, "/orders", "2", strings.NewReader(`{"sku":"A-1"}`))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "created", envelopeData(t, rec)["status"])
}

func TestManager_RouteDeprecation(t *testing.T) {
	t.Parallel()

	m := testManager(t)
	require.NoError(t, m.RegisterEndpoint(Endpoint{
		Method: http.MethodGet,
		Path:   "/legacy",
		Versions: map[string]Route{
			"2.0.0": {Handler: userHandler("legacy"), Deprecated: true},
		},
	}))

	rec := do(m, http.MethodGet, "/legacy", "2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "true", rec.Header().Get(versioning.HeaderDeprecation))
	assert.Contains(t, rec.Header().Get(versioning.HeaderWarning), "Endpoint GET /legacy is deprecated in version 2.0.0.")
}

func TestManager_HandlerErrors(t *testing.T) {
	t.Parallel()

	m := testManager(t)
	require.NoError(t, m.RegisterEndpoint(Endpoint{
		Method: http.MethodGet,
		Path:   "/fail",
		Versions: map[string]Route{
			"2.0.0": {Handler: func(http.ResponseWriter, *http.Request) error { return errBoom }},
		},
	}))

	rec := do(m, http.MethodGet, "/fail", "2", nil)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "boom", problem(t, rec)["detail"])

	snap, ok := m.Metrics().Get(metrics.Key{Version: "2.0.0", Method: http.MethodGet, Path: "/fail"})
	require.True(t, ok)
	assert.Equal(t, int64(1), snap.RequestCount)
	assert.Equal(t, int64(1), snap.ErrorCount)
}

func TestManager_Invoke(t *testing.T) {
	t.Parallel()

	m := testManager(t)
	registerUsers(t, m)
	require.NoError(t, m.RegisterEndpoint(Endpoint{
		Method: http.MethodGet,
		Path:   "/fail",
		Versions: map[string]Route{
			"2.0.0": {Handler: func(http.ResponseWriter, *http.Request) error { return errBoom }},
		},
	}))

	t.Run("resolves version without middleware", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodGet, "/users/5", nil)
		req.Header.Set("API-Version", "1")
		rec := httptest.NewRecorder()

		require.NoError(t, m.Invoke(rec, req))

		assert.Equal(t, map[string]any{"id": "5", "handler": "v1"}, envelopeData(t, rec))
	})

	t.Run("applies response transformer and envelope", func(t *testing.T) {
		t.Parallel()
		tm := testManager(t)
		require.NoError(t, tm.RegisterEndpoint(Endpoint{
			Method: http.MethodGet,
			Path:   "/items",
			Versions: map[string]Route{
				"1.1.0": {Handler: func(w http.ResponseWriter, _ *http.Request) error {
					return JSON(w, http.StatusOK, map[string]string{"name": "n"})
				}},
			},
		}))
		require.NoError(t, tm.RegisterTransformer(transform.Transformer{
			From: "1.0.0",
			To:   "1.1.0",
			Response: func(body any) (any, error) {
				obj, _ := body.(map[string]any)
				obj["transformed"] = true
				return obj, nil
			},
		}))

		req := httptest.NewRequest(http.MethodGet, "/items", nil)
		req.Header.Set("API-Version", "1")
		rec := httptest.NewRecorder()
		require.NoError(t, tm.Invoke(rec, req))
		assert.Equal(t, map[string]any{"name": "n", "transformed": true}, envelopeData(t, rec))

		served := do(tm, http.MethodGet, "/items", "1", nil)
		require.Equal(t, http.StatusOK, served.Code)
		assert.Equal(t, envelopeData(t, served), envelopeData(t, rec))
	})

	t.Run("handler error returned unchanged", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodGet, "/fail", nil)
		err := m.Invoke(httptest.NewRecorder(), req)
		require.ErrorIs(t, err, errBoom)
	})

	t.Run("unknown route", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodGet, "/missing", nil)
		err := m.Invoke(httptest.NewRecorder(), req)
		require.ErrorIs(t, err, ErrEndpointNotFound)
	})
}

func TestManager_Metrics(t *testing.T) {
	t.Parallel()

	recorder, reader := metrics.TestingRecorder(t)
	m := testManager(t, WithMetrics(recorder))
	registerUsers(t, m)

	for range 3 {
		rec := do(m, http.MethodGet, "/users/1", "2.0.0", nil)
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rec := do(m, http.MethodGet, "/users/1", "2.0.4", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	snap, ok := m.Metrics().Get(metrics.Key{Version: "2.0.0", Method: http.MethodGet, Path: "/users/{id}"})
	require.True(t, ok)
	assert.Equal(t, int64(3), snap.RequestCount)
	assert.Zero(t, snap.ErrorCount)
	assert.Equal(t, fixedNow, snap.LastAccessed)

	summary := m.Metrics().Summarize()
	assert.Equal(t, int64(4), summary.TotalRequests)
	assert.Len(t, summary.Versions, 2)

	assert.Equal(t, int64(4), metrics.CollectSum(t, reader, "apicompat.requests"))
	assert.Equal(t, int64(4), metrics.CollectSum(t, reader, "apicompat.negotiations"))
	assert.Zero(t, metrics.CollectSum(t, reader, "apicompat.errors"))

	rec = do(m, http.MethodGet, "/users/1", "bogus", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, int64(1), metrics.CollectSum(t, reader, "apicompat.version.rejections"))
}

func TestManager_DeprecatedVersion(t *testing.T) {
	t.Parallel()

	recorder, reader := metrics.TestingRecorder(t)
	m := testManager(t, WithMetrics(recorder))
	registerUsers(t, m)
	_, err := m.Deprecate("1.0.0",
		version.Sunset(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)),
		version.SuccessorVersion("2.0.0"),
	)
	require.NoError(t, err)

	rec := do(m, http.MethodGet, "/users/1", "1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "true", rec.Header().Get(versioning.HeaderDeprecation))
	assert.Equal(t, "Thu, 01 Jan 2026 00:00:00 GMT", rec.Header().Get(versioning.HeaderSunset))
	assert.Contains(t, rec.Header().Get(versioning.HeaderWarning),
		"API version 1.0.0 is deprecated and will be removed on 2026-01-01. Please upgrade to version 2.0.0.")
	assert.Equal(t, int64(1), metrics.CollectSum(t, reader, "apicompat.deprecated.requests"))
}

func TestManager_Logging(t *testing.T) {
	t.Parallel()

	logger, buf := logging.NewTestLogger()
	m := testManager(t, WithLogger(logger))
	require.NoError(t, m.RegisterEndpoint(Endpoint{
		Method: http.MethodGet,
		Path:   "/fail",
		Versions: map[string]Route{
			"2.0.0": {Handler: func(http.ResponseWriter, *http.Request) error { return errBoom }},
		},
	}))
	do(m, http.MethodGet, "/fail", "2", nil)

	entries, err := logging.ParseJSONLogEntries(buf)
	require.NoError(t, err)

	messages := make(map[string]string, len(entries))
	for _, e := range entries {
		messages[e.Message] = e.Level
	}
	assert.Equal(t, "INFO", messages["version registered"])
	assert.Equal(t, "INFO", messages["endpoint registered"])
	assert.Equal(t, "DEBUG", messages["version detected"])
	assert.Equal(t, "ERROR", messages["handler failed"])
}

func TestManager_Tracing(t *testing.T) {
	t.Parallel()

	tracer, spans := tracing.TestingTracer(t)
	m := testManager(t, WithTracer(tracer))
	registerUsers(t, m)

	rec := do(m, http.MethodGet, "/users/9", "2.0.1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	ended := spans.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "GET /users/{id}", ended[0].Name())

	attrs := make(map[string]string)
	for _, kv := range ended[0].Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	assert.Equal(t, "2.0.1", attrs["api.version.requested"])
	assert.Equal(t, "2.1.0", attrs["api.version.selected"])
	assert.Equal(t, OutcomeCompatible, attrs["api.negotiation"])
	assert.Equal(t, "200", attrs["http.response.status_code"])
}

func TestBearerToken(t *testing.T) {
	t.Parallel()

	auth := BearerToken("s3cret")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	require.ErrorIs(t, auth(req), ErrUnauthorized)

	req.Header.Set("Authorization", "Bearer wrong")
	require.ErrorIs(t, auth(req), ErrUnauthorized)

	req.Header.Set("Authorization", "Bearer s3cret")
	require.NoError(t, auth(req))

	req.Header.Set("Authorization", "Bearer ")
	require.ErrorIs(t, BearerToken("")(req), ErrUnauthorized)
}

func TestManager_PanicRecovery(t *testing.T) {
	t.Parallel()

	logger, buf := logging.NewTestLogger()
	m := testManager(t, WithLogger(logger))
	require.NoError(t, m.RegisterEndpoint(Endpoint{
		Method: http.MethodGet,
		Path:   "/crash",
		Versions: map[string]Route{
			"2.0.0": {Handler: func(http.ResponseWriter, *http.Request) error {
				panic("nil map write")
			}},
		},
	}))

	req := httptest.NewRequest(http.MethodGet, "/crash", nil)
	req.Header.Set("X-Request-ID", "req-42")
	rec := httptest.NewRecorder()
	m.ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "INTERNAL_ERROR", problem(t, rec)["code"])
	assert.Equal(t, "req-42", rec.Header().Get("X-Request-ID"))

	entries, err := logging.ParseJSONLogEntries(buf)
	require.NoError(t, err)
	var found bool
	for _, e := range entries {
		if e.Message == "panic recovered" {
			found = true
			assert.Equal(t, "req-42", e.Attrs["request_id"])
			assert.Equal(t, "nil map write", e.Attrs["panic"])
		}
	}
	assert.True(t, found, "panic should be logged")
}

func TestManager_RequestID(t *testing.T) {
	t.Parallel()

	m := testManager(t)
	registerUsers(t, m)

	rec := do(m, http.MethodGet, "/users/1", "2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = do(m, http.MethodGet, "/versions", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestManager_WithMiddleware(t *testing.T) {
	t.Parallel()

	var seenPath string
	spy := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seenPath = r.URL.Path
			next.ServeHTTP(w, r)
		})
	}
	m := testManager(t, WithMiddleware(spy, bodylimit.New(bodylimit.WithLimit(16))))
	require.NoError(t, m.RegisterEndpoint(Endpoint{
		Method: http.MethodPost,
		Path:   "/orders",
		Versions: map[string]Route{
			"2.0.0": {
				Schema: `{"type":"object"}`,
				Handler: func(w http.ResponseWriter, _ *http.Request) error {
					return JSON(w, http.StatusCreated, map[string]string{"status": "created"})
				},
			},
		},
	}))

	rec := do(m, http.MethodPost, "/orders", "2", strings.NewReader(`{"sku":"A-1"}`))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "/orders", seenPath)

	rec = do(m, http.MethodPost, "/orders", "2", strings.NewReader(`{"sku":"A-1","note":"far too long"}`))
	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, "BODY_TOO_LARGE", problem(t, rec)["code"])

	req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(`{"sku":"A-1","note":"far too long"}`))
	req.ContentLength = -1
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("API-Version", "2")
	rec = httptest.NewRecorder()
	m.ServeHTTP(rec, req)
	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code, rec.Body.String())
	assert.Equal(t, "BODY_TOO_LARGE", problem(t, rec)["code"])
}
