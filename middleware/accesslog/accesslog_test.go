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

package accesslog

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rivaas.dev/apicompat/logging"
	"rivaas.dev/apicompat/middleware"
	"rivaas.dev/apicompat/strategy"
)

// steppingClock advances by step on every call.
func steppingClock(step time.Duration) func() time.Time {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		now = now.Add(step)
		return now
	}
}

func statusHandler(status int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(strategy.HeaderAPIVersion, "2.0.0")
		w.WriteHeader(status)
		_, _ = w.Write([]byte("hello"))
	})
}

func run(t *testing.T, status int, target string, opts ...Option) []logging.LogEntry {
	t.Helper()

	logger, buf := logging.NewTestLogger()
	opts = append([]Option{WithLogger(logger.Logger()), withClock(steppingClock(10 * time.Millisecond))}, opts...)
	h := New(opts...)(statusHandler(status))

	req := httptest.NewRequest(http.MethodGet, target, nil)
	req.RemoteAddr = "10.0.0.1:5000"
	req = req.WithContext(context.WithValue(req.Context(), middleware.RequestIDKey, "req-1"))
	h.ServeHTTP(httptest.NewRecorder(), req)

	return entries(t, buf)
}

func entries(t *testing.T, buf *bytes.Buffer) []logging.LogEntry {
	t.Helper()
	out, err := logging.ParseJSONLogEntries(buf)
	require.NoError(t, err)
	return out
}

func TestAccessLog_Fields(t *testing.T) {
	t.Parallel()

	logs := run(t, http.StatusOK, "/v2/users")
	require.Len(t, logs, 1)

	e := logs[0]
	assert.Equal(t, "INFO", e.Level)
	assert.Equal(t, "access", e.Message)
	assert.Equal(t, "GET", e.Attrs["method"])
	assert.Equal(t, "/v2/users", e.Attrs["path"])
	assert.InDelta(t, 200, e.Attrs["status"], 0)
	assert.InDelta(t, 10, e.Attrs["duration_ms"], 0)
	assert.InDelta(t, 5, e.Attrs["bytes_sent"], 0)
	assert.Equal(t, "10.0.0.1", e.Attrs["client_ip"])
	assert.Equal(t, "2.0.0", e.Attrs["api_version"])
	assert.Equal(t, "req-1", e.Attrs["request_id"])
	assert.NotContains(t, e.Attrs, "slow")
}

func TestAccessLog_Levels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status int
		level  string
	}{
		{http.StatusCreated, "INFO"},
		{http.StatusBadRequest, "WARN"},
		{http.StatusGone, "WARN"},
		{http.StatusInternalServerError, "ERROR"},
	}
	for _, tt := range tests {
		logs := run(t, tt.status, "/users")
		require.Len(t, logs, 1)
		assert.Equal(t, tt.level, logs[0].Level, "status %d", tt.status)
	}
}

func TestAccessLog_Exclusions(t *testing.T) {
	t.Parallel()

	assert.Empty(t, run(t, http.StatusOK, "/healthz", WithExcludePaths("/healthz")))
	assert.Empty(t, run(t, http.StatusOK, "/_meta/versions", WithExcludePrefixes("/_meta/")))
	assert.Len(t, run(t, http.StatusOK, "/users", WithExcludePrefixes("/_meta/")), 1)
}

func TestAccessLog_ErrorsOnly(t *testing.T) {
	t.Parallel()

	assert.Empty(t, run(t, http.StatusOK, "/users", WithErrorsOnly()))
	assert.Len(t, run(t, http.StatusBadRequest, "/users", WithErrorsOnly()), 1)
}

func TestAccessLog_SlowRequests(t *testing.T) {
	t.Parallel()

	logs := run(t, http.StatusOK, "/users", WithErrorsOnly(), WithSlowThreshold(5*time.Millisecond))
	require.Len(t, logs, 1)
	assert.Equal(t, "WARN", logs[0].Level)
	assert.Equal(t, true, logs[0].Attrs["slow"])
}

func TestAccessLog_Sampling(t *testing.T) {
	t.Parallel()

	assert.Empty(t, run(t, http.StatusOK, "/users", WithSampleRate(0)))
	assert.Len(t, run(t, http.StatusInternalServerError, "/users", WithSampleRate(0)), 1)
	assert.Len(t, run(t, http.StatusOK, "/users", WithSampleRate(2)), 1)

	assert.True(t, sampleByHash("", 0))
	assert.Equal(t, sampleByHash("abc", 0.5), sampleByHash("abc", 0.5))
}

func TestAccessLog_NoLogger(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	New()(statusHandler(http.StatusTeapot)).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, w.Code)
}

func TestClientIP(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:1234"
	assert.Equal(t, "192.0.2.1", clientIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	assert.Equal(t, "203.0.113.9", clientIP(req))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "pipe"
	assert.Equal(t, "pipe", clientIP(req))
}
