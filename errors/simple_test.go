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

package errors

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimple_Format(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/users", nil)

	t.Run("plain error", func(t *testing.T) {
		t.Parallel()
		resp := NewSimple().Format(req, &plainError{message: "boom"})

		assert.Equal(t, http.StatusInternalServerError, resp.Status)
		assert.Equal(t, "application/json; charset=utf-8", resp.ContentType)
		body, ok := resp.Body.(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "boom", body["error"])
		assert.NotContains(t, body, "code")
	})

	t.Run("version error", func(t *testing.T) {
		t.Parallel()
		resp := NewSimple().Format(req, &versionError{
			message:   "version 3.0.0 is not supported for endpoint GET /users",
			code:      "VERSION_NOT_SUPPORTED_FOR_ENDPOINT",
			status:    http.StatusBadRequest,
			supported: []string{"1.0.0"},
		})

		assert.Equal(t, http.StatusBadRequest, resp.Status)
		body := resp.Body.(map[string]any)
		assert.Equal(t, "VERSION_NOT_SUPPORTED_FOR_ENDPOINT", body["code"])
		assert.Equal(t, map[string]any{"supported": []string{"1.0.0"}}, body["details"])
	})

	t.Run("status resolver", func(t *testing.T) {
		t.Parallel()
		f := &Simple{StatusResolver: func(error) int { return http.StatusServiceUnavailable }}
		assert.Equal(t, http.StatusServiceUnavailable, f.Format(req, &plainError{message: "x"}).Status)
	})
}
