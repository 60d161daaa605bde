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

package version

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"bare major", "2", "2.0.0"},
		{"v prefix", "v2", "2.0.0"},
		{"capital V prefix", "V2", "2.0.0"},
		{"major minor", "2.0", "2.0.0"},
		{"full ordinal", "2.0.0", "2.0.0"},
		{"patch kept", "v1.2.3", "1.2.3"},
		{"surrounding space", " 1.1 ", "1.1.0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Normalize(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	t.Parallel()

	for _, input := range []string{"v2", "2", "2.0", "2.0.0", "v10.4", "3.2.1"} {
		once, err := Normalize(input)
		require.NoError(t, err)
		twice, err := Normalize(once)
		require.NoError(t, err)
		assert.Equal(t, once, twice, "input %q", input)
	}
}

func TestNormalizeRejectsMalformed(t *testing.T) {
	t.Parallel()

	for _, input := range []string{"", "v", "abc", "1.2.3.4", "1..2", "1.x", "1.0.0-beta", "1.0.0+build", "-1", "vV2", "vv2", "Vv1.0"} {
		t.Run(input, func(t *testing.T) {
			t.Parallel()
			_, err := Normalize(input)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidFormat)

			var fe *FormatError
			require.ErrorAs(t, err, &fe)
			assert.Equal(t, input, fe.Value)
			assert.Equal(t, http.StatusBadRequest, fe.HTTPStatus())
			assert.Equal(t, "INVALID_VERSION_FORMAT", fe.Code())
		})
	}
}

func TestCompareAndSort(t *testing.T) {
	t.Parallel()

	assert.Equal(t, -1, Compare("1.9.0", "1.10.0"))
	assert.Equal(t, 1, Compare("2.0.0", "1.99.99"))
	assert.Equal(t, 0, Compare("v2", "2.0.0"))

	versions := []string{"2.1.0", "1.0.0", "10.0.0", "2.0.5"}
	Sort(versions)
	assert.Equal(t, []string{"1.0.0", "2.0.5", "2.1.0", "10.0.0"}, versions)

	SortDesc(versions)
	assert.Equal(t, []string{"10.0.0", "2.1.0", "2.0.5", "1.0.0"}, versions)
}

func TestSameMajor(t *testing.T) {
	t.Parallel()

	assert.True(t, SameMajor("2.0.5", "2.1.0"))
	assert.False(t, SameMajor("1.0.0", "2.0.0"))
	assert.False(t, SameMajor("bogus", "2.0.0"))
}

func TestNegotiate(t *testing.T) {
	t.Parallel()

	t.Run("exact match", func(t *testing.T) {
		t.Parallel()
		m, err := Negotiate("2.0.0", []string{"1.0.0", "2.0.0", "2.1.0"})
		require.NoError(t, err)
		assert.True(t, m.Exact)
		assert.Equal(t, "2.0.0", m.Selected)
	})

	t.Run("same major picks highest", func(t *testing.T) {
		t.Parallel()
		m, err := Negotiate("2.0.5", []string{"2.0.0", "2.1.0"})
		require.NoError(t, err)
		assert.False(t, m.Exact)
		assert.Equal(t, "2.1.0", m.Selected)
		assert.Equal(t, "2.0.5", m.Requested)
	})

	t.Run("newer minor than registered still resolves", func(t *testing.T) {
		t.Parallel()
		m, err := Negotiate("1.9.0", []string{"1.0.0", "1.2.0", "2.0.0"})
		require.NoError(t, err)
		assert.Equal(t, "1.2.0", m.Selected)
	})

	t.Run("no shared major fails listing registered versions", func(t *testing.T) {
		t.Parallel()
		_, err := Negotiate("3.0.0", []string{"1.0.0"})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrNotSupportedForEndpoint)

		var ie *IncompatibleError
		require.ErrorAs(t, err, &ie)
		assert.Equal(t, []string{"1.0.0"}, ie.Available)
		assert.Equal(t, "3.0.0", ie.Requested)
	})

	t.Run("available listed ascending", func(t *testing.T) {
		t.Parallel()
		_, err := Negotiate("9.0.0", []string{"2.1.0", "1.0.0", "2.0.0"})
		var ie *IncompatibleError
		require.ErrorAs(t, err, &ie)
		assert.Equal(t, []string{"1.0.0", "2.0.0", "2.1.0"}, ie.Available)
	})
}

func TestNegotiateNeverFailsWithinMajor(t *testing.T) {
	t.Parallel()

	available := []string{"1.0.0", "1.4.2", "3.0.0", "3.1.0"}
	for _, requested := range []string{"1.0.0", "1.0.1", "1.99.0", "3.0.0", "3.5.5", "3.0.9"} {
		m, err := Negotiate(requested, available)
		require.NoError(t, err, "requested %s", requested)
		assert.True(t, SameMajor(m.Selected, requested))
	}
	for _, requested := range []string{"0.1.0", "2.0.0", "4.0.0"} {
		_, err := Negotiate(requested, available)
		require.Error(t, err, "requested %s", requested)
	}
}

func TestSupports(t *testing.T) {
	t.Parallel()

	supported := []string{"1.0.0", "2.0.0"}
	assert.True(t, Supports(supported, "1.0.0"))
	assert.True(t, Supports(supported, "2.3.0"))
	assert.False(t, Supports(supported, "3.0.0"))
}

func TestRegistry(t *testing.T) {
	t.Parallel()

	released := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	newRegistry := func(t *testing.T) *Registry {
		t.Helper()
		r := NewRegistry(WithRegistryClock(func() time.Time { return now }))
		_, err := r.Add(Spec{Version: "v1", ReleaseDate: released, Changes: []string{"Initial release"}})
		require.NoError(t, err)
		_, err = r.Add(Spec{
			Version:         "2.0",
			ReleaseDate:     released.AddDate(1, 0, 0),
			Changes:         []string{"New pagination"},
			BreakingChanges: []string{"Changed authentication flow"},
		})
		require.NoError(t, err)
		return r
	}

	t.Run("add normalizes", func(t *testing.T) {
		t.Parallel()
		r := newRegistry(t)
		rec, ok := r.Get("1")
		require.True(t, ok)
		assert.Equal(t, "1.0.0", rec.Version)
		assert.False(t, rec.Deprecated)
		assert.Equal(t, []string{}, rec.BreakingChanges)
	})

	t.Run("duplicate add fails", func(t *testing.T) {
		t.Parallel()
		r := newRegistry(t)
		_, err := r.Add(Spec{Version: "1.0.0", ReleaseDate: released})
		assert.ErrorIs(t, err, ErrVersionExists)
	})

	t.Run("malformed add fails", func(t *testing.T) {
		t.Parallel()
		r := newRegistry(t)
		_, err := r.Add(Spec{Version: "one", ReleaseDate: released})
		assert.ErrorIs(t, err, ErrInvalidFormat)
		_, err = r.Add(Spec{ReleaseDate: released})
		assert.ErrorIs(t, err, ErrEmptyVersion)
	})

	t.Run("deprecate stamps clock", func(t *testing.T) {
		t.Parallel()
		r := newRegistry(t)
		sunset := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
		rec, err := r.Deprecate("1.0.0", Sunset(sunset), MigrationDocs("https://docs.example.com/v2"))
		require.NoError(t, err)
		assert.True(t, rec.Deprecated)
		assert.Equal(t, now, rec.DeprecationDate)
		assert.Equal(t, sunset, rec.SunsetDate)
		assert.Equal(t, "https://docs.example.com/v2", rec.MigrationURL)

		stored, _ := r.Get("1.0.0")
		assert.True(t, stored.Deprecated)
		assert.Len(t, r.Deprecated(), 1)
	})

	t.Run("deprecated since overrides clock", func(t *testing.T) {
		t.Parallel()
		r := newRegistry(t)
		since := time.Date(2023, 12, 1, 0, 0, 0, 0, time.UTC)
		rec, err := r.Deprecate("1", DeprecatedSince(since))
		require.NoError(t, err)
		assert.Equal(t, since, rec.DeprecationDate)
	})

	t.Run("deprecate unknown fails", func(t *testing.T) {
		t.Parallel()
		r := newRegistry(t)
		_, err := r.Deprecate("9.0.0")
		assert.ErrorIs(t, err, ErrVersionNotFound)
	})

	t.Run("upgrade target", func(t *testing.T) {
		t.Parallel()
		r := newRegistry(t)
		_, err := r.Deprecate("1.0.0")
		require.NoError(t, err)
		assert.Equal(t, "2.0.0", r.UpgradeTarget("1.0.0"))
		assert.Empty(t, r.UpgradeTarget("2.0.0"))

		_, err = r.Deprecate("2.0.0", SuccessorVersion("v3"))
		require.NoError(t, err)
		assert.Equal(t, "3.0.0", r.UpgradeTarget("2.0.0"))
	})

	t.Run("records are copies", func(t *testing.T) {
		t.Parallel()
		r := newRegistry(t)
		rec, _ := r.Get("2.0.0")
		rec.BreakingChanges[0] = "mutated"
		again, _ := r.Get("2.0.0")
		assert.Equal(t, "Changed authentication flow", again.BreakingChanges[0])
	})

	t.Run("list ascending", func(t *testing.T) {
		t.Parallel()
		r := newRegistry(t)
		_, err := r.Add(Spec{Version: "1.5", ReleaseDate: released})
		require.NoError(t, err)
		var got []string
		for _, rec := range r.List() {
			got = append(got, rec.Version)
		}
		assert.Equal(t, []string{"1.0.0", "1.5.0", "2.0.0"}, got)
	})
}

func TestSunsetPassed(t *testing.T) {
	t.Parallel()

	sunset := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	rec := Record{Version: "1.0.0", Deprecated: true, SunsetDate: sunset}
	assert.False(t, rec.SunsetPassed(sunset.Add(-time.Hour)))
	assert.True(t, rec.SunsetPassed(sunset.Add(time.Hour)))

	rec.Deprecated = false
	assert.False(t, rec.SunsetPassed(sunset.Add(time.Hour)))
}

func TestErrorContracts(t *testing.T) {
	t.Parallel()

	unsupported := &UnsupportedError{Requested: "3.0.0", Supported: []string{"1.0.0", "2.0.0"}}
	assert.Contains(t, unsupported.Error(), "1.0.0, 2.0.0")
	assert.True(t, errors.Is(unsupported, ErrUnsupported))
	assert.Equal(t, "UNSUPPORTED_VERSION", unsupported.Code())

	incompatible := &IncompatibleError{Endpoint: "GET /users", Requested: "3.0.0", Available: []string{"1.0.0"}}
	assert.Contains(t, incompatible.Error(), "GET /users")
	details, ok := incompatible.Details().(map[string]any)
	require.True(t, ok)
	assert.Equal(t, []string{"1.0.0"}, details["available"])

	notFound := &NotFoundError{Version: "4.0.0"}
	assert.Equal(t, http.StatusNotFound, notFound.HTTPStatus())

	sunset := &SunsetError{Version: "1.0.0", Sunset: time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)}
	assert.Equal(t, http.StatusGone, sunset.HTTPStatus())
	assert.Contains(t, sunset.Error(), "2024-07-01")
}
