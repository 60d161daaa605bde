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

package config

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rivaas.dev/apicompat/config/codec"
	"rivaas.dev/apicompat/strategy"
)

const sampleSettings = `
server:
  metaPrefix: /api
  metricsToken: s3cret
versioning:
  method: composite
  defaultVersion: "1"
  strict: true
  documentation: https://docs.example.com/api
versions:
  - version: "1.0.0"
    releaseDate: "2024-01-01"
    changes: ["Initial release"]
    deprecated: true
    sunsetDate: "2025-01-01"
    successor: "2.0.0"
  - version: "2.0.0"
    releaseDate: "2024-06-01"
    breakingChanges: ["Renamed name to fullName"]
logging:
  level: debug
telemetry:
  tracing:
    provider: stdout
`

func TestLoadSettings(t *testing.T) {
	t.Parallel()

	s, err := LoadSettings(context.Background(), WithContent([]byte(sampleSettings), codec.TypeYAML))
	require.NoError(t, err)

	assert.Equal(t, ":8080", s.Server.Addr)
	assert.Equal(t, "/api", s.Server.MetaPrefix)
	assert.Equal(t, 10*time.Second, s.Server.ShutdownTimeout)
	assert.Equal(t, "s3cret", s.Server.MetricsToken)
	assert.Equal(t, int64(2<<20), s.Server.MaxBodyBytes)
	assert.False(t, s.Logging.AccessLog)

	assert.Equal(t, "composite", s.Versioning.Method)
	assert.Equal(t, "1", s.Versioning.DefaultVersion)
	assert.True(t, s.Versioning.Strict)
	assert.Equal(t, "rfc9457", s.Versioning.ErrorFormat)

	require.Len(t, s.Versions, 2)
	assert.True(t, s.Versions[0].Deprecated)
	assert.Equal(t, "2.0.0", s.Versions[0].Successor)
	assert.True(t, s.Versions[0].SunsetDate.Equal(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, []string{"Renamed name to fullName"}, s.Versions[1].BreakingChanges)
	assert.Equal(t, []string{"1.0.0", "2.0.0"}, s.SupportedVersions())

	assert.Equal(t, "debug", s.Logging.Level)
	assert.Equal(t, "json", s.Logging.Format)
	assert.Equal(t, "apicompat", s.Telemetry.ServiceName)
	assert.Equal(t, "prometheus", s.Telemetry.Metrics.Provider)
	assert.Equal(t, "stdout", s.Telemetry.Tracing.Provider)
	assert.InDelta(t, 1.0, s.Telemetry.Tracing.SampleRate, 0.0001)

	st, err := s.Strategy()
	require.NoError(t, err)
	assert.Equal(t, string(strategy.KindComposite), st.Method())
}

func TestLoadSettingsRejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		doc  string
	}{
		{name: "unknown method in schema", doc: "versioning:\n  method: carrier-pigeon\n  defaultVersion: \"1\"\n"},
		{name: "missing default", doc: "versioning:\n  method: header\n"},
		{name: "malformed default", doc: "versioning:\n  defaultVersion: one\n"},
		{name: "duplicate versions", doc: "versioning:\n  defaultVersion: \"1\"\nversions:\n  - version: \"1\"\n  - version: v1.0.0\n"},
		{name: "version without name", doc: "versioning:\n  defaultVersion: \"1\"\nversions:\n  - changes: [x]\n"},
		{name: "bad tracing provider", doc: "versioning:\n  defaultVersion: \"1\"\ntelemetry:\n  tracing:\n    provider: zipkin\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := LoadSettings(context.Background(), WithContent([]byte(tt.doc), codec.TypeYAML))
			require.Error(t, err)
		})
	}
}

func TestSettingsValidateCollectsAll(t *testing.T) {
	t.Parallel()

	s := Settings{
		Versioning: VersioningSettings{Method: "custom", ErrorFormat: "xml"},
		Logging:    LoggingSettings{Format: "json"},
		Telemetry: TelemetrySettings{
			Metrics: MetricsSettings{Provider: "prometheus"},
			Tracing: TracingSettings{Provider: "noop"},
		},
	}
	err := s.Validate()
	require.ErrorIs(t, err, ErrInvalidSettings)
	assert.Contains(t, err.Error(), "versioning.method")
	assert.Contains(t, err.Error(), "defaultVersion is required")
	assert.Contains(t, err.Error(), "errorFormat")
	assert.Contains(t, err.Error(), "server.maxBodyBytes")
}
