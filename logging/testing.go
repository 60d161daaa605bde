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

package logging

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// LogEntry represents a parsed log entry for testing.
type LogEntry struct {
	Time    time.Time
	Level   string
	Message string
	Attrs   map[string]any
}

// NewTestLogger creates a debug level JSON [Logger] writing to an in-memory
// buffer. Inspect the output with [ParseJSONLogEntries].
func NewTestLogger() (*Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	logger := MustNew(
		WithJSONHandler(),
		WithOutput(buf),
		WithLevel(LevelDebug),
	)
	return logger, buf
}

// ParseJSONLogEntries parses JSON log lines without consuming buf.
func ParseJSONLogEntries(buf *bytes.Buffer) ([]LogEntry, error) {
	var entries []LogEntry
	scanner := bufio.NewScanner(bytes.NewReader(buf.Bytes()))
	for scanner.Scan() {
		var raw map[string]any
		if err := json.Unmarshal(scanner.Bytes(), &raw); err != nil {
			return nil, err
		}

		entry := LogEntry{Attrs: make(map[string]any)}
		for k, v := range raw {
			switch k {
			case "msg":
				entry.Message, _ = v.(string)
			case "level":
				entry.Level, _ = v.(string)
			case "time":
				if s, ok := v.(string); ok {
					entry.Time, _ = time.Parse(time.RFC3339Nano, s)
				}
			default:
				entry.Attrs[k] = v
			}
		}
		entries = append(entries, entry)
	}

	return entries, scanner.Err()
}

// TestHelper bundles a test logger with assertions over its output.
type TestHelper struct {
	Logger *Logger
	Buffer *bytes.Buffer
}

// NewTestHelper creates a [TestHelper]. Options are applied after the
// in-memory JSON defaults.
func NewTestHelper(t *testing.T, opts ...Option) *TestHelper {
	t.Helper()

	buf := &bytes.Buffer{}
	all := append([]Option{WithJSONHandler(), WithOutput(buf), WithLevel(LevelDebug)}, opts...)

	return &TestHelper{Logger: MustNew(all...), Buffer: buf}
}

// Logs returns all parsed log entries.
func (th *TestHelper) Logs() ([]LogEntry, error) {
	return ParseJSONLogEntries(th.Buffer)
}

// ContainsLog reports whether any entry has the given message.
func (th *TestHelper) ContainsLog(msg string) bool {
	entries, err := th.Logs()
	if err != nil {
		return false
	}
	for _, e := range entries {
		if e.Message == msg {
			return true
		}
	}
	return false
}

// CountLevel returns the number of entries at the given level.
func (th *TestHelper) CountLevel(level string) int {
	entries, err := th.Logs()
	if err != nil {
		return 0
	}
	n := 0
	for _, e := range entries {
		if e.Level == level {
			n++
		}
	}
	return n
}

// AssertLog fails t unless an entry exists with the level, message and
// attributes given. Attribute values are compared by their printed form.
func (th *TestHelper) AssertLog(t *testing.T, level, msg string, attrs map[string]any) {
	t.Helper()

	entries, err := th.Logs()
	require.NoError(t, err, "failed to parse logs")

	for _, e := range entries {
		if e.Level != level || e.Message != msg {
			continue
		}
		matched := true
		for k, want := range attrs {
			if fmt.Sprint(e.Attrs[k]) != fmt.Sprint(want) {
				matched = false
				break
			}
		}
		if matched {
			return
		}
	}
	require.Failf(t, "log entry not found", "level=%s msg=%q attrs=%v", level, msg, attrs)
}
