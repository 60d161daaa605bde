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
	"net/http"
	"time"
)

// LogRequest logs an HTTP request with method, path, remote address and
// user agent. The query string is included only when present.
//
// Example:
//
//	logger.LogRequest(r, "api_version", "2.0.0", "status", 200)
func (l *Logger) LogRequest(r *http.Request, extra ...any) {
	if l.isShuttingDown.Load() {
		return
	}

	attrs := make([]any, 0, 10+len(extra))
	attrs = append(attrs,
		"method", r.Method,
		"path", r.URL.Path,
		"remote", r.RemoteAddr,
		"user_agent", r.UserAgent(),
	)
	if r.URL.RawQuery != "" {
		attrs = append(attrs, "query", r.URL.RawQuery)
	}
	attrs = append(attrs, extra...)
	l.Info("http request", attrs...)
}

// LogError logs err under the "error" key with additional context fields.
func (l *Logger) LogError(err error, msg string, extra ...any) {
	if l.isShuttingDown.Load() || err == nil {
		return
	}

	attrs := make([]any, 0, 2+len(extra))
	attrs = append(attrs, "error", err.Error())
	attrs = append(attrs, extra...)
	l.Error(msg, attrs...)
}

// LogDuration logs the time elapsed since start as duration_ms and duration.
func (l *Logger) LogDuration(msg string, start time.Time, extra ...any) {
	if l.isShuttingDown.Load() {
		return
	}

	d := time.Since(start)
	attrs := make([]any, 0, 4+len(extra))
	attrs = append(attrs,
		"duration_ms", d.Milliseconds(),
		"duration", d.String(),
	)
	attrs = append(attrs, extra...)
	l.Info(msg, attrs...)
}
