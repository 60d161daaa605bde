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

// Package logging provides structured logging over [log/slog] with JSON, text
// and colored console handlers.
//
// Service metadata (service, service_version, env) is attached to every entry,
// secrets under well-known keys are redacted, and the level can be changed at
// runtime. [ContextLogger] adds trace_id and span_id when the request context
// carries an OpenTelemetry span.
//
//	logger := logging.MustNew(
//	    logging.WithConsoleHandler(),
//	    logging.WithServiceName("orders-api"),
//	)
//	logger.Warn("deprecated API version requested", "api_version", "1.0.0")
//
// Tests use [NewTestLogger] or [NewTestHelper] to capture JSON output.
package logging
