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

// Package semconv defines the attribute keys shared by logs, metrics and
// traces, so that a version negotiation can be followed across all three.
//
// Keys follow OpenTelemetry semantic conventions where one exists. The api.*
// keys describe version negotiation:
//
//	span.SetAttributes(
//	    attribute.String(semconv.APIVersionRequested, "1.0.0"),
//	    attribute.String(semconv.APIVersionSelected, "1.2.0"),
//	    attribute.String(semconv.APINegotiation, "compatible"),
//	)
//
// Log entries use the same keys where they apply:
//
//	logger.Info("access", semconv.RequestID, id, semconv.APIVersion, v)
package semconv
