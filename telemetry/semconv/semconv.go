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

package semconv

// Service metadata, set once on the resource or logger.
const (
	ServiceName    = "service.name"
	ServiceVersion = "service.version"
)

// HTTP attributes.
const (
	// HTTPRequestMethod is the request method, e.g. "GET".
	HTTPRequestMethod = "http.request.method"

	// HTTPRoute is the route template, e.g. "/users/{id}", never the raw path.
	HTTPRoute = "http.route"

	HTTPResponseStatusCode = "http.response.status_code"
	URLPath                = "url.path"
	UserAgentOriginal      = "user_agent.original"
)

// Version negotiation attributes.
const (
	// APIVersion is the version a request asked for, after normalization.
	APIVersion = "api.version"

	// APIVersionRequested and APIVersionSelected differ when the manager
	// served a compatible version of the endpoint.
	APIVersionRequested = "api.version.requested"
	APIVersionSelected  = "api.version.selected"

	// APINegotiation is the negotiation outcome: exact, compatible,
	// transformed or incompatible.
	APINegotiation = "api.negotiation"

	// Outcome labels request and negotiation metrics.
	Outcome = "outcome"

	// RejectionReason labels rejected version requests.
	RejectionReason = "reason"
)

// Exception attributes, set on spans when a handler panics.
const (
	ExceptionEscaped = "exception.escaped"
	ExceptionType    = "exception.type"
	ExceptionMessage = "exception.message"
)

// RequestID correlates log entries of a single request.
const RequestID = "request_id"
