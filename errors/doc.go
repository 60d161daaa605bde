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

// Package errors turns version negotiation and handler failures into HTTP
// error responses.
//
// Two formats are provided:
//   - RFC9457: RFC 9457 Problem Details (application/problem+json), the default
//   - Simple: a flat {"error", "code", "details"} JSON object
//
// Errors control their own rendering by implementing optional interfaces:
//
//   - ErrorType: declares the HTTP status code
//   - ErrorCode: a machine-readable code such as UNSUPPORTED_VERSION
//   - ErrorDetails: structured details, e.g. the supported version set
//
// The version package's errors implement all three, so a strict-mode
// rejection renders as:
//
//	{
//	  "type": "https://api.example.com/problems/UNSUPPORTED_VERSION",
//	  "title": "Bad Request",
//	  "status": 400,
//	  "detail": "unsupported version 9.0.0: supported versions are 1.0.0, 2.0.0",
//	  "instance": "/users",
//	  "code": "UNSUPPORTED_VERSION",
//	  "errors": {"requested": "9.0.0", "supported": ["1.0.0", "2.0.0"]},
//	  "error_id": "7c0a..."
//	}
//
// Use [Write] to send a formatted error:
//
//	if err != nil {
//		_ = errors.Write(w, r, errors.NewRFC9457(baseURL), err)
//		return
//	}
package errors
