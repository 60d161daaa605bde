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

// Package middleware provides net/http middlewares that sit in front of a
// compat.Manager: request IDs, panic recovery, access logging and request
// body limits. Each lives in its own sub-package.
//
// Middlewares compose with [Chain]; the first one listed runs first:
//
//	h := middleware.Chain(manager,
//	    requestid.New(),
//	    recovery.New(recovery.WithLogger(logger)),
//	    accesslog.New(accesslog.WithLogger(logger.Logger())),
//	)
package middleware

import "net/http"

// Middleware wraps an http.Handler.
type Middleware func(http.Handler) http.Handler

// ContextKey is a type for context keys shared between middlewares.
type ContextKey string

// RequestIDKey is the context key for the request ID.
// Set by requestid, read by accesslog and recovery.
const RequestIDKey ContextKey = "middleware.request_id"

// Chain wraps h with mws so that mws[0] is the outermost handler.
func Chain(h http.Handler, mws ...Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		if mws[i] != nil {
			h = mws[i](h)
		}
	}
	return h
}

// RequestID returns the request ID stored in r's context, or "".
func RequestID(r *http.Request) string {
	if id, ok := r.Context().Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}
