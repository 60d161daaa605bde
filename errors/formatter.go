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

package errors

import (
	"encoding/json"
	"errors"
	"net/http"
)

// Formatter defines how errors are formatted in HTTP responses.
type Formatter interface {
	// Format converts an error into HTTP response components.
	// The request is used for the problem instance URI.
	Format(req *http.Request, err error) Response
}

// Response represents a formatted error response.
type Response struct {
	// Status is the HTTP status code.
	Status int

	// ContentType is the Content-Type header value.
	ContentType string

	// Body is marshaled to JSON by [Write].
	Body any

	// Headers contains additional headers to set (optional).
	Headers http.Header
}

// ErrorType allows errors to declare their own HTTP status code.
//
// Example:
//
//	func (e *UnsupportedError) HTTPStatus() int {
//		return http.StatusBadRequest
//	}
type ErrorType interface {
	error
	HTTPStatus() int
}

// ErrorDetails allows errors to provide additional structured information,
// such as the versions a client may retry with.
type ErrorDetails interface {
	error
	Details() any
}

// ErrorCode allows errors to provide a machine-readable code.
type ErrorCode interface {
	error
	Code() string
}

// ErrorHeaders allows errors to contribute response headers, for example
// Supported-Versions on a rejected version.
type ErrorHeaders interface {
	error
	Headers() http.Header
}

// NewRFC9457 creates a new RFC9457 formatter.
// The baseURL parameter is prepended to error codes to create problem type URIs.
//
// Example:
//
//	formatter := errors.NewRFC9457("https://api.example.com/problems")
func NewRFC9457(baseURL string) *RFC9457 {
	return &RFC9457{
		BaseURL: baseURL,
	}
}

// NewSimple creates a new Simple formatter.
func NewSimple() *Simple {
	return &Simple{}
}

// WithStatus wraps an error with an explicit HTTP status code.
// If err is nil, the status text for the given status code is used as the error message.
//
// Example:
//
//	return errors.WithStatus(err, http.StatusUnprocessableEntity)
func WithStatus(err error, status int) error {
	return &statusError{err: err, status: status}
}

type statusError struct {
	err    error
	status int
}

func (e *statusError) Error() string {
	if e.err == nil {
		return http.StatusText(e.status)
	}
	return e.err.Error()
}

func (e *statusError) Unwrap() error {
	return e.err
}

func (e *statusError) HTTPStatus() int {
	return e.status
}

// StatusOf returns the status an error declares through [ErrorType], or 500.
func StatusOf(err error) int {
	var typed ErrorType
	if errors.As(err, &typed) {
		return typed.HTTPStatus()
	}
	return http.StatusInternalServerError
}

// Write formats err with f and writes the response. Headers already set on w
// (API-Version, Supported-Versions) are preserved.
func Write(w http.ResponseWriter, req *http.Request, f Formatter, err error) error {
	if f == nil {
		f = NewRFC9457("")
	}
	resp := f.Format(req, err)

	h := w.Header()
	for key, values := range resp.Headers {
		for _, v := range values {
			h.Add(key, v)
		}
	}
	var withHeaders ErrorHeaders
	if errors.As(err, &withHeaders) {
		for key, values := range withHeaders.Headers() {
			h[http.CanonicalHeaderKey(key)] = values
		}
	}
	h.Set("Content-Type", resp.ContentType)
	h.Set("X-Content-Type-Options", "nosniff")
	h.Del("Content-Length")

	w.WriteHeader(resp.Status)
	return json.NewEncoder(w).Encode(resp.Body)
}
