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

package version

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Static errors for version handling.
// Typed errors below unwrap to these so callers can use errors.Is.
var (
	// Request errors
	ErrInvalidFormat           = errors.New("invalid version format")
	ErrUnsupported             = errors.New("unsupported version")
	ErrNotSupportedForEndpoint = errors.New("version not supported for endpoint")
	ErrSunset                  = errors.New("version has been sunset")

	// Registry errors
	ErrVersionNotFound = errors.New("version not found")
	ErrVersionExists   = errors.New("version already registered")
	ErrEmptyVersion    = errors.New("version cannot be empty")
)

// FormatError reports a malformed version token. It is terminal for the
// request.
type FormatError struct {
	Value string
	Err   error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid version format %q: expected major[.minor[.patch]] with optional leading 'v'", e.Value)
}

func (e *FormatError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrInvalidFormat}
	}
	return []error{ErrInvalidFormat, e.Err}
}

// HTTPStatus implements the errors.ErrorType contract.
func (e *FormatError) HTTPStatus() int { return http.StatusBadRequest }

// Code implements the errors.ErrorCode contract.
func (e *FormatError) Code() string { return "INVALID_VERSION_FORMAT" }

// Details implements the errors.ErrorDetails contract.
func (e *FormatError) Details() any {
	return map[string]any{"value": e.Value}
}

// UnsupportedError reports a well-formed version outside the supported set
// in strict mode.
type UnsupportedError struct {
	Requested string
	Supported []string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("unsupported version %s: supported versions are %s",
		e.Requested, strings.Join(e.Supported, ", "))
}

func (e *UnsupportedError) Unwrap() error { return ErrUnsupported }

func (e *UnsupportedError) HTTPStatus() int { return http.StatusBadRequest }

func (e *UnsupportedError) Code() string { return "UNSUPPORTED_VERSION" }

func (e *UnsupportedError) Details() any {
	return map[string]any{
		"requested": e.Requested,
		"supported": e.Supported,
	}
}

// IncompatibleError reports that no registered version of an endpoint is
// compatible with the requested one. Endpoint is empty when the error comes
// straight from [Negotiate].
type IncompatibleError struct {
	Endpoint  string
	Requested string
	Available []string
}

func (e *IncompatibleError) Error() string {
	target := "endpoint"
	if e.Endpoint != "" {
		target = "endpoint " + e.Endpoint
	}
	return fmt.Sprintf("version %s is not supported for %s: available versions are %s",
		e.Requested, target, strings.Join(e.Available, ", "))
}

func (e *IncompatibleError) Unwrap() error { return ErrNotSupportedForEndpoint }

func (e *IncompatibleError) HTTPStatus() int { return http.StatusBadRequest }

func (e *IncompatibleError) Code() string { return "VERSION_NOT_SUPPORTED_FOR_ENDPOINT" }

func (e *IncompatibleError) Details() any {
	d := map[string]any{
		"requested": e.Requested,
		"available": e.Available,
	}
	if e.Endpoint != "" {
		d["endpoint"] = e.Endpoint
	}
	return d
}

// NotFoundError reports a lookup of an unregistered version.
type NotFoundError struct {
	Version string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("version %s is not registered", e.Version)
}

func (e *NotFoundError) Unwrap() error { return ErrVersionNotFound }

func (e *NotFoundError) HTTPStatus() int { return http.StatusNotFound }

func (e *NotFoundError) Code() string { return "VERSION_NOT_FOUND" }

// SunsetError is returned for deprecated versions past their sunset date when
// sunset enforcement is enabled.
type SunsetError struct {
	Version string
	Sunset  time.Time
}

func (e *SunsetError) Error() string {
	return fmt.Sprintf("version %s was sunset on %s", e.Version, e.Sunset.UTC().Format(time.DateOnly))
}

func (e *SunsetError) Unwrap() error { return ErrSunset }

func (e *SunsetError) HTTPStatus() int { return http.StatusGone }

func (e *SunsetError) Code() string { return "VERSION_SUNSET" }
