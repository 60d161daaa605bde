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

package validation

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// ErrValidation is matched by every validation failure.
var ErrValidation = errors.New("validation")

// ErrNilValue is returned when asked to validate nil.
var ErrNilValue = errors.New("cannot validate nil value")

// FieldError is one failed rule.
type FieldError struct {
	Path    string         `json:"path"`           // JSON path, e.g. "versions.0.releaseDate"
	Code    string         `json:"code"`           // e.g. "tag.required", "schema.type"
	Message string         `json:"message"`        // human readable
	Meta    map[string]any `json:"meta,omitempty"` // tag, param, schema keyword
}

// Error returns "path: message", or just the message at the root.
func (e FieldError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// Error collects the failures of one validation pass. It renders as a 422
// problem with the field list under "errors".
type Error struct {
	Fields    []FieldError `json:"errors"`
	Truncated bool         `json:"truncated,omitempty"`
}

func (v *Error) Error() string {
	switch len(v.Fields) {
	case 0:
		return "validation failed"
	case 1:
		return v.Fields[0].Error()
	}

	msgs := make([]string, len(v.Fields))
	for i, f := range v.Fields {
		msgs[i] = f.Error()
	}
	suffix := ""
	if v.Truncated {
		suffix = " (truncated)"
	}
	return fmt.Sprintf("validation failed: %s%s", strings.Join(msgs, "; "), suffix)
}

func (v *Error) Unwrap() error { return ErrValidation }

// HTTPStatus implements rivaas.dev/apicompat/errors.ErrorType.
func (v *Error) HTTPStatus() int { return http.StatusUnprocessableEntity }

// Code implements rivaas.dev/apicompat/errors.ErrorCode.
func (v *Error) Code() string { return "VALIDATION_ERROR" }

// Details implements rivaas.dev/apicompat/errors.ErrorDetails.
func (v *Error) Details() any { return v.Fields }

// Add appends a field error.
func (v *Error) Add(path, code, message string, meta map[string]any) {
	v.Fields = append(v.Fields, FieldError{Path: path, Code: code, Message: message, Meta: meta})
}

// HasErrors reports whether any field failed.
func (v *Error) HasErrors() bool {
	return v != nil && len(v.Fields) > 0
}

// Sort orders fields by path, then code.
func (v *Error) Sort() {
	sort.SliceStable(v.Fields, func(i, j int) bool {
		if v.Fields[i].Path != v.Fields[j].Path {
			return v.Fields[i].Path < v.Fields[j].Path
		}
		return v.Fields[i].Code < v.Fields[j].Code
	})
}

func (v *Error) full(limit int) bool {
	if limit > 0 && len(v.Fields) >= limit {
		v.Truncated = true
		return true
	}
	return false
}
