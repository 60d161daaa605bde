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

//go:build !integration

package errors

import "net/http"

// versionError mimics the typed errors of the version package.
type versionError struct {
	message   string
	code      string
	status    int
	supported []string
}

func (e *versionError) Error() string { return e.message }

func (e *versionError) Code() string { return e.code }

func (e *versionError) HTTPStatus() int { return e.status }

func (e *versionError) Details() any {
	return map[string]any{"supported": e.supported}
}

type plainError struct {
	message string
}

func (e *plainError) Error() string { return e.message }

type headerError struct {
	plainError
	header http.Header
}

func (e *headerError) Headers() http.Header { return e.header }
