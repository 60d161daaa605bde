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

package versioning

import "errors"

// Configuration errors returned by [New].
var (
	ErrDefaultRequired     = errors.New("default version is required")
	ErrNoSupportedVersions = errors.New("supported version set cannot be empty")
	ErrNilStrategy         = errors.New("strategy cannot be nil")
	ErrEmptyHeaderName     = errors.New("header name cannot be empty")
	ErrEmptyQueryParam     = errors.New("query parameter name cannot be empty")
	ErrEmptyVendor         = errors.New("vendor cannot be empty")
	ErrNilClock            = errors.New("clock function cannot be nil")
	ErrNilFormatter        = errors.New("error formatter cannot be nil")
)
