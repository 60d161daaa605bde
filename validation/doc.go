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

// Package validation checks version declarations, endpoint registrations and
// request bodies.
//
// Struct validation uses go-playground/validator tags with JSON field names
// in paths. Two domain tags are registered: "apiversion" and "httpmethod".
// Body validation uses compiled JSON Schemas attached to a route version.
//
// Failures are returned as [*Error], which renders as a 422 problem through
// rivaas.dev/apicompat/errors with every failed field under "errors".
package validation
