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

import "time"

// LifecycleOption configures a version's deprecation lifecycle.
// These options are passed to [Registry.Deprecate].
type LifecycleOption func(*Record)

// DeprecatedSince records when the deprecation was announced.
// Without it, [Registry.Deprecate] stamps the registry clock's current time.
//
// Example:
//
//	reg.Deprecate("1.0.0",
//	    version.DeprecatedSince(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
//	)
func DeprecatedSince(date time.Time) LifecycleOption {
	return func(r *Record) {
		r.DeprecationDate = date
	}
}

// Sunset sets when this version is intended to stop being served.
// It is informational unless sunset enforcement is enabled on the middleware.
//
// Example:
//
//	reg.Deprecate("1.0.0",
//	    version.Sunset(time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)),
//	)
func Sunset(date time.Time) LifecycleOption {
	return func(r *Record) {
		r.SunsetDate = date
	}
}

// MigrationDocs sets the URL for migration documentation.
// It is advertised in Link headers with rel=deprecation and rel=sunset.
func MigrationDocs(url string) LifecycleOption {
	return func(r *Record) {
		r.MigrationURL = url
	}
}

// SuccessorVersion names the version clients should migrate to.
// It takes precedence over the registry's own upgrade target lookup.
func SuccessorVersion(v string) LifecycleOption {
	return func(r *Record) {
		if normalized, err := Normalize(v); err == nil {
			r.Successor = normalized
		}
	}
}
