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

// Match is the outcome of a successful negotiation.
type Match struct {
	// Requested is the normalized version the client asked for.
	Requested string

	// Selected is the registered version that will serve the request.
	Selected string

	// Exact is true when Selected == Requested.
	Exact bool
}

// Negotiate picks the registered version that should serve requested.
//
// An exact match wins. Otherwise the numerically greatest entry of available
// sharing requested's major is selected: minor and patch increments within a
// major line are treated as backward compatible. When nothing shares the
// major, an [*IncompatibleError] listing available (ascending) is returned.
//
// Entries of available are expected to be normalized.
func Negotiate(requested string, available []string) (Match, error) {
	for _, v := range available {
		if v == requested {
			return Match{Requested: requested, Selected: v, Exact: true}, nil
		}
	}

	var best string
	for _, v := range available {
		if !SameMajor(v, requested) {
			continue
		}
		if best == "" || Compare(v, best) > 0 {
			best = v
		}
	}

	if best == "" {
		return Match{}, &IncompatibleError{
			Requested: requested,
			Available: Sorted(available),
		}
	}

	return Match{Requested: requested, Selected: best}, nil
}

// Supports reports whether requested matches one of supported exactly or by
// major. This is the global check used by strict mode.
func Supports(supported []string, requested string) bool {
	for _, v := range supported {
		if v == requested || SameMajor(v, requested) {
			return true
		}
	}
	return false
}
