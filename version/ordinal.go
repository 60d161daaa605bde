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
	"slices"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// ordinalParts is the number of components in a normalized version.
const ordinalParts = 3

// Normalize converts a client supplied token into a three-part ordinal.
// A leading "v" or "V" is stripped and missing components are padded with
// zeros, so "v1", "1" and "1.0" all become "1.0.0".
//
// Returns a [*FormatError] when the token is not a plain numeric ordinal.
func Normalize(raw string) (string, error) {
	token := strings.TrimSpace(raw)
	if len(token) > 0 && (token[0] == 'v' || token[0] == 'V') {
		token = token[1:]
	}
	if token == "" {
		return "", &FormatError{Value: raw}
	}

	parts := strings.Split(token, ".")
	if len(parts) > ordinalParts {
		return "", &FormatError{Value: raw}
	}
	for len(parts) < ordinalParts {
		parts = append(parts, "0")
	}

	v, err := semver.StrictNewVersion(strings.Join(parts, "."))
	if err != nil {
		return "", &FormatError{Value: raw, Err: err}
	}
	if v.Prerelease() != "" || v.Metadata() != "" {
		return "", &FormatError{Value: raw}
	}

	return v.String(), nil
}

// MustNormalize is like [Normalize] but panics on malformed input.
// Intended for constants in tests and static configuration.
func MustNormalize(raw string) string {
	v, err := Normalize(raw)
	if err != nil {
		panic(err)
	}
	return v
}

// Valid reports whether raw normalizes without error.
func Valid(raw string) bool {
	_, err := Normalize(raw)
	return err == nil
}

// Major returns the major component of a version. Malformed input yields 0
// and false.
func Major(v string) (uint64, bool) {
	parsed, ok := parse(v)
	if !ok {
		return 0, false
	}
	return parsed.Major(), true
}

// SameMajor reports whether two versions share a major component.
func SameMajor(a, b string) bool {
	ma, okA := Major(a)
	mb, okB := Major(b)
	return okA && okB && ma == mb
}

// Compare returns -1, 0 or +1 comparing a and b numerically.
// Malformed versions sort before well-formed ones.
func Compare(a, b string) int {
	va, okA := parse(a)
	vb, okB := parse(b)
	switch {
	case !okA && !okB:
		return strings.Compare(a, b)
	case !okA:
		return -1
	case !okB:
		return 1
	}
	return va.Compare(vb)
}

// Sort orders versions ascending in place.
func Sort(versions []string) {
	slices.SortFunc(versions, Compare)
}

// SortDesc orders versions descending in place.
func SortDesc(versions []string) {
	slices.SortFunc(versions, func(a, b string) int { return Compare(b, a) })
}

// Sorted returns an ascending copy of versions.
func Sorted(versions []string) []string {
	out := slices.Clone(versions)
	Sort(out)
	return out
}

func parse(v string) (*semver.Version, bool) {
	normalized, err := Normalize(v)
	if err != nil {
		return nil, false
	}
	parsed, err := semver.StrictNewVersion(normalized)
	if err != nil {
		return nil, false
	}
	return parsed, true
}
