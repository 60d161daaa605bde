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

package docs

import (
	"slices"
	"time"

	"rivaas.dev/apicompat/version"
)

// Changelog lists versions newest first.
type Changelog struct {
	Title    string  `json:"title" yaml:"title"`
	Versions []Entry `json:"versions" yaml:"versions"`
}

// Entry is one version in a [Changelog]. Dates are formatted YYYY-MM-DD and
// empty when unknown.
type Entry struct {
	Version         string   `json:"version" yaml:"version"`
	ReleaseDate     string   `json:"releaseDate,omitempty" yaml:"releaseDate,omitempty"`
	Deprecated      bool     `json:"deprecated" yaml:"deprecated"`
	DeprecationDate string   `json:"deprecationDate,omitempty" yaml:"deprecationDate,omitempty"`
	SunsetDate      string   `json:"sunsetDate,omitempty" yaml:"sunsetDate,omitempty"`
	Changes         []string `json:"changes" yaml:"changes"`
	BreakingChanges []string `json:"breakingChanges" yaml:"breakingChanges"`
	MigrationURL    string   `json:"migrationUrl,omitempty" yaml:"migrationUrl,omitempty"`
	Successor       string   `json:"successor,omitempty" yaml:"successor,omitempty"`
}

// DefaultTitle is used when a changelog has no title.
const DefaultTitle = "API Changelog"

// FromRecords builds a changelog from registry records.
func FromRecords(records []version.Record) Changelog {
	entries := make([]Entry, 0, len(records))
	for _, rec := range records {
		entries = append(entries, Entry{
			Version:         rec.Version,
			ReleaseDate:     Date(rec.ReleaseDate),
			Deprecated:      rec.Deprecated,
			DeprecationDate: Date(rec.DeprecationDate),
			SunsetDate:      Date(rec.SunsetDate),
			Changes:         nonNil(rec.Changes),
			BreakingChanges: nonNil(rec.BreakingChanges),
			MigrationURL:    rec.MigrationURL,
			Successor:       rec.Successor,
		})
	}
	slices.SortFunc(entries, func(a, b Entry) int { return version.Compare(b.Version, a.Version) })

	return Changelog{Title: DefaultTitle, Versions: entries}
}

// Date formats t as YYYY-MM-DD in UTC, or "" for the zero time.
func Date(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.DateOnly)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return slices.Clone(s)
}
