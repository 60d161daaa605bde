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

package compat

import (
	"fmt"
	"slices"

	"rivaas.dev/apicompat/version"
)

// MigrationGuide describes how to move clients between two versions.
type MigrationGuide struct {
	From            string   `json:"from"`
	To              string   `json:"to"`
	Compatible      bool     `json:"compatible"`
	Steps           []string `json:"steps"`
	BreakingChanges []string `json:"breakingChanges"`
	MigrationURL    string   `json:"migrationUrl,omitempty"`
	SunsetDate      string   `json:"sunsetDate,omitempty"`
}

// MigrationGuide builds the guide for moving from one registered version to
// another. Both must be registered, otherwise a [*version.NotFoundError] is
// returned. Versions sharing a major are compatible and need no steps; a
// major change lists generic steps and the destination's breaking changes.
func (m *Manager) MigrationGuide(from, to string) (MigrationGuide, error) {
	src, err := m.record(from)
	if err != nil {
		return MigrationGuide{}, err
	}
	dst, err := m.record(to)
	if err != nil {
		return MigrationGuide{}, err
	}

	guide := MigrationGuide{
		From:            src.Version,
		To:              dst.Version,
		Steps:           []string{},
		BreakingChanges: []string{},
		MigrationURL:    src.MigrationURL,
	}
	if src.HasSunset() {
		guide.SunsetDate = src.SunsetDate.UTC().Format("2006-01-02")
	}

	if version.SameMajor(src.Version, dst.Version) {
		guide.Compatible = true
		return guide, nil
	}

	guide.BreakingChanges = slices.Clone(dst.BreakingChanges)
	guide.Steps = []string{
		fmt.Sprintf("Review the breaking changes introduced in version %s.", dst.Version),
		fmt.Sprintf("Request version %s instead of %s.", dst.Version, src.Version),
		"Update request payloads and response parsing for changed fields.",
	}
	if src.HasSunset() {
		guide.Steps = append(guide.Steps,
			fmt.Sprintf("Test your integration against version %s before %s.", dst.Version, guide.SunsetDate))
	} else {
		guide.Steps = append(guide.Steps,
			fmt.Sprintf("Test your integration against version %s.", dst.Version))
	}

	return guide, nil
}

// record looks up v. An identifier that cannot be a version names nothing
// registered, so it is reported as not found.
func (m *Manager) record(v string) (version.Record, error) {
	normalized, err := version.Normalize(v)
	if err != nil {
		return version.Record{}, &version.NotFoundError{Version: v}
	}
	rec, ok := m.registry.Get(normalized)
	if !ok {
		return version.Record{}, &version.NotFoundError{Version: normalized}
	}
	return rec, nil
}
