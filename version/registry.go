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
	"fmt"
	"slices"
	"sync"
	"time"
)

// Spec declares a version for [Registry.Add].
type Spec struct {
	Version         string    `json:"version" config:"version" validate:"required,max=32"`
	ReleaseDate     time.Time `json:"releaseDate" config:"releaseDate" validate:"required"`
	Changes         []string  `json:"changes" config:"changes" validate:"dive,required"`
	BreakingChanges []string  `json:"breakingChanges,omitempty" config:"breakingChanges" validate:"dive,required"`
	Deprecated      bool      `json:"deprecated,omitempty" config:"deprecated"`
	DeprecationDate time.Time `json:"deprecationDate,omitzero" config:"deprecationDate"`
	SunsetDate      time.Time `json:"sunsetDate,omitzero" config:"sunsetDate"`
	MigrationURL    string    `json:"migrationUrl,omitempty" config:"migrationUrl" validate:"omitempty,url"`
	Successor       string    `json:"successor,omitempty" config:"successor"`
}

// Record is a registered API version.
// Records are created by [Registry.Add], only ever mutated by
// [Registry.Deprecate], and never removed.
type Record struct {
	Version         string    `json:"version"`
	ReleaseDate     time.Time `json:"releaseDate"`
	Deprecated      bool      `json:"deprecated"`
	DeprecationDate time.Time `json:"deprecationDate,omitzero"`
	SunsetDate      time.Time `json:"sunsetDate,omitzero"`
	Changes         []string  `json:"changes"`
	BreakingChanges []string  `json:"breakingChanges"`
	MigrationURL    string    `json:"migrationUrl,omitempty"`
	Successor       string    `json:"successor,omitempty"`
}

// HasSunset reports whether a sunset date is recorded.
func (r Record) HasSunset() bool {
	return !r.SunsetDate.IsZero()
}

// SunsetPassed reports whether now is after the recorded sunset date.
func (r Record) SunsetPassed(now time.Time) bool {
	return r.Deprecated && r.HasSunset() && now.After(r.SunsetDate)
}

func (r Record) clone() Record {
	r.Changes = slices.Clone(r.Changes)
	r.BreakingChanges = slices.Clone(r.BreakingChanges)
	return r
}

// Registry is the in-memory table of known API versions.
//
// Thread-safety: reads and writes are safe for concurrent use. The registry
// is read on every request and written only by administrative calls.
type Registry struct {
	mu       sync.RWMutex
	versions map[string]*Record
	now      func() time.Time
}

// RegistryOption configures a [Registry].
type RegistryOption func(*Registry)

// WithRegistryClock sets the clock used to stamp deprecation dates.
func WithRegistryClock(now func() time.Time) RegistryOption {
	return func(r *Registry) {
		if now != nil {
			r.now = now
		}
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		versions: make(map[string]*Record),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Add registers a version. The version string is normalized; registering the
// same normalized version twice fails with [ErrVersionExists].
func (r *Registry) Add(spec Spec) (Record, error) {
	if spec.Version == "" {
		return Record{}, ErrEmptyVersion
	}
	v, err := Normalize(spec.Version)
	if err != nil {
		return Record{}, err
	}

	rec := &Record{
		Version:         v,
		ReleaseDate:     spec.ReleaseDate,
		Deprecated:      spec.Deprecated,
		DeprecationDate: spec.DeprecationDate,
		SunsetDate:      spec.SunsetDate,
		Changes:         slices.Clone(spec.Changes),
		BreakingChanges: slices.Clone(spec.BreakingChanges),
		MigrationURL:    spec.MigrationURL,
	}
	if rec.Changes == nil {
		rec.Changes = []string{}
	}
	if rec.BreakingChanges == nil {
		rec.BreakingChanges = []string{}
	}
	if spec.Successor != "" {
		successor, err := Normalize(spec.Successor)
		if err != nil {
			return Record{}, fmt.Errorf("successor: %w", err)
		}
		rec.Successor = successor
	}
	if rec.Deprecated && rec.DeprecationDate.IsZero() {
		rec.DeprecationDate = r.now()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.versions[v]; exists {
		return Record{}, fmt.Errorf("%w: %s", ErrVersionExists, v)
	}
	r.versions[v] = rec

	return rec.clone(), nil
}

// Get returns the record for v. The lookup normalizes v first.
func (r *Registry) Get(v string) (Record, bool) {
	normalized, err := Normalize(v)
	if err != nil {
		return Record{}, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.versions[normalized]
	if !ok {
		return Record{}, false
	}
	return rec.clone(), true
}

// Has reports whether v is registered.
func (r *Registry) Has(v string) bool {
	_, ok := r.Get(v)
	return ok
}

// Deprecate transitions v to the deprecated state. Deprecation is terminal;
// calling it again only updates the lifecycle fields the options set.
func (r *Registry) Deprecate(v string, opts ...LifecycleOption) (Record, error) {
	normalized, err := Normalize(v)
	if err != nil {
		return Record{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.versions[normalized]
	if !ok {
		return Record{}, &NotFoundError{Version: normalized}
	}

	rec.Deprecated = true
	for _, opt := range opts {
		opt(rec)
	}
	if rec.DeprecationDate.IsZero() {
		rec.DeprecationDate = r.now()
	}

	return rec.clone(), nil
}

// List returns all records ordered by version ascending.
func (r *Registry) List() []Record {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Record, 0, len(r.versions))
	for _, rec := range r.versions {
		out = append(out, rec.clone())
	}
	slices.SortFunc(out, func(a, b Record) int { return Compare(a.Version, b.Version) })

	return out
}

// Deprecated returns the deprecated records ordered ascending.
func (r *Registry) Deprecated() []Record {
	all := r.List()
	out := all[:0]
	for _, rec := range all {
		if rec.Deprecated {
			out = append(out, rec)
		}
	}
	return out
}

// Latest returns the highest registered version that is not deprecated.
func (r *Registry) Latest() (Record, bool) {
	all := r.List()
	for i := len(all) - 1; i >= 0; i-- {
		if !all[i].Deprecated {
			return all[i], true
		}
	}
	return Record{}, false
}

// UpgradeTarget returns the version a client of v should move to: the
// recorded successor if any, otherwise the latest non-deprecated version
// newer than v. Empty when no such version is registered.
func (r *Registry) UpgradeTarget(v string) string {
	rec, ok := r.Get(v)
	if ok && rec.Successor != "" {
		return rec.Successor
	}
	latest, ok := r.Latest()
	if !ok || Compare(latest.Version, v) <= 0 {
		return ""
	}
	return latest.Version
}
