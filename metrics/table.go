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

package metrics

import (
	"cmp"
	"slices"
	"sync"
	"time"

	"rivaas.dev/apicompat/version"
)

// Key identifies one metrics entry: a resolved API version served on one
// endpoint.
type Key struct {
	Version string
	Method  string
	Path    string
}

// Endpoint renders the key's endpoint as "METHOD /path".
func (k Key) Endpoint() string {
	return k.Method + " " + k.Path
}

// entry is guarded by its own mutex so unrelated endpoints never contend.
type entry struct {
	mu           sync.Mutex
	requests     int64
	errors       int64
	avg          time.Duration
	lastAccessed time.Time
}

// Snapshot is a point-in-time copy of one entry.
type Snapshot struct {
	Version             string        `json:"version"`
	Endpoint            string        `json:"endpoint"`
	Method              string        `json:"method"`
	Path                string        `json:"path"`
	RequestCount        int64         `json:"requestCount"`
	ErrorCount          int64         `json:"errorCount"`
	AverageResponseTime time.Duration `json:"-"`
	AverageResponseMS   float64       `json:"averageResponseTime"`
	LastAccessed        time.Time     `json:"lastAccessed"`
}

// Summary aggregates all entries.
type Summary struct {
	TotalRequests       int64                     `json:"totalRequests"`
	TotalErrors         int64                     `json:"totalErrors"`
	ErrorRate           float64                   `json:"errorRate"`
	AverageResponseMS   float64                   `json:"averageResponseTime"`
	Versions            map[string]VersionSummary `json:"versions"`
	Endpoints           []Snapshot                `json:"endpoints"`
	averageResponseTime time.Duration
}

// VersionSummary aggregates the entries of one API version.
type VersionSummary struct {
	RequestCount int64 `json:"requestCount"`
	ErrorCount   int64 `json:"errorCount"`
	Endpoints    int   `json:"endpoints"`
}

// Table holds per (version, method, path) request statistics.
//
// Thread-safety: all methods are safe for concurrent use. Updates to the same
// key serialize on that key's lock; the first insert of a key is resolved by
// [sync.Map.LoadOrStore] so concurrent first requests never lose a count.
type Table struct {
	entries sync.Map // Key -> *entry
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{}
}

func (t *Table) load(k Key) *entry {
	if e, ok := t.entries.Load(k); ok {
		return e.(*entry)
	}
	e, _ := t.entries.LoadOrStore(k, &entry{})
	return e.(*entry)
}

// Record counts one request. The average response time is a running mean,
// avg' = (avg*(n-1) + sample) / n, so no sample history is kept.
// A non-nil err also increments the error count.
func (t *Table) Record(k Key, elapsed time.Duration, err error, at time.Time) {
	e := t.load(k)

	e.mu.Lock()
	defer e.mu.Unlock()

	e.requests++
	n := e.requests
	e.avg = (e.avg*time.Duration(n-1) + elapsed) / time.Duration(n)
	if err != nil {
		e.errors++
	}
	e.lastAccessed = at
}

// Get returns the snapshot for k.
func (t *Table) Get(k Key) (Snapshot, bool) {
	e, ok := t.entries.Load(k)
	if !ok {
		return Snapshot{}, false
	}
	return e.(*entry).snapshot(k), true
}

func (e *entry) snapshot(k Key) Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	return Snapshot{
		Version:             k.Version,
		Endpoint:            k.Endpoint(),
		Method:              k.Method,
		Path:                k.Path,
		RequestCount:        e.requests,
		ErrorCount:          e.errors,
		AverageResponseTime: e.avg,
		AverageResponseMS:   float64(e.avg) / float64(time.Millisecond),
		LastAccessed:        e.lastAccessed,
	}
}

// Snapshots returns all entries ordered by version, path and method.
func (t *Table) Snapshots() []Snapshot {
	var out []Snapshot
	t.entries.Range(func(k, e any) bool {
		out = append(out, e.(*entry).snapshot(k.(Key)))
		return true
	})
	slices.SortFunc(out, func(a, b Snapshot) int {
		return cmp.Or(
			version.Compare(a.Version, b.Version),
			cmp.Compare(a.Path, b.Path),
			cmp.Compare(a.Method, b.Method),
		)
	})
	return out
}

// Summarize aggregates the table. The overall average response time is
// weighted by request count.
func (t *Table) Summarize() Summary {
	s := Summary{Versions: make(map[string]VersionSummary), Endpoints: t.Snapshots()}

	var weighted float64
	for _, snap := range s.Endpoints {
		s.TotalRequests += snap.RequestCount
		s.TotalErrors += snap.ErrorCount
		weighted += float64(snap.AverageResponseTime) * float64(snap.RequestCount)

		vs := s.Versions[snap.Version]
		vs.RequestCount += snap.RequestCount
		vs.ErrorCount += snap.ErrorCount
		vs.Endpoints++
		s.Versions[snap.Version] = vs
	}

	if s.TotalRequests > 0 {
		s.ErrorRate = float64(s.TotalErrors) / float64(s.TotalRequests)
		s.averageResponseTime = time.Duration(weighted / float64(s.TotalRequests))
		s.AverageResponseMS = float64(s.averageResponseTime) / float64(time.Millisecond)
	}
	if s.Endpoints == nil {
		s.Endpoints = []Snapshot{}
	}

	return s
}

// AverageResponseTime returns the request weighted mean response time.
func (s Summary) AverageResponseTime() time.Duration {
	return s.averageResponseTime
}

// Reset removes all entries.
func (t *Table) Reset() {
	t.entries.Clear()
}
