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

import (
	"context"
	"slices"
	"sync"
)

type contextKey struct{}

// State is the request scoped result of version resolution.
type State struct {
	// Version is the resolved normalized version.
	Version string

	// Requested is the raw token the client sent, empty when the default
	// was used.
	Requested string

	// Method names the strategy that resolved the version.
	Method string

	// OriginalPath is the request path before the strategy rewrote it.
	OriginalPath string

	// Path is the routing path after any version segment was stripped.
	Path string

	// Deprecated is true when Version is a deprecated registered version.
	Deprecated bool

	mu        sync.Mutex
	warnings  []string
	bodyFuncs []BodyFunc
}

// WithState returns a copy of ctx carrying s.
func WithState(ctx context.Context, s *State) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the resolution state stored by the middleware.
func FromContext(ctx context.Context) (*State, bool) {
	s, ok := ctx.Value(contextKey{}).(*State)
	return s, ok && s != nil
}

// VersionFromContext returns the resolved version, or "" outside the
// middleware.
func VersionFromContext(ctx context.Context) string {
	if s, ok := FromContext(ctx); ok {
		return s.Version
	}
	return ""
}

// AddWarning appends a client facing warning.
func (s *State) AddWarning(msg string) {
	s.mu.Lock()
	s.warnings = append(s.warnings, msg)
	s.mu.Unlock()
}

// Warnings returns a copy of the warnings added so far.
func (s *State) Warnings() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.warnings)
}

// AppendBodyFunc schedules fn to rewrite the buffered response body. Funcs
// run in the order they were appended, before the envelope is applied.
func (s *State) AppendBodyFunc(fn BodyFunc) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	s.bodyFuncs = append(s.bodyFuncs, fn)
	s.mu.Unlock()
}

func (s *State) pendingBodyFuncs() []BodyFunc {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.bodyFuncs)
}

// Detach returns a copy of s without its scheduled body funcs. It is used
// when a response is flushed apart from the one s was created for.
func (s *State) Detach() *State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return &State{
		Version:      s.Version,
		Requested:    s.Requested,
		Method:       s.Method,
		OriginalPath: s.OriginalPath,
		Path:         s.Path,
		Deprecated:   s.Deprecated,
		warnings:     slices.Clone(s.warnings),
	}
}
