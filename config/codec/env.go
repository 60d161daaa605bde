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

package codec

import (
	"errors"
	"fmt"
	"strings"
)

// Env decodes KEY=value lines into a nested map. Keys are lowercased and
// every underscore starts a nested level:
//
//	VERSIONING_DEFAULTVERSION=2.0.0 -> versioning.defaultversion = "2.0.0"
//
// Values stay strings; binding coerces them.
type Env struct{}

// Encode is not supported.
func (Env) Encode(any) ([]byte, error) {
	return nil, errors.New("encoding to environment variables is not supported")
}

// Decode requires v to be a *map[string]any.
func (Env) Decode(data []byte, v any) error {
	out, ok := v.(*map[string]any)
	if !ok {
		return fmt.Errorf("codec.Env: expected *map[string]any, got %T", v)
	}

	conf := make(map[string]any)
	for _, line := range strings.Split(string(data), "\n") {
		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}

		var parts []string
		for _, p := range strings.Split(strings.ToLower(strings.TrimSpace(key)), "_") {
			if p != "" {
				parts = append(parts, p)
			}
		}
		if len(parts) == 0 {
			continue
		}

		current := conf
		for _, p := range parts[:len(parts)-1] {
			next, ok := current[p].(map[string]any)
			if !ok {
				next = make(map[string]any)
				current[p] = next
			}
			current = next
		}
		current[parts[len(parts)-1]] = strings.TrimSpace(value)
	}

	*out = conf
	return nil
}
