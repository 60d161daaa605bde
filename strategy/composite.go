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

package strategy

import (
	"net/http"
	"slices"
)

type compositeStrategy struct {
	strategies []Strategy
}

// NewComposite tries each strategy in order and takes the first token found.
// Apply delegates to the first strategy.
func NewComposite(strategies ...Strategy) (Strategy, error) {
	strategies = slices.DeleteFunc(slices.Clone(strategies), func(s Strategy) bool { return s == nil })
	if len(strategies) == 0 {
		return nil, ErrNoStrategies
	}
	return &compositeStrategy{strategies: strategies}, nil
}

func (s *compositeStrategy) Extract(r *http.Request) (string, bool) {
	for _, inner := range s.strategies {
		if token, ok := inner.Extract(r); ok {
			return token, true
		}
	}
	return "", false
}

func (s *compositeStrategy) Apply(w http.ResponseWriter, r *http.Request, version string) {
	s.strategies[0].Apply(w, r, version)
}

func (s *compositeStrategy) Method() string {
	return string(KindComposite)
}

// Strategies returns the wrapped strategies in evaluation order.
func (s *compositeStrategy) Strategies() []Strategy {
	return slices.Clone(s.strategies)
}
