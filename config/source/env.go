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

package source

import (
	"context"
	"fmt"
	"os"
	"strings"

	"rivaas.dev/apicompat/config/codec"
)

// Env loads variables that start with a prefix. The prefix is stripped and
// the remainder decoded by [codec.Env]: with prefix "APICOMPAT_",
// APICOMPAT_SERVER_ADDR becomes server.addr.
type Env struct {
	prefix  string
	environ func() []string
}

// NewEnv reads the process environment.
func NewEnv(prefix string) *Env {
	return &Env{prefix: prefix, environ: os.Environ}
}

// Load implements config.Source.
func (e *Env) Load(context.Context) (map[string]any, error) {
	var lines []string
	for _, kv := range e.environ() {
		if rest, ok := strings.CutPrefix(kv, e.prefix); ok {
			lines = append(lines, rest)
		}
	}

	var conf map[string]any
	if err := (codec.Env{}).Decode([]byte(strings.Join(lines, "\n")), &conf); err != nil {
		return nil, fmt.Errorf("failed to decode environment variables: %w", err)
	}
	return conf, nil
}
