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

// Package codec decodes and encodes configuration documents.
//
// JSON, YAML and TOML are registered at init. Additional formats can be
// added with [Register].
package codec

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/goccy/go-yaml"
)

// Type identifies a codec.
type Type string

const (
	TypeJSON Type = "json"
	TypeYAML Type = "yaml"
	TypeTOML Type = "toml"
)

// Encoder converts Go values into bytes. Implementations must be safe for
// concurrent use.
type Encoder interface {
	Encode(v any) ([]byte, error)
}

// Decoder converts bytes into the value pointed to by v. Implementations
// must be safe for concurrent use.
type Decoder interface {
	Decode(data []byte, v any) error
}

// Codec is both an Encoder and a Decoder.
type Codec interface {
	Encoder
	Decoder
}

var (
	mu       sync.RWMutex
	registry = map[Type]Codec{}
)

func init() {
	Register(TypeJSON, JSON{})
	Register(TypeYAML, YAML{})
	Register(TypeTOML, TOML{})
}

// Register installs c under name, replacing any previous codec.
func Register(name Type, c Codec) {
	mu.Lock()
	defer mu.Unlock()
	registry[name] = c
}

// Get returns the codec registered under name.
func Get(name Type) (Codec, error) {
	mu.RLock()
	defer mu.RUnlock()
	c, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("codec not found for type: %s", name)
	}
	return c, nil
}

// ErrUnknownExtension is returned by [ForPath] for unrecognized extensions.
var ErrUnknownExtension = errors.New("cannot detect format from extension")

// ForPath returns the codec type for a file path or Consul key by its
// extension: .yaml, .yml, .json or .toml.
func ForPath(path string) (Type, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return TypeYAML, nil
	case ".json":
		return TypeJSON, nil
	case ".toml":
		return TypeTOML, nil
	default:
		return "", fmt.Errorf("%w %q; use an explicit format", ErrUnknownExtension, ext)
	}
}

// JSON wraps encoding/json.
type JSON struct{}

func (JSON) Encode(v any) ([]byte, error)    { return json.MarshalIndent(v, "", "  ") }
func (JSON) Decode(data []byte, v any) error { return json.Unmarshal(data, v) }

// YAML wraps github.com/goccy/go-yaml.
type YAML struct{}

func (YAML) Encode(v any) ([]byte, error)    { return yaml.Marshal(v) }
func (YAML) Decode(data []byte, v any) error { return yaml.Unmarshal(data, v) }

// TOML wraps github.com/BurntSushi/toml.
type TOML struct{}

func (TOML) Encode(v any) ([]byte, error)    { return toml.Marshal(v) }
func (TOML) Decode(data []byte, v any) error { return toml.Unmarshal(data, v) }
