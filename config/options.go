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

package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"reflect"
	"sync/atomic"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"rivaas.dev/apicompat/config/codec"
	"rivaas.dev/apicompat/config/source"
)

// Option configures a [Config].
type Option func(c *Config) error

// WithSource adds a custom source.
func WithSource(src Source) Option {
	return func(c *Config) error {
		if src == nil {
			return errors.New("source cannot be nil")
		}
		c.sources = append(c.sources, src)
		return nil
	}
}

// WithFile loads a file whose format is detected from its extension
// (.yaml, .yml, .json, .toml). ${VAR} references in path are expanded.
//
// Example:
//
//	cfg := config.MustNew(
//	    config.WithFile("apicompat.yaml"),
//	    config.WithEnv("APICOMPAT_"),
//	)
func WithFile(path string) Option {
	return func(c *Config) error {
		path = os.ExpandEnv(path)
		format, err := codec.ForPath(path)
		if err != nil {
			return NewError("file-source", "detect-format", err)
		}
		return WithFileAs(path, format)(c)
	}
}

// WithFileAs loads a file with an explicit format.
func WithFileAs(path string, codecType codec.Type) Option {
	return func(c *Config) error {
		dec, err := codec.Get(codecType)
		if err != nil {
			return NewError("file-source", "get-decoder", err)
		}
		c.sources = append(c.sources, source.NewFile(os.ExpandEnv(path), dec))
		return nil
	}
}

// WithContent loads an in-memory document.
func WithContent(data []byte, codecType codec.Type) Option {
	return func(c *Config) error {
		dec, err := codec.Get(codecType)
		if err != nil {
			return NewError("content-source", "get-decoder", err)
		}
		c.sources = append(c.sources, source.NewContent(data, dec))
		return nil
	}
}

// WithEnv loads environment variables starting with prefix.
// APICOMPAT_VERSIONING_STRICT=true becomes versioning.strict with prefix
// "APICOMPAT_".
func WithEnv(prefix string) Option {
	return func(c *Config) error {
		c.sources = append(c.sources, source.NewEnv(prefix))
		return nil
	}
}

// WithConsul loads a Consul KV key whose format is detected from its
// extension. The option is skipped when CONSUL_HTTP_ADDR is unset, so
// development works without a Consul agent.
func WithConsul(key string) Option {
	return func(c *Config) error {
		if os.Getenv("CONSUL_HTTP_ADDR") == "" {
			return nil
		}
		key = os.ExpandEnv(key)
		format, err := codec.ForPath(key)
		if err != nil {
			return NewError("consul-source", "detect-format", err)
		}
		return WithConsulAs("", key, format)(c)
	}
}

// WithConsulAs loads a Consul KV key from address (CONSUL_HTTP_ADDR when
// empty) with an explicit format.
func WithConsulAs(address, key string, codecType codec.Type) Option {
	return func(c *Config) error {
		dec, err := codec.Get(codecType)
		if err != nil {
			return NewError("consul-source", "get-decoder", err)
		}
		src, err := source.NewConsul(address, key, dec)
		if err != nil {
			return NewError("consul-source", "create-client", err)
		}
		c.sources = append(c.sources, src)
		return nil
	}
}

// WithBinding decodes the merged values into v, a pointer to a struct, on
// every successful Load.
func WithBinding(v any) Option {
	return func(c *Config) error {
		if v == nil {
			return errors.New("binding target cannot be nil")
		}
		if reflect.TypeOf(v).Kind() != reflect.Pointer {
			return errors.New("binding target must be a pointer")
		}
		c.binding = v
		return nil
	}
}

// WithTag sets the struct tag used for binding (default "config").
func WithTag(tagName string) Option {
	return func(c *Config) error {
		if tagName == "" {
			return errors.New("tag name cannot be empty")
		}
		c.tagName = tagName
		return nil
	}
}

var schemaSeq atomic.Uint64

// WithJSONSchema validates the merged values against schema before binding.
// Keys are lowercased before validation, so property names in the schema
// must be lowercase.
func WithJSONSchema(schema []byte) Option {
	return func(c *Config) error {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schema))
		if err != nil {
			return NewError("json-schema", "parse", err)
		}

		name := fmt.Sprintf("inline_%d.json", schemaSeq.Add(1))
		compiler := jsonschema.NewCompiler()
		if err = compiler.AddResource(name, doc); err != nil {
			return NewError("json-schema", "compile", err)
		}
		compiled, err := compiler.Compile(name)
		if err != nil {
			return NewError("json-schema", "compile", err)
		}
		c.schema = compiled
		return nil
	}
}

// WithValidator adds a check over the merged values.
func WithValidator(fn func(map[string]any) error) Option {
	return func(c *Config) error {
		if fn != nil {
			c.validators = append(c.validators, fn)
		}
		return nil
	}
}
