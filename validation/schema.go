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

package validation

import (
	"bytes"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Schema is a compiled JSON Schema for request bodies.
type Schema struct {
	id       string
	compiled *jsonschema.Schema
}

var (
	schemaMu    sync.RWMutex
	schemaCache = map[string]*Schema{}
)

// CompileSchema compiles raw under id. Compiled schemas are cached by id, so
// registering the same route schema for many versions compiles it once.
func CompileSchema(id, raw string) (*Schema, error) {
	schemaMu.RLock()
	cached, ok := schemaCache[id]
	schemaMu.RUnlock()
	if ok {
		return cached, nil
	}

	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("invalid schema JSON: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat()
	if err = compiler.AddResource(id, doc); err != nil {
		return nil, fmt.Errorf("failed to add schema resource: %w", err)
	}
	compiled, err := compiler.Compile(id)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}

	s := &Schema{id: id, compiled: compiled}
	schemaMu.Lock()
	schemaCache[id] = s
	schemaMu.Unlock()
	return s, nil
}

// ID returns the schema identifier.
func (s *Schema) ID() string {
	return s.id
}

// ValidateJSON checks a JSON document. It returns nil or an [*Error]; a
// document that is not JSON yields a single "schema.invalid_json" field.
func (s *Schema) ValidateJSON(data []byte) error {
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return &Error{Fields: []FieldError{{Code: "schema.invalid_json", Message: "body is not valid JSON"}}}
	}

	err = s.compiled.Validate(inst)
	if err == nil {
		return nil
	}

	verr, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return &Error{Fields: []FieldError{{Code: "schema_validation_error", Message: err.Error()}}}
	}

	var result Error
	collect(verr, &result)
	result.Sort()
	return &result
}

func collect(verr *jsonschema.ValidationError, result *Error) {
	if len(verr.Causes) == 0 {
		result.Add(strings.Join(verr.InstanceLocation, "."), "schema."+keyword(verr.ErrorKind), verr.Error(), map[string]any{
			"schema_url": verr.SchemaURL,
		})
		return
	}
	for _, cause := range verr.Causes {
		collect(cause, result)
	}
}

// keyword returns the schema keyword that failed, e.g. "required".
func keyword(kind jsonschema.ErrorKind) string {
	if kind == nil {
		return "unknown"
	}
	path := kind.KeywordPath()
	if len(path) == 0 {
		return "unknown"
	}
	return path[len(path)-1]
}
