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
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"rivaas.dev/apicompat/version"
)

// Validator checks structs against `validate` tags and JSON documents
// against compiled schemas. It is safe for concurrent use.
type Validator struct {
	tags      *validator.Validate
	maxErrors int
}

// Option configures a [Validator].
type Option func(*options)

type options struct {
	maxErrors  int
	customTags map[string]validator.Func
}

// WithMaxErrors caps the number of reported fields. Zero means unlimited.
func WithMaxErrors(n int) Option {
	return func(o *options) { o.maxErrors = n }
}

// WithCustomTag registers an extra validation tag.
func WithCustomTag(name string, fn validator.Func) Option {
	return func(o *options) { o.customTags[name] = fn }
}

// New creates a [Validator]. Besides the go-playground built-ins it knows
// two tags: "apiversion" (a well-formed ordinal version) and "httpmethod".
func New(opts ...Option) (*Validator, error) {
	o := &options{customTags: map[string]validator.Func{}}
	for _, opt := range opts {
		opt(o)
	}
	if o.maxErrors < 0 {
		return nil, fmt.Errorf("validation: maxErrors must be non-negative, got %d", o.maxErrors)
	}

	tags := validator.New(validator.WithRequiredStructEnabled())
	tags.RegisterTagNameFunc(jsonFieldName)

	builtins := map[string]validator.Func{
		"apiversion": func(fl validator.FieldLevel) bool { return version.Valid(fl.Field().String()) },
		"httpmethod": func(fl validator.FieldLevel) bool { return httpMethods[fl.Field().String()] },
	}
	for name, fn := range builtins {
		if err := tags.RegisterValidation(name, fn); err != nil {
			return nil, fmt.Errorf("register tag %q: %w", name, err)
		}
	}
	for name, fn := range o.customTags {
		if err := tags.RegisterValidation(name, fn); err != nil {
			return nil, fmt.Errorf("register custom tag %q: %w", name, err)
		}
	}

	return &Validator{tags: tags, maxErrors: o.maxErrors}, nil
}

// MustNew is like [New] but panics on error.
func MustNew(opts ...Option) *Validator {
	v, err := New(opts...)
	if err != nil {
		panic(fmt.Sprintf("validation.MustNew: %v", err))
	}
	return v
}

var httpMethods = map[string]bool{
	http.MethodGet: true, http.MethodHead: true, http.MethodPost: true,
	http.MethodPut: true, http.MethodPatch: true, http.MethodDelete: true,
	http.MethodOptions: true, http.MethodConnect: true, http.MethodTrace: true,
}

func jsonFieldName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
	switch name {
	case "-":
		return ""
	case "":
		return fld.Name
	}
	return name
}

// Struct validates val's `validate` tags. It returns nil or an [*Error].
func (v *Validator) Struct(val any) error {
	if val == nil {
		return ErrNilValue
	}
	rv := reflect.ValueOf(val)
	if rv.Kind() == reflect.Pointer && rv.IsNil() {
		return ErrNilValue
	}

	err := v.tags.Struct(val)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return &Error{Fields: []FieldError{{Code: "tag_error", Message: err.Error()}}}
	}

	var result Error
	for _, e := range verrs {
		result.Add(fieldPath(e.Namespace()), "tag."+e.Tag(), tagMessage(e), map[string]any{
			"tag":   e.Tag(),
			"param": e.Param(),
		})
		if result.full(v.maxErrors) {
			break
		}
	}
	result.Sort()
	return &result
}

// fieldPath turns "Spec.versions[2].name" into "versions.2.name".
func fieldPath(ns string) string {
	if _, rest, ok := strings.Cut(ns, "."); ok {
		ns = rest
	}
	return strings.NewReplacer("[", ".", "]", "").Replace(ns)
}

func tagMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "url":
		return "must be a valid URL"
	case "apiversion":
		return fmt.Sprintf("%q is not a valid version", e.Value())
	case "httpmethod":
		return fmt.Sprintf("%q is not an HTTP method", e.Value())
	case "startswith":
		return fmt.Sprintf("must start with %q", e.Param())
	case "min":
		return fmt.Sprintf("must have at least %s entries", e.Param())
	case "max":
		if e.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", e.Param())
		}
		return fmt.Sprintf("must be at most %s", e.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", e.Param())
	default:
		return fmt.Sprintf("failed validation (%s)", e.Tag())
	}
}

var defaultValidator = MustNew()

// Struct validates val with the default [Validator].
func Struct(val any) error {
	return defaultValidator.Struct(val)
}
