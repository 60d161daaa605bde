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
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"dario.cat/mergo"
	"github.com/go-viper/mapstructure/v2"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/spf13/cast"
)

// Config merges configuration layers and binds them to a struct.
//
// Config is safe for concurrent use by multiple goroutines.
type Config struct {
	mu         sync.RWMutex
	values     map[string]any
	sources    []Source
	binding    any
	tagName    string
	schema     *jsonschema.Schema
	validators []func(map[string]any) error
}

// New applies options and collects every option error. The returned Config
// is usable even when err is non-nil.
func New(options ...Option) (*Config, error) {
	c := &Config{
		values:  map[string]any{},
		tagName: "config",
	}

	var errs error
	for _, opt := range options {
		if opt == nil {
			continue
		}
		if err := opt(c); err != nil {
			errs = errors.Join(errs, err)
		}
	}

	return c, errs //nolint:nilnil // partial config returned with error
}

// MustNew is like [New] but panics on error.
func MustNew(options ...Option) *Config {
	cfg, err := New(options...)
	if err != nil {
		panic(fmt.Sprintf("config: failed to create config: %v", err))
	}
	return cfg
}

// Load reads every source in order, validates the merged result, binds it
// and only then replaces the current values.
//
// Errors:
//   - [Error] with Source "source[i]" if a source fails to load or merge
//   - [Error] with Source "json-schema" or "custom-validator[i]"
//   - [Error] with Source "binding" if decoding or Validate fails
func (c *Config) Load(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context cannot be nil")
	}

	merged := make(map[string]any)
	for i, src := range c.sources {
		if err := ctx.Err(); err != nil {
			return err
		}
		conf, err := src.Load(ctx)
		if err != nil {
			return NewError(fmt.Sprintf("source[%d]", i), "load", err)
		}
		if err = mergo.Map(&merged, lowerKeys(conf), mergo.WithOverride); err != nil {
			return NewError(fmt.Sprintf("source[%d]", i), "merge", err)
		}
	}

	if c.schema != nil {
		if err := c.schema.Validate(merged); err != nil {
			return NewError("json-schema", "validate", err)
		}
	}

	for i, fn := range c.validators {
		if err := safeValidate(fn, merged); err != nil {
			return NewError(fmt.Sprintf("custom-validator[%d]", i), "validate", err)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.binding != nil {
		// Decode into a scratch value first so a failed Load leaves the
		// caller's struct untouched.
		scratch := reflect.New(reflect.TypeOf(c.binding).Elem()).Interface()
		if err := c.decode(merged, scratch); err != nil {
			return NewError("binding", "bind", err)
		}
		if v, ok := scratch.(Validator); ok {
			if err := v.Validate(); err != nil {
				return NewError("binding", "validate", err)
			}
		}
		reflect.ValueOf(c.binding).Elem().Set(reflect.ValueOf(scratch).Elem())
	}

	c.values = merged
	return nil
}

// MustLoad is like [Config.Load] but panics on error.
func (c *Config) MustLoad(ctx context.Context) {
	if err := c.Load(ctx); err != nil {
		panic(err)
	}
}

func safeValidate(fn func(map[string]any) error, values map[string]any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("validator panic: %v", r)
		}
	}()
	return fn(values)
}

func (c *Config) decode(values map[string]any, target any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          c.tagName,
		Squash:           true,
		WeaklyTypedInput: true,
		Result:           target,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
			stringToTimeHook,
		),
	})
	if err != nil {
		return fmt.Errorf("failed to create decoder: %w", err)
	}
	if err = decoder.Decode(values); err != nil {
		return fmt.Errorf("failed to decode configuration: %w", err)
	}
	if err = applyDefaults(target); err != nil {
		return fmt.Errorf("failed to apply defaults: %w", err)
	}
	return nil
}

// stringToTimeHook accepts RFC 3339 timestamps and plain dates, since
// release and sunset dates are usually written as 2024-06-01.
func stringToTimeHook(from, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String || to != reflect.TypeOf(time.Time{}) {
		return data, nil
	}
	s := strings.TrimSpace(data.(string))
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return nil, fmt.Errorf("invalid time %q: want RFC 3339 or YYYY-MM-DD", s)
}

func lowerKeys(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[strings.ToLower(k)] = lowerValue(v)
	}
	return out
}

func lowerValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return lowerKeys(t)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = lowerValue(item)
		}
		return out
	default:
		return v
	}
}

// applyDefaults sets `default:"..."` tags on zero-valued fields, recursing
// into nested structs and slices of structs.
func applyDefaults(target any) error {
	val := reflect.ValueOf(target)
	if val.Kind() != reflect.Pointer || val.Elem().Kind() != reflect.Struct {
		return errors.New("target must be a pointer to a struct")
	}
	return setDefaults(val.Elem())
}

func setDefaults(val reflect.Value) error {
	typ := val.Type()
	for i := range val.NumField() {
		field := val.Field(i)
		if !field.CanSet() {
			continue
		}

		switch {
		case field.Kind() == reflect.Struct && field.Type() != reflect.TypeOf(time.Time{}):
			if err := setDefaults(field); err != nil {
				return err
			}
			continue
		case field.Kind() == reflect.Slice && field.Type().Elem().Kind() == reflect.Struct:
			for j := range field.Len() {
				if err := setDefaults(field.Index(j)); err != nil {
					return err
				}
			}
			continue
		}

		tag := typ.Field(i).Tag.Get("default")
		if tag == "" || !field.IsZero() {
			continue
		}
		if err := setDefaultValue(field, tag); err != nil {
			return fmt.Errorf("failed to set default for field %s: %w", typ.Field(i).Name, err)
		}
	}
	return nil
}

func setDefaultValue(field reflect.Value, tag string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(tag)
	case reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(tag)
			if err != nil {
				return err
			}
			field.SetInt(int64(d))
			return nil
		}
		fallthrough
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32:
		i, err := cast.ToInt64E(tag)
		if err != nil {
			return err
		}
		field.SetInt(i)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u, err := cast.ToUint64E(tag)
		if err != nil {
			return err
		}
		field.SetUint(u)
	case reflect.Float32, reflect.Float64:
		f, err := cast.ToFloat64E(tag)
		if err != nil {
			return err
		}
		field.SetFloat(f)
	case reflect.Bool:
		b, err := cast.ToBoolE(tag)
		if err != nil {
			return err
		}
		field.SetBool(b)
	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice type for default tag: %s", field.Type())
		}
		field.Set(reflect.ValueOf(strings.Split(tag, ",")))
	default:
		return fmt.Errorf("unsupported type for default tag: %s", field.Kind())
	}
	return nil
}

// Values returns a copy of the top level of the merged values.
func (c *Config) Values() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]any, len(c.values))
	for k, v := range c.values {
		out[k] = v
	}
	return out
}

// Get returns the value at a dot separated, case-insensitive path, or nil.
func (c *Config) Get(key string) any {
	if c == nil || key == "" {
		return nil
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	key = strings.ToLower(key)
	if v, ok := c.values[key]; ok {
		return v
	}

	current := c.values
	segments := strings.Split(key, ".")
	for i, seg := range segments {
		v, ok := current[seg]
		if !ok {
			return nil
		}
		if i == len(segments)-1 {
			return v
		}
		if current, ok = v.(map[string]any); !ok {
			return nil
		}
	}
	return nil
}

// String returns the value at key as a string.
func (c *Config) String(key string) string { return cast.ToString(c.Get(key)) }

// Int returns the value at key as an int.
func (c *Config) Int(key string) int { return cast.ToInt(c.Get(key)) }

// Bool returns the value at key as a bool.
func (c *Config) Bool(key string) bool { return cast.ToBool(c.Get(key)) }

// Duration returns the value at key as a time.Duration.
func (c *Config) Duration(key string) time.Duration { return cast.ToDuration(c.Get(key)) }

// StringSlice returns the value at key as a []string.
func (c *Config) StringSlice(key string) []string { return cast.ToStringSlice(c.Get(key)) }

// StringOr returns the value at key, or defaultVal when unset.
func (c *Config) StringOr(key, defaultVal string) string { return GetOr(c, key, defaultVal) }

// IntOr returns the value at key, or defaultVal when unset.
func (c *Config) IntOr(key string, defaultVal int) int { return GetOr(c, key, defaultVal) }

// BoolOr returns the value at key, or defaultVal when unset.
func (c *Config) BoolOr(key string, defaultVal bool) bool { return GetOr(c, key, defaultVal) }
