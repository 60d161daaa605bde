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

// Package config loads layered configuration for an apicompat deployment.
//
// Sources are applied in order and later sources override earlier ones key
// by key. Keys are case-insensitive. Files are decoded by extension (YAML,
// JSON or TOML), environment variables nest on underscores, and a Consul KV
// key can hold a shared version catalog:
//
//	cfg := config.MustNew(
//	    config.WithFile("apicompat.yaml"),
//	    config.WithConsul("${APP_ENV}/apicompat.yaml"),
//	    config.WithEnv("APICOMPAT_"),
//	    config.WithBinding(&settings),
//	)
//	if err := cfg.Load(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// Binding uses the "config" struct tag, fills `default:"..."` tags on zero
// fields and calls Validate when the target implements [Validator].
// [LoadSettings] does all of this for [Settings] and also checks the result
// against an embedded JSON Schema.
package config
