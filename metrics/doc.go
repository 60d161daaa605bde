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

// Package metrics tracks how each API version is used.
//
// [Table] is the in-process statistics store behind the /metrics meta
// endpoint: request count, error count, running mean response time and last
// access per (version, method, path). [Recorder] exports the same events as
// OpenTelemetry instruments through a Prometheus, OTLP or stdout provider.
//
//	table := metrics.NewTable()
//	table.Record(metrics.Key{Version: "2.0.0", Method: "GET", Path: "/users"},
//	    12*time.Millisecond, nil, time.Now())
//
//	recorder := metrics.MustNew(metrics.WithPrometheus(), metrics.WithServiceName("orders-api"))
//	defer recorder.Shutdown(context.Background())
//	scrape, _ := recorder.Handler()
//
// The global OpenTelemetry meter provider is left untouched unless
// [WithGlobalMeterProvider] is set.
package metrics
