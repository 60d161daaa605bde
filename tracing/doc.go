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

// Package tracing wraps OpenTelemetry tracing for the compatibility layer.
//
// A request gets one server span from [Tracer.StartRequestSpan]; version
// resolution and endpoint negotiation add attributes such as api.version and
// api.version.selected to it, and failures are recorded with [RecordError].
//
//	tracer := tracing.MustNew(
//	    tracing.WithOTLPHTTP("http://collector:4318"),
//	    tracing.WithServiceName("orders-api"),
//	)
//	defer tracer.Shutdown(context.Background())
package tracing
