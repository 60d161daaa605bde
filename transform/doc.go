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

// Package transform adapts requests and responses between two API versions.
//
// A [Transformer] is registered for one ordered pair of versions. When a
// client asks for 1.0.0 and the closest handler is 1.2.0, the 1.0.0 -> 1.2.0
// transformer rewrites the request before the handler runs and rewrites the
// handler's JSON response before it is sent:
//
//	reg := transform.NewRegistry()
//	err := reg.Register(transform.Transformer{
//	    From: "1.0.0",
//	    To:   "1.2.0",
//	    Request: func(body any) (any, error) {
//	        m := body.(map[string]any)
//	        m["fullName"] = m["name"]
//	        delete(m, "name")
//	        return m, nil
//	    },
//	})
//
// Only one hop is attempted. There is no chaining of 1.0.0 -> 1.1.0 -> 1.2.0.
package transform
