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

package versioning

import (
	"bytes"
	"encoding/json"
	"mime"
	"net/http"
	"strconv"
	"time"

	"rivaas.dev/apicompat/transform"
)

// BodyFunc rewrites a buffered response body. It receives the response
// Content-Type and status and returns the new body.
type BodyFunc func(contentType string, status int, body []byte) ([]byte, error)

// ResponseBuffer holds a handler's status and body so body funcs can run
// before anything reaches the client. Headers are shared with the
// underlying writer.
type ResponseBuffer struct {
	w           http.ResponseWriter
	body        bytes.Buffer
	status      int
	wroteHeader bool
}

// NewResponseBuffer wraps w.
func NewResponseBuffer(w http.ResponseWriter) *ResponseBuffer {
	return &ResponseBuffer{w: w, status: http.StatusOK}
}

func (b *ResponseBuffer) Header() http.Header {
	return b.w.Header()
}

func (b *ResponseBuffer) WriteHeader(status int) {
	if b.wroteHeader {
		return
	}
	b.status = status
	b.wroteHeader = true
}

func (b *ResponseBuffer) Write(p []byte) (int, error) {
	b.wroteHeader = true
	return b.body.Write(p)
}

// Status returns the buffered status code.
func (b *ResponseBuffer) Status() int {
	return b.status
}

// Body returns the buffered body.
func (b *ResponseBuffer) Body() []byte {
	return b.body.Bytes()
}

// Written reports whether the handler wrote a status or body.
func (b *ResponseBuffer) Written() bool {
	return b.wroteHeader
}

// Unwrap exposes the underlying writer to http.ResponseController.
func (b *ResponseBuffer) Unwrap() http.ResponseWriter {
	return b.w
}

// Reset discards the buffered status and body.
func (b *ResponseBuffer) Reset() {
	b.body.Reset()
	b.status = http.StatusOK
	b.wroteHeader = false
}

// Flush runs funcs over the buffered body in order and writes the result to
// the underlying writer. When a func fails nothing is written and the error
// is returned, so the caller can still send an error response.
func (b *ResponseBuffer) Flush(funcs ...BodyFunc) error {
	body := b.body.Bytes()
	contentType := b.Header().Get("Content-Type")

	for _, fn := range funcs {
		out, err := fn(contentType, b.status, body)
		if err != nil {
			return err
		}
		body = out
	}

	h := b.Header()
	if len(body) > 0 || h.Get("Content-Length") != "" {
		h.Set("Content-Length", strconv.Itoa(len(body)))
	}
	b.w.WriteHeader(b.status)
	if len(body) == 0 {
		return nil
	}
	_, err := b.w.Write(body)
	return err
}

// Envelope is the wrapper around successful JSON responses.
type Envelope struct {
	Version   string          `json:"version"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// EnvelopeFunc returns a BodyFunc wrapping successful JSON bodies in an
// [Envelope]. Problem documents, error statuses and non-JSON bodies pass
// through.
func EnvelopeFunc(v string, now func() time.Time) BodyFunc {
	return func(contentType string, status int, body []byte) ([]byte, error) {
		if status >= http.StatusBadRequest || len(bytes.TrimSpace(body)) == 0 || !envelopable(contentType) {
			return body, nil
		}
		if !json.Valid(body) {
			return body, nil
		}
		return json.Marshal(Envelope{
			Version:   v,
			Timestamp: now().UTC(),
			Data:      json.RawMessage(bytes.TrimSpace(body)),
		})
	}
}

func envelopable(contentType string) bool {
	if !transform.IsJSON(contentType) {
		return false
	}
	mediaType, _, _ := mime.ParseMediaType(contentType)
	return mediaType != "application/problem+json"
}
