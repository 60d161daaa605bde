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

package transform

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"sync"

	apierrors "rivaas.dev/apicompat/errors"
	"rivaas.dev/apicompat/version"
)

// BodyFunc rewrites a decoded JSON document. Numbers arrive as
// [json.Number] so integers keep their full precision.
type BodyFunc func(body any) (any, error)

// HeaderFunc rewrites request headers in place.
type HeaderFunc func(h http.Header)

// Transformer adapts traffic from clients of From to a handler of To. All
// three functions are optional.
type Transformer struct {
	From     string
	To       string
	Request  BodyFunc
	Response BodyFunc
	Header   HeaderFunc
}

// Pair is the ordered key of a [Transformer].
type Pair struct {
	From string `json:"from"`
	To   string `json:"to"`
}

func (p Pair) String() string {
	return p.From + "->" + p.To
}

var (
	ErrSamePair = errors.New("transformer source and target versions are equal")
	ErrExists   = errors.New("transformer already registered")
	ErrEmpty    = errors.New("transformer has no request, response or header function")

	errTrailingData = errors.New("unexpected data after top-level JSON value")
)

// Stage names where a transformation failed.
type Stage string

const (
	StageRequest  Stage = "request"
	StageResponse Stage = "response"
)

// Error reports a failed transformation. A request body that is not JSON is
// the client's fault (400); everything else is a server error (500).
type Error struct {
	Pair   Pair
	Stage  Stage
	Err    error
	client bool
}

func (e *Error) Error() string {
	return fmt.Sprintf("transform %s %s: %v", e.Pair, e.Stage, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) HTTPStatus() int {
	if e.client {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (e *Error) Code() string { return "TRANSFORM_FAILED" }

func (e *Error) Details() any {
	return map[string]any{"from": e.Pair.From, "to": e.Pair.To, "stage": e.Stage}
}

// Registry holds transformers keyed by ordered version pair.
// It is safe for concurrent use; writes normally happen at setup time.
type Registry struct {
	mu     sync.RWMutex
	byPair map[Pair]Transformer
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byPair: make(map[Pair]Transformer)}
}

// Register normalizes both versions and stores t.
func (r *Registry) Register(t Transformer) error {
	from, err := version.Normalize(t.From)
	if err != nil {
		return fmt.Errorf("transformer from: %w", err)
	}
	to, err := version.Normalize(t.To)
	if err != nil {
		return fmt.Errorf("transformer to: %w", err)
	}
	if from == to {
		return fmt.Errorf("%w: %s", ErrSamePair, from)
	}
	if t.Request == nil && t.Response == nil && t.Header == nil {
		return ErrEmpty
	}
	t.From, t.To = from, to

	r.mu.Lock()
	defer r.mu.Unlock()

	key := Pair{From: from, To: to}
	if _, ok := r.byPair[key]; ok {
		return fmt.Errorf("%w: %s", ErrExists, key)
	}
	r.byPair[key] = t
	return nil
}

// Lookup returns the transformer for exactly from -> to. Inputs must be
// normalized.
func (r *Registry) Lookup(from, to string) (Transformer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.byPair[Pair{From: from, To: to}]
	return t, ok
}

// Pairs lists registered pairs ordered by source, then target.
func (r *Registry) Pairs() []Pair {
	r.mu.RLock()
	out := make([]Pair, 0, len(r.byPair))
	for p := range r.byPair {
		out = append(out, p)
	}
	r.mu.RUnlock()

	slices.SortFunc(out, func(a, b Pair) int {
		if c := version.Compare(a.From, b.From); c != 0 {
			return c
		}
		return version.Compare(a.To, b.To)
	})
	return out
}

// Len returns the number of registered transformers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byPair)
}

func (t Transformer) pair() Pair {
	return Pair{From: t.From, To: t.To}
}

// ApplyRequest runs the header and request functions against req in place.
// Empty and non-JSON bodies are left untouched.
func (t Transformer) ApplyRequest(req *http.Request) error {
	if t.Header != nil {
		t.Header(req.Header)
	}
	if t.Request == nil || req.Body == nil || req.Body == http.NoBody || !IsJSON(req.Header.Get("Content-Type")) {
		return nil
	}

	raw, err := io.ReadAll(req.Body)
	_ = req.Body.Close()
	if err != nil {
		// Read errors that carry a status, such as a body limit, keep it.
		var typed apierrors.ErrorType
		if errors.As(err, &typed) {
			return err
		}
		return &Error{Pair: t.pair(), Stage: StageRequest, Err: err, client: true}
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		req.Body = io.NopCloser(bytes.NewReader(raw))
		return nil
	}

	doc, err := decodeJSON(raw)
	if err != nil {
		return &Error{Pair: t.pair(), Stage: StageRequest, Err: err, client: true}
	}
	out, err := encodeWith(t.Request, doc)
	if err != nil {
		return &Error{Pair: t.pair(), Stage: StageRequest, Err: err}
	}

	req.Body = io.NopCloser(bytes.NewReader(out))
	req.ContentLength = int64(len(out))
	req.Header.Set("Content-Length", strconv.Itoa(len(out)))
	return nil
}

// ApplyResponse runs the response function over a JSON body. Other bodies
// are returned unchanged.
func (t Transformer) ApplyResponse(contentType string, body []byte) ([]byte, error) {
	if t.Response == nil || len(bytes.TrimSpace(body)) == 0 || !IsJSON(contentType) {
		return body, nil
	}
	doc, err := decodeJSON(body)
	if err != nil {
		return nil, &Error{Pair: t.pair(), Stage: StageResponse, Err: err}
	}
	out, err := encodeWith(t.Response, doc)
	if err != nil {
		return nil, &Error{Pair: t.pair(), Stage: StageResponse, Err: err}
	}
	return out, nil
}

// decodeJSON decodes exactly one JSON value, keeping numbers as
// json.Number.
func decodeJSON(raw []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errTrailingData
	}
	return doc, nil
}

func encodeWith(fn BodyFunc, doc any) ([]byte, error) {
	doc, err := fn(doc)
	if err != nil {
		return nil, err
	}
	return json.Marshal(doc)
}

// IsJSON reports whether contentType is application/json or a +json type.
func IsJSON(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}
