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

// Package strategy implements the transports a client can use to name the
// API version it wants: a header, a path segment, a query parameter, the
// Accept header, a healthcare interoperability header, a composite of those,
// or caller supplied functions.
//
// Every strategy is a pair of operations. Extract reads the raw token from a
// request and Apply reflects the resolved version back into the response.
// Strategies hold no mutable state and are safe for concurrent use.
//
//	s := strategy.Header("api-version")
//	token, ok := s.Extract(req) // "1" for "api-version: v1"
//	s.Apply(w, req, "1.0.0")    // API-Version: 1.0.0, Vary: api-version
package strategy

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind names a strategy variant. It is the value of the "method" field in
// configuration.
type Kind string

const (
	KindHeader     Kind = "header"
	KindURL        Kind = "url"
	KindQuery      Kind = "query"
	KindAccept     Kind = "accept"
	KindComposite  Kind = "composite"
	KindHealthcare Kind = "healthcare"
	KindCustom     Kind = "custom"
)

// Defaults used when [Settings] leaves a field empty.
const (
	DefaultHeader     = "api-version"
	DefaultQueryParam = "version"
	DefaultVendor     = "api"
)

// Response header names written by strategies.
const (
	HeaderAPIVersion = "API-Version"
	HeaderVary       = "Vary"
)

// Strategy locates a version token in a request and reflects the resolved
// version into the response.
type Strategy interface {
	// Extract returns the raw version token and true if the request names one.
	// Implementations may rewrite r.URL (path prefix or query parameter
	// removal); callers pass a request they own.
	Extract(r *http.Request) (token string, found bool)

	// Apply writes strategy specific response headers for the resolved
	// normalized version.
	Apply(w http.ResponseWriter, r *http.Request, version string)

	// Method returns the strategy name for logs and metrics.
	Method() string
}

// Errors returned by [FromKind].
var (
	ErrUnknownKind   = errors.New("unknown versioning method")
	ErrCustomKind    = errors.New("custom strategies must be supplied with strategy.Custom")
	ErrEmptyName     = errors.New("strategy token name cannot be empty")
	ErrNilExtractor  = errors.New("custom strategy extract function cannot be nil")
	ErrNoStrategies  = errors.New("composite strategy requires at least one strategy")
	ErrInvalidPrefix = errors.New("path prefix must start with '/'")
)

// Settings holds the method specific token names used by [FromKind].
type Settings struct {
	// Header is the request header read by header strategies.
	Header string

	// QueryParam is the query parameter read by the query strategy.
	QueryParam string

	// Vendor is the organization in application/vnd.<vendor>.v<N>+json.
	Vendor string

	// PathPrefix precedes the /v<N> segment, e.g. "/api". Empty matches at
	// the root.
	PathPrefix string

	// Default is the version the healthcare strategy maps unknown standard
	// versions to.
	Default string
}

func (s Settings) withDefaults() Settings {
	if s.Header == "" {
		s.Header = DefaultHeader
	}
	if s.QueryParam == "" {
		s.QueryParam = DefaultQueryParam
	}
	if s.Vendor == "" {
		s.Vendor = DefaultVendor
	}
	return s
}

// FromKind builds the strategy selected by configuration.
// The composite kind checks path, header, query and Accept in that order.
func FromKind(kind Kind, settings Settings) (Strategy, error) {
	s := settings.withDefaults()

	switch kind {
	case KindHeader, "":
		return Header(s.Header), nil
	case KindURL:
		return NewPath(s.PathPrefix)
	case KindQuery:
		return Query(s.QueryParam), nil
	case KindAccept:
		return Accept(s.Vendor), nil
	case KindHealthcare:
		return Healthcare(s.Header, s.Default), nil
	case KindComposite:
		path, err := NewPath(s.PathPrefix)
		if err != nil {
			return nil, err
		}
		return NewComposite(path, Header(s.Header), Query(s.QueryParam), Accept(s.Vendor))
	case KindCustom:
		return nil, ErrCustomKind
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

// trimV strips one leading "v" or "V" from a token.
func trimV(token string) string {
	token = strings.TrimSpace(token)
	if len(token) > 0 && (token[0] == 'v' || token[0] == 'V') {
		return token[1:]
	}
	return token
}

// addVary appends value to the Vary header unless already present.
func addVary(h http.Header, value string) {
	for _, existing := range h.Values(HeaderVary) {
		for part := range strings.SplitSeq(existing, ",") {
			if strings.EqualFold(strings.TrimSpace(part), value) {
				return
			}
		}
	}
	h.Add(HeaderVary, value)
}
