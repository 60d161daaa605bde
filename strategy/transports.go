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

package strategy

import (
	"fmt"
	"mime"
	"net/http"
	"regexp"
	"strings"
)

// ═══════════════════════════════════════════════════════════════════════════════
// Header Strategy
// ═══════════════════════════════════════════════════════════════════════════════

type headerStrategy struct {
	header string
}

// Header reads the version from a request header (default "api-version").
// A leading "v" is stripped from the value.
func Header(name string) Strategy {
	if name == "" {
		name = DefaultHeader
	}
	return &headerStrategy{header: name}
}

func (s *headerStrategy) Extract(r *http.Request) (string, bool) {
	if r == nil {
		return "", false
	}
	token := trimV(r.Header.Get(s.header))

	return token, token != ""
}

func (s *headerStrategy) Apply(w http.ResponseWriter, _ *http.Request, version string) {
	w.Header().Set(HeaderAPIVersion, version)
	addVary(w.Header(), http.CanonicalHeaderKey(s.header))
}

func (s *headerStrategy) Method() string {
	return string(KindHeader)
}

// ═══════════════════════════════════════════════════════════════════════════════
// Path Strategy
// ═══════════════════════════════════════════════════════════════════════════════

type pathStrategy struct {
	prefix  string
	pattern *regexp.Regexp
}

// NewPath reads the version from a /v<N>[.<N>...] path segment following
// prefix, and strips that segment so routing sees the unversioned path:
//
//	NewPath("")     // /v1/users     -> token "1", path /users
//	NewPath("/api") // /api/v2/users -> token "2", path /api/users
func NewPath(prefix string) (Strategy, error) {
	prefix = strings.TrimSuffix(prefix, "/")
	if prefix != "" && !strings.HasPrefix(prefix, "/") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPrefix, prefix)
	}

	return &pathStrategy{
		prefix:  prefix,
		pattern: regexp.MustCompile(`^` + regexp.QuoteMeta(prefix) + `/v(\d+(?:\.\d+)*)(?:/|$)`),
	}, nil
}

// MustPath is like [NewPath] but panics on an invalid prefix.
func MustPath(prefix string) Strategy {
	s, err := NewPath(prefix)
	if err != nil {
		panic(err)
	}
	return s
}

func (s *pathStrategy) Extract(r *http.Request) (string, bool) {
	if r == nil || r.URL == nil {
		return "", false
	}

	path := r.URL.Path
	loc := s.pattern.FindStringSubmatchIndex(path)
	if loc == nil {
		return "", false
	}

	token := path[loc[2]:loc[3]]
	r.URL.Path = s.prefix + "/" + path[loc[1]:]
	r.URL.RawPath = ""

	return token, true
}

func (s *pathStrategy) Apply(w http.ResponseWriter, _ *http.Request, version string) {
	w.Header().Set(HeaderAPIVersion, version)
}

func (s *pathStrategy) Method() string {
	return string(KindURL)
}

// ═══════════════════════════════════════════════════════════════════════════════
// Query Strategy
// ═══════════════════════════════════════════════════════════════════════════════

type queryStrategy struct {
	param string
}

// Query reads the version from a query parameter (default "version") and
// removes the parameter so handlers never see it.
func Query(param string) Strategy {
	if param == "" {
		param = DefaultQueryParam
	}
	return &queryStrategy{param: param}
}

func (s *queryStrategy) Extract(r *http.Request) (string, bool) {
	if r == nil || r.URL == nil || r.URL.RawQuery == "" {
		return "", false
	}

	values := r.URL.Query()
	if !values.Has(s.param) {
		return "", false
	}
	token := trimV(values.Get(s.param))
	values.Del(s.param)
	r.URL.RawQuery = values.Encode()

	return token, token != ""
}

func (s *queryStrategy) Apply(w http.ResponseWriter, _ *http.Request, version string) {
	w.Header().Set(HeaderAPIVersion, version)
}

func (s *queryStrategy) Method() string {
	return string(KindQuery)
}

// ═══════════════════════════════════════════════════════════════════════════════
// Accept Strategy
// ═══════════════════════════════════════════════════════════════════════════════

const (
	vendorPrefix = "application/vnd."
	jsonSuffix   = "+json"
)

type acceptStrategy struct {
	vendor string
}

// Accept reads the version from the Accept header, either as a version
// media type parameter or as a vendor media type:
//
//	Accept: application/json;version=2
//	Accept: application/vnd.acme.v2+json
//
// Apply answers with application/vnd.<vendor>.v<major>+json.
func Accept(vendor string) Strategy {
	if vendor == "" {
		vendor = DefaultVendor
	}
	return &acceptStrategy{vendor: vendor}
}

func (s *acceptStrategy) Extract(r *http.Request) (string, bool) {
	if r == nil {
		return "", false
	}
	accept := r.Header.Get("Accept")
	if accept == "" {
		return "", false
	}

	for mediaRange := range strings.SplitSeq(accept, ",") {
		mediaType, params, err := mime.ParseMediaType(strings.TrimSpace(mediaRange))
		if err != nil {
			continue
		}
		if v := trimV(params["version"]); v != "" {
			return v, true
		}
		if v, ok := vendorVersion(mediaType); ok {
			return v, true
		}
	}

	return "", false
}

// vendorVersion extracts N from application/vnd.<org>.v<N>+json.
func vendorVersion(mediaType string) (string, bool) {
	if !strings.HasPrefix(mediaType, vendorPrefix) || !strings.HasSuffix(mediaType, jsonSuffix) {
		return "", false
	}
	inner := mediaType[len(vendorPrefix) : len(mediaType)-len(jsonSuffix)]
	idx := strings.LastIndex(inner, ".v")
	if idx <= 0 {
		return "", false
	}
	v := inner[idx+2:]
	if v == "" || strings.Trim(v, "0123456789.") != "" {
		return "", false
	}

	return v, true
}

func (s *acceptStrategy) Apply(w http.ResponseWriter, _ *http.Request, version string) {
	major, _, _ := strings.Cut(version, ".")
	w.Header().Set("Content-Type", fmt.Sprintf("%s%s.v%s%s", vendorPrefix, s.vendor, major, jsonSuffix))
	w.Header().Set(HeaderAPIVersion, version)
	addVary(w.Header(), "Accept")
}

func (s *acceptStrategy) Method() string {
	return string(KindAccept)
}

// ═══════════════════════════════════════════════════════════════════════════════
// Custom Strategy
// ═══════════════════════════════════════════════════════════════════════════════

// ExtractFunc reads a version token from a request.
type ExtractFunc func(r *http.Request) (string, bool)

// ApplyFunc reflects a resolved version into a response.
type ApplyFunc func(w http.ResponseWriter, r *http.Request, version string)

type customStrategy struct {
	name    string
	extract ExtractFunc
	apply   ApplyFunc
}

// Custom wraps caller supplied functions. A nil apply is a no-op.
//
// Example:
//
//	s, err := strategy.Custom("subdomain",
//	    func(r *http.Request) (string, bool) {
//	        sub, _, _ := strings.Cut(r.Host, ".")
//	        return strings.TrimPrefix(sub, "v"), strings.HasPrefix(sub, "v")
//	    },
//	    nil,
//	)
func Custom(name string, extract ExtractFunc, apply ApplyFunc) (Strategy, error) {
	if extract == nil {
		return nil, ErrNilExtractor
	}
	if name == "" {
		name = string(KindCustom)
	}
	return &customStrategy{name: name, extract: extract, apply: apply}, nil
}

func (s *customStrategy) Extract(r *http.Request) (string, bool) {
	return s.extract(r)
}

func (s *customStrategy) Apply(w http.ResponseWriter, r *http.Request, version string) {
	if s.apply != nil {
		s.apply(w, r, version)
	}
}

func (s *customStrategy) Method() string {
	return s.name
}
