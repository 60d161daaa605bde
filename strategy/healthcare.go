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
	"net/http"
	"strings"
)

// Healthcare interoperability headers.
const (
	HeaderFHIRVersion = "FHIR-Version"
	HeaderHL7Version  = "HL7-Version"

	headerFHIREcho       = "X-FHIR-Version"
	headerClassification = "X-Data-Classification"
	headerHIPAA          = "X-HIPAA-Compliant"
)

// standardVersions maps FHIR release names and numbers to API versions.
var standardVersions = map[string]string{
	"DSTU2": "1.0.0",
	"1.0.2": "1.0.0",
	"STU3":  "1.0.0",
	"3.0":   "1.0.0",
	"3.0.0": "1.0.0",
	"3.0.1": "1.0.0",
	"3.0.2": "1.0.0",
	"R4":    "2.0.0",
	"4.0":   "2.0.0",
	"4.0.0": "2.0.0",
	"4.0.1": "2.0.0",
	"R5":    "3.0.0",
	"5.0":   "3.0.0",
	"5.0.0": "3.0.0",
}

// StandardVersion returns the API version a FHIR release maps to.
func StandardVersion(release string) (string, bool) {
	v, ok := standardVersions[strings.ToUpper(strings.TrimSpace(release))]
	return v, ok
}

type healthcareStrategy struct {
	header   Strategy
	fallback string
}

// Healthcare reads FHIR-Version, then HL7-Version, then the plain version
// header. Standard release identifiers such as "R4" or "4.0.1" are mapped
// to API versions; unknown identifiers resolve to fallback when it is set.
//
// Apply adds the data classification headers healthcare gateways expect.
func Healthcare(header, fallback string) Strategy {
	return &healthcareStrategy{header: Header(header), fallback: fallback}
}

func (s *healthcareStrategy) Extract(r *http.Request) (string, bool) {
	if r == nil {
		return "", false
	}

	for _, name := range []string{HeaderFHIRVersion, HeaderHL7Version} {
		raw := strings.TrimSpace(r.Header.Get(name))
		if raw == "" {
			continue
		}
		if v, ok := StandardVersion(raw); ok {
			return v, true
		}
		if s.fallback != "" {
			return s.fallback, true
		}
		return trimV(raw), true
	}

	return s.header.Extract(r)
}

func (s *healthcareStrategy) Apply(w http.ResponseWriter, r *http.Request, version string) {
	s.header.Apply(w, r, version)

	h := w.Header()
	if r != nil {
		if fhir := r.Header.Get(HeaderFHIRVersion); fhir != "" {
			h.Set(headerFHIREcho, fhir)
			addVary(h, HeaderFHIRVersion)
		}
	}
	h.Set(headerClassification, "PHI")
	h.Set(headerHIPAA, "true")
}

func (s *healthcareStrategy) Method() string {
	return string(KindHealthcare)
}
