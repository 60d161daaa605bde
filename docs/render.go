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

package docs

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-yaml"
)

// ErrUnknownFormat is returned by [RendererFor] for unsupported formats.
var ErrUnknownFormat = errors.New("unknown changelog format")

// Renderer writes a changelog in one format.
type Renderer interface {
	// ContentType is the media type of the rendered document.
	ContentType() string

	// Render writes c to w.
	Render(w io.Writer, c Changelog) error
}

// RendererFor returns the renderer for a format name. Empty selects
// markdown.
func RendererFor(format string) (Renderer, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "markdown", "md":
		return Markdown{}, nil
	case "yaml", "yml":
		return YAML{}, nil
	case "json":
		return JSON{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// Formats lists the names accepted by [RendererFor].
func Formats() []string {
	return []string{"markdown", "yaml", "json"}
}

// Markdown renders a changelog as CommonMark.
type Markdown struct{}

func (Markdown) ContentType() string { return "text/markdown; charset=utf-8" }

func (Markdown) Render(w io.Writer, c Changelog) error {
	bw := bufio.NewWriter(w)

	title := c.Title
	if title == "" {
		title = DefaultTitle
	}
	fmt.Fprintf(bw, "# %s\n", title)

	for _, e := range c.Versions {
		fmt.Fprintf(bw, "\n## %s", e.Version)
		if e.ReleaseDate != "" {
			fmt.Fprintf(bw, " (%s)", e.ReleaseDate)
		}
		if e.Deprecated {
			bw.WriteString(" - deprecated")
		}
		bw.WriteString("\n")

		if e.Deprecated {
			bw.WriteString("\n")
			writeLifecycle(bw, e)
		}
		writeList(bw, "Breaking changes", e.BreakingChanges)
		writeList(bw, "Changes", e.Changes)
	}

	return bw.Flush()
}

func writeLifecycle(bw *bufio.Writer, e Entry) {
	var parts []string
	if e.DeprecationDate != "" {
		parts = append(parts, "Deprecated since "+e.DeprecationDate+".")
	} else {
		parts = append(parts, "Deprecated.")
	}
	if e.SunsetDate != "" {
		parts = append(parts, "Sunset on "+e.SunsetDate+".")
	}
	if e.Successor != "" {
		parts = append(parts, "Upgrade to "+e.Successor+".")
	}
	bw.WriteString(strings.Join(parts, " "))
	bw.WriteString("\n")
	if e.MigrationURL != "" {
		fmt.Fprintf(bw, "\nMigration guide: <%s>\n", e.MigrationURL)
	}
}

func writeList(bw *bufio.Writer, heading string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(bw, "\n### %s\n\n", heading)
	for _, item := range items {
		fmt.Fprintf(bw, "- %s\n", item)
	}
}

// YAML renders a changelog as YAML.
type YAML struct{}

func (YAML) ContentType() string { return "application/yaml" }

func (YAML) Render(w io.Writer, c Changelog) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal changelog: %w", err)
	}
	_, err = w.Write(data)
	return err
}

// JSON renders a changelog as indented JSON.
type JSON struct{}

func (JSON) ContentType() string { return "application/json" }

func (JSON) Render(w io.Writer, c Changelog) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(c)
}
