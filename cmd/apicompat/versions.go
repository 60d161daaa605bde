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


package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"rivaas.dev/apicompat/docs"
	"rivaas.dev/apicompat/version"
)

type VersionsOptions struct {
	*GlobalOptions

	Output string
}

// VersionRow is one line of the versions listing.
type VersionRow struct {
	Version   string `json:"version"`
	Released  string `json:"released"`
	Status    string `json:"status"`
	Sunset    string `json:"sunset,omitempty"`
	Successor string `json:"successor,omitempty"`
}

func newVersionsCmd(g *GlobalOptions) *cobra.Command {
	o := &VersionsOptions{GlobalOptions: g, Output: textFormat}
	cmd := &cobra.Command{
		Use:   "versions",
		Short: "List configured API versions and their lifecycle state.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := validateOutput(o.Output); err != nil {
				return err
			}
			return o.Run(cmd.Context(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&o.Output, "output", "o", o.Output, "Output format. One of: (text, json, yaml).")
	return cmd
}

func (o *VersionsOptions) Run(ctx context.Context, w io.Writer) error {
	s, err := o.Load(ctx)
	if err != nil {
		return err
	}
	logger, err := newLogger(s, io.Discard)
	if err != nil {
		return err
	}
	m, err := newManager(s, logger)
	if err != nil {
		return err
	}

	rows := versionRows(m.Registry().List(), m.Middleware().Config().DefaultVersion(), time.Now())
	if o.Output != textFormat {
		return writeStructured(w, o.Output, rows)
	}
	renderVersionsTable(w, rows)
	return nil
}

// versionRows lists records newest first.
func versionRows(records []version.Record, current string, now time.Time) []VersionRow {
	rows := make([]VersionRow, 0, len(records))
	for i := len(records) - 1; i >= 0; i-- {
		rec := records[i]
		rows = append(rows, VersionRow{
			Version:   rec.Version,
			Released:  docs.Date(rec.ReleaseDate),
			Status:    lifecycleStatus(rec, current, now),
			Sunset:    docs.Date(rec.SunsetDate),
			Successor: rec.Successor,
		})
	}
	return rows
}

func lifecycleStatus(rec version.Record, current string, now time.Time) string {
	switch {
	case rec.SunsetPassed(now):
		return "sunset"
	case rec.Deprecated:
		return "deprecated"
	case rec.Version == current:
		return "current"
	default:
		return "active"
	}
}

var statusStyles = map[string]lipgloss.Style{
	"current":    lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true),
	"active":     lipgloss.NewStyle().Foreground(lipgloss.Color("14")),
	"deprecated": lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
	"sunset":     lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
}

func renderVersionsTable(w io.Writer, rows []VersionRow) {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		Headers("Version", "Released", "Status", "Sunset", "Successor").
		StyleFunc(func(row, col int) lipgloss.Style {
			style := lipgloss.NewStyle().Padding(0, 1)
			if row == table.HeaderRow {
				return style.Bold(true).Foreground(lipgloss.Color("245"))
			}
			if col == 2 && row < len(rows) {
				if s, ok := statusStyles[rows[row].Status]; ok {
					return s.Padding(0, 1)
				}
			}
			return style
		})

	for _, r := range rows {
		t.Row(r.Version, r.Released, r.Status, dash(r.Sunset), dash(r.Successor))
	}
	_, _ = fmt.Fprintln(w, t.Render())
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
