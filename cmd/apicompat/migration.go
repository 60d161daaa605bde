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
	"strings"

	"github.com/spf13/cobra"

	"rivaas.dev/apicompat/compat"
)

type MigrationOptions struct {
	*GlobalOptions

	Output string
}

func newMigrationCmd(g *GlobalOptions) *cobra.Command {
	o := &MigrationOptions{GlobalOptions: g, Output: textFormat}
	cmd := &cobra.Command{
		Use:     "migration FROM TO",
		Short:   "Print the migration guide between two API versions.",
		Example: "  apicompat migration 1.0.0 2.0.0\n  apicompat migration v1 v2 -o json",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateOutput(o.Output); err != nil {
				return err
			}
			return o.Run(cmd.Context(), cmd.OutOrStdout(), args[0], args[1])
		},
	}
	cmd.Flags().StringVarP(&o.Output, "output", "o", o.Output, "Output format. One of: (text, json, yaml).")
	return cmd
}

func (o *MigrationOptions) Run(ctx context.Context, w io.Writer, from, to string) error {
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

	guide, err := m.MigrationGuide(from, to)
	if err != nil {
		return err
	}
	if o.Output != textFormat {
		return writeStructured(w, o.Output, guide)
	}
	_, err = io.WriteString(w, formatGuide(guide))
	return err
}

func formatGuide(g compat.MigrationGuide) string {
	var b strings.Builder

	kind := "breaking"
	if g.Compatible {
		kind = "compatible"
	}
	fmt.Fprintf(&b, "Migration %s -> %s (%s)\n", g.From, g.To, kind)

	if g.Compatible {
		b.WriteString("\nNo changes required: both versions share a major version.\n")
	}
	if len(g.BreakingChanges) > 0 {
		b.WriteString("\nBreaking changes:\n")
		for _, c := range g.BreakingChanges {
			fmt.Fprintf(&b, "  - %s\n", c)
		}
	}
	if len(g.Steps) > 0 {
		b.WriteString("\nSteps:\n")
		for i, step := range g.Steps {
			fmt.Fprintf(&b, "  %d. %s\n", i+1, step)
		}
	}
	if g.SunsetDate != "" {
		fmt.Fprintf(&b, "\n%s is removed on %s.\n", g.From, g.SunsetDate)
	}
	if g.MigrationURL != "" {
		fmt.Fprintf(&b, "Guide: %s\n", g.MigrationURL)
	}
	return b.String()
}
