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

	"rivaas.dev/apicompat/docs"
)

type ChangelogOptions struct {
	*GlobalOptions

	Format string
	Title  string
}

func newChangelogCmd(g *GlobalOptions) *cobra.Command {
	o := &ChangelogOptions{GlobalOptions: g, Format: "markdown", Title: docs.DefaultTitle}
	cmd := &cobra.Command{
		Use:   "changelog",
		Short: "Render the changelog of every configured version.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return o.Run(cmd.Context(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&o.Format, "format", "f", o.Format,
		fmt.Sprintf("Output format. One of: (%s).", strings.Join(docs.Formats(), ", ")))
	cmd.Flags().StringVar(&o.Title, "title", o.Title, "Changelog title.")
	return cmd
}

func (o *ChangelogOptions) Run(ctx context.Context, w io.Writer) error {
	renderer, err := docs.RendererFor(o.Format)
	if err != nil {
		return err
	}

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

	c := docs.FromRecords(m.Registry().List())
	c.Title = o.Title
	return renderer.Render(w, c)
}
