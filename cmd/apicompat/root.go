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
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"rivaas.dev/apicompat/config"
)

const (
	textFormat = "text"
	jsonFormat = "json"
	yamlFormat = "yaml"
)

var legalOutputFormats = []string{textFormat, jsonFormat, yamlFormat}

// GlobalOptions locate the settings shared by every subcommand.
type GlobalOptions struct {
	ConfigFile string
	EnvPrefix  string
	ConsulKey  string
}

func DefaultGlobalOptions() GlobalOptions {
	return GlobalOptions{
		ConfigFile: "apicompat.yaml",
		EnvPrefix:  "APICOMPAT_",
	}
}

func (o *GlobalOptions) Bind(fs *pflag.FlagSet) {
	fs.StringVarP(&o.ConfigFile, "config", "c", o.ConfigFile, "Settings file (yaml, toml or json).")
	fs.StringVar(&o.EnvPrefix, "env-prefix", o.EnvPrefix, "Environment variable prefix layered over the file. Empty disables it.")
	fs.StringVar(&o.ConsulKey, "consul-key", o.ConsulKey, "Consul KV key layered over the file when CONSUL_HTTP_ADDR is set.")
}

// Load reads the settings file, then the environment, then Consul.
func (o *GlobalOptions) Load(ctx context.Context) (*config.Settings, error) {
	opts := []config.Option{config.WithFile(o.ConfigFile)}
	if o.EnvPrefix != "" {
		opts = append(opts, config.WithEnv(o.EnvPrefix))
	}
	if o.ConsulKey != "" {
		opts = append(opts, config.WithConsul(o.ConsulKey))
	}

	s, err := config.LoadSettings(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading settings from %s: %w", o.ConfigFile, err)
	}
	return s, nil
}

func newRootCmd() *cobra.Command {
	o := DefaultGlobalOptions()
	cmd := &cobra.Command{
		Use:           "apicompat [command]",
		Short:         "API version compatibility layer",
		Long:          "Serve version metadata endpoints and inspect the lifecycle of API versions.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	o.Bind(cmd.PersistentFlags())

	cmd.AddCommand(
		newServeCmd(&o),
		newVersionsCmd(&o),
		newMigrationCmd(&o),
		newChangelogCmd(&o),
	)
	return cmd
}

func validateOutput(format string) error {
	if !slices.Contains(legalOutputFormats, format) {
		return fmt.Errorf("output format must be one of (%s)", strings.Join(legalOutputFormats, ", "))
	}
	return nil
}

// writeStructured prints v as indented JSON or YAML.
func writeStructured(w io.Writer, format string, v any) error {
	switch format {
	case jsonFormat:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case yamlFormat:
		out, err := yaml.Marshal(v)
		if err != nil {
			return err
		}
		_, err = w.Write(out)
		return err
	default:
		return fmt.Errorf("unsupported structured format %q", format)
	}
}
