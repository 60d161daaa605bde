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
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"rivaas.dev/apicompat/compat"
	"rivaas.dev/apicompat/config"
	"rivaas.dev/apicompat/logging"
)

type ServeOptions struct {
	*GlobalOptions

	Addr     string
	NoBanner bool
}

func newServeCmd(g *GlobalOptions) *cobra.Command {
	o := &ServeOptions{GlobalOptions: g}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the /versions, /changelog, /migration and /metrics endpoints.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return o.Run(ctx, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
	cmd.Flags().StringVar(&o.Addr, "addr", "", "Listen address. Overrides server.addr.")
	cmd.Flags().BoolVar(&o.NoBanner, "no-banner", false, "Do not print the startup banner.")
	return cmd
}

// Run serves until ctx is canceled, then shuts the server and telemetry
// down within server.shutdownTimeout.
func (o *ServeOptions) Run(ctx context.Context, out, logOut io.Writer) error {
	s, err := o.Load(ctx)
	if err != nil {
		return err
	}
	if o.Addr != "" {
		s.Server.Addr = o.Addr
	}

	logger, err := newLogger(s, logOut)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	recorder, err := newRecorder(s, logger)
	if err != nil {
		return fmt.Errorf("creating metrics recorder: %w", err)
	}
	tracer, err := newTracer(s, logger)
	if err != nil {
		return fmt.Errorf("creating tracer: %w", err)
	}

	m, err := newManager(s, logger, compat.WithMetrics(recorder), compat.WithTracer(tracer))
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              s.Server.Addr,
		Handler:           m,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       time.Minute,
	}
	return runServer(ctx, server, m, s, logger, func() {
		if !o.NoBanner {
			printBanner(out, s, m, recorder.Provider(), tracer.Provider())
		}
	})
}

func runServer(ctx context.Context, server *http.Server, m *compat.Manager, s *config.Settings, logger *logging.Logger, ready func()) error {
	ready()
	logger.Info("server starting", "addr", server.Addr, "default_version", m.Middleware().Config().DefaultVersion())

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- fmt.Errorf("server failed to start: %w", err)
		}
	}()

	select {
	case err := <-serverErr:
		_ = m.Shutdown(context.Background())
		return err
	case <-ctx.Done():
		logger.Info("server shutting down", "reason", ctx.Err())
	}

	// ctx is already canceled; the shutdown gets its own deadline.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	if err := m.Shutdown(shutdownCtx); err != nil {
		logger.Warn("telemetry shutdown failed", "error", err)
	}

	logger.Info("server exited")
	return nil
}
