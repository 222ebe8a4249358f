package main

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ersonp/kin-core/internal/infrastructure/config"
	"github.com/ersonp/kin-core/internal/infrastructure/httpapi"
	"github.com/ersonp/kin-core/internal/infrastructure/telemetry"
)

type serveFlags struct {
	addr        string
	traceStdout bool
	noWatch     bool
}

func newServeCmd() *cobra.Command {
	var flags serveFlags

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the family tree API over HTTP",
		Long: `Starts the HTTP API for the selected family. Validator and scorer
settings in .kin/config.yaml are reloaded while the server runs.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, flags)
		},
	}

	cmd.Flags().StringVar(&flags.addr, "addr", "", "Listen address (default from config)")
	cmd.Flags().BoolVar(&flags.traceStdout, "trace-stdout", false, "Export trace spans to stdout")
	cmd.Flags().BoolVar(&flags.noWatch, "no-watch", false, "Do not reload config on change")

	return cmd
}

func runServe(cmd *cobra.Command, flags serveFlags) error {
	ctx := cmd.Context()

	return withInternalDeps(ctx, func(d *internalDeps) error {
		logger := d.Logger

		if flags.traceStdout {
			shutdown, err := telemetry.Setup(telemetry.Options{ServiceName: httpapi.DefaultServiceName})
			if err != nil {
				return fmt.Errorf("setting up tracing: %w", err)
			}
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logger.Warn("flushing traces failed", zap.Error(err))
				}
			}()
		}

		if !flags.noWatch {
			watcher, err := config.NewWatcher(d.basePath, logger, d.applyConfig)
			if err != nil {
				return fmt.Errorf("watching config: %w", err)
			}
			defer watcher.Close()
		}

		if d.Config.Log.Mode == "production" {
			gin.SetMode(gin.ReleaseMode)
		}

		api := httpapi.NewAPI(d.TreeHandler, d.EdgeHandler, d.SuggestionHandler, d.PersonHandler, d.AuditHandler)
		router := httpapi.NewRouter(httpapi.RouterConfig{
			API:         api,
			Logger:      logger,
			CORSOrigins: d.Config.Server.CORSOrigins,
		})

		addr := flags.addr
		if addr == "" {
			addr = d.Config.Server.Addr
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Serving family %q on %s\n", globalFamily, addr)

		return httpapi.NewServer(addr, router, logger).Run(ctx)
	})
}

// applyConfig pushes reloaded validator and scorer settings into the
// running services. Projection depth limits and server settings need a
// restart.
func (d *internalDeps) applyConfig(cfg *config.Config) {
	d.validator.SetConfig(cfg.ValidatorConfig())
	if err := d.scorer.SetConfig(cfg.ScorerConfig()); err != nil {
		d.Logger.Warn("scorer config rejected, keeping previous", zap.Error(err))
		return
	}
	d.Logger.Info("validator and scorer settings applied",
		zap.Float64("min_parent_age", cfg.Validator.MinParentAge),
		zap.Float64("max_parent_age", cfg.Validator.MaxParentAge))
}
