package cli

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	apperrors "foodpulse/internal/errors"
	"foodpulse/internal/infrastructure"
	transport "foodpulse/internal/transport/http"
)

func newServeCommand(cfgFile *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the charts and manifest of a report directory over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(cmd, *cfgFile)
			if err != nil {
				return err
			}
			defer infrastructure.CloseLogFile()
			overrideString(cmd, "report-dir", &cfg.Pipeline.ReportDir)
			overrideString(cmd, "addr", &cfg.Server.Addr)
			if err := cfg.Validate(); err != nil {
				return err
			}

			providers, err := infrastructure.InitializeOTel(cfg.Telemetry, logger)
			if err != nil {
				return apperrors.NewConfigError("failed to initialize telemetry", err)
			}
			defer func() {
				if err := providers.Shutdown(context.Background()); err != nil {
					logger.Warn("telemetry shutdown failed", slog.String("error", err.Error()))
				}
			}()

			router := transport.NewRouter(transport.RouterDeps{
				ReportDir: cfg.Pipeline.ReportDir,
				Logger:    logger,
				Metrics:   providers.PrometheusHTTP,

				RateLimitRPS:   cfg.Server.RateLimitRPS,
				RateLimitBurst: cfg.Server.RateLimitBurst,
			})
			return transport.Serve(cmd.Context(), cfg.Server, router, logger)
		},
	}
	cmd.Flags().String("report-dir", "", "report directory to serve")
	cmd.Flags().String("addr", "", "listen address (default :8080)")
	return cmd
}
