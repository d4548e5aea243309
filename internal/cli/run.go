package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"foodpulse/internal/config"
	apperrors "foodpulse/internal/errors"
	"foodpulse/internal/infrastructure"
	"foodpulse/internal/pipeline"
	"foodpulse/internal/sinks"
)

func newRunCommand(cfgFile *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Clean a workbook, draw the report and save the cleaned table",
		Example: `  foodpulse run --input orders.xlsx
  foodpulse run --input orders.xlsx --output cleaned.xlsx --report-dir charts`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(cmd, *cfgFile)
			if err != nil {
				return err
			}
			overrideString(cmd, "input", &cfg.Pipeline.Input)
			overrideString(cmd, "output", &cfg.Pipeline.Output)
			overrideString(cmd, "sheet", &cfg.Pipeline.Sheet)
			overrideString(cmd, "report-dir", &cfg.Pipeline.ReportDir)
			if cfg.Pipeline.Input == "" {
				return apperrors.NewConfigError("no input workbook: pass --input or set pipeline.input", nil)
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runPipeline(cmd, cfg, logger)
		},
	}
	cmd.Flags().String("input", "", "order workbook to clean")
	cmd.Flags().String("output", "", "destination workbook (default: overwrite --input)")
	cmd.Flags().String("sheet", "", "worksheet to read (default: first sheet)")
	cmd.Flags().String("report-dir", "", "directory for charts, view CSVs and manifest.json")
	return cmd
}

func runPipeline(cmd *cobra.Command, cfg *config.Config, logger *slog.Logger) error {
	ctx := cmd.Context()
	defer infrastructure.CloseLogFile()

	providers, err := infrastructure.InitializeOTel(cfg.Telemetry, logger)
	if err != nil {
		return apperrors.NewConfigError("failed to initialize telemetry", err)
	}
	defer func() {
		if err := providers.Shutdown(context.Background()); err != nil {
			logger.Warn("telemetry shutdown failed", slog.String("error", err.Error()))
		}
	}()
	metrics, err := infrastructure.CreatePipelineMetrics(providers.Meter)
	if err != nil {
		return fmt.Errorf("failed to create metrics: %w", err)
	}

	enabled, err := sinks.FromConfig(ctx, cfg.Sinks, logger)
	if err != nil {
		return err
	}
	defer sinks.CloseAll(enabled, logger)

	runner, err := pipeline.NewRunner(cfg.Pipeline, logger,
		pipeline.WithTracer(providers.Tracer),
		pipeline.WithMetrics(metrics),
		pipeline.WithSinks(enabled...))
	if err != nil {
		return err
	}

	summary, runErr := runner.Run(ctx)
	if cfg.Telemetry.MetricsFile != "" {
		if err := providers.WriteMetricsFile(cfg.Telemetry.MetricsFile); err != nil {
			logger.Warn("cannot write metrics file",
				slog.String("path", cfg.Telemetry.MetricsFile),
				slog.String("error", err.Error()))
		}
	}
	if runErr != nil {
		return runErr
	}

	out := cmd.OutOrStdout()
	if n := summary.FailedViews(); n > 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %d of %d charts failed, see %s\n", n, len(summary.Views), summary.Manifest)
	}
	for _, res := range summary.Sinks {
		if !res.OK() {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", res.Error)
		}
	}
	fmt.Fprintf(out, "Cleaned data saved as: %s\n", summary.Destination)
	return nil
}
