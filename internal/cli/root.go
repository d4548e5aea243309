package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"foodpulse/internal/config"
	"foodpulse/internal/infrastructure"
)

// Version and BuildTime are stamped by build.go through -ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

// NewRootCommand builds the foodpulse command tree. Command output goes to
// stdout; logs go to stderr.
func NewRootCommand(stdout, stderr io.Writer) *cobra.Command {
	var cfgFile string

	root := &cobra.Command{
		Use:   "foodpulse",
		Short: "Cleans food-delivery order workbooks and reports on them",
		Long: `foodpulse loads an order workbook, cleans it, draws seven summary charts
and saves the cleaned table, optionally publishing the results to S3,
Parquet, Postgres, Kafka and RabbitMQ.`,
		Version:       Version + " (built " + BuildTime + ")",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "YAML config file (default $"+config.EnvConfigFile+")")

	root.AddCommand(
		newRunCommand(&cfgFile),
		newGenerateCommand(&cfgFile),
		newServeCommand(&cfgFile),
	)
	return root
}

// Execute runs the command tree with args and returns the first error.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	root := NewRootCommand(stdout, stderr)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// setup loads the configuration and the global logger shared by every
// subcommand.
func setup(cmd *cobra.Command, cfgFile string) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, err
	}
	logger, err := infrastructure.InitializeLogger(cfg.Logging, cmd.ErrOrStderr())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, logger.With(slog.String("command", cmd.Name())), nil
}

// overrideString sets *dst from flag name when the user passed it.
func overrideString(cmd *cobra.Command, name string, dst *string) {
	if cmd.Flags().Changed(name) {
		*dst, _ = cmd.Flags().GetString(name)
	}
}
