package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	apperrors "foodpulse/internal/errors"
	"foodpulse/internal/generator"
)

func newGenerateCommand(cfgFile *string) *cobra.Command {
	defaults := generator.DefaultOptions()
	var (
		opts       = defaults
		start      string
		output     string
		noProgress bool
	)

	cmd := &cobra.Command{
		Use:     "generate",
		Short:   "Write a synthetic order workbook with duplicates, gaps and bad dates",
		Example: `  foodpulse generate --output orders.xlsx --rows 5000 --seed 7`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, logger, err := setup(cmd, *cfgFile)
			if err != nil {
				return err
			}
			if output == "" {
				return apperrors.NewAppValidationError("--output is required")
			}
			if opts.Start, err = time.Parse(time.DateOnly, start); err != nil {
				return apperrors.NewAppValidationError(fmt.Sprintf("--start %q is not a YYYY-MM-DD date", start))
			}

			var progress io.Writer = cmd.ErrOrStderr()
			if noProgress {
				progress = io.Discard
			}
			g, err := generator.New(opts, logger, generator.WithProgress(progress))
			if err != nil {
				return err
			}
			stats, err := g.WriteWorkbook(cmd.Context(), output)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Synthetic data saved as: %s (%d rows, %d duplicates, %d empty cells, %d bad dates)\n",
				output, stats.Rows, stats.Duplicates, stats.Nulls, stats.BadDates)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&output, "output", "", "workbook to write")
	f.IntVar(&opts.Rows, "rows", defaults.Rows, "number of rows, duplicates included")
	f.IntVar(&opts.Restaurants, "restaurants", defaults.Restaurants, "number of distinct restaurants")
	f.Int64Var(&opts.Seed, "seed", defaults.Seed, "random seed")
	f.Float64Var(&opts.DuplicateRatio, "duplicates", defaults.DuplicateRatio, "probability that a row is repeated")
	f.Float64Var(&opts.NullRatio, "nulls", defaults.NullRatio, "probability that a fillable cell is empty")
	f.Float64Var(&opts.BadDateRatio, "bad-dates", defaults.BadDateRatio, "probability that an order date is unparseable")
	f.StringVar(&start, "start", defaults.Start.Format(time.DateOnly), "first order day (YYYY-MM-DD)")
	f.IntVar(&opts.Days, "days", defaults.Days, "number of days covered")
	f.StringVar(&opts.Sheet, "sheet", "", "worksheet name")
	f.BoolVar(&noProgress, "no-progress", false, "do not draw a progress bar")
	return cmd
}
