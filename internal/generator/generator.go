package generator

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jaswdr/faker"
	"github.com/lucsky/cuid"
	"github.com/schollz/progressbar/v3"

	"foodpulse/internal/dataset"
	apperrors "foodpulse/internal/errors"
	"foodpulse/pkg/contracts/domain"
)

// ColOrderID is the extra column carried by generated workbooks.
const ColOrderID = "Order ID"

// Header is written with the spacing and casing typical of hand-made
// exports so that a generated workbook exercises header normalization.
var Header = []string{
	" Restaurant Name", "Order Date", "Payment Method ", "Food Rating",
	"Quantity", "Total Bill", "State", ColOrderID,
}

var paymentMethods = []string{"Card", "Cash", "Mobile Money", "Bank Transfer", "Voucher"}

var states = []string{
	"Lagos", "Abuja", "Kano", "Rivers", "Oyo", "Kaduna", "Enugu", "Delta", "Ogun", "Edo",
}

// dateFormats spells valid dates the ways the cleaner accepts.
var dateFormats = []string{time.DateOnly, "01/02/2006", "2006/01/02", "2 Jan 2006", time.DateTime}

var badDates = []string{"not a date", "32/13/2024", "yesterday", "N/A", "2024-02-30"}

// Options controls the shape of a generated workbook.
type Options struct {
	Rows           int       `validate:"min=1,max=1000000"`
	Restaurants    int       `validate:"min=1,max=10000"`
	Seed           int64     `validate:"-"`
	DuplicateRatio float64   `validate:"gte=0,lte=1"`
	NullRatio      float64   `validate:"gte=0,lte=1"`
	BadDateRatio   float64   `validate:"gte=0,lte=1"`
	Start          time.Time `validate:"required"`
	Days           int       `validate:"min=1"`
	Sheet          string    `validate:"-"`
}

// DefaultOptions returns a month of orders across twenty restaurants.
func DefaultOptions() Options {
	return Options{
		Rows:           1000,
		Restaurants:    20,
		Seed:           1,
		DuplicateRatio: 0.02,
		NullRatio:      0.05,
		BadDateRatio:   0.02,
		Start:          time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		Days:           30,
	}
}

// Stats counts the defects injected into a workbook.
type Stats struct {
	Rows       int
	Duplicates int
	Nulls      int
	BadDates   int
}

// Generator produces synthetic order tables.
type Generator struct {
	opts     Options
	fake     faker.Faker
	rng      *rand.Rand
	logger   *slog.Logger
	progress io.Writer
}

// Option configures a Generator.
type Option func(*Generator)

// WithProgress draws a progress bar on w.
func WithProgress(w io.Writer) Option {
	return func(g *Generator) { g.progress = w }
}

// New validates opts and seeds the generator. Equal seeds give equal
// tables apart from the order ids.
func New(opts Options, logger *slog.Logger, options ...Option) (*Generator, error) {
	if err := validator.New().Struct(opts); err != nil {
		return nil, apperrors.NewAppValidationError(fmt.Sprintf("invalid generator options: %v", err))
	}
	if logger == nil {
		logger = slog.Default()
	}
	g := &Generator{
		opts:     opts,
		fake:     faker.NewWithSeed(rand.NewSource(opts.Seed)),
		rng:      rand.New(rand.NewSource(opts.Seed)),
		logger:   logger,
		progress: io.Discard,
	}
	for _, o := range options {
		o(g)
	}
	return g, nil
}

// Table builds opts.Rows orders. Duplicates are exact copies of the row just
// generated and count towards Rows.
func (g *Generator) Table(ctx context.Context) (*dataset.Table, Stats, error) {
	var stats Stats
	restaurants := g.restaurants()
	t := dataset.New(Header...)

	bar := progressbar.NewOptions(g.opts.Rows,
		progressbar.OptionSetWriter(g.progress),
		progressbar.OptionSetDescription("generating orders"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)

	for t.Len() < g.opts.Rows {
		if t.Len()%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, stats, err
			}
		}
		row, nulls, bad := g.order(restaurants)
		if err := t.Append(row...); err != nil {
			return nil, stats, err
		}
		stats.Nulls += nulls
		if bad {
			stats.BadDates++
		}
		_ = bar.Add(1)

		if t.Len() < g.opts.Rows && g.rng.Float64() < g.opts.DuplicateRatio {
			if err := t.Append(row...); err != nil {
				return nil, stats, err
			}
			stats.Duplicates++
			stats.Nulls += nulls
			if bad {
				stats.BadDates++
			}
			_ = bar.Add(1)
		}
	}
	_ = bar.Finish()

	stats.Rows = t.Len()
	return t, stats, nil
}

// WriteWorkbook generates a table and saves it to path.
func (g *Generator) WriteWorkbook(ctx context.Context, path string) (Stats, error) {
	t, stats, err := g.Table(ctx)
	if err != nil {
		return stats, err
	}
	if err := dataset.NewPersister(g.logger, g.opts.Sheet).Save(ctx, t, path); err != nil {
		return stats, err
	}
	g.logger.InfoContext(ctx, "synthetic workbook written",
		slog.String("path", path),
		slog.Int("rows", stats.Rows),
		slog.Int("duplicates", stats.Duplicates),
		slog.Int("nulls", stats.Nulls),
		slog.Int("bad_dates", stats.BadDates))
	return stats, nil
}

func (g *Generator) restaurants() []string {
	seen := make(map[string]bool, g.opts.Restaurants)
	names := make([]string, 0, g.opts.Restaurants)
	for len(names) < g.opts.Restaurants {
		name := g.fake.Company().Name()
		if seen[name] {
			name = fmt.Sprintf("%s %d", name, len(names)+1)
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}

// order returns one row in Header order, the number of cells left empty and
// whether the date is unparseable.
func (g *Generator) order(restaurants []string) ([]dataset.Value, int, bool) {
	quantity := g.fake.IntBetween(1, 8)
	price := float64(g.fake.IntBetween(500, 6000)) / 100
	rating := float64(g.fake.IntBetween(10, 50)) / 10

	row := []dataset.Value{
		dataset.Str(restaurants[g.rng.Intn(len(restaurants))]),
		g.date(),
		dataset.Str(paymentMethods[g.rng.Intn(len(paymentMethods))]),
		dataset.Num(rating),
		dataset.Num(float64(quantity)),
		dataset.Num(float64(int(price*float64(quantity)*100+0.5)) / 100),
		dataset.Str(states[g.rng.Intn(len(states))]),
		dataset.Str(cuid.New()),
	}

	bad := false
	if g.rng.Float64() < g.opts.BadDateRatio {
		row[1] = dataset.Str(badDates[g.rng.Intn(len(badDates))])
		bad = true
	}

	nulls := 0
	// order date and order id are never blanked
	for _, i := range []int{0, 2, 3, 4, 5, 6} {
		if g.rng.Float64() < g.opts.NullRatio {
			row[i] = dataset.Null()
			nulls++
		}
	}
	return row, nulls, bad
}

// date spreads orders over the configured window, as real dates or as text
// in one of the accepted layouts.
func (g *Generator) date() dataset.Value {
	day := g.opts.Start.AddDate(0, 0, g.rng.Intn(g.opts.Days))
	ts := day.Add(time.Duration(g.rng.Intn(24*60)) * time.Minute)
	if g.rng.Intn(2) == 0 {
		return dataset.Timestamp(ts)
	}
	return dataset.Str(ts.Format(dateFormats[g.rng.Intn(len(dateFormats))]))
}

// ExpectedColumns lists the canonical names a generated workbook has after
// header normalization.
func ExpectedColumns() []string {
	return append(append([]string{}, domain.RequiredColumns...), "order id")
}
