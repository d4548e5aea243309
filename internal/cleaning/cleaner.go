package cleaning

import (
	"context"
	"log/slog"
	"strings"

	"foodpulse/internal/dataset"
	"foodpulse/pkg/contracts/domain"
)

// Fill replaces nulls in Column with Value.
type Fill struct {
	Column string
	Value  dataset.Value
}

// DefaultFills is the missing-value policy for order workbooks. Columns not
// listed here (state included) keep their nulls.
func DefaultFills() []Fill {
	return []Fill{
		{Column: domain.ColPaymentMethod, Value: dataset.Str(domain.DefaultPaymentMethod)},
		{Column: domain.ColRestaurantName, Value: dataset.Str(domain.DefaultRestaurantName)},
		{Column: domain.ColFoodRating, Value: dataset.Num(0)},
		{Column: domain.ColQuantity, Value: dataset.Num(0)},
		{Column: domain.ColTotalBill, Value: dataset.Num(0)},
	}
}

// Report counts what a cleaning pass changed.
type Report struct {
	RowsIn            int
	RowsOut           int
	RenamedColumns    int
	DatesParsed       int
	DatesInvalid      int
	DuplicatesRemoved int
	Filled            map[string]int
}

// Summary converts the report to its serializable form.
func (r *Report) Summary() domain.CleaningSummary {
	filled := make(map[string]int, len(r.Filled))
	for k, v := range r.Filled {
		filled[k] = v
	}
	return domain.CleaningSummary{
		RowsIn:            r.RowsIn,
		RowsOut:           r.RowsOut,
		DuplicatesRemoved: r.DuplicatesRemoved,
		DatesParsed:       r.DatesParsed,
		DatesInvalid:      r.DatesInvalid,
		Filled:            filled,
	}
}

// Cleaner normalizes an order table in place.
type Cleaner struct {
	logger     *slog.Logger
	dateColumn string
	fills      []Fill
	dates      dateParser
}

// Option configures a Cleaner.
type Option func(*Cleaner)

// WithFills replaces the missing-value policy.
func WithFills(fills []Fill) Option {
	return func(c *Cleaner) { c.fills = fills }
}

// WithDateLayouts replaces the layouts tried for textual dates.
func WithDateLayouts(layouts []string) Option {
	return func(c *Cleaner) { c.dates.layouts = layouts }
}

// NewCleaner creates a cleaner with the default fill policy and date layouts.
func NewCleaner(logger *slog.Logger, opts ...Option) *Cleaner {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Cleaner{
		logger:     logger,
		dateColumn: domain.ColOrderDate,
		fills:      DefaultFills(),
		dates:      dateParser{layouts: DefaultDateLayouts},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Clean runs, in order: header normalization, date coercion, duplicate
// removal and missing-value fills. Duplicates are removed before fills so
// that filled values neither hide nor create duplicates.
//
// Every referenced column is checked against the normalized header first; a
// missing one aborts with a SCHEMA error and leaves t unchanged.
func (c *Cleaner) Clean(ctx context.Context, t *dataset.Table) (*Report, error) {
	report := &Report{
		RowsIn: t.Len(),
		Filled: make(map[string]int, len(c.fills)),
	}

	header := dataset.New(normalizedNames(t.Columns)...)
	dateIdx, err := header.ColumnIndex(c.dateColumn)
	if err != nil {
		return nil, err
	}
	fillIdx := make([]int, len(c.fills))
	for i, f := range c.fills {
		if fillIdx[i], err = header.ColumnIndex(f.Column); err != nil {
			return nil, err
		}
	}

	report.RenamedColumns = NormalizeColumns(t)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	report.DatesParsed, report.DatesInvalid = c.coerceDates(t, dateIdx)
	report.DuplicatesRemoved = DropDuplicates(t)

	for i, f := range c.fills {
		n := fillNulls(t, fillIdx[i], f.Value)
		report.Filled[f.Column] = n
	}
	report.RowsOut = t.Len()

	c.logger.InfoContext(ctx, "table cleaned",
		slog.Int("rows_in", report.RowsIn),
		slog.Int("rows_out", report.RowsOut),
		slog.Int("renamed_columns", report.RenamedColumns),
		slog.Int("dates_parsed", report.DatesParsed),
		slog.Int("dates_invalid", report.DatesInvalid),
		slog.Int("duplicates_removed", report.DuplicatesRemoved),
		slog.Any("filled", report.Filled))

	return report, nil
}

// NormalizeColumns trims and lowercases every column name and returns how
// many names changed.
func NormalizeColumns(t *dataset.Table) int {
	changed := 0
	for i, normalized := range normalizedNames(t.Columns) {
		if normalized != t.Columns[i] {
			t.Columns[i] = normalized
			changed++
		}
	}
	return changed
}

func normalizedNames(columns []string) []string {
	out := make([]string, len(columns))
	for i, name := range columns {
		out[i] = strings.ToLower(strings.TrimSpace(name))
	}
	return out
}

// coerceDates rewrites column idx as timestamps. It returns how many cells
// hold a date afterwards and how many non-null cells could not be parsed.
func (c *Cleaner) coerceDates(t *dataset.Table, idx int) (parsed, invalid int) {
	for _, row := range t.Rows {
		v := row[idx]
		coerced, ok := c.dates.parse(v)
		if ok {
			parsed++
		} else if !v.IsNull() {
			invalid++
		}
		row[idx] = coerced
	}
	return parsed, invalid
}

// DropDuplicates removes rows equal in every column to an earlier row,
// keeping first occurrences in order. It returns the number removed.
func DropDuplicates(t *dataset.Table) int {
	seen := make(map[string]struct{}, len(t.Rows))
	kept := t.Rows[:0]
	for _, row := range t.Rows {
		key := dataset.RowKey(row)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		kept = append(kept, row)
	}
	removed := len(t.Rows) - len(kept)
	for i := len(kept); i < len(t.Rows); i++ {
		t.Rows[i] = nil
	}
	t.Rows = kept
	return removed
}

func fillNulls(t *dataset.Table, idx int, v dataset.Value) int {
	n := 0
	for _, row := range t.Rows {
		if row[idx].IsNull() {
			row[idx] = v
			n++
		}
	}
	return n
}
