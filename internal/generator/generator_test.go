package generator

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foodpulse/internal/cleaning"
	"foodpulse/internal/dataset"
	apperrors "foodpulse/internal/errors"
	"foodpulse/pkg/contracts/domain"
)

func TestTable_Shape(t *testing.T) {
	opts := DefaultOptions()
	opts.Rows = 200
	g, err := New(opts, nil)
	require.NoError(t, err)

	tbl, stats, err := g.Table(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 200, tbl.Len())
	assert.Equal(t, 200, stats.Rows)
	assert.Equal(t, Header, tbl.Columns)
}

func TestTable_Deterministic(t *testing.T) {
	opts := DefaultOptions()
	opts.Rows = 50

	a, err := New(opts, nil)
	require.NoError(t, err)
	b, err := New(opts, nil)
	require.NoError(t, err)

	ta, sa, err := a.Table(context.Background())
	require.NoError(t, err)
	tb, sb, err := b.Table(context.Background())
	require.NoError(t, err)

	assert.Equal(t, sa, sb)
	for i := range ta.Rows {
		// every column but the order id
		for c := 0; c < len(Header)-1; c++ {
			assert.True(t, ta.Rows[i][c].Equal(tb.Rows[i][c]), "row %d col %d", i, c)
		}
	}
}

func TestTable_CleansToExpectedCounts(t *testing.T) {
	opts := DefaultOptions()
	opts.Rows = 500
	opts.DuplicateRatio = 0.1
	opts.BadDateRatio = 0.1
	opts.NullRatio = 0.1
	g, err := New(opts, nil)
	require.NoError(t, err)

	tbl, stats, err := g.Table(context.Background())
	require.NoError(t, err)
	require.Positive(t, stats.Duplicates)
	require.Positive(t, stats.BadDates)
	require.Positive(t, stats.Nulls)

	rep, err := cleaning.NewCleaner(nil).Clean(context.Background(), tbl)
	require.NoError(t, err)

	assert.Equal(t, stats.Duplicates, rep.DuplicatesRemoved)
	assert.Equal(t, stats.Rows-stats.Duplicates, rep.RowsOut)
	assert.Equal(t, ExpectedColumns(), tbl.Columns)
	for _, col := range []string{domain.ColPaymentMethod, domain.ColRestaurantName, domain.ColTotalBill} {
		n, err := tbl.NullCount(col)
		require.NoError(t, err)
		assert.Zero(t, n, col)
	}
}

func TestTable_NoDefects(t *testing.T) {
	opts := DefaultOptions()
	opts.Rows = 100
	opts.DuplicateRatio, opts.NullRatio, opts.BadDateRatio = 0, 0, 0
	g, err := New(opts, nil)
	require.NoError(t, err)

	tbl, stats, err := g.Table(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Stats{Rows: 100}, stats)

	rep, err := cleaning.NewCleaner(nil).Clean(context.Background(), tbl)
	require.NoError(t, err)
	assert.Zero(t, rep.DatesInvalid)
	assert.Equal(t, 100, rep.DatesParsed)
}

func TestWriteWorkbook_LoadsBack(t *testing.T) {
	opts := DefaultOptions()
	opts.Rows = 40
	var progress bytes.Buffer
	g, err := New(opts, nil, WithProgress(&progress))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "synthetic", "orders.xlsx")
	stats, err := g.WriteWorkbook(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 40, stats.Rows)
	assert.NotEmpty(t, progress.String())

	loaded, err := dataset.Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 40, loaded.Len())
	assert.Equal(t, Header, loaded.Columns)
}

func TestNew_InvalidOptions(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Options)
	}{
		{"zero rows", func(o *Options) { o.Rows = 0 }},
		{"ratio above one", func(o *Options) { o.NullRatio = 1.5 }},
		{"negative ratio", func(o *Options) { o.DuplicateRatio = -0.1 }},
		{"no restaurants", func(o *Options) { o.Restaurants = 0 }},
		{"zero days", func(o *Options) { o.Days = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			tt.mutate(&opts)
			_, err := New(opts, nil)
			assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValidation))
		})
	}
}

func TestTable_Cancelled(t *testing.T) {
	g, err := New(DefaultOptions(), nil)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err = g.Table(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
