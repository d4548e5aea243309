package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foodpulse/internal/config"
	"foodpulse/internal/dataset"
	apperrors "foodpulse/internal/errors"
	"foodpulse/internal/infrastructure"
	"foodpulse/internal/report"
	"foodpulse/internal/shared/testutil"
	"foodpulse/internal/sinks"
	"foodpulse/pkg/contracts/domain"
)

func ordersWorkbook(t *testing.T) string {
	t.Helper()
	return testutil.WriteWorkbook(t, "orders.xlsx", [][]interface{}{
		testutil.OrderHeader,
		{"Pizza Hut", "2024-01-01", nil, 4, 2, 500, "Lagos"},
		{"Pizza Hut", "2024-01-01", nil, 4, 2, 500, "Lagos"},
		{"KFC", "bad-date", "Card", nil, nil, nil, nil},
		{"KFC", "2024-01-02", "Card", 5, 1, 120, "Abuja"},
	})
}

type recordingSink struct {
	mu   sync.Mutex
	name string
	err  error
	got  *sinks.Artifacts
}

func (s *recordingSink) Name() string { return s.name }
func (s *recordingSink) Close() error { return nil }
func (s *recordingSink) Publish(ctx context.Context, a *sinks.Artifacts) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.got = a
	return s.err
}

func pipelineConfig(t *testing.T, input string) config.PipelineConfig {
	dir := t.TempDir()
	return config.PipelineConfig{
		Input:           input,
		Output:          filepath.Join(dir, "out", "cleaned.xlsx"),
		ReportDir:       filepath.Join(dir, "reports"),
		SinkConcurrency: 2,
	}
}

func TestRun_EndToEnd(t *testing.T) {
	logger, handler := testutil.NewTestLogger(t)
	cfg := pipelineConfig(t, ordersWorkbook(t))
	sink := &recordingSink{name: "memory"}

	runner, err := NewRunner(cfg, logger, WithSinks(sink))
	require.NoError(t, err)

	summary, err := runner.Run(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, summary.RunID)
	assert.Equal(t, cfg.Output, summary.Destination)
	assert.Equal(t, 4, summary.Cleaning.RowsIn)
	assert.Equal(t, 3, summary.Cleaning.RowsOut)
	assert.Equal(t, 1, summary.Cleaning.DuplicatesRemoved)
	assert.Equal(t, 1, summary.Cleaning.DatesInvalid)
	require.Len(t, summary.Views, len(domain.AllViews))
	assert.Zero(t, summary.FailedViews())

	top, ok := (&domain.ReportManifest{Views: summary.Views}).View(domain.ViewTopStates)
	require.True(t, ok)
	assert.Equal(t, 1, top.Excluded)

	// cleaned workbook
	cleaned, err := dataset.Load(context.Background(), cfg.Output)
	require.NoError(t, err)
	assert.Equal(t, 3, cleaned.Len())
	payments, err := cleaned.Column(domain.ColPaymentMethod)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultPaymentMethod, payments[0].String())

	// manifest
	m, err := report.ReadManifest(cfg.ReportDir)
	require.NoError(t, err)
	assert.Equal(t, summary.RunID, m.RunID)
	assert.Equal(t, cfg.Output, m.Destination)
	for _, v := range m.Views {
		assert.FileExists(t, filepath.Join(cfg.ReportDir, v.ChartFile))
		assert.FileExists(t, filepath.Join(cfg.ReportDir, v.DataFile))
	}

	// sinks
	require.Len(t, summary.Sinks, 1)
	assert.True(t, summary.Sinks[0].OK())
	require.NotNil(t, sink.got)
	assert.Equal(t, summary.RunID, sink.got.RunID)
	assert.Equal(t, cfg.Output, sink.got.Workbook)
	assert.Contains(t, sink.got.Files, report.ManifestFile)
	assert.Contains(t, sink.got.Files, "daily_sales.png")
	assert.Len(t, sink.got.Files, 2*len(domain.AllViews)+1)

	testutil.AssertLogContains(t, handler, slog.LevelInfo, "pipeline completed")
	testutil.AssertNoErrors(t, handler)
}

func TestRun_OverwritesInputByDefault(t *testing.T) {
	input := ordersWorkbook(t)
	cfg := config.PipelineConfig{Input: input, ReportDir: filepath.Join(t.TempDir(), "reports")}

	runner, err := NewRunner(cfg, nil)
	require.NoError(t, err)
	summary, err := runner.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, input, summary.Destination)

	reloaded, err := dataset.Load(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, 3, reloaded.Len())
	assert.Equal(t, domain.ColRestaurantName, reloaded.Columns[0])
}

func TestRun_KeepsCallerTraceID(t *testing.T) {
	runner, err := NewRunner(pipelineConfig(t, ordersWorkbook(t)), nil)
	require.NoError(t, err)

	ctx := infrastructure.WithTraceID(context.Background(), "run-fixed")
	summary, err := runner.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, "run-fixed", summary.RunID)
}

func TestRun_MissingInput(t *testing.T) {
	logger, handler := testutil.NewTestLogger(t)
	cfg := pipelineConfig(t, filepath.Join(t.TempDir(), "missing.xlsx"))

	runner, err := NewRunner(cfg, logger)
	require.NoError(t, err)
	_, err = runner.Run(context.Background())

	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeLoad))
	assert.NoFileExists(t, cfg.Output)
	testutil.AssertLogContains(t, handler, slog.LevelError, "pipeline failed")
	testutil.AssertLogAttr(t, handler, "error_type", "LOAD")
}

func TestRun_MissingStateColumn(t *testing.T) {
	input := testutil.WriteWorkbook(t, "orders.xlsx", [][]interface{}{
		{"Restaurant Name", "Order Date", "Payment Method", "Food Rating", "Quantity", "Total Bill"},
		{"KFC", "2024-01-02", "Card", 5, 1, 120},
	})
	cfg := pipelineConfig(t, input)

	runner, err := NewRunner(cfg, nil)
	require.NoError(t, err)
	_, err = runner.Run(context.Background())

	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeSchema))
	assert.NoFileExists(t, cfg.Output)
}

func TestRun_SinkFailureIsNotFatal(t *testing.T) {
	cfg := pipelineConfig(t, ordersWorkbook(t))
	ok := &recordingSink{name: "ok"}
	bad := &recordingSink{name: "bad", err: errors.New("bucket missing")}

	runner, err := NewRunner(cfg, nil, WithSinks(ok, bad))
	require.NoError(t, err)
	summary, err := runner.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.FailedSinks())
	assert.True(t, apperrors.IsType(summary.Sinks[1].Err, apperrors.ErrTypePublish))
	assert.FileExists(t, cfg.Output)
}

func TestRun_NonNumericRatingFailsOnlyRatingViews(t *testing.T) {
	input := testutil.WriteWorkbook(t, "orders.xlsx", [][]interface{}{
		testutil.OrderHeader,
		{"KFC", "2024-01-01", "Card", "Inf", 1, 100, "Goa"},
		{"Subway", "2024-01-01", "UPI", 4, 2, 80, "Kerala"},
	})
	cfg := pipelineConfig(t, input)

	runner, err := NewRunner(cfg, nil)
	require.NoError(t, err)
	summary, err := runner.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, summary.FailedViews())
	for _, v := range summary.Views {
		switch v.Name {
		case domain.ViewRatingDistribution, domain.ViewTopRestaurantsByRating:
			assert.Equal(t, domain.ViewStatusFailed, v.Status, v.Name)
		default:
			assert.Equal(t, domain.ViewStatusOK, v.Status, v.Name)
		}
	}
	assert.FileExists(t, cfg.Output)
	assert.FileExists(t, filepath.Join(cfg.ReportDir, report.ManifestFile))
}

func TestRun_MissingMarkersAreCleaned(t *testing.T) {
	input := testutil.WriteWorkbook(t, "orders.xlsx", [][]interface{}{
		testutil.OrderHeader,
		{"NA", "2024-01-01", "N/A", "null", 1, 100, "Goa"},
	})
	cfg := pipelineConfig(t, input)

	runner, err := NewRunner(cfg, nil)
	require.NoError(t, err)
	summary, err := runner.Run(context.Background())
	require.NoError(t, err)

	assert.Zero(t, summary.FailedViews())
	assert.Equal(t, 1, summary.Cleaning.Filled[domain.ColPaymentMethod])
	assert.Equal(t, 1, summary.Cleaning.Filled[domain.ColFoodRating])

	cleaned, err := dataset.Load(context.Background(), cfg.Output)
	require.NoError(t, err)
	payments, err := cleaned.Column(domain.ColPaymentMethod)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultPaymentMethod, payments[0].String())
}

func TestRun_ConfiguredDateLayouts(t *testing.T) {
	input := testutil.WriteWorkbook(t, "orders.xlsx", [][]interface{}{
		testutil.OrderHeader,
		{"KFC", "15.03.2024", "Card", 4, 1, 100, "Goa"},
	})

	cfg := pipelineConfig(t, input)
	runner, err := NewRunner(cfg, nil)
	require.NoError(t, err)
	summary, err := runner.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Cleaning.DatesInvalid)

	cfg = pipelineConfig(t, input)
	cfg.DateLayouts = []string{"02.01.2006"}
	runner, err = NewRunner(cfg, nil)
	require.NoError(t, err)
	summary, err = runner.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, summary.Cleaning.DatesInvalid)
	assert.Equal(t, 1, summary.Cleaning.DatesParsed)
}

func TestRun_UnwritableDestination(t *testing.T) {
	cfg := pipelineConfig(t, ordersWorkbook(t))
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))
	cfg.Output = filepath.Join(blocker, "cleaned.xlsx")

	runner, err := NewRunner(cfg, nil)
	require.NoError(t, err)
	_, err = runner.Run(context.Background())
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeWrite))
}

func TestRun_Cancelled(t *testing.T) {
	runner, err := NewRunner(pipelineConfig(t, ordersWorkbook(t)), nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = runner.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_RecordsMetrics(t *testing.T) {
	providers, err := infrastructure.InitializeOTel(config.Default().Telemetry, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = providers.Shutdown(context.Background()) })
	metrics, err := infrastructure.CreatePipelineMetrics(providers.Meter)
	require.NoError(t, err)

	runner, err := NewRunner(pipelineConfig(t, ordersWorkbook(t)), nil,
		WithMetrics(metrics), WithTracer(providers.Tracer))
	require.NoError(t, err)
	_, err = runner.Run(context.Background())
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	providers.PrometheusHTTP.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	assert.Contains(t, body, `foodpulse_runs_total{`)
	assert.Contains(t, body, `foodpulse_rows_loaded_total`)
	assert.Contains(t, body, `foodpulse_duplicates_removed_total`)
	assert.Contains(t, body, `stage="persist"`)
}

func TestNewRunner_RequiresPaths(t *testing.T) {
	_, err := NewRunner(config.PipelineConfig{ReportDir: "r"}, nil)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfig))

	_, err = NewRunner(config.PipelineConfig{Input: "in.xlsx"}, nil)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfig))
}
