package report

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"foodpulse/internal/analytics"
	"foodpulse/internal/dataset"
	apperrors "foodpulse/internal/errors"
	"foodpulse/internal/exporter"
	"foodpulse/pkg/contracts/domain"
)

// ManifestFile is the name of the run manifest inside the report directory.
const ManifestFile = "manifest.json"

const tracerName = "foodpulse.report"

// Reporter computes, draws and exports every view of a cleaned table.
type Reporter struct {
	dir      string
	logger   *slog.Logger
	renderer Renderer
	csv      *exporter.CSVWriter
	views    []analytics.View
	tracer   trace.Tracer
}

// Option configures a Reporter.
type Option func(*Reporter)

// WithRenderer replaces the chart renderer.
func WithRenderer(r Renderer) Option {
	return func(rep *Reporter) { rep.renderer = r }
}

// WithViews replaces the set of views to produce.
func WithViews(views ...analytics.View) Option {
	return func(rep *Reporter) { rep.views = views }
}

// NewReporter writes its artifacts into dir.
func NewReporter(dir string, logger *slog.Logger, opts ...Option) *Reporter {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Reporter{
		dir:      dir,
		logger:   logger,
		renderer: NewPlotRenderer(),
		csv:      exporter.NewCSVWriter(dir, logger),
		views:    analytics.Views(),
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Dir returns the report directory.
func (r *Reporter) Dir() string { return r.dir }

// Generate produces a chart and a data file per view. A view that fails is
// logged and recorded as failed; the others still run. Only an unusable
// report directory is returned as an error.
func (r *Reporter) Generate(ctx context.Context, t *dataset.Table) ([]domain.ViewEntry, error) {
	if err := os.MkdirAll(r.dir, 0755); err != nil {
		return nil, apperrors.NewWriteError("cannot create report directory", err).
			WithContext("dir", r.dir)
	}

	entries := make([]domain.ViewEntry, 0, len(r.views))
	for _, view := range r.views {
		entry := r.generateView(ctx, view, t)
		entries = append(entries, entry)
	}
	return entries, nil
}

func (r *Reporter) generateView(ctx context.Context, view analytics.View, t *dataset.Table) domain.ViewEntry {
	ctx, span := r.tracer.Start(ctx, "report.view",
		trace.WithAttributes(attribute.String("view.name", string(view.Name))))
	defer span.End()

	entry := domain.ViewEntry{Name: view.Name, Title: view.Title, Status: domain.ViewStatusFailed}
	start := time.Now()

	res, err := r.safeProduce(ctx, view, t, &entry)
	if err != nil {
		entry.Error = err.Error()
		span.RecordError(err)
		span.SetStatus(codes.Error, "view failed")
		r.logger.ErrorContext(ctx, "report view failed",
			slog.String("view", string(view.Name)),
			slog.String("error", err.Error()))
		return entry
	}

	entry.Status = domain.ViewStatusOK
	entry.Rows = res.Len()
	entry.Excluded = res.Excluded
	span.SetAttributes(attribute.Int("view.rows", entry.Rows))
	r.logger.InfoContext(ctx, "report view written",
		slog.String("view", string(view.Name)),
		slog.String("chart", entry.ChartFile),
		slog.Int("rows", entry.Rows),
		slog.Int("excluded", entry.Excluded),
		slog.Duration("duration", time.Since(start)))
	return entry
}

// safeProduce runs produce and turns a panic into a RENDER error so one
// view cannot take down the others.
func (r *Reporter) safeProduce(ctx context.Context, view analytics.View, t *dataset.Table, entry *domain.ViewEntry) (res *analytics.Result, err error) {
	defer func() {
		if p := recover(); p != nil {
			res = nil
			err = apperrors.NewRenderError(string(view.Name), fmt.Errorf("panic: %v", p))
		}
	}()
	return r.produce(ctx, view, t, entry)
}

// produce fills the file names on entry as each artifact is written.
func (r *Reporter) produce(ctx context.Context, view analytics.View, t *dataset.Table, entry *domain.ViewEntry) (*analytics.Result, error) {
	res, err := view.Compute(ctx, t)
	if err != nil {
		return nil, err
	}

	header, records := Records(res)
	dataFile := string(view.Name) + ".csv"
	if _, err := r.csv.WriteSimpleCSV(dataFile, header, records); err != nil {
		return nil, apperrors.NewRenderError(string(view.Name), err)
	}
	entry.DataFile = dataFile

	chartFile := string(view.Name) + ".png"
	if err := r.renderer.Render(res, filepath.Join(r.dir, chartFile)); err != nil {
		return nil, apperrors.NewRenderError(string(view.Name), err)
	}
	entry.ChartFile = chartFile
	return res, nil
}

// Records flattens a result into CSV rows, one per data point.
func Records(res *analytics.Result) ([]string, [][]string) {
	num := func(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

	switch res.Kind {
	case analytics.KindCategory:
		rows := make([][]string, len(res.Categories))
		for i, c := range res.Categories {
			rows[i] = []string{c.Label, num(c.Value)}
		}
		return []string{"label", "value"}, rows
	case analytics.KindSeries:
		rows := make([][]string, len(res.Series))
		for i, v := range res.Series {
			rows[i] = []string{seriesDate(v.Date), num(v.Value)}
		}
		return []string{"date", "value"}, rows
	case analytics.KindHistogram:
		rows := make([][]string, len(res.Bins))
		for i, b := range res.Bins {
			rows[i] = []string{num(b.Lower), num(b.Upper), strconv.Itoa(b.Count)}
		}
		return []string{"lower", "upper", "count"}, rows
	case analytics.KindScatter:
		rows := make([][]string, len(res.Points))
		for i, p := range res.Points {
			rows[i] = []string{num(p.X), num(p.Y)}
		}
		return []string{"x", "y"}, rows
	default:
		return nil, nil
	}
}

// seriesDate prints midnight timestamps as a bare date.
func seriesDate(t time.Time) string {
	if t.Equal(t.Truncate(24 * time.Hour)) {
		return t.Format(time.DateOnly)
	}
	return t.Format(time.DateTime)
}

// WriteManifest stores m as manifest.json in the report directory.
func (r *Reporter) WriteManifest(m *domain.ReportManifest) (string, error) {
	return WriteManifest(r.dir, m)
}

// WriteManifest stores m as manifest.json in dir.
func WriteManifest(dir string, m *domain.ReportManifest) (string, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return "", apperrors.NewWriteError("cannot encode manifest", err)
	}
	path := filepath.Join(dir, ManifestFile)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", apperrors.NewWriteError("cannot write manifest", err).WithContext("path", path)
	}
	return path, nil
}

// ReadManifest loads manifest.json from dir.
func ReadManifest(dir string) (*domain.ReportManifest, error) {
	path := filepath.Join(dir, ManifestFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.NewNotFoundError("report manifest")
		}
		return nil, apperrors.NewLoadError("cannot read manifest", err)
	}
	var m domain.ReportManifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, apperrors.NewLoadError(fmt.Sprintf("invalid manifest %s", path), err)
	}
	return &m, nil
}
