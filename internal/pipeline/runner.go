package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"

	"foodpulse/internal/cleaning"
	"foodpulse/internal/config"
	"foodpulse/internal/dataset"
	apperrors "foodpulse/internal/errors"
	"foodpulse/internal/infrastructure"
	"foodpulse/internal/report"
	"foodpulse/internal/sinks"
	"foodpulse/pkg/contracts/domain"
)

// TracerName names the tracer used for stage spans.
const TracerName = "foodpulse.pipeline"

// Stage names, also used as span suffixes and metric attributes.
const (
	StageLoad    = "load"
	StageClean   = "clean"
	StageReport  = "report"
	StagePersist = "persist"
	StagePublish = "publish"
)

// Summary describes a completed run.
type Summary struct {
	RunID       string                 `json:"run_id"`
	Source      string                 `json:"source"`
	Destination string                 `json:"destination"`
	ReportDir   string                 `json:"report_dir"`
	Manifest    string                 `json:"manifest"`
	Cleaning    domain.CleaningSummary `json:"cleaning"`
	Views       []domain.ViewEntry     `json:"views"`
	Sinks       []sinks.Result         `json:"sinks,omitempty"`
	Duration    time.Duration          `json:"duration"`
}

// FailedViews returns the number of views that did not render.
func (s *Summary) FailedViews() int {
	n := 0
	for _, v := range s.Views {
		if v.Status == domain.ViewStatusFailed {
			n++
		}
	}
	return n
}

// FailedSinks returns the number of sinks that did not publish.
func (s *Summary) FailedSinks() int {
	n := 0
	for _, r := range s.Sinks {
		if !r.OK() {
			n++
		}
	}
	return n
}

// Runner executes load, clean, report and persist in order, then hands the
// artifacts to the configured sinks.
type Runner struct {
	cfg       config.PipelineConfig
	logger    *slog.Logger
	tracer    trace.Tracer
	metrics   *infrastructure.PipelineMetrics
	loader    *dataset.Loader
	cleaner   *cleaning.Cleaner
	reporter  *report.Reporter
	persister *dataset.Persister
	sinks     []sinks.Sink
	now       func() time.Time
}

// Option configures a Runner.
type Option func(*Runner)

// WithTracer sets the tracer used for stage spans.
func WithTracer(t trace.Tracer) Option {
	return func(r *Runner) { r.tracer = t }
}

// WithMetrics records run metrics on m.
func WithMetrics(m *infrastructure.PipelineMetrics) Option {
	return func(r *Runner) { r.metrics = m }
}

// WithSinks publishes artifacts to s after each successful run.
func WithSinks(s ...sinks.Sink) Option {
	return func(r *Runner) { r.sinks = s }
}

// NewRunner builds a runner for cfg. cfg.Output defaults to cfg.Input.
func NewRunner(cfg config.PipelineConfig, logger *slog.Logger, opts ...Option) (*Runner, error) {
	if cfg.Input == "" {
		return nil, apperrors.NewConfigError("input workbook path is required", nil)
	}
	if cfg.ReportDir == "" {
		return nil, apperrors.NewConfigError("report directory is required", nil)
	}
	if logger == nil {
		logger = slog.Default()
	}

	var cleanOpts []cleaning.Option
	if len(cfg.DateLayouts) > 0 {
		cleanOpts = append(cleanOpts, cleaning.WithDateLayouts(cfg.DateLayouts))
	}

	r := &Runner{
		cfg:       cfg,
		logger:    logger,
		tracer:    otel.Tracer(TracerName),
		loader:    dataset.NewLoader(logger, cfg.Sheet),
		cleaner:   cleaning.NewCleaner(logger, cleanOpts...),
		reporter:  report.NewReporter(cfg.ReportDir, logger),
		persister: dataset.NewPersister(logger, cfg.Sheet),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.metrics == nil {
		m, err := infrastructure.CreatePipelineMetrics(noop.NewMeterProvider().Meter(TracerName))
		if err != nil {
			return nil, err
		}
		r.metrics = m
	}
	return r, nil
}

// Run executes the pipeline once. Load, schema, report-directory and
// persistence failures are fatal. View and sink failures are recorded in the
// summary only.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	ctx, runID := infrastructure.EnsureTraceID(ctx)
	start := r.now()
	src := r.cfg.Input
	dst := r.cfg.OutputPath()

	ctx, span := r.tracer.Start(ctx, "pipeline.run",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.String("pipeline.source", src),
			attribute.String("pipeline.destination", dst),
		))
	defer span.End()

	r.logger.InfoContext(ctx, "pipeline started",
		slog.String("input", src),
		slog.String("output", dst),
		slog.String("report_dir", r.cfg.ReportDir))

	summary, err := r.run(ctx, runID, src, dst)
	status := "ok"
	if err != nil {
		status = "failed"
		infrastructure.RecordError(ctx, err)
		r.logger.ErrorContext(ctx, "pipeline failed",
			slog.String("error", err.Error()),
			slog.String("error_type", string(apperrors.TypeOf(err))))
	}
	r.metrics.Runs.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
	if err != nil {
		return nil, err
	}

	summary.Duration = r.now().Sub(start)
	span.SetAttributes(
		attribute.Int("pipeline.rows", summary.Cleaning.RowsOut),
		attribute.Int("pipeline.failed_views", summary.FailedViews()),
		attribute.Int("pipeline.failed_sinks", summary.FailedSinks()))
	r.logger.InfoContext(ctx, "pipeline completed",
		slog.String("output", dst),
		slog.Int("rows", summary.Cleaning.RowsOut),
		slog.Int("failed_views", summary.FailedViews()),
		slog.Int("failed_sinks", summary.FailedSinks()),
		slog.Duration("duration", summary.Duration))
	return summary, nil
}

func (r *Runner) run(ctx context.Context, runID, src, dst string) (*Summary, error) {
	var t *dataset.Table
	err := r.stage(ctx, StageLoad, func(ctx context.Context) error {
		var err error
		t, err = r.loader.Load(ctx, src)
		if err == nil {
			r.metrics.RowsLoaded.Add(ctx, int64(t.Len()))
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	var cleaned *cleaning.Report
	err = r.stage(ctx, StageClean, func(ctx context.Context) error {
		var err error
		if cleaned, err = r.cleaner.Clean(ctx, t); err != nil {
			return err
		}
		for _, col := range domain.RequiredColumns {
			if !t.HasColumn(col) {
				return apperrors.NewSchemaError(col)
			}
		}
		r.recordCleaning(ctx, cleaned)
		return nil
	})
	if err != nil {
		return nil, err
	}

	var views []domain.ViewEntry
	err = r.stage(ctx, StageReport, func(ctx context.Context) error {
		var err error
		if views, err = r.reporter.Generate(ctx, t); err != nil {
			return err
		}
		for _, v := range views {
			r.metrics.Views.Add(ctx, 1, metric.WithAttributes(
				attribute.String("view", string(v.Name)),
				attribute.String("status", string(v.Status))))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = r.stage(ctx, StagePersist, func(ctx context.Context) error {
		if err := r.persister.Save(ctx, t, dst); err != nil {
			return err
		}
		r.metrics.RowsWritten.Add(ctx, int64(t.Len()))
		return nil
	})
	if err != nil {
		return nil, err
	}

	manifest := &domain.ReportManifest{
		RunID:       runID,
		GeneratedAt: r.now().UTC(),
		Source:      src,
		Destination: dst,
		Cleaning:    cleaned.Summary(),
		Views:       views,
	}
	manifestPath, err := r.reporter.WriteManifest(manifest)
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		RunID:       runID,
		Source:      src,
		Destination: dst,
		ReportDir:   r.reporter.Dir(),
		Manifest:    manifestPath,
		Cleaning:    manifest.Cleaning,
		Views:       views,
	}

	if len(r.sinks) > 0 {
		artifacts := &sinks.Artifacts{
			RunID:     runID,
			Table:     t,
			Workbook:  dst,
			ReportDir: r.reporter.Dir(),
			Manifest:  manifest,
			Files:     reportFiles(views),
		}
		_ = r.stage(ctx, StagePublish, func(ctx context.Context) error {
			summary.Sinks = sinks.PublishAll(ctx, r.sinks, artifacts, r.cfg.SinkConcurrency, r.logger)
			for _, res := range summary.Sinks {
				status := "ok"
				if !res.OK() {
					status = "failed"
				}
				r.metrics.SinkPublishes.Add(ctx, 1, metric.WithAttributes(
					attribute.String("sink", res.Sink),
					attribute.String("status", status)))
			}
			return nil
		})
	}
	return summary, nil
}

// stage runs fn inside a span and records its duration.
func (r *Runner) stage(ctx context.Context, name string, fn func(context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ctx, span := r.tracer.Start(ctx, "pipeline.stage."+name,
		trace.WithAttributes(attribute.String("stage.name", name)))
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	status := "ok"
	if err != nil {
		status = "failed"
		span.RecordError(err)
		span.SetStatus(codes.Error, fmt.Sprintf("%s failed", name))
	}
	r.metrics.StageDuration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(
		attribute.String("stage", name),
		attribute.String("status", status)))
	r.logger.DebugContext(ctx, "stage finished",
		slog.String("stage", name),
		slog.String("status", status),
		slog.Duration("duration", time.Since(start)))
	return err
}

func (r *Runner) recordCleaning(ctx context.Context, rep *cleaning.Report) {
	r.metrics.DuplicatesRemoved.Add(ctx, int64(rep.DuplicatesRemoved))
	r.metrics.DatesInvalid.Add(ctx, int64(rep.DatesInvalid))
	for col, n := range rep.Filled {
		r.metrics.ValuesFilled.Add(ctx, int64(n), metric.WithAttributes(attribute.String("column", col)))
	}
}

// reportFiles lists every file of the report directory a sink should copy.
func reportFiles(views []domain.ViewEntry) []string {
	var files []string
	for _, v := range views {
		for _, f := range []string{v.ChartFile, v.DataFile} {
			if f != "" {
				files = append(files, filepath.ToSlash(f))
			}
		}
	}
	return append(files, report.ManifestFile)
}
