package sinks

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"foodpulse/internal/dataset"
	apperrors "foodpulse/internal/errors"
	"foodpulse/pkg/contracts/domain"
)

// Artifacts is everything a completed run produced. Sinks treat it as
// read-only.
type Artifacts struct {
	RunID     string
	Table     *dataset.Table
	Workbook  string
	ReportDir string
	Manifest  *domain.ReportManifest
	// Files lists the report files (charts, view CSVs, manifest) relative
	// to ReportDir.
	Files []string
}

// Sink publishes the artifacts of a run somewhere outside the local disk.
type Sink interface {
	Name() string
	Publish(ctx context.Context, a *Artifacts) error
	Close() error
}

// Result is the outcome of one sink.
type Result struct {
	Sink     string        `json:"sink"`
	Err      error         `json:"-"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
}

// OK reports whether the sink succeeded.
func (r Result) OK() bool { return r.Err == nil }

// PublishAll runs every sink with at most limit running at once. A failing
// sink does not stop the others; each failure is returned as a PUBLISH
// error in its Result. Results are in sink order.
func PublishAll(ctx context.Context, sinks []Sink, a *Artifacts, limit int, logger *slog.Logger) []Result {
	if logger == nil {
		logger = slog.Default()
	}
	if limit < 1 {
		limit = 1
	}

	results := make([]Result, len(sinks))
	var g errgroup.Group
	g.SetLimit(limit)

	for i, s := range sinks {
		g.Go(func() error {
			start := time.Now()
			err := s.Publish(ctx, a)
			res := Result{Sink: s.Name(), Duration: time.Since(start)}
			if err != nil {
				res.Err = apperrors.NewPublishError(s.Name(), err)
				res.Error = res.Err.Error()
				logger.ErrorContext(ctx, "sink publish failed",
					slog.String("sink", s.Name()),
					slog.String("error", err.Error()))
			} else {
				logger.InfoContext(ctx, "sink published",
					slog.String("sink", s.Name()),
					slog.Duration("duration", res.Duration))
			}
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// CloseAll closes every sink and logs failures.
func CloseAll(sinks []Sink, logger *slog.Logger) {
	for _, s := range sinks {
		if err := s.Close(); err != nil && logger != nil {
			logger.Warn("sink close failed", slog.String("sink", s.Name()), slog.String("error", err.Error()))
		}
	}
}
