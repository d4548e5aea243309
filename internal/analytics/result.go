package analytics

import (
	"errors"

	"foodpulse/pkg/contracts/domain"
)

// Kind selects how a result is drawn and which of its slices is populated.
type Kind string

const (
	KindCategory  Kind = "category"
	KindSeries    Kind = "series"
	KindHistogram Kind = "histogram"
	KindScatter   Kind = "scatter"
)

// ErrNoData is returned by a view whose input contains no usable rows.
var ErrNoData = errors.New("no data to aggregate")

// Result is the output of one view. Exactly one of Categories, Series, Bins
// or Points is set, according to Kind.
type Result struct {
	Name   domain.ViewName
	Title  string
	XLabel string
	YLabel string
	Kind   Kind

	// Horizontal draws category bars along the x axis, first entry on top.
	Horizontal bool

	Categories []domain.CategoryValue
	Series     []domain.DatedValue
	Bins       []domain.HistogramBin
	Points     []domain.Point

	// Excluded counts rows left out because a key or metric was null.
	Excluded int
}

// Len returns the number of data points in the result.
func (r *Result) Len() int {
	switch r.Kind {
	case KindCategory:
		return len(r.Categories)
	case KindSeries:
		return len(r.Series)
	case KindHistogram:
		return len(r.Bins)
	case KindScatter:
		return len(r.Points)
	default:
		return 0
	}
}
