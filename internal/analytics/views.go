package analytics

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"foodpulse/internal/dataset"
	apperrors "foodpulse/internal/errors"
	"foodpulse/pkg/contracts/domain"
)

const (
	topRestaurants = 10
	topStates      = 5
	ratingBins     = 5
)

// View is a named aggregation over a cleaned order table.
type View struct {
	Name    domain.ViewName
	Title   string
	compute func(*dataset.Table) (*Result, error)
}

// Compute runs the view. Any failure is returned as a RENDER error carrying
// the view name; the table is never modified.
func (v View) Compute(ctx context.Context, t *dataset.Table) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.NewRenderError(string(v.Name), err)
	}
	res, err := v.compute(t)
	if err != nil {
		return nil, apperrors.NewRenderError(string(v.Name), err)
	}
	res.Name = v.Name
	res.Title = v.Title
	return res, nil
}

var registry = []View{
	{Name: domain.ViewTopRestaurantsBySales, Title: "Top Restaurants by Total Sales", compute: TopRestaurantsBySales},
	{Name: domain.ViewDailySales, Title: "Daily Total Sales Over Time", compute: DailySales},
	{Name: domain.ViewRatingDistribution, Title: "Distribution of Food Ratings", compute: RatingDistribution},
	{Name: domain.ViewPaymentShare, Title: "Payment Methods Share", compute: PaymentShare},
	{Name: domain.ViewQuantityVsBill, Title: "Quantity vs Total Bill", compute: QuantityVsBill},
	{Name: domain.ViewTopStates, Title: "Top 5 States by Number of Orders", compute: TopStates},
	{Name: domain.ViewTopRestaurantsByRating, Title: "Top Restaurants by Average Food Rating", compute: TopRestaurantsByRating},
}

// Views returns every view in report order.
func Views() []View {
	out := make([]View, len(registry))
	copy(out, registry)
	return out
}

// Lookup returns the view with the given name.
func Lookup(name domain.ViewName) (View, bool) {
	for _, v := range registry {
		if v.Name == name {
			return v, true
		}
	}
	return View{}, false
}

// TopRestaurantsBySales sums total bill per restaurant, highest first, top 10.
func TopRestaurantsBySales(t *dataset.Table) (*Result, error) {
	cats, excluded, err := groupBy(t, domain.ColRestaurantName, domain.ColTotalBill, sumOf, topRestaurants)
	if err != nil {
		return nil, err
	}
	return &Result{
		Kind:       KindCategory,
		XLabel:     "Restaurant",
		YLabel:     "Total Sales",
		Categories: cats,
		Excluded:   excluded,
	}, nil
}

// DailySales sums total bill per distinct order timestamp in chronological
// order. Orders at different times of the same day are separate points. Rows
// without a date are excluded.
func DailySales(t *dataset.Table) (*Result, error) {
	dateIdx, err := t.ColumnIndex(domain.ColOrderDate)
	if err != nil {
		return nil, err
	}
	billIdx, err := t.ColumnIndex(domain.ColTotalBill)
	if err != nil {
		return nil, err
	}

	totals := make(map[time.Time]float64)
	excluded := 0
	for i, row := range t.Rows {
		if row[dateIdx].IsNull() {
			excluded++
			continue
		}
		ts, ok := row[dateIdx].Time()
		if !ok {
			return nil, fmt.Errorf("column %q row %d: value %q is not a date", domain.ColOrderDate, i+1, row[dateIdx].String())
		}
		bill, ok, err := metric(domain.ColTotalBill, i, row[billIdx])
		if err != nil {
			return nil, err
		}
		if !ok {
			excluded++
			continue
		}
		totals[ts.UTC()] += bill
	}
	if len(totals) == 0 {
		return nil, ErrNoData
	}

	series := make([]domain.DatedValue, 0, len(totals))
	for d, v := range totals {
		series = append(series, domain.DatedValue{Date: d, Value: v})
	}
	sort.Slice(series, func(i, j int) bool { return series[i].Date.Before(series[j].Date) })

	return &Result{
		Kind:     KindSeries,
		XLabel:   "Date",
		YLabel:   "Total Sales",
		Series:   series,
		Excluded: excluded,
	}, nil
}

// RatingDistribution buckets food ratings into five equal-width bins.
func RatingDistribution(t *dataset.Table) (*Result, error) {
	idx, err := t.ColumnIndex(domain.ColFoodRating)
	if err != nil {
		return nil, err
	}
	values := make([]float64, 0, t.Len())
	excluded := 0
	for i, row := range t.Rows {
		f, ok, err := metric(domain.ColFoodRating, i, row[idx])
		if err != nil {
			return nil, err
		}
		if !ok {
			excluded++
			continue
		}
		values = append(values, f)
	}
	if len(values) == 0 {
		return nil, ErrNoData
	}
	return &Result{
		Kind:     KindHistogram,
		XLabel:   "Food Rating",
		YLabel:   "Frequency",
		Bins:     Histogram(values, ratingBins),
		Excluded: excluded,
	}, nil
}

// PaymentShare counts orders per payment method, most frequent first.
func PaymentShare(t *dataset.Table) (*Result, error) {
	cats, excluded, err := groupBy(t, domain.ColPaymentMethod, "", countOf, 0)
	if err != nil {
		return nil, err
	}
	return &Result{
		Kind:       KindCategory,
		XLabel:     "Payment Method",
		YLabel:     "Orders",
		Categories: cats,
		Excluded:   excluded,
	}, nil
}

// QuantityVsBill pairs quantity with total bill for every row.
func QuantityVsBill(t *dataset.Table) (*Result, error) {
	qIdx, err := t.ColumnIndex(domain.ColQuantity)
	if err != nil {
		return nil, err
	}
	bIdx, err := t.ColumnIndex(domain.ColTotalBill)
	if err != nil {
		return nil, err
	}
	points := make([]domain.Point, 0, t.Len())
	excluded := 0
	for i, row := range t.Rows {
		q, qok, err := metric(domain.ColQuantity, i, row[qIdx])
		if err != nil {
			return nil, err
		}
		b, bok, err := metric(domain.ColTotalBill, i, row[bIdx])
		if err != nil {
			return nil, err
		}
		if !qok || !bok {
			excluded++
			continue
		}
		points = append(points, domain.Point{X: q, Y: b})
	}
	if len(points) == 0 {
		return nil, ErrNoData
	}
	return &Result{
		Kind:     KindScatter,
		XLabel:   "Quantity",
		YLabel:   "Total Bill",
		Points:   points,
		Excluded: excluded,
	}, nil
}

// TopStates counts orders per state, top 5. Rows without a state are
// excluded and counted in Result.Excluded.
func TopStates(t *dataset.Table) (*Result, error) {
	cats, excluded, err := groupBy(t, domain.ColState, "", countOf, topStates)
	if err != nil {
		return nil, err
	}
	return &Result{
		Kind:       KindCategory,
		XLabel:     "State",
		YLabel:     "Number of Orders",
		Categories: cats,
		Excluded:   excluded,
	}, nil
}

// TopRestaurantsByRating averages food rating per restaurant, top 10.
func TopRestaurantsByRating(t *dataset.Table) (*Result, error) {
	cats, excluded, err := groupBy(t, domain.ColRestaurantName, domain.ColFoodRating, meanOf, topRestaurants)
	if err != nil {
		return nil, err
	}
	return &Result{
		Kind:       KindCategory,
		Horizontal: true,
		XLabel:     "Average Rating",
		YLabel:     "Restaurant",
		Categories: cats,
		Excluded:   excluded,
	}, nil
}

// groupBy aggregates metricCol per distinct keyCol value. An empty metricCol
// counts rows. Rows with a null key or metric are excluded.
func groupBy(t *dataset.Table, keyCol, metricCol string, value func(group) float64, limit int) ([]domain.CategoryValue, int, error) {
	keyIdx, err := t.ColumnIndex(keyCol)
	if err != nil {
		return nil, 0, err
	}
	metricIdx := -1
	if metricCol != "" {
		if metricIdx, err = t.ColumnIndex(metricCol); err != nil {
			return nil, 0, err
		}
	}

	g := newGrouper()
	excluded := 0
	for i, row := range t.Rows {
		key, ok := label(row[keyIdx])
		if !ok {
			excluded++
			continue
		}
		v := 1.0
		if metricIdx >= 0 {
			f, ok, err := metric(metricCol, i, row[metricIdx])
			if err != nil {
				return nil, 0, err
			}
			if !ok {
				excluded++
				continue
			}
			v = f
		}
		g.add(key, v)
	}
	if len(g.groups) == 0 {
		return nil, excluded, ErrNoData
	}
	return g.rank(value, limit), excluded, nil
}

// Histogram splits values into n equal-width bins over [min, max]. Bins are
// half-open except the last, which includes max. When every value is equal
// the range is widened to [v-0.5, v+0.5].
func Histogram(values []float64, n int) []domain.HistogramBin {
	if len(values) == 0 || n <= 0 {
		return nil
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}
	width := (hi - lo) / float64(n)

	bins := make([]domain.HistogramBin, n)
	for i := range bins {
		bins[i].Lower = lo + float64(i)*width
		bins[i].Upper = lo + float64(i+1)*width
	}
	bins[n-1].Upper = hi

	for _, v := range values {
		i := int((v - lo) / width)
		if i >= n {
			i = n - 1
		}
		bins[i].Count++
	}
	return bins
}

// NewView builds a custom view from an aggregation function.
func NewView(name domain.ViewName, title string, compute func(*dataset.Table) (*Result, error)) View {
	return View{Name: name, Title: title, compute: compute}
}
