package domain

import "time"

// ViewName identifies one of the seven report views.
type ViewName string

const (
	ViewTopRestaurantsBySales  ViewName = "top_restaurants_by_sales"
	ViewDailySales             ViewName = "daily_sales"
	ViewRatingDistribution     ViewName = "rating_distribution"
	ViewPaymentShare           ViewName = "payment_method_share"
	ViewQuantityVsBill         ViewName = "quantity_vs_bill"
	ViewTopStates              ViewName = "top_states"
	ViewTopRestaurantsByRating ViewName = "top_restaurants_by_rating"
)

// AllViews lists the views in report order.
var AllViews = []ViewName{
	ViewTopRestaurantsBySales,
	ViewDailySales,
	ViewRatingDistribution,
	ViewPaymentShare,
	ViewQuantityVsBill,
	ViewTopStates,
	ViewTopRestaurantsByRating,
}

// CategoryValue is one bar of a grouped view.
type CategoryValue struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// DatedValue is one point of a time series.
type DatedValue struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// HistogramBin is a half-open [Lower, Upper) bucket; the last bin of a
// histogram is closed on both ends.
type HistogramBin struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	Count int     `json:"count"`
}

// Point is one (x, y) observation.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ViewStatus is the outcome of one view in a report run.
type ViewStatus string

const (
	ViewStatusOK     ViewStatus = "ok"
	ViewStatusFailed ViewStatus = "failed"
)

// ViewEntry describes one view of a generated report.
type ViewEntry struct {
	Name      ViewName   `json:"name"`
	Title     string     `json:"title"`
	Status    ViewStatus `json:"status"`
	ChartFile string     `json:"chart_file,omitempty"`
	DataFile  string     `json:"data_file,omitempty"`
	Rows      int        `json:"rows"`
	Excluded  int        `json:"excluded,omitempty"`
	Error     string     `json:"error,omitempty"`
}

// CleaningSummary is the serializable form of a cleaning pass.
type CleaningSummary struct {
	RowsIn            int            `json:"rows_in"`
	RowsOut           int            `json:"rows_out"`
	DuplicatesRemoved int            `json:"duplicates_removed"`
	DatesParsed       int            `json:"dates_parsed"`
	DatesInvalid      int            `json:"dates_invalid"`
	Filled            map[string]int `json:"filled"`
}

// ReportManifest is written next to the charts and describes a whole run.
type ReportManifest struct {
	RunID       string          `json:"run_id"`
	GeneratedAt time.Time       `json:"generated_at"`
	Source      string          `json:"source"`
	Destination string          `json:"destination"`
	Cleaning    CleaningSummary `json:"cleaning"`
	Views       []ViewEntry     `json:"views"`
}

// View returns the entry with the given name.
func (m *ReportManifest) View(name ViewName) (ViewEntry, bool) {
	for _, v := range m.Views {
		if v.Name == name {
			return v, true
		}
	}
	return ViewEntry{}, false
}

// Failed returns the number of views that did not complete.
func (m *ReportManifest) Failed() int {
	n := 0
	for _, v := range m.Views {
		if v.Status == ViewStatusFailed {
			n++
		}
	}
	return n
}
