package domain

import "time"

// Canonical column names of an order workbook after header normalization
// (trimmed, lowercased). Source workbooks may spell them in any case and with
// surrounding whitespace.
const (
	ColRestaurantName = "restaurant name"
	ColOrderDate      = "order date"
	ColPaymentMethod  = "payment method"
	ColFoodRating     = "food rating"
	ColQuantity       = "quantity"
	ColTotalBill      = "total bill"
	ColState          = "state"
)

// RequiredColumns lists every column the pipeline addresses by name.
var RequiredColumns = []string{
	ColRestaurantName,
	ColOrderDate,
	ColPaymentMethod,
	ColFoodRating,
	ColQuantity,
	ColTotalBill,
	ColState,
}

// Default fill values applied to missing cells.
const (
	DefaultPaymentMethod  = "Cash Discount"
	DefaultRestaurantName = "Unknown"
)

// OrderRow is the typed projection of one cleaned order used by the export
// sinks. Columns beyond the seven canonical ones are carried in Extra.
//
// OrderDate is nil when the source date could not be parsed. State is nil
// when the source cell was empty; it has no fill policy.
type OrderRow struct {
	RestaurantName string            `json:"restaurant_name"`
	OrderDate      *time.Time        `json:"order_date,omitempty"`
	PaymentMethod  string            `json:"payment_method"`
	FoodRating     float64           `json:"food_rating"`
	Quantity       float64           `json:"quantity"`
	TotalBill      float64           `json:"total_bill"`
	State          *string           `json:"state,omitempty"`
	Extra          map[string]string `json:"extra,omitempty"`
}
