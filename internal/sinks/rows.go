package sinks

import (
	"fmt"

	"foodpulse/internal/dataset"
	"foodpulse/pkg/contracts/domain"
)

// OrderRows projects a cleaned table onto typed order rows. Columns beyond
// the canonical seven are carried as text in Extra.
func OrderRows(t *dataset.Table) ([]domain.OrderRow, error) {
	idx := make(map[string]int, len(domain.RequiredColumns))
	for _, name := range domain.RequiredColumns {
		i, err := t.ColumnIndex(name)
		if err != nil {
			return nil, err
		}
		idx[name] = i
	}
	var extra []int
	for i, name := range t.Columns {
		if _, ok := idx[name]; !ok {
			extra = append(extra, i)
		}
	}

	rows := make([]domain.OrderRow, 0, t.Len())
	for n, row := range t.Rows {
		num := func(col string) (float64, error) {
			v := row[idx[col]]
			if v.IsNull() {
				return 0, nil
			}
			f, ok := v.Float()
			if !ok {
				return 0, fmt.Errorf("row %d: %s %q is not numeric", n+1, col, v.String())
			}
			return f, nil
		}

		r := domain.OrderRow{
			RestaurantName: row[idx[domain.ColRestaurantName]].String(),
			PaymentMethod:  row[idx[domain.ColPaymentMethod]].String(),
		}
		var err error
		if r.FoodRating, err = num(domain.ColFoodRating); err != nil {
			return nil, err
		}
		if r.Quantity, err = num(domain.ColQuantity); err != nil {
			return nil, err
		}
		if r.TotalBill, err = num(domain.ColTotalBill); err != nil {
			return nil, err
		}
		if ts, ok := row[idx[domain.ColOrderDate]].Time(); ok {
			r.OrderDate = &ts
		}
		if state := row[idx[domain.ColState]]; !state.IsNull() {
			s := state.String()
			r.State = &s
		}
		if len(extra) > 0 {
			r.Extra = make(map[string]string, len(extra))
			for _, i := range extra {
				r.Extra[t.Columns[i]] = row[i].String()
			}
		}
		rows = append(rows, r)
	}
	return rows, nil
}
