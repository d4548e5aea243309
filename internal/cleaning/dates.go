package cleaning

import (
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"foodpulse/internal/dataset"
)

// DefaultDateLayouts are tried in order. Ambiguous numeric dates are read
// month first.
var DefaultDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	time.DateTime,
	"2006-01-02 15:04",
	time.DateOnly,
	"2006/01/02 15:04:05",
	"2006/01/02",
	"01/02/2006 15:04:05",
	"01/02/2006 15:04",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"01/02/2006",
	"1/2/2006",
	"01-02-2006",
	"1-2-2006",
	"2 Jan 2006",
	"02 Jan 2006",
	"2 January 2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"20060102",
}

// Excel serial day numbers accepted for numeric cells: 1900-01-01 through
// 9999-12-31.
const (
	minExcelSerial = 1
	maxExcelSerial = 2958465
)

// dateParser coerces cells into timestamps on a best-effort basis.
type dateParser struct {
	layouts []string
}

// parse returns the coerced cell and whether it holds a date. Null stays
// null; anything that cannot be read as a date becomes null. Timestamps are
// truncated to whole seconds, the finest resolution a workbook reloads.
func (p dateParser) parse(v dataset.Value) (dataset.Value, bool) {
	switch v.Kind() {
	case dataset.KindTime:
		t, _ := v.Time()
		return stamp(t), true
	case dataset.KindNumber:
		f, _ := v.Float()
		if f < minExcelSerial || f > maxExcelSerial {
			return dataset.Null(), false
		}
		t, err := excelize.ExcelDateToTime(f, false)
		if err != nil {
			return dataset.Null(), false
		}
		return stamp(t), true
	case dataset.KindString:
		s, _ := v.Text()
		s = strings.TrimSpace(s)
		if s == "" {
			return dataset.Null(), false
		}
		for _, layout := range p.layouts {
			if t, err := time.Parse(layout, s); err == nil {
				return stamp(t), true
			}
		}
		return dataset.Null(), false
	default:
		return dataset.Null(), false
	}
}

func stamp(t time.Time) dataset.Value {
	return dataset.Timestamp(t.Truncate(time.Second))
}
