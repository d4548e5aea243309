package cleaning

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"foodpulse/internal/dataset"
)

func TestDateParser_Parse(t *testing.T) {
	p := dateParser{layouts: DefaultDateLayouts}
	day := func(y int, m time.Month, d int) dataset.Value {
		return dataset.Timestamp(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
	}

	tests := []struct {
		name   string
		in     dataset.Value
		want   dataset.Value
		wantOK bool
	}{
		{"iso date", dataset.Str("2024-01-01"), day(2024, 1, 1), true},
		{"iso datetime", dataset.Str("2024-01-01 13:45:00"),
			dataset.Timestamp(time.Date(2024, 1, 1, 13, 45, 0, 0, time.UTC)), true},
		{"rfc3339 with offset", dataset.Str("2024-01-01T05:30:00+05:30"),
			dataset.Timestamp(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)), true},
		{"month first slashes", dataset.Str("03/15/2024"), day(2024, 3, 15), true},
		{"short month first", dataset.Str("3/5/2024"), day(2024, 3, 5), true},
		{"written month", dataset.Str("Jan 2, 2024"), day(2024, 1, 2), true},
		{"surrounding spaces", dataset.Str("  2024-06-30 "), day(2024, 6, 30), true},
		{"excel serial", dataset.Num(45292), day(2024, 1, 1), true},
		{"already a time", day(2023, 12, 31), day(2023, 12, 31), true},
		{"garbage", dataset.Str("bad-date"), dataset.Null(), false},
		{"empty string", dataset.Str("   "), dataset.Null(), false},
		{"impossible date", dataset.Str("2024-02-30"), dataset.Null(), false},
		{"negative number", dataset.Num(-3), dataset.Null(), false},
		{"huge number", dataset.Num(1e12), dataset.Null(), false},
		{"null", dataset.Null(), dataset.Null(), false},
		{"fractional seconds dropped", dataset.Str("2024-01-01T13:45:17.123456789Z"),
			dataset.Timestamp(time.Date(2024, 1, 1, 13, 45, 17, 0, time.UTC)), true},
		{"time with nanoseconds", dataset.Timestamp(time.Date(2024, 1, 1, 8, 0, 0, 999, time.UTC)),
			dataset.Timestamp(time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := p.parse(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			assert.True(t, tt.want.Equal(got), "want %v, got %v", tt.want, got)
		})
	}
}
