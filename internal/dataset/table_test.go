package dataset

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "foodpulse/internal/errors"
)

func TestValue_Kinds(t *testing.T) {
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		value      Value
		wantKind   Kind
		wantString string
	}{
		{"null", Null(), KindNull, ""},
		{"zero value is null", Value{}, KindNull, ""},
		{"string", Str("KFC"), KindString, "KFC"},
		{"integer number", Num(500), KindNumber, "500"},
		{"fractional number", Num(4.5), KindNumber, "4.5"},
		{"date", Timestamp(day), KindTime, "2024-01-01"},
		{"datetime", Timestamp(day.Add(90 * time.Minute)), KindTime, "2024-01-01 01:30:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantKind, tt.value.Kind())
			assert.Equal(t, tt.wantString, tt.value.String())
			assert.Equal(t, tt.wantKind == KindNull, tt.value.IsNull())
		})
	}
}

func TestValue_Float(t *testing.T) {
	tests := []struct {
		name   string
		value  Value
		want   float64
		wantOK bool
	}{
		{"number", Num(12.5), 12.5, true},
		{"numeric string", Str(" 1,250.5 "), 1250.5, true},
		{"text", Str("Card"), 0, false},
		{"null", Null(), 0, false},
		{"time", Timestamp(time.Now()), 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.value.Float()
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValue_Equal(t *testing.T) {
	day := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	local := day.In(time.FixedZone("UTC+3", 3*3600))

	assert.True(t, Null().Equal(Null()))
	assert.True(t, Str("a").Equal(Str("a")))
	assert.False(t, Str("1").Equal(Num(1)))
	assert.True(t, Num(math.NaN()).Equal(Num(math.NaN())))
	assert.True(t, Timestamp(day).Equal(Timestamp(local)))
	assert.False(t, Num(0).Equal(Null()))
}

func TestRowKey(t *testing.T) {
	a := []Value{Str("a|b"), Str("c")}
	b := []Value{Str("a"), Str("b|c")}
	assert.NotEqual(t, RowKey(a), RowKey(b))

	assert.Equal(t, RowKey([]Value{Str("x"), Null()}), RowKey([]Value{Str("x"), Null()}))
	assert.NotEqual(t, RowKey([]Value{Str("")}), RowKey([]Value{Null()}))
	assert.NotEqual(t, RowKey([]Value{Str("1")}), RowKey([]Value{Num(1)}))
}

func TestTable_ColumnAccess(t *testing.T) {
	tbl := New("restaurant name", "state")
	require.NoError(t, tbl.Append(Str("KFC"), Null()))
	require.NoError(t, tbl.Append(Str("Subway"), Str("Goa")))

	col, err := tbl.Column("state")
	require.NoError(t, err)
	assert.Equal(t, []Value{Null(), Str("Goa")}, col)

	nulls, err := tbl.NullCount("state")
	require.NoError(t, err)
	assert.Equal(t, 1, nulls)

	_, err = tbl.Column("quantity")
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeSchema))
	assert.False(t, tbl.HasColumn("quantity"))

	assert.Error(t, tbl.Append(Str("only one")))
}

func TestTable_CloneIsDeep(t *testing.T) {
	tbl := New("a")
	require.NoError(t, tbl.Append(Str("x")))

	clone := tbl.Clone()
	require.True(t, tbl.Equal(clone))

	clone.Rows[0][0] = Str("y")
	clone.Columns[0] = "b"
	assert.Equal(t, Str("x"), tbl.Rows[0][0])
	assert.Equal(t, "a", tbl.Columns[0])
	assert.False(t, tbl.Equal(clone))
}
