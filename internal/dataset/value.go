package dataset

import (
	"strconv"
	"strings"
	"time"
)

// Kind is the dynamic type of a cell.
type Kind uint8

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindTime
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindTime:
		return "time"
	default:
		return "unknown"
	}
}

// Value is a single table cell. The zero Value is null.
type Value struct {
	kind Kind
	s    string
	n    float64
	t    time.Time
}

// Null returns the null cell.
func Null() Value { return Value{} }

// Str returns a string cell.
func Str(s string) Value { return Value{kind: KindString, s: s} }

// Num returns a numeric cell.
func Num(f float64) Value { return Value{kind: KindNumber, n: f} }

// Timestamp returns a time cell. Times are kept in UTC.
func Timestamp(t time.Time) Value { return Value{kind: KindTime, t: t.UTC()} }

func (v Value) Kind() Kind   { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }

// Text returns the content of a string cell.
func (v Value) Text() (string, bool) {
	return v.s, v.kind == KindString
}

// Time returns the content of a time cell.
func (v Value) Time() (time.Time, bool) {
	return v.t, v.kind == KindTime
}

// Float returns the numeric content of the cell. String cells holding a
// number (thousands separators allowed) convert; everything else does not.
func (v Value) Float() (float64, bool) {
	switch v.kind {
	case KindNumber:
		return v.n, true
	case KindString:
		f, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(v.s), ",", ""), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// String renders the cell for labels and CSV output. Null renders empty.
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.s
	case KindNumber:
		return strconv.FormatFloat(v.n, 'f', -1, 64)
	case KindTime:
		if v.t.Hour() == 0 && v.t.Minute() == 0 && v.t.Second() == 0 && v.t.Nanosecond() == 0 {
			return v.t.Format(time.DateOnly)
		}
		return v.t.Format(time.DateTime)
	default:
		return ""
	}
}

// Equal reports whether two cells hold the same kind and value.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindString:
		return v.s == o.s
	case KindNumber:
		return v.n == o.n || (v.n != v.n && o.n != o.n)
	case KindTime:
		return v.t.Equal(o.t)
	default:
		return true
	}
}

// key is an unambiguous encoding used for hashing whole rows.
func (v Value) key() string {
	switch v.kind {
	case KindString:
		return "s" + v.s
	case KindNumber:
		return "n" + strconv.FormatFloat(v.n, 'g', -1, 64)
	case KindTime:
		return "t" + strconv.FormatInt(v.t.UnixNano(), 10)
	default:
		return "z"
	}
}
