package analytics

import (
	"fmt"
	"math"
	"sort"

	"foodpulse/internal/dataset"
	"foodpulse/pkg/contracts/domain"
)

// group accumulates one key of a grouped view.
type group struct {
	label string
	sum   float64
	count int
}

// grouper keeps groups in order of first appearance.
type grouper struct {
	index  map[string]int
	groups []group
}

func newGrouper() *grouper {
	return &grouper{index: make(map[string]int)}
}

func (g *grouper) add(label string, v float64) {
	i, ok := g.index[label]
	if !ok {
		i = len(g.groups)
		g.index[label] = i
		g.groups = append(g.groups, group{label: label})
	}
	g.groups[i].sum += v
	g.groups[i].count++
}

// rank orders values descending and keeps at most limit entries (limit <= 0
// keeps all). The sort is stable, so equal values stay in first-appearance
// order.
func (g *grouper) rank(value func(group) float64, limit int) []domain.CategoryValue {
	out := make([]domain.CategoryValue, len(g.groups))
	for i, grp := range g.groups {
		out[i] = domain.CategoryValue{Label: grp.label, Value: value(grp)}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Value > out[j].Value })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func sumOf(g group) float64   { return g.sum }
func countOf(g group) float64 { return float64(g.count) }
func meanOf(g group) float64  { return g.sum / float64(g.count) }

// metric reads a numeric cell. Null reports ok=false; any other
// non-numeric cell, NaN and infinities included, is an error.
func metric(column string, row int, v dataset.Value) (f float64, ok bool, err error) {
	if v.IsNull() {
		return 0, false, nil
	}
	f, ok = v.Float()
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false, fmt.Errorf("column %q row %d: value %q is not numeric", column, row+1, v.String())
	}
	return f, true, nil
}

// label reads a group key. Null keys are not grouped.
func label(v dataset.Value) (string, bool) {
	if v.IsNull() {
		return "", false
	}
	return v.String(), true
}
