// Package analytics computes the report views over a cleaned order table.
//
// Views are pure: they read the table and return a Result without touching
// it. Grouped views keep groups in order of first appearance and rank them
// with a stable sort, so equal totals keep that order. Null group keys are
// left out and counted in Result.Excluded.
package analytics
