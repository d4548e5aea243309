// Package report turns analytics results into files: one PNG chart and one
// CSV data file per view, plus a manifest.json describing the run.
//
// Views are independent. A view that cannot be computed, exported or drawn
// is marked failed in its ViewEntry and logged; the remaining views are
// still produced.
package report
