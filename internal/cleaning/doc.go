// Package cleaning normalizes a freshly loaded order table in place.
//
// A pass runs four steps in a fixed order:
//
//  1. Column names are trimmed and lowercased.
//  2. The order date column is coerced to timestamps. Excel serials and the
//     layouts in DefaultDateLayouts are accepted; anything else becomes null.
//  3. Rows equal in every column to an earlier row are dropped.
//  4. Nulls in the fill columns are replaced with constants (DefaultFills).
//
// Cleaning is idempotent: a second pass over a cleaned table changes nothing.
//
//	report, err := cleaning.NewCleaner(logger).Clean(ctx, table)
package cleaning
