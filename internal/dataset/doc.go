// Package dataset holds the in-memory order table and its spreadsheet I/O.
//
// A Table keeps every column of the source worksheet in its original order.
// Cells are typed Values (null, string, number, time) so that cleaning can
// tell a missing value from an empty string and a date from a number.
//
// Loading:
//
//	t, err := dataset.NewLoader(logger, "").Load(ctx, "orders.xlsx")
//
// Saving replaces the destination atomically (temp file + rename):
//
//	err := dataset.NewPersister(logger, "").Save(ctx, t, "orders.xlsx")
//
// Load failures are LOAD errors, save failures are WRITE errors and looking
// up an absent column is a SCHEMA error (see internal/errors).
package dataset
