package sinks

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
)

// Beginner opens transactions against a database. *pgx.Conn satisfies it.
type Beginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Close(ctx context.Context) error
}

// Connector dials the database.
type Connector func(ctx context.Context, dsn string) (Beginner, error)

func pgxConnect(ctx context.Context, dsn string) (Beginner, error) {
	return pgx.Connect(ctx, dsn)
}

var pgColumns = []string{
	"run_id", "restaurant_name", "order_date", "payment_method",
	"food_rating", "quantity", "total_bill", "state",
}

// PostgresSink replaces the contents of a table with the cleaned orders of
// the run. The table is created on first use.
type PostgresSink struct {
	dsn     string
	table   pgx.Identifier
	connect Connector
}

// PostgresOption configures a PostgresSink.
type PostgresOption func(*PostgresSink)

// WithConnector replaces pgx.Connect.
func WithConnector(c Connector) PostgresOption {
	return func(s *PostgresSink) { s.connect = c }
}

// NewPostgresSink loads into table, which may be schema-qualified.
func NewPostgresSink(dsn, table string, opts ...PostgresOption) *PostgresSink {
	s := &PostgresSink{
		dsn:     dsn,
		table:   pgx.Identifier(strings.Split(table, ".")),
		connect: pgxConnect,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name implements Sink.
func (s *PostgresSink) Name() string { return "postgres" }

// Publish implements Sink.
func (s *PostgresSink) Publish(ctx context.Context, a *Artifacts) error {
	rows, err := OrderRows(a.Table)
	if err != nil {
		return err
	}

	conn, err := s.connect(ctx, s.dsn)
	if err != nil {
		return fmt.Errorf("unable to connect to database: %w", err)
	}
	defer conn.Close(context.Background())

	tx, err := conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(context.Background())

	name := s.table.Sanitize()
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	run_id TEXT NOT NULL,
	restaurant_name TEXT NOT NULL,
	order_date TIMESTAMPTZ,
	payment_method TEXT NOT NULL,
	food_rating DOUBLE PRECISION NOT NULL,
	quantity DOUBLE PRECISION NOT NULL,
	total_bill DOUBLE PRECISION NOT NULL,
	state TEXT
)`, name)
	if _, err := tx.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("create table %s: %w", name, err)
	}
	if _, err := tx.Exec(ctx, "TRUNCATE "+name); err != nil {
		return fmt.Errorf("truncate %s: %w", name, err)
	}

	src := pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
		r := rows[i]
		return []any{a.RunID, r.RestaurantName, r.OrderDate, r.PaymentMethod,
			r.FoodRating, r.Quantity, r.TotalBill, r.State}, nil
	})
	n, err := tx.CopyFrom(ctx, s.table, pgColumns, src)
	if err != nil {
		return fmt.Errorf("copy into %s: %w", name, err)
	}
	if int(n) != len(rows) {
		return fmt.Errorf("copy into %s: wrote %d of %d rows", name, n, len(rows))
	}
	return tx.Commit(ctx)
}

// Close implements Sink.
func (s *PostgresSink) Close() error { return nil }
