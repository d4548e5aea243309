package sinks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"
)

// ParquetOrder is the on-disk schema of the parquet snapshot.
type ParquetOrder struct {
	RunID          string  `parquet:"name=run_id, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	RestaurantName string  `parquet:"name=restaurant_name, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	OrderDate      *int64  `parquet:"name=order_date, type=INT64, convertedtype=TIMESTAMP_MILLIS, repetitiontype=OPTIONAL"`
	PaymentMethod  string  `parquet:"name=payment_method, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	FoodRating     float64 `parquet:"name=food_rating, type=DOUBLE"`
	Quantity       float64 `parquet:"name=quantity, type=DOUBLE"`
	TotalBill      float64 `parquet:"name=total_bill, type=DOUBLE"`
	State          *string `parquet:"name=state, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
}

// ParquetSink writes the cleaned orders to a single parquet file.
type ParquetSink struct {
	path        string
	parallelism int64
}

// NewParquetSink writes to path using np parallel column writers.
func NewParquetSink(path string, np int64) *ParquetSink {
	if np < 1 {
		np = 1
	}
	return &ParquetSink{path: path, parallelism: np}
}

// Name implements Sink.
func (p *ParquetSink) Name() string { return "parquet" }

// Publish implements Sink.
func (p *ParquetSink) Publish(ctx context.Context, a *Artifacts) error {
	rows, err := OrderRows(a.Table)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p.path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	fw, err := local.NewLocalFileWriter(p.path)
	if err != nil {
		return fmt.Errorf("failed to create local file writer: %w", err)
	}
	defer fw.Close()

	pw, err := writer.NewParquetWriter(fw, new(ParquetOrder), p.parallelism)
	if err != nil {
		return fmt.Errorf("failed to create ParquetWriter: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for i, r := range rows {
		if i%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		rec := ParquetOrder{
			RunID:          a.RunID,
			RestaurantName: r.RestaurantName,
			PaymentMethod:  r.PaymentMethod,
			FoodRating:     r.FoodRating,
			Quantity:       r.Quantity,
			TotalBill:      r.TotalBill,
			State:          r.State,
		}
		if r.OrderDate != nil {
			ms := r.OrderDate.UnixMilli()
			rec.OrderDate = &ms
		}
		if err := pw.Write(rec); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		return fmt.Errorf("failed to finish parquet file: %w", err)
	}
	return fw.Close()
}

// Close implements Sink.
func (p *ParquetSink) Close() error { return nil }
