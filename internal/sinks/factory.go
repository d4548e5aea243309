package sinks

import (
	"context"
	"log/slog"

	"foodpulse/internal/config"
	apperrors "foodpulse/internal/errors"
)

// FromConfig builds the enabled sinks in a fixed order: parquet, postgres,
// s3, kafka, rabbitmq. Sinks built before a failure are closed.
func FromConfig(ctx context.Context, cfg config.SinksConfig, logger *slog.Logger) ([]Sink, error) {
	var out []Sink
	fail := func(name string, err error) ([]Sink, error) {
		CloseAll(out, logger)
		return nil, apperrors.NewConfigError("unable to create "+name+" sink", err)
	}

	if cfg.Parquet.Enabled {
		out = append(out, NewParquetSink(cfg.Parquet.Path, cfg.Parquet.Parallelism))
	}
	if cfg.Postgres.Enabled {
		out = append(out, NewPostgresSink(cfg.Postgres.DSN, cfg.Postgres.Table))
	}
	if cfg.S3.Enabled {
		s, err := NewS3Sink(ctx, cfg.S3)
		if err != nil {
			return fail("s3", err)
		}
		out = append(out, s)
	}
	if cfg.Kafka.Enabled {
		s, err := NewKafkaSink(cfg.Kafka)
		if err != nil {
			return fail("kafka", err)
		}
		out = append(out, s)
	}
	if cfg.RabbitMQ.Enabled {
		s, err := NewRabbitMQSink(cfg.RabbitMQ)
		if err != nil {
			return fail("rabbitmq", err)
		}
		out = append(out, s)
	}

	if logger != nil && len(out) > 0 {
		names := make([]string, len(out))
		for i, s := range out {
			names[i] = s.Name()
		}
		logger.Info("sinks enabled", slog.Any("sinks", names))
	}
	return out, nil
}
