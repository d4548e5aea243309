package sinks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"foodpulse/internal/config"
)

// AMQPChannel is the part of *amqp.Channel the sink publishes through.
type AMQPChannel interface {
	PublishWithDeferredConfirmWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) (*amqp.DeferredConfirmation, error)
	Close() error
}

// RabbitMQSink publishes the completion event to a topic exchange and waits
// for the broker to confirm it.
type RabbitMQSink struct {
	conn       *amqp.Connection
	ch         AMQPChannel
	exchange   string
	routingKey string
}

// NewRabbitMQSink dials the broker, puts the channel in confirm mode and
// declares the exchange when one is named.
func NewRabbitMQSink(cfg config.RabbitMQConfig) (*RabbitMQSink, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	if err := ch.Confirm(false); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to enable publisher confirms: %w", err)
	}
	if cfg.Exchange != "" {
		if err := ch.ExchangeDeclare(cfg.Exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to declare exchange %s: %w", cfg.Exchange, err)
		}
	}
	s := NewRabbitMQSinkWithChannel(ch, cfg.Exchange, cfg.RoutingKey)
	s.conn = conn
	return s, nil
}

// NewRabbitMQSinkWithChannel uses an open channel in confirm mode.
func NewRabbitMQSinkWithChannel(ch AMQPChannel, exchange, routingKey string) *RabbitMQSink {
	return &RabbitMQSink{ch: ch, exchange: exchange, routingKey: routingKey}
}

// Name implements Sink.
func (r *RabbitMQSink) Name() string { return "rabbitmq" }

// Publish implements Sink.
func (r *RabbitMQSink) Publish(ctx context.Context, a *Artifacts) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := json.Marshal(NewReportEvent(a))
	if err != nil {
		return err
	}
	msg := amqp.Publishing{
		DeliveryMode:  amqp.Persistent,
		ContentType:   "application/json",
		CorrelationId: a.RunID,
		Type:          EventReportCompleted,
		Timestamp:     time.Now().UTC(),
		Headers:       amqp.Table{"x-source": "foodpulse"},
		Body:          body,
	}

	confirm, err := r.ch.PublishWithDeferredConfirmWithContext(ctx, r.exchange, r.routingKey, false, false, msg)
	if err != nil {
		return fmt.Errorf("failed to publish to exchange %q: %w", r.exchange, err)
	}
	if confirm == nil {
		// channel not in confirm mode
		return nil
	}
	acked, err := confirm.WaitContext(ctx)
	if err != nil {
		return err
	}
	if !acked {
		return errors.New("broker nacked report event")
	}
	return nil
}

// Close implements Sink.
func (r *RabbitMQSink) Close() error {
	var errs []error
	if r.ch != nil {
		errs = append(errs, r.ch.Close())
	}
	if r.conn != nil {
		errs = append(errs, r.conn.Close())
	}
	return errors.Join(errs...)
}
