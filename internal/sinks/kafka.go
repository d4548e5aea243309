package sinks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"

	"foodpulse/internal/config"
	"foodpulse/pkg/contracts/domain"
)

// EventReportCompleted is the type of the event published after each run.
const EventReportCompleted = "report.completed"

// ReportEvent is the message body published by the Kafka and RabbitMQ sinks.
type ReportEvent struct {
	Type        string                 `json:"type"`
	RunID       string                 `json:"run_id"`
	GeneratedAt time.Time              `json:"generated_at"`
	Source      string                 `json:"source"`
	Destination string                 `json:"destination"`
	Rows        int                    `json:"rows"`
	Cleaning    domain.CleaningSummary `json:"cleaning"`
	Views       []domain.ViewEntry     `json:"views"`
	Failed      int                    `json:"failed_views"`
}

// KafkaSink announces a completed run on a topic, keyed by run id.
type KafkaSink struct {
	producer sarama.SyncProducer
	topic    string
}

// NewSaramaConfig returns the producer settings used by the sink.
func NewSaramaConfig(clientID string) *sarama.Config {
	cfg := sarama.NewConfig()
	if clientID != "" {
		cfg.ClientID = clientID
	}
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 5
	cfg.Producer.Retry.Backoff = 100 * time.Millisecond
	cfg.Producer.Return.Successes = true // required by SyncProducer
	cfg.Net.DialTimeout = 30 * time.Second
	cfg.Net.ReadTimeout = 30 * time.Second
	cfg.Net.WriteTimeout = 30 * time.Second
	return cfg
}

// NewKafkaSink connects a synchronous producer to the brokers.
func NewKafkaSink(cfg config.KafkaConfig) (*KafkaSink, error) {
	producer, err := sarama.NewSyncProducer(cfg.Brokers, NewSaramaConfig(cfg.ClientID))
	if err != nil {
		return nil, fmt.Errorf("failed to create Sarama producer: %w", err)
	}
	return NewKafkaSinkWithProducer(producer, cfg.Topic), nil
}

// NewKafkaSinkWithProducer uses an existing producer.
func NewKafkaSinkWithProducer(p sarama.SyncProducer, topic string) *KafkaSink {
	return &KafkaSink{producer: p, topic: topic}
}

// Name implements Sink.
func (k *KafkaSink) Name() string { return "kafka" }

// NewReportEvent builds the event for a run.
func NewReportEvent(a *Artifacts) ReportEvent {
	ev := ReportEvent{Type: EventReportCompleted, RunID: a.RunID}
	if a.Table != nil {
		ev.Rows = a.Table.Len()
	}
	if m := a.Manifest; m != nil {
		ev.GeneratedAt = m.GeneratedAt
		ev.Source = m.Source
		ev.Destination = m.Destination
		ev.Cleaning = m.Cleaning
		ev.Views = m.Views
		ev.Failed = m.Failed()
	}
	return ev
}

// Publish implements Sink.
func (k *KafkaSink) Publish(ctx context.Context, a *Artifacts) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := json.Marshal(NewReportEvent(a))
	if err != nil {
		return err
	}
	_, _, err = k.producer.SendMessage(&sarama.ProducerMessage{
		Topic: k.topic,
		Key:   sarama.StringEncoder(a.RunID),
		Value: sarama.ByteEncoder(body),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event-type"), Value: []byte(EventReportCompleted)},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to send message to topic %s: %w", k.topic, err)
	}
	return nil
}

// Close implements Sink.
func (k *KafkaSink) Close() error {
	if k.producer != nil {
		return k.producer.Close()
	}
	return nil
}
