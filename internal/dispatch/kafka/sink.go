// Package kafka publishes finished reports to a ticketing topic so a
// downstream workflow system can open follow-up tasks per violation batch.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/twmb/franz-go/pkg/kgo"

	"docaudit/internal/audit/models"
)

type Sink struct {
	client *kgo.Client
	topic  string
}

func New(brokers []string, topic string) (*Sink, error) {
	if len(brokers) == 0 || topic == "" {
		return nil, fmt.Errorf("kafka brokers and topic are required")
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &Sink{client: client, topic: topic}, nil
}

func (s *Sink) Name() string { return "ticketing" }

// Send publishes the full structured report, keyed by region so one region's
// reports stay ordered on a single partition.
func (s *Sink) Send(ctx context.Context, r models.Report, _ string) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	record := &kgo.Record{
		Topic: s.topic,
		Key:   []byte(r.Region),
		Value: payload,
	}
	if err := s.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("publish report to %s: %w", s.topic, err)
	}
	return nil
}

func (s *Sink) Close() {
	s.client.Close()
}
