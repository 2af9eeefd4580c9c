// Package kafka forwards audit events to a Kafka topic for downstream
// compliance consumers.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	audit "presence/pkg/platform/audit"
)

const DefaultTopic = "presence.audit"

type Store struct {
	client *kgo.Client
	topic  string
}

type Option func(*config)

type config struct {
	partitions int32
	replicas   int16
	clientID   string
}

func WithPartitions(n int32) Option {
	return func(c *config) { c.partitions = n }
}

func WithReplicationFactor(n int16) Option {
	return func(c *config) { c.replicas = n }
}

func WithClientID(id string) Option {
	return func(c *config) { c.clientID = id }
}

// New connects to brokers and makes sure topic exists before returning.
func New(ctx context.Context, brokers []string, topic string, opts ...Option) (*Store, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka audit store: no brokers configured")
	}
	if topic == "" {
		topic = DefaultTopic
	}
	cfg := config{partitions: 3, replicas: 1, clientID: "presence-audit"}
	for _, opt := range opts {
		opt(&cfg)
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ClientID(cfg.clientID),
		kgo.DefaultProduceTopic(topic),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.ProducerLinger(5*time.Millisecond),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka client: %w", err)
	}
	if err := ensureTopic(ctx, kadm.NewClient(client), topic, cfg); err != nil {
		client.Close()
		return nil, err
	}
	return &Store{client: client, topic: topic}, nil
}

func ensureTopic(ctx context.Context, adm *kadm.Client, topic string, cfg config) error {
	resp, err := adm.CreateTopics(ctx, cfg.partitions, cfg.replicas, nil, topic)
	if err != nil {
		return fmt.Errorf("create topic %s: %w", topic, err)
	}
	for _, r := range resp {
		if r.Err != nil && !errors.Is(r.Err, kerr.TopicAlreadyExists) {
			return fmt.Errorf("create topic %s: %w", r.Topic, r.Err)
		}
	}
	return nil
}

// Append produces the event synchronously, keyed by subject so one
// identity's history stays ordered within a partition.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	record := &kgo.Record{
		Topic: s.topic,
		Key:   []byte(event.Subject),
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: "action", Value: []byte(event.Action)},
			{Key: "category", Value: []byte(audit.AuditEvent(event.Action).Category())},
		},
	}
	if err := s.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce audit event: %w", err)
	}
	return nil
}

// Ping checks that at least one broker answers.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx)
}

func (s *Store) Close() {
	s.client.Close()
}
