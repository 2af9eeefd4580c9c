//go:build integration

package kafka_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kgo"

	audit "presence/pkg/platform/audit"
	"presence/pkg/platform/audit/store/kafka"
	"presence/pkg/testutil/containers"
)

type KafkaStoreSuite struct {
	suite.Suite
	brokers []string
}

func TestKafkaStoreSuite(t *testing.T) {
	suite.Run(t, new(KafkaStoreSuite))
}

func (s *KafkaStoreSuite) SetupSuite() {
	s.brokers = containers.GetManager().GetRedpanda(s.T()).Brokers
}

func (s *KafkaStoreSuite) TestAppendIsReadableFromTopic() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	topic := "presence.audit." + uuid.NewString()[:8]
	store, err := kafka.New(ctx, s.brokers, topic, kafka.WithPartitions(1))
	s.Require().NoError(err)
	defer store.Close()

	event := audit.Event{
		ID:      uuid.New(),
		Subject: "0xabc",
		Action:  string(audit.EventOrphanedLedgerEvent),
		Reason:  "local_persist_failed",
	}
	s.Require().NoError(store.Append(ctx, event))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(s.brokers...),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	s.Require().NoError(err)
	defer consumer.Close()

	fetches := consumer.PollFetches(ctx)
	s.Require().Empty(fetches.Errors())
	records := fetches.Records()
	s.Require().Len(records, 1)

	var got audit.Event
	require.NoError(s.T(), json.Unmarshal(records[0].Value, &got))
	s.Equal(event.ID, got.ID)
	s.Equal("0xabc", string(records[0].Key))
}

func (s *KafkaStoreSuite) TestNewIsIdempotentForExistingTopic() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	topic := "presence.audit." + uuid.NewString()[:8]
	first, err := kafka.New(ctx, s.brokers, topic, kafka.WithPartitions(1))
	s.Require().NoError(err)
	first.Close()

	second, err := kafka.New(ctx, s.brokers, topic, kafka.WithPartitions(1))
	s.Require().NoError(err)
	second.Close()
}
