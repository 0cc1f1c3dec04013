package kafka

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
)

// Producer publishes records to a single topic. It exists so the activity
// recorder can fan events out to Kafka without knowing client details.
type Producer struct {
	client *kgo.Client
	topic  string
}

// NewProducer connects to the given brokers (comma-separated). Returns nil if
// brokers is empty (Kafka not configured).
func NewProducer(brokers string, topic string) (*Producer, error) {
	if brokers == "" {
		return nil, nil
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(strings.Split(brokers, ",")...),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	return &Producer{client: client, topic: topic}, nil
}

// EnsureTopic creates the topic if it does not exist yet. Already-exists is
// not an error; any other broker response is.
func (p *Producer) EnsureTopic(ctx context.Context, partitions int32, replicas int16) error {
	adm := kadm.NewClient(p.client)
	resps, err := adm.CreateTopics(ctx, partitions, replicas, nil, p.topic)
	if err != nil {
		return fmt.Errorf("create topic %q: %w", p.topic, err)
	}
	for _, resp := range resps {
		if resp.Err != nil && !errors.Is(resp.Err, kerr.TopicAlreadyExists) {
			return fmt.Errorf("create topic %q: %w", resp.Topic, resp.Err)
		}
	}
	return nil
}

// Publish synchronously produces one record keyed for per-asset ordering.
func (p *Producer) Publish(ctx context.Context, key string, value []byte) error {
	record := &kgo.Record{Topic: p.topic, Key: []byte(key), Value: value}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce to %q: %w", p.topic, err)
	}
	return nil
}

// Close flushes buffered records and tears down the client.
func (p *Producer) Close() {
	p.client.Close()
}
