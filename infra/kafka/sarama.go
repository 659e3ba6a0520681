package kafka

import (
	"context"

	"github.com/IBM/sarama"
	"github.com/pkg/errors"
)

// SaramaSink is a Sink on a sarama SyncProducer.
type SaramaSink struct {
	producer sarama.SyncProducer
	topic    string
}

// SaramaConfig is the producer configuration SaramaSink expects: every
// publish waits for all in-sync replicas.
func SaramaConfig() *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 5
	cfg.Producer.Partitioner = sarama.NewHashPartitioner
	return cfg
}

func NewSaramaSink(brokers []string, topic string) (*SaramaSink, error) {
	producer, err := sarama.NewSyncProducer(brokers, SaramaConfig())
	if err != nil {
		return nil, errors.Wrap(err, "create sarama producer")
	}
	return NewSaramaSinkFromProducer(producer, topic), nil
}

func NewSaramaSinkFromProducer(p sarama.SyncProducer, topic string) *SaramaSink {
	return &SaramaSink{producer: p, topic: topic}
}

// Publish ignores ctx: SendMessage has no cancellation and is bounded by
// the producer's own timeouts.
func (s *SaramaSink) Publish(_ context.Context, key, value []byte) error {
	_, _, err := s.producer.SendMessage(&sarama.ProducerMessage{
		Topic: s.topic,
		Key:   sarama.ByteEncoder(key),
		Value: sarama.ByteEncoder(value),
	})
	return errors.Wrapf(err, "sarama publish to %s", s.topic)
}

func (s *SaramaSink) Close() error {
	return s.producer.Close()
}
