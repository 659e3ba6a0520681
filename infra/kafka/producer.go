package kafka

import (
	"context"
	"time"

	"github.com/pkg/errors"
	kafkago "github.com/segmentio/kafka-go"
)

// messageWriter is the part of *kafkago.Writer the sink uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// WriterSink is a Sink on a kafka-go Writer.
type WriterSink struct {
	writer messageWriter
	topic  string
}

func NewWriterSink(brokers []string, topic string) *WriterSink {
	return &WriterSink{
		writer: &kafkago.Writer{
			Addr:         kafkago.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafkago.Hash{},
			RequiredAcks: kafkago.RequireAll,
			Async:        false,
			BatchTimeout: 10 * time.Millisecond,
		},
		topic: topic,
	}
}

func (s *WriterSink) Publish(ctx context.Context, key, value []byte) error {
	err := s.writer.WriteMessages(ctx, kafkago.Message{
		Key:   key,
		Value: value,
	})
	return errors.Wrapf(err, "kafka-go publish to %s", s.topic)
}

func (s *WriterSink) Close() error {
	return s.writer.Close()
}
