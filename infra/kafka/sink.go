// Package kafka publishes scenario reports. Two client libraries are
// supported behind Sink: IBM/sarama and segmentio/kafka-go.
package kafka

import "context"

// Sink delivers one message synchronously. A nil error means the broker
// acknowledged the write.
type Sink interface {
	Publish(ctx context.Context, key, value []byte) error
	Close() error
}
