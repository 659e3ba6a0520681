package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	kafkago "github.com/segmentio/kafka-go"
)

func TestSaramaSinkPublish(t *testing.T) {
	mp := mocks.NewSyncProducer(t, SaramaConfig())
	mp.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		if string(val) != "report" {
			return errors.New("unexpected value " + string(val))
		}
		return nil
	})
	mp.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	s := NewSaramaSinkFromProducer(mp, "arcshare.reports")
	if err := s.Publish(context.Background(), []byte("k"), []byte("report")); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if err := s.Publish(context.Background(), []byte("k"), []byte("report")); !errors.Is(err, sarama.ErrOutOfBrokers) {
		t.Fatalf("expected broker error, got %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

type fakeWriter struct {
	msgs   []kafkago.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestWriterSinkPublish(t *testing.T) {
	fw := &fakeWriter{}
	s := &WriterSink{writer: fw, topic: "t"}

	if err := s.Publish(context.Background(), []byte("id"), []byte("v")); err != nil {
		t.Fatal(err)
	}
	if len(fw.msgs) != 1 || string(fw.msgs[0].Key) != "id" {
		t.Fatalf("unexpected messages %+v", fw.msgs)
	}

	fw.err = errors.New("leader not available")
	if err := s.Publish(context.Background(), nil, nil); err == nil {
		t.Fatal("expected error")
	}

	_ = s.Close()
	if !fw.closed {
		t.Fatal("writer not closed")
	}
}

func TestNewWriterSinkConfig(t *testing.T) {
	s := NewWriterSink([]string{"localhost:9092"}, "reports")
	w, ok := s.writer.(*kafkago.Writer)
	if !ok {
		t.Fatalf("unexpected writer type %T", s.writer)
	}
	if w.Topic != "reports" || w.RequiredAcks != kafkago.RequireAll {
		t.Fatalf("unexpected writer config %+v", w)
	}
}
