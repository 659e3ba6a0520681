// Package config holds the server configuration and its flag bindings.
package config

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	flag "github.com/spf13/pflag"
)

// Kafka client implementations a report sink can be built on.
const (
	SinkNone    = "none"
	SinkSarama  = "sarama"
	SinkKafkaGo = "kafka-go"
)

type Config struct {
	GRPCAddr    string
	MetricsAddr string
	LedgerDir   string
	Verbosity   int

	Sink    string
	Brokers []string
	Topic   string

	BroadcastInterval time.Duration
	BroadcastBatch    int
	MaxAttempts       uint32

	// Scenario limits, enforced on every request.
	MaxWorkers int
	MaxClones  int
}

// Default returns a Config usable for a local run without Kafka.
func Default() Config {
	return Config{
		GRPCAddr:          ":50051",
		MetricsAddr:       ":9090",
		LedgerDir:         "./ledger",
		Sink:              SinkNone,
		Brokers:           []string{"localhost:9092"},
		Topic:             "arcshare.reports",
		BroadcastInterval: 250 * time.Millisecond,
		BroadcastBatch:    128,
		MaxAttempts:       5,
		MaxWorkers:        256,
		MaxClones:         1 << 16,
	}
}

// AddFlags binds c's fields to fs, using c's current values as defaults.
func (c *Config) AddFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.GRPCAddr, "grpc-addr", c.GRPCAddr, "gRPC listen address")
	fs.StringVar(&c.MetricsAddr, "metrics-addr", c.MetricsAddr, "Prometheus /metrics listen address, empty to disable")
	fs.StringVar(&c.LedgerDir, "ledger-dir", c.LedgerDir, "directory of the pebble report ledger")
	fs.IntVarP(&c.Verbosity, "verbosity", "v", c.Verbosity, "log verbosity")
	fs.StringVar(&c.Sink, "sink", c.Sink, "report sink: none, sarama or kafka-go")
	fs.StringSliceVar(&c.Brokers, "brokers", c.Brokers, "Kafka bootstrap brokers")
	fs.StringVar(&c.Topic, "topic", c.Topic, "Kafka topic for scenario reports")
	fs.DurationVar(&c.BroadcastInterval, "broadcast-interval", c.BroadcastInterval, "ledger scan interval of the broadcaster")
	fs.IntVar(&c.BroadcastBatch, "broadcast-batch", c.BroadcastBatch, "maximum reports published per scan")
	fs.Uint32Var(&c.MaxAttempts, "max-attempts", c.MaxAttempts, "publish attempts before a report is left FAILED")
	fs.IntVar(&c.MaxWorkers, "max-workers", c.MaxWorkers, "upper bound on scenario workers")
	fs.IntVar(&c.MaxClones, "max-clones", c.MaxClones, "upper bound on clones per scenario worker")
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch c.Sink {
	case SinkNone, SinkSarama, SinkKafkaGo:
	default:
		return errors.Errorf("unknown sink %q", c.Sink)
	}
	if c.Sink != SinkNone {
		if len(c.Brokers) == 0 {
			return errors.New("at least one broker is required when a sink is configured")
		}
		if strings.TrimSpace(c.Topic) == "" {
			return errors.New("topic must not be empty when a sink is configured")
		}
	}
	if c.LedgerDir == "" {
		return errors.New("ledger dir must not be empty")
	}
	if c.GRPCAddr == "" {
		return errors.New("grpc addr must not be empty")
	}
	if c.BroadcastInterval <= 0 {
		return errors.Errorf("broadcast interval must be positive, got %s", c.BroadcastInterval)
	}
	if c.BroadcastBatch <= 0 {
		return errors.Errorf("broadcast batch must be positive, got %d", c.BroadcastBatch)
	}
	if c.MaxAttempts == 0 {
		return errors.New("max attempts must be at least 1")
	}
	if c.MaxWorkers <= 0 || c.MaxClones <= 0 {
		return errors.New("scenario limits must be positive")
	}
	return nil
}
