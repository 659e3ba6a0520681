package config

import (
	"testing"
	"time"

	flag "github.com/spf13/pflag"
)

func TestDefaultIsValid(t *testing.T) {
	c := Default()
	if err := c.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestFlagsOverrideDefaults(t *testing.T) {
	c := Default()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	c.AddFlags(fs)

	err := fs.Parse([]string{
		"--sink=sarama",
		"--brokers=a:9092,b:9092",
		"--broadcast-interval=1s",
		"-v", "3",
	})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if c.Sink != SinkSarama || len(c.Brokers) != 2 || c.BroadcastInterval != time.Second || c.Verbosity != 3 {
		t.Fatalf("flags not applied: %+v", c)
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]func(*Config){
		"sink":      func(c *Config) { c.Sink = "rabbit" },
		"brokers":   func(c *Config) { c.Sink = SinkKafkaGo; c.Brokers = nil },
		"topic":     func(c *Config) { c.Sink = SinkSarama; c.Topic = " " },
		"ledger":    func(c *Config) { c.LedgerDir = "" },
		"interval":  func(c *Config) { c.BroadcastInterval = 0 },
		"batch":     func(c *Config) { c.BroadcastBatch = -1 },
		"attempts":  func(c *Config) { c.MaxAttempts = 0 },
		"workers":   func(c *Config) { c.MaxWorkers = 0 },
		"grpc addr": func(c *Config) { c.GRPCAddr = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := Default()
			mutate(&c)
			if err := c.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}
