package broadcaster

import (
	"context"
	"time"

	"github.com/go-logr/logr"
	"github.com/pkg/errors"
	"google.golang.org/protobuf/encoding/protojson"

	"arcshare/arc"
	"arcshare/infra/kafka"
	"arcshare/infra/ledger"
)

// Store is the outbox side of the ledger.
type Store interface {
	ScanByState(fn func(ledger.Entry) error, states ...ledger.State) error
	UpdateState(id string, state ledger.State, attempts uint32) error
}

type Config struct {
	Interval    time.Duration
	Batch       int
	MaxAttempts uint32
}

// Broadcaster drains NEW and FAILED reports from the ledger into a sink.
type Broadcaster struct {
	store Store
	sink  *arc.Handle[kafka.Sink]
	cfg   Config
	log   logr.Logger
}

// ------------------------------------------------
// CONSTRUCTOR
// ------------------------------------------------

// New takes ownership of sink; it is released when Run returns.
func New(store Store, sink *arc.Handle[kafka.Sink], cfg Config, log logr.Logger) *Broadcaster {
	return &Broadcaster{
		store: store,
		sink:  sink,
		cfg:   cfg,
		log:   log.WithName("broadcaster"),
	}
}

// ------------------------------------------------
// LOOP
// ------------------------------------------------

func (b *Broadcaster) Run(ctx context.Context) {
	defer b.sink.Release()

	b.log.Info("started", "interval", b.cfg.Interval, "batch", b.cfg.Batch)
	ticker := time.NewTicker(b.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			b.log.Info("stopped")
			return
		case <-ticker.C:
			n, err := b.PublishOnce(ctx)
			if err != nil {
				b.log.Error(err, "publish pass failed")
				continue
			}
			if n > 0 {
				b.log.V(1).Info("published reports", "count", n)
			}
		}
	}
}

// ------------------------------------------------
// PUBLISH
// ------------------------------------------------

// PublishOnce publishes up to one batch and returns how many were acked.
// A failed publish leaves the report FAILED for the next pass until
// MaxAttempts is reached. Passes never overlap, so a SENT entry found by the
// scan was interrupted by a crash and is published again.
func (b *Broadcaster) PublishOnce(ctx context.Context) (int, error) {
	batch := make([]ledger.Entry, 0, b.cfg.Batch)
	err := b.store.ScanByState(func(e ledger.Entry) error {
		if e.Attempts >= b.cfg.MaxAttempts {
			return nil
		}
		batch = append(batch, e)
		if len(batch) >= b.cfg.Batch {
			return ledger.ErrStopScan
		}
		return nil
	}, ledger.StateNew, ledger.StateSent, ledger.StateFailed)
	if err != nil {
		return 0, errors.Wrap(err, "scan pending reports")
	}

	sink := b.sink.Get()
	acked := 0
	for _, e := range batch {
		if err := ctx.Err(); err != nil {
			return acked, nil
		}
		id := e.Report.ID
		attempts := e.Attempts + 1

		// 1️⃣ Mark SENT before publishing; a crash here republishes.
		if err := b.store.UpdateState(id, ledger.StateSent, attempts); err != nil {
			return acked, errors.Wrapf(err, "mark %s sent", id)
		}

		// 2️⃣ Publish
		payload, err := encode(e)
		if err == nil {
			err = sink.Publish(ctx, []byte(id), payload)
		}
		if err != nil {
			b.log.Error(err, "publish failed", "id", id, "attempt", attempts)
			if uerr := b.store.UpdateState(id, ledger.StateFailed, attempts); uerr != nil {
				return acked, errors.Wrapf(uerr, "mark %s failed", id)
			}
			continue
		}

		// 3️⃣ Mark ACKED
		if err := b.store.UpdateState(id, ledger.StateAcked, attempts); err != nil {
			return acked, errors.Wrapf(err, "mark %s acked", id)
		}
		acked++
	}
	return acked, nil
}

func encode(e ledger.Entry) ([]byte, error) {
	st, err := e.Report.ToStruct()
	if err != nil {
		return nil, err
	}
	return protojson.Marshal(st)
}
