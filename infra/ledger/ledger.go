// Package ledger is the durable outbox of scenario reports, stored in pebble.
// Each report carries a publication state the broadcaster advances.
package ledger

import (
	"encoding/binary"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/pkg/errors"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"arcshare/domain/scenario"
)

// -------------------- State --------------------

type State uint8

const (
	StateNew State = iota
	StateSent
	StateAcked
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "NEW"
	case StateSent:
		return "SENT"
	case StateAcked:
		return "ACKED"
	case StateFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

var (
	ErrNotFound = scenario.ErrReportNotFound
	// ErrStopScan ends a scan early without failing it.
	ErrStopScan = errors.New("ledger: stop scan")
)

// -------------------- Entry --------------------

// Entry is a report plus its outbox bookkeeping.
type Entry struct {
	Report      *scenario.Report
	State       State
	Attempts    uint32
	LastAttempt int64
}

const headerLen = 1 + 4 + 8

// binary encoding: [state:1][attempts:4][lastAttempt:8][report proto...]
func encodeEntry(e Entry) ([]byte, error) {
	st, err := e.Report.ToStruct()
	if err != nil {
		return nil, err
	}
	payload, err := proto.Marshal(st)
	if err != nil {
		return nil, errors.Wrap(err, "marshal report")
	}
	buf := make([]byte, headerLen, headerLen+len(payload))
	buf[0] = byte(e.State)
	binary.BigEndian.PutUint32(buf[1:5], e.Attempts)
	binary.BigEndian.PutUint64(buf[5:13], uint64(e.LastAttempt))
	return append(buf, payload...), nil
}

func decodeEntry(b []byte) (Entry, error) {
	if len(b) < headerLen {
		return Entry{}, errors.Errorf("invalid ledger entry length %d", len(b))
	}
	st := &structpb.Struct{}
	if err := proto.Unmarshal(b[headerLen:], st); err != nil {
		return Entry{}, errors.Wrap(err, "unmarshal report")
	}
	r, err := scenario.ReportFromStruct(st)
	if err != nil {
		return Entry{}, err
	}
	return Entry{
		Report:      r,
		State:       State(b[0]),
		Attempts:    binary.BigEndian.Uint32(b[1:5]),
		LastAttempt: int64(binary.BigEndian.Uint64(b[5:13])),
	}, nil
}

// -------------------- Ledger --------------------

type Ledger struct {
	db *pebble.DB
}

func Open(dir string) (*Ledger, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, errors.Wrapf(err, "open ledger %s", dir)
	}
	return &Ledger{db: db}, nil
}

func (l *Ledger) Close() error {
	return l.db.Close()
}

// Put stores a new report in state NEW, replacing any entry with its ID.
func (l *Ledger) Put(r *scenario.Report) error {
	if r.ID == "" {
		return errors.New("ledger: report without id")
	}
	return l.write(Entry{Report: r, State: StateNew})
}

func (l *Ledger) Get(id string) (*scenario.Report, error) {
	e, err := l.Entry(id)
	if err != nil {
		return nil, err
	}
	return e.Report, nil
}

func (l *Ledger) Entry(id string) (Entry, error) {
	val, closer, err := l.db.Get(keyFor(id))
	if errors.Is(err, pebble.ErrNotFound) {
		return Entry{}, errors.Wrap(ErrNotFound, id)
	}
	if err != nil {
		return Entry{}, errors.Wrapf(err, "get %s", id)
	}
	defer closer.Close()

	return decodeEntry(val)
}

// UpdateState records a publication attempt.
func (l *Ledger) UpdateState(id string, state State, attempts uint32) error {
	e, err := l.Entry(id)
	if err != nil {
		return err
	}
	e.State = state
	e.Attempts = attempts
	e.LastAttempt = time.Now().UnixNano()
	return l.write(e)
}

func (l *Ledger) Delete(id string) error {
	return l.db.Delete(keyFor(id), pebble.Sync)
}

func (l *Ledger) write(e Entry) error {
	val, err := encodeEntry(e)
	if err != nil {
		return err
	}
	return errors.Wrapf(l.db.Set(keyFor(e.Report.ID), val, pebble.Sync), "put %s", e.Report.ID)
}

// -------------------- Scan --------------------

// List returns up to limit reports, newest first. IDs are time ordered,
// so key order is creation order.
func (l *Ledger) List(limit int) ([]*scenario.Report, error) {
	iter, err := l.newIter()
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var out []*scenario.Report
	for iter.Last(); iter.Valid() && (limit <= 0 || len(out) < limit); iter.Prev() {
		e, err := decodeEntry(iter.Value())
		if err != nil {
			return nil, err
		}
		out = append(out, e.Report)
	}
	return out, iter.Error()
}

// ScanByState calls fn for every entry in one of states, oldest first.
// fn may return ErrStopScan to end the scan.
func (l *Ledger) ScanByState(fn func(Entry) error, states ...State) error {
	var want [256]bool
	for _, s := range states {
		want[s] = true
	}

	iter, err := l.newIter()
	if err != nil {
		return err
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		val := iter.Value()
		if len(val) == 0 || !want[val[0]] {
			continue
		}
		e, err := decodeEntry(val)
		if err != nil {
			return err
		}
		if err := fn(e); err != nil {
			if errors.Is(err, ErrStopScan) {
				return nil
			}
			return err
		}
	}
	return iter.Error()
}

func (l *Ledger) newIter() (*pebble.Iterator, error) {
	return l.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(keyPrefix),
		UpperBound: []byte(keyUpper),
	})
}

// -------------------- Helpers --------------------

const (
	keyPrefix = "run/"
	keyUpper  = "run/~"
)

func keyFor(id string) []byte {
	return []byte(keyPrefix + id)
}
