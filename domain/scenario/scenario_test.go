package scenario

import (
	"testing"
	"time"
)

func TestParseKind(t *testing.T) {
	for in, want := range map[string]Kind{
		"sequential": Sequential,
		"Handoff":    Handoff,
		" fan-out ":  FanOut,
		"fanout":     FanOut,
	} {
		got, err := ParseKind(in)
		if err != nil || got != want {
			t.Errorf("ParseKind(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseKind("weak"); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestHandles(t *testing.T) {
	if n := (Scenario{Kind: FanOut, Workers: 4, Clones: 10}).Handles(); n != 41 {
		t.Errorf("fanout handles = %d, want 41", n)
	}
	if n := (Scenario{Kind: Handoff}).Handles(); n != 2 {
		t.Errorf("handoff handles = %d, want 2", n)
	}
}

func TestReportStructRoundTrip(t *testing.T) {
	in := &Report{
		ID:         "0190f3c2-0000-7000-8000-000000000001",
		Scenario:   Scenario{Kind: FanOut, Workers: 3, Clones: 7, Value: 42},
		Handles:    22,
		Frees:      1,
		Freers:     1,
		FreedBy:    "worker-2",
		Violations: []string{"late read"},
		Started:    time.Date(2026, 10, 19, 12, 0, 0, 123, time.UTC),
		Duration:   1500 * time.Microsecond,
	}
	st, err := in.ToStruct()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if st.Fields["passed"].GetBoolValue() {
		t.Error("a report with violations must not encode as passed")
	}

	out, err := ReportFromStruct(st)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.ID != in.ID || out.Scenario != in.Scenario || out.FreedBy != in.FreedBy ||
		out.Handles != in.Handles || out.Duration != in.Duration || !out.Started.Equal(in.Started) ||
		len(out.Violations) != 1 {
		t.Fatalf("round trip mismatch:\n in=%+v\nout=%+v", in, out)
	}
}

func TestReportFromStructRequiresID(t *testing.T) {
	r := &Report{Scenario: Scenario{Kind: Sequential}}
	st, err := r.ToStruct()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ReportFromStruct(st); err == nil {
		t.Fatal("expected missing id error")
	}
}
