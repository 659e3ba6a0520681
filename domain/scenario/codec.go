package scenario

import (
	"time"

	"github.com/pkg/errors"
	"google.golang.org/protobuf/types/known/structpb"
)

// ToStruct encodes s as the request body of the Scenarios service.
func (s Scenario) ToStruct() (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"kind":    s.Kind.String(),
		"workers": s.Workers,
		"clones":  s.Clones,
		"value":   s.Value,
	})
}

// ScenarioFromStruct decodes a request body. Missing numbers are zero.
func ScenarioFromStruct(st *structpb.Struct) (Scenario, error) {
	f := st.GetFields()
	kind, err := ParseKind(f["kind"].GetStringValue())
	if err != nil {
		return Scenario{}, err
	}
	return Scenario{
		Kind:    kind,
		Workers: int(f["workers"].GetNumberValue()),
		Clones:  int(f["clones"].GetNumberValue()),
		Value:   int64(f["value"].GetNumberValue()),
	}, nil
}

// ToStruct encodes r for the ledger and the wire.
func (r *Report) ToStruct() (*structpb.Struct, error) {
	violations := make([]any, 0, len(r.Violations))
	for _, v := range r.Violations {
		violations = append(violations, v)
	}
	sc, err := r.Scenario.ToStruct()
	if err != nil {
		return nil, err
	}
	st, err := structpb.NewStruct(map[string]any{
		"id":          r.ID,
		"handles":     r.Handles,
		"frees":       r.Frees,
		"freers":      r.Freers,
		"freed_by":    r.FreedBy,
		"violations":  violations,
		"started":     r.Started.UTC().Format(time.RFC3339Nano),
		"duration_ns": r.Duration.Nanoseconds(),
		"passed":      r.Passed(),
	})
	if err != nil {
		return nil, errors.Wrap(err, "encode report")
	}
	st.Fields["scenario"] = structpb.NewStructValue(sc)
	return st, nil
}

// ReportFromStruct decodes what ToStruct produced.
func ReportFromStruct(st *structpb.Struct) (*Report, error) {
	f := st.GetFields()
	id := f["id"].GetStringValue()
	if id == "" {
		return nil, errors.New("decode report: missing id")
	}
	sc, err := ScenarioFromStruct(f["scenario"].GetStructValue())
	if err != nil {
		return nil, errors.Wrapf(err, "decode report %s", id)
	}
	var started time.Time
	if s := f["started"].GetStringValue(); s != "" {
		if started, err = time.Parse(time.RFC3339Nano, s); err != nil {
			return nil, errors.Wrapf(err, "decode report %s", id)
		}
	}
	var violations []string
	for _, v := range f["violations"].GetListValue().GetValues() {
		violations = append(violations, v.GetStringValue())
	}
	return &Report{
		ID:         id,
		Scenario:   sc,
		Handles:    uint64(f["handles"].GetNumberValue()),
		Frees:      uint32(f["frees"].GetNumberValue()),
		Freers:     uint32(f["freers"].GetNumberValue()),
		FreedBy:    f["freed_by"].GetStringValue(),
		Violations: violations,
		Started:    started,
		Duration:   time.Duration(f["duration_ns"].GetNumberValue()),
	}, nil
}
