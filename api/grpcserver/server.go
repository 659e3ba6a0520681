package grpcserver

import (
	"context"

	"github.com/pkg/errors"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"arcshare/domain/scenario"
	"arcshare/service"
)

// Server adapts ScenarioService to gRPC.
//
//	RunScenario  {kind, workers, clones, value} -> report
//	GetReport    {id}                           -> report
//	ListReports  {limit}                        -> {reports: [report...]}
type Server struct {
	svc *service.ScenarioService
}

func NewServer(svc *service.ScenarioService) *Server {
	return &Server{svc: svc}
}

// -------------------- Commands --------------------

func (s *Server) RunScenario(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	sc, err := scenario.ScenarioFromStruct(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	rep, err := s.svc.Run(ctx, sc)
	if err != nil {
		return nil, toStatus(err)
	}
	return encodeReport(rep)
}

// -------------------- Queries --------------------

func (s *Server) GetReport(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id := req.GetFields()["id"].GetStringValue()
	if id == "" {
		return nil, status.Error(codes.InvalidArgument, "id is required")
	}
	rep, err := s.svc.Report(id)
	if err != nil {
		return nil, toStatus(err)
	}
	return encodeReport(rep)
}

func (s *Server) ListReports(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	limit := int(req.GetFields()["limit"].GetNumberValue())
	if limit < 0 {
		return nil, status.Error(codes.InvalidArgument, "limit must not be negative")
	}
	reps, err := s.svc.Reports(limit)
	if err != nil {
		return nil, toStatus(err)
	}

	list := &structpb.ListValue{Values: make([]*structpb.Value, 0, len(reps))}
	for _, rep := range reps {
		st, err := encodeReport(rep)
		if err != nil {
			return nil, err
		}
		list.Values = append(list.Values, structpb.NewStructValue(st))
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"reports": structpb.NewListValue(list),
	}}, nil
}

// -------------------- Converters --------------------

func encodeReport(rep *scenario.Report) (*structpb.Struct, error) {
	st, err := rep.ToStruct()
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return st, nil
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, service.ErrInvalidScenario):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, scenario.ErrReportNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
