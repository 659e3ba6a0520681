package grpcserver

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const serviceName = "arcshare.v1.Scenarios"

// ScenariosServer is the server API of arcshare.v1.Scenarios. Messages are
// google.protobuf.Struct documents; their fields are described on Server.
type ScenariosServer interface {
	RunScenario(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetReport(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListReports(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryCall func(ScenariosServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

var ScenariosServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*ScenariosServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "RunScenario", Handler: unary("RunScenario", ScenariosServer.RunScenario)},
		{MethodName: "GetReport", Handler: unary("GetReport", ScenariosServer.GetReport)},
		{MethodName: "ListReports", Handler: unary("ListReports", ScenariosServer.ListReports)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "arcshare/v1/scenarios.proto",
}

// Register adds srv to s.
func Register(s grpc.ServiceRegistrar, srv ScenariosServer) {
	s.RegisterService(&ScenariosServiceDesc, srv)
}

func fullMethod(method string) string {
	return "/" + serviceName + "/" + method
}

func unary(method string, call unaryCall) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(ScenariosServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod(method),
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(ScenariosServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// -------------------- Client --------------------

// Client calls arcshare.v1.Scenarios over cc.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) RunScenario(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "RunScenario", in, opts)
}

func (c *Client) GetReport(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "GetReport", in, opts)
}

func (c *Client) ListReports(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "ListReports", in, opts)
}

func (c *Client) invoke(ctx context.Context, method string, in *structpb.Struct, opts []grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, fullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
