// Package grpcdomain carries domain queries over gRPC.
//
// The service has a single unary method whose request and response are
// the raw JSON envelope and response wrapped in BytesValue, so no protoc
// step is needed. Chain error codes travel in the response trailer.
package grpcdomain

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	serviceName     = "mintgate.domain.v1.Query"
	queryFullMethod = "/" + serviceName + "/Query"
)

// QueryServer is the server API for the domain Query service.
type QueryServer interface {
	Query(context.Context, *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error)
}

// UnimplementedQueryServer can be embedded to have forward compatible implementations.
type UnimplementedQueryServer struct{}

func (UnimplementedQueryServer) Query(context.Context, *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) {
	return nil, status.Error(codes.Unimplemented, "method Query not implemented")
}

// RegisterQueryServer registers the domain Query service on a gRPC server.
func RegisterQueryServer(s grpc.ServiceRegistrar, srv QueryServer) {
	s.RegisterService(&Query_ServiceDesc, srv)
}

// QueryClient is the client API for the domain Query service.
type QueryClient interface {
	Query(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error)
}

type queryClient struct{ cc grpc.ClientConnInterface }

func NewQueryClient(cc grpc.ClientConnInterface) QueryClient { return &queryClient{cc: cc} }

func (c *queryClient) Query(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error) {
	out := new(wrapperspb.BytesValue)
	err := c.cc.Invoke(ctx, queryFullMethod, in, out, opts...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func _Query_Query_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.BytesValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(QueryServer).Query(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: queryFullMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(QueryServer).Query(ctx, req.(*wrapperspb.BytesValue))
	}
	return interceptor(ctx, in, info, handler)
}

// Query_ServiceDesc is the grpc.ServiceDesc for the domain Query service.
var Query_ServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*QueryServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Query", Handler: _Query_Query_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "domain.proto",
}
