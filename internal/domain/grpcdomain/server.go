package grpcdomain

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/roach88/mintgate/internal/query"
)

// Server exposes a query.Channel over the domain Query service.
type Server struct {
	UnimplementedQueryServer
	Channel query.Channel
}

func (s *Server) Query(ctx context.Context, in *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) {
	if s == nil || s.Channel == nil {
		return nil, status.Error(codes.FailedPrecondition, "missing query channel")
	}
	if len(in.GetValue()) == 0 {
		return nil, status.Error(codes.InvalidArgument, "empty query")
	}
	out, err := s.Channel.QueryRaw(ctx, in.GetValue())
	if err != nil {
		return nil, toStatus(ctx, err)
	}
	return wrapperspb.Bytes(out), nil
}
