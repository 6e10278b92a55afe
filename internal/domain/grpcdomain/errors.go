package grpcdomain

import (
	"context"
	"errors"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/roach88/mintgate/internal/chain"
)

// codeTrailer carries the chain error code of a refused query.
const codeTrailer = "mintgate-error-code"

// toStatus converts a service error into a gRPC status and records its
// chain code in the trailer.
func toStatus(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	var ce *chain.Error
	if !errors.As(err, &ce) {
		return status.Error(codes.Internal, err.Error())
	}
	_ = grpc.SetTrailer(ctx, metadata.Pairs(codeTrailer, string(ce.Code)))

	switch ce.Code {
	case chain.CodeNotFound:
		return status.Error(codes.NotFound, ce.Error())
	case chain.CodeValidation, chain.CodeTransport:
		return status.Error(codes.InvalidArgument, ce.Error())
	default:
		return status.Error(codes.FailedPrecondition, ce.Error())
	}
}

// fromStatus converts a failed call back into a chain error. The trailer
// code wins; otherwise the status code decides, and anything the service
// did not refuse itself is a transport failure.
func fromStatus(err error, trailer metadata.MD) error {
	if err == nil {
		return nil
	}
	st, _ := status.FromError(err)
	msg := st.Message()

	if vals := trailer.Get(codeTrailer); len(vals) > 0 {
		return &chain.Error{Code: chain.ErrorCode(vals[0]), Message: msg}
	}
	switch st.Code() {
	case codes.NotFound:
		return chain.NotFoundError("%s", msg)
	case codes.InvalidArgument:
		return chain.ValidationError("%s", msg)
	default:
		return chain.TransportError(err, "domain query")
	}
}
