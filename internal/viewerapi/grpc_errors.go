package viewerapi

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/signalsfoundry/orrery/catalog"
	"github.com/signalsfoundry/orrery/core"
	"github.com/signalsfoundry/orrery/internal/session"
)

// ErrInvalidRequest is used for malformed request payloads.
var ErrInvalidRequest = errors.New("invalid request")

// ToStatusError maps viewer errors onto gRPC status codes.
func ToStatusError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	switch {
	case errors.Is(err, core.ErrBodyNotFound):
		return status.Error(codes.NotFound, err.Error())

	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, core.ErrInvalidTimeOffset),
		errors.Is(err, core.ErrDegeneratePeriod),
		errors.Is(err, core.ErrInvalidRay),
		errors.Is(err, catalog.ErrInvalidCatalog):
		return status.Error(codes.InvalidArgument, err.Error())

	case errors.Is(err, session.ErrClosed):
		return status.Error(codes.Unavailable, err.Error())

	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())

	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())

	default:
		return status.Error(codes.Internal, err.Error())
	}
}
