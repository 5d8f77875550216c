package api

import (
	"context"
	"errors"

	"github.com/huddlehq/huddle/internal/apperr"
	"google.golang.org/grpc/codes"
	grpcstatus "google.golang.org/grpc/status"
)

// toStatus maps an engine error onto a gRPC status carrying the text the
// user should see.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	code := codes.Internal
	switch apperr.KindOf(err) {
	case apperr.Validation:
		code = codes.InvalidArgument
	case apperr.Rejected, apperr.Conflict:
		code = codes.FailedPrecondition
	case apperr.NotFound:
		code = codes.NotFound
	case apperr.Forbidden:
		code = codes.PermissionDenied
	case apperr.Network, apperr.Media:
		code = codes.Unavailable
	default:
		if errors.Is(err, context.Canceled) {
			code = codes.Canceled
		} else if errors.Is(err, context.DeadlineExceeded) {
			code = codes.DeadlineExceeded
		}
	}
	return grpcstatus.Error(code, apperr.UserMessage(err))
}
