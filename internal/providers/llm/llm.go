package llm

import (
	"context"
	"errors"

	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Provider is a text-generation backend. Generate blocks until the
// backend answers or ctx expires; it is the pipeline's dominant latency.
type Provider interface {
	Generate(ctx context.Context, prompt string) (text string, err error)
	Close() error
}

// IsTransient reports whether a backend failure is worth one retry:
// timeouts and server-side trouble qualify, content rejections and other
// caller errors do not. The Vertex client is gRPC-based, so failures
// arrive as gRPC status errors; googleapi errors are handled too for the
// REST-transport case.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	if s, ok := status.FromError(err); ok {
		switch s.Code() {
		case codes.Unavailable, codes.DeadlineExceeded, codes.ResourceExhausted, codes.Internal:
			return true
		}
		return false
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code >= 500 || gerr.Code == 429
	}
	return false
}

// IsDeadline reports whether the failure was a deadline expiring, in
// either of the shapes the backend produces: the context error itself or
// a DEADLINE_EXCEEDED gRPC status.
func IsDeadline(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if s, ok := status.FromError(err); ok {
		return s.Code() == codes.DeadlineExceeded
	}
	return false
}
