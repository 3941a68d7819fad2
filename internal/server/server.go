// Package server exposes the logging session over gRPC and HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/alfredjeanlab/synclog/internal/model"
	"github.com/alfredjeanlab/synclog/internal/session"
	"github.com/alfredjeanlab/synclog/internal/sink"
	"github.com/alfredjeanlab/synclog/internal/streamlist"
)

// Controller is the session surface the server drives.
type Controller interface {
	SetEnabled(ctx context.Context, enable bool) (string, error)
	Status() model.SessionInfo
	Sessions(ctx context.Context, limit int) ([]*model.SessionSummary, error)
}

// LoggerServer implements the DataLogger gRPC service and the HTTP API on top
// of a Controller.
type LoggerServer struct {
	ctrl Controller
}

// NewLoggerServer returns a server for ctrl.
func NewLoggerServer(ctrl Controller) *LoggerServer {
	return &LoggerServer{ctrl: ctrl}
}

// inputError indicates invalid user input.
// Transport layers map this to 400 / InvalidArgument.
type inputError string

func (e inputError) Error() string { return string(e) }

// errorCode maps a controller error to its gRPC code.
func errorCode(err error) codes.Code {
	var (
		unreadable *streamlist.UnreadableError
		subErr     *session.SubscriptionError
		sinkErr    *sink.UnavailableError
		input      inputError
	)
	switch {
	case errors.As(err, &unreadable):
		return codes.FailedPrecondition
	case errors.As(err, &subErr):
		return codes.Unavailable
	case errors.As(err, &sinkErr):
		return codes.Internal
	case errors.As(err, &input):
		return codes.InvalidArgument
	case errors.Is(err, context.Canceled):
		return codes.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		return codes.DeadlineExceeded
	default:
		return codes.Internal
	}
}

// grpcError converts err to a gRPC status error.
func grpcError(err error) error {
	return status.Error(errorCode(err), err.Error())
}

// httpStatus maps a controller error to its HTTP status code.
func httpStatus(err error) int {
	switch errorCode(err) {
	case codes.FailedPrecondition:
		return http.StatusPreconditionFailed
	case codes.Unavailable:
		return http.StatusServiceUnavailable
	case codes.InvalidArgument:
		return http.StatusBadRequest
	case codes.Canceled, codes.DeadlineExceeded:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// toStruct converts a JSON-serializable value to a protobuf Struct.
func toStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unmarshal: %w", err)
	}
	return structpb.NewStruct(m)
}
