// Package client provides a transport-agnostic interface for the synclog
// daemon with HTTP/JSON and gRPC implementations.
package client

import (
	"context"

	"github.com/alfredjeanlab/synclog/internal/model"
)

// LoggerClient is the interface the synclog CLI uses to talk to the daemon.
// It is implemented by HTTPClient (default) and GRPCClient.
type LoggerClient interface {
	// RequestLogging turns logging on or off and returns the sink identifier.
	RequestLogging(ctx context.Context, enable bool) (string, error)

	Status(ctx context.Context) (*model.SessionInfo, error)

	// ListSessions returns recent sessions, newest first. limit <= 0 means all.
	ListSessions(ctx context.Context, limit int) ([]*model.SessionSummary, error)

	Health(ctx context.Context) (string, error)

	Close() error
}
