// Package api holds the wire contract shared by the server and its clients:
// the gRPC method names and the JSON bodies of the HTTP API.
//
// The gRPC service carries well-known protobuf types only (BoolValue,
// StringValue, Struct, Empty, Int32Value), so no generated code is needed.
package api

import "github.com/alfredjeanlab/synclog/internal/model"

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "synclog.v1.DataLogger"

// Full gRPC method names.
const (
	MethodRequestLogging = "/" + ServiceName + "/RequestLogging"
	MethodStatus         = "/" + ServiceName + "/Status"
	MethodHealth         = "/" + ServiceName + "/Health"
	MethodListSessions   = "/" + ServiceName + "/ListSessions"
)

// LoggingRequest is the body of POST /v1/logging.
type LoggingRequest struct {
	Enable bool `json:"enable"`
}

// LoggingResponse is returned by POST /v1/logging.
type LoggingResponse struct {
	SinkIdentifier string `json:"sink_identifier"`
}

// HealthResponse is returned by GET /v1/health.
type HealthResponse struct {
	Status string `json:"status"`
}

// SessionsResponse is returned by GET /v1/sessions.
type SessionsResponse struct {
	Sessions []*model.SessionSummary `json:"sessions"`
}

// ErrorResponse is the body of every non-2xx HTTP response.
type ErrorResponse struct {
	Error string `json:"error"`
}
