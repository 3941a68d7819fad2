package server

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/alfredjeanlab/synclog/internal/api"
)

// DataLoggerServer is the server API for the synclog.v1.DataLogger service.
type DataLoggerServer interface {
	RequestLogging(context.Context, *wrapperspb.BoolValue) (*wrapperspb.StringValue, error)
	Status(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	Health(context.Context, *emptypb.Empty) (*wrapperspb.StringValue, error)
	ListSessions(context.Context, *wrapperspb.Int32Value) (*structpb.Struct, error)
}

var _ DataLoggerServer = (*LoggerServer)(nil)

// NewGRPCServer creates a gRPC server with standard interceptors and
// registers the DataLogger service. When authToken is non-empty every RPC
// except Health requires a Bearer token.
func NewGRPCServer(s DataLoggerServer, authToken string) *grpc.Server {
	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			RecoveryInterceptor,
			LoggingInterceptor,
			AuthInterceptor(authToken),
		),
	)
	srv.RegisterService(&DataLoggerServiceDesc, s)
	return srv
}

// RequestLogging turns the logging session on or off and returns the sink
// identifier.
func (s *LoggerServer) RequestLogging(ctx context.Context, req *wrapperspb.BoolValue) (*wrapperspb.StringValue, error) {
	id, err := s.ctrl.SetEnabled(ctx, req.GetValue())
	if err != nil {
		return nil, grpcError(err)
	}
	return wrapperspb.String(id), nil
}

// Status returns the session snapshot as a Struct with the same shape as
// GET /v1/status.
func (s *LoggerServer) Status(_ context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	st, err := toStruct(s.ctrl.Status())
	if err != nil {
		return nil, grpcError(err)
	}
	return st, nil
}

// Health always reports "ok".
func (s *LoggerServer) Health(_ context.Context, _ *emptypb.Empty) (*wrapperspb.StringValue, error) {
	return wrapperspb.String("ok"), nil
}

// ListSessions returns recent sessions, newest first. A limit <= 0 returns
// all of them.
func (s *LoggerServer) ListSessions(ctx context.Context, req *wrapperspb.Int32Value) (*structpb.Struct, error) {
	sessions, err := s.ctrl.Sessions(ctx, int(req.GetValue()))
	if err != nil {
		return nil, grpcError(err)
	}
	st, err := toStruct(api.SessionsResponse{Sessions: sessions})
	if err != nil {
		return nil, grpcError(err)
	}
	return st, nil
}

// DataLoggerServiceDesc describes the synclog.v1.DataLogger service.
var DataLoggerServiceDesc = grpc.ServiceDesc{
	ServiceName: api.ServiceName,
	HandlerType: (*DataLoggerServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "RequestLogging", Handler: requestLoggingHandler},
		{MethodName: "Status", Handler: statusHandler},
		{MethodName: "Health", Handler: healthHandler},
		{MethodName: "ListSessions", Handler: listSessionsHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "synclog/v1/synclog.proto",
}

func requestLoggingHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.BoolValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DataLoggerServer).RequestLogging(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: api.MethodRequestLogging}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(DataLoggerServer).RequestLogging(ctx, req.(*wrapperspb.BoolValue))
	}
	return interceptor(ctx, in, info, handler)
}

func statusHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DataLoggerServer).Status(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: api.MethodStatus}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(DataLoggerServer).Status(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func healthHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DataLoggerServer).Health(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: api.MethodHealth}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(DataLoggerServer).Health(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func listSessionsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.Int32Value)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DataLoggerServer).ListSessions(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: api.MethodListSessions}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(DataLoggerServer).ListSessions(ctx, req.(*wrapperspb.Int32Value))
	}
	return interceptor(ctx, in, info, handler)
}
