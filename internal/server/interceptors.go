package server

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"runtime/debug"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/alfredjeanlab/synclog/internal/api"
)

// rpcAttrs describes one DataLogger call for the log: the short RPC name and
// the request arguments and result that matter to an operator.
func rpcAttrs(method string, req, resp any) []any {
	attrs := []any{"rpc", path.Base(method)}
	switch method {
	case api.MethodRequestLogging:
		if v, ok := req.(*wrapperspb.BoolValue); ok {
			attrs = append(attrs, "enable", v.GetValue())
		}
		if v, ok := resp.(*wrapperspb.StringValue); ok && v.GetValue() != "" {
			attrs = append(attrs, "sink", v.GetValue())
		}
	case api.MethodListSessions:
		if v, ok := req.(*wrapperspb.Int32Value); ok {
			attrs = append(attrs, "limit", v.GetValue())
		}
	}
	return attrs
}

// LoggingInterceptor logs every DataLogger call. Logging toggles are state
// changes and go out at info; status polls and health checks stay at debug.
func LoggingInterceptor(
	ctx context.Context,
	req any,
	info *grpc.UnaryServerInfo,
	handler grpc.UnaryHandler,
) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	attrs := append(rpcAttrs(info.FullMethod, req, resp), "duration", time.Since(start))

	switch {
	case err != nil:
		attrs = append(attrs, "code", status.Code(err).String(), "err", err)
		slog.Warn("rpc failed", attrs...)
	case info.FullMethod == api.MethodRequestLogging:
		slog.Info("logging toggled", attrs...)
	default:
		slog.Debug("rpc completed", attrs...)
	}
	return resp, err
}

// RecoveryInterceptor turns a handler panic into codes.Internal so one bad
// call cannot take down a daemon that may be mid-session.
func RecoveryInterceptor(
	ctx context.Context,
	req any,
	info *grpc.UnaryServerInfo,
	handler grpc.UnaryHandler,
) (resp any, err error) {
	defer func() {
		if r := recover(); r != nil {
			attrs := append(rpcAttrs(info.FullMethod, req, nil),
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()),
			)
			slog.Error("panic in rpc handler", attrs...)
			err = status.Errorf(codes.Internal, "internal server error")
		}
	}()
	return handler(ctx, req)
}

// checkBearer validates an Authorization header value against token and
// returns the reason it was rejected, or "" when it is accepted.
func checkBearer(header, token string) string {
	if header == "" {
		return "missing authorization header"
	}
	provided, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return "invalid authorization scheme"
	}
	if subtle.ConstantTimeCompare([]byte(provided), []byte(token)) != 1 {
		return "invalid token"
	}
	return ""
}

// AuthInterceptor requires a Bearer token in the "authorization" metadata.
// An empty token disables the check. Health is always exempt so probes work
// without credentials.
func AuthInterceptor(token string) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		if token == "" || info.FullMethod == api.MethodHealth {
			return handler(ctx, req)
		}

		md, ok := metadata.FromIncomingContext(ctx)
		if !ok {
			return nil, status.Error(codes.Unauthenticated, "missing metadata")
		}
		var header string
		if vals := md.Get("authorization"); len(vals) > 0 {
			header = vals[0]
		}
		if reason := checkBearer(header, token); reason != "" {
			return nil, status.Error(codes.Unauthenticated, reason)
		}
		return handler(ctx, req)
	}
}

// AuthMiddleware is the HTTP counterpart of AuthInterceptor. GET /v1/health
// is exempt.
func AuthMiddleware(token string, next http.Handler) http.Handler {
	if token == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet && r.URL.Path == "/v1/health" {
			next.ServeHTTP(w, r)
			return
		}
		if reason := checkBearer(r.Header.Get("Authorization"), token); reason != "" {
			writeError(w, http.StatusUnauthorized, reason)
			return
		}
		next.ServeHTTP(w, r)
	})
}
