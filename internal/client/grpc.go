package client

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/alfredjeanlab/synclog/internal/api"
	"github.com/alfredjeanlab/synclog/internal/model"
)

// GRPCClient implements LoggerClient using the gRPC transport.
type GRPCClient struct {
	conn *grpc.ClientConn
}

var _ LoggerClient = (*GRPCClient)(nil)

// NewGRPCClient connects to the given gRPC address. When token is non-empty
// it is sent as a Bearer token on every call.
func NewGRPCClient(addr, token string) (*GRPCClient, error) {
	opts := []grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}
	if token != "" {
		opts = append(opts, grpc.WithUnaryInterceptor(bearerInterceptor(token)))
	}
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("grpc dial: %w", err)
	}
	return &GRPCClient{conn: conn}, nil
}

func (c *GRPCClient) Close() error {
	return c.conn.Close()
}

func (c *GRPCClient) RequestLogging(ctx context.Context, enable bool) (string, error) {
	out := new(wrapperspb.StringValue)
	if err := c.conn.Invoke(ctx, api.MethodRequestLogging, wrapperspb.Bool(enable), out); err != nil {
		return "", err
	}
	return out.GetValue(), nil
}

func (c *GRPCClient) Status(ctx context.Context) (*model.SessionInfo, error) {
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, api.MethodStatus, &emptypb.Empty{}, out); err != nil {
		return nil, err
	}
	var info model.SessionInfo
	if err := fromStruct(out, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (c *GRPCClient) ListSessions(ctx context.Context, limit int) ([]*model.SessionSummary, error) {
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, api.MethodListSessions, wrapperspb.Int32(int32(limit)), out); err != nil {
		return nil, err
	}
	var resp api.SessionsResponse
	if err := fromStruct(out, &resp); err != nil {
		return nil, err
	}
	return resp.Sessions, nil
}

func (c *GRPCClient) Health(ctx context.Context) (string, error) {
	out := new(wrapperspb.StringValue)
	if err := c.conn.Invoke(ctx, api.MethodHealth, &emptypb.Empty{}, out); err != nil {
		return "", err
	}
	return out.GetValue(), nil
}

// fromStruct decodes a Struct into a JSON-tagged Go value.
func fromStruct(s proto.Message, v any) error {
	data, err := protojson.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding struct: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decoding struct: %w", err)
	}
	return nil
}

func bearerInterceptor(token string) grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		ctx = metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+token)
		return invoker(ctx, method, req, reply, cc, opts...)
	}
}
