// Package grpcclient talks to a remote OCR service over gRPC. Requests and
// replies use the protobuf well-known wrapper types, so the service needs no
// generated stubs on either side.
package grpcclient

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/protobuf/types/known/wrapperspb"

	apperrors "github.com/GriffinCanCode/deathwatch/internal/errors"
	"github.com/GriffinCanCode/deathwatch/internal/trace"
)

var errNotServing = apperrors.New(apperrors.Unavailable, "ocr service not serving")

// Client wraps the connection to the OCR service.
type Client struct {
	conn   *grpc.ClientConn
	health healthpb.HealthClient
}

// New creates a client for addr. The connection is established lazily on
// the first call.
func New(addr string, opts ...grpc.DialOption) (*Client, error) {
	base := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithKeepaliveParams(keepalive.ClientParameters{
			Time:    DefaultKeepaliveTime,
			Timeout: DefaultKeepaliveTimeout,
		}),
		grpc.WithUnaryInterceptor(trace.UnaryClientInterceptor()),
	}
	conn, err := grpc.NewClient(addr, append(base, opts...)...)
	if err != nil {
		return nil, err
	}
	return &Client{conn: conn, health: healthpb.NewHealthClient(conn)}, nil
}

// Close closes the gRPC connection
func (c *Client) Close() error {
	return c.conn.Close()
}

// ExtractText sends an encoded image and returns the recognised text.
func (c *Client) ExtractText(ctx context.Context, image []byte) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, ExtractTimeout)
	defer cancel()

	reply := &wrapperspb.StringValue{}
	if err := c.conn.Invoke(ctx, extractTextMethod, wrapperspb.Bytes(image), reply); err != nil {
		return "", err
	}
	return reply.GetValue(), nil
}

// Ping checks the OCR service through the standard gRPC health protocol.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, HealthCheckTimeout)
	defer cancel()

	resp, err := c.health.Check(ctx, &healthpb.HealthCheckRequest{Service: OCRService})
	if err != nil {
		return err
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		return errNotServing
	}
	return nil
}
