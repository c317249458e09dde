// Package client triggers sync cycles on a running rostersync server over
// gRPC.
package client

import (
	"context"
	"fmt"
	"strconv"

	"github.com/dmitrijs2005/rostersync/internal/common"
	"github.com/dmitrijs2005/rostersync/internal/models"
	pb "github.com/dmitrijs2005/rostersync/internal/proto"
	"github.com/dmitrijs2005/rostersync/internal/rpc"
	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

type GRPCClient struct {
	conn   *grpc.ClientConn
	client pb.RosterSyncClient
}

// New dials target lazily; the first call establishes the connection.
func New(target string, opts ...grpc.DialOption) (*GRPCClient, error) {
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(requestIDInterceptor),
	}, opts...)

	conn, err := grpc.NewClient(target, opts...)
	if err != nil {
		return nil, err
	}
	return &GRPCClient{conn: conn, client: pb.NewRosterSyncClient(conn)}, nil
}

// requestIDInterceptor tags each outgoing call with a fresh x-request-id
// unless the caller already set one.
func requestIDInterceptor(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
	md, _ := metadata.FromOutgoingContext(ctx)
	if len(md.Get(common.RequestIDHeaderName)) == 0 {
		ctx = metadata.AppendToOutgoingContext(ctx, common.RequestIDHeaderName, uuid.NewString())
	}
	return invoker(ctx, method, req, reply, cc, opts...)
}

// Run triggers one cycle for tagID (0 = server default). When the cycle's
// fetch failed the server's result is returned along with an error wrapping
// common.ErrFetchFailed.
func (c *GRPCClient) Run(ctx context.Context, tagID int64) (*models.SyncResult, error) {
	out, err := c.client.Run(ctx, wrapperspb.Int64(tagID))
	if err != nil {
		return c.mapRunError(err)
	}
	return rpc.StructToResult(out)
}

// LastSync returns the last successful cycle, or common.ErrNotFound if the
// server has none.
func (c *GRPCClient) LastSync(ctx context.Context) (models.SyncMark, error) {
	var header metadata.MD
	out, err := c.client.LastSync(ctx, &emptypb.Empty{}, grpc.Header(&header))
	if status.Code(err) == codes.NotFound {
		return models.SyncMark{}, common.ErrNotFound
	}
	if err != nil {
		return models.SyncMark{}, mapError(err)
	}

	mark := models.SyncMark{CompletedAt: out.AsTime()}
	if v := header.Get(common.LastSyncTagHeaderName); len(v) > 0 {
		tag, err := strconv.ParseInt(v[0], 10, 64)
		if err != nil {
			return models.SyncMark{}, fmt.Errorf("invalid %s header: %w", common.LastSyncTagHeaderName, err)
		}
		mark.TagID = tag
	}
	return mark, nil
}

func (c *GRPCClient) Close() error {
	return c.conn.Close()
}

func (c *GRPCClient) mapRunError(err error) (*models.SyncResult, error) {
	st := status.Convert(err)
	if st.Code() == codes.Unavailable {
		for _, d := range st.Details() {
			if s, ok := d.(*structpb.Struct); ok {
				res, derr := rpc.StructToResult(s)
				if derr != nil {
					break
				}
				return res, fmt.Errorf("%w: %s", common.ErrFetchFailed, st.Message())
			}
		}
	}
	return nil, mapError(err)
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	st, _ := status.FromError(err)
	switch st.Code() {
	case codes.InvalidArgument:
		return fmt.Errorf("%w: %s", common.ErrInvalidTag, st.Message())
	case codes.Aborted:
		return common.ErrSyncInProgress
	case codes.Unavailable:
		return fmt.Errorf("%w: %s", common.ErrUnavailable, st.Message())
	case codes.DeadlineExceeded:
		return context.DeadlineExceeded
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}
