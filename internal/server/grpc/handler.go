package grpc

import (
	"context"
	"errors"
	"strconv"

	"github.com/dmitrijs2005/rostersync/internal/common"
	"github.com/dmitrijs2005/rostersync/internal/lock"
	"github.com/dmitrijs2005/rostersync/internal/logging"
	"github.com/dmitrijs2005/rostersync/internal/models"
	pb "github.com/dmitrijs2005/rostersync/internal/proto"
	"github.com/dmitrijs2005/rostersync/internal/rpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/timestamppb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

type handler struct {
	pb.UnimplementedRosterSyncServer
	service Service
	logger  logging.Logger
}

func (h *handler) Run(ctx context.Context, req *wrapperspb.Int64Value) (*structpb.Struct, error) {
	res, err := h.service.Run(ctx, req.GetValue())
	if err != nil {
		h.logger.Error(ctx, err.Error(), "request_id", RequestID(ctx))
		return nil, toStatus(err, res)
	}

	out, err := rpc.ResultToStruct(res)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

func (h *handler) LastSync(ctx context.Context, _ *emptypb.Empty) (*timestamppb.Timestamp, error) {
	mark, err := h.service.LastSync(ctx)
	if errors.Is(err, common.ErrNotFound) {
		return nil, status.Error(codes.NotFound, "no completed sync")
	}
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	_ = grpc.SetHeader(ctx, metadata.Pairs(common.LastSyncTagHeaderName, strconv.FormatInt(mark.TagID, 10)))
	return timestamppb.New(mark.CompletedAt), nil
}

// toStatus maps trigger errors to gRPC codes. A failed cycle's result, if
// any, travels in the status details.
func toStatus(err error, res *models.SyncResult) error {
	var code codes.Code
	switch {
	case errors.Is(err, common.ErrInvalidTag):
		code = codes.InvalidArgument
	case errors.Is(err, common.ErrSyncInProgress), errors.Is(err, lock.ErrLeaseLost):
		code = codes.Aborted
	case errors.Is(err, common.ErrFetchFailed):
		code = codes.Unavailable
	case errors.Is(err, context.Canceled):
		code = codes.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		code = codes.DeadlineExceeded
	default:
		code = codes.Internal
	}

	st := status.New(code, err.Error())
	if res == nil {
		return st.Err()
	}
	details, cerr := rpc.ResultToStruct(res)
	if cerr != nil {
		return st.Err()
	}
	if withDetails, derr := st.WithDetails(details); derr == nil {
		st = withDetails
	}
	return st.Err()
}
