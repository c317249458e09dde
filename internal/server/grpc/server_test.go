package grpc

import (
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/dmitrijs2005/rostersync/internal/common"
	"github.com/dmitrijs2005/rostersync/internal/lock"
	"github.com/dmitrijs2005/rostersync/internal/logging"
	"github.com/dmitrijs2005/rostersync/internal/models"
	pb "github.com/dmitrijs2005/rostersync/internal/proto"
	"github.com/dmitrijs2005/rostersync/internal/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

type fakeService struct {
	res   *models.SyncResult
	err   error
	last    models.SyncMark
	lastErr error
	tagID   int64
}

func (f *fakeService) Run(_ context.Context, tagID int64) (*models.SyncResult, error) {
	f.tagID = tagID
	return f.res, f.err
}

func (f *fakeService) LastSync(context.Context) (models.SyncMark, error) {
	if f.lastErr != nil {
		return models.SyncMark{}, f.lastErr
	}
	if f.last.CompletedAt.IsZero() {
		return models.SyncMark{}, common.ErrNotFound
	}
	return f.last, nil
}

func startBufServer(t *testing.T, svc Service) pb.RosterSyncClient {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := NewGRPCServer("bufnet", svc, logging.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, lis) }()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = conn.Close()
		cancel()
		<-done
	})
	return pb.NewRosterSyncClient(conn)
}

func TestRun_ReturnsResultStruct(t *testing.T) {
	res := models.NewSyncResult("run-1", 42)
	res.Inserted = 2
	svc := &fakeService{res: res}
	client := startBufServer(t, svc)

	var header metadata.MD
	ctx := metadata.AppendToOutgoingContext(context.Background(), common.RequestIDHeaderName, "req-9")
	out, err := client.Run(ctx, wrapperspb.Int64(42), grpc.Header(&header))
	require.NoError(t, err)
	assert.Equal(t, int64(42), svc.tagID)
	assert.Equal(t, []string{"req-9"}, header.Get(common.RequestIDHeaderName))

	got, err := rpc.StructToResult(out)
	require.NoError(t, err)
	assert.Equal(t, "run-1", got.RunID)
	assert.Equal(t, 2, got.Inserted)
}

func TestRun_AssignsRequestID(t *testing.T) {
	client := startBufServer(t, &fakeService{res: models.NewSyncResult("r", 1)})

	var header metadata.MD
	_, err := client.Run(context.Background(), wrapperspb.Int64(1), grpc.Header(&header))
	require.NoError(t, err)
	ids := header.Get(common.RequestIDHeaderName)
	require.Len(t, ids, 1)
	assert.Len(t, ids[0], 36)
}

func TestRun_ErrorCodes(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want codes.Code
	}{
		{"invalid tag", common.ErrInvalidTag, codes.InvalidArgument},
		{"in progress", common.ErrSyncInProgress, codes.Aborted},
		{"lease lost", fmt.Errorf("%w: %w", lock.ErrLeaseLost, context.Canceled), codes.Aborted},
		{"deadline", context.DeadlineExceeded, codes.DeadlineExceeded},
		{"other", assert.AnError, codes.Internal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := startBufServer(t, &fakeService{err: tt.err})
			_, err := client.Run(context.Background(), wrapperspb.Int64(1))
			assert.Equal(t, tt.want, status.Code(err))
		})
	}
}

func TestRun_FetchFailureCarriesResult(t *testing.T) {
	res := models.NewSyncResult("run-2", 5)
	res.AddError("fetch failed: 401")
	client := startBufServer(t, &fakeService{res: res, err: common.ErrFetchFailed})

	_, err := client.Run(context.Background(), wrapperspb.Int64(5))
	st := status.Convert(err)
	require.Equal(t, codes.Unavailable, st.Code())
	require.Len(t, st.Details(), 1)

	details, ok := st.Details()[0].(*structpb.Struct)
	require.True(t, ok)
	got, err := rpc.StructToResult(details)
	require.NoError(t, err)
	assert.Equal(t, []string{"fetch failed: 401"}, got.Errors)
}

func TestLastSync(t *testing.T) {
	client := startBufServer(t, &fakeService{})
	_, err := client.LastSync(context.Background(), &emptypb.Empty{})
	assert.Equal(t, codes.NotFound, status.Code(err))

	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	client = startBufServer(t, &fakeService{last: models.SyncMark{CompletedAt: ts, TagID: 42}})
	var header metadata.MD
	out, err := client.LastSync(context.Background(), &emptypb.Empty{}, grpc.Header(&header))
	require.NoError(t, err)
	assert.True(t, ts.Equal(out.AsTime()))
	assert.Equal(t, []string{"42"}, header.Get(common.LastSyncTagHeaderName))

	client = startBufServer(t, &fakeService{lastErr: assert.AnError})
	_, err = client.LastSync(context.Background(), &emptypb.Empty{})
	assert.Equal(t, codes.Internal, status.Code(err))
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	t.Parallel()

	srv := NewGRPCServer("127.0.0.1:0", &fakeService{}, logging.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	select {
	case err := <-done:
		t.Fatalf("server exited too early: %v", err)
	case <-time.After(150 * time.Millisecond):
	}

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop within timeout after context cancel")
	}
}

func TestRun_ReturnsErrorOnBadAddress(t *testing.T) {
	t.Parallel()

	srv := NewGRPCServer("127.0.0.1:99999", &fakeService{}, logging.Nop())
	require.Error(t, srv.Run(context.Background()))
}

func TestNewServer_RegistersRosterSync(t *testing.T) {
	srv := NewGRPCServer("bufnet", &fakeService{}, logging.Nop()).newServer()
	info, ok := srv.GetServiceInfo()[pb.RosterSync_ServiceDesc.ServiceName]
	require.True(t, ok)

	var methods []string
	for _, m := range info.Methods {
		methods = append(methods, m.Name)
	}
	assert.ElementsMatch(t, []string{"Run", "LastSync"}, methods)
	assert.Equal(t, "rostersync.proto", info.Metadata)
}
