// Package grpc exposes the sync trigger over gRPC.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/rostersync/internal/logging"
	"github.com/dmitrijs2005/rostersync/internal/models"
	pb "github.com/dmitrijs2005/rostersync/internal/proto"
	"google.golang.org/grpc"
)

// Service is the trigger the handlers delegate to.
type Service interface {
	Run(ctx context.Context, tagID int64) (*models.SyncResult, error)
	LastSync(ctx context.Context) (models.SyncMark, error)
}

type GRPCServer struct {
	address string
	service Service
	logger  logging.Logger
}

func NewGRPCServer(address string, svc Service, l logging.Logger) *GRPCServer {
	return &GRPCServer{
		address: address,
		service: svc,
		logger:  l.With("module", "grpc_server"),
	}
}

func (s *GRPCServer) newServer() *grpc.Server {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.requestIDInterceptor, s.loggingInterceptor))
	pb.RegisterRosterSyncServer(srv, &handler{service: s.service, logger: s.logger})
	return srv
}

// Run listens on the configured address and serves until ctx is done.
func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve serves on lis until ctx is done, then stops gracefully.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := s.newServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	if err := srv.Serve(lis); err != nil {
		return err
	}
	return nil
}
