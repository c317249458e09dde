// Package httpapi exposes the sync trigger and the cached roster over HTTP.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/rostersync/internal/common"
	"github.com/dmitrijs2005/rostersync/internal/logging"
	"github.com/dmitrijs2005/rostersync/internal/models"
	"github.com/dmitrijs2005/rostersync/internal/trigger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Service is the trigger the handlers delegate to.
type Service interface {
	Run(ctx context.Context, tagID int64) (*models.SyncResult, error)
	LastSync(ctx context.Context) (models.SyncMark, error)
	Roster(ctx context.Context) ([]trigger.RosterEntry, error)
}

type HTTPServer struct {
	address string
	service Service
	logger  logging.Logger
}

func NewHTTPServer(address string, svc Service, l logging.Logger) *HTTPServer {
	return &HTTPServer{
		address: address,
		service: svc,
		logger:  l.With("module", "http_server"),
	}
}

// Handler builds the gin engine with all routes.
func (s *HTTPServer) Handler() http.Handler {
	r := gin.New()
	r.Use(s.requestID, s.accessLog, gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.POST("/sync", s.runSync)
	r.GET("/sync/last", s.lastSync)
	r.GET("/roster", s.roster)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
	})
	return r
}

// Run listens on the configured address until ctx is done, then shuts down.
func (s *HTTPServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())
	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *HTTPServer) requestID(c *gin.Context) {
	id := c.GetHeader(common.RequestIDHeaderName)
	if id == "" {
		id = uuid.NewString()
	}
	c.Set(common.RequestIDHeaderName, id)
	c.Header(common.RequestIDHeaderName, id)
	c.Next()
}

func (s *HTTPServer) accessLog(c *gin.Context) {
	start := time.Now()
	c.Next()
	s.logger.Info(c.Request.Context(), "http request",
		"method", c.Request.Method,
		"path", c.FullPath(),
		"status", c.Writer.Status(),
		"request_id", c.GetString(common.RequestIDHeaderName),
		"duration", time.Since(start).String(),
	)
}
