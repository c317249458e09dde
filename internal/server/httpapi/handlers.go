package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/rostersync/internal/common"
	"github.com/dmitrijs2005/rostersync/internal/lock"
	"github.com/gin-gonic/gin"
)

// runSync handles POST /sync?tag_id=N. An absent tag_id uses the default
// tag. The body is the sync result; a failed fetch still returns it, with
// status 502.
func (s *HTTPServer) runSync(c *gin.Context) {
	var tagID int64
	if raw := c.Query("tag_id"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || v <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "tag_id must be a positive integer"})
			return
		}
		tagID = v
	}

	res, err := s.service.Run(c.Request.Context(), tagID)
	if err != nil {
		s.logger.Error(c.Request.Context(), err.Error(), "request_id", c.GetString(common.RequestIDHeaderName))
		code := statusFor(err)
		if res != nil {
			c.JSON(code, res)
			return
		}
		c.JSON(code, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *HTTPServer) lastSync(c *gin.Context) {
	mark, err := s.service.LastSync(c.Request.Context())
	if errors.Is(err, common.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "no completed sync"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	mark.CompletedAt = mark.CompletedAt.UTC()
	c.JSON(http.StatusOK, mark)
}

func (s *HTTPServer) roster(c *gin.Context) {
	entries, err := s.service.Roster(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(entries), "entries": entries})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, common.ErrInvalidTag):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrSyncInProgress), errors.Is(err, lock.ErrLeaseLost):
		return http.StatusConflict
	case errors.Is(err, common.ErrFetchFailed):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
