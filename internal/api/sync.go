package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/ingestion"
)

func (s *Server) syncTraders(c *gin.Context) {
	if s.syncer == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "hyperliquid sync is not configured"})
		return
	}
	var req ingestion.SyncRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		badRequest(c, err)
		return
	}
	res, err := s.syncer.Sync(c.Request.Context(), req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
