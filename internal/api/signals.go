package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/domain"
)

type executeSignalRequest struct {
	Size *float64 `json:"size"`
}

// ingestTradeEvent feeds one event to the live engine. The body is the
// emitted signal, or null when the event produced none.
func (s *Server) ingestTradeEvent(c *gin.Context) {
	var ev domain.TradeEvent
	if err := c.ShouldBindJSON(&ev); err != nil {
		badRequest(c, err)
		return
	}
	sig, err := s.signals.Ingest(c.Request.Context(), ev)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sig)
}

func (s *Server) recentSignals(c *gin.Context) {
	limit, err := queryInt(c, "limit", defaultPageLimit, 1, maxPageLimit)
	if err != nil {
		badRequest(c, err)
		return
	}
	items, err := s.signals.Recent(c.Request.Context(), limit)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if items == nil {
		items = []*domain.Signal{}
	}
	c.JSON(http.StatusOK, items)
}

func (s *Server) executeSignal(c *gin.Context) {
	var req executeSignalRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		badRequest(c, err)
		return
	}
	pos, err := s.execution.ExecuteSignal(c.Request.Context(), c.Param("id"), req.Size)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, pos)
}
