package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/domain"
)

const defaultLiquidationReason = "manual force liquidation"

type updateRiskConfigRequest struct {
	MaxDrawdownPct           float64  `json:"max_drawdown_pct" binding:"required"`
	MaxLeveragePerSymbol     *float64 `json:"max_leverage_per_symbol"`
	MaxPositionSizePerSymbol *float64 `json:"max_position_size_per_symbol"`
}

// forceLiquidateRequest is optional; without prices exits are synthesized.
type forceLiquidateRequest struct {
	Prices map[string]float64 `json:"prices"`
	Reason string             `json:"reason"`
}

type forceLiquidateResponse struct {
	ClosedTradesCount int                     `json:"closed_trades_count"`
	Trades            []*domain.FollowerTrade `json:"trades"`
}

func (s *Server) riskStatus(c *gin.Context) {
	state, err := s.risk.Status(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

func (s *Server) riskEvents(c *gin.Context) {
	limit, err := queryInt(c, "limit", defaultPageLimit, 1, maxPageLimit)
	if err != nil {
		badRequest(c, err)
		return
	}
	events, err := s.risk.Events(c.Request.Context(), limit)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if events == nil {
		events = []*domain.RiskEvent{}
	}
	c.JSON(http.StatusOK, events)
}

func (s *Server) updateRiskConfig(c *gin.Context) {
	var req updateRiskConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	cfg, err := s.risk.UpdateConfig(c.Request.Context(), req.MaxDrawdownPct, req.MaxLeveragePerSymbol, req.MaxPositionSizePerSymbol)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}

func (s *Server) forceLiquidate(c *gin.Context) {
	var req forceLiquidateRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		badRequest(c, err)
		return
	}
	if req.Reason == "" {
		req.Reason = defaultLiquidationReason
	}
	closed, err := s.execution.CloseAll(c.Request.Context(), req.Prices, req.Reason)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, forceLiquidateResponse{ClosedTradesCount: len(closed), Trades: closed})
}
