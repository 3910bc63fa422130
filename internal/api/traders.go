package api

import (
	"math"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/domain"
)

const (
	defaultPageLimit = 50
	maxPageLimit     = 200
	defaultTopN      = 20
)

type createTraderRequest struct {
	Address string `json:"address" binding:"required"`
}

type traderListResponse struct {
	Total int              `json:"total"`
	Items []*domain.Trader `json:"items"`
}

// traderMetricsResponse flattens the profile next to the selection outcome.
type traderMetricsResponse struct {
	TraderID   int64  `json:"trader_id"`
	Address    string `json:"address"`
	WindowDays int    `json:"window_days"`
	domain.TraderProfile
	Score     float64 `json:"score"`
	Eligible  bool    `json:"eligible"`
	UpdatedAt int64   `json:"updated_at"`
}

func newTraderMetricsResponse(e *domain.UniverseEntry) traderMetricsResponse {
	return traderMetricsResponse{
		TraderID:      e.TraderID,
		Address:       e.Address,
		WindowDays:    e.WindowDays,
		TraderProfile: e.Profile,
		Score:         e.Score,
		Eligible:      e.Eligible,
		UpdatedAt:     e.UpdatedAt,
	}
}

type universeListResponse struct {
	WindowDays int                     `json:"window_days"`
	Total      int                     `json:"total"`
	Items      []*domain.UniverseEntry `json:"items"`
}

func (s *Server) createTrader(c *gin.Context) {
	var req createTraderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	trader, created, err := s.traders.GetOrCreate(c.Request.Context(), req.Address)
	if err != nil {
		s.respondError(c, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, trader)
}

func (s *Server) listTraders(c *gin.Context) {
	skip, err := queryInt(c, "skip", 0, 0, math.MaxInt32)
	if err != nil {
		badRequest(c, err)
		return
	}
	limit, err := queryInt(c, "limit", defaultPageLimit, 1, maxPageLimit)
	if err != nil {
		badRequest(c, err)
		return
	}

	ctx := c.Request.Context()
	total, err := s.traders.Count(ctx)
	if err != nil {
		s.respondError(c, err)
		return
	}
	items, err := s.traders.List(ctx, limit, skip)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if items == nil {
		items = []*domain.Trader{}
	}
	c.JSON(http.StatusOK, traderListResponse{Total: total, Items: items})
}

func (s *Server) windowDays(c *gin.Context) (int, error) {
	return queryInt(c, "window_days", s.universe.SelectionConfig().WindowDays, 1, 3650)
}

// computeTraderMetrics recomputes and persists one trader's universe entry.
func (s *Server) computeTraderMetrics(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	window, err := s.windowDays(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	entry, err := s.universe.RefreshTrader(c.Request.Context(), id, window)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newTraderMetricsResponse(entry))
}

func (s *Server) getTraderMetrics(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	window, err := s.windowDays(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	entry, err := s.universe.Entry(c.Request.Context(), id, window)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newTraderMetricsResponse(entry))
}

func (s *Server) refreshUniverse(c *gin.Context) {
	window, err := s.windowDays(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	topN, err := queryInt(c, "top_n", defaultTopN, 0, maxPageLimit)
	if err != nil {
		badRequest(c, err)
		return
	}
	summary, err := s.universe.RefreshAll(c.Request.Context(), window, topN)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (s *Server) listUniverse(c *gin.Context) {
	var (
		f   domain.UniverseFilter
		err error
	)
	if f.WindowDays, err = s.windowDays(c); err != nil {
		badRequest(c, err)
		return
	}
	if f.MinScore, err = queryFloat(c, "min_score"); err != nil {
		badRequest(c, err)
		return
	}
	if f.MinPayoffRatio, err = queryFloat(c, "min_payoff_ratio"); err != nil {
		badRequest(c, err)
		return
	}
	if f.MinTradesPerDay, err = queryFloat(c, "min_trades_per_day"); err != nil {
		badRequest(c, err)
		return
	}
	if f.EligibleOnly, err = queryBool(c, "eligible_only"); err != nil {
		badRequest(c, err)
		return
	}
	if f.Limit, err = queryInt(c, "limit", 0, 0, math.MaxInt32); err != nil {
		badRequest(c, err)
		return
	}

	items, err := s.universe.List(c.Request.Context(), f)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if items == nil {
		items = []*domain.UniverseEntry{}
	}
	c.JSON(http.StatusOK, universeListResponse{WindowDays: f.WindowDays, Total: len(items), Items: items})
}
