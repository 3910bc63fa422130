package api

import (
	"math"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/domain"
)

type backtestListResponse struct {
	Skip  int                   `json:"skip"`
	Limit int                   `json:"limit"`
	Items []*domain.BacktestRun `json:"items"`
}

func (s *Server) createBacktest(c *gin.Context) {
	var req domain.BacktestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	run, err := s.backtests.Run(c.Request.Context(), req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, run)
}

func (s *Server) listBacktests(c *gin.Context) {
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
	runs, err := s.backtests.List(c.Request.Context(), limit, skip)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if runs == nil {
		runs = []*domain.BacktestRun{}
	}
	c.JSON(http.StatusOK, backtestListResponse{Skip: skip, Limit: limit, Items: runs})
}

func (s *Server) getBacktest(c *gin.Context) {
	run, err := s.backtests.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, run)
}
