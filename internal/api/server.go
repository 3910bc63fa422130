// Package api exposes the copy-trading services over HTTP with gin.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/backtest"
	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/execution"
	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/ingestion"
	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/observability"
	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/risk"
	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/signal"
	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/storage"
	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/universe"
)

const shutdownTimeout = 10 * time.Second

// DefaultCORSOrigins are the local dashboard origins allowed by default.
var DefaultCORSOrigins = []string{"http://127.0.0.1:5173", "http://localhost:5173"}

// TraderSyncer imports venue history on demand.
type TraderSyncer interface {
	Sync(ctx context.Context, req ingestion.SyncRequest) (*ingestion.SyncResult, error)
}

// Server is the HTTP boundary of the service.
type Server struct {
	router *gin.Engine
	logger *zap.Logger

	traders   storage.TraderStore
	universe  *universe.Service
	signals   *signal.Service
	execution *execution.Service
	risk      *risk.Monitor
	backtests *backtest.Runner
	syncer    TraderSyncer

	readTimeout  time.Duration
	writeTimeout time.Duration
}

// Options for creating Server.
type Options struct {
	// Required
	Traders   storage.TraderStore
	Universe  *universe.Service
	Signals   *signal.Service
	Execution *execution.Service
	Risk      *risk.Monitor
	Backtests *backtest.Runner

	// Syncer backs POST /hyperliquid/sync-traders; nil answers 503.
	Syncer TraderSyncer

	// Gatherer backs GET /metrics; defaults to prometheus.DefaultGatherer
	Gatherer prometheus.Gatherer

	// CORSOrigins defaults to DefaultCORSOrigins
	CORSOrigins []string

	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	Logger *zap.Logger
}

// New creates the server and registers every route.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = DefaultCORSOrigins
	}

	router := gin.New()
	router.Use(ginzap.Ginzap(logger, time.RFC3339, true))
	router.Use(ginzap.RecoveryWithZap(logger, true))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	s := &Server{
		router:       router,
		logger:       logger,
		traders:      opts.Traders,
		universe:     opts.Universe,
		signals:      opts.Signals,
		execution:    opts.Execution,
		risk:         opts.Risk,
		backtests:    opts.Backtests,
		syncer:       opts.Syncer,
		readTimeout:  opts.ReadTimeout,
		writeTimeout: opts.WriteTimeout,
	}
	s.registerRoutes(gatherer)
	return s
}

// Router returns the gin engine, mainly for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) registerRoutes(gatherer prometheus.Gatherer) {
	r := s.router
	r.GET("/health", s.health)
	r.GET("/metrics", gin.WrapH(observability.Handler(gatherer)))

	traders := r.Group("/traders")
	{
		traders.POST("", s.createTrader)
		traders.GET("", s.listTraders)
		traders.POST("/:id/compute-metrics", s.computeTraderMetrics)
		traders.GET("/:id/metrics", s.getTraderMetrics)
	}

	uni := r.Group("/smart-universe")
	{
		uni.POST("/refresh", s.refreshUniverse)
		uni.GET("", s.listUniverse)
	}

	signals := r.Group("/signals")
	{
		signals.POST("/debug/trade-event", s.ingestTradeEvent)
		signals.GET("/recent", s.recentSignals)
		signals.POST("/:id/execute", s.executeSignal)
	}

	rk := r.Group("/risk")
	{
		rk.GET("/status", s.riskStatus)
		rk.GET("/events", s.riskEvents)
		rk.PUT("/config", s.updateRiskConfig)
		rk.POST("/force-liquidate", s.forceLiquidate)
	}

	bt := r.Group("/backtests")
	{
		bt.POST("", s.createBacktest)
		bt.GET("", s.listBacktests)
		bt.GET("/:id", s.getBacktest)
	}

	r.POST("/hyperliquid/sync-traders", s.syncTraders)
}

// Run serves on addr until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.readTimeout,
		WriteTimeout: s.writeTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("api server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen on %s: %w", addr, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.logger.Info("api server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
