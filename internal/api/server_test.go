package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/backtest"
	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/domain"
	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/execution"
	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/ingestion"
	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/observability"
	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/risk"
	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/signal"
	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/storage"
	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/storage/memory"
	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/universe"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeSyncer struct {
	got ingestion.SyncRequest
	err error
}

func (f *fakeSyncer) Sync(_ context.Context, req ingestion.SyncRequest) (*ingestion.SyncResult, error) {
	f.got = req
	if f.err != nil {
		return nil, f.err
	}
	return &ingestion.SyncResult{TradersSynced: len(req.Addresses), TradesInserted: 3, Source: ingestion.SourceRequest}, nil
}

type fixture struct {
	router *gin.Engine
	stores *storage.Stores
}

func newFixture(t *testing.T, syncer TraderSyncer) *fixture {
	t.Helper()
	stores := memory.NewStores()
	now := func() time.Time { return testNow }
	reg := prometheus.NewRegistry()
	m := observability.NewMetrics("api_test", reg)

	uni := universe.New(universe.Options{
		Traders:  stores.Traders,
		Trades:   stores.Trades,
		Universe: stores.Universe,
		Metrics:  m,
		Now:      now,
	})
	sigs, err := signal.NewService(signal.ServiceOptions{
		Strategy:    domain.DefaultStrategyConfig(),
		Eligibility: signal.NewAddressSet("0xa", "0xb"),
		Signals:     stores.Signals,
		Metrics:     m,
	})
	require.NoError(t, err)
	exec := execution.NewService(execution.ServiceOptions{
		Client:  execution.NewSimulatedClient(stores.FollowerTrades, now),
		Signals: stores.Signals,
		Metrics: m,
		Now:     now,
	})
	monitor := risk.NewMonitor(risk.Options{
		Configs:        stores.RiskConfigs,
		Events:         stores.RiskEvents,
		FollowerTrades: stores.FollowerTrades,
		Metrics:        m,
		Now:            now,
	})
	runner := backtest.NewRunner(backtest.Options{
		Trades:   stores.Trades,
		Universe: stores.Universe,
		Runs:     stores.BacktestRuns,
		Metrics:  m,
		Now:      now,
	})

	opts := Options{
		Traders:   stores.Traders,
		Universe:  uni,
		Signals:   sigs,
		Execution: exec,
		Risk:      monitor,
		Backtests: runner,
		Gatherer:  reg,
	}
	if syncer != nil {
		opts.Syncer = syncer
	}
	return &fixture{router: New(opts).Router(), stores: stores}
}

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func (f *fixture) seedTrades(t *testing.T, traderID int64, pnls ...float64) {
	t.Helper()
	trades := make([]*domain.Trade, 0, len(pnls))
	for i, pnl := range pnls {
		pnl := pnl
		opened := testNow.Add(-time.Duration(len(pnls)-i) * 24 * time.Hour).UnixMilli()
		closed := opened + 60_000
		trades = append(trades, &domain.Trade{
			ID:          "t-" + string(rune('a'+i)),
			TraderID:    traderID,
			Symbol:      "BTC",
			Side:        domain.SideLong,
			Size:        1,
			EntryPrice:  100,
			RealizedPnL: &pnl,
			OpenedAt:    opened,
			ClosedAt:    &closed,
		})
	}
	require.NoError(t, f.stores.Trades.InsertBulk(context.Background(), trades))
}

func TestHealth(t *testing.T) {
	f := newFixture(t, nil)

	w := f.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t, nil)
	f.do(t, http.MethodGet, "/risk/status", nil)

	w := f.do(t, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "api_test_")
}

func TestTraders_CreateAndList(t *testing.T) {
	f := newFixture(t, nil)

	w := f.do(t, http.MethodPost, "/traders", gin.H{"address": "0xa"})
	require.Equal(t, http.StatusCreated, w.Code)
	created := decode[domain.Trader](t, w)
	assert.Equal(t, "0xa", created.Address)

	w = f.do(t, http.MethodPost, "/traders", gin.H{"address": "0xa"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, created.ID, decode[domain.Trader](t, w).ID)

	f.do(t, http.MethodPost, "/traders", gin.H{"address": "0xb"})

	w = f.do(t, http.MethodGet, "/traders?skip=1&limit=10", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[traderListResponse](t, w)
	assert.Equal(t, 2, list.Total)
	require.Len(t, list.Items, 1)
	assert.Equal(t, "0xb", list.Items[0].Address)
}

func TestTraders_Validation(t *testing.T) {
	f := newFixture(t, nil)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"missing address", http.MethodPost, "/traders", gin.H{}, http.StatusBadRequest},
		{"limit above max", http.MethodGet, "/traders?limit=500", nil, http.StatusBadRequest},
		{"negative skip", http.MethodGet, "/traders?skip=-1", nil, http.StatusBadRequest},
		{"non numeric id", http.MethodPost, "/traders/abc/compute-metrics", nil, http.StatusBadRequest},
		{"unknown trader", http.MethodPost, "/traders/99/compute-metrics", nil, http.StatusNotFound},
		{"zero window", http.MethodGet, "/traders/1/metrics?window_days=0", nil, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
}

func TestTraderMetrics_ComputeThenGet(t *testing.T) {
	f := newFixture(t, nil)
	trader := decode[domain.Trader](t, f.do(t, http.MethodPost, "/traders", gin.H{"address": "0xa"}))
	path := "/traders/" + strconv.FormatInt(trader.ID, 10)

	w := f.do(t, http.MethodGet, path+"/metrics", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	f.seedTrades(t, trader.ID, 5, -2, 3)

	w = f.do(t, http.MethodPost, path+"/compute-metrics?window_days=30", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	computed := decode[traderMetricsResponse](t, w)
	assert.Equal(t, 3, computed.NumTrades)
	assert.Equal(t, 30, computed.WindowDays)
	assert.InDelta(t, 6.0, computed.PnL, 1e-9)

	var flat map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &flat))
	assert.Contains(t, flat, "payoff_ratio")
	assert.Contains(t, flat, "eligible")

	w = f.do(t, http.MethodGet, path+"/metrics?window_days=30", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, computed, decode[traderMetricsResponse](t, w))
}

func TestSmartUniverse_RefreshAndList(t *testing.T) {
	f := newFixture(t, nil)
	trader := decode[domain.Trader](t, f.do(t, http.MethodPost, "/traders", gin.H{"address": "0xa"}))
	f.seedTrades(t, trader.ID, 5, -2, 3)

	w := f.do(t, http.MethodPost, "/smart-universe/refresh?window_days=30", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	summary := decode[domain.RefreshSummary](t, w)
	assert.Equal(t, 1, summary.TotalTraders)

	w = f.do(t, http.MethodGet, "/smart-universe?window_days=30", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[universeListResponse](t, w)
	require.Len(t, list.Items, 1)
	assert.Equal(t, "0xa", list.Items[0].Address)

	w = f.do(t, http.MethodGet, "/smart-universe?window_days=30&min_score=1000000", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[universeListResponse](t, w).Items)

	w = f.do(t, http.MethodGet, "/smart-universe?min_payoff_ratio=abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func tradeEvent(addr string, price float64, ts int64) domain.TradeEvent {
	return domain.TradeEvent{
		TraderAddress: addr,
		Symbol:        "BTC",
		Side:          domain.SideLong,
		Price:         price,
		Size:          1,
		Timestamp:     ts,
	}
}

func TestSignals_IngestExecuteAndLiquidate(t *testing.T) {
	f := newFixture(t, nil)
	ts := testNow.UnixMilli()

	w := f.do(t, http.MethodPost, "/signals/debug/trade-event", tradeEvent("0xnobody", 100, ts))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "null", strings.TrimSpace(w.Body.String()))

	w = f.do(t, http.MethodPost, "/signals/debug/trade-event", tradeEvent("0xa", 0, ts))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPost, "/signals/debug/trade-event", tradeEvent("0xa", 100, ts))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	sig := decode[domain.Signal](t, w)
	require.NotEmpty(t, sig.ID)
	assert.Equal(t, []string{"0xa"}, sig.TraderAddresses)

	w = f.do(t, http.MethodGet, "/signals/recent?limit=10", nil)
	require.Equal(t, http.StatusOK, w.Code)
	recent := decode[[]domain.Signal](t, w)
	require.Len(t, recent, 1)
	assert.Equal(t, sig.ID, recent[0].ID)

	w = f.do(t, http.MethodPost, "/signals/"+sig.ID+"/execute", gin.H{"size": 2})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	pos := decode[domain.FollowerTrade](t, w)
	assert.True(t, pos.IsOpen)
	assert.Equal(t, 2.0, pos.Size)
	assert.InDelta(t, 100.0, pos.EntryPrice, 1e-9)

	w = f.do(t, http.MethodPost, "/signals/"+sig.ID+"/execute", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = f.do(t, http.MethodPost, "/signals/missing/execute", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(t, http.MethodPost, "/risk/force-liquidate", gin.H{"prices": gin.H{"BTC": 110}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res := decode[forceLiquidateResponse](t, w)
	assert.Equal(t, 1, res.ClosedTradesCount)
	require.Len(t, res.Trades, 1)
	require.NotNil(t, res.Trades[0].PnL)
	assert.InDelta(t, 20.0, *res.Trades[0].PnL, 1e-9)

	w = f.do(t, http.MethodGet, "/risk/status", nil)
	require.Equal(t, http.StatusOK, w.Code)
	state := decode[domain.RiskState](t, w)
	assert.Equal(t, 1, state.ClosedTrades)
	assert.InDelta(t, risk.DefaultInitialEquity+20, state.CurrentEquity, 1e-9)

	w = f.do(t, http.MethodPost, "/risk/force-liquidate", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, decode[forceLiquidateResponse](t, w).ClosedTradesCount)
}

func TestSignals_RecentLimitBounds(t *testing.T) {
	f := newFixture(t, nil)

	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/signals/recent?limit=0", nil).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/signals/recent?limit=201", nil).Code)

	w := f.do(t, http.MethodGet, "/signals/recent", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestRisk_UpdateConfigAndEvents(t *testing.T) {
	f := newFixture(t, nil)

	w := f.do(t, http.MethodPut, "/risk/config", gin.H{"max_drawdown_pct": 0.2})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.InDelta(t, 0.2, decode[domain.RiskConfig](t, w).MaxDrawdownPct, 1e-9)

	w = f.do(t, http.MethodPut, "/risk/config", gin.H{"max_drawdown_pct": 1.5})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodGet, "/risk/events", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestBacktests(t *testing.T) {
	f := newFixture(t, nil)

	w := f.do(t, http.MethodPost, "/backtests", gin.H{"start_date": "2025-05-10", "end_date": "2025-05-01"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPost, "/backtests", gin.H{"name": "empty", "start_date": "2025-05-01", "end_date": "2025-05-31"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	run := decode[domain.BacktestRun](t, w)
	assert.Equal(t, "empty", run.Name)
	assert.Zero(t, run.TotalPnL)

	w = f.do(t, http.MethodGet, "/backtests/"+run.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, run.ID, decode[domain.BacktestRun](t, w).ID)

	w = f.do(t, http.MethodGet, "/backtests/does-not-exist", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(t, http.MethodGet, "/backtests?limit=5", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[backtestListResponse](t, w)
	require.Len(t, list.Items, 1)
	assert.Equal(t, 5, list.Limit)
}

func TestBacktests_PartialConfig(t *testing.T) {
	f := newFixture(t, nil)

	w := f.do(t, http.MethodPost, "/backtests", gin.H{
		"start_date": "2025-05-01",
		"end_date":   "2025-05-31",
		"strategy":   gin.H{"min_smart_traders": 2},
		"execution":  gin.H{"fee_rate_bps": 10},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	run := decode[domain.BacktestRun](t, w)

	assert.Equal(t, 2, run.Params.Strategy.MinSmartTraders)
	assert.Equal(t, domain.DefaultStrategyConfig().TimeWindowSeconds, run.Params.Strategy.TimeWindowSeconds)
	assert.Equal(t, 10.0, run.Params.Execution.FeeRateBps)
	assert.Equal(t, domain.DefaultExecutionConfig().InitialEquity, run.Params.Execution.InitialEquity)
}

func TestSyncTraders(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		f := newFixture(t, nil)
		w := f.do(t, http.MethodPost, "/hyperliquid/sync-traders", nil)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})

	t.Run("passes request through", func(t *testing.T) {
		syncer := &fakeSyncer{}
		f := newFixture(t, syncer)
		w := f.do(t, http.MethodPost, "/hyperliquid/sync-traders", gin.H{"addresses": []string{"0x1", "0x2"}, "window_days": 7})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		res := decode[ingestion.SyncResult](t, w)
		assert.Equal(t, 2, res.TradersSynced)
		assert.Equal(t, 3, res.TradesInserted)
		assert.Equal(t, 7, syncer.got.WindowDays)
	})

	t.Run("invalid request", func(t *testing.T) {
		f := newFixture(t, &fakeSyncer{err: domain.ErrInvalidInput})
		w := f.do(t, http.MethodPost, "/hyperliquid/sync-traders", gin.H{"window_days": -1})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{storage.ErrNotFound, http.StatusNotFound},
		{domain.ErrInvalidInput, http.StatusBadRequest},
		{domain.ErrSignalExecuted, http.StatusConflict},
		{domain.ErrPositionClosed, http.StatusConflict},
		{storage.ErrDuplicateKey, http.StatusConflict},
		{execution.ErrUnsupportedVenue, http.StatusNotImplemented},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}

func TestCORSPreflight(t *testing.T) {
	f := newFixture(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/signals/recent", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
}
