// Package execution opens and closes follower positions for signals.
package execution

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/domain"
	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/storage"
)

// ErrUnsupportedVenue is returned for execution venues without a client.
var ErrUnsupportedVenue = errors.New("unsupported execution venue")

// Client kinds
const (
	KindSimulated   = "simulated"
	KindHyperliquid = "hyperliquid"
)

// Handle identifies an open position at the venue.
type Handle string

// OpenRequest describes a position to open.
type OpenRequest struct {
	Symbol       string
	Side         domain.Side
	Size         float64
	Price        float64
	SignalID     *string
	SourceTrader *string
	Timestamp    int64 // ms, 0 means now
}

// Client is the capability interface of an execution venue.
type Client interface {
	// OpenPosition opens a position and returns its handle.
	OpenPosition(ctx context.Context, req OpenRequest) (Handle, error)

	// ClosePosition settles the position at exitPrice.
	// Returns domain.ErrPositionClosed for an already closed position.
	ClosePosition(ctx context.Context, h Handle, exitPrice float64) (*domain.FollowerTrade, error)

	// OpenPositions lists open positions ordered by opened_at ASC.
	OpenPositions(ctx context.Context) ([]*domain.FollowerTrade, error)

	// Position returns the position behind h.
	Position(ctx context.Context, h Handle) (*domain.FollowerTrade, error)
}

// NewClient creates a client for kind. Real venue execution is not available.
func NewClient(kind string, trades storage.FollowerTradeStore) (Client, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", KindSimulated:
		return NewSimulatedClient(trades, nil), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedVenue, kind)
	}
}

// SimulatedClient records positions in the follower trade ledger.
type SimulatedClient struct {
	trades storage.FollowerTradeStore
	now    func() time.Time
}

// NewSimulatedClient creates a simulated client. now may be nil for time.Now.
func NewSimulatedClient(trades storage.FollowerTradeStore, now func() time.Time) *SimulatedClient {
	if now == nil {
		now = time.Now
	}
	return &SimulatedClient{trades: trades, now: now}
}

// OpenPosition implements Client.
func (c *SimulatedClient) OpenPosition(ctx context.Context, req OpenRequest) (Handle, error) {
	if req.Size <= 0 || req.Price <= 0 {
		return "", fmt.Errorf("%w: size and price must be positive", domain.ErrInvalidInput)
	}
	if !req.Side.IsValid() {
		return "", fmt.Errorf("%w: side %q", domain.ErrInvalidInput, req.Side)
	}
	openedAt := req.Timestamp
	if openedAt == 0 {
		openedAt = c.now().UnixMilli()
	}

	t := &domain.FollowerTrade{
		ID:                  uuid.NewString(),
		SignalID:            req.SignalID,
		Symbol:              req.Symbol,
		Side:                req.Side,
		Size:                req.Size,
		EntryPrice:          req.Price,
		OpenedAt:            openedAt,
		IsOpen:              true,
		SourceSignalID:      req.SignalID,
		SourceTraderAddress: req.SourceTrader,
	}
	if err := c.trades.Insert(ctx, t); err != nil {
		return "", fmt.Errorf("insert follower trade: %w", err)
	}
	return Handle(t.ID), nil
}

// ClosePosition implements Client.
func (c *SimulatedClient) ClosePosition(ctx context.Context, h Handle, exitPrice float64) (*domain.FollowerTrade, error) {
	if exitPrice <= 0 {
		return nil, fmt.Errorf("%w: exit price must be positive", domain.ErrInvalidInput)
	}
	return c.trades.Close(ctx, string(h), exitPrice, c.now().UnixMilli())
}

// OpenPositions implements Client.
func (c *SimulatedClient) OpenPositions(ctx context.Context) ([]*domain.FollowerTrade, error) {
	return c.trades.ListOpen(ctx)
}

// Position implements Client.
func (c *SimulatedClient) Position(ctx context.Context, h Handle) (*domain.FollowerTrade, error) {
	return c.trades.GetByID(ctx, string(h))
}

var _ Client = (*SimulatedClient)(nil)
