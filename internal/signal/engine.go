// Package signal aggregates trade events from smart traders into
// directional signals.
//
// An Engine keeps a sliding window of recent events per (symbol, side)
// and the last emission time per key. Engines share no state, so a live
// engine and any number of backtest engines can run side by side.
//
// Events must be processed in non-decreasing timestamp order per engine.
// Out-of-order events are not rejected; their eviction and debounce
// behaviour is undefined.
package signal

import (
	"context"
	"fmt"
	"sort"

	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/domain"
)

// EligibilityChecker reports whether an address is currently in the smart universe.
type EligibilityChecker interface {
	IsEligible(ctx context.Context, address string) (bool, error)
}

// AddressSet is a fixed EligibilityChecker.
type AddressSet map[string]struct{}

// NewAddressSet builds an AddressSet from addresses.
func NewAddressSet(addresses ...string) AddressSet {
	set := make(AddressSet, len(addresses))
	for _, a := range addresses {
		set[a] = struct{}{}
	}
	return set
}

// IsEligible implements EligibilityChecker.
func (s AddressSet) IsEligible(_ context.Context, address string) (bool, error) {
	_, ok := s[address]
	return ok, nil
}

type bufferKey struct {
	symbol string
	side   domain.Side
}

// Engine is a single-owner signal aggregation state machine.
// It is not safe for concurrent use.
type Engine struct {
	cfg      domain.StrategyConfig
	eligible EligibilityChecker

	buffers    map[bufferKey][]domain.TradeEvent
	lastSignal map[bufferKey]int64
}

// NewEngine creates an Engine with empty state.
func NewEngine(cfg domain.StrategyConfig, eligible EligibilityChecker) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if eligible == nil {
		return nil, fmt.Errorf("%w: eligibility checker is required", domain.ErrInvalidInput)
	}
	return &Engine{
		cfg:        cfg,
		eligible:   eligible,
		buffers:    make(map[bufferKey][]domain.TradeEvent),
		lastSignal: make(map[bufferKey]int64),
	}, nil
}

// Clone returns an engine with the same configuration and fresh state.
// A nil eligible keeps the original checker.
func (e *Engine) Clone(eligible EligibilityChecker) *Engine {
	if eligible == nil {
		eligible = e.eligible
	}
	return &Engine{
		cfg:        e.cfg,
		eligible:   eligible,
		buffers:    make(map[bufferKey][]domain.TradeEvent),
		lastSignal: make(map[bufferKey]int64),
	}
}

// Config returns the engine's strategy configuration.
func (e *Engine) Config() domain.StrategyConfig {
	return e.cfg
}

// Process feeds one event through the engine. It returns the emitted signal,
// or nil when the event is ignored, below threshold or debounced.
// The returned signal has no ID.
func (e *Engine) Process(ctx context.Context, ev domain.TradeEvent) (*domain.Signal, error) {
	ok, err := e.eligible.IsEligible(ctx, ev.TraderAddress)
	if err != nil {
		return nil, fmt.Errorf("check eligibility of %s: %w", ev.TraderAddress, err)
	}
	if !ok {
		return nil, nil
	}

	key := bufferKey{symbol: ev.Symbol, side: ev.Side}
	buf := e.evict(append(e.buffers[key], ev), ev.Timestamp-e.cfg.TimeWindowMs())
	e.buffers[key] = buf

	lo, hi := Band(ev.Price, e.cfg)
	addresses := clusterAddresses(buf, ev, lo, hi)
	if len(addresses) < e.cfg.MinSmartTraders {
		return nil, nil
	}

	if last, seen := e.lastSignal[key]; seen && ev.Timestamp-last < e.cfg.MinSignalIntervalMs() {
		return nil, nil
	}
	e.lastSignal[key] = ev.Timestamp

	return &domain.Signal{
		Symbol:           ev.Symbol,
		Side:             ev.Side,
		PriceRangeMin:    lo,
		PriceRangeMax:    hi,
		SmartTraderCount: len(addresses),
		TraderAddresses:  addresses,
		SignalStrength:   float64(len(addresses)),
		CreatedAt:        ev.Timestamp,
	}, nil
}

// evict drops events older than cutoff from the front of buf.
func (e *Engine) evict(buf []domain.TradeEvent, cutoff int64) []domain.TradeEvent {
	i := 0
	for i < len(buf) && buf[i].Timestamp < cutoff {
		i++
	}
	if i == 0 {
		return buf
	}
	kept := make([]domain.TradeEvent, len(buf)-i)
	copy(kept, buf[i:])
	return kept
}

// clusterAddresses returns the sorted distinct addresses in buf whose price
// lies within [lo, hi] on the event's symbol and side.
func clusterAddresses(buf []domain.TradeEvent, ev domain.TradeEvent, lo, hi float64) []string {
	seen := make(map[string]struct{})
	for _, b := range buf {
		if b.Symbol != ev.Symbol || b.Side != ev.Side {
			continue
		}
		if b.Price < lo || b.Price > hi {
			continue
		}
		seen[b.TraderAddress] = struct{}{}
	}
	addresses := make([]string, 0, len(seen))
	for a := range seen {
		addresses = append(addresses, a)
	}
	sort.Strings(addresses)
	return addresses
}

// Band returns the price band centred on price.
// Pct width wins over abs width; with neither the band is the price itself.
func Band(price float64, cfg domain.StrategyConfig) (lo, hi float64) {
	switch {
	case cfg.PriceRangeWidthPct != nil:
		half := price * *cfg.PriceRangeWidthPct / 2
		return price - half, price + half
	case cfg.PriceRangeWidthAbs != nil:
		half := *cfg.PriceRangeWidthAbs / 2
		return price - half, price + half
	default:
		return price, price
	}
}
