package stub

import (
	"context"
	"errors"
	"sync"

	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/hyperliquid"
)

// ErrUnavailable is returned by stubs configured to fail.
var ErrUnavailable = errors.New("stub source unavailable")

// StubFillSource returns fixed in-memory fills per address for testing.
// Fills can be intentionally unordered to test sorting.
// Implements ingestion.FillSource interface.
type StubFillSource struct {
	mu     sync.Mutex
	fills  map[string][]hyperliquid.Fill
	failed map[string]bool
	calls  []string
}

// NewStubFillSource creates a new stub fill source keyed by address.
func NewStubFillSource(fills map[string][]hyperliquid.Fill) *StubFillSource {
	if fills == nil {
		fills = make(map[string][]hyperliquid.Fill)
	}
	return &StubFillSource{fills: fills, failed: make(map[string]bool)}
}

// Fail makes every fetch for address return ErrUnavailable.
func (s *StubFillSource) Fail(address string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failed[address] = true
}

// Calls returns the addresses fetched so far, in order.
func (s *StubFillSource) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

// UserFillsByTime returns fills of address with time in [startMs, endMs].
func (s *StubFillSource) UserFillsByTime(_ context.Context, address string, startMs, endMs int64) ([]hyperliquid.Fill, map[string]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, address)
	if s.failed[address] {
		return nil, nil, ErrUnavailable
	}
	var result []hyperliquid.Fill
	for _, f := range s.fills[address] {
		if f.Time >= startMs && f.Time <= endMs {
			result = append(result, f)
		}
	}
	return result, map[string]int{}, nil
}

// StubCandidateSource returns a fixed leaderboard for testing.
// Implements ingestion.CandidateSource interface.
type StubCandidateSource struct {
	rows []hyperliquid.LeaderboardRow
	err  error
}

// NewStubCandidateSource creates a stub leaderboard. A non-nil err is returned on every call.
func NewStubCandidateSource(rows []hyperliquid.LeaderboardRow, err error) *StubCandidateSource {
	return &StubCandidateSource{rows: rows, err: err}
}

// Leaderboard returns up to limit rows.
func (s *StubCandidateSource) Leaderboard(_ context.Context, _ string, limit int) ([]hyperliquid.LeaderboardRow, error) {
	if s.err != nil {
		return nil, s.err
	}
	rows := append([]hyperliquid.LeaderboardRow(nil), s.rows...)
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}
