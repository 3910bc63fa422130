package ingestion

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/domain"
	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/hyperliquid"
)

func TestRunner_SyncsUntilCancelled(t *testing.T) {
	fills := map[string][]hyperliquid.Fill{
		"0xa": {fill("BTC", domain.SideLong, 100, 1, 1, "1")},
	}
	s, _ := newSyncer(t, fills, nil)

	var mu sync.Mutex
	var results []*SyncResult
	ctx, cancel := context.WithCancel(context.Background())

	runner := NewRunner(RunnerOptions{
		Syncer:   s,
		Request:  SyncRequest{Addresses: []string{"0xa"}},
		Interval: 5 * time.Millisecond,
		OnResult: func(res *SyncResult, err error) {
			if err != nil {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			results = append(results, res)
			if len(results) == 2 {
				cancel()
			}
		},
	})

	done := make(chan error, 1)
	go func() { done <- runner.Run(ctx) }()

	select {
	case err := <-done:
		require.True(t, errors.Is(err, context.Canceled))
	case <-time.After(5 * time.Second):
		t.Fatal("runner did not stop")
	}

	mu.Lock()
	defer mu.Unlock()
	require.GreaterOrEqual(t, len(results), 2)
	assert.Equal(t, 1, results[0].TradesInserted)
	assert.Zero(t, results[1].TradesInserted)
}

func TestNewRunner_Defaults(t *testing.T) {
	r := NewRunner(RunnerOptions{})
	assert.Equal(t, defaultSyncInterval, r.interval)
	assert.NotNil(t, r.logger)
}
