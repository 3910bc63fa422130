package signal

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/domain"
	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/observability"
	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/storage/memory"
)

func TestService_IngestPersistsSignal(t *testing.T) {
	ctx := context.Background()
	store := memory.NewSignalStore()
	m := observability.NewMetrics("test", prometheus.NewRegistry())
	svc, err := NewService(ServiceOptions{
		Strategy:    domain.DefaultStrategyConfig(),
		Eligibility: NewAddressSet("0xa"),
		Signals:     store,
		Metrics:     m,
	})
	require.NoError(t, err)

	sig, err := svc.Ingest(ctx, event("0xa", domain.SideLong, 100, t0))
	require.NoError(t, err)
	require.NotNil(t, sig)
	assert.NotEmpty(t, sig.ID)

	stored, err := store.GetByID(ctx, sig.ID)
	require.NoError(t, err)
	assert.Equal(t, sig.TraderAddresses, stored.TraderAddresses)

	// Debounced.
	sig, err = svc.Ingest(ctx, event("0xa", domain.SideLong, 100, t0+1))
	require.NoError(t, err)
	assert.Nil(t, sig)

	recent, err := svc.Recent(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, recent, 1)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.SignalsEmitted.WithLabelValues("long")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TradeEventsProcessed.WithLabelValues(ResultNoSignal)))
}

func TestService_IngestRejectsInvalidEvent(t *testing.T) {
	svc, err := NewService(ServiceOptions{
		Strategy:    domain.DefaultStrategyConfig(),
		Eligibility: NewAddressSet("0xa"),
		Signals:     memory.NewSignalStore(),
	})
	require.NoError(t, err)

	tests := []struct {
		name string
		ev   domain.TradeEvent
	}{
		{"empty address", event("", domain.SideLong, 100, t0)},
		{"zero price", event("0xa", domain.SideLong, 0, t0)},
		{"bad side", event("0xa", domain.Side("flat"), 100, t0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Ingest(context.Background(), tt.ev)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}
