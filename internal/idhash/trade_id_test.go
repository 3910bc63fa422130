package idhash

import (
	"testing"

	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/domain"
)

func TestComputeTradeID(t *testing.T) {
	tests := []struct {
		name      string
		address   string
		symbol    string
		side      domain.Side
		fillID    string
		timestamp int64
		wantLen   int // hash length should be 64
	}{
		{
			name:      "long fill",
			address:   "0x5b5d51203a0f9079f8aeb098a6523a13f298c060",
			symbol:    "BTC",
			side:      domain.SideLong,
			fillID:    "118906512037719",
			timestamp: 1704067234567,
			wantLen:   64,
		},
		{
			name:      "short fill without tid",
			address:   "0xabc",
			symbol:    "ETH",
			side:      domain.SideShort,
			fillID:    "0x0000000000000000000000000000000000000000000000000000000000000000",
			timestamp: 1704067300000,
			wantLen:   64,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeTradeID(tt.address, tt.symbol, tt.side, tt.fillID, tt.timestamp)

			if len(got) != tt.wantLen {
				t.Errorf("ComputeTradeID() length = %d, want %d", len(got), tt.wantLen)
			}

			// Verify determinism: same inputs should produce same output
			got2 := ComputeTradeID(tt.address, tt.symbol, tt.side, tt.fillID, tt.timestamp)
			if got != got2 {
				t.Errorf("ComputeTradeID() not deterministic: %s != %s", got, got2)
			}
		})
	}
}

func TestComputeTradeID_AddressCaseInsensitive(t *testing.T) {
	a := ComputeTradeID("0xABCdef", "BTC", domain.SideLong, "1", 1000)
	b := ComputeTradeID("0xabcdef", "BTC", domain.SideLong, "1", 1000)

	if a != b {
		t.Errorf("Address case should not change the ID: %s != %s", a, b)
	}
}

func TestComputeTradeID_DifferentInputs(t *testing.T) {
	base := ComputeTradeID("0xa", "BTC", domain.SideLong, "1", 1000)

	variants := map[string]string{
		"address":   ComputeTradeID("0xb", "BTC", domain.SideLong, "1", 1000),
		"symbol":    ComputeTradeID("0xa", "ETH", domain.SideLong, "1", 1000),
		"side":      ComputeTradeID("0xa", "BTC", domain.SideShort, "1", 1000),
		"fill id":   ComputeTradeID("0xa", "BTC", domain.SideLong, "2", 1000),
		"timestamp": ComputeTradeID("0xa", "BTC", domain.SideLong, "1", 1001),
	}
	for name, id := range variants {
		if id == base {
			t.Errorf("Changing %s should change the ID", name)
		}
	}
}
