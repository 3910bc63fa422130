package hyperliquid

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/domain"
	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/idhash"
)

// Drop reasons reported by NormalizeFills.
const (
	DropMissingField = "missing_field"
	DropMalformed    = "malformed"
)

// Fill is a normalized venue fill.
type Fill struct {
	Coin      string
	Side      domain.Side
	Price     decimal.Decimal
	Size      decimal.Decimal
	Time      int64 // ms
	ClosedPnL decimal.Decimal
	FillID    string // tid, or tx hash when absent
	Raw       json.RawMessage
}

type rawFill struct {
	Coin      *string          `json:"coin"`
	Px        *decimal.Decimal `json:"px"`
	Sz        *decimal.Decimal `json:"sz"`
	Time      *int64           `json:"time"`
	Side      string           `json:"side"`
	Dir       string           `json:"dir"`
	ClosedPnl *decimal.Decimal `json:"closedPnl"`
	Tid       json.Number      `json:"tid"`
	Hash      string           `json:"hash"`
}

// ParseSide maps venue side or direction labels to a position side.
// Unrecognized labels map to long.
func ParseSide(raw string) domain.Side {
	switch strings.TrimSpace(raw) {
	case "B", "Buy", "Open Long", "Close Short":
		return domain.SideLong
	case "S", "A", "Sell", "Open Short", "Close Long":
		return domain.SideShort
	default:
		return domain.SideLong
	}
}

// NormalizeFills parses raw fill objects. Fills missing coin, px, sz or time
// are dropped, as are fills that fail to parse.
func NormalizeFills(raws []json.RawMessage) ([]Fill, map[string]int) {
	fills := make([]Fill, 0, len(raws))
	dropped := make(map[string]int)
	for _, raw := range raws {
		var rf rawFill
		if err := json.Unmarshal(raw, &rf); err != nil {
			dropped[DropMalformed]++
			continue
		}
		if rf.Coin == nil || *rf.Coin == "" || rf.Px == nil || rf.Sz == nil || rf.Time == nil {
			dropped[DropMissingField]++
			continue
		}

		sideRaw := rf.Side
		if sideRaw == "" {
			sideRaw = rf.Dir
		}
		f := Fill{
			Coin:   *rf.Coin,
			Side:   ParseSide(sideRaw),
			Price:  *rf.Px,
			Size:   rf.Sz.Abs(),
			Time:   *rf.Time,
			FillID: rf.Tid.String(),
			Raw:    append(json.RawMessage(nil), raw...),
		}
		if f.FillID == "" {
			f.FillID = rf.Hash
		}
		if rf.ClosedPnl != nil {
			f.ClosedPnL = *rf.ClosedPnl
		}
		fills = append(fills, f)
	}
	return fills, dropped
}

// Trade converts the fill into a trade row of traderID. Fills settle instantly:
// closed_at equals opened_at and the exit price stays unknown.
func (f Fill) Trade(traderID int64, address string) *domain.Trade {
	pnl := f.ClosedPnL.InexactFloat64()
	closedAt := f.Time
	return &domain.Trade{
		ID:          idhash.ComputeTradeID(address, f.Coin, f.Side, f.FillID, f.Time),
		TraderID:    traderID,
		Symbol:      f.Coin,
		Side:        f.Side,
		Size:        f.Size.InexactFloat64(),
		EntryPrice:  f.Price.InexactFloat64(),
		RealizedPnL: &pnl,
		OpenedAt:    f.Time,
		ClosedAt:    &closedAt,
		RawData:     f.Raw,
	}
}
