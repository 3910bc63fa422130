package hyperliquid

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// LeaderboardRow is one candidate trader from the leaderboard.
type LeaderboardRow struct {
	Address   string          `json:"address"`
	PnL       decimal.Decimal `json:"pnl"`
	NumTrades int64           `json:"num_trades"`
}

type leaderboardRequest struct {
	Type   string `json:"type"`
	Window string `json:"window"`
}

type rawLeaderboardRow struct {
	User       string              `json:"user"`
	Address    string              `json:"address"`
	EthAddress string              `json:"ethAddress"`
	PnL        decimal.NullDecimal `json:"pnl"`
	NumTrades  json.Number         `json:"numTrades"`
}

// Leaderboard fetches leaderboard candidates for window (e.g. "30d").
// The response may be a bare list or wrapped in leaderboardRows; rows without
// an address are skipped. limit <= 0 means all rows.
func (c *Client) Leaderboard(ctx context.Context, window string, limit int) ([]LeaderboardRow, error) {
	if window == "" {
		window = "30d"
	}
	var raw json.RawMessage
	if err := c.info(ctx, "leaderboard", leaderboardRequest{Type: "leaderboard", Window: window}, &raw); err != nil {
		return nil, err
	}

	rows, err := decodeLeaderboard(raw)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("leaderboard fetched", zap.Int("rows", len(rows)))
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

func decodeLeaderboard(raw json.RawMessage) ([]LeaderboardRow, error) {
	var list []rawLeaderboardRow
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var wrapped struct {
			Rows []rawLeaderboardRow `json:"leaderboardRows"`
		}
		if err := json.Unmarshal(trimmed, &wrapped); err != nil {
			return nil, err
		}
		list = wrapped.Rows
	} else if len(trimmed) > 0 && string(trimmed) != "null" {
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, err
		}
	}

	out := make([]LeaderboardRow, 0, len(list))
	for _, r := range list {
		addr := firstNonEmpty(r.User, r.Address, r.EthAddress)
		if addr == "" {
			continue
		}
		row := LeaderboardRow{Address: addr}
		if r.PnL.Valid {
			row.PnL = r.PnL.Decimal
		}
		if n, err := r.NumTrades.Int64(); err == nil {
			row.NumTrades = n
		}
		out = append(out, row)
	}
	return out, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}

type userFillsRequest struct {
	Type      string `json:"type"`
	User      string `json:"user"`
	StartTime int64  `json:"startTime"`
	EndTime   int64  `json:"endTime"`
}

// UserFillsByTime fetches the fills of address within [startMs, endMs] and
// normalizes them. dropped counts skipped fills by reason.
func (c *Client) UserFillsByTime(ctx context.Context, address string, startMs, endMs int64) (fills []Fill, dropped map[string]int, err error) {
	var raws []json.RawMessage
	req := userFillsRequest{Type: "userFillsByTime", User: address, StartTime: startMs, EndTime: endMs}
	if err := c.info(ctx, "userFillsByTime", req, &raws); err != nil {
		return nil, nil, err
	}
	fills, dropped = NormalizeFills(raws)
	c.logger.Debug("fills fetched",
		zap.String("address", address),
		zap.Int("raw", len(raws)),
		zap.Int("normalized", len(fills)))
	return fills, dropped, nil
}
