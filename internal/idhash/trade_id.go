// Package idhash derives deterministic identifiers for ingested records.
package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/domain"
)

// ComputeTradeID computes a deterministic trade id using SHA256.
// Formula: SHA256(lower(address)|symbol|side|fill_id|timestamp)
// fill_id is the venue's fill identifier (tid, or tx hash when absent).
// Returns hex-encoded hash (64 characters).
func ComputeTradeID(
	address string,
	symbol string,
	side domain.Side,
	fillID string,
	timestamp int64,
) string {
	data := fmt.Sprintf("%s|%s|%s|%s|%d",
		strings.ToLower(address),
		symbol,
		string(side),
		fillID,
		timestamp,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
