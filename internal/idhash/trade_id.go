package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputeTradeID computes a deterministic trade_id using SHA256.
// Formula: SHA256(pair_id|verdict_id|opened_at)
// Returns hex-encoded hash (64 characters).
func ComputeTradeID(pairID, verdictID string, openedAt int64) string {
	data := fmt.Sprintf("%s|%s|%d", pairID, verdictID, openedAt)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
