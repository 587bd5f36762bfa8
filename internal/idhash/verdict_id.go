package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputeVerdictID computes a deterministic verdict_id using SHA256.
// Formula: SHA256(pair_id|evaluated_at)
// Returns hex-encoded hash (64 characters). Re-evaluating the same snapshot
// yields the same id, which is what makes verdict writes idempotent.
func ComputeVerdictID(pairID string, evaluatedAt int64) string {
	data := fmt.Sprintf("%s|%d", pairID, evaluatedAt)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
