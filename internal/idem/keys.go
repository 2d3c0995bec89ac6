// Package idem derives the deterministic keys brokers use to deduplicate
// retried order placements. Keys are stable across process restarts: there
// is no per-process salt, so a redelivered message produces the same key
// and a retried placement cannot execute twice.
package idem

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/chandu88611/tradeRepliction/internal/signal"
)

// BuildKey derives the idempotency key for one order slice. 32 hex chars
// (128 bits) stays within the client-order-id limits of every broker we
// integrate with.
func BuildKey(broker, accountID, signalID string, sliceSeq int) string {
	raw := normalize(broker) + "|" + normalize(accountID) + "|" + normalize(signalID) + "|" + strconv.Itoa(sliceSeq)
	return sha256hex(raw)[:32]
}

// BuildActionKey is the MODIFY/CANCEL/CLOSE analogue of BuildKey. The
// action label replaces the slice sequence so the key spaces never collide
// with NEW-order keys.
func BuildActionKey(broker, accountID, signalID string, action signal.EventKind) string {
	raw := normalize(broker) + "|" + normalize(accountID) + "|" + normalize(signalID) + "|" + action.String()
	return sha256hex(raw)[:32]
}

// Namespace re-hashes a key under a namespace, e.g. per environment, so
// staging and production key spaces stay disjoint.
func Namespace(namespace, key string) string {
	return sha256hex(normalize(namespace) + "|" + key)[:32]
}

// CompactID maps arbitrary input to a 32-char stable id, for brokers with
// strict header limits.
func CompactID(input string) string {
	return sha256hex(input)[:32]
}

func sha256hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

func normalize(s string) string { return strings.TrimSpace(s) }
