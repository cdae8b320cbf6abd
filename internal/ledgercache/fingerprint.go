// Package ledgercache decides whether a computed ledger or billboard is still
// valid for the journal it was built from.
//
// A fingerprint is a content hash over the distinct journal entry ids (plus
// request discriminators). The cache keeps two records per key: the payload,
// which expires after the staleness window, and a pointer to the fingerprint
// it was computed from, which never expires. A payload is served only while
// the pointer still matches the journal being aggregated.
package ledgercache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Fingerprint is a hex-encoded SHA-256 digest.
type Fingerprint string

// EmptyFingerprint is the fingerprint of no ids and no discriminators.
const EmptyFingerprint Fingerprint = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"

// Compute hashes the sorted set of distinct ids. Order and duplicates do not
// change the result. Discriminators (owner id, view, period...) are appended
// in the given order after the ids.
func Compute(ids []int64, discriminators ...string) Fingerprint {
	distinct := make([]int64, 0, len(ids))
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		distinct = append(distinct, id)
	}
	sort.Slice(distinct, func(i, j int) bool { return distinct[i] < distinct[j] })

	var b strings.Builder
	for i, id := range distinct {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatInt(id, 10))
	}
	if len(discriminators) > 0 {
		b.WriteByte('|')
		b.WriteString(strings.Join(discriminators, "|"))
	}

	sum := sha256.Sum256([]byte(b.String()))
	return Fingerprint(hex.EncodeToString(sum[:]))
}

// ParseFingerprint validates an externally supplied fingerprint.
func ParseFingerprint(s string) (Fingerprint, error) {
	if len(s) != sha256.Size*2 {
		return "", fmt.Errorf("malformed fingerprint: want %d hex chars, got %d", sha256.Size*2, len(s))
	}
	if _, err := hex.DecodeString(s); err != nil {
		return "", fmt.Errorf("malformed fingerprint: %w", err)
	}
	if strings.ToLower(s) != s {
		return "", fmt.Errorf("malformed fingerprint: must be lower-case hex")
	}
	return Fingerprint(s), nil
}

func (f Fingerprint) String() string { return string(f) }
