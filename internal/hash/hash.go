// Package hash fingerprints board contents.
//
// Two sessions that have converged hold the same tokens at the same
// positions, so their fingerprints match regardless of the order in which
// tokens were placed. Render order is not part of the fingerprint.
package hash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"

	"github.com/ttbud/ttbud-sub001/internal/board"
)

// Board computes the SHA-256 fingerprint of a set of tokens.
func Board(tokens []board.Token) string {
	sorted := make([]board.Token, len(tokens))
	copy(sorted, tokens)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	hasher := sha256.New()
	for _, t := range sorted {
		// Fields are length-prefixed so no two token sets share an encoding.
		fmt.Fprintf(hasher, "%d:%s%d:%s%d:%s%d,%d\n",
			len(t.ID), t.ID, len(t.Kind), t.Kind, len(t.IconRef), t.IconRef, t.Pos.X, t.Pos.Y)
	}
	return hex.EncodeToString(hasher.Sum(nil))
}

// Short returns the first 12 hex digits of a fingerprint for display.
func Short(fingerprint string) string {
	if len(fingerprint) <= 12 {
		return fingerprint
	}
	return fingerprint[:12]
}
