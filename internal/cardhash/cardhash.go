// Package cardhash derives a stable content identity for source-owned cards,
// so reconciliation can tell new, unchanged, and removed cards apart across
// sync runs.
package cardhash

import (
	"crypto/sha256"
	"fmt"
	"strings"
)

// Normalize cleans and joins a card's front and back: lowercased, trimmed,
// line endings unified. Joined with a newline so fields can't run together.
func Normalize(front, back string) string {
	normalizePart := func(part string) string {
		p := strings.ToLower(part)
		p = strings.TrimSpace(p)
		p = strings.ReplaceAll(p, "\r\n", "\n")
		return p
	}
	return normalizePart(front) + "\n" + normalizePart(back)
}

// Hash returns the SHA-256 of the normalized front/back pair as a hex string.
func Hash(front, back string) string {
	sum := sha256.Sum256([]byte(Normalize(front, back)))
	return fmt.Sprintf("%x", sum)
}
