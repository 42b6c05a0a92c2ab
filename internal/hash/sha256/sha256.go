// Package sha256 fingerprints stored résumé documents.
package sha256

import (
	"crypto/sha256"
	"encoding/hex"
)

// Hasher implements letter.Hasher using SHA-256.
type Hasher struct{}

// New returns a SHA-256 hasher.
func New() *Hasher {
	return &Hasher{}
}

// Prefix labels digests with their algorithm.
const Prefix = "sha256:"

// Hash returns the prefixed hex digest of data, e.g. "sha256:b94d...".
func (h *Hasher) Hash(data []byte) (string, error) {
	sum := sha256.Sum256(data)
	return Prefix + hex.EncodeToString(sum[:]), nil
}
