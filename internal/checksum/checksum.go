// Package checksum fingerprints file contents so staged edits can detect
// changes made between staging and commit.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Matches reports whether data still hashes to sum.
func Matches(data []byte, sum string) bool {
	return Sum(data) == sum
}
