// Package fingerprint derives stable content identities for chunks.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
)

// Length is the number of hex characters kept from the digest.
const Length = 16

// Sum returns the chunk identity for text: the SHA-256 of its UTF-8 bytes,
// hex-encoded and truncated to Length characters. Deterministic across
// processes; accepts any input including the empty string.
func Sum(text string) string {
	h := sha256.Sum256([]byte(text))
	return hex.EncodeToString(h[:])[:Length]
}

// Key converts a fingerprint to its numeric form. Sixteen hex characters are
// exactly 64 bits, so the conversion is lossless and Key(Sum(x)) never fails.
func Key(fp string) (uint64, error) {
	if len(fp) != Length {
		return 0, fmt.Errorf("fingerprint %q: want %d hex chars, got %d", fp, Length, len(fp))
	}
	k, err := strconv.ParseUint(fp, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("fingerprint %q: %w", fp, err)
	}
	return k, nil
}
