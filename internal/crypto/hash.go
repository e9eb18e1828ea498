// this file provides the digest functions used for pass documents.
//
// Leaf digests, document digests (target hashes) and Merkle nodes all use Keccak-256
// (the pre-standard SHA-3 variant used by the document store registry).
// Dilithium signatures are computed over SHA3-256.

package crypto

import (
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/sha3"
)

// Keccak256 returns the Keccak-256 digest of the concatenation of data.
func Keccak256(data ...[]byte) []byte {
	hasher := sha3.NewLegacyKeccak256()
	for _, d := range data {
		_, _ = hasher.Write(d)
	}
	return hasher.Sum(nil)
}

// Keccak256Hex returns the Keccak-256 digest of data as a lowercase hex string (no 0x prefix).
func Keccak256Hex(data []byte) string {
	return hex.EncodeToString(Keccak256(data))
}

// SHA3256 returns the SHA3-256 digest of data.
func SHA3256(data []byte) []byte {
	sum := sha3.Sum256(data)
	return sum[:]
}

// DecodeHash decodes a hex digest with or without a 0x prefix.
func DecodeHash(s string) ([]byte, error) {
	trimmed := strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if trimmed == "" {
		return nil, NewValidationError("hash is empty")
	}
	b, err := hex.DecodeString(trimmed)
	if err != nil {
		return nil, WrapValidationError(err, fmt.Sprintf("hash %q is not valid hex", s))
	}
	return b, nil
}
