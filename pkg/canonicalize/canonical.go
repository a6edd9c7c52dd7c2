// Package canonicalize provides the canonical JSON encoding used to
// fingerprint queue-item specs and to sign/verify approval tokens.
//
// "Canonical" here means RFC 8785 (JSON Canonicalization Scheme): object
// keys sorted in code-point order, minimal separators, no insignificant
// whitespace. This matches the byte-for-byte behavior the Python original
// got from json.dumps(sort_keys=True, separators=(",", ":")) for the plain
// maps/strings/numbers this system ever hashes or signs.
package canonicalize

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/gowebpki/jcs"
)

// JSON returns the canonical JSON encoding of raw, which must already be
// marshaled JSON (jcs.Transform operates on bytes), so callers typically
// pass the result of json.Marshal.
func JSON(raw []byte) ([]byte, error) {
	return jcs.Transform(raw)
}

// Hash returns the lowercase hex SHA-256 digest of data.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// HashOf canonicalizes raw (already-marshaled JSON) and returns its
// SHA-256 hex digest in one step.
func HashOf(raw []byte) (string, error) {
	canon, err := JSON(raw)
	if err != nil {
		return "", err
	}
	return Hash(canon), nil
}
