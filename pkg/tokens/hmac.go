// Package tokens mints and verifies the HMAC-signed, time-bounded
// approval tokens that bind a (qid, spec_hash) to an action type.
//
// The wire format is intentionally not a JWT: a JWT library would impose
// JOSE's own header/segment framing, which is incompatible with the
// spec-mandated canonical-JSON-then-HMAC-then-base64url envelope used
// here (and needed so the token's signed bytes are reproducible from the
// same canonicalizer that fingerprints specs). See DESIGN.md for why
// golang-jwt was not used for this package.
package tokens

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/hkdf"

	"github.com/Mindburn-Labs/companion/pkg/canonicalize"
)

// hkdfSalt is the HKDF salt used, with the token type as HKDF info, to
// derive a per-token-type signing key from the operator's master secret, so a compromised send_email signature
// oracle cannot be replayed against create_event tokens.
const hkdfSalt = "companion-token-kdf-v1"

// Payload is the signed body of an approval token.
type Payload struct {
	TokenType string            `json:"token_type"`
	JTI       string            `json:"jti"`
	Exp       int64             `json:"exp"`
	Bind      map[string]string `json:"bind"`
}

// Approval is a verified token payload plus its signature, returned by
// Verify on success.
type Approval struct {
	Payload
	Sig string
}

// ExpiresAt returns the token's expiry as a time.Time.
func (a Approval) ExpiresAt() time.Time {
	return time.Unix(a.Exp, 0).UTC()
}

type blob struct {
	Payload Payload `json:"payload"`
	Sig     string  `json:"sig"`
}

// Mint produces a new token of tokenType, expiring ttl from now, binding
// the given qid/spec_hash pair (or any other string-keyed bind map the
// caller supplies).
func Mint(secret []byte, tokenType string, ttl time.Duration, bind map[string]string) (string, error) {
	if len(secret) == 0 {
		return "", errors.New("tokens: empty secret")
	}

	payload := Payload{
		TokenType: tokenType,
		JTI:       uuid.NewString(),
		Exp:       time.Now().Add(ttl).Unix(),
		Bind:      bind,
	}

	canonicalPayload, err := canonicalEncode(payload)
	if err != nil {
		return "", fmt.Errorf("tokens: canonicalize payload: %w", err)
	}

	key, err := derivedKey(secret, tokenType)
	if err != nil {
		return "", fmt.Errorf("tokens: derive key: %w", err)
	}
	sig := sign(key, canonicalPayload)

	b := blob{Payload: payload, Sig: sig}
	canonicalBlob, err := canonicalEncode(b)
	if err != nil {
		return "", fmt.Errorf("tokens: canonicalize blob: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(canonicalBlob), nil
}

// Verify checks token's signature under secret and returns the validated
// Approval. It does not check expiry or bind — callers compare those
// against the queue item, per spec.md §4.10.
func Verify(secret []byte, token string) (Approval, error) {
	if len(secret) == 0 {
		return Approval{}, errors.New("tokens: empty secret")
	}

	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return Approval{}, fmt.Errorf("tokens: bad encoding: %w", err)
	}

	var b blob
	if err := json.Unmarshal(raw, &b); err != nil {
		return Approval{}, fmt.Errorf("tokens: bad payload: %w", err)
	}
	if b.Payload.TokenType == "" || b.Payload.JTI == "" {
		return Approval{}, errors.New("tokens: malformed payload")
	}

	canonicalPayload, err := canonicalEncode(b.Payload)
	if err != nil {
		return Approval{}, fmt.Errorf("tokens: canonicalize payload: %w", err)
	}

	key, err := derivedKey(secret, b.Payload.TokenType)
	if err != nil {
		return Approval{}, fmt.Errorf("tokens: derive key: %w", err)
	}
	expected := sign(key, canonicalPayload)

	if !hmac.Equal([]byte(expected), []byte(b.Sig)) {
		return Approval{}, errors.New("tokens: signature mismatch")
	}

	return Approval{Payload: b.Payload, Sig: b.Sig}, nil
}

func derivedKey(secret []byte, tokenType string) ([]byte, error) {
	reader := hkdf.New(sha256.New, secret, []byte(hkdfSalt), []byte(tokenType))
	key := make([]byte, sha256.Size)
	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, err
	}
	return key, nil
}

func sign(key, data []byte) string {
	mac := hmac.New(sha256.New, key)
	mac.Write(data)
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

func canonicalEncode(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return canonicalize.JSON(raw)
}
