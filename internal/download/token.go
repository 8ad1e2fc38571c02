package download

import (
	"crypto/rand"
	"encoding/base64"
)

// tokenBytes is the entropy of a redemption token. 24 bytes encode to a
// 32-character URL-safe string.
const tokenBytes = 24

// NewToken generates a random URL-safe redemption token.
func NewToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
