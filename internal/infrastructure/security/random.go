package security

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
)

// SessionIDBytes is the entropy of a session id before encoding.
const SessionIDBytes = 32

// RandomID returns n random bytes as unpadded URL-safe base64.
func RandomID(n int) (string, error) {
	if n <= 0 {
		return "", errors.New("invalid id length")
	}
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
