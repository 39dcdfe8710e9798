package auth

import (
	"crypto/rand"
	"encoding/hex"
)

// NewToken mints an opaque 256-bit API token.
func NewToken() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms
		panic(err)
	}
	return hex.EncodeToString(buf)
}
