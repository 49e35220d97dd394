package crypto

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// GenerateRandomString produces a cryptographically random base64url string of n bytes.
func GenerateRandomString(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// GenerateTicketCode generates a random ticket code (16 bytes = 22 chars base64url).
// Uniqueness is enforced by the tickets table, not by the generator.
func GenerateTicketCode() (string, error) {
	return GenerateRandomString(16)
}
