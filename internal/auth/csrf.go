package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// GenerateCSRFToken creates a random token for the double-submit-cookie
// protocol. The server keeps no record of it: validity means the header
// copy equals the cookie copy, which only a same-origin page can arrange.
func GenerateCSRFToken() (string, error) {
	randomBytes := make([]byte, 32)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", fmt.Errorf("failed to generate csrf token: %w", err)
	}
	return hex.EncodeToString(randomBytes), nil
}
