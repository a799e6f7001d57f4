package common

import (
	"crypto/rand"
	"fmt"
)

// MakeRandByteArray returns size bytes read from the operating system's
// cryptographically secure random source.
func MakeRandByteArray(size int) ([]byte, error) {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("rand read error: %w", err)
	}
	return b, nil
}
