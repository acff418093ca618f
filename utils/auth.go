package utils

import (
	"encoding/hex"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"
)

func IsValidUuid(id uuid.UUID) bool {
	return id.Version() == 4 && id != uuid.Nil
}

func IsValidEmail(e string) bool {
	if len(e) < 1 {
		return false
	}

	addr, err := mail.ParseAddress(e)
	if err != nil {
		zap.S().Debugf("Could not parse email: %v", err)
		return false
	}

	// Reject display-name forms such as "Jane <jane@example.com>".
	return addr.Address == strings.TrimSpace(e)
}

// NormalizeEmail lowercases and trims an address.
func NormalizeEmail(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}

// HashEmail returns a stable digest of an address, suitable for cache keys.
func HashEmail(e string) string {
	sum := blake2b.Sum256([]byte(NormalizeEmail(e)))

	return hex.EncodeToString(sum[:])
}
