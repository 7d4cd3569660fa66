package auth

import (
	"github.com/saddiabu4/telegram-web-app-backend/internal/domain"
	"golang.org/x/crypto/bcrypt"
	"strings"
)

// bcrypt ignores everything past 72 bytes
const maxPasswordBytes = 72

// HashPassword hashes one plaintext password for persistent storage.
func HashPassword(password string) (string, error) {
	if len(password) > maxPasswordBytes {
		return "", domain.ValidationErrors{{Field: "password", Message: "must be at most 72 bytes"}}
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// VerifyPassword verifies plaintext password against a bcrypt hash.
func VerifyPassword(passwordHash, candidate string) bool {
	if strings.TrimSpace(passwordHash) == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(candidate)) == nil
}
