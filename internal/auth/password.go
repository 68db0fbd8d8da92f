package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// bcryptCost balances hash strength against login latency (~250ms per
// hash at cost 12 on current hardware).
const bcryptCost = 12

// PasswordService hashes and verifies passwords with bcrypt.
type PasswordService struct {
	cost int
}

func NewPasswordService() *PasswordService {
	return &PasswordService{cost: bcryptCost}
}

// NewPasswordServiceForTest uses the minimum cost so test suites that
// register many accounts stay fast. Never use outside tests.
func NewPasswordServiceForTest() *PasswordService {
	return &PasswordService{cost: bcrypt.MinCost}
}

// Hash returns the bcrypt hash of a password. bcrypt silently truncates
// input at 72 bytes, so longer passwords are rejected outright rather
// than accepted with dead tail characters.
func (s *PasswordService) Hash(password string) (string, error) {
	if len(password) > 72 {
		return "", errors.New("auth: password exceeds 72 bytes")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}
	return string(hash), nil
}

// Verify reports whether password matches the stored hash.
func (s *PasswordService) Verify(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
