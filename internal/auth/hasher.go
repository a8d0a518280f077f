package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultHashCost is the bcrypt work factor used for both passwords and refresh tokens
// unless configured otherwise.
const DefaultHashCost = 10

// CredentialHasher hashes and verifies passwords and refresh tokens.
type CredentialHasher interface {
	HashPassword(password string) (string, error)
	VerifyPassword(password, hash string) bool
	HashToken(token string) (string, error)
	VerifyToken(token, hash string) bool
}

// BcryptHasher implements CredentialHasher with bcrypt.
//
// bcrypt only accepts 72 bytes of input and a signed JWT is longer than that, so
// tokens are reduced to their hex SHA-256 digest before hashing. Passwords are hashed
// as-is; callers cap their length at the validation boundary.
type BcryptHasher struct {
	passwordCost int
	tokenCost    int
}

// Ensure BcryptHasher implements CredentialHasher
var _ CredentialHasher = (*BcryptHasher)(nil)

// NewBcryptHasher creates a hasher with separate work factors for passwords and tokens.
func NewBcryptHasher(passwordCost, tokenCost int) (*BcryptHasher, error) {
	for _, cost := range []int{passwordCost, tokenCost} {
		if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
			return nil, fmt.Errorf("bcrypt cost %d out of range [%d, %d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
		}
	}
	return &BcryptHasher{passwordCost: passwordCost, tokenCost: tokenCost}, nil
}

// HashPassword hashes a password with the password work factor.
func (h *BcryptHasher) HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.passwordCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

// VerifyPassword reports whether password matches hash. Malformed hashes never match.
func (h *BcryptHasher) VerifyPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// HashToken hashes a refresh token with the token work factor.
func (h *BcryptHasher) HashToken(token string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword(tokenDigest(token), h.tokenCost)
	if err != nil {
		return "", fmt.Errorf("hash token: %w", err)
	}
	return string(hashed), nil
}

// VerifyToken reports whether token matches hash.
func (h *BcryptHasher) VerifyToken(token, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), tokenDigest(token)) == nil
}

func tokenDigest(token string) []byte {
	sum := sha256.Sum256([]byte(token))
	dst := make([]byte, hex.EncodedLen(len(sum)))
	hex.Encode(dst, sum[:])
	return dst
}
