package cryptox

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"
)

// GenerateNumericCode returns a numeric verification code of the given digit
// length, drawn uniformly from [10^(length-1), 10^length - 1] so the first
// digit is never zero. The source is crypto/rand.
func GenerateNumericCode(length int) (string, error) {
	if length < 4 || length > 10 {
		return "", fmt.Errorf("code length must be between 4 and 10, got %d", length)
	}

	min := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(length-1)), nil)
	max := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(length)), nil)

	n, err := rand.Int(rand.Reader, new(big.Int).Sub(max, min))
	if err != nil {
		return "", fmt.Errorf("failed to generate verification code: %w", err)
	}

	return n.Add(n, min).String(), nil
}

// HashCode returns the lowercase hex SHA-256 of a verification code. Codes
// are stored only in this form; comparison happens against hashes.
func HashCode(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}
