package security

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
)

const codeDigits = "0123456789"

// GenerateCode returns a random numeric handoff code of the given length.
func GenerateCode(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("code length must be positive")
	}

	max := big.NewInt(int64(len(codeDigits)))
	buf := make([]byte, length)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate code digit: %w", err)
		}
		buf[i] = codeDigits[n.Int64()]
	}
	return string(buf), nil
}

// CodesEqual compares two handoff codes in constant time.
func CodesEqual(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
