package randcode

import (
	"crypto/rand"
	"math/big"
)

const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateAlphaNumericCode returns a code of the given length drawn uniformly
// from A-Z0-9 using crypto/rand.
func GenerateAlphaNumericCode(length int) (string, error) {
	b := make([]byte, length)
	limit := big.NewInt(int64(len(alphabet)))

	for i := range b {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		b[i] = alphabet[n.Int64()]
	}

	return string(b), nil
}
