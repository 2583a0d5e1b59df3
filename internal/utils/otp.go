package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// RandomOTP returns a zero-padded 6-digit one-time code generated from
// crypto/rand.
func RandomOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
