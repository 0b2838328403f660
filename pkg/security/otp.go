package security

import (
	"crypto/rand"
	"math/big"

	"github.com/pquerna/otp"
)

var otpSpace = big.NewInt(1_000_000)

// GenerateOTPCode returns a uniformly random six digit code, zero-padded.
func GenerateOTPCode() (string, error) {
	n, err := rand.Int(rand.Reader, otpSpace)
	if err != nil {
		return "", err
	}
	return otp.DigitsSix.Format(int32(n.Int64())), nil
}
