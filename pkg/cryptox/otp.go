package cryptox

import (
	"crypto/rand"
	"encoding/base32"
	"fmt"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/hotp"
)

// RecoveryCodeDigits is the length of an emailed recovery code.
const RecoveryCodeDigits = 6

// GenerateRecoveryCode mints a uniform 6-digit numeric code by running HOTP
// over a single-use random secret. The secret is discarded immediately; the
// caller persists only a fingerprint of the resulting code.
func GenerateRecoveryCode() (string, error) {
	raw := make([]byte, 20)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("failed to generate recovery code secret: %w", err)
	}
	secret := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(raw)

	code, err := hotp.GenerateCodeCustom(secret, 0, hotp.ValidateOpts{
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate recovery code: %w", err)
	}
	return code, nil
}
