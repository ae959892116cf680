package service

import (
	"strings"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// TwoFactorVerifier validates TOTP codes for accounts that enabled a second
// factor. One period of clock skew is tolerated either side.
type TwoFactorVerifier struct {
	// Now defaults to time.Now.
	Now func() time.Time
}

func (v *TwoFactorVerifier) Verify(code, secret string) bool {
	code = strings.TrimSpace(code)
	if code == "" || secret == "" {
		return false
	}

	now := time.Now()
	if v != nil && v.Now != nil {
		now = v.Now()
	}

	ok, err := totp.ValidateCustom(code, secret, now.UTC(), totp.ValidateOpts{
		Period:    30,
		Skew:      1,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	return err == nil && ok
}
