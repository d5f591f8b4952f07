package otp

import (
	"crypto/hmac"
	"encoding/binary"
	"fmt"
	"hash"
	"time"
)

// GenerateHOTP returns the RFC 4226 code for counter using the account's
// secret, algorithm and digits. Any non-Steam account is accepted, TOTP
// included; the explicit counter replaces the time step.
func GenerateHOTP(acc Account, counter uint64) (string, error) {
	if acc.Type == TypeSteam {
		return "", fmt.Errorf("%w: steam codes are time based", ErrUnsupportedType)
	}
	key, h, err := prepare(acc)
	if err != nil {
		return "", err
	}
	return formatDecimal(truncate(key, h, counter), acc.Digits), nil
}

// GenerateTOTP returns the RFC 6238 code for the time step containing now.
func GenerateTOTP(acc Account, now time.Time) (string, error) {
	if acc.Type == TypeSteam {
		return GenerateSteam(acc, now)
	}
	key, h, err := prepare(acc)
	if err != nil {
		return "", err
	}
	counter, err := timeStep(now, acc.Period)
	if err != nil {
		return "", err
	}
	return formatDecimal(truncate(key, h, counter), acc.Digits), nil
}

// Generate produces the current code for acc according to its type. HOTP
// accounts use their stored counter.
func Generate(acc Account, now time.Time) (string, error) {
	switch acc.Type {
	case TypeTOTP:
		return GenerateTOTP(acc, now)
	case TypeHOTP:
		return GenerateHOTP(acc, acc.Counter)
	case TypeSteam:
		return GenerateSteam(acc, now)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, acc.Type)
	}
}

// Remaining reports how long the code valid at now stays valid. It is zero
// for counter-based accounts and for accounts with an invalid period.
func Remaining(acc Account, now time.Time) time.Duration {
	if acc.Type == TypeHOTP || acc.Period <= 0 {
		return 0
	}
	step := time.Duration(acc.Period) * time.Second
	elapsed := time.Duration(now.UnixNano() % int64(step))
	if elapsed < 0 {
		elapsed += step
	}
	return step - elapsed
}

func prepare(acc Account) ([]byte, func() hash.Hash, error) {
	key, err := DecodeSecret(acc.Secret)
	if err != nil {
		return nil, nil, err
	}
	h, err := acc.Algorithm.hash()
	if err != nil {
		return nil, nil, err
	}
	if err := checkDigits(acc.Digits); err != nil {
		return nil, nil, err
	}
	return key, h, nil
}

func timeStep(now time.Time, period int) (uint64, error) {
	if err := checkPeriod(period); err != nil {
		return 0, err
	}
	sec := now.Unix()
	if sec < 0 {
		return 0, fmt.Errorf("%w: time before unix epoch", ErrInvalidParameters)
	}
	return uint64(sec) / uint64(period), nil
}

// truncate computes HMAC(key, counter) and applies RFC 4226 dynamic
// truncation, yielding a 31-bit value.
func truncate(key []byte, h func() hash.Hash, counter uint64) uint32 {
	var msg [8]byte
	binary.BigEndian.PutUint64(msg[:], counter)

	mac := hmac.New(h, key)
	mac.Write(msg[:])
	sum := mac.Sum(nil)

	offset := sum[len(sum)-1] & 0x0f
	return binary.BigEndian.Uint32(sum[offset:offset+4]) & 0x7fffffff
}

func formatDecimal(code uint32, digits int) string {
	mod := uint64(1)
	for i := 0; i < digits; i++ {
		mod *= 10
	}
	return fmt.Sprintf("%0*d", digits, uint64(code)%mod)
}
