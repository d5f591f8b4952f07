package otp

import (
	"crypto/sha1"
	"time"
)

const steamAlphabet = "23456789BCDFGHJKMNPQRTVWXY"

// GenerateSteam returns a Steam Guard code: the truncated HMAC-SHA1 value
// for the current time step, written as SteamDigits characters of
// steamAlphabet, least significant first. The account's algorithm and
// digits are ignored.
func GenerateSteam(acc Account, now time.Time) (string, error) {
	key, err := DecodeSecret(acc.Secret)
	if err != nil {
		return "", err
	}
	counter, err := timeStep(now, acc.Period)
	if err != nil {
		return "", err
	}

	code := truncate(key, sha1.New, counter)

	out := make([]byte, SteamDigits)
	for i := range out {
		out[i] = steamAlphabet[code%uint32(len(steamAlphabet))]
		code /= uint32(len(steamAlphabet))
	}
	return string(out), nil
}
