// Package strength scores candidate master and site passwords and generates
// random ones.
package strength

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
	"strings"

	"github.com/ccojocar/zxcvbn-go"
	"github.com/ccojocar/zxcvbn-go/match"
)

const (
	DefaultLength = 16
	MaxLength     = 256

	// Charset is the alphabet Generate draws from.
	Charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%^&*()_+{}[]|:;<>,.?"

	// MaxScore is the best score Check returns.
	MaxScore = 4
)

var ErrInvalidLength = errors.New("invalid password length")

// random is the entropy source for Generate.
var random io.Reader = rand.Reader

// Result is the verdict for one password.
type Result struct {
	// Score ranges from 0 (trivially guessable) to MaxScore.
	Score int
	// Feedback is a short hint for improving the password; empty when the
	// password is strong.
	Feedback string
	// CrackTime is a human readable estimate, e.g. "3 hours".
	CrackTime string
}

// Check estimates how hard password is to guess. userInputs are words the
// password should not be built from, such as the site or user name.
func Check(password string, userInputs ...string) Result {
	if password == "" {
		return Result{Score: 0, Feedback: "Enter a password.", CrackTime: "instant"}
	}

	r := zxcvbn.PasswordStrength(password, userInputs)
	return Result{
		Score:     r.Score,
		Feedback:  feedback(r.Score, r.MatchSequence),
		CrackTime: r.CrackTimeDisplay,
	}
}

var patternHints = map[string]string{
	"dictionary": "Avoid common words, names and words from the site or user name.",
	"spatial":    "Avoid keyboard patterns like qwerty or zxcvbn.",
	"repeat":     "Avoid repeated characters like aaa or abcabc.",
	"sequence":   "Avoid sequences like abc or 6543.",
	"date":       "Avoid dates and years.",
}

// feedback names the weakest part of the password: the longest match that is
// not plain brute force.
func feedback(score int, seq []match.Match) string {
	if score >= 3 {
		return ""
	}

	var worst match.Match
	for _, m := range seq {
		if _, ok := patternHints[m.Pattern]; !ok {
			continue
		}
		if len(m.Token) > len(worst.Token) {
			worst = m
		}
	}
	if hint, ok := patternHints[worst.Pattern]; ok {
		return hint
	}
	return "Add more characters; a few uncommon words together work well."
}

// Generate returns a password of length characters drawn uniformly from
// Charset using crypto/rand.
func Generate(length int) (string, error) {
	if length < 1 || length > MaxLength {
		return "", fmt.Errorf("%w: %d not in [1, %d]", ErrInvalidLength, length, MaxLength)
	}

	max := big.NewInt(int64(len(Charset)))
	var b strings.Builder
	b.Grow(length)
	for range length {
		n, err := rand.Int(random, max)
		if err != nil {
			return "", fmt.Errorf("generate password: %w", err)
		}
		b.WriteByte(Charset[n.Int64()])
	}
	return b.String(), nil
}
