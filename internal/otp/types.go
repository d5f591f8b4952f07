package otp

import (
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base32"
	"fmt"
	"hash"
	"strings"
)

const (
	DefaultDigits = 6
	MinDigits     = 6
	MaxDigits     = 10
	DefaultPeriod = 30
	SteamDigits   = 5
)

// Type is the closed set of supported account types.
type Type uint8

const (
	TypeTOTP Type = iota + 1
	TypeHOTP
	TypeSteam
)

var typeNames = map[Type]string{
	TypeTOTP:  "TOTP",
	TypeHOTP:  "HOTP",
	TypeSteam: "STEAM",
}

func (t Type) String() string {
	if s, ok := typeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("Type(%d)", uint8(t))
}

// ParseType accepts "totp", "hotp" and "steam" in any case.
func ParseType(s string) (Type, error) {
	want := strings.ToUpper(strings.TrimSpace(s))
	for t, name := range typeNames {
		if name == want {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedType, s)
}

func (t Type) MarshalText() ([]byte, error) {
	s, ok := typeNames[t]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedType, uint8(t))
	}
	return []byte(s), nil
}

func (t *Type) UnmarshalText(b []byte) error {
	v, err := ParseType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// Algorithm is the HMAC hash used for code generation.
type Algorithm uint8

const (
	AlgorithmSHA1 Algorithm = iota + 1
	AlgorithmSHA256
	AlgorithmSHA512
)

var algorithmNames = map[Algorithm]string{
	AlgorithmSHA1:   "SHA1",
	AlgorithmSHA256: "SHA256",
	AlgorithmSHA512: "SHA512",
}

func (a Algorithm) String() string {
	if s, ok := algorithmNames[a]; ok {
		return s
	}
	return fmt.Sprintf("Algorithm(%d)", uint8(a))
}

// ParseAlgorithm is case-insensitive and tolerates a dash ("SHA-256").
func ParseAlgorithm(s string) (Algorithm, error) {
	want := strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(s)), "-", "")
	for a, name := range algorithmNames {
		if name == want {
			return a, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown algorithm %q", ErrInvalidParameters, s)
}

func (a Algorithm) MarshalText() ([]byte, error) {
	s, ok := algorithmNames[a]
	if !ok {
		return nil, fmt.Errorf("%w: unknown algorithm %d", ErrInvalidParameters, uint8(a))
	}
	return []byte(s), nil
}

func (a *Algorithm) UnmarshalText(b []byte) error {
	v, err := ParseAlgorithm(string(b))
	if err != nil {
		return err
	}
	*a = v
	return nil
}

func (a Algorithm) hash() (func() hash.Hash, error) {
	switch a {
	case AlgorithmSHA1:
		return sha1.New, nil
	case AlgorithmSHA256:
		return sha256.New, nil
	case AlgorithmSHA512:
		return sha512.New, nil
	default:
		return nil, fmt.Errorf("%w: unknown algorithm %d", ErrInvalidParameters, uint8(a))
	}
}

// Account holds everything needed to produce codes for one authenticator entry.
type Account struct {
	Name      string    `json:"name"`
	Issuer    string    `json:"issuer"`
	Secret    string    `json:"secret"`
	Type      Type      `json:"type"`
	Algorithm Algorithm `json:"algorithm"`
	Digits    int       `json:"digits"`
	Period    int       `json:"period"`
	Counter   uint64    `json:"counter"`
}

// Label is the display form "Issuer:Name", or just Name without an issuer.
func (a Account) Label() string {
	if a.Issuer == "" {
		return a.Name
	}
	return a.Issuer + ":" + a.Name
}

// Validate checks that codes can be generated for the account.
func (a Account) Validate() error {
	switch a.Type {
	case TypeTOTP, TypeHOTP:
		if _, err := a.Algorithm.hash(); err != nil {
			return err
		}
		if err := checkDigits(a.Digits); err != nil {
			return err
		}
		if a.Type == TypeTOTP {
			if err := checkPeriod(a.Period); err != nil {
				return err
			}
		}
	case TypeSteam:
		if err := checkPeriod(a.Period); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedType, a.Type)
	}

	_, err := DecodeSecret(a.Secret)
	return err
}

func checkDigits(d int) error {
	if d < MinDigits || d > MaxDigits {
		return fmt.Errorf("%w: digits %d outside [%d, %d]", ErrInvalidParameters, d, MinDigits, MaxDigits)
	}
	return nil
}

func checkPeriod(p int) error {
	if p <= 0 {
		return fmt.Errorf("%w: period %d must be positive", ErrInvalidParameters, p)
	}
	return nil
}

var secretEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// NormalizeSecret uppercases a base32 secret and strips whitespace and padding.
func NormalizeSecret(s string) string {
	s = strings.Join(strings.Fields(s), "")
	s = strings.ToUpper(s)
	return strings.TrimRight(s, "=")
}

// DecodeSecret returns the raw key bytes of a base32 secret.
func DecodeSecret(s string) ([]byte, error) {
	n := NormalizeSecret(s)
	if n == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidSecret)
	}
	// Unpadded base32 never ends with 1, 3 or 6 characters of a final
	// block; the decoder would drop them instead of failing.
	switch len(n) % 8 {
	case 1, 3, 6:
		return nil, fmt.Errorf("%w: length %d is not a valid base32 length", ErrInvalidSecret, len(n))
	}
	key, err := secretEncoding.DecodeString(n)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSecret, err)
	}
	if len(key) == 0 {
		return nil, fmt.Errorf("%w: empty", ErrInvalidSecret)
	}
	return key, nil
}

// EncodeSecret returns the unpadded base32 form of a raw key.
func EncodeSecret(key []byte) string {
	return secretEncoding.EncodeToString(key)
}
