package cryptox

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/pbkdf2"
)

// KDF names a password-based key derivation function.
type KDF string

const (
	KDFPBKDF2SHA256 KDF = "pbkdf2-sha256"
	KDFArgon2id     KDF = "argon2id"
)

const (
	// KeySize is the derived key length used for AES-256.
	KeySize = 32

	// DefaultPBKDF2Iterations follows the current OWASP recommendation for
	// PBKDF2-HMAC-SHA256.
	DefaultPBKDF2Iterations = 600_000

	// LegacyPBKDF2Iterations is the lowest accepted PBKDF2 cost. It only exists
	// so vaults written with the old count can still be opened.
	LegacyPBKDF2Iterations = 1000
)

// KDFParams fully determines a derived key together with the password and salt.
// The values are persisted next to the salt when a vault is created.
type KDFParams struct {
	Algorithm KDF `json:"algorithm"`

	// Iterations is the PBKDF2 round count or the Argon2id time cost.
	Iterations uint32 `json:"iterations"`

	// Memory (KiB) and Threads are only used by Argon2id.
	Memory  uint32 `json:"memory,omitempty"`
	Threads uint8  `json:"threads,omitempty"`

	KeyLen uint32 `json:"key_len"`
}

// DefaultKDFParams returns PBKDF2-HMAC-SHA256 with DefaultPBKDF2Iterations.
func DefaultKDFParams() KDFParams {
	return KDFParams{
		Algorithm:  KDFPBKDF2SHA256,
		Iterations: DefaultPBKDF2Iterations,
		KeyLen:     KeySize,
	}
}

// Argon2idKDFParams returns the memory-hard alternative: one pass over 64 MiB
// with four lanes.
func Argon2idKDFParams() KDFParams {
	return KDFParams{
		Algorithm:  KDFArgon2id,
		Iterations: 1,
		Memory:     64 * 1024,
		Threads:    4,
		KeyLen:     KeySize,
	}
}

// LegacyKDFParams returns the 1000-round PBKDF2 parameters older vaults used.
func LegacyKDFParams() KDFParams {
	return KDFParams{
		Algorithm:  KDFPBKDF2SHA256,
		Iterations: LegacyPBKDF2Iterations,
		KeyLen:     KeySize,
	}
}

// ParseKDF maps a configuration string onto a KDF.
func ParseKDF(s string) (KDF, error) {
	switch KDF(strings.ToLower(strings.TrimSpace(s))) {
	case KDFPBKDF2SHA256, "pbkdf2":
		return KDFPBKDF2SHA256, nil
	case KDFArgon2id:
		return KDFArgon2id, nil
	default:
		return "", fmt.Errorf("%w: unknown kdf %q", ErrInvalidKDFParams, s)
	}
}

// Validate reports whether p can be used to derive an AES key.
func (p KDFParams) Validate() error {
	switch p.KeyLen {
	case 16, 24, 32:
	default:
		return fmt.Errorf("%w: key length %d", ErrInvalidKDFParams, p.KeyLen)
	}

	switch p.Algorithm {
	case KDFPBKDF2SHA256:
		if p.Iterations < LegacyPBKDF2Iterations {
			return fmt.Errorf("%w: pbkdf2 iterations %d below %d", ErrInvalidKDFParams, p.Iterations, LegacyPBKDF2Iterations)
		}
	case KDFArgon2id:
		if p.Iterations < 1 || p.Memory < 8*uint32(p.Threads) || p.Threads < 1 {
			return fmt.Errorf("%w: argon2id time=%d memory=%d threads=%d", ErrInvalidKDFParams, p.Iterations, p.Memory, p.Threads)
		}
	default:
		return fmt.Errorf("%w: unknown kdf %q", ErrInvalidKDFParams, p.Algorithm)
	}
	return nil
}

// DeriveKey turns a master password and the installation salt into a
// symmetric key. The result depends only on its inputs.
func DeriveKey(password, salt []byte, p KDFParams) ([]byte, error) {
	if len(salt) == 0 {
		return nil, fmt.Errorf("%w: empty salt", ErrInvalidKDFParams)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	switch p.Algorithm {
	case KDFArgon2id:
		return argon2.IDKey(password, salt, p.Iterations, p.Memory, p.Threads, p.KeyLen), nil
	default:
		return pbkdf2.Key(password, salt, int(p.Iterations), int(p.KeyLen), sha256.New), nil
	}
}
