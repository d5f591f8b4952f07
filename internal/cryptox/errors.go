package cryptox

import "errors"

var (
	// ErrDecryptionFailed covers a wrong key as well as corrupt or tampered data.
	ErrDecryptionFailed = errors.New("decryption failed")

	ErrEncryptionFailed = errors.New("encryption failed")
	ErrInvalidKey       = errors.New("invalid encryption key")
	ErrInvalidKDFParams = errors.New("invalid key derivation parameters")
)
