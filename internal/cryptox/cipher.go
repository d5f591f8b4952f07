// Package cryptox implements the vault's key derivation and authenticated
// encryption.
//
// Records are sealed with AES-256-GCM under a key derived from the master
// password and the installation salt. Every ciphertext is a self-describing
// string:
//
//	vk1.a256gcm.<base64url(nonce || ciphertext || tag)>
//
// The "vk1.a256gcm" header is bound to the ciphertext as additional data, so
// a blob whose header was rewritten fails to open just like a blob sealed
// under another key.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

const (
	blobVersion   = "vk1"
	blobAlgorithm = "a256gcm"
	blobSeparator = "."
	nonceSize     = 12
)

var blobHeader = blobVersion + blobSeparator + blobAlgorithm

// MakeVerifier returns a digest of the derived key that can be stored to
// check a master password without decrypting any record.
func MakeVerifier(masterKey []byte) []byte {
	hash := sha256.Sum256(masterKey)
	return hash[:]
}

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidKey, len(key), KeySize)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errors.Join(ErrInvalidKey, err)
	}
	return cipher.NewGCM(block)
}

// Encrypt seals plaintext with AES-256-GCM using a fresh random nonce and
// returns the blob string described in the package documentation.
//
// The key must be KeySize bytes long.
func Encrypt(plaintext, key []byte) (string, error) {
	aesgcm, err := newGCM(key)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return "", errors.Join(ErrEncryptionFailed, err)
	}

	sealed := aesgcm.Seal(nonce, nonce, plaintext, []byte(blobHeader))

	return blobHeader + blobSeparator + base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a blob produced by Encrypt.
//
// A wrong key, a tampered or truncated payload, and an unknown header all
// yield ErrDecryptionFailed; garbage plaintext is never returned.
func Decrypt(blob string, key []byte) ([]byte, error) {
	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	parts := strings.SplitN(blob, blobSeparator, 3)
	if len(parts) != 3 {
		return nil, fmt.Errorf("%w: malformed blob", ErrDecryptionFailed)
	}
	if parts[0] != blobVersion || parts[1] != blobAlgorithm {
		return nil, fmt.Errorf("%w: unsupported blob %s.%s", ErrDecryptionFailed, parts[0], parts[1])
	}

	data, err := base64.RawURLEncoding.DecodeString(parts[2])
	if err != nil {
		return nil, errors.Join(ErrDecryptionFailed, err)
	}
	if len(data) < nonceSize+aesgcm.Overhead() {
		return nil, fmt.Errorf("%w: blob too short", ErrDecryptionFailed)
	}

	nonce, ciphertext := data[:nonceSize], data[nonceSize:]
	plaintext, err := aesgcm.Open(nil, nonce, ciphertext, []byte(blobHeader))
	if err != nil {
		return nil, errors.Join(ErrDecryptionFailed, err)
	}
	return plaintext, nil
}

// EncryptEntry serializes the given entry to JSON and encrypts it with Encrypt.
//
// Example:
//
//	blob, err := EncryptEntry(entry, key)
//	if err != nil {
//	    return err
//	}
func EncryptEntry(entry any, key []byte) (string, error) {
	plaintext, err := json.Marshal(entry)
	if err != nil {
		return "", errors.Join(ErrEncryptionFailed, err)
	}
	return Encrypt(plaintext, key)
}

// DecryptEntry decrypts blob and unmarshals the resulting JSON into v,
// which must be a pointer.
func DecryptEntry(blob string, key []byte, v any) error {
	plaintext, err := Decrypt(blob, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(plaintext, v); err != nil {
		return errors.Join(ErrDecryptionFailed, err)
	}
	return nil
}
