package models

import "time"

// Kind selects the record collection a row belongs to.
type Kind string

const (
	KindPasswords Kind = "passwords"
	KindTwoFactor Kind = "two_factor_accounts"
)

// Valid reports whether k names a known collection.
func (k Kind) Valid() bool {
	return k == KindPasswords || k == KindTwoFactor
}

// Record is one encrypted row as persisted by the records repository.
type Record struct {
	// ID equals the ID of the plaintext entry.
	ID string

	Kind Kind

	// Blob is the self-describing ciphertext of the entry's JSON.
	Blob string

	// UpdatedAt mirrors the entry's last modification time in UTC.
	UpdatedAt time.Time
}
