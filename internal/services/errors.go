package services

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/vaultkeeper/internal/cryptox"
)

var (
	// ErrLocked is returned by store operations before the store is loaded.
	ErrLocked = errors.New("vault is locked")

	// ErrWrongPassword is returned when a master password does not match the
	// pinned verifier. It matches cryptox.ErrDecryptionFailed as well.
	ErrWrongPassword = fmt.Errorf("wrong master password: %w", cryptox.ErrDecryptionFailed)

	ErrEmptyPassword = errors.New("master password must not be empty")
)
