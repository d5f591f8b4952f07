package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/dmitrijs2005/vaultkeeper/internal/common"
	"github.com/dmitrijs2005/vaultkeeper/internal/models"
	"github.com/dmitrijs2005/vaultkeeper/internal/strength"
)

var (
	errPasswordMismatch = errors.New("passwords do not match")
	errCancelled        = errors.New("cancelled")
)

// minMasterScore is the strength score below which a new master password
// needs explicit confirmation.
const minMasterScore = 3

// Unlock asks for the master password and decrypts both collections. On a new
// vault it asks for a new master password instead.
func (a *App) Unlock(ctx context.Context) error {
	if a.isUnlocked() {
		a.println("Already unlocked.")
		return nil
	}

	initialized, err := a.vault.Initialized(ctx)
	if err != nil {
		return err
	}

	var pw []byte
	if initialized {
		pw, err = GetPassword(a.out, "Master password")
	} else {
		a.println("No vault yet. Choose a master password; it cannot be recovered if lost.")
		pw, err = a.newMasterPassword()
	}
	if err != nil {
		return err
	}

	if err := a.loadAll(ctx, pw); err != nil {
		if !initialized {
			a.abandonNewVault(ctx, pw)
		}
		common.WipeByteArray(pw)
		return err
	}
	a.master = pw

	pws, _ := a.passwords.List()
	accs, _ := a.twofa.List()
	a.printf("Unlocked: %d passwords, %d 2FA accounts.\n", len(pws), len(accs))
	a.log.Info(ctx, "vault unlocked", "passwords", len(pws), "two_factor_accounts", len(accs))
	return nil
}

// abandonNewVault undoes the master password pinned by a first unlock that
// failed before both collections were loaded. A new vault holds no records,
// so the reset loses nothing.
func (a *App) abandonNewVault(ctx context.Context, pw []byte) {
	initialized, err := a.vault.Initialized(ctx)
	if err != nil || !initialized {
		return
	}
	if err := a.vault.Reset(ctx, pw); err != nil {
		a.log.Error(ctx, "could not undo vault creation", "error", err)
	}
}

func (a *App) loadAll(ctx context.Context, pw []byte) error {
	if err := a.passwords.Load(ctx, pw); err != nil {
		return err
	}
	if err := a.twofa.Load(ctx, pw); err != nil {
		a.passwords.Lock()
		return err
	}
	return nil
}

// newMasterPassword reads a new master password twice. Weak passwords need
// confirmation.
func (a *App) newMasterPassword() ([]byte, error) {
	pw, err := GetPassword(a.out, "New master password")
	if err != nil {
		return nil, err
	}
	if len(pw) == 0 {
		return nil, errors.New("master password must not be empty")
	}

	res := strength.Check(string(pw))
	a.printf("Strength: %d/%d, crack time %s.\n", res.Score, strength.MaxScore, res.CrackTime)
	if res.Score < minMasterScore {
		if res.Feedback != "" {
			a.println(res.Feedback)
		}
		ok, err := Confirm(a.reader, "This master password is weak. Use it anyway?", a.out)
		if err != nil {
			common.WipeByteArray(pw)
			return nil, err
		}
		if !ok {
			common.WipeByteArray(pw)
			return nil, errCancelled
		}
	}

	again, err := GetPassword(a.out, "Repeat master password")
	if err != nil {
		common.WipeByteArray(pw)
		return nil, err
	}
	defer common.WipeByteArray(again)
	if !bytes.Equal(pw, again) {
		common.WipeByteArray(pw)
		return nil, errPasswordMismatch
	}
	return pw, nil
}

// Lock forgets the master password and the decrypted entries.
func (a *App) Lock(ctx context.Context) error {
	a.lock()
	a.log.Info(ctx, "vault locked")
	a.println("Locked.")
	return nil
}

// ChangePassword re-encrypts the vault under a new master password.
func (a *App) ChangePassword(ctx context.Context) error {
	current, err := GetPassword(a.out, "Current master password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(current)

	next, err := a.newMasterPassword()
	if err != nil {
		return err
	}

	a.println("Re-encrypting the vault...")
	if err := a.vault.ChangePassword(ctx, current, next); err != nil {
		common.WipeByteArray(next)
		return err
	}

	a.lock()
	if err := a.loadAll(ctx, next); err != nil {
		common.WipeByteArray(next)
		return err
	}
	a.master = next
	a.println("Master password changed.")
	return nil
}

// Status prints what is stored without unlocking.
func (a *App) Status(ctx context.Context) error {
	st, err := a.vault.Status(ctx)
	if err != nil {
		return err
	}

	state := "locked"
	if a.isUnlocked() {
		state = "unlocked"
	}

	a.printf("Database:     %s\n", a.config.DatabaseDriver)
	if a.config.DatabaseDSN == "" {
		a.printf("Location:     %s\n", a.config.DSN())
	}
	if !st.Initialized {
		a.println("Vault:        not initialized (run 'unlock' to create it)")
	} else {
		a.printf("Vault:        initialized, %s\n", state)
		kdf := fmt.Sprintf("%s, %d iterations", st.KDF.Algorithm, st.KDF.Iterations)
		if st.KDF.Memory > 0 {
			kdf += fmt.Sprintf(", %d KiB, %d threads", st.KDF.Memory, st.KDF.Threads)
		}
		a.printf("KDF:          %s\n", kdf)
	}
	a.printf("Passwords:    %d\n", st.Records[models.KindPasswords])
	a.printf("2FA accounts: %d\n", st.Records[models.KindTwoFactor])

	keys := append([]string(nil), st.MetadataKeys...)
	sort.Strings(keys)
	a.printf("Metadata:     %s\n", orDash(strings.Join(keys, ", ")))
	return nil
}

// Reset wipes all records and the master password after confirmation. The
// salt is kept.
func (a *App) Reset(ctx context.Context) error {
	ok, err := Confirm(a.reader, "This permanently deletes all passwords and 2FA accounts. Continue?", a.out)
	if err != nil {
		return err
	}
	if !ok {
		a.println("Nothing deleted.")
		return nil
	}

	initialized, err := a.vault.Initialized(ctx)
	if err != nil {
		return err
	}

	var pw []byte
	if initialized {
		if pw, err = GetPassword(a.out, "Master password"); err != nil {
			return err
		}
		defer common.WipeByteArray(pw)
	}

	if err := a.vault.Reset(ctx, pw); err != nil {
		return err
	}
	a.lock()
	a.println("Vault reset. Run 'unlock' to choose a new master password.")
	return nil
}
