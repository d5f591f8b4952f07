package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/dmitrijs2005/vaultkeeper/internal/common"
	"github.com/dmitrijs2005/vaultkeeper/internal/models"
	"github.com/dmitrijs2005/vaultkeeper/internal/strength"
)

func (a *App) resolvePassword(ref string) (models.PasswordEntry, error) {
	entries, err := a.passwords.List()
	if err != nil {
		return models.PasswordEntry{}, err
	}
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	id, err := resolveID(ids, ref)
	if err != nil {
		return models.PasswordEntry{}, err
	}
	return a.passwords.Get(id)
}

// savePasswords persists the password collection. When that fails the
// in-memory state is reloaded so it matches storage again.
func (a *App) savePasswords(ctx context.Context) error {
	if err := a.passwords.Save(ctx, a.master); err != nil {
		a.log.Error(ctx, "saving passwords failed", "error", err)
		if lerr := a.passwords.Load(ctx, a.master); lerr != nil {
			a.log.Error(ctx, "reloading passwords failed", "error", lerr)
		}
		return fmt.Errorf("changes not saved: %w", err)
	}
	return nil
}

func (a *App) printEntries(entries []models.PasswordEntry) {
	if len(entries) == 0 {
		a.println("No passwords.")
		return
	}
	a.printf("%-8s  %-28s  %-24s  %-12s  %s\n", "ID", "WEBSITE", "USERNAME", "CATEGORY", "UPDATED")
	for _, e := range entries {
		a.printf("%-8s  %-28s  %-24s  %-12s  %s\n",
			shortID(e.ID), truncate(e.Website, 28), truncate(orDash(e.Username), 24),
			truncate(orDash(e.Category), 12), formatTime(e.LastUpdated))
	}
}

func (a *App) List(ctx context.Context) error {
	entries, err := a.passwords.List()
	if err != nil {
		return err
	}
	a.printEntries(entries)
	return nil
}

func (a *App) Search(ctx context.Context, term string) error {
	if term == "" {
		a.println("Usage: search <term>")
		return nil
	}
	entries, err := a.passwords.Search(term)
	if err != nil {
		return err
	}
	a.printEntries(entries)
	return nil
}

// Add asks for a new entry. An empty password is replaced with a generated
// one.
func (a *App) Add(ctx context.Context) error {
	website, err := GetSimpleText(a.reader, "Website", a.out)
	if err != nil {
		return err
	}
	username, err := GetSimpleText(a.reader, "Username", a.out)
	if err != nil {
		return err
	}
	category, err := GetSimpleText(a.reader, "Category", a.out)
	if err != nil {
		return err
	}
	password, err := a.readEntryPassword("Password (Enter generates one)", website, username)
	if err != nil {
		return err
	}
	if password == "" {
		if password, err = strength.Generate(strength.DefaultLength); err != nil {
			return err
		}
		a.printf("Generated a %d-character password.\n", strength.DefaultLength)
	}

	e, err := a.passwords.Add(models.NewPassword{
		Website:  website,
		Username: username,
		Password: password,
		Category: category,
	})
	if err != nil {
		return err
	}
	if err := a.savePasswords(ctx); err != nil {
		return err
	}

	a.log.Info(ctx, "password added", "id", e.ID)
	a.printf("Added %s (%s).\n", e.Website, shortID(e.ID))
	return nil
}

// readEntryPassword reads a site password without echo and reports its
// strength. An empty answer is returned as "".
func (a *App) readEntryPassword(prompt string, userInputs ...string) (string, error) {
	raw, err := GetPassword(a.out, prompt)
	if err != nil {
		return "", err
	}
	pw := string(raw)
	common.WipeByteArray(raw)

	if pw != "" {
		res := strength.Check(pw, userInputs...)
		a.printf("Strength: %d/%d, crack time %s.", res.Score, strength.MaxScore, res.CrackTime)
		if res.Feedback != "" {
			a.printf(" %s", res.Feedback)
		}
		a.println()
	}
	return pw, nil
}

func (a *App) Edit(ctx context.Context, ref string) error {
	e, err := a.resolvePassword(ref)
	if err != nil {
		return err
	}

	var patch models.PasswordPatch
	if patch.Website, err = GetOptionalText(a.reader, "Website", e.Website, a.out); err != nil {
		return err
	}
	if patch.Username, err = GetOptionalText(a.reader, "Username", e.Username, a.out); err != nil {
		return err
	}
	if patch.Category, err = GetOptionalText(a.reader, "Category", e.Category, a.out); err != nil {
		return err
	}
	pw, err := a.readEntryPassword("New password (Enter keeps the current one)", e.Website, e.Username)
	if err != nil {
		return err
	}
	if pw != "" {
		patch.Password = &pw
	}

	if patch.Empty() {
		a.println("Nothing changed.")
		return nil
	}

	updated, err := a.passwords.Update(e.ID, patch)
	if err != nil {
		return err
	}
	if err := a.savePasswords(ctx); err != nil {
		return err
	}

	a.log.Info(ctx, "password updated", "id", updated.ID)
	a.printf("Updated %s.\n", updated.Website)
	return nil
}

func (a *App) Show(ctx context.Context, ref string) error {
	e, err := a.resolvePassword(ref)
	if err != nil {
		return err
	}
	a.printf("ID:        %s\n", e.ID)
	a.printf("Website:   %s\n", e.Website)
	a.printf("Username:  %s\n", orDash(e.Username))
	a.printf("Password:  %s\n", e.Password)
	a.printf("Category:  %s\n", orDash(e.Category))
	a.printf("Updated:   %s\n", formatTime(e.LastUpdated))
	return nil
}

func (a *App) Delete(ctx context.Context, ref string) error {
	e, err := a.resolvePassword(ref)
	if err != nil {
		return err
	}
	ok, err := Confirm(a.reader, fmt.Sprintf("Delete %s (%s)?", e.Website, orDash(e.Username)), a.out)
	if err != nil || !ok {
		return err
	}

	if err := a.passwords.Remove(e.ID); err != nil {
		return err
	}
	if err := a.savePasswords(ctx); err != nil {
		return err
	}

	a.log.Info(ctx, "password deleted", "id", e.ID)
	a.println("Deleted.")
	return nil
}

func (a *App) DeleteAll(ctx context.Context) error {
	ok, err := Confirm(a.reader, "Delete ALL stored passwords?", a.out)
	if err != nil || !ok {
		return err
	}

	n, err := a.passwords.DeleteAll()
	if err != nil {
		return err
	}
	if err := a.savePasswords(ctx); err != nil {
		return err
	}

	a.log.Info(ctx, "all passwords deleted", "count", n)
	a.printf("Deleted %d passwords.\n", n)
	return nil
}

func (a *App) Copy(ctx context.Context, ref string) error {
	e, err := a.resolvePassword(ref)
	if err != nil {
		return err
	}
	return a.copyToClipboard(e.Password, "Password for "+e.Website)
}

// Generate prints a random password; length defaults to 16.
func (a *App) Generate(ctx context.Context, length string) error {
	n := strength.DefaultLength
	if length != "" {
		var err error
		if n, err = strconv.Atoi(length); err != nil {
			return fmt.Errorf("length %q is not a number", length)
		}
	}

	pw, err := strength.Generate(n)
	if err != nil {
		return err
	}
	res := strength.Check(pw)
	a.println(pw)
	a.printf("Strength: %d/%d, crack time %s.\n", res.Score, strength.MaxScore, res.CrackTime)
	return nil
}

// Strength scores a password typed without echo.
func (a *App) Strength(ctx context.Context) error {
	pw, err := a.readEntryPassword("Password to check")
	if err != nil {
		return err
	}
	if pw == "" {
		a.println("Nothing to check.")
	}
	return nil
}
