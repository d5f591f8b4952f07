package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/vaultkeeper/internal/filex"
	"github.com/dmitrijs2005/vaultkeeper/internal/models"
	"github.com/dmitrijs2005/vaultkeeper/internal/otp"
	"github.com/dmitrijs2005/vaultkeeper/internal/services"
)

func (a *App) resolveTwoFactor(ref string) (models.TwoFactorAccount, error) {
	accounts, err := a.twofa.List()
	if err != nil {
		return models.TwoFactorAccount{}, err
	}
	ids := make([]string, len(accounts))
	for i, acc := range accounts {
		ids[i] = acc.ID
	}
	id, err := resolveID(ids, ref)
	if err != nil {
		return models.TwoFactorAccount{}, err
	}
	return a.twofa.Get(id)
}

func (a *App) saveTwoFactor(ctx context.Context) error {
	if err := a.twofa.Save(ctx, a.master); err != nil {
		a.log.Error(ctx, "saving 2FA accounts failed", "error", err)
		if lerr := a.twofa.Load(ctx, a.master); lerr != nil {
			a.log.Error(ctx, "reloading 2FA accounts failed", "error", lerr)
		}
		return fmt.Errorf("changes not saved: %w", err)
	}
	return nil
}

func formatCode(r services.CodeResult) string {
	if r.Err != nil {
		return "error: " + r.Err.Error()
	}
	if r.Account.Type == otp.TypeHOTP {
		return fmt.Sprintf("%s  (counter %d)", r.Code, r.Account.Counter)
	}
	return fmt.Sprintf("%s  (%ds left)", r.Code, int((r.Remaining+time.Second-1)/time.Second))
}

// Codes prints the current code of every account. An account whose code
// cannot be computed shows its error in place of the code.
func (a *App) Codes(ctx context.Context) error {
	results, err := a.twofa.Codes(a.now())
	if err != nil {
		return err
	}
	if len(results) == 0 {
		a.println("No 2FA accounts.")
		return nil
	}

	a.printf("%-8s  %-5s  %-36s  %s\n", "ID", "TYPE", "ACCOUNT", "CODE")
	for _, r := range results {
		a.printf("%-8s  %-5s  %-36s  %s\n", shortID(r.Account.ID), r.Account.Type, truncate(r.Account.Label(), 36), formatCode(r))
		if r.Err != nil {
			a.log.Warn(ctx, "code generation failed", "id", r.Account.ID, "error", r.Err)
		}
	}
	return nil
}

// AddTwoFactor accepts either a provisioning URI or a bare secret followed
// by the account details.
func (a *App) AddTwoFactor(ctx context.Context) error {
	first, err := GetSimpleText(a.reader, "otpauth:// URI or base32 secret", a.out)
	if err != nil {
		return err
	}

	var acc otp.Account
	if strings.HasPrefix(strings.ToLower(first), "otpauth:") {
		if acc, err = otp.Parse(first); err != nil {
			return err
		}
	} else if acc, err = a.readAccountDetails(first); err != nil {
		return err
	}

	added, err := a.twofa.Add(acc)
	if err != nil {
		return err
	}
	if err := a.saveTwoFactor(ctx); err != nil {
		return err
	}

	a.log.Info(ctx, "2FA account added", "id", added.ID, "type", added.Type)
	a.printf("Added %s (%s).\n", added.Label(), shortID(added.ID))
	return nil
}

func (a *App) readAccountDetails(secret string) (otp.Account, error) {
	acc := otp.Account{Secret: secret, Algorithm: otp.AlgorithmSHA1, Digits: otp.DefaultDigits, Period: otp.DefaultPeriod}

	var err error
	if acc.Name, err = GetSimpleText(a.reader, "Account name", a.out); err != nil {
		return otp.Account{}, err
	}
	if acc.Issuer, err = GetSimpleText(a.reader, "Issuer", a.out); err != nil {
		return otp.Account{}, err
	}

	typ, err := GetSimpleText(a.reader, "Type: TOTP, HOTP or STEAM [TOTP]", a.out)
	if err != nil {
		return otp.Account{}, err
	}
	acc.Type = otp.TypeTOTP
	if typ != "" {
		if acc.Type, err = otp.ParseType(typ); err != nil {
			return otp.Account{}, err
		}
	}
	if acc.Type == otp.TypeSteam {
		return acc, nil
	}

	alg, err := GetSimpleText(a.reader, "Algorithm: SHA1, SHA256 or SHA512 [SHA1]", a.out)
	if err != nil {
		return otp.Account{}, err
	}
	if alg != "" {
		if acc.Algorithm, err = otp.ParseAlgorithm(alg); err != nil {
			return otp.Account{}, err
		}
	}

	if acc.Digits, err = a.readInt("Digits", otp.DefaultDigits); err != nil {
		return otp.Account{}, err
	}

	if acc.Type == otp.TypeHOTP {
		counter, err := a.readInt("Counter", 0)
		if err != nil {
			return otp.Account{}, err
		}
		if counter < 0 {
			return otp.Account{}, fmt.Errorf("%w: counter %d", otp.ErrInvalidParameters, counter)
		}
		acc.Counter = uint64(counter)
		return acc, nil
	}

	if acc.Period, err = a.readInt("Period in seconds", otp.DefaultPeriod); err != nil {
		return otp.Account{}, err
	}
	return acc, nil
}

func (a *App) readInt(prompt string, def int) (int, error) {
	s, err := GetSimpleText(a.reader, fmt.Sprintf("%s [%d]", prompt, def), a.out)
	if err != nil {
		return 0, err
	}
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q", otp.ErrInvalidParameters, strings.ToLower(prompt), s)
	}
	return n, nil
}

// ImportTwoFactor reads provisioning URIs, one per line, and adds every one
// that parses. Failures are listed without stopping the import.
func (a *App) ImportTwoFactor(ctx context.Context) error {
	lines, err := GetMultiline(a.reader, "Paste otpauth:// URIs, one per line", a.out)
	if err != nil {
		return err
	}
	if len(lines) == 0 {
		a.println("Nothing to import.")
		return nil
	}

	added, errs := a.twofa.ImportURIs(lines)
	for _, e := range errs {
		a.printf("Skipped %v\n", e)
	}
	if len(added) > 0 {
		if err := a.saveTwoFactor(ctx); err != nil {
			return err
		}
	}

	a.log.Info(ctx, "2FA import finished", "added", len(added), "failed", len(errs))
	a.printf("Imported %d of %d accounts.\n", len(added), len(added)+len(errs))
	return nil
}

// TwoFactorURI prints the provisioning URI, which includes the secret.
func (a *App) TwoFactorURI(ctx context.Context, ref string) error {
	acc, err := a.resolveTwoFactor(ref)
	if err != nil {
		return err
	}
	a.println(acc.URI())
	return nil
}

// TwoFactorQR writes the provisioning URI as a PNG QR code readable only by
// the owner.
func (a *App) TwoFactorQR(ctx context.Context, ref, path string) error {
	acc, err := a.resolveTwoFactor(ref)
	if err != nil {
		return err
	}
	png, err := otp.QRCode(acc.Account, a.config.QRSize)
	if err != nil {
		return err
	}
	if err := filex.WritePrivate(path, png); err != nil {
		return err
	}
	a.printf("QR code for %s written to %s.\n", acc.Label(), path)
	return nil
}

// TwoFactorNext advances a HOTP counter and prints the new code.
func (a *App) TwoFactorNext(ctx context.Context, ref string) error {
	acc, err := a.resolveTwoFactor(ref)
	if err != nil {
		return err
	}
	if _, err := a.twofa.AdvanceCounter(acc.ID); err != nil {
		return err
	}
	if err := a.saveTwoFactor(ctx); err != nil {
		return err
	}

	r, err := a.twofa.Code(acc.ID, a.now())
	if err != nil {
		return err
	}
	a.printf("%s  %s\n", acc.Label(), formatCode(r))
	return nil
}

func (a *App) TwoFactorCopy(ctx context.Context, ref string) error {
	acc, err := a.resolveTwoFactor(ref)
	if err != nil {
		return err
	}
	r, err := a.twofa.Code(acc.ID, a.now())
	if err != nil {
		return err
	}
	if r.Err != nil {
		return r.Err
	}
	return a.copyToClipboard(r.Code, "Code for "+acc.Label())
}

func (a *App) DeleteTwoFactor(ctx context.Context, ref string) error {
	acc, err := a.resolveTwoFactor(ref)
	if err != nil {
		return err
	}
	ok, err := Confirm(a.reader, fmt.Sprintf("Delete 2FA account %s?", acc.Label()), a.out)
	if err != nil || !ok {
		return err
	}

	if err := a.twofa.Remove(acc.ID); err != nil {
		return err
	}
	if err := a.saveTwoFactor(ctx); err != nil {
		return err
	}

	a.log.Info(ctx, "2FA account deleted", "id", acc.ID)
	a.println("Deleted.")
	return nil
}
