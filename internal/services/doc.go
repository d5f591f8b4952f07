// Package services holds the vault's application services.
//
// Vault owns the master-password lifecycle: it derives keys from the
// installation salt, pins the KDF parameters and verifier on first use and
// re-encrypts everything on a password change. PasswordStore and
// TwoFactorStore keep decrypted collections in memory and write them back
// through Vault as one encrypted row per entry.
package services
