package models

import (
	"strings"

	"github.com/dmitrijs2005/vaultkeeper/internal/otp"
)

// TwoFactorAccount is an authenticator entry. The otp.Account fields are
// flattened into the same JSON object as the ID.
type TwoFactorAccount struct {
	ID string `json:"id"`
	otp.Account
}

// Matches does a case-insensitive substring search over name and issuer.
func (a TwoFactorAccount) Matches(term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(a.Name), term) ||
		strings.Contains(strings.ToLower(a.Issuer), term)
}

// TwoFactorPatch is a partial update of an authenticator entry; nil fields are
// left unchanged.
type TwoFactorPatch struct {
	Name      *string
	Issuer    *string
	Secret    *string
	Type      *otp.Type
	Algorithm *otp.Algorithm
	Digits    *int
	Period    *int
	Counter   *uint64
}

// Apply copies the non-nil fields of patch into a. The result is not
// validated.
func (a *TwoFactorAccount) Apply(patch TwoFactorPatch) {
	if patch.Name != nil {
		a.Name = *patch.Name
	}
	if patch.Issuer != nil {
		a.Issuer = *patch.Issuer
	}
	if patch.Secret != nil {
		a.Secret = otp.NormalizeSecret(*patch.Secret)
	}
	if patch.Type != nil {
		a.Type = *patch.Type
	}
	if patch.Algorithm != nil {
		a.Algorithm = *patch.Algorithm
	}
	if patch.Digits != nil {
		a.Digits = *patch.Digits
	}
	if patch.Period != nil {
		a.Period = *patch.Period
	}
	if patch.Counter != nil {
		a.Counter = *patch.Counter
	}
}
