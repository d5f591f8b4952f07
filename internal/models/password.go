package models

import (
	"strings"
	"time"
)

// PasswordEntry is a stored website credential.
type PasswordEntry struct {
	ID          string    `json:"id"`
	Website     string    `json:"website"`
	Username    string    `json:"username"`
	Password    string    `json:"password"`
	Category    string    `json:"category"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// NewPassword carries the caller-supplied fields of a new entry. The store
// assigns ID and LastUpdated.
type NewPassword struct {
	Website  string
	Username string
	Password string
	Category string
}

// PasswordPatch is a partial update; nil fields are left unchanged.
type PasswordPatch struct {
	Website  *string
	Username *string
	Password *string
	Category *string
}

// Empty reports whether the patch changes nothing.
func (p PasswordPatch) Empty() bool {
	return p.Website == nil && p.Username == nil && p.Password == nil && p.Category == nil
}

// Apply copies the non-nil fields of patch into e. It does not touch
// LastUpdated.
func (e *PasswordEntry) Apply(patch PasswordPatch) {
	if patch.Website != nil {
		e.Website = *patch.Website
	}
	if patch.Username != nil {
		e.Username = *patch.Username
	}
	if patch.Password != nil {
		e.Password = *patch.Password
	}
	if patch.Category != nil {
		e.Category = *patch.Category
	}
}

// Matches does a case-insensitive substring search over website, username
// and category. An empty term matches everything.
func (e PasswordEntry) Matches(term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	for _, field := range []string{e.Website, e.Username, e.Category} {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}
