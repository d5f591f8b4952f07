// Package models defines the records kept in the vault and the encrypted row
// form they take at rest.
package models
