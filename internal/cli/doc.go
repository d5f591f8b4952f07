// Package cli is the interactive vaultkeeper front end.
//
// NewApp opens the database, runs migrations and wires the vault services;
// App.Run starts a read-eval-print loop on stdin that lasts until "exit",
// "quit" or end of input. The vault starts locked. "unlock" asks for the master
// password (or creates one on first use) and decrypts both collections into
// memory; every mutation is written back immediately. "lock" forgets the
// password and the decrypted entries.
//
// Entries are addressed by id; any unique prefix of an id is accepted, so the
// eight characters shown by "list" and "2fa" are enough.
package cli
