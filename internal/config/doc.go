// Package config loads vaultkeeper settings.
//
// Sources are applied in order, each overriding the previous one:
//
//  1. built-in defaults (LoadDefaults)
//  2. a JSON file named by -c / -config
//  3. a .env file in the working directory, then VAULTKEEPER_* environment variables
//  4. command-line flags
//
// Example JSON:
//
//	{
//	  "data_dir": "~/.vaultkeeper",
//	  "database_driver": "sqlite",
//	  "kdf": "argon2id",
//	  "log_level": "warn",
//	  "clipboard_clear_after": "45s",
//	  "qr_size": 320
//	}
package config
