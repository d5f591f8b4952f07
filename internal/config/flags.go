package config

import (
	"flag"
	"io"

	"github.com/dmitrijs2005/vaultkeeper/internal/flagx"
)

var flagNames = []string{
	"-data-dir", "-db-driver", "-db-dsn", "-kdf", "-kdf-iterations",
	"-log-level", "-clipboard-clear", "-qr-size",
}

func parseFlags(cfg *Config, args []string) error {
	filtered := flagx.FilterArgs(args, flagNames)

	fs := flag.NewFlagSet("vaultkeeper", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "directory holding the vault database")
	fs.StringVar(&cfg.DatabaseDriver, "db-driver", cfg.DatabaseDriver, "database driver: sqlite or postgres")
	fs.StringVar(&cfg.DatabaseDSN, "db-dsn", cfg.DatabaseDSN, "database DSN (defaults to <data-dir>/vault.db)")
	fs.StringVar(&cfg.KDF, "kdf", cfg.KDF, "key derivation for new vaults: pbkdf2-sha256 or argon2id")
	iterations := fs.Uint("kdf-iterations", uint(cfg.KDFIterations), "KDF cost for new vaults (0 = default)")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")
	fs.DurationVar(&cfg.ClipboardClearAfter, "clipboard-clear", cfg.ClipboardClearAfter, "clear copied secrets after this long (0 = never)")
	fs.IntVar(&cfg.QRSize, "qr-size", cfg.QRSize, "edge length of exported QR codes in pixels")

	if err := fs.Parse(filtered); err != nil {
		return err
	}

	cfg.KDFIterations = uint32(*iterations)
	return nil
}

// Usage writes the flag help text to w.
func Usage(w io.Writer) {
	cfg := &Config{}
	cfg.LoadDefaults()

	fs := flag.NewFlagSet("vaultkeeper", flag.ContinueOnError)
	fs.SetOutput(w)
	fs.String("c", "", "path to a JSON config file (also -config)")
	fs.String("data-dir", cfg.DataDir, "directory holding the vault database")
	fs.String("db-driver", cfg.DatabaseDriver, "database driver: sqlite or postgres")
	fs.String("db-dsn", "", "database DSN (defaults to <data-dir>/vault.db)")
	fs.String("kdf", cfg.KDF, "key derivation for new vaults: pbkdf2-sha256 or argon2id")
	fs.Uint("kdf-iterations", 0, "KDF cost for new vaults (0 = default)")
	fs.String("log-level", cfg.LogLevel, "debug, info, warn or error")
	fs.Duration("clipboard-clear", cfg.ClipboardClearAfter, "clear copied secrets after this long (0 = never)")
	fs.Int("qr-size", cfg.QRSize, "edge length of exported QR codes in pixels")
	fs.PrintDefaults()
}
