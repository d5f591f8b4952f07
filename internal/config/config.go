package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/dmitrijs2005/vaultkeeper/internal/cryptox"
	"github.com/dmitrijs2005/vaultkeeper/internal/filex"
	"github.com/dmitrijs2005/vaultkeeper/internal/logging"
	"github.com/dmitrijs2005/vaultkeeper/internal/otp"
	"github.com/dmitrijs2005/vaultkeeper/internal/repositories/repomanager"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "VAULTKEEPER_"

// DatabaseFile is the SQLite file created inside DataDir when no DSN is set.
const DatabaseFile = "vault.db"

type Config struct {
	DataDir        string `env:"DATA_DIR"`
	DatabaseDriver string `env:"DATABASE_DRIVER"`
	DatabaseDSN    string `env:"DATABASE_DSN"`

	// KDF and KDFIterations only apply when a new vault is created; an
	// existing vault keeps the parameters it was created with.
	KDF           string `env:"KDF"`
	KDFIterations uint32 `env:"KDF_ITERATIONS"`

	LogLevel string `env:"LOG_LEVEL"`

	// ClipboardClearAfter of zero leaves copied secrets on the clipboard.
	ClipboardClearAfter time.Duration `env:"CLIPBOARD_CLEAR_AFTER"`
	QRSize              int           `env:"QR_SIZE"`
}

func (c *Config) LoadDefaults() {
	if dir, err := filex.DefaultDataDir(); err == nil {
		c.DataDir = dir
	} else {
		c.DataDir = "." + filex.AppDirName
	}
	c.DatabaseDriver = repomanager.DriverSQLite
	c.DatabaseDSN = ""
	c.KDF = string(cryptox.KDFPBKDF2SHA256)
	c.KDFIterations = 0
	c.LogLevel = "warn"
	c.ClipboardClearAfter = 30 * time.Second
	c.QRSize = otp.DefaultQRSize
}

// Load builds the configuration from all sources. args excludes the program
// name.
func Load(args []string) (*Config, error) {
	return load(args, nil)
}

func load(args []string, environ map[string]string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseJSON(cfg, args); err != nil {
		return nil, err
	}
	if err := loadDotEnv(); err != nil {
		return nil, err
	}
	if err := parseEnv(cfg, environ); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values that can be checked without touching the disk.
func (c *Config) Validate() error {
	if _, err := repomanager.New(c.DatabaseDriver); err != nil {
		return err
	}
	if c.DatabaseDriver == repomanager.DriverPostgres && c.DatabaseDSN == "" {
		return fmt.Errorf("database_dsn is required for driver %q", c.DatabaseDriver)
	}
	if _, err := c.KDFParams(); err != nil {
		return err
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.ClipboardClearAfter < 0 {
		return fmt.Errorf("clipboard_clear_after must not be negative")
	}
	if c.QRSize <= 0 {
		return fmt.Errorf("qr_size must be positive, got %d", c.QRSize)
	}
	return nil
}

// KDFParams returns the parameters a new vault is created with. Zero
// iterations selects the algorithm's default cost.
func (c *Config) KDFParams() (cryptox.KDFParams, error) {
	alg, err := cryptox.ParseKDF(c.KDF)
	if err != nil {
		return cryptox.KDFParams{}, err
	}

	p := cryptox.DefaultKDFParams()
	if alg == cryptox.KDFArgon2id {
		p = cryptox.Argon2idKDFParams()
	}
	if c.KDFIterations != 0 {
		p.Iterations = c.KDFIterations
	}
	if err := p.Validate(); err != nil {
		return cryptox.KDFParams{}, err
	}
	return p, nil
}

// DSN returns DatabaseDSN, or the SQLite file inside DataDir when it is empty.
func (c *Config) DSN() string {
	if c.DatabaseDSN != "" {
		return c.DatabaseDSN
	}
	return filepath.Join(c.DataDir, DatabaseFile)
}
