package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/vaultkeeper/internal/flagx"
	"github.com/dmitrijs2005/vaultkeeper/internal/timex"
)

type JSONConfig struct {
	DataDir             string         `json:"data_dir"`
	DatabaseDriver      string         `json:"database_driver"`
	DatabaseDSN         string         `json:"database_dsn"`
	KDF                 string         `json:"kdf"`
	KDFIterations       uint32         `json:"kdf_iterations"`
	LogLevel            string         `json:"log_level"`
	ClipboardClearAfter timex.Duration `json:"clipboard_clear_after"`
	QRSize              int            `json:"qr_size"`
}

// parseJSON overlays the file named by -c/-config onto cfg. Keys missing from
// the file keep their current values.
func parseJSON(cfg *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	jc := JSONConfig{
		DataDir:             cfg.DataDir,
		DatabaseDriver:      cfg.DatabaseDriver,
		DatabaseDSN:         cfg.DatabaseDSN,
		KDF:                 cfg.KDF,
		KDFIterations:       cfg.KDFIterations,
		LogLevel:            cfg.LogLevel,
		ClipboardClearAfter: timex.Duration{Duration: cfg.ClipboardClearAfter},
		QRSize:              cfg.QRSize,
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.DataDir = jc.DataDir
	cfg.DatabaseDriver = jc.DatabaseDriver
	cfg.DatabaseDSN = jc.DatabaseDSN
	cfg.KDF = jc.KDF
	cfg.KDFIterations = jc.KDFIterations
	cfg.LogLevel = jc.LogLevel
	cfg.ClipboardClearAfter = jc.ClipboardClearAfter.Duration
	cfg.QRSize = jc.QRSize
	return nil
}
