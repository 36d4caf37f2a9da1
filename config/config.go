// Copyright (c) 2024 The BitFS developers
// Use of this source code is governed by the Open BSV License v5
// that can be found in the LICENSE file.

// Package config loads and saves the engine's TOML configuration file and
// layers environment variables and command-line flags on top of it.
package config

import (
	"os"
	"path/filepath"

	btoml "github.com/BurntSushi/toml"
	"github.com/holiman/uint256"
	"github.com/pelletier/go-toml/v2"

	"github.com/bitfsorg/libsynapse-go/errors"
	"github.com/bitfsorg/libsynapse-go/fixedpoint"
)

// FileName is the configuration file name inside the data directory.
const FileName = "config.toml"

const header = "# Synapse Configuration\n# Amounts and ratios are decimal strings with up to 18 fraction digits.\n\n"

// Config holds engine settings.
type Config struct {
	DataDir  string `toml:"datadir"`
	LogLevel string `toml:"loglevel"`
	LogFile  string `toml:"logfile"`

	// FeeBps is the swap fee for new pools in basis points.
	FeeBps uint64 `toml:"fee_bps"`
	// InitialShareRatio is shares minted per unit of a pool's first deposit.
	InitialShareRatio string `toml:"initial_share_ratio"`
	// AllowMint enables the development quote faucet.
	AllowMint   bool   `toml:"allow_mint"`
	QuoteSymbol string `toml:"quote_symbol"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		DataDir:           DefaultDataDir(),
		LogLevel:          "info",
		FeeBps:            100,
		InitialShareRatio: "1",
		QuoteSymbol:       "USDC",
	}
}

// DefaultDataDir returns ~/.synapse, or .synapse in the working directory
// when the home directory is unknown.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".synapse"
	}
	return filepath.Join(home, ".synapse")
}

// ConfigPath returns the configuration file path for dataDir.
func ConfigPath(dataDir string) string {
	return filepath.Join(dataDir, FileName)
}

// ShareRatio parses InitialShareRatio.
func (c Config) ShareRatio() (*uint256.Int, error) {
	r, err := fixedpoint.Parse(c.InitialShareRatio)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidShareRatio, "%q: %v", c.InitialShareRatio, err)
	}
	if r.IsZero() {
		return nil, errors.Wrap(ErrInvalidShareRatio, "must be positive")
	}
	return r, nil
}

// LoadConfig reads path on top of the defaults. Keys missing from the file
// keep their default value; unknown keys are ignored.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return cfg, errors.Wrap(ErrConfigNotFound, path)
		}
		return cfg, errors.Wrap(err, "config: stat")
	}
	if _, err := btoml.DecodeFile(path, &cfg); err != nil {
		var perr btoml.ParseError
		if errors.As(err, &perr) {
			return cfg, errors.Wrapf(ErrInvalidConfigSyntax, "%s: %s", path, perr.Message)
		}
		return cfg, errors.Wrap(err, "config: read")
	}
	return cfg, nil
}

// SaveConfig writes cfg to path, creating parent directories and rotating
// up to three backups (.back1 newest) of the previous file.
func SaveConfig(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return errors.Wrap(err, "config: create directory")
	}
	if err := createBackup(path); err != nil {
		return errors.Wrap(err, "config: backup")
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "config: marshal")
	}
	out := append([]byte(header), data...)
	if err := os.WriteFile(path, out, 0600); err != nil {
		return errors.Wrap(err, "config: write")
	}
	return nil
}

// createBackup rotates .back2 -> .back3, .back1 -> .back2 and copies the
// current file to .back1. A missing file is not an error.
func createBackup(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	back1, back2, back3 := path+".back1", path+".back2", path+".back3"

	if err := os.Remove(back3); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "remove .back3")
	}
	if _, err := os.Stat(back2); err == nil {
		if err := os.Rename(back2, back3); err != nil {
			return errors.Wrap(err, "rotate .back2 to .back3")
		}
	}
	if _, err := os.Stat(back1); err == nil {
		if err := os.Rename(back1, back2); err != nil {
			return errors.Wrap(err, "rotate .back1 to .back2")
		}
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "read current config")
	}
	return os.WriteFile(back1, content, 0600)
}
