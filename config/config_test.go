// Copyright (c) 2024 The BitFS developers
// Use of this source code is governed by the Open BSV License v5
// that can be found in the LICENSE file.

package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// DefaultConfig tests
// ---------------------------------------------------------------------------

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name string
		got  interface{}
		want interface{}
	}{
		{"LogLevel", cfg.LogLevel, "info"},
		{"LogFile", cfg.LogFile, ""},
		{"FeeBps", cfg.FeeBps, uint64(100)},
		{"InitialShareRatio", cfg.InitialShareRatio, "1"},
		{"AllowMint", cfg.AllowMint, false},
		{"QuoteSymbol", cfg.QuoteSymbol, "USDC"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.got != tc.want {
				t.Errorf("got %v, want %v", tc.got, tc.want)
			}
		})
	}

	if cfg.DataDir == "" {
		t.Error("DataDir should not be empty")
	}
}

// ---------------------------------------------------------------------------
// SaveConfig / LoadConfig round-trip tests
// ---------------------------------------------------------------------------

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)

	original := Config{
		DataDir:           "/tmp/test-synapse",
		LogLevel:          "debug",
		LogFile:           "/tmp/synapse.log",
		FeeBps:            30,
		InitialShareRatio: "2.5",
		AllowMint:         true,
		QuoteSymbol:       "DAI",
	}

	if err := SaveConfig(path, original); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if loaded != original {
		t.Errorf("round trip: got %+v, want %+v", loaded, original)
	}
}

func TestSaveConfigCreatesDirectory(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "subdir", FileName)

	cfg := DefaultConfig()
	if err := SaveConfig(path, cfg); err != nil {
		t.Fatalf("SaveConfig should create parent dirs: %v", err)
	}

	if _, err := os.Stat(path); err != nil {
		t.Errorf("Config file not created: %v", err)
	}
}

func TestSaveConfigRotatesBackups(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)

	for i, level := range []string{"debug", "info", "warn", "error", "debug"} {
		cfg := DefaultConfig()
		cfg.LogLevel = level
		if err := SaveConfig(path, cfg); err != nil {
			t.Fatalf("SaveConfig #%d: %v", i, err)
		}
	}

	// Five saves leave the current file plus three backups, newest first.
	wantLevels := map[string]string{
		path + ".back1": "error",
		path + ".back2": "warn",
		path + ".back3": "info",
	}
	for p, want := range wantLevels {
		cfg, err := LoadConfig(p)
		if err != nil {
			t.Fatalf("LoadConfig(%s): %v", filepath.Base(p), err)
		}
		if cfg.LogLevel != want {
			t.Errorf("%s LogLevel = %q, want %q", filepath.Base(p), cfg.LogLevel, want)
		}
	}
	if _, err := os.Stat(path + ".back4"); !os.IsNotExist(err) {
		t.Errorf("only three backups should be kept")
	}
}

// ---------------------------------------------------------------------------
// LoadConfig error tests
// ---------------------------------------------------------------------------

func TestLoadConfigNotFound(t *testing.T) {
	_, err := LoadConfig("/nonexistent/path/config.toml")
	if !errors.Is(err, ErrConfigNotFound) {
		t.Errorf("LoadConfig nonexistent: got %v, want ErrConfigNotFound", err)
	}
}

func TestLoadConfigInvalidSyntax(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)

	content := "this-is-not-key-value\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	_, err := LoadConfig(path)
	if !errors.Is(err, ErrInvalidConfigSyntax) {
		t.Errorf("LoadConfig bad line: got %v, want ErrInvalidConfigSyntax", err)
	}
}

func TestLoadConfigCommentsAndBlanks(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)

	content := `# This is a comment
fee_bps = 25

# Another comment
loglevel = "debug"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.FeeBps != 25 {
		t.Errorf("FeeBps = %d, want %d", cfg.FeeBps, 25)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "debug")
	}
	// Unset fields should retain defaults.
	if cfg.QuoteSymbol != "USDC" {
		t.Errorf("QuoteSymbol = %q, want default %q", cfg.QuoteSymbol, "USDC")
	}
}

func TestLoadConfigUnknownKeysIgnored(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)

	content := "futurekey = \"futurevalue\"\nallow_mint = true\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig with unknown key: %v", err)
	}
	if !cfg.AllowMint {
		t.Error("AllowMint = false, want true")
	}
}

func TestLoadConfig_ValueContainsEquals(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)

	content := "logfile = \"/tmp/a=b.log\"\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.LogFile != "/tmp/a=b.log" {
		t.Errorf("LogFile = %q, want %q", cfg.LogFile, "/tmp/a=b.log")
	}
}

func TestLoadConfig_WrongType(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)

	if err := os.WriteFile(path, []byte("fee_bps = \"lots\"\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Error("LoadConfig with string fee_bps: expected error, got nil")
	}
}

func TestLoadConfig_PermissionDenied(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission test not reliable on Windows")
	}
	if os.Getuid() == 0 {
		t.Skip("cannot test permission denial as root")
	}

	dir := t.TempDir()
	path := filepath.Join(dir, FileName)

	if err := os.WriteFile(path, []byte("fee_bps = 10\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := os.Chmod(path, 0000); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chmod(path, 0600) })

	_, err := LoadConfig(path)
	if err == nil {
		t.Fatal("LoadConfig on unreadable file: expected error, got nil")
	}
	if errors.Is(err, ErrConfigNotFound) {
		t.Error("LoadConfig on unreadable file should not return ErrConfigNotFound")
	}
}

// ---------------------------------------------------------------------------
// SaveConfig output format
// ---------------------------------------------------------------------------

func TestSaveConfig_OutputContainsHeaderAndKeys(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)

	if err := SaveConfig(path, DefaultConfig()); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	content := string(data)
	if !strings.HasPrefix(content, "# Synapse Configuration") {
		t.Error("saved config should start with header '# Synapse Configuration'")
	}

	keys := []string{"datadir", "loglevel", "logfile", "fee_bps", "initial_share_ratio", "allow_mint", "quote_symbol"}
	for _, key := range keys {
		if !strings.Contains(content, key+" = ") {
			t.Errorf("saved config should contain key %q", key)
		}
	}
}

// ---------------------------------------------------------------------------
// ValidateConfig tests
// ---------------------------------------------------------------------------

func TestValidateConfigDefaults(t *testing.T) {
	if err := ValidateConfig(DefaultConfig()); err != nil {
		t.Errorf("ValidateConfig(DefaultConfig()) = %v, want nil", err)
	}
}

func TestValidateConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr error
	}{
		{
			name:    "empty_datadir",
			modify:  func(c *Config) { c.DataDir = "" },
			wantErr: ErrEmptyDataDir,
		},
		{
			name:    "bad_loglevel",
			modify:  func(c *Config) { c.LogLevel = "verbose" },
			wantErr: ErrInvalidLogLevel,
		},
		{
			name:    "fee_too_high",
			modify:  func(c *Config) { c.FeeBps = 10000 },
			wantErr: ErrInvalidFeeBps,
		},
		{
			name:    "ratio_not_decimal",
			modify:  func(c *Config) { c.InitialShareRatio = "one" },
			wantErr: ErrInvalidShareRatio,
		},
		{
			name:    "ratio_zero",
			modify:  func(c *Config) { c.InitialShareRatio = "0" },
			wantErr: ErrInvalidShareRatio,
		},
		{
			name:    "ratio_empty",
			modify:  func(c *Config) { c.InitialShareRatio = "" },
			wantErr: ErrInvalidShareRatio,
		},
		{
			name:    "empty_symbol",
			modify:  func(c *Config) { c.QuoteSymbol = " " },
			wantErr: ErrInvalidQuoteSymbol,
		},
		{
			name:    "long_symbol",
			modify:  func(c *Config) { c.QuoteSymbol = "ABCDEFGHIJKLM" },
			wantErr: ErrInvalidQuoteSymbol,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.modify(&cfg)
			err := ValidateConfig(cfg)
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("ValidateConfig: got %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestValidateConfig_LogLevelCaseInsensitive(t *testing.T) {
	levels := []string{"INFO", "Debug", "WARN", "Error", "dEbUg"}
	for _, level := range levels {
		t.Run(level, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.LogLevel = level
			if err := ValidateConfig(cfg); err != nil {
				t.Errorf("ValidateConfig with LogLevel %q: %v", level, err)
			}
		})
	}
}

func TestShareRatio(t *testing.T) {
	cfg := DefaultConfig()
	cfg.InitialShareRatio = "0.5"
	r, err := cfg.ShareRatio()
	if err != nil {
		t.Fatalf("ShareRatio: %v", err)
	}
	if got := r.Dec(); got != "500000000000000000" {
		t.Errorf("ShareRatio = %s, want 5e17", got)
	}
}

// ---------------------------------------------------------------------------
// ResolveConfig tests
// ---------------------------------------------------------------------------

func TestResolveConfig_Priority(t *testing.T) {
	base := DefaultConfig()
	base.FeeBps = 50
	base.LogLevel = "warn"

	env := map[string]string{
		EnvFeeBps:      "75",
		EnvLogLevel:    "error",
		EnvAllowMint:   "true",
		EnvQuoteSymbol: "EURC",
	}
	fee := uint64(10)
	flags := &Overrides{FeeBps: &fee}

	cfg, err := ResolveConfig(base, env, flags)
	if err != nil {
		t.Fatalf("ResolveConfig: %v", err)
	}

	tests := []struct {
		name string
		got  interface{}
		want interface{}
	}{
		{"FeeBps from flag", cfg.FeeBps, uint64(10)},
		{"LogLevel from env", cfg.LogLevel, "error"},
		{"AllowMint from env", cfg.AllowMint, true},
		{"QuoteSymbol from env", cfg.QuoteSymbol, "EURC"},
		{"ShareRatio from base", cfg.InitialShareRatio, "1"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.got != tc.want {
				t.Errorf("got %v, want %v", tc.got, tc.want)
			}
		})
	}
}

func TestResolveConfig_FlagDisablesMint(t *testing.T) {
	off := false
	cfg, err := ResolveConfig(DefaultConfig(), map[string]string{EnvAllowMint: "1"}, &Overrides{AllowMint: &off})
	if err != nil {
		t.Fatalf("ResolveConfig: %v", err)
	}
	if cfg.AllowMint {
		t.Error("flag should override env")
	}
}

func TestResolveConfig_Errors(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr error
	}{
		{"bad fee", map[string]string{EnvFeeBps: "1%"}, ErrInvalidEnv},
		{"bad bool", map[string]string{EnvAllowMint: "sure"}, ErrInvalidEnv},
		{"fee out of range", map[string]string{EnvFeeBps: "20000"}, ErrInvalidFeeBps},
		{"bad ratio", map[string]string{EnvInitialShareRatio: "-1"}, ErrInvalidShareRatio},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ResolveConfig(DefaultConfig(), tc.env, nil)
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("got %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestResolveConfig_NilLayers(t *testing.T) {
	cfg, err := ResolveConfig(DefaultConfig(), nil, nil)
	if err != nil {
		t.Fatalf("ResolveConfig: %v", err)
	}
	if cfg != DefaultConfig() {
		t.Errorf("got %+v, want defaults", cfg)
	}
}

// ---------------------------------------------------------------------------
// Paths
// ---------------------------------------------------------------------------

func TestConfigPath(t *testing.T) {
	got := ConfigPath("/home/user/.synapse")
	want := filepath.Join("/home/user/.synapse", FileName)
	if got != want {
		t.Errorf("ConfigPath = %q, want %q", got, want)
	}
}

func TestConfigPath_WithTrailingSlash(t *testing.T) {
	got := ConfigPath("/foo/")
	want := filepath.Join("/foo", FileName)
	if got != want {
		t.Errorf("ConfigPath(%q) = %q, want %q", "/foo/", got, want)
	}
}

func TestDefaultDataDir_EndsWith_DotSynapse(t *testing.T) {
	dir := DefaultDataDir()
	if !strings.HasSuffix(dir, ".synapse") {
		t.Errorf("DefaultDataDir() = %q, want suffix %q", dir, ".synapse")
	}
}
