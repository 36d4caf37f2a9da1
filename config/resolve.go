// Copyright (c) 2024 The BitFS developers
// Use of this source code is governed by the Open BSV License v5
// that can be found in the LICENSE file.

package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/bitfsorg/libsynapse-go/errors"
)

// Environment variable names read by ResolveConfig.
const (
	EnvDataDir           = "SYNAPSE_DATADIR"
	EnvLogLevel          = "SYNAPSE_LOG_LEVEL"
	EnvLogFile           = "SYNAPSE_LOG_FILE"
	EnvFeeBps            = "SYNAPSE_FEE_BPS"
	EnvInitialShareRatio = "SYNAPSE_INITIAL_SHARE_RATIO"
	EnvAllowMint         = "SYNAPSE_ALLOW_MINT"
	EnvQuoteSymbol       = "SYNAPSE_QUOTE_SYMBOL"
)

// Overrides carries command-line flag values. Zero values and nil pointers
// mean "not set".
type Overrides struct {
	DataDir   string
	LogLevel  string
	LogFile   string
	FeeBps    *uint64
	AllowMint *bool
}

// Environ returns the process environment as a map for ResolveConfig.
func Environ() map[string]string {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok && strings.HasPrefix(k, "SYNAPSE_") {
			env[k] = v
		}
	}
	return env
}

// ResolveConfig merges configuration with the following priority
// (highest wins):
//
//  1. CLI flags
//  2. Environment variables (SYNAPSE_*)
//  3. base (the config file, or DefaultConfig)
//
// The merged result is validated.
func ResolveConfig(base Config, env map[string]string, flags *Overrides) (Config, error) {
	result := base

	// Layer 2: environment variables override the file.
	if env != nil {
		if v, ok := env[EnvDataDir]; ok && v != "" {
			result.DataDir = v
		}
		if v, ok := env[EnvLogLevel]; ok && v != "" {
			result.LogLevel = v
		}
		if v, ok := env[EnvLogFile]; ok && v != "" {
			result.LogFile = v
		}
		if v, ok := env[EnvFeeBps]; ok && v != "" {
			fee, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return Config{}, errors.Wrapf(ErrInvalidEnv, "%s=%q", EnvFeeBps, v)
			}
			result.FeeBps = fee
		}
		if v, ok := env[EnvInitialShareRatio]; ok && v != "" {
			result.InitialShareRatio = v
		}
		if v, ok := env[EnvAllowMint]; ok && v != "" {
			allow, err := strconv.ParseBool(v)
			if err != nil {
				return Config{}, errors.Wrapf(ErrInvalidEnv, "%s=%q", EnvAllowMint, v)
			}
			result.AllowMint = allow
		}
		if v, ok := env[EnvQuoteSymbol]; ok && v != "" {
			result.QuoteSymbol = v
		}
	}

	// Layer 3: CLI flags have highest priority.
	if flags != nil {
		if flags.DataDir != "" {
			result.DataDir = flags.DataDir
		}
		if flags.LogLevel != "" {
			result.LogLevel = flags.LogLevel
		}
		if flags.LogFile != "" {
			result.LogFile = flags.LogFile
		}
		if flags.FeeBps != nil {
			result.FeeBps = *flags.FeeBps
		}
		if flags.AllowMint != nil {
			result.AllowMint = *flags.AllowMint
		}
	}

	if err := ValidateConfig(result); err != nil {
		return Config{}, err
	}
	return result, nil
}
