// Copyright (c) 2024 The BitFS developers
// Use of this source code is governed by the Open BSV License v5
// that can be found in the LICENSE file.

package config

import "github.com/bitfsorg/libsynapse-go/errors"

var (
	// ErrInvalidLogLevel indicates the log level is not recognized.
	ErrInvalidLogLevel = errors.New("config: invalid log level (must be \"debug\", \"info\", \"warn\", or \"error\")")

	// ErrEmptyDataDir indicates the data directory path is empty.
	ErrEmptyDataDir = errors.New("config: data directory must not be empty")

	// ErrConfigNotFound indicates the configuration file does not exist.
	ErrConfigNotFound = errors.New("config: configuration file not found")

	// ErrInvalidConfigSyntax indicates the config file is not valid TOML.
	ErrInvalidConfigSyntax = errors.New("config: invalid configuration syntax")

	// ErrInvalidFeeBps indicates a swap fee of 100% or more.
	ErrInvalidFeeBps = errors.New("config: fee_bps must be below 10000")

	// ErrInvalidShareRatio indicates initial_share_ratio is not a positive decimal.
	ErrInvalidShareRatio = errors.New("config: invalid initial_share_ratio")

	// ErrInvalidQuoteSymbol indicates an empty or oversized quote ticker.
	ErrInvalidQuoteSymbol = errors.New("config: quote_symbol must be 1-12 characters")

	// ErrInvalidEnv indicates an environment override could not be parsed.
	ErrInvalidEnv = errors.New("config: invalid environment value")
)
