// Copyright (c) 2024 The BitFS developers
// Use of this source code is governed by the Open BSV License v5
// that can be found in the LICENSE file.

package config

import (
	"strings"

	"github.com/bitfsorg/libsynapse-go/errors"
	"github.com/bitfsorg/libsynapse-go/fixedpoint"
)

// validLogLevels lists the accepted log level strings.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// maxQuoteSymbolLen bounds the quote ticker.
const maxQuoteSymbolLen = 12

// ValidateConfig checks that all configuration values are within acceptable
// ranges and returns the first error encountered, or nil if valid.
func ValidateConfig(cfg Config) error {
	if cfg.DataDir == "" {
		return ErrEmptyDataDir
	}

	if !validLogLevels[strings.ToLower(cfg.LogLevel)] {
		return ErrInvalidLogLevel
	}

	if cfg.FeeBps >= fixedpoint.BpsDenominator {
		return errors.Wrapf(ErrInvalidFeeBps, "got %d", cfg.FeeBps)
	}

	if _, err := cfg.ShareRatio(); err != nil {
		return err
	}

	if n := len(strings.TrimSpace(cfg.QuoteSymbol)); n == 0 || n > maxQuoteSymbolLen {
		return ErrInvalidQuoteSymbol
	}

	return nil
}
