package commands

import (
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/bitfsorg/libsynapse-go/config"
	"github.com/bitfsorg/libsynapse-go/errors"
)

// InitCmd writes a config file into the data directory.
var InitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file into the data directory",
	Args:  cobra.NoArgs,
	RunE:  runInit,
}

var (
	initForce     bool
	initAllowMint bool
	initQuote     string
)

func init() {
	InitCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing config (previous copies are rotated to .back1-3)")
	InitCmd.Flags().BoolVar(&initAllowMint, "allow-mint", false, "enable the quote faucet")
	InitCmd.Flags().StringVar(&initQuote, "quote-symbol", "", "quote token symbol")
}

func runInit(cmd *cobra.Command, args []string) error {
	path := config.ConfigPath(cfg.DataDir)
	if _, err := os.Stat(path); err == nil && !initForce {
		return errors.WithHint(errors.Newf("config already exists at %s", path), "pass --force to overwrite it")
	}

	out := cfg
	if initAllowMint {
		out.AllowMint = true
	}
	if initQuote != "" {
		out.QuoteSymbol = initQuote
	}
	if err := config.ValidateConfig(out); err != nil {
		return err
	}
	if err := config.SaveConfig(path, out); err != nil {
		return err
	}
	pterm.Success.Printfln("Wrote %s", path)
	return nil
}
