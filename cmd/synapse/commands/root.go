package commands

import (
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bitfsorg/libsynapse-go/config"
	"github.com/bitfsorg/libsynapse-go/errors"
	"github.com/bitfsorg/libsynapse-go/logger"
	"github.com/bitfsorg/libsynapse-go/market"
	"github.com/bitfsorg/libsynapse-go/store"
)

// RootCmd is the synapse entry point.
var RootCmd = &cobra.Command{
	Use:   "synapse",
	Short: "Knowledge marketplace engine",
	Long: `synapse - credit ledger, contributor pools and expert payments.

Accounts are 0x-prefixed hex addresses or plain names (hashed to an address).
Amounts are decimal strings with up to 18 fraction digits.

Examples:
  synapse init --allow-mint             # write a config with the faucet on
  synapse faucet alice 100              # mint 100 quote to alice
  synapse deposit alice 100             # buy 100 usage credits
  synapse pool create bob "Bob" 1000    # open bob's pool
  synapse expert contribute rust 1 0.9  # pool 1 backs expert "rust"
  synapse pay rust 20 alice             # route 20 credits to the expert
  synapse audit                         # check conservation`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

var (
	dataDirFlag  string
	logLevelFlag string
	logFileFlag  string
	feeBpsFlag   uint64

	// Set by setup for commands that need the engine.
	cfg config.Config
	log *zap.SugaredLogger
	mkt *market.Market
)

func init() {
	pf := RootCmd.PersistentFlags()
	pf.StringVar(&dataDirFlag, "datadir", "", "data directory (default ~/.synapse)")
	pf.StringVar(&logLevelFlag, "log-level", "", "log level: debug, info, warn, error")
	pf.StringVar(&logFileFlag, "log-file", "", "write JSON logs to this file instead of stderr")
	pf.Uint64Var(&feeBpsFlag, "fee-bps", 0, "swap fee in basis points for new pools")

	RootCmd.AddCommand(InitCmd)
	RootCmd.AddCommand(FaucetCmd, DepositCmd, WithdrawCmd, AccountCmd, ChargeCmd, BalancesCmd)
	RootCmd.AddCommand(PoolCmd, QuoteCmd, SwapCmd, TransferCmd, EarningsCmd, SettleCmd)
	RootCmd.AddCommand(ExpertCmd, PayCmd, AuditCmd)
}

// Execute runs the command line and closes the engine afterwards, whether
// or not the command failed.
func Execute() error {
	err := RootCmd.Execute()
	if cerr := teardown(); err == nil {
		err = cerr
	}
	return err
}

// resolveConfig layers the config file, SYNAPSE_* variables and flags.
func resolveConfig(cmd *cobra.Command) (config.Config, error) {
	env := config.Environ()
	dataDir := config.DefaultDataDir()
	if v := env[config.EnvDataDir]; v != "" {
		dataDir = v
	}
	if dataDirFlag != "" {
		dataDir = dataDirFlag
	}

	base, err := config.LoadConfig(config.ConfigPath(dataDir))
	if err != nil && !errors.Is(err, config.ErrConfigNotFound) {
		return config.Config{}, err
	}
	base.DataDir = dataDir

	overrides := &config.Overrides{
		DataDir:  dataDirFlag,
		LogLevel: logLevelFlag,
		LogFile:  logFileFlag,
	}
	if cmd.Flags().Changed("fee-bps") {
		fee := feeBpsFlag
		overrides.FeeBps = &fee
	}
	return config.ResolveConfig(base, env, overrides)
}

func setup(cmd *cobra.Command, args []string) error {
	var err error
	if cfg, err = resolveConfig(cmd); err != nil {
		return err
	}
	if log, err = logger.New(cfg.LogLevel, cfg.LogFile); err != nil {
		return err
	}
	if cmd == InitCmd {
		return nil
	}

	ratio, err := cfg.ShareRatio()
	if err != nil {
		return err
	}
	st, err := store.OpenBoltStore(filepath.Join(cfg.DataDir, store.DBFile))
	if err != nil {
		return err
	}
	mkt, err = market.Open(st, market.Options{
		FeeBps:            cfg.FeeBps,
		InitialShareRatio: ratio,
		AllowMint:         cfg.AllowMint,
		QuoteSymbol:       cfg.QuoteSymbol,
		Logger:            log,
	})
	if err != nil {
		_ = st.Close()
		return err
	}
	return nil
}

func teardown() error {
	if log != nil {
		_ = log.Sync()
	}
	if mkt == nil {
		return nil
	}
	err := mkt.Close()
	mkt = nil
	return err
}
