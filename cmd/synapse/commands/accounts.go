package commands

import (
	"strconv"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/bitfsorg/libsynapse-go/address"
	"github.com/bitfsorg/libsynapse-go/errors"
)

// FaucetCmd mints quote tokens when allow_mint is on.
var FaucetCmd = &cobra.Command{
	Use:   "faucet <account> <amount>",
	Short: "Mint quote tokens to an account (development only)",
	Args:  cobra.ExactArgs(2),
	RunE:  runFaucet,
}

// DepositCmd converts quote tokens into usage credits.
var DepositCmd = &cobra.Command{
	Use:   "deposit <account> <amount>",
	Short: "Deposit quote tokens as usage credits",
	Args:  cobra.ExactArgs(2),
	RunE:  runDeposit,
}

// WithdrawCmd returns unused credits as quote tokens.
var WithdrawCmd = &cobra.Command{
	Use:   "withdraw <account> <amount>",
	Short: "Withdraw unused credits",
	Args:  cobra.ExactArgs(2),
	RunE:  runWithdraw,
}

// ChargeCmd consumes credits without routing them to an expert.
var ChargeCmd = &cobra.Command{
	Use:   "charge <account> <amount>",
	Short: "Charge usage credits to the treasury",
	Args:  cobra.ExactArgs(2),
	RunE:  runCharge,
}

// AccountCmd shows or toggles a credit account.
var AccountCmd = &cobra.Command{
	Use:   "account [account]",
	Short: "Show credit accounts",
	Long: `Show one credit account, or every account when none is given.

Use --suspend or --activate to toggle whether the account may spend.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAccount,
}

// BalancesCmd lists an account's quote wallet, credits and share positions.
var BalancesCmd = &cobra.Command{
	Use:   "balances <account>",
	Short: "Show quote, credit and share balances",
	Args:  cobra.ExactArgs(1),
	RunE:  runBalances,
}

var (
	accountSuspend  bool
	accountActivate bool
)

func init() {
	AccountCmd.Flags().BoolVar(&accountSuspend, "suspend", false, "suspend the account")
	AccountCmd.Flags().BoolVar(&accountActivate, "activate", false, "reactivate the account")
	AccountCmd.MarkFlagsMutuallyExclusive("suspend", "activate")
}

// accountAmount parses the common <account> <amount> pair.
func accountAmount(args []string) (address.Address, string, error) {
	acct, err := parseAccount(args[0])
	if err != nil {
		return address.Zero, "", err
	}
	return acct, args[1], nil
}

func runFaucet(cmd *cobra.Command, args []string) error {
	acct, raw, err := accountAmount(args)
	if err != nil {
		return err
	}
	amount, err := parseAmount(raw)
	if err != nil {
		return err
	}
	if err := mkt.MintQuote(acct, amount); err != nil {
		return err
	}
	pterm.Success.Printfln("Minted %s %s to %s", fmtAmount(amount), mkt.QuoteSymbol(), acct)
	return nil
}

func runDeposit(cmd *cobra.Command, args []string) error {
	acct, raw, err := accountAmount(args)
	if err != nil {
		return err
	}
	amount, err := parseAmount(raw)
	if err != nil {
		return err
	}
	if err := mkt.Deposit(acct, amount); err != nil {
		return err
	}
	a := mkt.Account(acct)
	pterm.Success.Printfln("Deposited %s, credit balance %s", fmtAmount(amount), fmtAmount(&a.Balance))
	return nil
}

func runWithdraw(cmd *cobra.Command, args []string) error {
	acct, raw, err := accountAmount(args)
	if err != nil {
		return err
	}
	amount, err := parseAmount(raw)
	if err != nil {
		return err
	}
	if err := mkt.Withdraw(acct, amount); err != nil {
		return err
	}
	a := mkt.Account(acct)
	pterm.Success.Printfln("Withdrew %s, credit balance %s", fmtAmount(amount), fmtAmount(&a.Balance))
	return nil
}

func runCharge(cmd *cobra.Command, args []string) error {
	acct, raw, err := accountAmount(args)
	if err != nil {
		return err
	}
	amount, err := parseAmount(raw)
	if err != nil {
		return err
	}
	if err := mkt.Charge(acct, amount); err != nil {
		return err
	}
	a := mkt.Account(acct)
	pterm.Success.Printfln("Charged %s, credit balance %s", fmtAmount(amount), fmtAmount(&a.Balance))
	return nil
}

func runAccount(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		if accountSuspend || accountActivate {
			return errors.New("--suspend and --activate need an account")
		}
		return printAccounts()
	}

	acct, err := parseAccount(args[0])
	if err != nil {
		return err
	}
	if accountSuspend || accountActivate {
		if err := mkt.SetAccountActive(acct, accountActivate); err != nil {
			return err
		}
	}

	a := mkt.Account(acct)
	pterm.DefaultSection.Println(acct.String())
	return renderTable([][]string{
		{"Field", "Value"},
		{"Balance", fmtAmount(&a.Balance)},
		{"Lifetime usage", fmtAmount(&a.LifetimeUsage)},
		{"Active", strconv.FormatBool(a.Active)},
	})
}

func printAccounts() error {
	accounts := mkt.Accounts()
	if len(accounts) == 0 {
		pterm.Info.Println("No credit accounts")
		return nil
	}
	rows := [][]string{{"Account", "Balance", "Lifetime usage", "Active"}}
	for _, a := range accounts {
		rows = append(rows, []string{
			a.Address.String(),
			fmtAmount(&a.Balance),
			fmtAmount(&a.LifetimeUsage),
			strconv.FormatBool(a.Active),
		})
	}
	return renderTable(rows)
}

func runBalances(cmd *cobra.Command, args []string) error {
	acct, err := parseAccount(args[0])
	if err != nil {
		return err
	}
	a := mkt.Account(acct)
	positions, err := mkt.AccountTokenBalances(acct)
	if err != nil {
		return err
	}

	pterm.DefaultSection.Println(acct.String())
	pterm.Info.Printfln("%s wallet: %s", mkt.QuoteSymbol(), fmtAmount(mkt.QuoteBalance(acct)))
	pterm.Info.Printfln("Credits:   %s", fmtAmount(&a.Balance))
	if len(positions) == 0 {
		pterm.Info.Println("No share positions")
		return nil
	}

	rows := [][]string{{"Pool", "Name", "Shares", "Earned", "Claimable"}}
	for _, p := range positions {
		rows = append(rows, []string{
			strconv.FormatUint(p.PoolID, 10),
			p.DisplayName,
			fmtAmount(&p.Balance),
			fmtAmount(&p.Earned),
			fmtAmount(&p.Claimable),
		})
	}
	return renderTable(rows)
}
