package commands

import (
	"strconv"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// AuditCmd checks that the engine neither created nor destroyed value.
var AuditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Verify conservation across ledger, pools and experts",
	Args:  cobra.NoArgs,
	RunE:  runAudit,
}

func runAudit(cmd *cobra.Command, args []string) error {
	a, err := mkt.CheckInvariants()
	if a != nil {
		sym := mkt.QuoteSymbol()
		if rerr := renderTable([][]string{
			{"Figure", "Value"},
			{sym + " supply", fmtAmount(&a.QuoteSupply)},
			{"Credit balances", fmtAmount(&a.CreditBalances)},
			{"Lifetime usage", fmtAmount(&a.LifetimeUsage)},
			{"Routed to pools", fmtAmount(&a.RoutedEarnings)},
			{"Expert earnings", fmtAmount(&a.ExpertEarnings)},
			{"Treasury", fmtAmount(&a.TreasuryBalance)},
			{"Pools", strconv.Itoa(a.Pools)},
			{"Experts", strconv.Itoa(a.Experts)},
		}); rerr != nil {
			return rerr
		}
	}
	if err != nil {
		return err
	}
	pterm.Success.Println("All invariants hold")
	return nil
}
