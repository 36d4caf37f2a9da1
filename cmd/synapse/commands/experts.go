package commands

import (
	"strconv"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/bitfsorg/libsynapse-go/fixedpoint"
	"github.com/bitfsorg/libsynapse-go/revshare"
)

// ExpertCmd groups expert registry commands.
var ExpertCmd = &cobra.Command{
	Use:   "expert",
	Short: "Manage experts and their backing pools",
}

var expertContributeCmd = &cobra.Command{
	Use:   "contribute <expert-key> <pool-id> <weight>",
	Short: "Back an expert with a pool",
	Long: `Back an expert with a pool at the given weight. The expert is created
on its first contribution. Contributing again from the same pool adds a
further entry; weights are never renormalized.`,
	Args: cobra.ExactArgs(3),
	RunE: runExpertContribute,
}

var expertInfoCmd = &cobra.Command{
	Use:   "info <expert-key>",
	Short: "Show an expert's backing pools",
	Args:  cobra.ExactArgs(1),
	RunE:  runExpertInfo,
}

var expertListCmd = &cobra.Command{
	Use:   "list",
	Short: "List experts",
	Args:  cobra.NoArgs,
	RunE:  runExpertList,
}

// PayCmd routes a payment to an expert's pools.
var PayCmd = &cobra.Command{
	Use:   "pay <expert-key> <amount> <payer>",
	Short: "Charge credits and route them to an expert's pools",
	Args:  cobra.ExactArgs(3),
	RunE:  runPay,
}

func init() {
	ExpertCmd.AddCommand(expertContributeCmd, expertInfoCmd, expertListCmd)
}

func runExpertContribute(cmd *cobra.Command, args []string) error {
	id, err := parsePoolID(args[1])
	if err != nil {
		return err
	}
	weight, err := parseAmount(args[2])
	if err != nil {
		return err
	}
	e, err := mkt.ContributeExpertKnowledge(args[0], id, weight)
	if err != nil {
		return err
	}
	pterm.Success.Printfln("Pool %d backs expert %q (#%d), total weight %s",
		id, e.Key, e.ID, fmtAmount(&e.TotalWeight))
	return nil
}

func runExpertInfo(cmd *cobra.Command, args []string) error {
	e, err := mkt.ExpertInfo(args[0])
	if err != nil {
		return err
	}
	pterm.DefaultHeader.WithFullWidth().Printf("Expert #%d: %s", e.ID, e.Key)
	pterm.Info.Printfln("Total weight %s, lifetime earnings %s %s",
		fmtAmount(&e.TotalWeight), fmtAmount(&e.LifetimeEarnings), mkt.QuoteSymbol())
	return renderTable(entryRows(&e))
}

var hundred = fixedpoint.FromUnits(100)

func entryRows(e *revshare.Expert) [][]string {
	rows := [][]string{{"Pool", "Weight", "Share"}}
	for _, entry := range e.Entries {
		share := "-"
		if pct, err := fixedpoint.MulDiv(&entry.Weight, hundred, &e.TotalWeight); err == nil {
			share = fmtAmount(pct) + "%"
		}
		rows = append(rows, []string{
			strconv.FormatUint(entry.PoolID, 10),
			fmtAmount(&entry.Weight),
			share,
		})
	}
	return rows
}

func runExpertList(cmd *cobra.Command, args []string) error {
	experts := mkt.ExpertInfos()
	if len(experts) == 0 {
		pterm.Info.Println("No experts")
		return nil
	}
	rows := [][]string{{"ID", "Key", "Pools", "Total weight", "Lifetime earnings"}}
	for _, e := range experts {
		rows = append(rows, []string{
			strconv.FormatUint(e.ID, 10),
			e.Key,
			strconv.Itoa(len(e.Entries)),
			fmtAmount(&e.TotalWeight),
			fmtAmount(&e.LifetimeEarnings),
		})
	}
	return renderTable(rows)
}

func runPay(cmd *cobra.Command, args []string) error {
	amount, err := parseAmount(args[1])
	if err != nil {
		return err
	}
	payer, err := parseAccount(args[2])
	if err != nil {
		return err
	}
	rcpt, err := mkt.Pay(args[0], amount, payer)
	if err != nil {
		return err
	}
	pterm.Success.Printfln("Paid %s %s to expert %q (receipt %s)",
		fmtAmount(&rcpt.Amount), mkt.QuoteSymbol(), rcpt.ExpertKey, rcpt.ID)

	rows := [][]string{{"Pool", "Amount", "Dust"}}
	for _, s := range rcpt.Splits {
		rows = append(rows, []string{
			strconv.FormatUint(s.PoolID, 10),
			fmtAmount(&s.Amount),
			fmtAmount(&s.Dust),
		})
	}
	return renderTable(rows)
}
