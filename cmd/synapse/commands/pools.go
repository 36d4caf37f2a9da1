package commands

import (
	"strconv"
	"time"

	"github.com/holiman/uint256"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/bitfsorg/libsynapse-go/pool"
)

// PoolCmd groups contributor pool commands.
var PoolCmd = &cobra.Command{
	Use:   "pool",
	Short: "Manage contributor pools",
}

var poolCreateCmd = &cobra.Command{
	Use:   "create <contributor> <name> <deposit>",
	Short: "Open a pool funded from the contributor's quote wallet",
	Args:  cobra.ExactArgs(3),
	RunE:  runPoolCreate,
}

var poolListCmd = &cobra.Command{
	Use:   "list",
	Short: "List pools",
	Args:  cobra.NoArgs,
	RunE:  runPoolList,
}

var poolInfoCmd = &cobra.Command{
	Use:   "info <pool-id | contributor>",
	Short: "Show one pool and its holders",
	Args:  cobra.ExactArgs(1),
	RunE:  runPoolInfo,
}

// QuoteCmd prices a swap without executing it.
var QuoteCmd = &cobra.Command{
	Use:   "quote <pool-id> <quote|share> <amount>",
	Short: "Price a swap without executing it",
	Args:  cobra.ExactArgs(3),
	RunE:  runQuote,
}

// SwapCmd trades against a pool.
var SwapCmd = &cobra.Command{
	Use:   "swap <trader> <pool-id> <quote|share> <amount>",
	Short: "Swap quote for shares or shares for quote",
	Args:  cobra.ExactArgs(4),
	RunE:  runSwap,
}

// TransferCmd moves shares between holders.
var TransferCmd = &cobra.Command{
	Use:   "transfer <pool-id> <from> <to> <amount>",
	Short: "Transfer pool shares",
	Args:  cobra.ExactArgs(4),
	RunE:  runTransfer,
}

// EarningsCmd shows what a holder has earned in a pool.
var EarningsCmd = &cobra.Command{
	Use:   "earnings <pool-id> <account>",
	Short: "Show a holder's earnings",
	Args:  cobra.ExactArgs(2),
	RunE:  runEarnings,
}

// SettleCmd pays a holder's claimable earnings.
var SettleCmd = &cobra.Command{
	Use:   "settle <pool-id> <account>",
	Short: "Pay out a holder's claimable earnings",
	Args:  cobra.ExactArgs(2),
	RunE:  runSettle,
}

var swapMinOut string

func init() {
	PoolCmd.AddCommand(poolCreateCmd, poolListCmd, poolInfoCmd)
	SwapCmd.Flags().StringVar(&swapMinOut, "min-out", "", "fail if the output is below this amount")
}

func runPoolCreate(cmd *cobra.Command, args []string) error {
	contributor, err := parseAccount(args[0])
	if err != nil {
		return err
	}
	deposit, err := parseAmount(args[2])
	if err != nil {
		return err
	}
	id, err := mkt.CreatePool(contributor, args[1], deposit)
	if err != nil {
		return err
	}
	info, err := mkt.PoolInfo(id)
	if err != nil {
		return err
	}
	pterm.Success.Printfln("Created pool %d %q at %s", id, args[1], info.Address)
	pterm.Info.Printfln("Contributor holds %s shares", fmtAmount(&info.TotalSupply))
	return nil
}

func runPoolList(cmd *cobra.Command, args []string) error {
	pools, err := mkt.AllPools()
	if err != nil {
		return err
	}
	if len(pools) == 0 {
		pterm.Info.Println("No pools")
		return nil
	}
	rows := [][]string{{"ID", "Name", "Contributor", "Price", "Supply", "Earnings", "Holders"}}
	for _, p := range pools {
		rows = append(rows, []string{
			strconv.FormatUint(p.ID, 10),
			p.DisplayName,
			p.Contributor.String(),
			fmtAmount(&p.Price),
			fmtAmount(&p.TotalSupply),
			fmtAmount(&p.LifetimeEarnings),
			strconv.Itoa(p.HolderCount),
		})
	}
	return renderTable(rows)
}

func lookupPool(arg string) (pool.Info, error) {
	if id, err := parsePoolID(arg); err == nil {
		return mkt.PoolInfo(id)
	}
	contributor, err := parseAccount(arg)
	if err != nil {
		return pool.Info{}, err
	}
	return mkt.PoolInfoForAddress(contributor)
}

func runPoolInfo(cmd *cobra.Command, args []string) error {
	info, err := lookupPool(args[0])
	if err != nil {
		return err
	}

	pterm.DefaultHeader.WithFullWidth().Printf("Pool %d: %s", info.ID, info.DisplayName)
	sym := mkt.QuoteSymbol()
	if err := renderTable([][]string{
		{"Field", "Value"},
		{"Address", info.Address.String()},
		{"Contributor", info.Contributor.String()},
		{"Created", time.Unix(info.CreatedAt, 0).UTC().Format(time.RFC3339)},
		{"Fee", strconv.FormatUint(info.FeeBps, 10) + " bps"},
		{sym + " reserve", fmtAmount(&info.QuoteReserve)},
		{"Share reserve", fmtAmount(&info.ShareReserve)},
		{"Share supply", fmtAmount(&info.TotalSupply)},
		{"Price", fmtAmount(&info.Price) + " " + sym},
		{"Market cap", fmtAmount(&info.MarketCap) + " " + sym},
		{"Swap fees", fmtAmount(&info.SwapFeesInQuote) + " " + sym},
		{"Lifetime earnings", fmtAmount(&info.LifetimeEarnings) + " " + sym},
	}); err != nil {
		return err
	}

	holders, err := holdersOf(info.ID)
	if err != nil || len(holders) == 0 {
		return err
	}
	pterm.DefaultSection.Println("Holders")
	return renderTable(append([][]string{{"Holder", "Shares", "Earned", "Withdrawn"}}, holders...))
}

// holdersOf formats every holder of a pool.
func holdersOf(poolID uint64) ([][]string, error) {
	holders, err := mkt.PoolHolders(poolID)
	if err != nil {
		return nil, err
	}
	rows := make([][]string, 0, len(holders))
	for _, h := range holders {
		earned, err := mkt.TokenHolderEarnings(poolID, h.Address)
		if err != nil {
			return nil, err
		}
		rows = append(rows, []string{
			h.Address.String(),
			fmtAmount(&h.Balance),
			fmtAmount(earned),
			fmtAmount(&h.Withdrawn),
		})
	}
	return rows, nil
}

func runQuote(cmd *cobra.Command, args []string) error {
	id, err := parsePoolID(args[0])
	if err != nil {
		return err
	}
	tokenIn, err := pool.ParseToken(args[1])
	if err != nil {
		return err
	}
	amount, err := parseAmount(args[2])
	if err != nil {
		return err
	}
	out, fee, err := mkt.AmountOut(id, tokenIn, tokenIn.Other(), amount)
	if err != nil {
		return err
	}
	pterm.Info.Printfln("%s %s in -> %s %s out (fee %s %s)",
		fmtAmount(amount), tokenIn, fmtAmount(out), tokenIn.Other(), fmtAmount(fee), tokenIn)
	return nil
}

func runSwap(cmd *cobra.Command, args []string) error {
	trader, err := parseAccount(args[0])
	if err != nil {
		return err
	}
	id, err := parsePoolID(args[1])
	if err != nil {
		return err
	}
	tokenIn, err := pool.ParseToken(args[2])
	if err != nil {
		return err
	}
	amount, err := parseAmount(args[3])
	if err != nil {
		return err
	}
	var minOut *uint256.Int
	if swapMinOut != "" {
		if minOut, err = parseAmount(swapMinOut); err != nil {
			return err
		}
	}
	res, err := mkt.Swap(trader, id, tokenIn, amount, minOut)
	if err != nil {
		return err
	}
	pterm.Success.Printfln("Swapped %s %s for %s %s (fee %s %s)",
		fmtAmount(&res.AmountIn), res.TokenIn, fmtAmount(&res.AmountOut), res.TokenOut,
		fmtAmount(&res.Fee), res.TokenIn)
	return nil
}

func runTransfer(cmd *cobra.Command, args []string) error {
	id, err := parsePoolID(args[0])
	if err != nil {
		return err
	}
	from, err := parseAccount(args[1])
	if err != nil {
		return err
	}
	to, err := parseAccount(args[2])
	if err != nil {
		return err
	}
	amount, err := parseAmount(args[3])
	if err != nil {
		return err
	}
	if err := mkt.TransferShares(id, from, to, amount); err != nil {
		return err
	}
	pterm.Success.Printfln("Transferred %s shares of pool %d to %s", fmtAmount(amount), id, to)
	return nil
}

func runEarnings(cmd *cobra.Command, args []string) error {
	id, err := parsePoolID(args[0])
	if err != nil {
		return err
	}
	acct, err := parseAccount(args[1])
	if err != nil {
		return err
	}
	earned, err := mkt.TokenHolderEarnings(id, acct)
	if err != nil {
		return err
	}
	pterm.Info.Printfln("%s earned %s %s in pool %d", acct, fmtAmount(earned), mkt.QuoteSymbol(), id)
	return nil
}

func runSettle(cmd *cobra.Command, args []string) error {
	id, err := parsePoolID(args[0])
	if err != nil {
		return err
	}
	acct, err := parseAccount(args[1])
	if err != nil {
		return err
	}
	paid, err := mkt.SettleEarnings(id, acct)
	if err != nil {
		return err
	}
	if paid.IsZero() {
		pterm.Warning.Println("Nothing to settle")
		return nil
	}
	pterm.Success.Printfln("Paid %s %s to %s", fmtAmount(paid), mkt.QuoteSymbol(), acct)
	return nil
}
