package pool

import (
	"strings"

	"github.com/holiman/uint256"

	"github.com/bitfsorg/libsynapse-go/address"
	"github.com/bitfsorg/libsynapse-go/errors"
)

// Token selects one side of a pool.
type Token uint8

const (
	// Quote is the stable unit of account (token0).
	Quote Token = iota + 1
	// Share is the contributor's share token (token1).
	Share
)

// String returns "quote" or "share".
func (t Token) String() string {
	switch t {
	case Quote:
		return "quote"
	case Share:
		return "share"
	default:
		return "unknown"
	}
}

// Valid reports whether t is Quote or Share.
func (t Token) Valid() bool { return t == Quote || t == Share }

// Other returns the opposite side.
func (t Token) Other() Token {
	if t == Quote {
		return Share
	}
	return Quote
}

// ParseToken accepts "quote"/"token0" and "share"/"token1".
func ParseToken(s string) (Token, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "quote", "token0":
		return Quote, nil
	case "share", "token1":
		return Share, nil
	}
	return 0, errors.Wrapf(errors.ErrInvalidToken, "pool: unknown token %q", s)
}

// State is the persisted record of a pool, excluding its holders.
type State struct {
	ID          uint64
	Address     address.Address // custody of reserve and earnings escrow
	Contributor address.Address // receives swap fees
	DisplayName string
	FeeBps      uint64
	CreatedAt   int64 // unix seconds

	QuoteReserve uint256.Int
	ShareReserve uint256.Int
	TotalSupply  uint256.Int

	// Accumulator is cumulative earnings per share, scaled by fixedpoint.One.
	Accumulator      uint256.Int
	LifetimeEarnings uint256.Int
	// Dust is earnings that could not be credited to any share.
	Dust uint256.Int

	SwapFeesQuote uint256.Int
	SwapFeesShare uint256.Int
}

// Holder is a share holder's position in one pool.
type Holder struct {
	Address    address.Address
	Balance    uint256.Int
	Checkpoint uint256.Int // accumulator at last settlement
	Settled    uint256.Int // earnings locked in at Checkpoint
	Withdrawn  uint256.Int // earnings paid out in quote
}

// Info is a read-only view of a pool with derived market figures.
type Info struct {
	State
	Price           uint256.Int // quote per share
	MarketCap       uint256.Int // Price * TotalSupply
	SwapFeesInQuote uint256.Int // SwapFeesShare * Price + SwapFeesQuote
	HolderCount     int
}

// SwapResult describes an executed trade.
type SwapResult struct {
	PoolID    uint64
	Trader    address.Address
	TokenIn   Token
	TokenOut  Token
	AmountIn  uint256.Int
	AmountOut uint256.Int
	Fee       uint256.Int // denominated in TokenIn
}

// QuoteBook moves the quote asset between addresses.
type QuoteBook interface {
	CheckTransfer(from address.Address, amount *uint256.Int) error
	Transfer(from, to address.Address, amount *uint256.Int) error
}
