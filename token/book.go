// Package token keeps the balance book of the quote asset: the stable unit
// consumers deposit as credits, pools hold as reserve and earnings escrow,
// and holders receive when they settle.
package token

import (
	"bytes"
	"sort"

	"github.com/holiman/uint256"

	"github.com/bitfsorg/libsynapse-go/address"
	"github.com/bitfsorg/libsynapse-go/errors"
	"github.com/bitfsorg/libsynapse-go/fixedpoint"
)

// Balance is one address's holding.
type Balance struct {
	Address address.Address
	Amount  uint256.Int
}

// Book is a fungible balance book. It is not safe for concurrent use; the
// market serializes access.
type Book struct {
	symbol   string
	balances map[address.Address]uint256.Int
	supply   uint256.Int
}

// NewBook returns an empty book for the given symbol.
func NewBook(symbol string) *Book {
	return &Book{symbol: symbol, balances: make(map[address.Address]uint256.Int)}
}

// Symbol returns the asset ticker, e.g. "USDC".
func (b *Book) Symbol() string { return b.symbol }

// BalanceOf returns a copy of addr's balance.
func (b *Book) BalanceOf(addr address.Address) *uint256.Int {
	bal := b.balances[addr]
	return bal.Clone()
}

// TotalSupply returns a copy of the minted supply.
func (b *Book) TotalSupply() *uint256.Int { return b.supply.Clone() }

// Mint creates amount out of thin air for to. Only the development faucet
// calls it.
func (b *Book) Mint(to address.Address, amount *uint256.Int) error {
	if fixedpoint.IsZero(amount) {
		return errors.Wrap(errors.ErrInvalidAmount, "token: mint zero")
	}
	if to.IsZero() {
		return errors.Wrap(address.ErrInvalidAddress, "token: mint to zero address")
	}
	supply, err := fixedpoint.Add(&b.supply, amount)
	if err != nil {
		return err
	}
	bal, err := fixedpoint.Add(b.BalanceOf(to), amount)
	if err != nil {
		return err
	}
	b.supply = *supply
	b.balances[to] = *bal
	return nil
}

// CheckTransfer reports whether from can send amount.
func (b *Book) CheckTransfer(from address.Address, amount *uint256.Int) error {
	if fixedpoint.IsZero(amount) {
		return errors.Wrap(errors.ErrInvalidAmount, "token: transfer zero")
	}
	bal := b.balances[from]
	if bal.Lt(amount) {
		return errors.Wrapf(errors.ErrInsufficientBalance, "token: %s holds %s %s, needs %s",
			from, fixedpoint.Format(&bal), b.symbol, fixedpoint.Format(amount))
	}
	return nil
}

// Transfer moves amount from one address to another. Supply is unchanged.
func (b *Book) Transfer(from, to address.Address, amount *uint256.Int) error {
	if err := b.CheckTransfer(from, amount); err != nil {
		return err
	}
	if to.IsZero() {
		return errors.Wrap(address.ErrInvalidAddress, "token: transfer to zero address")
	}
	if from == to {
		return nil
	}
	toBal, err := fixedpoint.Add(b.BalanceOf(to), amount)
	if err != nil {
		return err
	}
	fromBal, _ := fixedpoint.Sub(b.BalanceOf(from), amount)
	b.balances[from] = *fromBal
	b.balances[to] = *toBal
	return nil
}

// Restore sets a balance loaded from storage and folds it into the supply.
func (b *Book) Restore(addr address.Address, amount *uint256.Int) error {
	prev := b.balances[addr]
	supply, err := fixedpoint.Sub(&b.supply, &prev)
	if err != nil {
		return err
	}
	if supply, err = fixedpoint.Add(supply, amount); err != nil {
		return err
	}
	b.supply = *supply
	b.balances[addr] = *amount
	return nil
}

// Balances lists every non-zero balance ordered by address.
func (b *Book) Balances() []Balance {
	out := make([]Balance, 0, len(b.balances))
	for addr, amt := range b.balances {
		if amt.IsZero() {
			continue
		}
		out = append(out, Balance{Address: addr, Amount: amt})
	}
	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i].Address[:], out[j].Address[:]) < 0
	})
	return out
}
