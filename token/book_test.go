package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitfsorg/libsynapse-go/address"
	"github.com/bitfsorg/libsynapse-go/errors"
	"github.com/bitfsorg/libsynapse-go/fixedpoint"
)

func makeAddr(seed byte) address.Address {
	var a address.Address
	for i := range a {
		a[i] = seed
	}
	return a
}

func TestMintTransfer(t *testing.T) {
	b := NewBook("USDC")
	alice, bob := makeAddr(0x01), makeAddr(0x02)

	require.NoError(t, b.Mint(alice, fixedpoint.FromUnits(100)))
	require.NoError(t, b.Transfer(alice, bob, fixedpoint.FromUnits(30)))

	assert.Equal(t, "70", fixedpoint.Format(b.BalanceOf(alice)))
	assert.Equal(t, "30", fixedpoint.Format(b.BalanceOf(bob)))
	assert.Equal(t, "100", fixedpoint.Format(b.TotalSupply()))
	assert.Equal(t, "USDC", b.Symbol())
}

func TestTransfer_Errors(t *testing.T) {
	b := NewBook("USDC")
	alice, bob := makeAddr(0x01), makeAddr(0x02)
	require.NoError(t, b.Mint(alice, fixedpoint.FromUnits(10)))

	err := b.Transfer(alice, bob, fixedpoint.FromUnits(11))
	assert.ErrorIs(t, err, errors.ErrInsufficientBalance)

	err = b.Transfer(alice, bob, fixedpoint.Zero())
	assert.ErrorIs(t, err, errors.ErrInvalidAmount)

	err = b.Transfer(alice, address.Zero, fixedpoint.FromUnits(1))
	assert.ErrorIs(t, err, address.ErrInvalidAddress)

	// Failed transfers leave balances untouched.
	assert.Equal(t, "10", fixedpoint.Format(b.BalanceOf(alice)))
	assert.True(t, b.BalanceOf(bob).IsZero())
}

func TestTransfer_Self(t *testing.T) {
	b := NewBook("USDC")
	alice := makeAddr(0x01)
	require.NoError(t, b.Mint(alice, fixedpoint.FromUnits(5)))
	require.NoError(t, b.Transfer(alice, alice, fixedpoint.FromUnits(5)))
	assert.Equal(t, "5", fixedpoint.Format(b.BalanceOf(alice)))
}

func TestBalanceOf_ReturnsCopy(t *testing.T) {
	b := NewBook("USDC")
	alice := makeAddr(0x01)
	require.NoError(t, b.Mint(alice, fixedpoint.FromUnits(5)))

	b.BalanceOf(alice).SetUint64(0)
	assert.Equal(t, "5", fixedpoint.Format(b.BalanceOf(alice)))
}

func TestRestoreAndBalances(t *testing.T) {
	b := NewBook("USDC")
	require.NoError(t, b.Restore(makeAddr(0x02), fixedpoint.FromUnits(2)))
	require.NoError(t, b.Restore(makeAddr(0x01), fixedpoint.FromUnits(1)))
	require.NoError(t, b.Restore(makeAddr(0x02), fixedpoint.FromUnits(4)))

	assert.Equal(t, "5", fixedpoint.Format(b.TotalSupply()))
	list := b.Balances()
	require.Len(t, list, 2)
	assert.Equal(t, makeAddr(0x01), list[0].Address)
	assert.Equal(t, "4", fixedpoint.Format(&list[1].Amount))
}
