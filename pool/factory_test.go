package pool

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitfsorg/libsynapse-go/address"
	"github.com/bitfsorg/libsynapse-go/errors"
	"github.com/bitfsorg/libsynapse-go/fixedpoint"
	"github.com/bitfsorg/libsynapse-go/token"
)

// --- Factory tests ---

func TestFactory_Create(t *testing.T) {
	book := token.NewBook("USDC")
	require.NoError(t, book.Mint(contributor, units(100000)))
	f, err := NewFactory(DefaultFeeBps, nil, nil)
	require.NoError(t, err)
	f.now = func() time.Time { return time.Unix(1700000000, 0) }

	p, err := f.Create(contributor, "  TEST CONTRIBUTOR ", units(100000), book)
	require.NoError(t, err)

	st := p.State()
	assert.Equal(t, uint64(1), st.ID)
	assert.Equal(t, "TEST CONTRIBUTOR", st.DisplayName)
	assert.Equal(t, contributor, st.Contributor)
	assert.Equal(t, address.Derive(addressDomain, contributor, 1), st.Address)
	assert.Equal(t, uint64(100), st.FeeBps)
	assert.Equal(t, int64(1700000000), st.CreatedAt)
	assert.Equal(t, "100000", fixedpoint.Format(&st.TotalSupply))
	assert.Equal(t, "100000", fixedpoint.Format(&st.QuoteReserve))
	assert.Equal(t, "100000", fixedpoint.Format(&st.ShareReserve))
	assert.True(t, st.Accumulator.IsZero())
	assert.True(t, st.LifetimeEarnings.IsZero())

	assert.Equal(t, "100000", fixedpoint.Format(p.BalanceOf(contributor)))
	assert.Equal(t, "100000", fixedpoint.Format(book.BalanceOf(p.Address())))
	assert.True(t, book.BalanceOf(contributor).IsZero())
	assert.Equal(t, uint64(2), f.NextID())
}

func TestFactory_SequentialIDs(t *testing.T) {
	book := token.NewBook("USDC")
	f, err := NewFactory(0, nil, nil)
	require.NoError(t, err)

	var addrs []address.Address
	for i := byte(1); i <= 3; i++ {
		c := makeAddr(i)
		require.NoError(t, book.Mint(c, units(10)))
		p, err := f.Create(c, "pool", units(10), book)
		require.NoError(t, err)
		assert.Equal(t, uint64(i), p.ID())
		addrs = append(addrs, p.Address())
	}
	assert.NotEqual(t, addrs[0], addrs[1])
	assert.NotEqual(t, addrs[1], addrs[2])
}

func TestFactory_ShareRatio(t *testing.T) {
	book := token.NewBook("USDC")
	require.NoError(t, book.Mint(contributor, units(50)))
	f, err := NewFactory(DefaultFeeBps, fixedpoint.MustParse("2.5"), nil)
	require.NoError(t, err)

	p, err := f.Create(contributor, "ratio", units(50), book)
	require.NoError(t, err)

	st := p.State()
	assert.Equal(t, "125", fixedpoint.Format(&st.TotalSupply))
	assert.Equal(t, "125", fixedpoint.Format(&st.ShareReserve))
	assert.Equal(t, "50", fixedpoint.Format(&st.QuoteReserve))

	info, err := p.Info()
	require.NoError(t, err)
	assert.Equal(t, "0.4", fixedpoint.Format(&info.Price))
}

func TestFactory_Errors(t *testing.T) {
	book := token.NewBook("USDC")
	require.NoError(t, book.Mint(contributor, units(10)))
	f, err := NewFactory(DefaultFeeBps, nil, nil)
	require.NoError(t, err)

	tests := []struct {
		name        string
		contributor address.Address
		display     string
		deposit     string
		wantErr     error
	}{
		{"empty name", contributor, "   ", "1", errors.ErrInvalidName},
		{"long name", contributor, strings.Repeat("x", MaxNameLen+1), "1", errors.ErrInvalidName},
		{"zero deposit", contributor, "ok", "0", errors.ErrInvalidAmount},
		{"unfunded", contributor, "ok", "11", errors.ErrInsufficientBalance},
		{"zero contributor", address.Zero, "ok", "1", address.ErrInvalidAddress},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.Create(tt.contributor, tt.display, fixedpoint.MustParse(tt.deposit), book)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
	assert.Equal(t, uint64(1), f.NextID(), "failed creates must not consume ids")
	assert.Equal(t, "10", fixedpoint.Format(book.BalanceOf(contributor)))
}

func TestNewFactory_Errors(t *testing.T) {
	_, err := NewFactory(10000, nil, nil)
	assert.ErrorIs(t, err, ErrInvalidFee)

	_, err = NewFactory(100, fixedpoint.Zero(), nil)
	assert.ErrorIs(t, err, errors.ErrInvalidAmount)

	f, err := NewFactory(30, nil, nil)
	require.NoError(t, err)
	f.SetNextID(0)
	assert.Equal(t, uint64(1), f.NextID())
	f.SetNextID(42)
	assert.Equal(t, uint64(42), f.NextID())
	assert.Equal(t, uint64(30), f.FeeBps())
	assert.NotNil(t, f.Logger())
}

// --- Codec tests ---

func TestSerializeState_RoundTrip(t *testing.T) {
	p, book := newPool(t, 1000, 100)
	require.NoError(t, book.Mint(trader, units(10)))
	_, err := p.Swap(trader, Quote, units(10), nil, book)
	require.NoError(t, err)
	fund(t, p, book, fixedpoint.MustParse("3.3"))

	st := p.State()
	data, err := SerializeState(&st)
	require.NoError(t, err)

	decoded, err := DeserializeState(data)
	require.NoError(t, err)
	assert.Equal(t, st, *decoded)
}

func TestSerializeState_Errors(t *testing.T) {
	_, err := SerializeState(&State{DisplayName: strings.Repeat("n", MaxNameLen+1)})
	assert.ErrorIs(t, err, errors.ErrInvalidName)

	_, err = DeserializeState(make([]byte, stateFixedSize-1))
	assert.ErrorIs(t, err, ErrInvalidPoolData)

	data, err := SerializeState(&State{DisplayName: "abc"})
	require.NoError(t, err)
	_, err = DeserializeState(data[:len(data)-1])
	assert.ErrorIs(t, err, ErrInvalidPoolData)
}

func TestSerializeHolder_RoundTrip(t *testing.T) {
	h := &Holder{Address: makeAddr(0x33)}
	h.Balance.Set(units(5))
	h.Checkpoint.SetUint64(12345)
	h.Settled.Set(fixedpoint.MustParse("0.5"))
	h.Withdrawn.Set(fixedpoint.MustParse("0.25"))

	data := SerializeHolder(h)
	assert.Len(t, data, holderSize)

	decoded, err := DeserializeHolder(data)
	require.NoError(t, err)
	assert.Equal(t, *h, *decoded)

	_, err = DeserializeHolder(data[1:])
	assert.ErrorIs(t, err, ErrInvalidHolderData)
}

func TestRestore_RebuildsPool(t *testing.T) {
	p, book := newPool(t, 1000, 100)
	require.NoError(t, p.Transfer(contributor, holderX, units(250)))
	fund(t, p, book, units(4))

	clone := Restore(p.State(), p.Holders(), nil)
	for _, addr := range []address.Address{contributor, holderX} {
		want, err := p.Earnings(addr)
		require.NoError(t, err)
		got, err := clone.Earnings(addr)
		require.NoError(t, err)
		assert.True(t, want.Eq(got))
	}
	require.NoError(t, clone.CheckSupply())

	h, ok := clone.Holder(holderX)
	require.True(t, ok)
	assert.Equal(t, "250", fixedpoint.Format(&h.Balance))
	_, ok = clone.Holder(holderY)
	assert.False(t, ok)
}
