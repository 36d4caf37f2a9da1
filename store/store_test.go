package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"

	"github.com/bitfsorg/libsynapse-go/address"
	"github.com/bitfsorg/libsynapse-go/errors"
	"github.com/bitfsorg/libsynapse-go/fixedpoint"
	"github.com/bitfsorg/libsynapse-go/ledger"
	"github.com/bitfsorg/libsynapse-go/pool"
	"github.com/bitfsorg/libsynapse-go/revshare"
	"github.com/bitfsorg/libsynapse-go/token"
)

func tempBoltStore(t *testing.T) *BoltStore {
	t.Helper()
	dir := t.TempDir()
	s, err := OpenBoltStore(filepath.Join(dir, "nested", DBFile))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func eachStore(t *testing.T, fn func(t *testing.T, s Store)) {
	t.Run("bolt", func(t *testing.T) { fn(t, tempBoltStore(t)) })
	t.Run("mem", func(t *testing.T) { fn(t, NewMemStore()) })
}

func addr(name string) address.Address { return address.FromName(name) }

func testPool(id uint64, name string) pool.State {
	st := pool.State{
		ID:          id,
		Address:     address.Derive("synapse/pool", addr(name), id),
		Contributor: addr(name),
		DisplayName: name,
		FeeBps:      100,
		CreatedAt:   1700000000,
	}
	st.QuoteReserve.Set(fixedpoint.FromUnits(1000))
	st.ShareReserve.Set(fixedpoint.FromUnits(900))
	st.TotalSupply.Set(fixedpoint.FromUnits(1000))
	return st
}

func testHolder(name string, units uint64) pool.Holder {
	h := pool.Holder{Address: addr(name)}
	h.Balance.Set(fixedpoint.FromUnits(units))
	h.Checkpoint.SetUint64(7)
	return h
}

func testBatch() *Batch {
	acct := ledger.Account{Address: addr("alice"), Active: true}
	acct.Balance.Set(fixedpoint.FromUnits(80))
	acct.LifetimeUsage.Set(fixedpoint.FromUnits(20))

	var bal token.Balance
	bal.Address = addr("custody")
	bal.Amount.Set(fixedpoint.FromUnits(80))

	exp := revshare.Expert{Key: "rust-async", ID: 1}
	exp.Entries = []revshare.Entry{{PoolID: 1}, {PoolID: 2}}
	exp.Entries[0].Weight.Set(fixedpoint.MustParse("0.9"))
	exp.Entries[1].Weight.Set(fixedpoint.MustParse("0.1"))
	exp.TotalWeight.Set(fixedpoint.One())

	return &Batch{
		Accounts: []ledger.Account{acct},
		Quote:    []token.Balance{bal},
		Pools:    []pool.State{testPool(1, "bob"), testPool(2, "carol")},
		Holders: []HolderRecord{
			{PoolID: 1, Holder: testHolder("bob", 900)},
			{PoolID: 1, Holder: testHolder("dave", 100)},
			{PoolID: 2, Holder: testHolder("carol", 1000)},
		},
		Experts: []revshare.Expert{exp},
		Meta:    &Meta{NextPoolID: 3, NextExpertID: 2},
	}
}

func TestStore_EmptyLoad(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		snap, err := s.Load()
		require.NoError(t, err)
		assert.Empty(t, snap.Accounts)
		assert.Empty(t, snap.Pools)
		assert.Empty(t, snap.Experts)
		assert.Equal(t, Meta{}, snap.Meta)
	})
}

func TestStore_CommitAndLoad(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		require.NoError(t, s.Commit(testBatch()))

		snap, err := s.Load()
		require.NoError(t, err)

		require.Len(t, snap.Accounts, 1)
		assert.Equal(t, addr("alice"), snap.Accounts[0].Address)
		assert.Equal(t, "80", fixedpoint.Format(&snap.Accounts[0].Balance))
		assert.True(t, snap.Accounts[0].Active)

		require.Len(t, snap.Quote, 1)
		assert.Equal(t, "80", fixedpoint.Format(&snap.Quote[0].Amount))

		require.Len(t, snap.Pools, 2)
		assert.Equal(t, uint64(1), snap.Pools[0].State.ID)
		assert.Equal(t, "bob", snap.Pools[0].State.DisplayName)
		assert.Len(t, snap.Pools[0].Holders, 2)
		require.Len(t, snap.Pools[1].Holders, 1)
		assert.Equal(t, addr("carol"), snap.Pools[1].Holders[0].Address)
		assert.Equal(t, uint64(7), snap.Pools[1].Holders[0].Checkpoint.Uint64())

		require.Len(t, snap.Experts, 1)
		assert.Equal(t, []uint64{1, 2}, snap.Experts[0].PoolIDs())
		assert.Equal(t, "0.9", fixedpoint.Format(&snap.Experts[0].Entries[0].Weight))

		assert.Equal(t, Meta{NextPoolID: 3, NextExpertID: 2}, snap.Meta)
	})
}

func TestStore_CommitOverwrites(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		require.NoError(t, s.Commit(testBatch()))

		acct := ledger.Account{Address: addr("alice")}
		acct.Balance.SetUint64(5)
		require.NoError(t, s.Commit(&Batch{Accounts: []ledger.Account{acct}}))

		snap, err := s.Load()
		require.NoError(t, err)
		require.Len(t, snap.Accounts, 1)
		assert.Equal(t, uint64(5), snap.Accounts[0].Balance.Uint64())
		assert.False(t, snap.Accounts[0].Active)
		// Untouched records survive.
		assert.Len(t, snap.Pools, 2)
		assert.Equal(t, uint64(3), snap.Meta.NextPoolID)
	})
}

func TestStore_HolderPrefixIsolation(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		// 256 and 1 share their low byte; only the full 8-byte id prefix
		// tells their holders apart.
		b := &Batch{
			Pools: []pool.State{testPool(1, "a"), testPool(256, "b")},
			Holders: []HolderRecord{
				{PoolID: 256, Holder: testHolder("x", 1)},
				{PoolID: 1, Holder: testHolder("y", 2)},
				{PoolID: 1, Holder: testHolder("z", 3)},
			},
		}
		require.NoError(t, s.Commit(b))

		snap, err := s.Load()
		require.NoError(t, err)
		require.Len(t, snap.Pools, 2)
		assert.Len(t, snap.Pools[0].Holders, 2)
		assert.Len(t, snap.Pools[1].Holders, 1)
	})
}

func TestStore_EncodeFailureWritesNothing(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		bad := testPool(9, "x")
		bad.DisplayName = string(make([]byte, pool.MaxNameLen+1))
		acct := ledger.Account{Address: addr("early")}

		err := s.Commit(&Batch{Accounts: []ledger.Account{acct}, Pools: []pool.State{bad}})
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrInvalidName))

		snap, err := s.Load()
		require.NoError(t, err)
		assert.Empty(t, snap.Accounts)
		assert.Empty(t, snap.Pools)
	})
}

func TestStore_NilAndEmptyBatch(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		require.NoError(t, s.Commit(nil))
		require.NoError(t, s.Commit(&Batch{}))
	})
	assert.True(t, (&Batch{}).Empty())
	assert.False(t, (&Batch{Meta: &Meta{}}).Empty())
}

func TestBoltStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), DBFile)
	s, err := OpenBoltStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Commit(testBatch()))
	assert.Equal(t, path, s.Path())
	require.NoError(t, s.Close())

	s, err = OpenBoltStore(path)
	require.NoError(t, err)
	defer s.Close()

	snap, err := s.Load()
	require.NoError(t, err)
	assert.Len(t, snap.Pools, 2)
	assert.Len(t, snap.Experts, 1)
}

func TestBoltStore_CorruptRecord(t *testing.T) {
	s := tempBoltStore(t)
	require.NoError(t, s.Commit(testBatch()))

	err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketHolders).Put(holderKey(1, addr("bob")), []byte{1, 2, 3})
	})
	require.NoError(t, err)

	_, err = s.Load()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCorrupt))
}

func TestMemStore_CorruptRecord(t *testing.T) {
	m := NewMemStore()
	require.NoError(t, m.Commit(&Batch{Pools: []pool.State{testPool(1, "bob")}}))
	m.buckets[string(bucketPools)][string(poolKey(1))] = []byte{0}

	_, err := m.Load()
	assert.True(t, errors.Is(err, ErrCorrupt))
}

func TestMemStore_FailCommitAndClose(t *testing.T) {
	m := NewMemStore()
	boom := errors.New("disk full")
	m.FailCommit = boom

	err := m.Commit(testBatch())
	assert.True(t, errors.Is(err, boom))
	require.NoError(t, m.Commit(testBatch()), "failure is one-shot")

	require.NoError(t, m.Close())
	_, err = m.Load()
	assert.Error(t, err)
	assert.Error(t, m.Commit(&Batch{}))
}

func TestHolderKey(t *testing.T) {
	k := holderKey(1, addr("bob"))
	require.Len(t, k, 8+address.Size)
	assert.Equal(t, poolKey(1), k[:8])
	assert.Equal(t, uint64(0), readU64([]byte{1}))
	assert.Equal(t, uint64(0x0102), readU64(u64(0x0102)))
}
