// Package store persists engine state. Every mutating engine operation
// commits the records it touched as one Batch, so a crash never leaves a
// half-applied operation behind.
package store

import (
	"bytes"
	"encoding/binary"

	"github.com/bitfsorg/libsynapse-go/address"
	"github.com/bitfsorg/libsynapse-go/errors"
	"github.com/bitfsorg/libsynapse-go/ledger"
	"github.com/bitfsorg/libsynapse-go/pool"
	"github.com/bitfsorg/libsynapse-go/revshare"
	"github.com/bitfsorg/libsynapse-go/token"
)

var (
	bucketAccounts = []byte("accounts")
	bucketQuote    = []byte("quote")
	bucketPools    = []byte("pools")
	bucketHolders  = []byte("holders")
	bucketExperts  = []byte("experts")
	bucketMeta     = []byte("meta")

	allBuckets = [][]byte{bucketAccounts, bucketQuote, bucketPools, bucketHolders, bucketExperts, bucketMeta}

	keyNextPoolID   = []byte("next_pool_id")
	keyNextExpertID = []byte("next_expert_id")
)

var (
	// ErrCorrupt indicates a stored record could not be decoded.
	ErrCorrupt = errors.New("store: corrupt record")

	errStoreClosed = errors.New("store: closed")
)

// Store loads and commits engine state.
type Store interface {
	// Load returns everything persisted so far.
	Load() (*Snapshot, error)
	// Commit writes all records in b atomically.
	Commit(b *Batch) error
	Close() error
}

// Meta holds id sequences.
type Meta struct {
	NextPoolID   uint64
	NextExpertID uint64
}

// PoolRecord is a pool with its holders.
type PoolRecord struct {
	State   pool.State
	Holders []pool.Holder
}

// Snapshot is the full persisted state.
type Snapshot struct {
	Accounts []ledger.Account
	Quote    []token.Balance
	Pools    []PoolRecord
	Experts  []revshare.Expert
	Meta     Meta
}

// HolderRecord ties a holder position to its pool.
type HolderRecord struct {
	PoolID uint64
	Holder pool.Holder
}

// Batch collects the records one operation changed.
type Batch struct {
	Accounts []ledger.Account
	Quote    []token.Balance
	Pools    []pool.State
	Holders  []HolderRecord
	Experts  []revshare.Expert
	Meta     *Meta
}

// Empty reports whether the batch writes nothing.
func (b *Batch) Empty() bool {
	return len(b.Accounts) == 0 && len(b.Quote) == 0 && len(b.Pools) == 0 &&
		len(b.Holders) == 0 && len(b.Experts) == 0 && b.Meta == nil
}

type put struct {
	bucket []byte
	key    []byte
	value  []byte
}

// encode turns the batch into bucket writes.
func (b *Batch) encode() ([]put, error) {
	var puts []put
	for i := range b.Accounts {
		a := &b.Accounts[i]
		puts = append(puts, put{bucketAccounts, cp(a.Address[:]), ledger.SerializeAccount(a)})
	}
	for i := range b.Quote {
		q := &b.Quote[i]
		v := q.Amount.Bytes32()
		puts = append(puts, put{bucketQuote, cp(q.Address[:]), v[:]})
	}
	for i := range b.Pools {
		data, err := pool.SerializeState(&b.Pools[i])
		if err != nil {
			return nil, errors.Wrapf(err, "store: encode pool %d", b.Pools[i].ID)
		}
		puts = append(puts, put{bucketPools, poolKey(b.Pools[i].ID), data})
	}
	for i := range b.Holders {
		h := &b.Holders[i]
		puts = append(puts, put{bucketHolders, holderKey(h.PoolID, h.Holder.Address), pool.SerializeHolder(&h.Holder)})
	}
	for i := range b.Experts {
		data, err := revshare.SerializeExpert(&b.Experts[i])
		if err != nil {
			return nil, errors.Wrapf(err, "store: encode expert %q", b.Experts[i].Key)
		}
		puts = append(puts, put{bucketExperts, []byte(b.Experts[i].Key), data})
	}
	if b.Meta != nil {
		puts = append(puts,
			put{bucketMeta, keyNextPoolID, u64(b.Meta.NextPoolID)},
			put{bucketMeta, keyNextExpertID, u64(b.Meta.NextExpertID)})
	}
	return puts, nil
}

// reader is the read side shared by the bolt and memory stores.
type reader interface {
	forEach(bucket []byte, fn func(k, v []byte) error) error
	forEachPrefix(bucket, prefix []byte, fn func(k, v []byte) error) error
	get(bucket, key []byte) []byte
}

// loadSnapshot decodes every bucket. Holders are read per pool with a
// prefix scan over poolID||address keys.
func loadSnapshot(r reader) (*Snapshot, error) {
	snap := &Snapshot{}

	err := r.forEach(bucketAccounts, func(k, v []byte) error {
		a, err := ledger.DeserializeAccount(v)
		if err != nil {
			return errors.Wrapf(ErrCorrupt, "account %x: %v", k, err)
		}
		snap.Accounts = append(snap.Accounts, *a)
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = r.forEach(bucketQuote, func(k, v []byte) error {
		if len(k) != address.Size || len(v) != 32 {
			return errors.Wrapf(ErrCorrupt, "quote balance %x", k)
		}
		var bal token.Balance
		copy(bal.Address[:], k)
		bal.Amount.SetBytes32(v)
		snap.Quote = append(snap.Quote, bal)
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = r.forEach(bucketPools, func(k, v []byte) error {
		st, err := pool.DeserializeState(v)
		if err != nil {
			return errors.Wrapf(ErrCorrupt, "pool %x: %v", k, err)
		}
		rec := PoolRecord{State: *st}
		err = r.forEachPrefix(bucketHolders, poolKey(st.ID), func(hk, hv []byte) error {
			h, err := pool.DeserializeHolder(hv)
			if err != nil {
				return errors.Wrapf(ErrCorrupt, "holder %x: %v", hk, err)
			}
			rec.Holders = append(rec.Holders, *h)
			return nil
		})
		if err != nil {
			return err
		}
		snap.Pools = append(snap.Pools, rec)
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = r.forEach(bucketExperts, func(k, v []byte) error {
		e, err := revshare.DeserializeExpert(v)
		if err != nil {
			return errors.Wrapf(ErrCorrupt, "expert %q: %v", k, err)
		}
		snap.Experts = append(snap.Experts, *e)
		return nil
	})
	if err != nil {
		return nil, err
	}

	snap.Meta.NextPoolID = readU64(r.get(bucketMeta, keyNextPoolID))
	snap.Meta.NextExpertID = readU64(r.get(bucketMeta, keyNextExpertID))
	return snap, nil
}

// poolKey encodes a pool id as an 8-byte big-endian key for sorted storage.
func poolKey(id uint64) []byte { return u64(id) }

// holderKey is poolID||address so one pool's holders are contiguous.
func holderKey(poolID uint64, addr address.Address) []byte {
	k := make([]byte, 8+address.Size)
	binary.BigEndian.PutUint64(k, poolID)
	copy(k[8:], addr[:])
	return k
}

func u64(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

func readU64(b []byte) uint64 {
	if len(b) != 8 {
		return 0
	}
	return binary.BigEndian.Uint64(b)
}

func cp(b []byte) []byte { return bytes.Clone(b) }
