package revshare

import "github.com/holiman/uint256"

// Entry is one weighted contribution of a pool to an expert.
type Entry struct {
	PoolID uint64
	Weight uint256.Int // fixed-point, never renormalized
}

// Expert is a synthesized persona backed by one or more contributor pools.
type Expert struct {
	Key              string // opaque id minted by the topic resolver
	ID               uint64 // sequential, assigned on first contribution
	Entries          []Entry
	TotalWeight      uint256.Int // sum of entry weights
	LifetimeEarnings uint256.Int
}

// FindEntry returns the index and entry of the first contribution from
// poolID, or -1 if the pool never contributed.
func (e *Expert) FindEntry(poolID uint64) (int, *Entry) {
	for i := range e.Entries {
		if e.Entries[i].PoolID == poolID {
			return i, &e.Entries[i]
		}
	}
	return -1, nil
}

// PoolIDs lists the contributing pools in entry order, repeats included.
func (e *Expert) PoolIDs() []uint64 {
	ids := make([]uint64, len(e.Entries))
	for i := range e.Entries {
		ids[i] = e.Entries[i].PoolID
	}
	return ids
}

// clone returns a deep copy.
func (e *Expert) clone() *Expert {
	cp := *e
	cp.Entries = append([]Entry(nil), e.Entries...)
	return &cp
}

// Distribution is one pool's cut of a payment.
type Distribution struct {
	PoolID uint64
	Amount uint256.Int
}
