package pool

import (
	"github.com/bitfsorg/libsynapse-go/address"
)

// staging collects holder copies for one operation so nothing is visible
// until commit.
type staging struct {
	p       *Pool
	holders map[address.Address]*Holder
}

func (p *Pool) stage() *staging {
	return &staging{p: p, holders: make(map[address.Address]*Holder, 2)}
}

// holder returns the staged copy of addr's position with earnings locked in
// at the current accumulator. Repeated calls return the same copy.
func (s *staging) holder(addr address.Address) (*Holder, error) {
	if h, ok := s.holders[addr]; ok {
		return h, nil
	}
	h := &Holder{Address: addr}
	if cur, ok := s.p.holders[addr]; ok {
		*h = *cur
	}
	pending, err := s.p.pending(h)
	if err != nil {
		return nil, err
	}
	h.Settled = *pending
	h.Checkpoint = s.p.st.Accumulator
	s.holders[addr] = h
	return h, nil
}

// commit installs next and the staged holders and returns a func that
// restores the previous state.
func (s *staging) commit(next State) func() {
	prevState := s.p.st
	prevHolders := make(map[address.Address]*Holder, len(s.holders))
	for addr := range s.holders {
		prevHolders[addr] = s.p.holders[addr]
	}

	s.p.st = next
	for addr, h := range s.holders {
		s.p.holders[addr] = h
	}

	return func() {
		s.p.st = prevState
		for addr, h := range prevHolders {
			if h == nil {
				delete(s.p.holders, addr)
			} else {
				s.p.holders[addr] = h
			}
		}
	}
}
