package market

import (
	"time"

	"github.com/google/uuid"
	"github.com/holiman/uint256"

	"github.com/bitfsorg/libsynapse-go/address"
	"github.com/bitfsorg/libsynapse-go/errors"
	"github.com/bitfsorg/libsynapse-go/fixedpoint"
	"github.com/bitfsorg/libsynapse-go/revshare"
)

// Split is one pool's part of a payment.
type Split struct {
	PoolID uint64
	Amount uint256.Int
	// Dust is the part of Amount the pool could not credit per share.
	Dust uint256.Int
}

// Receipt records a routed payment.
type Receipt struct {
	ID        uuid.UUID
	ExpertKey string
	Payer     address.Address
	Amount    uint256.Int
	Splits    []Split
	Time      time.Time
}

// ContributeExpertKnowledge adds pool poolID to the expert's backers with
// the given weight, creating the expert on first use.
func (m *Market) ContributeExpertKnowledge(expertKey string, poolID uint64, weight *uint256.Int) (revshare.Expert, error) {
	var out revshare.Expert
	err := m.withWriteLock(func(tx *txn) error {
		if _, err := m.pool(poolID); err != nil {
			return err
		}
		e, created, err := m.registry.Contribute(expertKey, poolID, weight)
		if err != nil {
			return err
		}
		out = e
		tx.touchExpert(expertKey)
		if created {
			tx.meta = true
		}
		ev := amountEvent(EventContribution, address.Zero, weight)
		ev.PoolID = poolID
		ev.Expert = expertKey
		tx.emit(ev)
		return nil
	})
	if err != nil {
		return revshare.Expert{}, err
	}
	return out, nil
}

// Pay charges payer amount and routes it to the expert's pools by weight.
// Every precondition is checked before anything changes; the charge and
// all pool credits commit together or not at all.
func (m *Market) Pay(expertKey string, amount *uint256.Int, payer address.Address) (*Receipt, error) {
	var rcpt *Receipt
	err := m.withWriteLock(func(tx *txn) error {
		if err := m.checkActor(payer); err != nil {
			return err
		}
		dists, err := m.registry.Plan(expertKey, amount)
		if err != nil {
			return err
		}
		if err := m.ledger.CheckCharge(payer, amount); err != nil {
			return err
		}
		if err := m.quote.CheckTransfer(LedgerCustody, amount); err != nil {
			return errors.Wrap(err, "market: ledger custody")
		}
		for _, d := range dists {
			if d.Amount.IsZero() {
				continue
			}
			p, err := m.pool(d.PoolID)
			if err != nil {
				return err
			}
			if err := p.CheckRecordEarnings(&d.Amount); err != nil {
				return err
			}
		}

		tx.begin()
		if err := m.ledger.Charge(payer, amount); err != nil {
			return err
		}
		rcpt = &Receipt{
			ID:        uuid.New(),
			ExpertKey: expertKey,
			Payer:     payer,
			Splits:    make([]Split, 0, len(dists)),
			Time:      m.now().UTC(),
		}
		rcpt.Amount.Set(amount)
		for _, d := range dists {
			split := Split{PoolID: d.PoolID, Amount: d.Amount}
			if !d.Amount.IsZero() {
				p := m.pools[d.PoolID]
				if err := m.quote.Transfer(LedgerCustody, p.Address(), &d.Amount); err != nil {
					return err
				}
				dust, err := p.RecordEarnings(&d.Amount)
				if err != nil {
					return err
				}
				split.Dust.Set(dust)
				tx.touchPool(d.PoolID)
				tx.touchQuote(p.Address())
				e := amountEvent(EventEarnings, address.Zero, &d.Amount)
				e.PoolID = d.PoolID
				e.Expert = expertKey
				tx.emit(e)
			}
			rcpt.Splits = append(rcpt.Splits, split)
		}
		if err := m.registry.RecordPayment(expertKey, amount); err != nil {
			return err
		}

		tx.touchAccount(payer)
		tx.touchQuote(LedgerCustody)
		tx.touchExpert(expertKey)
		e := amountEvent(EventPayment, payer, amount)
		e.Expert = expertKey
		e.Receipt = rcpt
		tx.emit(e)
		m.log.Infow("payment routed", "receipt", rcpt.ID, "expert", expertKey, "payer", payer,
			"amount", fixedpoint.Format(amount), "pools", len(dists))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rcpt, nil
}

// ExpertInfo returns the expert registered under key.
func (m *Market) ExpertInfo(expertKey string) (revshare.Expert, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.registry.Expert(expertKey)
	if !ok {
		return revshare.Expert{}, errors.Wrapf(errors.ErrUnknownExpert, "market: expert %q", expertKey)
	}
	return e, nil
}

// ExpertInfos lists every expert ordered by id.
func (m *Market) ExpertInfos() []revshare.Expert {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.registry.Experts()
}
