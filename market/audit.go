package market

import (
	"github.com/holiman/uint256"

	"github.com/bitfsorg/libsynapse-go/errors"
	"github.com/bitfsorg/libsynapse-go/fixedpoint"
	"github.com/bitfsorg/libsynapse-go/revshare"
)

// ErrInvariantViolation is returned by CheckInvariants.
var ErrInvariantViolation = errors.New("market: invariant violation")

// Audit summarizes the conservation checks.
type Audit struct {
	QuoteSupply     uint256.Int
	CreditBalances  uint256.Int
	LifetimeUsage   uint256.Int
	RoutedEarnings  uint256.Int // sum of pool lifetime earnings
	ExpertEarnings  uint256.Int // sum of expert lifetime earnings
	TreasuryBalance uint256.Int
	Pools           int
	Experts         int
}

// CheckInvariants verifies that no value has been created or destroyed:
//
//   - ledger custody holds exactly the sum of credit balances
//   - lifetime usage equals routed earnings plus treasury charges
//   - routed earnings equal the sum of expert lifetime earnings
//   - each pool's share supply equals the sum of holder balances
//   - each pool's custody covers its reserve and unpaid earnings
//   - every expert's total weight equals the sum of its entries
//
// It returns the audit figures even when a check fails.
func (m *Market) CheckInvariants() (*Audit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	a := &Audit{Pools: len(m.pools)}
	a.QuoteSupply.Set(m.quote.TotalSupply())
	a.TreasuryBalance.Set(m.quote.BalanceOf(Treasury))

	balances, usage, err := m.ledger.Totals()
	if err != nil {
		return a, err
	}
	a.CreditBalances.Set(balances)
	a.LifetimeUsage.Set(usage)

	var problems []error
	fail := func(format string, args ...interface{}) {
		problems = append(problems, errors.Wrapf(ErrInvariantViolation, format, args...))
	}

	if custody := m.quote.BalanceOf(LedgerCustody); !custody.Eq(balances) {
		fail("ledger custody %s != credit balances %s", fixedpoint.Format(custody), fixedpoint.Format(balances))
	}

	routed := new(uint256.Int)
	for _, id := range m.poolIDs() {
		p := m.pools[id]
		st := p.State()
		if routed, err = fixedpoint.Add(routed, &st.LifetimeEarnings); err != nil {
			return a, err
		}
		if err := p.CheckSupply(); err != nil {
			problems = append(problems, errors.Mark(err, ErrInvariantViolation))
		}
		owed, err := p.Obligations()
		if err != nil {
			return a, err
		}
		if held := m.quote.BalanceOf(p.Address()); held.Lt(owed) {
			fail("pool %d custody %s below obligations %s", id, fixedpoint.Format(held), fixedpoint.Format(owed))
		}
	}
	a.RoutedEarnings.Set(routed)

	experts := m.registry.Experts()
	a.Experts = len(experts)
	expertTotal := new(uint256.Int)
	for i := range experts {
		if expertTotal, err = fixedpoint.Add(expertTotal, &experts[i].LifetimeEarnings); err != nil {
			return a, err
		}
		if err := revshare.ValidateExpert(&experts[i]); err != nil {
			problems = append(problems, errors.Mark(err, ErrInvariantViolation))
		}
	}
	a.ExpertEarnings.Set(expertTotal)

	if !routed.Eq(expertTotal) {
		fail("routed earnings %s != expert earnings %s", fixedpoint.Format(routed), fixedpoint.Format(expertTotal))
	}
	accounted, err := fixedpoint.Add(routed, &a.TreasuryBalance)
	if err != nil {
		return a, err
	}
	if !accounted.Eq(usage) {
		fail("lifetime usage %s != routed %s + treasury %s", fixedpoint.Format(usage),
			fixedpoint.Format(routed), fixedpoint.Format(&a.TreasuryBalance))
	}

	if len(problems) > 0 {
		return a, errors.Join(problems...)
	}
	return a, nil
}
