package market

import (
	"sort"

	"github.com/holiman/uint256"

	"github.com/bitfsorg/libsynapse-go/address"
	"github.com/bitfsorg/libsynapse-go/errors"
	"github.com/bitfsorg/libsynapse-go/fixedpoint"
	"github.com/bitfsorg/libsynapse-go/pool"
)

// ShareBalance is one account's position in one pool.
type ShareBalance struct {
	PoolID      uint64
	DisplayName string
	Balance     uint256.Int
	Earned      uint256.Int // lifetime entitlement, paid or not
	Claimable   uint256.Int
}

// CreatePool opens a pool for contributor funded from their quote wallet.
// Each contributor may own one pool.
func (m *Market) CreatePool(contributor address.Address, displayName string, deposit *uint256.Int) (uint64, error) {
	var id uint64
	err := m.withWriteLock(func(tx *txn) error {
		if err := m.checkActor(contributor); err != nil {
			return err
		}
		if existing, ok := m.byContributor[contributor]; ok {
			return errors.WithHintf(
				errors.Wrapf(errors.ErrDuplicateRegistration, "market: %s already owns pool %d", contributor, existing),
				"each contributor may register one pool")
		}
		p, err := m.factory.Create(contributor, displayName, deposit, m.quote)
		if err != nil {
			return err
		}
		id = p.ID()
		m.pools[id] = p
		m.byContributor[contributor] = id
		m.byCustody[p.Address()] = id

		tx.touchPool(id, contributor)
		tx.touchQuote(contributor, p.Address())
		tx.meta = true
		e := amountEvent(EventPoolCreated, contributor, deposit)
		e.PoolID = id
		tx.emit(e)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// PoolInfo returns the pool with derived market figures.
func (m *Market) PoolInfo(id uint64) (pool.Info, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, err := m.pool(id)
	if err != nil {
		return pool.Info{}, err
	}
	return p.Info()
}

// PoolInfoForAddress returns the pool owned by contributor.
func (m *Market) PoolInfoForAddress(contributor address.Address) (pool.Info, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byContributor[contributor]
	if !ok {
		return pool.Info{}, errors.Wrapf(errors.ErrNotFound, "market: no pool for %s", contributor)
	}
	return m.pools[id].Info()
}

// PoolHolders lists the share positions of a pool ordered by address.
func (m *Market) PoolHolders(id uint64) ([]pool.Holder, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, err := m.pool(id)
	if err != nil {
		return nil, err
	}
	return p.Holders(), nil
}

// IsRegisteredContributor reports whether account owns a pool.
func (m *Market) IsRegisteredContributor(account address.Address) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.byContributor[account]
	return ok
}

// AllPools lists every pool ordered by id.
func (m *Market) AllPools() ([]pool.Info, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]pool.Info, 0, len(m.pools))
	for _, id := range m.poolIDs() {
		info, err := m.pools[id].Info()
		if err != nil {
			return nil, err
		}
		out = append(out, info)
	}
	return out, nil
}

func (m *Market) poolIDs() []uint64 {
	ids := make([]uint64, 0, len(m.pools))
	for id := range m.pools {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// AmountOut quotes a swap without executing it.
func (m *Market) AmountOut(poolID uint64, tokenIn, tokenOut pool.Token, amountIn *uint256.Int) (out, fee *uint256.Int, err error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, err := m.pool(poolID)
	if err != nil {
		return nil, nil, err
	}
	return p.AmountOut(tokenIn, tokenOut, amountIn)
}

// Swap trades amountIn of tokenIn in pool poolID. minOut may be nil.
func (m *Market) Swap(trader address.Address, poolID uint64, tokenIn pool.Token, amountIn, minOut *uint256.Int) (*pool.SwapResult, error) {
	var res *pool.SwapResult
	err := m.withWriteLock(func(tx *txn) error {
		p, err := m.pool(poolID)
		if err != nil {
			return err
		}
		if err := m.checkActor(trader); err != nil {
			return err
		}
		if res, err = p.Swap(trader, tokenIn, amountIn, minOut, m.quote); err != nil {
			return err
		}
		tx.touchPool(poolID, trader, p.Contributor())
		tx.touchQuote(trader, p.Address(), p.Contributor())
		e := amountEvent(EventSwap, trader, amountIn)
		e.PoolID = poolID
		tx.emit(e)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// TransferShares moves shares between holders of one pool.
func (m *Market) TransferShares(poolID uint64, from, to address.Address, amount *uint256.Int) error {
	return m.withWriteLock(func(tx *txn) error {
		p, err := m.pool(poolID)
		if err != nil {
			return err
		}
		if err := m.checkActor(from, to); err != nil {
			return err
		}
		if err := p.Transfer(from, to, amount); err != nil {
			return err
		}
		tx.touchPool(poolID, from, to)
		e := amountEvent(EventShareTx, from, amount)
		e.PoolID = poolID
		tx.emit(e)
		m.log.Infow("shares transferred", "pool", poolID, "from", from, "to", to,
			"amount", fixedpoint.Format(amount))
		return nil
	})
}

// TokenHolderEarnings returns everything account has earned in the pool,
// paid out or not.
func (m *Market) TokenHolderEarnings(poolID uint64, account address.Address) (*uint256.Int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, err := m.pool(poolID)
	if err != nil {
		return nil, err
	}
	return p.Earnings(account)
}

// SettleEarnings pays account's claimable earnings from the pool in quote.
func (m *Market) SettleEarnings(poolID uint64, account address.Address) (*uint256.Int, error) {
	var paid *uint256.Int
	err := m.withWriteLock(func(tx *txn) error {
		p, err := m.pool(poolID)
		if err != nil {
			return err
		}
		if err := m.checkActor(account); err != nil {
			return err
		}
		if paid, err = p.Settle(account, m.quote); err != nil {
			return err
		}
		tx.touchPool(poolID, account)
		tx.touchQuote(account, p.Address())
		e := amountEvent(EventSettled, account, paid)
		e.PoolID = poolID
		tx.emit(e)
		m.log.Infow("earnings settled", "pool", poolID, "account", account, "paid", fixedpoint.Format(paid))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paid, nil
}

// AccountTokenBalances lists account's share positions across all pools,
// skipping pools where it holds nothing and has nothing to claim.
func (m *Market) AccountTokenBalances(account address.Address) ([]ShareBalance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []ShareBalance
	for _, id := range m.poolIDs() {
		p := m.pools[id]
		earned, err := p.Earnings(account)
		if err != nil {
			return nil, err
		}
		claim, err := p.Claimable(account)
		if err != nil {
			return nil, err
		}
		bal := p.BalanceOf(account)
		if bal.IsZero() && fixedpoint.IsZero(earned) {
			continue
		}
		sb := ShareBalance{PoolID: id, DisplayName: p.State().DisplayName}
		sb.Balance.Set(bal)
		sb.Earned.Set(earned)
		sb.Claimable.Set(claim)
		out = append(out, sb)
	}
	return out, nil
}
