package market

import (
	"github.com/holiman/uint256"

	"github.com/bitfsorg/libsynapse-go/address"
	"github.com/bitfsorg/libsynapse-go/errors"
	"github.com/bitfsorg/libsynapse-go/fixedpoint"
	"github.com/bitfsorg/libsynapse-go/ledger"
)

// Deposit moves amount of the account's quote into ledger custody and
// credits it. The account becomes active.
func (m *Market) Deposit(account address.Address, amount *uint256.Int) error {
	return m.withWriteLock(func(tx *txn) error {
		if err := m.checkActor(account); err != nil {
			return err
		}
		if err := m.ledger.Deposit(account, amount, m.quote); err != nil {
			return err
		}
		tx.touchAccount(account)
		tx.touchQuote(account, LedgerCustody)
		tx.emit(amountEvent(EventDeposit, account, amount))
		m.log.Infow("deposit", "account", account, "amount", fixedpoint.Format(amount))
		return nil
	})
}

// Withdraw debits credits and returns the backing quote.
func (m *Market) Withdraw(account address.Address, amount *uint256.Int) error {
	return m.withWriteLock(func(tx *txn) error {
		if err := m.checkActor(account); err != nil {
			return err
		}
		if err := m.ledger.Withdraw(account, amount, m.quote); err != nil {
			return err
		}
		tx.touchAccount(account)
		tx.touchQuote(account, LedgerCustody)
		tx.emit(amountEvent(EventWithdraw, account, amount))
		m.log.Infow("withdraw", "account", account, "amount", fixedpoint.Format(amount))
		return nil
	})
}

// Charge debits amount for usage that is not routed to an expert. The
// backing quote moves to the treasury.
func (m *Market) Charge(account address.Address, amount *uint256.Int) error {
	return m.withWriteLock(func(tx *txn) error {
		if err := m.checkActor(account); err != nil {
			return err
		}
		if err := m.ledger.CheckCharge(account, amount); err != nil {
			return err
		}
		if err := m.quote.CheckTransfer(LedgerCustody, amount); err != nil {
			return errors.Wrap(err, "market: ledger custody")
		}
		tx.begin()
		if err := m.ledger.Charge(account, amount); err != nil {
			return err
		}
		if err := m.quote.Transfer(LedgerCustody, Treasury, amount); err != nil {
			return err
		}
		tx.touchAccount(account)
		tx.touchQuote(LedgerCustody, Treasury)
		tx.emit(amountEvent(EventCharge, account, amount))
		m.log.Infow("charge", "account", account, "amount", fixedpoint.Format(amount))
		return nil
	})
}

// Account returns the credit account. Unknown accounts read as a zero,
// inactive record.
func (m *Market) Account(account address.Address) ledger.Account {
	m.mu.RLock()
	defer m.mu.RUnlock()
	acct, _ := m.ledger.Account(account)
	return acct
}

// Accounts lists every credit account.
func (m *Market) Accounts() []ledger.Account {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ledger.Accounts()
}

// SetAccountActive suspends or reactivates an account. Suspended accounts
// cannot be charged but may still withdraw.
func (m *Market) SetAccountActive(account address.Address, active bool) error {
	return m.withWriteLock(func(tx *txn) error {
		if _, ok := m.ledger.Account(account); !ok {
			return errors.Wrapf(errors.ErrNotFound, "market: account %s", account)
		}
		if err := m.ledger.SetActive(account, active); err != nil {
			return err
		}
		tx.touchAccount(account)
		tx.emit(Event{Type: EventAccountState, Account: account})
		m.log.Infow("account state changed", "account", account, "active", active)
		return nil
	})
}

// QuoteBalance returns the account's wallet balance of the quote asset.
func (m *Market) QuoteBalance(account address.Address) *uint256.Int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.quote.BalanceOf(account)
}

// MintQuote credits freshly minted quote to account. Only available when
// the market was opened with AllowMint.
func (m *Market) MintQuote(account address.Address, amount *uint256.Int) error {
	return m.withWriteLock(func(tx *txn) error {
		if !m.opts.AllowMint {
			return errors.WithHint(errors.Wrap(errors.ErrMintDisabled, "market: mint"),
				"set allow_mint = true in the config to enable the faucet")
		}
		if err := m.checkActor(account); err != nil {
			return err
		}
		if err := m.quote.Mint(account, amount); err != nil {
			return err
		}
		tx.touchQuote(account)
		tx.emit(amountEvent(EventMint, account, amount))
		m.log.Infow("quote minted", "account", account, "amount", fixedpoint.Format(amount))
		return nil
	})
}
