// Package ledger tracks prepaid usage-credit accounts. Credits are backed
// one-for-one by quote tokens held at the ledger's custody address.
package ledger

import (
	"bytes"
	"sort"

	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"github.com/bitfsorg/libsynapse-go/address"
	"github.com/bitfsorg/libsynapse-go/errors"
	"github.com/bitfsorg/libsynapse-go/fixedpoint"
)

// Account is a consumer's credit account.
type Account struct {
	Address       address.Address
	Balance       uint256.Int
	Active        bool
	LifetimeUsage uint256.Int
}

// Quote moves quote tokens in and out of custody.
type Quote interface {
	CheckTransfer(from address.Address, amount *uint256.Int) error
	Transfer(from, to address.Address, amount *uint256.Int) error
}

// Ledger owns every credit account. It is not safe for concurrent use.
type Ledger struct {
	custody  address.Address
	accounts map[address.Address]*Account
	log      *zap.SugaredLogger
}

// New creates an empty ledger whose backing tokens live at custody.
// A nil logger disables logging.
func New(custody address.Address, log *zap.SugaredLogger) *Ledger {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Ledger{
		custody:  custody,
		accounts: make(map[address.Address]*Account),
		log:      log,
	}
}

// Custody returns the address holding the quote tokens behind all credits.
func (l *Ledger) Custody() address.Address { return l.custody }

// Deposit pulls amount of quote from account into custody and credits it.
// The first deposit creates the account; every deposit activates it.
func (l *Ledger) Deposit(account address.Address, amount *uint256.Int, quote Quote) error {
	if fixedpoint.IsZero(amount) {
		return errors.Wrap(errors.ErrInvalidAmount, "ledger: deposit must be positive")
	}
	if err := quote.CheckTransfer(account, amount); err != nil {
		return errors.Wrap(err, "ledger: deposit")
	}

	prev, existed := l.accounts[account]
	next := l.get(account)
	bal, err := fixedpoint.Add(&next.Balance, amount)
	if err != nil {
		return errors.Wrap(err, "ledger: deposit")
	}
	next.Balance = *bal
	next.Active = true

	snapshot := l.swap(account, next, prev, existed)
	if err := quote.Transfer(account, l.custody, amount); err != nil {
		snapshot()
		return errors.Wrap(err, "ledger: deposit transfer")
	}

	l.log.Debugw("credits deposited", "account", account, "amount", fixedpoint.Format(amount),
		"balance", fixedpoint.Format(&next.Balance))
	return nil
}

// CheckWithdraw reports whether account can withdraw amount.
func (l *Ledger) CheckWithdraw(account address.Address, amount *uint256.Int) error {
	if fixedpoint.IsZero(amount) {
		return errors.Wrap(errors.ErrInvalidAmount, "ledger: withdraw must be positive")
	}
	acct := l.get(account)
	if acct.Balance.Lt(amount) {
		return errors.Wrapf(errors.ErrInsufficientBalance, "ledger: withdraw %s exceeds balance %s",
			fixedpoint.Format(amount), fixedpoint.Format(&acct.Balance))
	}
	return nil
}

// Withdraw debits amount and returns the backing quote to account.
// Inactive accounts may still withdraw.
func (l *Ledger) Withdraw(account address.Address, amount *uint256.Int, quote Quote) error {
	if err := l.CheckWithdraw(account, amount); err != nil {
		return err
	}
	if err := quote.CheckTransfer(l.custody, amount); err != nil {
		return errors.Wrap(err, "ledger: custody short")
	}

	prev := l.accounts[account]
	next := *prev
	bal, _ := fixedpoint.Sub(&next.Balance, amount)
	next.Balance = *bal

	snapshot := l.swap(account, &next, prev, true)
	if err := quote.Transfer(l.custody, account, amount); err != nil {
		snapshot()
		return errors.Wrap(err, "ledger: withdraw transfer")
	}

	l.log.Debugw("credits withdrawn", "account", account, "amount", fixedpoint.Format(amount))
	return nil
}

// CheckCharge reports whether Charge would succeed without changing anything.
func (l *Ledger) CheckCharge(account address.Address, amount *uint256.Int) error {
	if fixedpoint.IsZero(amount) {
		return errors.Wrap(errors.ErrInvalidAmount, "ledger: charge must be positive")
	}
	acct, ok := l.accounts[account]
	if !ok || !acct.Active {
		return errors.Wrapf(errors.ErrInactiveAccount, "ledger: account %s", account)
	}
	if acct.Balance.Lt(amount) {
		return errors.Wrapf(errors.ErrInsufficientBalance, "ledger: charge %s exceeds balance %s",
			fixedpoint.Format(amount), fixedpoint.Format(&acct.Balance))
	}
	if _, err := fixedpoint.Add(&acct.LifetimeUsage, amount); err != nil {
		return errors.Wrap(err, "ledger: lifetime usage")
	}
	return nil
}

// Charge debits amount for usage. There is no overdraft and no partial
// charge. The charged quote stays in custody until the caller routes it.
func (l *Ledger) Charge(account address.Address, amount *uint256.Int) error {
	if err := l.CheckCharge(account, amount); err != nil {
		return err
	}
	acct := l.accounts[account]
	bal, _ := fixedpoint.Sub(&acct.Balance, amount)
	usage, _ := fixedpoint.Add(&acct.LifetimeUsage, amount)
	acct.Balance = *bal
	acct.LifetimeUsage = *usage
	return nil
}

// SetActive suspends or reactivates an existing account.
func (l *Ledger) SetActive(account address.Address, active bool) error {
	acct, ok := l.accounts[account]
	if !ok {
		return errors.Wrapf(errors.ErrNotFound, "ledger: account %s", account)
	}
	acct.Active = active
	return nil
}

// Account returns a copy of the account record. Unknown accounts report a
// zero, inactive record and false.
func (l *Ledger) Account(account address.Address) (Account, bool) {
	acct, ok := l.accounts[account]
	if !ok {
		return Account{Address: account}, false
	}
	return *acct, true
}

// Accounts lists every account ordered by address.
func (l *Ledger) Accounts() []Account {
	out := make([]Account, 0, len(l.accounts))
	for _, a := range l.accounts {
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i].Address[:], out[j].Address[:]) < 0
	})
	return out
}

// Totals sums balances and lifetime usage across all accounts.
func (l *Ledger) Totals() (balances, usage *uint256.Int, err error) {
	balances, usage = new(uint256.Int), new(uint256.Int)
	for _, a := range l.accounts {
		if balances, err = fixedpoint.Add(balances, &a.Balance); err != nil {
			return nil, nil, err
		}
		if usage, err = fixedpoint.Add(usage, &a.LifetimeUsage); err != nil {
			return nil, nil, err
		}
	}
	return balances, usage, nil
}

// Restore installs an account loaded from storage.
func (l *Ledger) Restore(acct Account) {
	a := acct
	l.accounts[acct.Address] = &a
}

// get returns a copy of the account, or a fresh inactive record.
func (l *Ledger) get(account address.Address) *Account {
	if a, ok := l.accounts[account]; ok {
		cp := *a
		return &cp
	}
	return &Account{Address: account}
}

// swap installs next and returns a func that puts prev back.
func (l *Ledger) swap(account address.Address, next, prev *Account, existed bool) func() {
	l.accounts[account] = next
	return func() {
		if existed {
			l.accounts[account] = prev
		} else {
			delete(l.accounts, account)
		}
	}
}
