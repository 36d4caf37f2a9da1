// Package market is the engine facade. It owns the quote token book, the
// credit ledger, every contributor pool and the expert registry, serializes
// all operations behind one lock, and persists the records each operation
// touched in a single store commit.
package market

import (
	"sync"
	"time"

	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"github.com/bitfsorg/libsynapse-go/address"
	"github.com/bitfsorg/libsynapse-go/errors"
	"github.com/bitfsorg/libsynapse-go/ledger"
	"github.com/bitfsorg/libsynapse-go/pool"
	"github.com/bitfsorg/libsynapse-go/revshare"
	"github.com/bitfsorg/libsynapse-go/store"
	"github.com/bitfsorg/libsynapse-go/token"
)

// Well-known custody addresses.
var (
	// LedgerCustody holds the quote backing every credit balance.
	LedgerCustody = address.FromName("synapse/ledger")
	// Treasury receives charges that are not routed to an expert.
	Treasury = address.FromName("synapse/treasury")
)

// DefaultQuoteSymbol is the quote asset ticker when none is configured.
const DefaultQuoteSymbol = "USDC"

// Options configures a Market.
type Options struct {
	// FeeBps is the swap fee for new pools.
	FeeBps uint64
	// InitialShareRatio is shares minted per unit of initial pool deposit.
	// Nil means 1:1.
	InitialShareRatio *uint256.Int
	// AllowMint enables the MintQuote faucet.
	AllowMint   bool
	QuoteSymbol string
	Logger      *zap.SugaredLogger
}

// DefaultOptions returns options with the default fee and a 1:1 ratio.
func DefaultOptions() Options {
	return Options{FeeBps: pool.DefaultFeeBps, QuoteSymbol: DefaultQuoteSymbol}
}

// Market is safe for concurrent use.
type Market struct {
	mu    sync.RWMutex
	opts  Options
	store store.Store
	log   *zap.SugaredLogger
	now   func() time.Time

	quote         *token.Book
	ledger        *ledger.Ledger
	factory       *pool.Factory
	pools         map[uint64]*pool.Pool
	byContributor map[address.Address]uint64
	byCustody     map[address.Address]uint64
	registry      *revshare.Registry

	obsMu     sync.RWMutex
	observers []Observer
}

// Open builds a market from whatever st already holds.
func Open(st store.Store, opts Options) (*Market, error) {
	if st == nil {
		return nil, errors.New("market: store is required")
	}
	if opts.QuoteSymbol == "" {
		opts.QuoteSymbol = DefaultQuoteSymbol
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	factory, err := pool.NewFactory(opts.FeeBps, opts.InitialShareRatio, log.Named("pool"))
	if err != nil {
		return nil, errors.Wrap(err, "market: pool factory")
	}

	m := &Market{
		opts:    opts,
		store:   st,
		log:     log,
		now:     time.Now,
		factory: factory,
	}
	if err := m.load(); err != nil {
		return nil, err
	}
	m.log.Infow("market opened", "pools", len(m.pools), "accounts", len(m.ledger.Accounts()),
		"fee_bps", opts.FeeBps, "quote", opts.QuoteSymbol)
	return m, nil
}

// Close closes the underlying store.
func (m *Market) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store.Close()
}

// QuoteSymbol returns the quote asset ticker.
func (m *Market) QuoteSymbol() string { return m.opts.QuoteSymbol }

// load replaces all in-memory state with the store's snapshot.
func (m *Market) load() error {
	snap, err := m.store.Load()
	if err != nil {
		return errors.Wrap(err, "market: load state")
	}

	book := token.NewBook(m.opts.QuoteSymbol)
	for i := range snap.Quote {
		if err := book.Restore(snap.Quote[i].Address, &snap.Quote[i].Amount); err != nil {
			return errors.Wrap(err, "market: restore quote balance")
		}
	}

	led := ledger.New(LedgerCustody, m.log.Named("ledger"))
	for _, a := range snap.Accounts {
		led.Restore(a)
	}

	pools := make(map[uint64]*pool.Pool, len(snap.Pools))
	byContributor := make(map[address.Address]uint64, len(snap.Pools))
	byCustody := make(map[address.Address]uint64, len(snap.Pools))
	nextPool := snap.Meta.NextPoolID
	for _, rec := range snap.Pools {
		p := pool.Restore(rec.State, rec.Holders, m.factory.Logger())
		pools[p.ID()] = p
		byContributor[p.Contributor()] = p.ID()
		byCustody[p.Address()] = p.ID()
		if p.ID() >= nextPool {
			nextPool = p.ID() + 1
		}
	}
	m.factory.SetNextID(nextPool)

	reg := revshare.NewRegistry(m.log.Named("revshare"))
	reg.SetNextID(snap.Meta.NextExpertID)
	for _, e := range snap.Experts {
		reg.Restore(e)
	}

	m.quote = book
	m.ledger = led
	m.pools = pools
	m.byContributor = byContributor
	m.byCustody = byCustody
	m.registry = reg
	return nil
}

// withWriteLock runs fn while holding the market lock. On success the
// records fn touched are committed as one batch. If fn or the commit fails,
// in-memory state is reloaded from the store so nothing partial survives.
// Observers hear about committed events after the lock is released.
func (m *Market) withWriteLock(fn func(tx *txn) error) error {
	tx := newTxn()
	err := func() error {
		m.mu.Lock()
		defer m.mu.Unlock()

		if err := fn(tx); err != nil {
			if tx.mutated {
				m.rollback(err)
			}
			return err
		}
		batch := tx.batch(m)
		if err := m.store.Commit(batch); err != nil {
			m.rollback(err)
			return errors.Wrap(err, "market: commit")
		}
		return nil
	}()
	if err != nil {
		return err
	}
	m.notify(tx.events)
	return nil
}

func (m *Market) rollback(cause error) {
	m.log.Warnw("operation failed after mutation, reloading state", "error", cause)
	if err := m.load(); err != nil {
		m.log.Errorw("reload after failure", "error", err)
	}
}

// checkActor rejects the zero address and engine-owned custody addresses
// wherever an operation expects a user account.
func (m *Market) checkActor(addrs ...address.Address) error {
	for _, a := range addrs {
		switch {
		case a.IsZero():
			return errors.Wrap(address.ErrInvalidAddress, "market: zero address")
		case a == LedgerCustody, a == Treasury:
			return errors.Wrapf(address.ErrInvalidAddress, "market: %s is engine custody", a)
		}
		if id, ok := m.byCustody[a]; ok {
			return errors.Wrapf(address.ErrInvalidAddress, "market: %s is custody of pool %d", a, id)
		}
	}
	return nil
}

// pool returns the pool with id or ErrNotFound.
func (m *Market) pool(id uint64) (*pool.Pool, error) {
	p, ok := m.pools[id]
	if !ok {
		return nil, errors.Wrapf(errors.ErrNotFound, "market: pool %d", id)
	}
	return p, nil
}

// txn records what one operation touched.
type txn struct {
	mutated  bool
	accounts map[address.Address]struct{}
	quote    map[address.Address]struct{}
	pools    map[uint64]map[address.Address]struct{}
	experts  map[string]struct{}
	meta     bool
	events   []Event
}

func newTxn() *txn {
	return &txn{
		accounts: make(map[address.Address]struct{}),
		quote:    make(map[address.Address]struct{}),
		pools:    make(map[uint64]map[address.Address]struct{}),
		experts:  make(map[string]struct{}),
	}
}

// begin marks the point after which a failure needs a reload.
func (tx *txn) begin() { tx.mutated = true }

func (tx *txn) touchAccount(a address.Address) { tx.accounts[a] = struct{}{} }

func (tx *txn) touchQuote(addrs ...address.Address) {
	for _, a := range addrs {
		tx.quote[a] = struct{}{}
	}
}

// touchPool marks the pool record and the given holders dirty.
func (tx *txn) touchPool(id uint64, holders ...address.Address) {
	set, ok := tx.pools[id]
	if !ok {
		set = make(map[address.Address]struct{})
		tx.pools[id] = set
	}
	for _, h := range holders {
		set[h] = struct{}{}
	}
}

func (tx *txn) touchExpert(key string) { tx.experts[key] = struct{}{} }

func (tx *txn) emit(e Event) { tx.events = append(tx.events, e) }

// batch reads the current value of every touched record.
func (tx *txn) batch(m *Market) *store.Batch {
	b := &store.Batch{}
	for a := range tx.accounts {
		if acct, ok := m.ledger.Account(a); ok {
			b.Accounts = append(b.Accounts, acct)
		}
	}
	for a := range tx.quote {
		bal := token.Balance{Address: a}
		bal.Amount.Set(m.quote.BalanceOf(a))
		b.Quote = append(b.Quote, bal)
	}
	for id, holders := range tx.pools {
		p, ok := m.pools[id]
		if !ok {
			continue
		}
		b.Pools = append(b.Pools, p.State())
		for a := range holders {
			if h, ok := p.Holder(a); ok {
				b.Holders = append(b.Holders, store.HolderRecord{PoolID: id, Holder: h})
			}
		}
	}
	for key := range tx.experts {
		if e, ok := m.registry.Expert(key); ok {
			b.Experts = append(b.Experts, e)
		}
	}
	if tx.meta {
		b.Meta = &store.Meta{NextPoolID: m.factory.NextID(), NextExpertID: m.registry.NextID()}
	}
	return b
}
