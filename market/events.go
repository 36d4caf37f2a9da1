package market

import (
	"github.com/holiman/uint256"

	"github.com/bitfsorg/libsynapse-go/address"
)

// EventType names a committed state change.
type EventType string

// Event types.
const (
	EventDeposit      EventType = "deposit"
	EventWithdraw     EventType = "withdraw"
	EventCharge       EventType = "charge"
	EventMint         EventType = "mint"
	EventPoolCreated  EventType = "pool_created"
	EventSwap         EventType = "swap"
	EventShareTx      EventType = "share_transfer"
	EventEarnings     EventType = "earnings_recorded"
	EventSettled      EventType = "earnings_settled"
	EventContribution EventType = "expert_contribution"
	EventPayment      EventType = "payment"
	EventAccountState EventType = "account_state"
)

// Event describes one committed change. Fields that do not apply to the
// type are zero.
type Event struct {
	Type    EventType
	Account address.Address
	PoolID  uint64
	Expert  string
	Amount  uint256.Int
	// Receipt is set for EventPayment.
	Receipt *Receipt
}

// Observer is notified after an operation has committed and the market
// lock is released, so it may call back into the market.
type Observer interface {
	OnEvent(e Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(e Event)

// OnEvent calls f(e).
func (f ObserverFunc) OnEvent(e Event) { f(e) }

// RegisterObserver adds an observer.
func (m *Market) RegisterObserver(o Observer) {
	m.obsMu.Lock()
	defer m.obsMu.Unlock()
	m.observers = append(m.observers, o)
}

// ClearObservers removes every observer.
func (m *Market) ClearObservers() {
	m.obsMu.Lock()
	defer m.obsMu.Unlock()
	m.observers = nil
}

func (m *Market) notify(events []Event) {
	if len(events) == 0 {
		return
	}
	m.obsMu.RLock()
	observers := make([]Observer, len(m.observers))
	copy(observers, m.observers)
	m.obsMu.RUnlock()

	for _, e := range events {
		for _, o := range observers {
			o.OnEvent(e)
		}
	}
}

func amountEvent(t EventType, account address.Address, amount *uint256.Int) Event {
	e := Event{Type: t, Account: account}
	e.Amount.Set(amount)
	return e
}
