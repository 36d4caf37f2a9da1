package pool

import (
	"strings"
	"time"

	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"github.com/bitfsorg/libsynapse-go/address"
	"github.com/bitfsorg/libsynapse-go/errors"
	"github.com/bitfsorg/libsynapse-go/fixedpoint"
)

// DefaultFeeBps is the swap fee applied when none is configured (1%).
const DefaultFeeBps = 100

// addressDomain separates pool custody addresses from other derived ids.
const addressDomain = "synapse/pool"

// Factory creates pools with sequential ids.
type Factory struct {
	feeBps     uint64
	shareRatio uint256.Int // shares minted per unit of initial quote
	nextID     uint64
	now        func() time.Time
	log        *zap.SugaredLogger
}

// NewFactory returns a factory charging feeBps on swaps and minting
// shareRatio shares per unit of initial deposit. A nil shareRatio means 1:1.
func NewFactory(feeBps uint64, shareRatio *uint256.Int, log *zap.SugaredLogger) (*Factory, error) {
	if feeBps >= fixedpoint.BpsDenominator {
		return nil, errors.Wrapf(ErrInvalidFee, "got %d", feeBps)
	}
	if shareRatio == nil {
		shareRatio = fixedpoint.One()
	}
	if shareRatio.IsZero() {
		return nil, errors.Wrap(errors.ErrInvalidAmount, "pool: share ratio must be positive")
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Factory{
		feeBps:     feeBps,
		shareRatio: *shareRatio,
		nextID:     1,
		now:        time.Now,
		log:        log,
	}, nil
}

// NextID returns the id the next pool will get.
func (f *Factory) NextID() uint64 { return f.nextID }

// SetNextID restores the id sequence from storage.
func (f *Factory) SetNextID(id uint64) {
	if id == 0 {
		id = 1
	}
	f.nextID = id
}

// FeeBps returns the swap fee applied to new pools.
func (f *Factory) FeeBps() uint64 { return f.feeBps }

// Logger returns the logger handed to new pools.
func (f *Factory) Logger() *zap.SugaredLogger { return f.log }

// Create opens a pool for contributor funded with deposit quote. The
// contributor receives every initial share; the reserves start at
// (deposit, deposit*ratio).
func (f *Factory) Create(contributor address.Address, displayName string, deposit *uint256.Int, quote QuoteBook) (*Pool, error) {
	name := strings.TrimSpace(displayName)
	if name == "" || len(name) > MaxNameLen {
		return nil, errors.Wrapf(errors.ErrInvalidName, "pool: display name must be 1-%d bytes", MaxNameLen)
	}
	if contributor.IsZero() {
		return nil, errors.Wrap(address.ErrInvalidAddress, "pool: zero contributor")
	}
	if fixedpoint.IsZero(deposit) {
		return nil, errors.Wrap(errors.ErrInvalidAmount, "pool: initial deposit must be positive")
	}
	shares, err := fixedpoint.Mul(deposit, &f.shareRatio)
	if err != nil {
		return nil, err
	}
	if shares.IsZero() {
		return nil, errors.Wrap(errors.ErrInvalidAmount, "pool: initial deposit mints no shares")
	}
	if err := quote.CheckTransfer(contributor, deposit); err != nil {
		return nil, errors.Wrap(err, "pool: initial deposit")
	}

	id := f.nextID
	st := State{
		ID:          id,
		Address:     address.Derive(addressDomain, contributor, id),
		Contributor: contributor,
		DisplayName: name,
		FeeBps:      f.feeBps,
		CreatedAt:   f.now().Unix(),
	}
	st.QuoteReserve.Set(deposit)
	st.ShareReserve.Set(shares)
	st.TotalSupply.Set(shares)

	creator := Holder{Address: contributor}
	creator.Balance.Set(shares)

	if err := quote.Transfer(contributor, st.Address, deposit); err != nil {
		return nil, errors.Wrap(err, "pool: initial deposit transfer")
	}
	f.nextID++

	f.log.Infow("pool created", "pool", id, "contributor", contributor, "name", name,
		"deposit", fixedpoint.Format(deposit), "shares", fixedpoint.Format(shares))
	return Restore(st, []Holder{creator}, f.log), nil
}
