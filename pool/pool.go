// Package pool implements contributor pools: a constant-product market
// between the quote asset and a contributor's share token, plus an
// earnings-per-share accumulator that splits usage revenue across share
// holders without iterating over them.
//
// A holder's lifetime entitlement is
//
//	pending = balance * (accumulator - checkpoint) / One + settled
//
// and every change to a balance first locks in pending at the current
// accumulator, so transfers never move earnings between holders.
//
// The share reserve is virtual. Buying mints shares out of it and selling
// burns them back, so TotalSupply always equals the sum of holder balances.
package pool

import (
	"bytes"
	"sort"

	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"github.com/bitfsorg/libsynapse-go/address"
	"github.com/bitfsorg/libsynapse-go/errors"
	"github.com/bitfsorg/libsynapse-go/fixedpoint"
)

// Pool is one contributor's market and earnings engine. It is not safe for
// concurrent use.
type Pool struct {
	st      State
	holders map[address.Address]*Holder
	locked  bool
	log     *zap.SugaredLogger
}

// Restore rebuilds a pool from persisted state. A nil logger disables logging.
func Restore(st State, holders []Holder, log *zap.SugaredLogger) *Pool {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	p := &Pool{
		st:      st,
		holders: make(map[address.Address]*Holder, len(holders)),
		log:     log,
	}
	for i := range holders {
		h := holders[i]
		p.holders[h.Address] = &h
	}
	return p
}

// ID returns the pool id.
func (p *Pool) ID() uint64 { return p.st.ID }

// Address returns the pool's custody address.
func (p *Pool) Address() address.Address { return p.st.Address }

// Contributor returns the address that receives swap fees.
func (p *Pool) Contributor() address.Address { return p.st.Contributor }

// State returns a copy of the pool record.
func (p *Pool) State() State { return p.st }

// enter guards against a value transfer calling back into the pool.
func (p *Pool) enter() error {
	if p.locked {
		return errors.Wrapf(ErrReentrant, "pool %d", p.st.ID)
	}
	p.locked = true
	return nil
}

func (p *Pool) exit() { p.locked = false }

func (p *Pool) reserves(tokenIn Token) (in, out *uint256.Int) {
	if tokenIn == Quote {
		return &p.st.QuoteReserve, &p.st.ShareReserve
	}
	return &p.st.ShareReserve, &p.st.QuoteReserve
}

// AmountOut prices a trade without executing it. The fee is taken from the
// input and reported in the input token.
func (p *Pool) AmountOut(tokenIn, tokenOut Token, amountIn *uint256.Int) (out, fee *uint256.Int, err error) {
	if !tokenIn.Valid() || !tokenOut.Valid() || tokenIn == tokenOut {
		return nil, nil, errors.Wrapf(errors.ErrInvalidToken, "pool %d: %s -> %s", p.st.ID, tokenIn, tokenOut)
	}
	if fixedpoint.IsZero(amountIn) {
		return nil, nil, errors.Mark(
			errors.Wrapf(errors.ErrInvalidAmount, "pool %d: zero input", p.st.ID),
			errors.ErrInsufficientLiquidity)
	}

	reserveIn, reserveOut := p.reserves(tokenIn)
	if fee, err = fixedpoint.Bps(amountIn, p.st.FeeBps); err != nil {
		return nil, nil, err
	}
	net := new(uint256.Int).Sub(amountIn, fee)
	denom, err := fixedpoint.Add(reserveIn, net)
	if err != nil {
		return nil, nil, err
	}
	if denom.IsZero() {
		return nil, nil, errors.Wrapf(errors.ErrInsufficientLiquidity, "pool %d: empty reserves", p.st.ID)
	}
	if out, err = fixedpoint.MulDiv(net, reserveOut, denom); err != nil {
		return nil, nil, err
	}
	if out.IsZero() {
		return nil, nil, errors.Wrapf(errors.ErrInsufficientLiquidity, "pool %d: output rounds to zero", p.st.ID)
	}
	if !out.Lt(reserveOut) {
		return nil, nil, errors.Wrapf(errors.ErrInsufficientLiquidity, "pool %d: output %s drains %s reserve",
			p.st.ID, fixedpoint.Format(out), tokenOut)
	}
	return out, fee, nil
}

// Swap trades amountIn of tokenIn for the other token. The fee goes
// straight to the contributor in tokenIn. A non-nil minOut rejects trades
// that would pay less.
func (p *Pool) Swap(trader address.Address, tokenIn Token, amountIn, minOut *uint256.Int, quote QuoteBook) (*SwapResult, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.exit()

	if trader.IsZero() {
		return nil, errors.Wrap(address.ErrInvalidAddress, "pool: zero trader")
	}
	out, fee, err := p.AmountOut(tokenIn, tokenIn.Other(), amountIn)
	if err != nil {
		return nil, err
	}
	if minOut != nil && out.Lt(minOut) {
		return nil, errors.Wrapf(errors.ErrSlippage, "pool %d: output %s below minimum %s",
			p.st.ID, fixedpoint.Format(out), fixedpoint.Format(minOut))
	}
	net := new(uint256.Int).Sub(amountIn, fee)

	if tokenIn == Quote {
		err = p.buy(trader, amountIn, net, fee, out, quote)
	} else {
		err = p.sell(trader, amountIn, net, fee, out, quote)
	}
	if err != nil {
		return nil, err
	}

	res := &SwapResult{PoolID: p.st.ID, Trader: trader, TokenIn: tokenIn, TokenOut: tokenIn.Other()}
	res.AmountIn.Set(amountIn)
	res.AmountOut.Set(out)
	res.Fee.Set(fee)
	p.log.Debugw("swap", "pool", p.st.ID, "trader", trader, "in", tokenIn,
		"amount_in", fixedpoint.Format(amountIn), "amount_out", fixedpoint.Format(out),
		"fee", fixedpoint.Format(fee))
	return res, nil
}

// buy: quote in, shares minted out of the virtual reserve.
func (p *Pool) buy(trader address.Address, amountIn, net, fee, out *uint256.Int, quote QuoteBook) error {
	if err := quote.CheckTransfer(trader, amountIn); err != nil {
		return errors.Wrapf(err, "pool %d: buy", p.st.ID)
	}

	next := p.st
	s := p.stage()
	var err error
	var v *uint256.Int
	if v, err = fixedpoint.Add(&next.QuoteReserve, net); err != nil {
		return err
	}
	next.QuoteReserve = *v
	v, _ = fixedpoint.Sub(&next.ShareReserve, out)
	next.ShareReserve = *v
	if v, err = fixedpoint.Add(&next.TotalSupply, out); err != nil {
		return err
	}
	next.TotalSupply = *v
	if v, err = fixedpoint.Add(&next.SwapFeesQuote, fee); err != nil {
		return err
	}
	next.SwapFeesQuote = *v

	h, err := s.holder(trader)
	if err != nil {
		return err
	}
	if v, err = fixedpoint.Add(&h.Balance, out); err != nil {
		return err
	}
	h.Balance = *v

	undo := s.commit(next)
	if !net.IsZero() {
		if err := quote.Transfer(trader, p.st.Address, net); err != nil {
			undo()
			return errors.Wrapf(err, "pool %d: buy transfer", p.st.ID)
		}
	}
	if !fee.IsZero() {
		if err := quote.Transfer(trader, p.st.Contributor, fee); err != nil {
			undo()
			return errors.Wrapf(err, "pool %d: fee transfer", p.st.ID)
		}
	}
	return nil
}

// sell: shares in and burned, quote paid out of the reserve.
func (p *Pool) sell(trader address.Address, amountIn, net, fee, out *uint256.Int, quote QuoteBook) error {
	if bal := p.BalanceOf(trader); bal.Lt(amountIn) {
		return errors.Wrapf(errors.ErrInsufficientBalance, "pool %d: %s holds %s shares, sells %s",
			p.st.ID, trader, fixedpoint.Format(bal), fixedpoint.Format(amountIn))
	}
	if err := quote.CheckTransfer(p.st.Address, out); err != nil {
		return errors.Wrapf(err, "pool %d: custody", p.st.ID)
	}

	next := p.st
	s := p.stage()
	var err error
	var v *uint256.Int
	if v, err = fixedpoint.Add(&next.ShareReserve, net); err != nil {
		return err
	}
	next.ShareReserve = *v
	v, _ = fixedpoint.Sub(&next.QuoteReserve, out)
	next.QuoteReserve = *v
	if v, err = fixedpoint.Sub(&next.TotalSupply, net); err != nil {
		return err
	}
	next.TotalSupply = *v
	if v, err = fixedpoint.Add(&next.SwapFeesShare, fee); err != nil {
		return err
	}
	next.SwapFeesShare = *v

	seller, err := s.holder(trader)
	if err != nil {
		return err
	}
	v, _ = fixedpoint.Sub(&seller.Balance, amountIn)
	seller.Balance = *v
	if !fee.IsZero() {
		c, err := s.holder(p.st.Contributor)
		if err != nil {
			return err
		}
		if v, err = fixedpoint.Add(&c.Balance, fee); err != nil {
			return err
		}
		c.Balance = *v
	}

	undo := s.commit(next)
	if err := quote.Transfer(p.st.Address, trader, out); err != nil {
		undo()
		return errors.Wrapf(err, "pool %d: sell transfer", p.st.ID)
	}
	return nil
}

// earningsStep computes the accumulator advance for amount.
func (p *Pool) earningsStep(amount *uint256.Int) (acc, lifetime, dust *uint256.Int, err error) {
	if fixedpoint.IsZero(amount) {
		return nil, nil, nil, errors.Wrapf(errors.ErrInvalidAmount, "pool %d: zero earnings", p.st.ID)
	}
	if p.st.TotalSupply.IsZero() {
		return nil, nil, nil, errors.Wrapf(errors.ErrZeroSupply, "pool %d", p.st.ID)
	}
	inc, err := fixedpoint.Div(amount, &p.st.TotalSupply)
	if err != nil {
		return nil, nil, nil, err
	}
	if acc, err = fixedpoint.Add(&p.st.Accumulator, inc); err != nil {
		return nil, nil, nil, err
	}
	if lifetime, err = fixedpoint.Add(&p.st.LifetimeEarnings, amount); err != nil {
		return nil, nil, nil, err
	}
	credited, err := fixedpoint.Mul(inc, &p.st.TotalSupply)
	if err != nil {
		return nil, nil, nil, err
	}
	dust = new(uint256.Int).Sub(amount, credited)
	return acc, lifetime, dust, nil
}

// CheckRecordEarnings reports whether RecordEarnings(amount) would succeed.
func (p *Pool) CheckRecordEarnings(amount *uint256.Int) error {
	if p.locked {
		return errors.Wrapf(ErrReentrant, "pool %d", p.st.ID)
	}
	_, _, dust, err := p.earningsStep(amount)
	if err != nil {
		return err
	}
	if _, err := fixedpoint.Add(&p.st.Dust, dust); err != nil {
		return err
	}
	return nil
}

// RecordEarnings distributes amount across the current share supply. The
// caller must already have moved amount of quote into the pool's custody.
// The part that cannot be expressed per share (at most supply/One + 1 base
// units) is returned and kept in the pool as dust.
func (p *Pool) RecordEarnings(amount *uint256.Int) (*uint256.Int, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.exit()

	acc, lifetime, dust, err := p.earningsStep(amount)
	if err != nil {
		return nil, err
	}
	totalDust, err := fixedpoint.Add(&p.st.Dust, dust)
	if err != nil {
		return nil, err
	}
	p.st.Accumulator = *acc
	p.st.LifetimeEarnings = *lifetime
	p.st.Dust = *totalDust

	p.log.Debugw("earnings recorded", "pool", p.st.ID, "amount", fixedpoint.Format(amount),
		"dust", dust.Dec())
	return dust, nil
}

// pending returns h's lifetime entitlement at the current accumulator.
func (p *Pool) pending(h *Holder) (*uint256.Int, error) {
	delta := new(uint256.Int).Sub(&p.st.Accumulator, &h.Checkpoint)
	earned, err := fixedpoint.Mul(&h.Balance, delta)
	if err != nil {
		return nil, err
	}
	return fixedpoint.Add(earned, &h.Settled)
}

// Earnings returns everything addr has earned in this pool, paid or not.
func (p *Pool) Earnings(addr address.Address) (*uint256.Int, error) {
	h, ok := p.holders[addr]
	if !ok {
		return new(uint256.Int), nil
	}
	return p.pending(h)
}

// Claimable returns earnings addr can still withdraw.
func (p *Pool) Claimable(addr address.Address) (*uint256.Int, error) {
	h, ok := p.holders[addr]
	if !ok {
		return new(uint256.Int), nil
	}
	pending, err := p.pending(h)
	if err != nil {
		return nil, err
	}
	return fixedpoint.Sub(pending, &h.Withdrawn)
}

// Settle pays addr's claimable earnings in quote from the pool's custody.
// A second call with no new earnings in between pays zero.
func (p *Pool) Settle(addr address.Address, quote QuoteBook) (*uint256.Int, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.exit()

	if _, ok := p.holders[addr]; !ok {
		return new(uint256.Int), nil
	}
	s := p.stage()
	h, err := s.holder(addr)
	if err != nil {
		return nil, err
	}
	claim, err := fixedpoint.Sub(&h.Settled, &h.Withdrawn)
	if err != nil {
		return nil, err
	}
	if !claim.IsZero() {
		if err := quote.CheckTransfer(p.st.Address, claim); err != nil {
			return nil, errors.Wrapf(err, "pool %d: earnings escrow", p.st.ID)
		}
	}
	h.Withdrawn = h.Settled

	undo := s.commit(p.st)
	if !claim.IsZero() {
		if err := quote.Transfer(p.st.Address, addr, claim); err != nil {
			undo()
			return nil, errors.Wrapf(err, "pool %d: settle transfer", p.st.ID)
		}
	}
	p.log.Debugw("earnings settled", "pool", p.st.ID, "holder", addr, "paid", fixedpoint.Format(claim))
	return claim, nil
}

// Transfer moves shares between holders after locking in both holders'
// earnings. TotalSupply is unchanged.
func (p *Pool) Transfer(from, to address.Address, amount *uint256.Int) error {
	if err := p.enter(); err != nil {
		return err
	}
	defer p.exit()

	if fixedpoint.IsZero(amount) {
		return errors.Wrapf(errors.ErrInvalidAmount, "pool %d: transfer zero shares", p.st.ID)
	}
	if to.IsZero() {
		return errors.Wrapf(address.ErrInvalidAddress, "pool %d: transfer to zero address", p.st.ID)
	}
	if bal := p.BalanceOf(from); bal.Lt(amount) {
		return errors.Wrapf(errors.ErrInsufficientBalance, "pool %d: %s holds %s shares, sends %s",
			p.st.ID, from, fixedpoint.Format(bal), fixedpoint.Format(amount))
	}

	s := p.stage()
	src, err := s.holder(from)
	if err != nil {
		return err
	}
	dst, err := s.holder(to)
	if err != nil {
		return err
	}
	v, _ := fixedpoint.Sub(&src.Balance, amount)
	src.Balance = *v
	if v, err = fixedpoint.Add(&dst.Balance, amount); err != nil {
		return err
	}
	dst.Balance = *v
	s.commit(p.st)
	return nil
}

// BalanceOf returns addr's share balance.
func (p *Pool) BalanceOf(addr address.Address) *uint256.Int {
	if h, ok := p.holders[addr]; ok {
		return h.Balance.Clone()
	}
	return new(uint256.Int)
}

// Holder returns a copy of addr's position.
func (p *Pool) Holder(addr address.Address) (Holder, bool) {
	h, ok := p.holders[addr]
	if !ok {
		return Holder{Address: addr}, false
	}
	return *h, true
}

// Holders lists every position ordered by address.
func (p *Pool) Holders() []Holder {
	out := make([]Holder, 0, len(p.holders))
	for _, h := range p.holders {
		out = append(out, *h)
	}
	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i].Address[:], out[j].Address[:]) < 0
	})
	return out
}

// Info returns the pool record with price, market cap and fee totals.
func (p *Pool) Info() (Info, error) {
	info := Info{State: p.st}
	for _, h := range p.holders {
		if !h.Balance.IsZero() {
			info.HolderCount++
		}
	}
	if p.st.ShareReserve.IsZero() {
		info.SwapFeesInQuote = p.st.SwapFeesQuote
		return info, nil
	}
	price, err := fixedpoint.Div(&p.st.QuoteReserve, &p.st.ShareReserve)
	if err != nil {
		return Info{}, err
	}
	mcap, err := fixedpoint.Mul(price, &p.st.TotalSupply)
	if err != nil {
		return Info{}, err
	}
	feeValue, err := fixedpoint.Mul(&p.st.SwapFeesShare, price)
	if err != nil {
		return Info{}, err
	}
	fees, err := fixedpoint.Add(feeValue, &p.st.SwapFeesQuote)
	if err != nil {
		return Info{}, err
	}
	info.Price = *price
	info.MarketCap = *mcap
	info.SwapFeesInQuote = *fees
	return info, nil
}

// CheckSupply verifies TotalSupply equals the sum of holder balances.
func (p *Pool) CheckSupply() error {
	sum := new(uint256.Int)
	for _, h := range p.holders {
		var err error
		if sum, err = fixedpoint.Add(sum, &h.Balance); err != nil {
			return err
		}
	}
	if !sum.Eq(&p.st.TotalSupply) {
		return errors.Wrapf(ErrSupplyMismatch, "pool %d: supply %s, holders %s",
			p.st.ID, fixedpoint.Format(&p.st.TotalSupply), fixedpoint.Format(sum))
	}
	return nil
}

// Obligations returns the quote the pool must hold: its reserve plus every
// holder's unpaid earnings.
func (p *Pool) Obligations() (*uint256.Int, error) {
	total := p.st.QuoteReserve.Clone()
	for addr := range p.holders {
		claim, err := p.Claimable(addr)
		if err != nil {
			return nil, err
		}
		if total, err = fixedpoint.Add(total, claim); err != nil {
			return nil, err
		}
	}
	return total, nil
}
