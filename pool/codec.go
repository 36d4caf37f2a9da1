package pool

import (
	"encoding/binary"

	"github.com/holiman/uint256"

	"github.com/bitfsorg/libsynapse-go/address"
	"github.com/bitfsorg/libsynapse-go/errors"
)

const (
	// id(8) + address(20) + contributor(20) + fee_bps(8) + created_at(8)
	stateHeaderSize = 8 + 2*address.Size + 8 + 8
	// quote_reserve, share_reserve, total_supply, accumulator,
	// lifetime_earnings, dust, swap_fees_quote, swap_fees_share
	stateAmounts    = 8
	stateAmountSize = 32 * stateAmounts
	// name_len(2) + name
	stateFixedSize = stateHeaderSize + stateAmountSize + 2

	// address(20) + balance, checkpoint, settled, withdrawn
	holderSize = address.Size + 4*32
)

func (st *State) amounts() []*uint256.Int {
	return []*uint256.Int{
		&st.QuoteReserve, &st.ShareReserve, &st.TotalSupply, &st.Accumulator,
		&st.LifetimeEarnings, &st.Dust, &st.SwapFeesQuote, &st.SwapFeesShare,
	}
}

// SerializeState encodes a pool record to binary format.
func SerializeState(st *State) ([]byte, error) {
	if len(st.DisplayName) > MaxNameLen {
		return nil, errors.Wrapf(errors.ErrInvalidName, "pool %d: name is %d bytes", st.ID, len(st.DisplayName))
	}
	buf := make([]byte, stateFixedSize+len(st.DisplayName))
	offset := 0

	binary.BigEndian.PutUint64(buf[offset:offset+8], st.ID)
	offset += 8
	copy(buf[offset:offset+address.Size], st.Address[:])
	offset += address.Size
	copy(buf[offset:offset+address.Size], st.Contributor[:])
	offset += address.Size
	binary.BigEndian.PutUint64(buf[offset:offset+8], st.FeeBps)
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:offset+8], uint64(st.CreatedAt))
	offset += 8

	for _, v := range st.amounts() {
		b := v.Bytes32()
		copy(buf[offset:offset+32], b[:])
		offset += 32
	}

	binary.BigEndian.PutUint16(buf[offset:offset+2], uint16(len(st.DisplayName)))
	offset += 2
	copy(buf[offset:], st.DisplayName)
	return buf, nil
}

// DeserializeState decodes a record written by SerializeState.
func DeserializeState(data []byte) (*State, error) {
	if len(data) < stateFixedSize {
		return nil, errors.Wrapf(ErrInvalidPoolData, "too short (%d bytes)", len(data))
	}
	offset := 0

	st := &State{}
	st.ID = binary.BigEndian.Uint64(data[offset : offset+8])
	offset += 8
	copy(st.Address[:], data[offset:offset+address.Size])
	offset += address.Size
	copy(st.Contributor[:], data[offset:offset+address.Size])
	offset += address.Size
	st.FeeBps = binary.BigEndian.Uint64(data[offset : offset+8])
	offset += 8
	st.CreatedAt = int64(binary.BigEndian.Uint64(data[offset : offset+8]))
	offset += 8

	for _, v := range st.amounts() {
		v.SetBytes32(data[offset : offset+32])
		offset += 32
	}

	nameLen := int(binary.BigEndian.Uint16(data[offset : offset+2]))
	offset += 2
	if len(data) != offset+nameLen {
		return nil, errors.Wrapf(ErrInvalidPoolData, "expected %d bytes for %d byte name, got %d",
			offset+nameLen, nameLen, len(data))
	}
	st.DisplayName = string(data[offset:])
	return st, nil
}

// SerializeHolder encodes a holder position to its fixed-size binary form.
func SerializeHolder(h *Holder) []byte {
	buf := make([]byte, holderSize)
	offset := 0

	copy(buf[offset:offset+address.Size], h.Address[:])
	offset += address.Size
	for _, v := range []*uint256.Int{&h.Balance, &h.Checkpoint, &h.Settled, &h.Withdrawn} {
		b := v.Bytes32()
		copy(buf[offset:offset+32], b[:])
		offset += 32
	}
	return buf
}

// DeserializeHolder decodes a record written by SerializeHolder.
func DeserializeHolder(data []byte) (*Holder, error) {
	if len(data) != holderSize {
		return nil, errors.Wrapf(ErrInvalidHolderData, "expected %d bytes, got %d", holderSize, len(data))
	}
	offset := 0

	h := &Holder{}
	copy(h.Address[:], data[offset:offset+address.Size])
	offset += address.Size
	for _, v := range []*uint256.Int{&h.Balance, &h.Checkpoint, &h.Settled, &h.Withdrawn} {
		v.SetBytes32(data[offset : offset+32])
		offset += 32
	}
	return h, nil
}
