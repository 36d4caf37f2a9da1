package pool

import "github.com/bitfsorg/libsynapse-go/errors"

var (
	// ErrReentrant indicates a pool method was called while another one on
	// the same pool was still transferring value.
	ErrReentrant = errors.New("pool: reentrant call")

	// ErrInvalidPoolData indicates a stored pool record is malformed.
	ErrInvalidPoolData = errors.New("pool: invalid pool data")

	// ErrInvalidHolderData indicates a stored holder record is malformed.
	ErrInvalidHolderData = errors.New("pool: invalid holder data")

	// ErrSupplyMismatch indicates total supply differs from the sum of holdings.
	ErrSupplyMismatch = errors.New("pool: share supply mismatch")

	// ErrInvalidFee indicates a fee of 100% or more.
	ErrInvalidFee = errors.New("pool: fee must be below 10000 bps")
)

// MaxNameLen bounds display names.
const MaxNameLen = 64
