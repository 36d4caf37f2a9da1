// Package errors provides error handling for libsynapse.
//
// It re-exports github.com/cockroachdb/errors (stack traces, wrapping,
// hints, marks) and defines the error kinds every engine operation reports.
// Components wrap a kind with context and callers test for it with Is:
//
//	if errors.Is(err, errors.ErrInsufficientBalance) {
//	    // reject the request
//	}
package errors

import (
	"net/http"

	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
	Mark         = crdb.Mark
	Join         = crdb.Join
)

// User-facing messages and details
var (
	WithHint     = crdb.WithHint
	WithHintf    = crdb.WithHintf
	WithDetail   = crdb.WithDetail
	WithDetailf  = crdb.WithDetailf
	GetAllHints  = crdb.GetAllHints
	FlattenHints = crdb.FlattenHints
)

// Error inspection
var (
	Is        = crdb.Is
	IsAny     = crdb.IsAny
	As        = crdb.As
	Unwrap    = crdb.Unwrap
	UnwrapAll = crdb.UnwrapAll
)

// Error kinds reported by the engine.
var (
	// ErrInsufficientBalance indicates an account, holder or custody balance
	// is smaller than the requested amount.
	ErrInsufficientBalance = New("insufficient balance")

	// ErrInactiveAccount indicates the credit account is missing or suspended.
	ErrInactiveAccount = New("inactive account")

	// ErrInsufficientLiquidity indicates a trade would drain or cannot be
	// served by the pool reserves.
	ErrInsufficientLiquidity = New("insufficient liquidity")

	// ErrZeroSupply indicates earnings were recorded on a pool without shares.
	ErrZeroSupply = New("zero share supply")

	// ErrInvalidWeight indicates a non-positive contribution weight.
	ErrInvalidWeight = New("invalid weight")

	// ErrUnknownExpert indicates the expert key has no contributors.
	ErrUnknownExpert = New("unknown expert")

	// ErrZeroWeight indicates an expert whose total weight is zero.
	ErrZeroWeight = New("zero total weight")

	// ErrInvalidAmount indicates a non-positive or malformed amount.
	ErrInvalidAmount = New("invalid amount")

	// ErrDuplicateRegistration indicates the contributor already owns a pool.
	ErrDuplicateRegistration = New("duplicate registration")

	// ErrNotFound indicates the requested pool, holder or account does not exist.
	ErrNotFound = New("not found")

	// ErrInvalidToken indicates an unknown token side or identical in/out tokens.
	ErrInvalidToken = New("invalid token")

	// ErrSlippage indicates the trade output fell below the caller's bound.
	ErrSlippage = New("slippage limit exceeded")

	// ErrOverflow indicates a fixed-point result does not fit in 256 bits.
	ErrOverflow = New("arithmetic overflow")

	// ErrInvalidName indicates an empty or oversized display name or key.
	ErrInvalidName = New("invalid name")

	// ErrMintDisabled indicates the quote faucet is turned off.
	ErrMintDisabled = New("quote minting disabled")
)

// kinds maps each error kind to its stable name and HTTP status. Order
// matters: the first kind an error matches wins.
var kinds = []struct {
	err    error
	name   string
	status int
}{
	{ErrInsufficientBalance, "InsufficientBalance", http.StatusPaymentRequired},
	{ErrInactiveAccount, "InactiveAccount", http.StatusForbidden},
	{ErrInsufficientLiquidity, "InsufficientLiquidity", http.StatusUnprocessableEntity},
	{ErrZeroSupply, "ZeroSupply", http.StatusConflict},
	{ErrInvalidWeight, "InvalidWeight", http.StatusBadRequest},
	{ErrUnknownExpert, "UnknownExpert", http.StatusNotFound},
	{ErrZeroWeight, "ZeroWeight", http.StatusConflict},
	{ErrInvalidAmount, "InvalidAmount", http.StatusBadRequest},
	{ErrDuplicateRegistration, "DuplicateRegistration", http.StatusConflict},
	{ErrNotFound, "NotFound", http.StatusNotFound},
	{ErrInvalidToken, "InvalidToken", http.StatusBadRequest},
	{ErrSlippage, "Slippage", http.StatusUnprocessableEntity},
	{ErrOverflow, "Overflow", http.StatusUnprocessableEntity},
	{ErrInvalidName, "InvalidName", http.StatusBadRequest},
	{ErrMintDisabled, "MintDisabled", http.StatusForbidden},
}

// Kind returns the stable name of the first error kind err matches,
// "Internal" for any other non-nil error, and "" for nil.
func Kind(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if Is(err, k.err) {
			return k.name
		}
	}
	return "Internal"
}

// HTTPStatus maps err to the status code an API layer should answer with.
func HTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	for _, k := range kinds {
		if Is(err, k.err) {
			return k.status
		}
	}
	return http.StatusInternalServerError
}
