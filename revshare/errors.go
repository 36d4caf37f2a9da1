package revshare

import "github.com/bitfsorg/libsynapse-go/errors"

var (
	// ErrInvalidExpertData indicates a stored expert record is malformed.
	ErrInvalidExpertData = errors.New("revshare: invalid expert data")

	// ErrConservationViolation indicates a split created or destroyed value.
	ErrConservationViolation = errors.New("revshare: payment conservation violated")

	// ErrWeightMismatch indicates TotalWeight differs from the sum of entry weights.
	ErrWeightMismatch = errors.New("revshare: weight mismatch")

	// ErrTooManyEntries indicates an expert exceeds the encodable entry count.
	ErrTooManyEntries = errors.New("revshare: too many entries")
)

// MaxKeyLen bounds expert keys.
const MaxKeyLen = 256
