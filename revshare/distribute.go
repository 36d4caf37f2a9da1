package revshare

import (
	"github.com/holiman/uint256"

	"github.com/bitfsorg/libsynapse-go/errors"
	"github.com/bitfsorg/libsynapse-go/fixedpoint"
)

// Distribute splits totalPayment across entries by weight/totalWeight.
// The last entry gets the remainder so the full payment is always routed.
func Distribute(totalPayment *uint256.Int, entries []Entry, totalWeight *uint256.Int) ([]Distribution, error) {
	if fixedpoint.IsZero(totalPayment) {
		return nil, errors.Wrap(errors.ErrInvalidAmount, "revshare: payment must be positive")
	}
	if len(entries) == 0 {
		return nil, errors.Wrap(errors.ErrUnknownExpert, "revshare: no contributors")
	}
	if fixedpoint.IsZero(totalWeight) {
		return nil, errors.Wrap(errors.ErrZeroWeight, "revshare: total weight is zero")
	}

	distributions := make([]Distribution, len(entries))
	distributed := new(uint256.Int)

	for i, entry := range entries {
		distributions[i].PoolID = entry.PoolID
		if i == len(entries)-1 {
			// Last contributor gets remainder
			rest, err := fixedpoint.Sub(totalPayment, distributed)
			if err != nil {
				return nil, errors.Wrap(ErrWeightMismatch, "revshare: weights exceed total")
			}
			distributions[i].Amount = *rest
			continue
		}
		amount, err := fixedpoint.MulDiv(totalPayment, &entry.Weight, totalWeight)
		if err != nil {
			return nil, err
		}
		distributions[i].Amount = *amount
		if distributed, err = fixedpoint.Add(distributed, amount); err != nil {
			return nil, err
		}
	}

	return distributions, nil
}
