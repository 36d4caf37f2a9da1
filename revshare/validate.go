package revshare

import (
	"github.com/holiman/uint256"

	"github.com/bitfsorg/libsynapse-go/errors"
	"github.com/bitfsorg/libsynapse-go/fixedpoint"
)

// ValidateConservation checks that the distributed amounts add up to the payment.
func ValidateConservation(distributions []Distribution, totalPayment *uint256.Int) error {
	total := new(uint256.Int)
	for i := range distributions {
		var err error
		if total, err = fixedpoint.Add(total, &distributions[i].Amount); err != nil {
			return err
		}
	}
	if !total.Eq(totalPayment) {
		return errors.Wrapf(ErrConservationViolation, "payment=%s distributed=%s",
			totalPayment.Dec(), total.Dec())
	}
	return nil
}

// ValidateDistribution checks that distributions match the expert's weights.
func ValidateDistribution(distributions []Distribution, e *Expert, totalPayment *uint256.Int) error {
	if len(distributions) != len(e.Entries) {
		return errors.Newf("distribution count %d != entry count %d", len(distributions), len(e.Entries))
	}

	expected, err := Distribute(totalPayment, e.Entries, &e.TotalWeight)
	if err != nil {
		return err
	}

	for i := range distributions {
		if distributions[i].PoolID != expected[i].PoolID {
			return errors.Newf("entry %d: pool %d != expected %d", i, distributions[i].PoolID, expected[i].PoolID)
		}
		if !distributions[i].Amount.Eq(&expected[i].Amount) {
			return errors.Newf("entry %d: amount %s != expected %s", i,
				distributions[i].Amount.Dec(), expected[i].Amount.Dec())
		}
	}
	return nil
}

// ValidateExpert checks that TotalWeight equals the sum of entry weights.
func ValidateExpert(e *Expert) error {
	sum := new(uint256.Int)
	for i := range e.Entries {
		var err error
		if sum, err = fixedpoint.Add(sum, &e.Entries[i].Weight); err != nil {
			return err
		}
	}
	if !sum.Eq(&e.TotalWeight) {
		return errors.Wrapf(ErrWeightMismatch, "expert %q: total=%s sum=%s",
			e.Key, fixedpoint.Format(&e.TotalWeight), fixedpoint.Format(sum))
	}
	return nil
}
