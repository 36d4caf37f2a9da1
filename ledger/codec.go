package ledger

import (
	"github.com/bitfsorg/libsynapse-go/address"
	"github.com/bitfsorg/libsynapse-go/errors"
)

// accountSize is address(20) + balance(32) + active(1) + lifetime_usage(32).
const accountSize = address.Size + 32 + 1 + 32

// ErrInvalidAccountData indicates a stored account record is malformed.
var ErrInvalidAccountData = errors.New("ledger: invalid account data")

// SerializeAccount encodes an account to its fixed-size binary form.
func SerializeAccount(a *Account) []byte {
	buf := make([]byte, accountSize)
	offset := 0

	copy(buf[offset:offset+address.Size], a.Address[:])
	offset += address.Size

	bal := a.Balance.Bytes32()
	copy(buf[offset:offset+32], bal[:])
	offset += 32

	if a.Active {
		buf[offset] = 1
	}
	offset++

	usage := a.LifetimeUsage.Bytes32()
	copy(buf[offset:offset+32], usage[:])
	return buf
}

// DeserializeAccount decodes a record written by SerializeAccount.
func DeserializeAccount(data []byte) (*Account, error) {
	if len(data) != accountSize {
		return nil, errors.Wrapf(ErrInvalidAccountData, "expected %d bytes, got %d", accountSize, len(data))
	}
	offset := 0

	a := &Account{}
	copy(a.Address[:], data[offset:offset+address.Size])
	offset += address.Size

	a.Balance.SetBytes32(data[offset : offset+32])
	offset += 32

	switch data[offset] {
	case 0:
	case 1:
		a.Active = true
	default:
		return nil, errors.Wrapf(ErrInvalidAccountData, "active flag %d", data[offset])
	}
	offset++

	a.LifetimeUsage.SetBytes32(data[offset : offset+32])
	return a, nil
}
