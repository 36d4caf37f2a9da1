// Package address defines the 20-byte identifiers used for consumer
// accounts, contributors and pool custody addresses.
package address

import (
	"encoding/binary"
	"encoding/hex"
	"strings"

	"github.com/zeebo/blake3"
	"golang.org/x/crypto/sha3"

	"github.com/bitfsorg/libsynapse-go/errors"
)

// Size is the byte length of an Address.
const Size = 20

// Address identifies an account holder or a pool.
type Address [Size]byte

// Zero is the all-zero address. It is never a valid owner.
var Zero Address

// ErrInvalidAddress indicates the text form could not be decoded.
var ErrInvalidAddress = errors.New("address: invalid address")

// Parse decodes a 40 hex digit address with an optional 0x prefix. Mixed
// case input must carry a valid checksum.
func Parse(s string) (Address, error) {
	var a Address
	raw := strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(raw) != 2*Size {
		return a, errors.Wrapf(ErrInvalidAddress, "%q: want %d hex digits, got %d", s, 2*Size, len(raw))
	}
	b, err := hex.DecodeString(raw)
	if err != nil {
		return a, errors.Wrapf(ErrInvalidAddress, "%q: %v", s, err)
	}
	copy(a[:], b)

	if raw != strings.ToLower(raw) && raw != strings.ToUpper(raw) {
		if a.String()[2:] != raw {
			return Address{}, errors.Wrapf(ErrInvalidAddress, "%q: bad checksum", s)
		}
	}
	return a, nil
}

// MustParse is Parse for constants and tests. It panics on error.
func MustParse(s string) Address {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

// IsZero reports whether a is the zero address.
func (a Address) IsZero() bool { return a == Zero }

// Hex returns the lowercase 0x-prefixed form.
func (a Address) Hex() string { return "0x" + hex.EncodeToString(a[:]) }

// String returns the checksummed form: a hex letter is upper case when the
// matching nibble of Keccak-256(lowercase hex) is 8 or more.
func (a Address) String() string {
	lower := hex.EncodeToString(a[:])
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(lower))
	digest := h.Sum(nil)

	out := []byte(lower)
	for i := range out {
		if out[i] < 'a' {
			continue
		}
		nibble := digest[i/2]
		if i%2 == 0 {
			nibble >>= 4
		}
		if nibble&0x0f >= 8 {
			out[i] -= 'a' - 'A'
		}
	}
	return "0x" + string(out)
}

// MarshalText implements encoding.TextMarshaler.
func (a Address) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Derive returns a deterministic address for a domain-separated object,
// e.g. the custody address of pool id under its contributor.
func Derive(domain string, owner Address, id uint64) Address {
	h := blake3.New()
	h.Write([]byte(domain))
	h.Write([]byte{0})
	h.Write(owner[:])
	var idBuf [8]byte
	binary.BigEndian.PutUint64(idBuf[:], id)
	h.Write(idBuf[:])

	var a Address
	copy(a[:], h.Sum(nil))
	return a
}

// FromName derives an address from a human readable label. The CLI uses it
// so operators can name accounts instead of pasting hex.
func FromName(name string) Address {
	sum := blake3.Sum256([]byte("synapse/name\x00" + name))
	var a Address
	copy(a[:], sum[:Size])
	return a
}

// Resolve accepts either a hex address or a label for FromName.
func Resolve(s string) (Address, error) {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return Parse(s)
	}
	if s == "" {
		return Zero, errors.Wrap(ErrInvalidAddress, "empty account")
	}
	return FromName(s), nil
}
