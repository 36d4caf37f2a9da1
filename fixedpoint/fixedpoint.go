// Package fixedpoint implements the decimal fixed-point arithmetic used for
// every monetary value in the engine. Values are unsigned 256-bit integers
// scaled by One (10^18). All division truncates toward zero and every
// operation reports overflow instead of wrapping.
package fixedpoint

import (
	"strings"

	"github.com/holiman/uint256"

	"github.com/bitfsorg/libsynapse-go/errors"
)

// Decimals is the number of fractional decimal digits carried by a value.
const Decimals = 18

// BpsDenominator is the basis-point scale (10000 bps = 100%).
const BpsDenominator = 10000

// wad is 10^Decimals. Never hand it out; One returns a copy.
var wad = uint256.NewInt(1_000_000_000_000_000_000)

// One returns a new value equal to 1.0.
func One() *uint256.Int { return wad.Clone() }

// Zero returns a new zero value.
func Zero() *uint256.Int { return new(uint256.Int) }

// FromUnits returns units * One.
func FromUnits(units uint64) *uint256.Int {
	return new(uint256.Int).Mul(uint256.NewInt(units), wad)
}

// IsZero reports whether v is nil or zero.
func IsZero(v *uint256.Int) bool { return v == nil || v.IsZero() }

// Add returns a+b.
func Add(a, b *uint256.Int) (*uint256.Int, error) {
	z, overflow := new(uint256.Int).AddOverflow(a, b)
	if overflow {
		return nil, errors.Wrapf(errors.ErrOverflow, "fixedpoint: %s + %s", Format(a), Format(b))
	}
	return z, nil
}

// Sub returns a-b. It fails with ErrInsufficientBalance when b > a, since
// every subtraction in the engine takes value out of a balance.
func Sub(a, b *uint256.Int) (*uint256.Int, error) {
	z, underflow := new(uint256.Int).SubOverflow(a, b)
	if underflow {
		return nil, errors.Wrapf(errors.ErrInsufficientBalance, "fixedpoint: %s - %s", Format(a), Format(b))
	}
	return z, nil
}

// MulDiv returns floor(x*y/d) computed with a 512-bit intermediate product.
func MulDiv(x, y, d *uint256.Int) (*uint256.Int, error) {
	if d.IsZero() {
		return nil, errors.Wrap(errors.ErrOverflow, "fixedpoint: division by zero")
	}
	z, overflow := new(uint256.Int).MulDivOverflow(x, y, d)
	if overflow {
		return nil, errors.Wrapf(errors.ErrOverflow, "fixedpoint: %s * %s / %s", x.Dec(), y.Dec(), d.Dec())
	}
	return z, nil
}

// Mul returns a*b/One.
func Mul(a, b *uint256.Int) (*uint256.Int, error) { return MulDiv(a, b, wad) }

// Div returns a*One/b.
func Div(a, b *uint256.Int) (*uint256.Int, error) { return MulDiv(a, wad, b) }

// Bps returns floor(amount*bps/10000).
func Bps(amount *uint256.Int, bps uint64) (*uint256.Int, error) {
	return MulDiv(amount, uint256.NewInt(bps), uint256.NewInt(BpsDenominator))
}

// Sum adds all values, failing on overflow.
func Sum(values ...*uint256.Int) (*uint256.Int, error) {
	total := new(uint256.Int)
	for _, v := range values {
		var err error
		if total, err = Add(total, v); err != nil {
			return nil, err
		}
	}
	return total, nil
}

// Parse converts a decimal string such as "12.5" into a fixed-point value.
// Signs, exponents and more than Decimals fractional digits are rejected.
func Parse(s string) (*uint256.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, errors.Wrap(errors.ErrInvalidAmount, "fixedpoint: empty amount")
	}
	intPart, fracPart, hasDot := strings.Cut(s, ".")
	if hasDot && fracPart == "" && intPart == "" {
		return nil, errors.Wrapf(errors.ErrInvalidAmount, "fixedpoint: malformed amount %q", s)
	}
	if !isDigits(intPart) || !isDigits(fracPart) {
		return nil, errors.Wrapf(errors.ErrInvalidAmount, "fixedpoint: malformed amount %q", s)
	}
	if len(fracPart) > Decimals {
		return nil, errors.Wrapf(errors.ErrInvalidAmount, "fixedpoint: %q has more than %d decimals", s, Decimals)
	}

	digits := strings.TrimLeft(intPart+fracPart+strings.Repeat("0", Decimals-len(fracPart)), "0")
	if digits == "" {
		return new(uint256.Int), nil
	}
	v, err := uint256.FromDecimal(digits)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrOverflow, "fixedpoint: %q: %v", s, err)
	}
	return v, nil
}

// MustParse is Parse for constants and tests. It panics on error.
func MustParse(s string) *uint256.Int {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// Format renders v as a decimal string with trailing fractional zeros trimmed.
func Format(v *uint256.Int) string {
	if v == nil {
		return "0"
	}
	s := v.Dec()
	if len(s) <= Decimals {
		s = strings.Repeat("0", Decimals-len(s)+1) + s
	}
	intPart, fracPart := s[:len(s)-Decimals], strings.TrimRight(s[len(s)-Decimals:], "0")
	if fracPart == "" {
		return intPart
	}
	return intPart + "." + fracPart
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
