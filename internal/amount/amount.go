// Package amount implements the 18-decimal fixed-point quantities used for
// share balances and deposits. Values are unsigned 256-bit integers of base
// units; one whole token is 10^18 base units.
package amount

import (
	"errors"
	"fmt"
	"strings"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

// Decimals is the number of fractional decimal digits carried by every quantity.
const Decimals = 18

var (
	// ErrInvalid is returned when text cannot be represented as a non-negative
	// quantity with at most Decimals fractional digits.
	ErrInvalid = errors.New("invalid amount")

	// ErrOverflow is returned when a result does not fit in 256 bits.
	ErrOverflow = errors.New("amount overflow")

	// ErrDivisionByZero is returned by MulDiv for a zero denominator.
	ErrDivisionByZero = errors.New("division by zero")
)

// Parse converts a decimal token string such as "3.3" or "100" into base units.
func Parse(s string) (uint256.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return uint256.Int{}, fmt.Errorf("%w: empty", ErrInvalid)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return uint256.Int{}, fmt.Errorf("%w: %q", ErrInvalid, s)
	}
	if d.Sign() < 0 {
		return uint256.Int{}, fmt.Errorf("%w: %q is negative", ErrInvalid, s)
	}

	units := d.Shift(Decimals)
	if !units.IsInteger() {
		return uint256.Int{}, fmt.Errorf("%w: %q has more than %d fractional digits", ErrInvalid, s, Decimals)
	}

	v, overflow := uint256.FromBig(units.BigInt())
	if overflow {
		return uint256.Int{}, fmt.Errorf("%w: %q", ErrOverflow, s)
	}
	return *v, nil
}

// MustParse is like Parse but panics on malformed input.
func MustParse(s string) uint256.Int {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// Format renders base units as the shortest decimal token string.
func Format(v uint256.Int) string {
	return decimal.NewFromBigInt(v.ToBig(), -Decimals).String()
}

// MulDiv returns floor(x*y/d). The product is computed with 512 bits so it
// never wraps before the division.
func MulDiv(x, y, d uint256.Int) (uint256.Int, error) {
	if d.IsZero() {
		return uint256.Int{}, ErrDivisionByZero
	}

	var z uint256.Int
	if _, overflow := z.MulDivOverflow(&x, &y, &d); overflow {
		return uint256.Int{}, ErrOverflow
	}
	return z, nil
}

// Add returns x+y or ErrOverflow.
func Add(x, y uint256.Int) (uint256.Int, error) {
	var z uint256.Int
	if _, overflow := z.AddOverflow(&x, &y); overflow {
		return uint256.Int{}, ErrOverflow
	}
	return z, nil
}

// Sub returns x-y, or ErrOverflow when y > x.
func Sub(x, y uint256.Int) (uint256.Int, error) {
	var z uint256.Int
	if _, underflow := z.SubOverflow(&x, &y); underflow {
		return uint256.Int{}, ErrOverflow
	}
	return z, nil
}
