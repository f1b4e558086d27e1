// Package cpmath implements overflow-checked uint64 arithmetic for the
// constant-product pricing formula.
package cpmath

import (
	"math/bits"

	"github.com/pkg/errors"
)

// ErrOverflow is returned when a result does not fit in uint64 or a
// division by zero would be required.
var ErrOverflow = errors.New("uint64 overflow")

// SafeMul returns a*b or ErrOverflow when the product exceeds 64 bits.
func SafeMul(a, b uint64) (uint64, error) {
	hi, lo := bits.Mul64(a, b)
	if hi != 0 {
		return 0, errors.Wrapf(ErrOverflow, "mul %d * %d", a, b)
	}
	return lo, nil
}

// SafeAdd returns a+b or ErrOverflow when the sum exceeds 64 bits.
func SafeAdd(a, b uint64) (uint64, error) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, errors.Wrapf(ErrOverflow, "add %d + %d", a, b)
	}
	return sum, nil
}

// AmountOut prices a swap of amountIn against the (reserveIn, reserveOut)
// reserves:
//
//	out = floor(amountIn * reserveOut / (reserveIn + amountIn))
//
// Floor division never favors the trader, so the reserve product
// (reserveIn + amountIn) * (reserveOut - out) can only stay equal or grow.
// Fails with ErrOverflow when the numerator or denominator exceeds 64 bits,
// or when the denominator is zero (both reserveIn and amountIn zero).
func AmountOut(amountIn, reserveIn, reserveOut uint64) (uint64, error) {
	numerator, err := SafeMul(amountIn, reserveOut)
	if err != nil {
		return 0, errors.Wrap(err, "swap numerator")
	}

	denominator, err := SafeAdd(reserveIn, amountIn)
	if err != nil {
		return 0, errors.Wrap(err, "swap denominator")
	}
	if denominator == 0 {
		return 0, errors.Wrap(ErrOverflow, "zero denominator")
	}

	return numerator / denominator, nil
}
