package ppb

import "math/bits"

// Denominator is the fixed-point base for all percentages and fee rates:
// parts per billion.
const Denominator uint64 = 1_000_000_000

// MulDiv returns floor(amount * num / den) computed through a 128-bit
// intermediate so that amount*num may exceed 64 bits. num must not exceed
// den; MulDiv panics otherwise since the quotient could not be represented.
func MulDiv(amount, num, den uint64) uint64 {
	if den == 0 || num > den {
		panic("ppb: num must be in [0, den]")
	}
	if num == 0 || amount == 0 {
		return 0
	}
	hi, lo := bits.Mul64(amount, num)
	quo, _ := bits.Div64(hi, lo, den)
	return quo
}

// Share returns floor(amount * percent / 1e9).
func Share(amount, percent uint64) uint64 {
	return MulDiv(amount, percent, Denominator)
}
