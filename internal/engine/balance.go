package engine

import (
	"math/bits"
)

// StableBalance is an amount of the stable asset that certificates are priced in
type StableBalance uint64

// NativeBalance is an amount of native capital, the currency bonders lock
type NativeBalance uint64

// BasisPoints is a fraction of 10000
type BasisPoints uint32

const FullPercentage BasisPoints = 10000

// stablePerNative is the fixed conversion rate between bonded capital and the
// stable pool.
const stablePerNative = 1

// NativeToStable converts bonded capital into its stable-pool value
func NativeToStable(n NativeBalance) (StableBalance, error) {
	hi, lo := bits.Mul64(uint64(n), stablePerNative)
	if hi != 0 {
		return 0, ErrConversionError
	}
	return StableBalance(lo), nil
}

// StableToNative converts a stable-pool amount back into native capital
func StableToNative(s StableBalance) (NativeBalance, error) {
	if uint64(s)%stablePerNative != 0 {
		return 0, ErrConversionError
	}
	return NativeBalance(uint64(s) / stablePerNative), nil
}

func addU64(a, b uint64) (uint64, error) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, ErrArithmeticOverflow
	}
	return sum, nil
}

func subU64(a, b uint64) (uint64, error) {
	if b > a {
		return 0, ErrArithmeticUnderflow
	}
	return a - b, nil
}

func mulU64(a, b uint64) (uint64, error) {
	hi, lo := bits.Mul64(a, b)
	if hi != 0 {
		return 0, ErrArithmeticOverflow
	}
	return lo, nil
}

// mulDiv computes a*b/c without intermediate overflow. c must not be zero.
func mulDiv(a, b, c uint64) (uint64, error) {
	hi, lo := bits.Mul64(a, b)
	if hi >= c {
		return 0, ErrArithmeticOverflow
	}
	q, _ := bits.Div64(hi, lo, c)
	return q, nil
}

func (s StableBalance) add(o StableBalance) (StableBalance, error) {
	v, err := addU64(uint64(s), uint64(o))
	return StableBalance(v), err
}

func (s StableBalance) sub(o StableBalance) (StableBalance, error) {
	v, err := subU64(uint64(s), uint64(o))
	return StableBalance(v), err
}

func (n NativeBalance) add(o NativeBalance) (NativeBalance, error) {
	v, err := addU64(uint64(n), uint64(o))
	return NativeBalance(v), err
}

func (n NativeBalance) sub(o NativeBalance) (NativeBalance, error) {
	v, err := subU64(uint64(n), uint64(o))
	return NativeBalance(v), err
}

// percentOf returns amount * bps / 10000
func percentOf(amount StableBalance, bps BasisPoints) (StableBalance, error) {
	v, err := mulDiv(uint64(amount), uint64(bps), uint64(FullPercentage))
	return StableBalance(v), err
}
