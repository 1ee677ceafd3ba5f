// Package interest computes per-user simple interest accrual on a debt
// principal. There is no compounding and no global index: each user's
// position carries only a principal and a last-accrual timestamp.
package interest

import (
	"math/big"

	"github.com/IHB1-Foundation/magni-cspr/fixedpoint"
)

// Accrue computes the interest owed on principal between lastAccrualTS and
// now, at the fixed annual rate fixedpoint.InterestRateBps. The result is
// rounded up on any non-zero remainder, per the protocol's round-up-on-
// accrual policy: rounding in the protocol's favor here means rounding in
// the debt's favor, since interest owed must never be understated.
//
// Accrue never mutates now/lastAccrualTS; callers are responsible for
// persisting the returned principal and advancing last_accrual_ts.
func Accrue(principal fixedpoint.Wad, lastAccrualTS, now uint64) (fixedpoint.Wad, error) {
	if principal.IsZero() {
		return fixedpoint.ZeroWad(), nil
	}
	if now < lastAccrualTS {
		return fixedpoint.Wad{}, errBackwardClock
	}
	elapsed := now - lastAccrualTS
	if elapsed == 0 {
		return fixedpoint.ZeroWad(), nil
	}

	numerator := new(big.Int).Mul(principal.BigInt(), big.NewInt(fixedpoint.InterestRateBps))
	numerator.Mul(numerator, new(big.Int).SetUint64(elapsed))

	denominator := big.NewInt(fixedpoint.SecondsPerYear * fixedpoint.BpsDivisor)
	quotient, remainder := new(big.Int).QuoRem(numerator, denominator, new(big.Int))
	if remainder.Sign() != 0 {
		quotient.Add(quotient, big.NewInt(1))
	}

	return fixedpoint.NewWadFromBigInt(quotient)
}

var errBackwardClock = &backwardClockError{}

type backwardClockError struct{}

func (*backwardClockError) Error() string {
	return "interest: now precedes last accrual timestamp"
}
