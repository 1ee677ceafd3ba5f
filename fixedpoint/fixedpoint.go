// Package fixedpoint mediates between the host chain's native unit (motes,
// nine implied decimals) and the synthetic debt unit (wad, eighteen implied
// decimals). Motes and Wad are distinct Go types on purpose: the history of
// bugs this package guards against is ambient int/int64 conversion that
// silently mixed the two scales.
package fixedpoint

import (
	"errors"
	"math/big"

	"github.com/holiman/uint256"

	vaulterrors "github.com/IHB1-Foundation/magni-cspr/core/errors"
)

// ErrOverflow is returned whenever an arithmetic operation would exceed the
// bounds of its integer domain (U512 for motes, U256 for wad). It is the
// vault's core/errors ErrOverflow sentinel.
var ErrOverflow = vaulterrors.ErrOverflow

const (
	// MotesPerBase is the number of motes in one unit of BASE.
	MotesPerBase = 1_000_000_000
	// MotesToWadFactor converts a motes quantity into the wad scale.
	MotesToWadFactor = 1_000_000_000
	// LTVMaxBps is the maximum loan-to-value ratio, in basis points.
	LTVMaxBps = 8000
	// BpsDivisor is the basis-point denominator (100% == 10000 bps).
	BpsDivisor = 10000
	// InterestRateBps is the fixed annual simple interest rate, in basis points.
	InterestRateBps = 200
	// SecondsPerYear is the divisor used for simple interest accrual.
	SecondsPerYear = 31_536_000
	// MinDepositMotes is the delegation batching threshold (500 BASE).
	MinDepositMotes = 500 * MotesPerBase
)

// motesBound is 2^512 - 1, the largest value a U512 host field can hold.
var motesBound = func() *big.Int {
	bound := new(big.Int).Lsh(big.NewInt(1), 512)
	return bound.Sub(bound, big.NewInt(1))
}()

// WadOne is 1.0 expressed in wad (10^18).
var WadOne = uint256.NewInt(1_000_000_000_000_000_000)

// Motes is an unsigned integer quantity of BASE's smallest unit, bounded to
// fit a U512 host field. The zero value is zero motes.
type Motes struct {
	v *big.Int
}

// ZeroMotes returns the zero value of Motes.
func ZeroMotes() Motes { return Motes{v: big.NewInt(0)} }

// NewMotesFromUint64 builds a Motes value from a uint64 amount.
func NewMotesFromUint64(amount uint64) Motes {
	return Motes{v: new(big.Int).SetUint64(amount)}
}

// NewMotesFromBigInt builds a Motes value from a big.Int, validating the sign
// and the U512 bound. The supplied big.Int is copied, never aliased.
func NewMotesFromBigInt(amount *big.Int) (Motes, error) {
	if amount == nil || amount.Sign() < 0 {
		return Motes{}, errors.New("fixedpoint: negative motes")
	}
	if amount.Cmp(motesBound) > 0 {
		return Motes{}, ErrOverflow
	}
	return Motes{v: new(big.Int).Set(amount)}, nil
}

func (m Motes) big() *big.Int {
	if m.v == nil {
		return big.NewInt(0)
	}
	return m.v
}

// BigInt returns a defensive copy of the underlying big.Int.
func (m Motes) BigInt() *big.Int { return new(big.Int).Set(m.big()) }

// IsZero reports whether the amount is zero.
func (m Motes) IsZero() bool { return m.big().Sign() == 0 }

// Sign returns -1, 0 or 1, mirroring big.Int.Sign (motes are never negative
// in practice, but callers may use Sign for symmetry with Wad).
func (m Motes) Sign() int { return m.big().Sign() }

// Cmp compares two Motes values the way big.Int.Cmp does.
func (m Motes) Cmp(other Motes) int { return m.big().Cmp(other.big()) }

// Add returns m + other, failing with ErrOverflow if the U512 bound is exceeded.
func (m Motes) Add(other Motes) (Motes, error) {
	sum := new(big.Int).Add(m.big(), other.big())
	if sum.Cmp(motesBound) > 0 {
		return Motes{}, ErrOverflow
	}
	return Motes{v: sum}, nil
}

// Sub returns m - other. Fails if the result would be negative.
func (m Motes) Sub(other Motes) (Motes, error) {
	if m.Cmp(other) < 0 {
		return Motes{}, errors.New("fixedpoint: motes underflow")
	}
	return Motes{v: new(big.Int).Sub(m.big(), other.big())}, nil
}

// String renders the amount in motes, unscaled.
func (m Motes) String() string { return m.big().String() }

// Float64 renders the amount in motes, unscaled, as a float64. Precision is
// lost above 2^53 motes; callers use this only for dashboard gauges, never
// for anything that feeds back into the arithmetic the rest of this package
// guards exactly.
func (m Motes) Float64() float64 {
	f, _ := new(big.Float).SetInt(m.big()).Float64()
	return f
}

// Wad is an unsigned 18-decimal fixed-point integer quantity of DEBT,
// backed by a U256 host field.
type Wad struct {
	v *uint256.Int
}

// ZeroWad returns the zero value of Wad.
func ZeroWad() Wad { return Wad{v: uint256.NewInt(0)} }

// NewWadFromUint64 builds a Wad value from a uint64 amount (already in wad
// scale, i.e. already multiplied by 10^18 by the caller if a whole-DEBT
// quantity is intended).
func NewWadFromUint64(amount uint64) Wad {
	return Wad{v: uint256.NewInt(amount)}
}

// NewWadFromBigInt builds a Wad value from a big.Int, failing with
// ErrOverflow if it does not fit in 256 bits or is negative.
func NewWadFromBigInt(amount *big.Int) (Wad, error) {
	if amount == nil || amount.Sign() < 0 {
		return Wad{}, errors.New("fixedpoint: negative wad")
	}
	v, overflow := uint256.FromBig(amount)
	if overflow {
		return Wad{}, ErrOverflow
	}
	return Wad{v: v}, nil
}

func (w Wad) u256() *uint256.Int {
	if w.v == nil {
		return uint256.NewInt(0)
	}
	return w.v
}

// BigInt returns a defensive copy as a big.Int.
func (w Wad) BigInt() *big.Int { return w.u256().ToBig() }

// IsZero reports whether the amount is zero.
func (w Wad) IsZero() bool { return w.u256().IsZero() }

// Sign returns 0 if zero, 1 otherwise (wad is never negative).
func (w Wad) Sign() int {
	if w.IsZero() {
		return 0
	}
	return 1
}

// Cmp compares two Wad values the way big.Int.Cmp does.
func (w Wad) Cmp(other Wad) int { return w.u256().Cmp(other.u256()) }

// Add returns w + other, failing with ErrOverflow on U256 overflow.
func (w Wad) Add(other Wad) (Wad, error) {
	sum, overflow := new(uint256.Int).AddOverflow(w.u256(), other.u256())
	if overflow {
		return Wad{}, ErrOverflow
	}
	return Wad{v: sum}, nil
}

// Sub returns w - other. Fails if the result would be negative.
func (w Wad) Sub(other Wad) (Wad, error) {
	if w.Cmp(other) < 0 {
		return Wad{}, errors.New("fixedpoint: wad underflow")
	}
	return Wad{v: new(uint256.Int).Sub(w.u256(), other.u256())}, nil
}

// Min returns the smaller of w and other.
func Min(a, b Wad) Wad {
	if a.Cmp(b) <= 0 {
		return a
	}
	return b
}

// String renders the amount in wad, unscaled (18 implied decimals).
func (w Wad) String() string { return w.u256().String() }

// Float64 renders the amount in wad, unscaled, as a float64. Precision is
// lost above 2^53 wad; callers use this only for dashboard gauges, never
// for anything that feeds back into the arithmetic the rest of this package
// guards exactly.
func (w Wad) Float64() float64 {
	f, _ := new(big.Float).SetInt(w.BigInt()).Float64()
	return f
}

// MotesToWad performs the exact motes -> wad conversion (multiply by
// MotesToWadFactor), failing with ErrOverflow if the product would exceed
// the U256 wad domain.
func MotesToWad(m Motes) (Wad, error) {
	product := new(big.Int).Mul(m.big(), big.NewInt(MotesToWadFactor))
	return NewWadFromBigInt(product)
}

// WadToMotes performs the wad -> motes conversion, truncating toward zero.
// This direction is protocol-favorable when returning collateral to a user:
// rounding down never credits more than the nominal amount.
func WadToMotes(w Wad) (Motes, error) {
	quotient := new(big.Int).Quo(w.BigInt(), big.NewInt(MotesToWadFactor))
	return NewMotesFromBigInt(quotient)
}

// MaxBorrowWad computes the maximum wad a user may borrow against the given
// collateral, truncated toward zero (protocol-favorable: never overstates
// borrowing capacity).
func MaxBorrowWad(collateral Motes) (Wad, error) {
	collateralWad, err := MotesToWad(collateral)
	if err != nil {
		return Wad{}, err
	}
	numerator := new(big.Int).Mul(collateralWad.BigInt(), big.NewInt(LTVMaxBps))
	numerator.Quo(numerator, big.NewInt(BpsDivisor))
	return NewWadFromBigInt(numerator)
}

// MinCollateralForDebt computes the minimum collateral, in motes, required
// to keep the given debt within the LTV ceiling. Both the wad-scale and the
// motes-scale divisions round up (ceiling): this is the protocol-favorable
// direction when checking post-withdrawal LTV, since it never understates
// the collateral a user must retain.
func MinCollateralForDebt(debt Wad) (Motes, error) {
	numerator := new(big.Int).Mul(debt.BigInt(), big.NewInt(BpsDivisor))
	minCollateralWad := ceilDiv(numerator, big.NewInt(LTVMaxBps))

	motesNumerator := minCollateralWad
	minCollateralMotes := ceilDiv(motesNumerator, big.NewInt(MotesToWadFactor))
	return NewMotesFromBigInt(minCollateralMotes)
}

// ceilDiv computes ceil(numerator / denominator) for non-negative operands.
func ceilDiv(numerator, denominator *big.Int) *big.Int {
	quotient, remainder := new(big.Int).QuoRem(numerator, denominator, new(big.Int))
	if remainder.Sign() != 0 {
		quotient.Add(quotient, big.NewInt(1))
	}
	return quotient
}

// WithinLTV reports whether debt against collateral satisfies
// debt * BpsDivisor <= motes_to_wad(collateral) * LTVMaxBps, the exact
// cross-multiplied form of the loan-to-value invariant. Cross-multiplying
// avoids the rounding error either side of a truncated division would
// introduce, so this is the form borrow and withdraw checks should use
// rather than comparing against MaxBorrowWad/MinCollateralForDebt directly.
func WithinLTV(collateral Motes, debt Wad) (bool, error) {
	collateralWad, err := MotesToWad(collateral)
	if err != nil {
		return false, err
	}
	lhs := new(big.Int).Mul(debt.BigInt(), big.NewInt(BpsDivisor))
	rhs := new(big.Int).Mul(collateralWad.BigInt(), big.NewInt(LTVMaxBps))
	return lhs.Cmp(rhs) <= 0, nil
}

// LtvBps computes the loan-to-value ratio of debt against collateral, in
// basis points, rounded down. Returns zero when debt is zero.
func LtvBps(collateral Motes, debt Wad) (uint64, error) {
	if debt.IsZero() {
		return 0, nil
	}
	collateralWad, err := MotesToWad(collateral)
	if err != nil {
		return 0, err
	}
	if collateralWad.IsZero() {
		return 0, errors.New("fixedpoint: cannot compute ltv against zero collateral")
	}
	numerator := new(big.Int).Mul(debt.BigInt(), big.NewInt(BpsDivisor))
	ratio := new(big.Int).Quo(numerator, collateralWad.BigInt())
	if !ratio.IsUint64() {
		return 0, ErrOverflow
	}
	return ratio.Uint64(), nil
}
