package interest

import (
	"math/big"
	"testing"

	"github.com/IHB1-Foundation/magni-cspr/fixedpoint"
)

func wad(n uint64) fixedpoint.Wad {
	w, err := fixedpoint.NewWadFromBigInt(new(big.Int).Mul(new(big.Int).SetUint64(n), big.NewInt(1_000_000_000_000_000_000)))
	if err != nil {
		panic(err)
	}
	return w
}

func TestAccrueZeroPrincipal(t *testing.T) {
	got, err := Accrue(fixedpoint.ZeroWad(), 0, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.IsZero() {
		t.Fatalf("expected zero interest on zero principal, got %s", got)
	}
}

func TestAccrueNoElapsedTime(t *testing.T) {
	got, err := Accrue(wad(500), 1000, 1000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.IsZero() {
		t.Fatalf("expected zero interest with no elapsed time, got %s", got)
	}
}

func TestAccrueOneYearExact(t *testing.T) {
	// 500 DEBT_1 * 200 bps / 10000 over exactly one year = 10 DEBT_1.
	got, err := Accrue(wad(500), 0, fixedpoint.SecondsPerYear)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := wad(10)
	if got.Cmp(want) != 0 {
		t.Fatalf("Accrue(500 DEBT_1, 1 year) = %s, want %s", got, want)
	}
}

func TestAccrueRoundsUpOnRemainder(t *testing.T) {
	got, err := Accrue(fixedpoint.NewWadFromUint64(1), 0, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.IsZero() {
		t.Fatalf("expected rounding up to a non-zero remainder, got zero")
	}
}

func TestAccrueRejectsBackwardClock(t *testing.T) {
	_, err := Accrue(wad(1), 100, 50)
	if err == nil {
		t.Fatalf("expected error for now < lastAccrualTS")
	}
}
