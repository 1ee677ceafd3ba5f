package vault

import (
	"math/big"
	"testing"

	"github.com/IHB1-Foundation/magni-cspr/admin"
	vaulterrors "github.com/IHB1-Foundation/magni-cspr/core/errors"
	"github.com/IHB1-Foundation/magni-cspr/core/events"
	"github.com/IHB1-Foundation/magni-cspr/crypto"
	"github.com/IHB1-Foundation/magni-cspr/delegation"
	"github.com/IHB1-Foundation/magni-cspr/fixedpoint"
	"github.com/IHB1-Foundation/magni-cspr/native/common"
	"github.com/IHB1-Foundation/magni-cspr/token"
)

func addr(b byte) crypto.Address {
	raw := make([]byte, 20)
	raw[19] = b
	return crypto.NewAddress(crypto.BasePrefix, raw)
}

type testClock struct{ now uint64 }

func (c *testClock) Now() uint64 { return c.now }

func cspr(n uint64) fixedpoint.Motes {
	return fixedpoint.NewMotesFromUint64(n * fixedpoint.MotesPerBase)
}

func debt(n uint64) fixedpoint.Wad {
	w, err := fixedpoint.NewWadFromBigInt(new(big.Int).Mul(new(big.Int).SetUint64(n), big.NewInt(1_000_000_000_000_000_000)))
	if err != nil {
		panic(err)
	}
	return w
}

type fixture struct {
	engine *Engine
	admin  *admin.Control
	host   *delegation.SimHost
	token  *token.InMemory
	clock  *testClock
	vault  crypto.Address
	owner  crypto.Address
	log    *events.Log
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	vaultAddr := addr(99)
	owner := addr(1)

	adminCtl, err := admin.New(owner, "validator-1")
	if err != nil {
		t.Fatalf("admin.New: %v", err)
	}
	host := delegation.NewSimHost(1_700_000_000)
	da := delegation.New(host, adminCtl.Validator)
	dt := token.NewInMemory(vaultAddr)
	clock := &testClock{now: 1_700_000_000}

	eng, err := NewEngine(NewMemoryStore(), adminCtl, da, dt, vaultAddr, clock)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return &fixture{
		engine: eng,
		admin:  adminCtl,
		host:   host,
		token:  dt,
		clock:  clock,
		vault:  vaultAddr,
		owner:  owner,
		log:    events.NewLog(),
	}
}

// samePositionInfo compares two PositionInfo snapshots by value. Motes/Wad
// wrap pointer fields, so a direct struct == would compare pointer identity
// rather than the numbers they hold and always report a difference.
func samePositionInfo(a, b PositionInfo) bool {
	return a.CollateralMotes.Cmp(b.CollateralMotes) == 0 &&
		a.CollateralWad.Cmp(b.CollateralWad) == 0 &&
		a.DebtWad.Cmp(b.DebtWad) == 0 &&
		a.LtvBps == b.LtvBps &&
		a.HealthFactor == b.HealthFactor &&
		a.PendingWithdrawMotes.Cmp(b.PendingWithdrawMotes) == 0 &&
		a.Status == b.Status
}

func TestNewEngineRejectsDoubleInit(t *testing.T) {
	store := NewMemoryStore()
	owner := addr(1)
	adminCtl, _ := admin.New(owner, "validator-1")
	host := delegation.NewSimHost(0)
	da := delegation.New(host, adminCtl.Validator)
	dt := token.NewInMemory(addr(99))
	clock := &testClock{}

	if _, err := NewEngine(store, adminCtl, da, dt, addr(99), clock); err != nil {
		t.Fatalf("first NewEngine: %v", err)
	}
	if _, err := NewEngine(store, adminCtl, da, dt, addr(99), clock); err != vaulterrors.ErrVaultAlreadyInitialized {
		t.Fatalf("expected ErrVaultAlreadyInitialized, got %v", err)
	}
}

func TestDepositThenBorrowAtLTVCeilingSucceeds(t *testing.T) {
	f := newFixture(t)
	user := addr(2)

	if err := f.engine.Deposit(user, cspr(100), f.log); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if err := f.engine.Borrow(user, debt(80), f.log); err != nil {
		t.Fatalf("borrow at ceiling: %v", err)
	}

	info, err := f.engine.GetPosition(user)
	if err != nil {
		t.Fatalf("GetPosition: %v", err)
	}
	if info.LtvBps != fixedpoint.LTVMaxBps {
		t.Fatalf("ltv_bps = %d, want %d", info.LtvBps, fixedpoint.LTVMaxBps)
	}

	oneWadOver := fixedpoint.NewWadFromUint64(1)
	if err := f.engine.Borrow(user, oneWadOver, f.log); err != vaulterrors.ErrLtvExceeded {
		t.Fatalf("expected ErrLtvExceeded one wad past the ceiling, got %v", err)
	}
}

func TestBorrowWithoutPositionFails(t *testing.T) {
	f := newFixture(t)
	if err := f.engine.Borrow(addr(2), debt(1), f.log); err != vaulterrors.ErrNoVault {
		t.Fatalf("expected ErrNoVault, got %v", err)
	}
}

func TestRepayAppliesMinOfAmountAndDebt(t *testing.T) {
	f := newFixture(t)
	user := addr(2)

	if err := f.engine.Deposit(user, cspr(100), f.log); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if err := f.engine.Borrow(user, debt(50), f.log); err != nil {
		t.Fatalf("borrow: %v", err)
	}
	if err := f.token.Approve(user, f.vault, debt(500)); err != nil {
		t.Fatalf("approve: %v", err)
	}

	if err := f.engine.Repay(user, debt(500), f.log); err != nil {
		t.Fatalf("repay: %v", err)
	}

	remaining, err := f.engine.DebtOf(user)
	if err != nil {
		t.Fatalf("DebtOf: %v", err)
	}
	if !remaining.IsZero() {
		t.Fatalf("expected debt fully repaid, got %s", remaining)
	}
}

func TestRepayAllRequiresAllowance(t *testing.T) {
	f := newFixture(t)
	user := addr(2)

	if err := f.engine.Deposit(user, cspr(100), f.log); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if err := f.engine.Borrow(user, debt(80), f.log); err != nil {
		t.Fatalf("borrow: %v", err)
	}

	before, err := f.engine.GetPosition(user)
	if err != nil {
		t.Fatalf("GetPosition: %v", err)
	}
	eventsBefore := f.log.Len()

	if err := f.engine.RepayAll(user, f.log); err != token.ErrInsufficientAllowance {
		t.Fatalf("expected ErrInsufficientAllowance, got %v", err)
	}

	after, err := f.engine.GetPosition(user)
	if err != nil {
		t.Fatalf("GetPosition: %v", err)
	}
	if samePositionInfo(before, after) == false {
		t.Fatalf("failed repay_all must not mutate position: before=%+v after=%+v", before, after)
	}
	if f.log.Len() != eventsBefore {
		t.Fatalf("failed repay_all must not emit events")
	}

	if err := f.token.Approve(user, f.vault, debt(80)); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if err := f.engine.RepayAll(user, f.log); err != nil {
		t.Fatalf("repay_all after approval: %v", err)
	}
}

func TestWithdrawMaxThenBorrowOneFails(t *testing.T) {
	f := newFixture(t)
	user := addr(2)

	if err := f.engine.Deposit(user, cspr(100), f.log); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if err := f.engine.Borrow(user, debt(80), f.log); err != nil {
		t.Fatalf("borrow: %v", err)
	}
	if err := f.engine.WithdrawMax(user, f.log); err != nil {
		t.Fatalf("withdraw_max: %v", err)
	}

	if err := f.engine.Borrow(user, fixedpoint.NewWadFromUint64(1), f.log); err != vaulterrors.ErrLtvExceeded {
		t.Fatalf("expected ErrLtvExceeded after withdraw_max, got %v", err)
	}
}

func TestWithdrawMaxWithNoDebtWithdrawsEverythingAndClosesPosition(t *testing.T) {
	f := newFixture(t)
	user := addr(2)

	if err := f.engine.Deposit(user, cspr(100), f.log); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	// SimHost keeps everything liquid until MinDepositMotes batches it; 100
	// CSPR is below the threshold, so this settles inline.
	if err := f.engine.WithdrawMax(user, f.log); err != nil {
		t.Fatalf("withdraw_max: %v", err)
	}

	status, err := f.engine.StatusOf(user)
	if err != nil {
		t.Fatalf("StatusOf: %v", err)
	}
	if status != StatusNone {
		t.Fatalf("expected StatusNone after withdrawing all collateral, got %s", status)
	}
}

func TestRequestWithdrawUnbondsThenFinalizes(t *testing.T) {
	f := newFixture(t)
	user := addr(2)

	// 600 CSPR crosses the 500 CSPR batching threshold, so it gets
	// delegated away and is no longer liquid on the host.
	if err := f.engine.Deposit(user, cspr(600), f.log); err != nil {
		t.Fatalf("deposit: %v", err)
	}

	if err := f.engine.RequestWithdraw(user, cspr(600), f.log); err != nil {
		t.Fatalf("request_withdraw: %v", err)
	}
	status, err := f.engine.StatusOf(user)
	if err != nil {
		t.Fatalf("StatusOf: %v", err)
	}
	if status != StatusWithdrawing {
		t.Fatalf("expected StatusWithdrawing, got %s", status)
	}

	if err := f.engine.FinalizeWithdraw(user, f.log); err != vaulterrors.ErrUnbondingNotComplete {
		t.Fatalf("expected ErrUnbondingNotComplete before unbonding settles, got %v", err)
	}

	if err := f.host.SettleUnbonding(cspr(600)); err != nil {
		t.Fatalf("SettleUnbonding: %v", err)
	}
	if err := f.engine.FinalizeWithdraw(user, f.log); err != nil {
		t.Fatalf("finalize_withdraw after unbonding settles: %v", err)
	}

	status, err = f.engine.StatusOf(user)
	if err != nil {
		t.Fatalf("StatusOf: %v", err)
	}
	if status != StatusNone {
		t.Fatalf("expected StatusNone after finalizing the only withdrawal, got %s", status)
	}
}

func TestDepositRejectedWhilePaused(t *testing.T) {
	f := newFixture(t)
	user := addr(2)

	if err := f.admin.Pause(f.owner, f.log); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if err := f.engine.Deposit(user, cspr(10), f.log); err != common.ErrModulePaused {
		t.Fatalf("expected ErrModulePaused while paused, got %v", err)
	}

	if err := f.admin.Unpause(f.owner, f.log); err != nil {
		t.Fatalf("unpause: %v", err)
	}
	if err := f.engine.Deposit(user, cspr(10), f.log); err != nil {
		t.Fatalf("deposit after unpause: %v", err)
	}
}

func TestAccrualMintsInterestToVaultAndAdvancesTimestamp(t *testing.T) {
	f := newFixture(t)
	user := addr(2)

	if err := f.engine.Deposit(user, cspr(100), f.log); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if err := f.engine.Borrow(user, debt(80), f.log); err != nil {
		t.Fatalf("borrow: %v", err)
	}

	// One full year at 200 bps on 80 DEBT_1 accrues exactly 1.6 DEBT_1.
	f.clock.now += fixedpoint.SecondsPerYear

	balanceBefore := f.token.BalanceOf(f.vault)
	if err := f.engine.Deposit(user, cspr(1), f.log); err != nil {
		t.Fatalf("deposit triggering accrual: %v", err)
	}
	balanceAfter := f.token.BalanceOf(f.vault)

	minted, err := balanceAfter.Sub(balanceBefore)
	if err != nil {
		t.Fatalf("unexpected error computing minted amount: %v", err)
	}
	want := fixedpoint.NewWadFromUint64(1_600_000_000_000_000_000)
	if minted.Cmp(want) != 0 {
		t.Fatalf("minted interest = %s, want %s", minted, want)
	}

	debtNow, err := f.engine.DebtOf(user)
	if err != nil {
		t.Fatalf("DebtOf: %v", err)
	}
	wantDebt, _ := debt(80).Add(want)
	if debtNow.Cmp(wantDebt) != 0 {
		t.Fatalf("debt after accrual = %s, want %s", debtNow, wantDebt)
	}
}
