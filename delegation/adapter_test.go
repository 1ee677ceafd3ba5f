package delegation

import (
	"testing"

	"github.com/IHB1-Foundation/magni-cspr/core/errors"
	"github.com/IHB1-Foundation/magni-cspr/core/events"
	"github.com/IHB1-Foundation/magni-cspr/crypto"
	"github.com/IHB1-Foundation/magni-cspr/fixedpoint"
)

func recipient(b byte) crypto.Address {
	raw := make([]byte, 20)
	raw[19] = b
	return crypto.NewAddress(crypto.BasePrefix, raw)
}

func motesFromCSPR(n uint64) fixedpoint.Motes {
	return fixedpoint.NewMotesFromUint64(n * fixedpoint.MotesPerBase)
}

func fixedValidator(name string) func() string {
	return func() string { return name }
}

func TestRecordInboundBatchesAtThreshold(t *testing.T) {
	host := NewSimHost(1000)
	a := New(host, fixedValidator("validator-1"))
	log := events.NewLog()

	if err := a.RecordInbound(motesFromCSPR(300), log); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.PendingToDelegate().Cmp(motesFromCSPR(300)) != 0 {
		t.Fatalf("expected pending 300, got %s", a.PendingToDelegate())
	}
	if log.Len() != 0 {
		t.Fatalf("expected no delegation yet, got %d events", log.Len())
	}

	if err := a.RecordInbound(motesFromCSPR(400), log); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !a.PendingToDelegate().IsZero() {
		t.Fatalf("expected pending reset to zero after batching, got %s", a.PendingToDelegate())
	}
	if host.DelegatedAmount("validator-1").Cmp(motesFromCSPR(700)) != 0 {
		t.Fatalf("expected 700 CSPR delegated, got %s", host.DelegatedAmount("validator-1"))
	}

	types := log.TypesInOrder()
	if len(types) != 1 || types[0] != events.TypeDelegationBatched {
		t.Fatalf("expected a single DelegationBatched event, got %v", types)
	}
}

func TestRequestOutboundSettlesLiquidInline(t *testing.T) {
	host := NewSimHost(1000)
	a := New(host, fixedValidator("validator-1"))
	log := events.NewLog()

	if err := a.RecordInbound(motesFromCSPR(300), log); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ticket, err := a.RequestOutbound(motesFromCSPR(200), log)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ticket.Liquid {
		t.Fatalf("expected a liquid ticket")
	}
	if a.PendingToDelegate().Cmp(motesFromCSPR(100)) != 0 {
		t.Fatalf("expected pending drawn down to 100, got %s", a.PendingToDelegate())
	}

	if err := a.TrySettle(ticket, recipient(9), motesFromCSPR(200)); err != nil {
		t.Fatalf("unexpected settle error: %v", err)
	}
	if host.LiquidBalance().Cmp(motesFromCSPR(100)) != 0 {
		t.Fatalf("expected 100 CSPR left liquid, got %s", host.LiquidBalance())
	}
}

func TestRequestOutboundUndelegatesShortfall(t *testing.T) {
	host := NewSimHost(1000)
	a := New(host, fixedValidator("validator-1"))
	log := events.NewLog()

	host.CreditInbound(motesFromCSPR(1000))
	if err := host.Delegate("validator-1", motesFromCSPR(1000)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ticket, err := a.RequestOutbound(motesFromCSPR(600), log)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ticket.Liquid {
		t.Fatalf("expected an unbonding ticket")
	}

	types := log.TypesInOrder()
	if len(types) != 1 || types[0] != events.TypeUndelegationRequested {
		t.Fatalf("expected UndelegationRequested event, got %v", types)
	}

	if err := a.TrySettle(ticket, recipient(9), motesFromCSPR(600)); err != errors.ErrUnbondingNotComplete {
		t.Fatalf("expected ErrUnbondingNotComplete, got %v", err)
	}

	if err := host.SettleUnbonding(motesFromCSPR(600)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := a.TrySettle(ticket, recipient(9), motesFromCSPR(600)); err != nil {
		t.Fatalf("unexpected settle error after unbonding completed: %v", err)
	}
	if host.LiquidBalance().Sign() != 0 {
		t.Fatalf("expected liquid balance drained to zero, got %s", host.LiquidBalance())
	}
}

func TestRequestOutboundReservesAllOfPending(t *testing.T) {
	host := NewSimHost(1000)
	a := New(host, fixedValidator("validator-1"))
	log := events.NewLog()

	if err := a.RecordInbound(motesFromCSPR(100), log); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ticket, err := a.RequestOutbound(motesFromCSPR(100), log)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ticket.Liquid {
		t.Fatalf("expected a liquid ticket when amount matches available liquidity exactly")
	}
	if !a.PendingToDelegate().IsZero() {
		t.Fatalf("expected pending fully reserved, got %s", a.PendingToDelegate())
	}
}
