package events

import (
	"testing"

	"github.com/IHB1-Foundation/magni-cspr/crypto"
	"github.com/IHB1-Foundation/magni-cspr/fixedpoint"
)

func testAddress(b byte) crypto.Address {
	raw := make([]byte, 20)
	raw[19] = b
	return crypto.NewAddress(crypto.BasePrefix, raw)
}

func TestLogPreservesEmissionOrder(t *testing.T) {
	log := NewLog()
	user := testAddress(1)

	log.Emit(Deposited{User: user, AmountMotes: fixedpoint.NewMotesFromUint64(500), NewCollateral: fixedpoint.NewMotesFromUint64(500)})
	log.Emit(WithdrawRequested{User: user, AmountMotes: fixedpoint.NewMotesFromUint64(500)})
	log.Emit(WithdrawFinalized{User: user, AmountMotes: fixedpoint.NewMotesFromUint64(500)})

	got := log.TypesInOrder()
	want := []string{TypeDeposited, TypeWithdrawRequested, TypeWithdrawFinalized}
	if len(got) != len(want) {
		t.Fatalf("got %d events, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("event[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestLogAllIsDefensiveCopy(t *testing.T) {
	log := NewLog()
	log.Emit(ValidatorSet{NewValidatorKey: "validator-1"})
	records := log.All()
	records[0].Type = "mutated"
	if log.All()[0].Type != TypeValidatorSet {
		t.Fatalf("mutating the returned slice leaked into the log")
	}
}
