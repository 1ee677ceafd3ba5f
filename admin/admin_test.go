package admin

import (
	"testing"

	vaulterrors "github.com/IHB1-Foundation/magni-cspr/core/errors"
	"github.com/IHB1-Foundation/magni-cspr/core/events"
	"github.com/IHB1-Foundation/magni-cspr/crypto"
)

func addr(b byte) crypto.Address {
	raw := make([]byte, 20)
	raw[19] = b
	return crypto.NewAddress(crypto.BasePrefix, raw)
}

func TestNewRejectsEmptyValidator(t *testing.T) {
	if _, err := New(addr(1), "   "); err != vaulterrors.ErrInvalidValidatorKey {
		t.Fatalf("expected ErrInvalidValidatorKey, got %v", err)
	}
}

func TestPauseUnpauseOwnerOnly(t *testing.T) {
	owner := addr(1)
	other := addr(2)
	c, err := New(owner, "validator-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	log := events.NewLog()

	if err := c.Pause(other, log); err != vaulterrors.ErrUnauthorized {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if c.IsPaused(ModuleName) {
		t.Fatalf("unauthorized pause must not take effect")
	}

	if err := c.Pause(owner, log); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !c.IsPaused(ModuleName) {
		t.Fatalf("expected paused after owner call")
	}
	if err := c.Unpause(owner, log); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.IsPaused(ModuleName) {
		t.Fatalf("expected unpaused after owner call")
	}

	types := log.TypesInOrder()
	if len(types) != 2 || types[0] != events.TypePaused || types[1] != events.TypeUnpaused {
		t.Fatalf("unexpected event sequence: %v", types)
	}
}

func TestSetValidatorOwnerOnly(t *testing.T) {
	owner := addr(1)
	other := addr(2)
	c, err := New(owner, "validator-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	log := events.NewLog()

	if err := c.SetValidator(other, "validator-2", log); err != vaulterrors.ErrUnauthorized {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if c.Validator() != "validator-1" {
		t.Fatalf("unauthorized call must not change validator")
	}

	if err := c.SetValidator(owner, "validator-2", log); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Validator() != "validator-2" {
		t.Fatalf("expected validator-2, got %s", c.Validator())
	}
	if err := c.SetValidator(owner, "  ", log); err != vaulterrors.ErrInvalidValidatorKey {
		t.Fatalf("expected ErrInvalidValidatorKey, got %v", err)
	}
}
