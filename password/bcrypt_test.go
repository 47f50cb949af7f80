package password

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHashAndVerify(t *testing.T) {
	h := NewBcrypt(bcrypt.MinCost)

	hash, err := h.Hash("correct-horse")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	ok, err := h.Verify("correct-horse", hash)
	if err != nil || !ok {
		t.Fatalf("expected match: ok=%v err=%v", ok, err)
	}
	ok, err = h.Verify("wrong-horse", hash)
	if err != nil || ok {
		t.Fatalf("expected mismatch without error: ok=%v err=%v", ok, err)
	}
}

func TestBcryptRejectsOverlongInput(t *testing.T) {
	h := NewBcrypt(bcrypt.MinCost)
	if _, err := h.Hash(strings.Repeat("x", 73)); !errors.Is(err, ErrSecretTooLong) {
		t.Fatalf("expected ErrSecretTooLong, got %v", err)
	}
}

func TestBcryptMalformedHash(t *testing.T) {
	h := NewBcrypt(bcrypt.MinCost)
	if _, err := h.Verify("password", "not-bcrypt"); err == nil {
		t.Fatal("expected malformed hash to error")
	}
}

func TestBcryptNeedsUpgrade(t *testing.T) {
	weak := NewBcrypt(bcrypt.MinCost)
	hash, err := weak.Hash("upgrade-me-please")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	up, err := NewBcrypt(bcrypt.MinCost + 1).NeedsUpgrade(hash)
	if err != nil || !up {
		t.Fatalf("expected upgrade: up=%v err=%v", up, err)
	}
}

func TestCheckPolicy(t *testing.T) {
	if err := CheckPolicy("short", 0); !errors.Is(err, ErrPolicy) {
		t.Fatalf("expected ErrPolicy, got %v", err)
	}
	if err := CheckPolicy(strings.Repeat("a", 65), 64); !errors.Is(err, ErrPolicy) {
		t.Fatalf("expected ErrPolicy for long password, got %v", err)
	}
	if err := CheckPolicy("long-enough-pw", 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
