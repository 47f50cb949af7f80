package account

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/goSession/secret"
)

func seedAccount(t *testing.T, s *MemoryStore) *Account {
	t.Helper()
	acct := &Account{
		ID:           "acct-1",
		Email:        "Alice@Example.com ",
		Username:     "alice",
		Tier:         secret.TierUser,
		PasswordHash: "hash",
		CreatedAt:    time.Unix(1_700_000_000, 0),
	}
	if err := s.Create(context.Background(), acct); err != nil {
		t.Fatalf("create: %v", err)
	}
	return acct
}

func TestMemoryStoreCreateAndFind(t *testing.T) {
	s := NewMemoryStore()
	seedAccount(t, s)
	ctx := context.Background()

	got, err := s.FindByEmail(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("find by email: %v", err)
	}
	if got.ID != "acct-1" || got.Email != "alice@example.com" {
		t.Fatalf("unexpected account: %+v", got)
	}

	got.PasswordHash = "mutated"
	again, _ := s.FindByID(ctx, "acct-1")
	if again.PasswordHash != "hash" {
		t.Fatal("store state mutated through returned copy")
	}

	if _, err := s.FindByID(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := s.Create(ctx, &Account{ID: "acct-2", Email: "ALICE@example.com"}); !errors.Is(err, ErrExists) {
		t.Fatalf("expected ErrExists for duplicate email, got %v", err)
	}
	if err := s.Create(ctx, &Account{ID: "acct-3", Email: "b@example.com", Username: "Alice"}); !errors.Is(err, ErrExists) {
		t.Fatalf("expected ErrExists for duplicate username, got %v", err)
	}
}

func TestMemoryStoreWatermarkIsMonotonic(t *testing.T) {
	s := NewMemoryStore()
	seedAccount(t, s)
	ctx := context.Background()

	later := time.Unix(1_700_000_500, 0)
	earlier := time.Unix(1_700_000_100, 0)
	if err := s.BumpWatermark(ctx, "acct-1", later); err != nil {
		t.Fatalf("bump: %v", err)
	}
	if err := s.BumpWatermark(ctx, "acct-1", earlier); err != nil {
		t.Fatalf("bump earlier: %v", err)
	}
	got, _ := s.FindByID(ctx, "acct-1")
	if !got.CredentialsChangedAt.Equal(later) {
		t.Fatalf("watermark = %v, want %v", got.CredentialsChangedAt, later)
	}
	if err := s.BumpWatermark(ctx, "missing", later); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStoreUpdatePasswordHash(t *testing.T) {
	s := NewMemoryStore()
	seedAccount(t, s)
	ctx := context.Background()

	before, _ := s.FindByID(ctx, "acct-1")
	if err := s.UpdatePasswordHash(ctx, "acct-1", "rehashed"); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ := s.FindByID(ctx, "acct-1")
	if got.PasswordHash != "rehashed" {
		t.Fatalf("password hash = %q, want rehashed", got.PasswordHash)
	}
	if !got.CredentialsChangedAt.Equal(before.CredentialsChangedAt) {
		t.Fatal("rehash must not move the watermark")
	}
	if err := s.UpdatePasswordHash(ctx, "missing", "x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStoreMarkConfirmedIsConditional(t *testing.T) {
	s := NewMemoryStore()
	seedAccount(t, s)
	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0)

	if err := s.MarkConfirmed(ctx, "acct-1", "h1", now); !errors.Is(err, ErrNoPendingOTP) {
		t.Fatalf("expected ErrNoPendingOTP without otp, got %v", err)
	}
	if err := s.SetOTP(ctx, "acct-1", "h1", now.Add(10*time.Minute)); err != nil {
		t.Fatalf("set otp: %v", err)
	}
	if err := s.MarkConfirmed(ctx, "acct-1", "stale", now); !errors.Is(err, ErrNoPendingOTP) {
		t.Fatalf("expected ErrNoPendingOTP for replaced otp, got %v", err)
	}
	if err := s.MarkConfirmed(ctx, "acct-1", "h1", now); err != nil {
		t.Fatalf("mark confirmed: %v", err)
	}

	got, _ := s.FindByID(ctx, "acct-1")
	if !got.Confirmed() || got.HasPendingOTP() || !got.OTPExpiresAt.IsZero() {
		t.Fatalf("unexpected state after confirm: %+v", got)
	}
	if err := s.MarkConfirmed(ctx, "acct-1", "h1", now); !errors.Is(err, ErrAlreadyConfirmed) {
		t.Fatalf("expected ErrAlreadyConfirmed, got %v", err)
	}
	if err := s.SetOTP(ctx, "acct-1", "h2", now); !errors.Is(err, ErrAlreadyConfirmed) {
		t.Fatalf("expected ErrAlreadyConfirmed from SetOTP, got %v", err)
	}
}

func TestMemoryStoreConcurrentConfirmHasOneWinner(t *testing.T) {
	s := NewMemoryStore()
	seedAccount(t, s)
	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0)
	if err := s.SetOTP(ctx, "acct-1", "h1", now.Add(time.Minute)); err != nil {
		t.Fatalf("set otp: %v", err)
	}

	const workers = 16
	var wg sync.WaitGroup
	results := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- s.MarkConfirmed(ctx, "acct-1", "h1", now)
		}()
	}
	wg.Wait()
	close(results)

	wins := 0
	for err := range results {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, ErrAlreadyConfirmed):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 1 {
		t.Fatalf("wins = %d, want 1", wins)
	}
}

func TestMemoryStoreHonoursCancelledContext(t *testing.T) {
	s := NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.FindByID(ctx, "acct-1"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestAccountPublicStripsSecrets(t *testing.T) {
	a := &Account{ID: "x", PasswordHash: "p", OTPHash: "o"}
	pub := a.Public()
	if pub.PasswordHash != "" || pub.OTPHash != "" || a.PasswordHash != "p" {
		t.Fatalf("unexpected public copy: %+v / original %+v", pub, a)
	}
}
