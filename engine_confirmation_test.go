package goSession

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func wrongCode(code string) string {
	b := []byte(code)
	if b[0] == '9' {
		b[0] = '0'
	} else {
		b[0]++
	}
	return string(b)
}

func signupForTest(t *testing.T, env *testEnv, email string) (*Account, OTPNotification) {
	t.Helper()

	acct, err := env.engine.Signup(context.Background(), SignupRequest{
		Email:    email,
		Username: "someone",
		Password: "correct-password-123",
	})
	if err != nil {
		t.Fatalf("Signup failed: %v", err)
	}
	return acct, env.waitNotification(t)
}

func TestSignupSendsConfirmation(t *testing.T) {
	env := newTestEnv(t, testConfig())

	acct, n := signupForTest(t, env, " New@Example.com ")
	if acct.Email != "new@example.com" || acct.Tier != TierUser || acct.Confirmed() {
		t.Fatalf("unexpected account: %+v", acct)
	}
	if acct.PasswordHash != "" || acct.OTPHash != "" {
		t.Fatal("signup must not return hashes")
	}
	if n.AccountID != acct.ID || n.Email != acct.Email || len(n.Code) != 6 {
		t.Fatalf("unexpected notification: %+v", n)
	}
	if !n.ExpiresAt.Equal(env.clock.Now().Add(10 * time.Minute)) {
		t.Fatalf("expiresAt = %v", n.ExpiresAt)
	}

	stored, err := env.accounts.FindByID(context.Background(), acct.ID)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if stored.OTPHash == "" || stored.OTPHash == n.Code {
		t.Fatal("expected only the otp hash to be stored")
	}
	if stored.PasswordHash == "" || stored.PasswordHash == "correct-password-123" {
		t.Fatal("expected password stored hashed")
	}
}

func TestSignupRejectsDuplicateAndPolicy(t *testing.T) {
	env := newTestEnv(t, testConfig())
	signupForTest(t, env, "dup@example.com")

	_, err := env.engine.Signup(context.Background(), SignupRequest{Email: "DUP@example.com", Password: "correct-password-123"})
	if !errors.Is(err, ErrAccountExists) {
		t.Fatalf("expected ErrAccountExists, got %v", err)
	}

	_, err = env.engine.Signup(context.Background(), SignupRequest{Email: "short@example.com", Password: "short"})
	if !errors.Is(err, ErrPasswordPolicy) {
		t.Fatalf("expected ErrPasswordPolicy, got %v", err)
	}

	_, err = env.engine.Signup(context.Background(), SignupRequest{Email: "no-at-sign", Password: "correct-password-123"})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestConfirmOnce(t *testing.T) {
	env := newTestEnv(t, testConfig())
	acct, n := signupForTest(t, env, "c@example.com")
	ctx := context.Background()

	if err := env.engine.Confirm(ctx, acct.ID, n.Code); err != nil {
		t.Fatalf("Confirm failed: %v", err)
	}

	stored, _ := env.accounts.FindByID(ctx, acct.ID)
	if !stored.Confirmed() || stored.HasPendingOTP() {
		t.Fatalf("expected confirmed account with cleared otp: %+v", stored)
	}

	if err := env.engine.Confirm(ctx, acct.ID, n.Code); !errors.Is(err, ErrAlreadyConfirmed) {
		t.Fatalf("expected ErrAlreadyConfirmed, got %v", err)
	}
	if _, err := env.engine.IssueOTP(ctx, acct.ID); !errors.Is(err, ErrAlreadyConfirmed) {
		t.Fatalf("expected ErrAlreadyConfirmed from IssueOTP, got %v", err)
	}

	if _, err := env.engine.LoginWithPassword(ctx, "c@example.com", "correct-password-123"); err != nil {
		t.Fatalf("login after confirm failed: %v", err)
	}
}

func TestConfirmEmail(t *testing.T) {
	env := newTestEnv(t, testConfig())
	_, n := signupForTest(t, env, "byemail@example.com")

	if err := env.engine.ConfirmEmail(context.Background(), "ByEmail@example.com", n.Code); err != nil {
		t.Fatalf("ConfirmEmail failed: %v", err)
	}
	if err := env.engine.ConfirmEmail(context.Background(), "missing@example.com", n.Code); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestConfirmInvalidCode(t *testing.T) {
	env := newTestEnv(t, testConfig())
	acct, n := signupForTest(t, env, "bad@example.com")
	ctx := context.Background()

	if err := env.engine.Confirm(ctx, acct.ID, wrongCode(n.Code)); !errors.Is(err, ErrInvalidOTP) {
		t.Fatalf("expected ErrInvalidOTP, got %v", err)
	}
	if err := env.engine.Confirm(ctx, acct.ID, n.Code); err != nil {
		t.Fatalf("correct code must still work after a miss: %v", err)
	}
}

func TestConfirmExpiredCode(t *testing.T) {
	env := newTestEnv(t, testConfig())
	acct, n := signupForTest(t, env, "late@example.com")

	env.clock.Advance(10*time.Minute + time.Second)
	if err := env.engine.Confirm(context.Background(), acct.ID, n.Code); !errors.Is(err, ErrOTPExpired) {
		t.Fatalf("expected ErrOTPExpired, got %v", err)
	}
	// Expiry is reported even for a wrong code.
	if err := env.engine.Confirm(context.Background(), acct.ID, wrongCode(n.Code)); !errors.Is(err, ErrOTPExpired) {
		t.Fatalf("expected ErrOTPExpired for wrong code, got %v", err)
	}
}

func TestConfirmAtExactExpiryStillValid(t *testing.T) {
	env := newTestEnv(t, testConfig())
	acct, n := signupForTest(t, env, "edge@example.com")

	env.clock.Advance(10 * time.Minute)
	if err := env.engine.Confirm(context.Background(), acct.ID, n.Code); err != nil {
		t.Fatalf("expected code valid at its expiry instant, got %v", err)
	}
}

func TestConfirmNoPendingCode(t *testing.T) {
	env := newTestEnv(t, testConfig())
	ctx := context.Background()

	acct := &Account{ID: "pending", Email: "pending@example.com", Tier: TierUser, CreatedAt: env.clock.Now()}
	if err := env.accounts.Create(ctx, acct); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := env.engine.Confirm(ctx, "pending", "123456"); !errors.Is(err, ErrNoPendingOTP) {
		t.Fatalf("expected ErrNoPendingOTP, got %v", err)
	}
	if err := env.engine.Confirm(ctx, "nobody", "123456"); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestReissueInvalidatesPreviousCode(t *testing.T) {
	env := newTestEnv(t, testConfig())
	acct, first := signupForTest(t, env, "again@example.com")
	ctx := context.Background()

	env.clock.Advance(time.Minute)
	if err := env.engine.ResendConfirmation(ctx, "again@example.com"); err != nil {
		t.Fatalf("ResendConfirmation failed: %v", err)
	}
	second := env.waitNotification(t)
	if !second.ExpiresAt.After(first.ExpiresAt) {
		t.Fatal("expected reissued code to carry a later expiry")
	}

	if first.Code != second.Code {
		if err := env.engine.Confirm(ctx, acct.ID, first.Code); !errors.Is(err, ErrInvalidOTP) {
			t.Fatalf("expected old code rejected, got %v", err)
		}
	}
	if err := env.engine.Confirm(ctx, acct.ID, second.Code); err != nil {
		t.Fatalf("new code rejected: %v", err)
	}
}

func TestIssueOTPReturnsPlaintext(t *testing.T) {
	env := newTestEnv(t, testConfig())
	acct, _ := signupForTest(t, env, "direct@example.com")

	code, err := env.engine.IssueOTP(context.Background(), acct.ID)
	if err != nil {
		t.Fatalf("IssueOTP failed: %v", err)
	}
	if len(code) != 6 {
		t.Fatalf("expected 6 digit code, got %q", code)
	}
	select {
	case n := <-env.sent:
		t.Fatalf("IssueOTP must not send a notification, got %+v", n)
	case <-time.After(50 * time.Millisecond):
	}
	if err := env.engine.Confirm(context.Background(), acct.ID, code); err != nil {
		t.Fatalf("Confirm failed: %v", err)
	}
}

func TestConfirmThrottle(t *testing.T) {
	cfg := testConfig()
	env := newTestEnv(t, cfg)
	acct, n := signupForTest(t, env, "throttle@example.com")
	ctx := context.Background()

	for i := 0; i < cfg.OTP.MaxAttempts; i++ {
		if err := env.engine.Confirm(ctx, acct.ID, wrongCode(n.Code)); !errors.Is(err, ErrInvalidOTP) {
			t.Fatalf("attempt %d: expected ErrInvalidOTP, got %v", i, err)
		}
	}
	if err := env.engine.Confirm(ctx, acct.ID, n.Code); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}

	// A fresh code resets the budget.
	if err := env.engine.SendConfirmation(ctx, acct.ID); err != nil {
		t.Fatalf("SendConfirmation failed: %v", err)
	}
	fresh := env.waitNotification(t)
	if err := env.engine.Confirm(ctx, acct.ID, fresh.Code); err != nil {
		t.Fatalf("Confirm after reissue failed: %v", err)
	}

	snap := env.engine.MetricsSnapshot()
	if snap.Counters[MetricConfirmRateLimited] != 1 {
		t.Fatalf("expected 1 rate limited confirm, got %d", snap.Counters[MetricConfirmRateLimited])
	}
}

func TestConcurrentConfirmSingleWinner(t *testing.T) {
	env := newTestEnv(t, testConfig())
	acct, n := signupForTest(t, env, "race@example.com")

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		others    []error
	)
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			err := env.engine.Confirm(context.Background(), acct.ID, n.Code)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++
				return
			}
			others = append(others, err)
		}()
	}
	close(start)
	wg.Wait()

	if successes != 1 {
		t.Fatalf("expected exactly one successful confirm, got %d", successes)
	}
	for _, err := range others {
		if !errors.Is(err, ErrAlreadyConfirmed) && !errors.Is(err, ErrNoPendingOTP) {
			t.Fatalf("unexpected loser error: %v", err)
		}
	}
}

func TestNotificationFailureDoesNotFailSignup(t *testing.T) {
	failed := make(chan struct{}, 1)
	env := newTestEnv(t, testConfig(), func(b *Builder) {
		b.WithNotifier(NotifierFunc(func(context.Context, OTPNotification) error {
			failed <- struct{}{}
			return errors.New("smtp down")
		}))
	})

	if _, err := env.engine.Signup(context.Background(), SignupRequest{
		Email:    "quiet@example.com",
		Password: "correct-password-123",
	}); err != nil {
		t.Fatalf("Signup must succeed when delivery fails: %v", err)
	}

	select {
	case <-failed:
	case <-time.After(2 * time.Second):
		t.Fatal("expected notifier to be called")
	}
	env.engine.Close()

	if got := env.engine.MetricsSnapshot().Counters[MetricNotificationFailed]; got != 1 {
		t.Fatalf("expected 1 failed notification, got %d", got)
	}
}
