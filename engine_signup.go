package goSession

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/oklog/ulid/v2"

	"github.com/MrEthical07/goSession/password"
)

// Signup creates an unconfirmed account and starts its confirmation. The
// password is hashed before anything is persisted, and the confirmation code
// is queued for delivery only after the account and its OTP hash are stored.
//
// If the account is created but the OTP cannot be issued, Signup returns the
// account together with the error; the caller can retry with
// [Engine.SendConfirmation].
func (e *Engine) Signup(ctx context.Context, req SignupRequest) (*Account, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}

	email := normalizeEmail(req.Email)
	username := strings.TrimSpace(req.Username)
	tier := req.Tier
	if tier == "" {
		tier = TierUser
	}
	if email == "" || !strings.Contains(email, "@") || !tier.Valid() {
		return nil, e.signupFailed(ctx, ErrInvalidInput)
	}
	if err := password.CheckPolicy(req.Password, e.config.Password.MaxPasswordBytes); err != nil {
		return nil, e.signupFailed(ctx, fmt.Errorf("%w: %v", ErrPasswordPolicy, err))
	}

	if _, err := e.accounts.FindByEmail(ctx, email); err == nil {
		e.metricInc(MetricSignupDuplicate)
		return nil, e.signupFailed(ctx, ErrAccountExists)
	} else if !errors.Is(err, ErrAccountNotFound) {
		return nil, e.backendFailure(ctx, "signup.find_account", err)
	}

	hash, err := e.hasher.Hash(req.Password)
	if err != nil {
		return nil, e.signupFailed(ctx, fmt.Errorf("%w: %v", ErrPasswordPolicy, err))
	}

	acct := &Account{
		ID:           ulid.Make().String(),
		Email:        email,
		Username:     username,
		Tier:         tier,
		PasswordHash: hash,
		CreatedAt:    e.now().UTC(),
	}
	if err := e.accounts.Create(ctx, acct); err != nil {
		if errors.Is(err, ErrAccountExists) {
			e.metricInc(MetricSignupDuplicate)
			return nil, e.signupFailed(ctx, ErrAccountExists)
		}
		return nil, e.backendFailure(ctx, "signup.create_account", err)
	}

	e.metricInc(MetricSignupSuccess)
	e.emitAudit(ctx, auditEventSignupSuccess, true, acct.ID, "", tier, nil, nil)

	if err := e.sendConfirmation(ctx, acct); err != nil {
		return acct.Public(), err
	}
	return acct.Public(), nil
}

func (e *Engine) signupFailed(ctx context.Context, err error) error {
	e.emitAudit(ctx, auditEventSignupFailure, false, "", "", "", err, nil)
	return err
}
