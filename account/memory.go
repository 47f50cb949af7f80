package account

import (
	"context"
	"strings"
	"sync"
	"time"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore is a mutex-guarded in-process Store.
type MemoryStore struct {
	mu         sync.RWMutex
	byID       map[string]*Account
	byEmail    map[string]string
	byUsername map[string]string
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:       make(map[string]*Account),
		byEmail:    make(map[string]string),
		byUsername: make(map[string]string),
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *MemoryStore) FindByID(ctx context.Context, id string) (*Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	acct, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return acct.Clone(), nil
}

func (s *MemoryStore) FindByEmail(ctx context.Context, email string) (*Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[normalizeEmail(email)]
	if !ok {
		return nil, ErrNotFound
	}
	return s.byID[id].Clone(), nil
}

func (s *MemoryStore) Create(ctx context.Context, acct *Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	email := normalizeEmail(acct.Email)
	username := strings.ToLower(acct.Username)
	if _, ok := s.byID[acct.ID]; ok {
		return ErrExists
	}
	if _, ok := s.byEmail[email]; ok {
		return ErrExists
	}
	if username != "" {
		if _, ok := s.byUsername[username]; ok {
			return ErrExists
		}
		s.byUsername[username] = acct.ID
	}

	stored := acct.Clone()
	stored.Email = email
	s.byID[acct.ID] = stored
	s.byEmail[email] = acct.ID
	return nil
}

func (s *MemoryStore) SetOTP(ctx context.Context, id, otpHash string, expiresAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.byID[id]
	if !ok {
		return ErrNotFound
	}
	if acct.Confirmed() {
		return ErrAlreadyConfirmed
	}
	acct.OTPHash = otpHash
	acct.OTPExpiresAt = expiresAt
	return nil
}

func (s *MemoryStore) MarkConfirmed(ctx context.Context, id, expectedOTPHash string, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.byID[id]
	if !ok {
		return ErrNotFound
	}
	if acct.Confirmed() {
		return ErrAlreadyConfirmed
	}
	if acct.OTPHash == "" || acct.OTPHash != expectedOTPHash {
		return ErrNoPendingOTP
	}
	acct.ConfirmedAt = at
	acct.OTPHash = ""
	acct.OTPExpiresAt = time.Time{}
	return nil
}

func (s *MemoryStore) BumpWatermark(ctx context.Context, id string, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.byID[id]
	if !ok {
		return ErrNotFound
	}
	if at.After(acct.CredentialsChangedAt) {
		acct.CredentialsChangedAt = at
	}
	return nil
}

func (s *MemoryStore) UpdatePasswordHash(ctx context.Context, id, passwordHash string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.byID[id]
	if !ok {
		return ErrNotFound
	}
	acct.PasswordHash = passwordHash
	return nil
}
