package secret

import (
	"bytes"
	"errors"
	"fmt"
)

// Tier identifies the privilege class a token was issued for.
type Tier string

// Purpose identifies what a token may be used for.
type Purpose string

const (
	// TierUser is the tier for ordinary accounts.
	TierUser Tier = "USER"
	// TierAdmin is the tier for administrator accounts.
	TierAdmin Tier = "ADMIN"

	// PurposeAccess marks short-lived tokens presented on every request.
	PurposeAccess Purpose = "ACCESS"
	// PurposeRefresh marks long-lived tokens exchanged for new access tokens.
	PurposeRefresh Purpose = "REFRESH"
)

// MinSecretBytes is the shortest secret accepted for any slot.
const MinSecretBytes = 32

var (
	// ErrMissingSecret is returned when a (tier, purpose) slot has no secret.
	ErrMissingSecret = errors.New("signing secret not configured")
	// ErrWeakSecret is returned when a secret is shorter than MinSecretBytes.
	ErrWeakSecret = errors.New("signing secret too short")
	// ErrReusedSecret is returned when two slots share the same secret.
	ErrReusedSecret = errors.New("signing secret reused across slots")
	// ErrUnknownTier is returned by ParseTier for unrecognised prefixes.
	ErrUnknownTier = errors.New("unknown tier")
)

// Tiers lists every supported tier.
func Tiers() []Tier { return []Tier{TierUser, TierAdmin} }

// Purposes lists every supported purpose.
func Purposes() []Purpose { return []Purpose{PurposeAccess, PurposeRefresh} }

// Valid reports whether t is a supported tier.
func (t Tier) Valid() bool { return t == TierUser || t == TierAdmin }

// Valid reports whether p is a supported purpose.
func (p Purpose) Valid() bool { return p == PurposeAccess || p == PurposeRefresh }

// ParseTier maps a credential prefix to a Tier. Matching is exact; "user" is
// not accepted for "USER".
func ParseTier(s string) (Tier, error) {
	t := Tier(s)
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownTier, s)
	}
	return t, nil
}

// Secrets carries the four raw signing secrets.
type Secrets struct {
	UserAccess   []byte
	UserRefresh  []byte
	AdminAccess  []byte
	AdminRefresh []byte
}

type slot struct {
	tier    Tier
	purpose Purpose
}

// Registry maps (tier, purpose) to a signing secret. It is immutable after
// NewRegistry returns and safe for concurrent use.
type Registry struct {
	secrets map[slot][]byte
}

// NewRegistry validates all four secrets and returns a Registry. Any missing,
// short, or duplicated secret is an error; callers treat it as fatal.
func NewRegistry(s Secrets) (*Registry, error) {
	r := &Registry{secrets: make(map[slot][]byte, 4)}
	entries := []struct {
		slot  slot
		value []byte
	}{
		{slot{TierUser, PurposeAccess}, s.UserAccess},
		{slot{TierUser, PurposeRefresh}, s.UserRefresh},
		{slot{TierAdmin, PurposeAccess}, s.AdminAccess},
		{slot{TierAdmin, PurposeRefresh}, s.AdminRefresh},
	}

	for i, e := range entries {
		if len(bytes.TrimSpace(e.value)) == 0 {
			return nil, fmt.Errorf("%w: %s %s", ErrMissingSecret, e.slot.tier, e.slot.purpose)
		}
		if len(e.value) < MinSecretBytes {
			return nil, fmt.Errorf("%w: %s %s needs at least %d bytes", ErrWeakSecret, e.slot.tier, e.slot.purpose, MinSecretBytes)
		}
		for _, prev := range entries[:i] {
			if bytes.Equal(prev.value, e.value) {
				return nil, fmt.Errorf("%w: %s %s and %s %s", ErrReusedSecret,
					prev.slot.tier, prev.slot.purpose, e.slot.tier, e.slot.purpose)
			}
		}
		r.secrets[e.slot] = append([]byte(nil), e.value...)
	}

	return r, nil
}

// SecretFor returns a copy of the secret for (tier, purpose).
func (r *Registry) SecretFor(tier Tier, purpose Purpose) ([]byte, error) {
	if r == nil {
		return nil, ErrMissingSecret
	}
	v, ok := r.secrets[slot{tier, purpose}]
	if !ok {
		return nil, fmt.Errorf("%w: %s %s", ErrMissingSecret, tier, purpose)
	}
	return append([]byte(nil), v...), nil
}
