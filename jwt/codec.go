package jwt

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MrEthical07/goSession/secret"
	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrExpired is returned by Verify when the token's exp has passed.
	ErrExpired = errors.New("token expired")
	// ErrInvalid is returned by Verify for any other rejection: bad
	// signature, malformed payload, missing claims, or wrong purpose.
	ErrInvalid = errors.New("token invalid")
)

// Config configures a Codec. It is read once by NewCodec.
type Config struct {
	Registry     *secret.Registry
	Issuer       string
	Leeway       time.Duration
	MaxFutureIAT time.Duration
	// Now overrides the clock used for iat/exp. Defaults to time.Now.
	Now func() time.Time
}

// Claims is the verified payload of a session token.
type Claims struct {
	Purpose secret.Purpose `json:"pur"`
	jwt.RegisteredClaims
}

// IssuedAtTime returns iat, or the zero time when absent.
func (c *Claims) IssuedAtTime() time.Time {
	if c == nil || c.IssuedAt == nil {
		return time.Time{}
	}
	return c.IssuedAt.Time
}

// ExpiresAtTime returns exp, or the zero time when absent.
func (c *Claims) ExpiresAtTime() time.Time {
	if c == nil || c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

// Codec signs and verifies tokens. It is safe for concurrent use.
type Codec struct {
	config Config
}

// NewCodec validates cfg and returns a Codec. A nil Registry or an
// out-of-range leeway is rejected.
func NewCodec(cfg Config) (*Codec, error) {
	if cfg.Registry == nil {
		return nil, errors.New("jwt codec requires a secret registry")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	if cfg.MaxFutureIAT == 0 {
		cfg.MaxFutureIAT = 10 * time.Minute
	}
	if cfg.MaxFutureIAT < 0 || cfg.MaxFutureIAT > 24*time.Hour {
		return nil, errors.New("invalid MaxFutureIAT configuration")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	cfg.Issuer = strings.TrimSpace(cfg.Issuer)

	return &Codec{config: cfg}, nil
}

// Issue signs a token for subjectID with the secret of (tier, purpose). The
// token expires ttl after the current time.
func (c *Codec) Issue(subjectID string, tier secret.Tier, purpose secret.Purpose, ttl time.Duration, jti string) (string, error) {
	if subjectID == "" {
		return "", errors.New("subject id is required")
	}
	if jti == "" {
		return "", errors.New("jti is required")
	}
	if ttl <= 0 {
		return "", errors.New("invalid TTL configuration")
	}
	key, err := c.config.Registry.SecretFor(tier, purpose)
	if err != nil {
		return "", err
	}

	now := c.config.Now()
	claims := Claims{
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID,
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    c.config.Issuer,
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
}

// Verify checks the signature against the secret for (tier, purpose) and
// validates the claims. Expiry yields ErrExpired; every other failure yields
// ErrInvalid.
func (c *Codec) Verify(tokenStr string, tier secret.Tier, purpose secret.Purpose) (*Claims, error) {
	key, err := c.config.Registry.SecretFor(tier, purpose)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(c.config.Now),
	}
	if c.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(c.config.Leeway))
	}
	if c.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(c.config.Issuer))
	}

	parser := jwt.NewParser(options...)
	token, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing algorithm: %s", t.Method.Alg())
		}
		return key, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %v", ErrExpired, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalid
	}
	if claims.Subject == "" || claims.ID == "" || claims.IssuedAt == nil {
		return nil, fmt.Errorf("%w: missing sub, iat or jti", ErrInvalid)
	}
	if claims.Purpose != purpose {
		return nil, fmt.Errorf("%w: purpose mismatch", ErrInvalid)
	}
	if c.config.MaxFutureIAT > 0 {
		maxAllowed := c.config.Now().Add(c.config.MaxFutureIAT)
		if claims.IssuedAt.Time.After(maxAllowed) {
			return nil, fmt.Errorf("%w: iat too far in the future", ErrInvalid)
		}
	}

	return claims, nil
}
