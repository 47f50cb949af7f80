package middleware

import (
	"context"
	"errors"
	"net"
	"net/http"
	"slices"

	goSession "github.com/MrEthical07/goSession"
)

// HeaderRequestID is copied into the request context for audit correlation.
const HeaderRequestID = "X-Request-ID"

type authResultContextKey struct{}

// AuthResultFromContext returns the result stored by [Guard].
func AuthResultFromContext(ctx context.Context) (*goSession.AuthResult, bool) {
	res, ok := ctx.Value(authResultContextKey{}).(*goSession.AuthResult)
	return res, ok
}

func contextWithResult(ctx context.Context, res *goSession.AuthResult) context.Context {
	return context.WithValue(ctx, authResultContextKey{}, res)
}

// Guard authenticates the Authorization header for purpose and stores the
// [goSession.AuthResult] in the request context.
func Guard(engine *goSession.Engine, purpose goSession.Purpose) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := requestContext(r)
			res, err := engine.Authenticate(ctx, r.Header.Get("Authorization"), purpose)
			if err != nil {
				status := Status(err)
				http.Error(w, http.StatusText(status), status)
				return
			}

			next.ServeHTTP(w, r.WithContext(contextWithResult(ctx, res)))
		})
	}
}

// RequireTier rejects requests whose account tier is not in tiers with 403.
// It must run after [Guard].
func RequireTier(tiers ...goSession.Tier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res, ok := AuthResultFromContext(r.Context())
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			if !tierAllowed(res, tiers) {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Status maps an Authenticate error to an HTTP status.
func Status(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case goSession.IsAuthenticationFailure(err):
		return http.StatusUnauthorized
	case errors.Is(err, goSession.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// requestContext attaches the client IP and request ID for audit events.
func requestContext(r *http.Request) context.Context {
	ctx := r.Context()
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		ctx = goSession.WithClientIP(ctx, host)
	} else if r.RemoteAddr != "" {
		ctx = goSession.WithClientIP(ctx, r.RemoteAddr)
	}
	if id := r.Header.Get(HeaderRequestID); id != "" {
		ctx = goSession.WithRequestID(ctx, id)
	}
	return ctx
}

// tierAllowed checks the account's stored tier, not the token prefix.
func tierAllowed(res *goSession.AuthResult, tiers []goSession.Tier) bool {
	if len(tiers) == 0 {
		return true
	}
	if res == nil || res.Account == nil {
		return false
	}
	return slices.Contains(tiers, res.Account.Tier)
}
