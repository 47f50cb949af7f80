package middleware

import (
	"net/http"

	goSession "github.com/MrEthical07/goSession"
)

// RequireAccess guards a route with access credentials.
func RequireAccess(engine *goSession.Engine) func(http.Handler) http.Handler {
	return Guard(engine, goSession.PurposeAccess)
}

// RequireRefresh guards a route with refresh credentials. Used for the
// refresh endpoint only.
func RequireRefresh(engine *goSession.Engine) func(http.Handler) http.Handler {
	return Guard(engine, goSession.PurposeRefresh)
}
