// Package jwt issues and verifies HS256 session tokens. Each token is signed
// with the secret registered for its (tier, purpose) slot and carries the
// subject, issue time, expiry, token id, and purpose claims.
package jwt
