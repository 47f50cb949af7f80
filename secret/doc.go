// Package secret holds the signing secrets used for session tokens.
//
// Secrets are partitioned by tier (USER, ADMIN) and purpose (ACCESS, REFRESH).
// A token signed for one slot never verifies against another, so an ordinary
// user's token cannot be presented as an administrator's and a refresh token
// cannot stand in for an access token.
package secret
