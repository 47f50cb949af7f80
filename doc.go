// Package goSession issues, authenticates and invalidates the credentials of
// a two-tier (USER, ADMIN) account system and runs the email confirmation
// flow that gates password login.
//
// Engine methods are safe to call from multiple goroutines after
// initialization through [Builder.Build].
//
// # Credentials
//
// Login issues an access and a refresh token signed with HS256 under one of
// four secrets selected by tier and purpose. Both tokens of one login carry
// the same token ID. Clients present them as "<TIER> <token>"; a token signed
// for one (tier, purpose) slot never verifies under another.
//
// # Invalidation
//
// Two mechanisms exist. [Engine.LogoutOne] records a token ID in the
// revocation ledger, which kills both tokens of that login. [Engine.LogoutAll]
// advances the account's credentials watermark; every token issued in an
// earlier second is rejected from then on.
//
// # Confirmation
//
// [Engine.Signup] creates an unconfirmed account and queues a six-digit code
// for delivery. Only a hash of the code is stored. [Engine.Confirm] checks
// the code and marks the account confirmed in one conditional store write.
//
// # Architecture boundaries
//
// goSession is the public surface. Signing secrets live in secret, token
// encoding in jwt, the ledger in revocation, account persistence in account
// and delivery in notify. Rate limiting, audit dispatch and metrics live
// under internal/.
//
// Store failures are reported as [ErrPersistence] or [ErrUnavailable] and
// never turn into an authentication verdict.
package goSession
