// Package revocation persists the set of revoked token ids (jti).
//
// A jti present in the ledger is never honoured again. Records are written
// once and never updated; a duplicate revoke is a no-op. Records become
// garbage once every token carrying the jti would have expired on its own:
// the Redis store expires keys after the retention window and the Postgres
// store is trimmed by [PostgresStore.Purge].
//
// # Binary encoding
//
// Redis values use a compact versioned binary layout (see [Encode]). The
// encoder is append-only: new versions add fields but never reinterpret old
// ones.
//
// # Architecture boundaries
//
// This package does not interpret tokens or decide authentication outcomes.
// Every storage failure is returned wrapped in [ErrUnavailable] so callers
// can refuse the request instead of treating an unknown jti as live.
package revocation
