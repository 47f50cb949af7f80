// Package account defines the account record and its persistence contract,
// with an in-memory store for development and tests and a MongoDB store for
// deployments.
//
// Stores own two guarantees the session engine relies on: the credentials
// watermark only ever moves forward, and confirming an account sets
// ConfirmedAt and clears the pending OTP in a single conditional write.
package account
