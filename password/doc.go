// Package password implements hashing and verification of passwords and
// one-time confirmation codes, with Argon2id as the default and bcrypt for
// legacy hashes.
//
// # Output format
//
// Argon2id hashes are encoded in PHC string format:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// Both hashers report [Argon2.NeedsUpgrade] style parameter drift so callers
// can re-hash on the next successful login.
//
// Length policy for passwords lives in [CheckPolicy], not in Hash, because the
// same hashers store six-digit OTP codes.
package password
