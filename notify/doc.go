// Package notify delivers one-time confirmation codes to account holders.
//
// A Notifier receives the plaintext code exactly once. Implementations must
// not log it. The session engine calls notifiers from a background worker,
// so delivery errors never reach the request that issued the code.
package notify
