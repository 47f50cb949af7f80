// Package rate provides Redis-backed fixed-window attempt limiters for
// password login and OTP confirmation.
//
// # Window semantics
//
// Fixed-window counters: INCR + conditional EXPIRE on first hit. Key prefixes:
//   - gs:rl:login:  : failed password logins per email
//   - gs:rl:confirm:: failed OTP confirmations per account
package rate
