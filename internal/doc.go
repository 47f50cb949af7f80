// Package internal contains helper utilities that are private to goSession,
// chiefly secure random generation of token ids and one-time codes.
//
// # Sub-packages
//
//   - audit: asynchronous audit event dispatch
//   - config: environment/.env loading for the bundled executables
//   - httpapi: gin handlers wiring the Engine to HTTP
//   - logging: zap logger construction
//   - metrics: lock-free counters and latency histogram
//   - rate: Redis-backed fixed-window attempt limiters
//   - security: startup posture report
package internal
