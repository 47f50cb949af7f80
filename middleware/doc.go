// Package middleware exposes HTTP adapters that put goSession.Engine
// authentication in front of handlers, for net/http and for gin.
//
// # Guards
//
//   - [Guard] / [GinGuard] authenticate the Authorization header for one purpose.
//   - [RequireAccess] / [RequireRefresh] are Guard for a fixed purpose.
//   - [RequireTier] / [GinRequireTier] restrict a route to account tiers.
//
// The Authorization header carries "<TIER> <token>". Every authentication
// verdict is answered with the same 401 so callers cannot tell an expired
// token from a revoked one; backend failures answer 503 or 500.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. It does not parse
// tokens or touch Redis; all decisions are delegated to Engine.Authenticate.
package middleware
