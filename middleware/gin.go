package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	goSession "github.com/MrEthical07/goSession"
)

// GinContextAuthResultKey is the gin context key holding the
// *goSession.AuthResult set by [GinGuard].
const GinContextAuthResultKey = "gosession.auth"

// GinAuthResult returns the result stored by [GinGuard].
func GinAuthResult(c *gin.Context) (*goSession.AuthResult, bool) {
	v, ok := c.Get(GinContextAuthResultKey)
	if !ok {
		return nil, false
	}
	res, ok := v.(*goSession.AuthResult)
	return res, ok
}

// GinGuard is [Guard] for gin. The result is also stored in the request
// context so [AuthResultFromContext] works in downstream handlers.
func GinGuard(engine *goSession.Engine, purpose goSession.Purpose, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		if engine == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		ctx := requestContext(c.Request)
		res, err := engine.Authenticate(ctx, c.GetHeader("Authorization"), purpose)
		if err != nil {
			status := Status(err)
			if status != http.StatusUnauthorized {
				logger.Warn("authenticate failed", zap.Int("status", status), zap.Error(err))
			}
			c.AbortWithStatusJSON(status, gin.H{"error": errorMessage(status)})
			return
		}

		c.Set(GinContextAuthResultKey, res)
		c.Request = c.Request.WithContext(contextWithResult(ctx, res))
		c.Next()
	}
}

// GinRequireTier is [RequireTier] for gin.
func GinRequireTier(tiers ...goSession.Tier) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, ok := GinAuthResult(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errorMessage(http.StatusUnauthorized)})
			return
		}
		if !tierAllowed(res, tiers) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": errorMessage(http.StatusForbidden)})
			return
		}
		c.Next()
	}
}

func errorMessage(status int) string {
	switch status {
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusForbidden:
		return "you are not authorized to access this route"
	case http.StatusServiceUnavailable:
		return "service unavailable"
	default:
		return "internal error"
	}
}
