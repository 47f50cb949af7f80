package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ResponseError is the body of every error response.
type ResponseError struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// respondWithError writes the mapped status for err. Server-side failures are
// logged with the underlying error; verdicts are not.
func respondWithError(c *gin.Context, logger *zap.Logger, status int, err error) {
	if status >= http.StatusInternalServerError {
		logger.Error("request failed",
			zap.Int("status_code", status),
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method),
			zap.Error(err),
		)
	}
	c.AbortWithStatusJSON(status, ResponseError{
		Error: errorMessage(err),
		Code:  errorCode(err),
	})
}

func respondWithValidationError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, ResponseError{
		Error: validationMessage(err),
		Code:  "validation_failed",
	})
}

func respondWithMessage(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"message": message})
}
