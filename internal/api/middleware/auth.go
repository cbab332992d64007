package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/timmy/analystai/internal/auth"
	"github.com/timmy/analystai/internal/logger"
)

// Auth returns a middleware that requires an "Authorization: Bearer <token>"
// header and checks the token with validator. Failures abort with 401.
// Parameters:
//   - validator: token check applied after the header is parsed.
// Returns:
//   - gin.HandlerFunc: middleware handler.
func Auth(validator auth.TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := auth.ParseBearer(c.GetHeader("Authorization"))
		if err != nil {
			abortUnauthorized(c, err)
			return
		}

		if err := validator.Validate(c.Request.Context(), token); err != nil {
			abortUnauthorized(c, err)
			return
		}

		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, err error) {
	logger.CtxWarn(c.Request.Context(), "Unauthorized request: path=%s, reason=%v", c.Request.URL.Path, err)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": err.Error(),
	})
}
