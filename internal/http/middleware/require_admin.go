package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireAdmin assumes RequireAuth already ran.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		u, ok := CurrentUser(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":      "로그인이 필요합니다.",
				"request_id": GetRequestID(c),
			})
			return
		}
		if !u.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":      "접근 권한이 없습니다.",
				"request_id": GetRequestID(c),
			})
			return
		}
		c.Next()
	}
}
