package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// CheckLoginMiddleware aborts with 401 unless AuthMiddleware found a user.
func CheckLoginMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := UserID(c); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"message": "login required",
			})
			return
		}
		c.Next()
	}
}
