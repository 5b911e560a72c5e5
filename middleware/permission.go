package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"tourbook/models"
)

// CheckAdminPermissionMiddleware lets only role "admin" through. Browsers
// asking for HTML are redirected to loginPath with a next parameter; API
// callers get 401 without a session and 403 with a lesser role.
func CheckAdminPermissionMiddleware(loginPath string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := Role(c)
		if role == models.RoleAdmin {
			c.Next()
			return
		}

		if wantsHTML(c) {
			target := loginPath + "?next=" + url.QueryEscape(c.Request.URL.RequestURI())
			c.Redirect(http.StatusSeeOther, target)
			c.Abort()
			return
		}

		if _, ok := UserID(c); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"message": "login required",
			})
			return
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"message": "admin role required",
			"role":    role,
		})
	}
}

func wantsHTML(c *gin.Context) bool {
	accept := c.GetHeader("Accept")
	return strings.Contains(accept, "text/html") && !strings.Contains(accept, "application/json")
}
