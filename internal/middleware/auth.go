package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"chat-relay/internal/auth"
)

// UserNameKey is the gin context key holding the authenticated user name.
const UserNameKey = "userName"

// AuthMiddleware authenticates the request with the selected strategy. The
// proxy header is read when proxyHeader is set, HTTP basic credentials always.
func AuthMiddleware(authenticator *auth.Authenticator, proxyHeader string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var creds auth.Credentials
		if proxyHeader != "" {
			creds.ProxyUser = c.GetHeader(proxyHeader)
		}
		if user, password, ok := c.Request.BasicAuth(); ok {
			creds.User = user
			creds.Password = password
		}

		if creds.ProxyUser == "" && creds.User == "" {
			c.Header("WWW-Authenticate", `Basic realm="chat-relay"`)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization"})
			return
		}

		userName, err := authenticator.Authenticate(c.Request.Context(), creds)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}

		c.Set(UserNameKey, userName)
		c.Next()
	}
}
