package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chat-relay/internal/auth"
	"chat-relay/internal/logger"
)

func newRouter(t *testing.T, a *auth.Authenticator, header string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(AuthMiddleware(a, header))
	r.GET("/whoami", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(UserNameKey))
	})
	return r
}

func TestAuthMiddleware_Basic(t *testing.T) {
	hash, err := auth.HashPassword("pw")
	require.NoError(t, err)
	a := auth.NewAuthenticator(logger.Nop(), auth.NewLocalStrategy(map[string]string{"alice": hash}))
	r := newRouter(t, a, "")

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.SetBasicAuth("alice", "pw")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alice", w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.SetBasicAuth("alice", "wrong")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/whoami", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Header().Get("WWW-Authenticate"), "Basic")
}

func TestAuthMiddleware_ProxyHeader(t *testing.T) {
	a := auth.NewAuthenticator(logger.Nop(),
		auth.NewProxyStrategy("X-Remote-User", func(name string) bool { return name == "alice" }),
		auth.NewLocalStrategy(nil),
	)
	r := newRouter(t, a, "X-Remote-User")

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("X-Remote-User", "alice")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alice", w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("X-Remote-User", "mallory")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
