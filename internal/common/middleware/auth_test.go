package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homefix/service-lifecycle/internal/common/auth"
)

func newTestRouter(m *auth.JWTManager, roles ...auth.Role) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", AuthMiddleware(m), RequireRole(roles...), func(c *gin.Context) {
		id, _ := GetUserID(c)
		role, _ := GetUserRole(c)
		c.JSON(http.StatusOK, gin.H{"id": id, "role": role})
	})
	return r
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	r := newTestRouter(auth.NewJWTManager("s", time.Minute), auth.RoleClient)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_RoleGate(t *testing.T) {
	m := auth.NewJWTManager("s", time.Minute)
	r := newTestRouter(m, auth.RoleAdmin)

	token, err := m.Generate(uuid.New(), auth.RoleClient)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAuthMiddleware_Allowed(t *testing.T) {
	m := auth.NewJWTManager("s", time.Minute)
	r := newTestRouter(m, auth.RoleClient, auth.RoleProvider)
	userID := uuid.New()

	token, err := m.Generate(userID, auth.RoleProvider)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), userID.String())
}
