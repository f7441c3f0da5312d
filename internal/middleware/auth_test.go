package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/getmentor/mentorship-api/internal/models"
	"github.com/getmentor/mentorship-api/pkg/jwt"
	"github.com/getmentor/mentorship-api/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	// Set Gin to test mode
	gin.SetMode(gin.TestMode)

	// Initialize logger for tests
	if err := logger.Initialize(logger.Config{Level: "debug", Environment: "development"}); err != nil {
		panic(err)
	}
}

func newAuthRouter(tm *jwt.TokenManager, seen *models.Actor) *gin.Engine {
	router := gin.New()
	router.Use(ActorAuthMiddleware(tm))
	router.GET("/test", func(c *gin.Context) {
		actor, err := GetActor(c)
		if err != nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		*seen = actor
		c.Status(http.StatusOK)
	})
	router.GET("/mentor-only", RequireRole(models.RoleMentor), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return router
}

func TestActorAuthMiddleware_ValidToken(t *testing.T) {
	tm := jwt.NewTokenManager("secret", "mentorship-api", 1)
	token, err := tm.GenerateToken(jwt.RoleStudent, "stu-1", "s@example.com", "Sam")
	require.NoError(t, err)

	var seen models.Actor
	router := newAuthRouter(tm, &seen)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.Actor{Role: models.RoleStudent, ID: "stu-1"}, seen)
}

func TestActorAuthMiddleware_MissingToken(t *testing.T) {
	var seen models.Actor
	router := newAuthRouter(jwt.NewTokenManager("secret", "mentorship-api", 1), &seen)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/test", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, seen.ID)
}

func TestActorAuthMiddleware_InvalidToken(t *testing.T) {
	other := jwt.NewTokenManager("other-secret", "mentorship-api", 1)
	token, err := other.GenerateToken(jwt.RoleMentor, "m1", "", "")
	require.NoError(t, err)

	var seen models.Actor
	router := newAuthRouter(jwt.NewTokenManager("secret", "mentorship-api", 1), &seen)

	for _, header := range []string{"Bearer " + token, "Basic abc", "Bearer "} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set("Authorization", header)
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code, header)
	}
	assert.Empty(t, seen.ID)
}

func TestRequireRole(t *testing.T) {
	tm := jwt.NewTokenManager("secret", "mentorship-api", 1)
	var seen models.Actor
	router := newAuthRouter(tm, &seen)

	student, err := tm.GenerateToken(jwt.RoleStudent, "stu-1", "", "")
	require.NoError(t, err)
	mentor, err := tm.GenerateToken(jwt.RoleMentor, "m1", "", "")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/mentor-only", nil)
	req.Header.Set("Authorization", "Bearer "+student)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/mentor-only", nil)
	req.Header.Set("Authorization", "Bearer "+mentor)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
