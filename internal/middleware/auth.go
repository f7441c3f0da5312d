package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/getmentor/mentorship-api/internal/models"
	"github.com/getmentor/mentorship-api/pkg/jwt"
	"github.com/getmentor/mentorship-api/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ActorContextKey is the key used to store the authenticated actor in context
const ActorContextKey = "actor"

var (
	ErrActorNotFound = errors.New("actor not found in context")
	ErrInvalidActor  = errors.New("invalid actor type")
)

// TokenValidator validates bearer tokens
type TokenValidator interface {
	ValidateToken(token string) (*jwt.ActorClaims, error)
}

// ActorAuthMiddleware validates the bearer token and stores the mentor or
// student it identifies in the context
func ActorAuthMiddleware(tokens TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			_ = c.Error(fmt.Errorf("missing bearer token")) //nolint:errcheck
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			c.Abort()
			return
		}

		claims, err := tokens.ValidateToken(token)
		if err != nil {
			_ = c.Error(fmt.Errorf("invalid bearer token: %w", err)) //nolint:errcheck
			logger.Warn("Invalid bearer token",
				zap.String("path", c.Request.URL.Path),
				zap.String("client_ip", c.ClientIP()),
			)
			if errors.Is(err, jwt.ErrExpiredToken) {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Session expired"})
			} else {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			}
			c.Abort()
			return
		}

		c.Set(ActorContextKey, models.Actor{Role: models.Role(claims.Role), ID: claims.ActorID()})
		c.Next()
	}
}

// RequireRole lets only actors of role through. It must run after ActorAuthMiddleware.
func RequireRole(role models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, err := GetActor(c)
		if err != nil || actor.Role != role {
			c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetActor extracts the authenticated actor from context
func GetActor(c *gin.Context) (models.Actor, error) {
	val, exists := c.Get(ActorContextKey)
	if !exists {
		return models.Actor{}, ErrActorNotFound
	}

	actor, ok := val.(models.Actor)
	if !ok {
		return models.Actor{}, ErrInvalidActor
	}

	return actor, nil
}

func bearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}
