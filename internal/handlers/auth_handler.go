package handlers

import (
	"net/http"
	"time"

	"github.com/getmentor/mentorship-api/internal/middleware"
	"github.com/getmentor/mentorship-api/internal/models"
	"github.com/getmentor/mentorship-api/internal/services"
	"github.com/getmentor/mentorship-api/pkg/jwt"
	"github.com/gin-gonic/gin"
)

// TokenIssuer signs bearer tokens for authenticated actors
type TokenIssuer interface {
	GenerateToken(role jwt.Role, actorID, email, name string) (string, error)
	GetExpirationTime() time.Duration
}

// AuthHandler handles registration, login and password endpoints
type AuthHandler struct {
	service services.AccountServiceInterface
	tokens  TokenIssuer
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(service services.AccountServiceInterface, tokens TokenIssuer) *AuthHandler {
	return &AuthHandler{
		service: service,
		tokens:  tokens,
	}
}

// RegisterMentor handles POST /api/v1/auth/mentor/register
func (h *AuthHandler) RegisterMentor(c *gin.Context) {
	var in models.RegisterMentorInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondBindError(c, err)
		return
	}

	m, err := h.service.RegisterMentor(c.Request.Context(), &in)
	if err != nil {
		respondServiceError(c, err, "Failed to register mentor")
		return
	}

	h.respondToken(c, http.StatusCreated, &services.Identity{Role: models.RoleMentor, ID: m.ID, Email: m.Email, Name: m.Name})
}

// RegisterStudent handles POST /api/v1/auth/student/register
func (h *AuthHandler) RegisterStudent(c *gin.Context) {
	var in models.RegisterStudentInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondBindError(c, err)
		return
	}

	s, err := h.service.RegisterStudent(c.Request.Context(), &in)
	if err != nil {
		respondServiceError(c, err, "Failed to register student")
		return
	}

	h.respondToken(c, http.StatusCreated, &services.Identity{Role: models.RoleStudent, ID: s.ID, Email: s.Email, Name: s.Name})
}

// Login handles POST /api/v1/auth/:role/login
func (h *AuthHandler) Login(c *gin.Context) {
	role := models.Role(c.Param("role"))
	if !role.IsValid() {
		respondError(c, http.StatusNotFound, "Not found", nil)
		return
	}

	var in models.LoginInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondBindError(c, err)
		return
	}

	id, err := h.service.Authenticate(c.Request.Context(), role, in.Email, in.Password)
	if err != nil {
		respondServiceError(c, err, "Failed to log in")
		return
	}

	h.respondToken(c, http.StatusOK, id)
}

// ChangePassword handles POST /api/v1/account/password
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	actor, err := middleware.GetActor(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "Unauthorized", err)
		return
	}

	var in models.ChangePasswordInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondBindError(c, err)
		return
	}

	if err := h.service.ChangePassword(c.Request.Context(), actor, in.CurrentPassword, in.NewPassword); err != nil {
		respondServiceError(c, err, "Failed to change password")
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *AuthHandler) respondToken(c *gin.Context, status int, id *services.Identity) {
	token, err := h.tokens.GenerateToken(jwt.Role(id.Role), id.ID, id.Email, id.Name)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to issue token", err)
		return
	}

	c.JSON(status, models.TokenResponse{
		Token:     token,
		ExpiresIn: int64(h.tokens.GetExpirationTime().Seconds()),
		Role:      id.Role,
		ID:        id.ID,
	})
}
