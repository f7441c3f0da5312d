package handlers

import (
	"net/http"

	"github.com/getmentor/mentorship-api/internal/services"
	"github.com/gin-gonic/gin"
)

// ProfileHandler serves public profiles
type ProfileHandler struct {
	service services.ProfileServiceInterface
}

func NewProfileHandler(service services.ProfileServiceInterface) *ProfileHandler {
	return &ProfileHandler{
		service: service,
	}
}

// GetMentor handles GET /api/v1/mentors/:id
func (h *ProfileHandler) GetMentor(c *gin.Context) {
	profile, err := h.service.GetMentorProfile(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err, "Failed to fetch mentor")
		return
	}
	c.JSON(http.StatusOK, profile)
}

// GetReputation handles GET /api/v1/mentors/:id/reputation
func (h *ProfileHandler) GetReputation(c *gin.Context) {
	reputation, err := h.service.GetReputation(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err, "Failed to fetch reputation")
		return
	}
	c.JSON(http.StatusOK, reputation)
}

// GetStudent handles GET /api/v1/students/:id
func (h *ProfileHandler) GetStudent(c *gin.Context) {
	profile, err := h.service.GetStudentProfile(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err, "Failed to fetch student")
		return
	}
	c.JSON(http.StatusOK, profile)
}
