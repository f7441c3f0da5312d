package handlers

import (
	"net/http"

	"github.com/getmentor/mentorship-api/internal/middleware"
	"github.com/getmentor/mentorship-api/internal/models"
	"github.com/getmentor/mentorship-api/internal/services"
	"github.com/gin-gonic/gin"
)

// MentorshipHandler handles the active mentorship ledger endpoints
type MentorshipHandler struct {
	service services.RelationshipServiceInterface
}

// NewMentorshipHandler creates a new MentorshipHandler
func NewMentorshipHandler(service services.RelationshipServiceInterface) *MentorshipHandler {
	return &MentorshipHandler{
		service: service,
	}
}

// List handles GET /api/v1/mentorships
func (h *MentorshipHandler) List(c *gin.Context) {
	actor, err := middleware.GetActor(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "Unauthorized", err)
		return
	}

	list, err := h.service.GetMentorships(c.Request.Context(), actor)
	if err != nil {
		respondServiceError(c, err, "Failed to fetch mentorships")
		return
	}

	c.JSON(http.StatusOK, gin.H{"mentorships": list, "total": len(list)})
}

// Transition handles POST /api/v1/mentorships/:id/status
// Either party may pause, resume or complete the mentorship
func (h *MentorshipHandler) Transition(c *gin.Context) {
	actor, err := middleware.GetActor(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "Unauthorized", err)
		return
	}

	var in models.TransitionMentorshipInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondBindError(c, err)
		return
	}

	ms, err := h.service.Transition(c.Request.Context(), actor, c.Param("id"), &in)
	if err != nil {
		respondServiceError(c, err, "Failed to update mentorship")
		return
	}

	c.JSON(http.StatusOK, ms)
}

// Reconcile handles POST /api/v1/mentorships/reconcile?studentId=...
// A mentor asks to re-align their records with one student
func (h *MentorshipHandler) Reconcile(c *gin.Context) {
	actor, err := middleware.GetActor(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "Unauthorized", err)
		return
	}

	studentID := c.Query("studentId")
	if studentID == "" {
		respondError(c, http.StatusBadRequest, "Missing required parameter: studentId", nil)
		return
	}

	repair, err := h.service.Reconcile(c.Request.Context(), actor.ID, studentID)
	if err != nil {
		respondServiceError(c, err, "Failed to reconcile")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"changed":           repair.Changed(),
		"requests":          repair.Requests,
		"mentorships":       repair.Mentorships,
		"sessionProjection": repair.SessionProjected,
	})
}
