package handlers

import (
	"net/http"

	"github.com/getmentor/mentorship-api/internal/middleware"
	"github.com/getmentor/mentorship-api/internal/models"
	"github.com/getmentor/mentorship-api/internal/services"
	"github.com/gin-gonic/gin"
)

// SessionHandler handles session lifecycle and payment endpoints. Routes are
// nested under /api/v1/mentorships/:id/sessions.
type SessionHandler struct {
	service services.SessionServiceInterface
}

// NewSessionHandler creates a new SessionHandler
func NewSessionHandler(service services.SessionServiceInterface) *SessionHandler {
	return &SessionHandler{
		service: service,
	}
}

// Schedule handles POST /api/v1/mentorships/:id/sessions
func (h *SessionHandler) Schedule(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	// the path names the mentorship; set before binding so the required rule passes
	in := models.ScheduleSessionInput{MentorshipID: c.Param("id")}
	if err := c.ShouldBindJSON(&in); err != nil {
		respondBindError(c, err)
		return
	}
	in.MentorshipID = c.Param("id")

	session, err := h.service.Schedule(c.Request.Context(), actor, &in)
	if err != nil {
		respondServiceError(c, err, "Failed to schedule session")
		return
	}

	c.JSON(http.StatusCreated, session)
}

// List handles GET /api/v1/mentorships/:id/sessions
func (h *SessionHandler) List(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	sessions, err := h.service.ListSessions(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respondServiceError(c, err, "Failed to fetch sessions")
		return
	}

	c.JSON(http.StatusOK, gin.H{"sessions": sessions, "total": len(sessions)})
}

// Complete handles POST /api/v1/mentorships/:id/sessions/:sessionId/complete
func (h *SessionHandler) Complete(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	var in models.CompleteSessionInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondBindError(c, err)
		return
	}

	session, err := h.service.Complete(c.Request.Context(), actor, c.Param("id"), c.Param("sessionId"), &in)
	if err != nil {
		respondServiceError(c, err, "Failed to complete session")
		return
	}

	c.JSON(http.StatusOK, session)
}

// Cancel handles POST /api/v1/mentorships/:id/sessions/:sessionId/cancel
func (h *SessionHandler) Cancel(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	var in models.CancelSessionInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondBindError(c, err)
		return
	}

	session, err := h.service.Cancel(c.Request.Context(), actor, c.Param("id"), c.Param("sessionId"), &in)
	if err != nil {
		respondServiceError(c, err, "Failed to cancel session")
		return
	}

	c.JSON(http.StatusOK, session)
}

// MarkNoShow handles POST /api/v1/mentorships/:id/sessions/:sessionId/no-show
func (h *SessionHandler) MarkNoShow(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	session, err := h.service.MarkNoShow(c.Request.Context(), actor, c.Param("id"), c.Param("sessionId"))
	if err != nil {
		respondServiceError(c, err, "Failed to update session")
		return
	}

	c.JSON(http.StatusOK, session)
}

// UpdatePayment handles POST /api/v1/mentorships/:id/sessions/:sessionId/payment
func (h *SessionHandler) UpdatePayment(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	var in models.UpdatePaymentInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondBindError(c, err)
		return
	}

	session, err := h.service.UpdatePayment(c.Request.Context(), actor, c.Param("id"), c.Param("sessionId"), &in)
	if err != nil {
		respondServiceError(c, err, "Failed to update payment")
		return
	}

	c.JSON(http.StatusOK, session)
}

func (h *SessionHandler) actor(c *gin.Context) (models.Actor, bool) {
	actor, err := middleware.GetActor(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "Unauthorized", err)
		return models.Actor{}, false
	}
	return actor, true
}
