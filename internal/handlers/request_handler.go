package handlers

import (
	"net/http"

	"github.com/getmentor/mentorship-api/internal/middleware"
	"github.com/getmentor/mentorship-api/internal/models"
	"github.com/getmentor/mentorship-api/internal/services"
	"github.com/gin-gonic/gin"
)

// RequestHandler handles mentorship request endpoints
type RequestHandler struct {
	service services.RequestServiceInterface
}

// NewRequestHandler creates a new RequestHandler
func NewRequestHandler(service services.RequestServiceInterface) *RequestHandler {
	return &RequestHandler{
		service: service,
	}
}

// Submit handles POST /api/v1/requests
// A student asks a mentor for mentorship
func (h *RequestHandler) Submit(c *gin.Context) {
	actor, err := middleware.GetActor(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "Unauthorized", err)
		return
	}

	var in models.SubmitRequestInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondBindError(c, err)
		return
	}

	req, err := h.service.Submit(c.Request.Context(), actor.ID, &in)
	if err != nil {
		respondServiceError(c, err, "Failed to submit request")
		return
	}

	c.JSON(http.StatusCreated, req)
}

// Respond handles POST /api/v1/requests/:id/respond
// The mentor accepts or rejects a pending request
func (h *RequestHandler) Respond(c *gin.Context) {
	actor, err := middleware.GetActor(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "Unauthorized", err)
		return
	}

	var in models.RespondRequestInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondBindError(c, err)
		return
	}

	req, err := h.service.Respond(c.Request.Context(), actor.ID, c.Param("id"), &in)
	if err != nil {
		respondServiceError(c, err, "Failed to respond to request")
		return
	}

	c.JSON(http.StatusOK, req)
}

// List handles GET /api/v1/requests?status=pending
// Mentors see their projections, students their own requests
func (h *RequestHandler) List(c *gin.Context) {
	actor, err := middleware.GetActor(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "Unauthorized", err)
		return
	}

	raw := c.QueryArray("status")
	statuses := make([]models.RequestStatus, 0, len(raw))
	for _, s := range raw {
		statuses = append(statuses, models.RequestStatus(s))
	}

	var resp *models.RequestsResponse
	if actor.IsMentor() {
		resp, err = h.service.GetMentorRequests(c.Request.Context(), actor.ID, statuses)
	} else {
		resp, err = h.service.GetStudentRequests(c.Request.Context(), actor.ID, statuses)
	}
	if err != nil {
		respondServiceError(c, err, "Failed to fetch requests")
		return
	}

	c.JSON(http.StatusOK, resp)
}
