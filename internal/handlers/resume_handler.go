package handlers

import (
	"net/http"

	"github.com/getmentor/mentorship-api/internal/middleware"
	"github.com/getmentor/mentorship-api/internal/models"
	"github.com/getmentor/mentorship-api/internal/services"
	"github.com/gin-gonic/gin"
)

// ResumeHandler handles student resume analysis endpoints
type ResumeHandler struct {
	service services.ResumeServiceInterface
}

// NewResumeHandler creates a new ResumeHandler
func NewResumeHandler(service services.ResumeServiceInterface) *ResumeHandler {
	return &ResumeHandler{
		service: service,
	}
}

// Analyze handles POST /api/v1/student/resume
func (h *ResumeHandler) Analyze(c *gin.Context) {
	actor, err := middleware.GetActor(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "Unauthorized", err)
		return
	}

	var in models.AnalyzeResumeInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondBindError(c, err)
		return
	}

	resume, err := h.service.AnalyzeResume(c.Request.Context(), actor.ID, &in)
	if err != nil {
		respondServiceError(c, err, "Failed to analyze resume")
		return
	}

	c.JSON(http.StatusOK, resume)
}

// Get handles GET /api/v1/student/resume
func (h *ResumeHandler) Get(c *gin.Context) {
	actor, err := middleware.GetActor(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "Unauthorized", err)
		return
	}

	resume, err := h.service.GetResume(c.Request.Context(), actor.ID)
	if err != nil {
		respondServiceError(c, err, "Failed to fetch resume")
		return
	}

	c.JSON(http.StatusOK, resume)
}

// GenerateRoadmap handles POST /api/v1/student/roadmap
func (h *ResumeHandler) GenerateRoadmap(c *gin.Context) {
	actor, err := middleware.GetActor(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "Unauthorized", err)
		return
	}

	var in models.GenerateRoadmapInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondBindError(c, err)
		return
	}

	roadmap, err := h.service.GenerateRoadmap(c.Request.Context(), actor.ID, &in)
	if err != nil {
		respondServiceError(c, err, "Failed to generate roadmap")
		return
	}

	c.JSON(http.StatusOK, roadmap)
}

// GetRoadmap handles GET /api/v1/student/roadmap
func (h *ResumeHandler) GetRoadmap(c *gin.Context) {
	actor, err := middleware.GetActor(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "Unauthorized", err)
		return
	}

	roadmap, err := h.service.GetRoadmap(c.Request.Context(), actor.ID)
	if err != nil {
		respondServiceError(c, err, "Failed to fetch roadmap")
		return
	}

	c.JSON(http.StatusOK, roadmap)
}
