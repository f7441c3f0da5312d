package models

import (
	"encoding/json"
	"time"
)

// Resume is the stored result of an AI resume analysis. Analysis is kept
// verbatim as returned by the engine.
type Resume struct {
	TargetRole string          `json:"targetRole"`
	AnalyzedAt time.Time       `json:"analyzedAt"`
	Analysis   json.RawMessage `json:"analysis"`
	ArchiveKey string          `json:"archiveKey,omitempty"`
}

// AnalyzeResumeInput is the payload to request an analysis
type AnalyzeResumeInput struct {
	ResumeText string `json:"resumeText" binding:"required,min=100,max=50000" validate:"required,min=100,max=50000"`
	TargetRole string `json:"targetRole" binding:"required,min=2,max=200" validate:"required,min=2,max=200"`
}

// Roadmap is a generated weekly learning plan toward a target role. Plan is
// the engine's output, stored as returned.
type Roadmap struct {
	TargetRole    string          `json:"targetRole"`
	MissingSkills []string        `json:"missingSkills"`
	GeneratedAt   time.Time       `json:"generatedAt"`
	Plan          json.RawMessage `json:"plan"`
}

// GenerateRoadmapInput is the payload to request a roadmap
type GenerateRoadmapInput struct {
	TargetRole    string   `json:"targetRole" binding:"required,min=2,max=200" validate:"required,min=2,max=200"`
	MissingSkills []string `json:"missingSkills" binding:"required,min=1,max=30,dive,required,max=100" validate:"required,min=1,max=30,dive,required,max=100"`
}
