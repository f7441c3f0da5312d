package services

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"

	"github.com/getmentor/mentorship-api/internal/models"
	"github.com/getmentor/mentorship-api/pkg/errors"
	"github.com/getmentor/mentorship-api/pkg/logger"
	"github.com/getmentor/mentorship-api/pkg/metrics"
	"github.com/getmentor/mentorship-api/pkg/tracing"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ErrAnalysisUnavailable is returned when the analysis engine is not configured or failing
var ErrAnalysisUnavailable = stderrors.New("resume analysis unavailable")

// ResumeAnalyzer is the AI analysis collaborator
type ResumeAnalyzer interface {
	AnalyzeResume(ctx context.Context, resumeText, targetRole string) (json.RawMessage, error)
	GenerateRoadmap(ctx context.Context, missingSkills []string, targetRole string) (json.RawMessage, error)
}

// ResumeArchiver keeps the submitted resume text
type ResumeArchiver interface {
	Put(ctx context.Context, studentID, text string) (string, error)
}

// ResumeService stores AI resume analyses and learning roadmaps on the student
// aggregate. Engine output is kept verbatim; the service never interprets it.
type ResumeService struct {
	agg      *Aggregates
	analyzer ResumeAnalyzer
	archive  ResumeArchiver
}

// NewResumeService creates a new ResumeService. analyzer and archive may be nil.
func NewResumeService(agg *Aggregates, analyzer ResumeAnalyzer, archive ResumeArchiver) *ResumeService {
	return &ResumeService{agg: agg, analyzer: analyzer, archive: archive}
}

// AnalyzeResume sends the resume to the analysis engine and stores the result
func (s *ResumeService) AnalyzeResume(ctx context.Context, studentID string, in *models.AnalyzeResumeInput) (_ *models.Resume, err error) {
	ctx, span := tracing.StartSpan(ctx, "ResumeService.AnalyzeResume",
		attribute.String("student_id", studentID))
	defer func() { tracing.EndSpan(span, err) }()

	if err = validateInput(in, errors.IDs{StudentID: studentID}); err != nil {
		metrics.ResumeAnalyses.WithLabelValues("invalid").Inc()
		return nil, err
	}
	if s.analyzer == nil {
		metrics.ResumeAnalyses.WithLabelValues("unavailable").Inc()
		return nil, fmt.Errorf("%w: no analysis engine configured", ErrAnalysisUnavailable)
	}
	if _, err = s.agg.students.GetByID(ctx, studentID); err != nil {
		return nil, err
	}

	var archiveKey string
	if s.archive != nil {
		archiveKey, err = s.archive.Put(ctx, studentID, in.ResumeText)
		if err != nil {
			logger.Warn("Failed to archive resume text, continuing without it",
				zap.String("student_id", studentID),
				zap.Error(err))
			archiveKey, err = "", nil
		}
	}

	analysis, err := s.analyzer.AnalyzeResume(ctx, in.ResumeText, in.TargetRole)
	if err != nil {
		metrics.ResumeAnalyses.WithLabelValues("error").Inc()
		logger.Error("Resume analysis failed",
			zap.String("student_id", studentID),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrAnalysisUnavailable, err)
	}

	resume := models.Resume{
		TargetRole: in.TargetRole,
		AnalyzedAt: s.agg.now(),
		Analysis:   analysis,
		ArchiveKey: archiveKey,
	}
	if _, err = s.agg.updateStudent(ctx, studentID, func(st *models.Student) error {
		st.SetResume(resume)
		return nil
	}); err != nil {
		metrics.ResumeAnalyses.WithLabelValues("error").Inc()
		return nil, err
	}

	metrics.ResumeAnalyses.WithLabelValues("success").Inc()
	logger.Info("Resume analysis stored",
		zap.String("student_id", studentID),
		zap.String("target_role", in.TargetRole),
		zap.Bool("archived", archiveKey != ""))
	return &resume, nil
}

// GetResume returns the stored analysis of a student
func (s *ResumeService) GetResume(ctx context.Context, studentID string) (*models.Resume, error) {
	st, err := s.agg.students.GetByID(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if st.Resume == nil {
		return nil, errors.NotFoundError("resume", errors.IDs{StudentID: studentID})
	}
	return st.Resume, nil
}

// GenerateRoadmap asks the engine for a weekly plan covering the missing
// skills and stores it, replacing any earlier roadmap
func (s *ResumeService) GenerateRoadmap(ctx context.Context, studentID string, in *models.GenerateRoadmapInput) (_ *models.Roadmap, err error) {
	ctx, span := tracing.StartSpan(ctx, "ResumeService.GenerateRoadmap",
		attribute.String("student_id", studentID),
		attribute.Int("missing_skills", len(in.MissingSkills)))
	defer func() { tracing.EndSpan(span, err) }()

	if err = validateInput(in, errors.IDs{StudentID: studentID}); err != nil {
		metrics.RoadmapGenerations.WithLabelValues("invalid").Inc()
		return nil, err
	}
	if s.analyzer == nil {
		metrics.RoadmapGenerations.WithLabelValues("unavailable").Inc()
		return nil, fmt.Errorf("%w: no analysis engine configured", ErrAnalysisUnavailable)
	}
	if _, err = s.agg.students.GetByID(ctx, studentID); err != nil {
		return nil, err
	}

	plan, err := s.analyzer.GenerateRoadmap(ctx, in.MissingSkills, in.TargetRole)
	if err != nil {
		metrics.RoadmapGenerations.WithLabelValues("error").Inc()
		logger.Error("Roadmap generation failed",
			zap.String("student_id", studentID),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrAnalysisUnavailable, err)
	}

	roadmap := models.Roadmap{
		TargetRole:    in.TargetRole,
		MissingSkills: append([]string(nil), in.MissingSkills...),
		GeneratedAt:   s.agg.now(),
		Plan:          plan,
	}
	if _, err = s.agg.updateStudent(ctx, studentID, func(st *models.Student) error {
		st.SetRoadmap(roadmap)
		return nil
	}); err != nil {
		metrics.RoadmapGenerations.WithLabelValues("error").Inc()
		return nil, err
	}

	metrics.RoadmapGenerations.WithLabelValues("success").Inc()
	logger.Info("Roadmap stored",
		zap.String("student_id", studentID),
		zap.String("target_role", in.TargetRole),
		zap.Int("missing_skills", len(in.MissingSkills)))
	return &roadmap, nil
}

// GetRoadmap returns the stored roadmap of a student
func (s *ResumeService) GetRoadmap(ctx context.Context, studentID string) (*models.Roadmap, error) {
	st, err := s.agg.students.GetByID(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if st.Roadmap == nil {
		return nil, errors.NotFoundError("roadmap", errors.IDs{StudentID: studentID})
	}
	return st.Roadmap, nil
}
