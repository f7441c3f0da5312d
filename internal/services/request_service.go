package services

import (
	"context"
	"slices"
	"time"

	"github.com/getmentor/mentorship-api/internal/models"
	"github.com/getmentor/mentorship-api/pkg/errors"
	"github.com/getmentor/mentorship-api/pkg/logger"
	"github.com/getmentor/mentorship-api/pkg/metrics"
	"github.com/getmentor/mentorship-api/pkg/tracing"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// RequestService drives the mentorship request lifecycle
type RequestService struct {
	agg      *Aggregates
	notifier Notifier
}

// NewRequestService creates a new RequestService
func NewRequestService(agg *Aggregates, notifier Notifier) *RequestService {
	return &RequestService{agg: agg, notifier: orNop(notifier)}
}

// Submit records a pending request on the student, then projects it onto the
// mentor together with a snapshot of the student's profile.
func (s *RequestService) Submit(ctx context.Context, studentID string, in *models.SubmitRequestInput) (_ *models.MentorshipRequest, err error) {
	ctx, span := tracing.StartSpan(ctx, "RequestService.Submit",
		attribute.String("student_id", studentID),
		attribute.String("mentor_id", in.MentorID))
	defer func() { tracing.EndSpan(span, err) }()

	start := time.Now()
	ids := errors.IDs{MentorID: in.MentorID, StudentID: studentID}
	if err = validateInput(in, ids); err != nil {
		metrics.RequestsSubmitted.WithLabelValues("invalid").Inc()
		return nil, err
	}

	student, err := s.agg.students.GetByID(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if _, err = s.agg.mentors.GetByID(ctx, in.MentorID); err != nil {
		return nil, err
	}

	unlock, err := s.agg.lockMentor(ctx, in.MentorID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if open := student.Requests.CountPending(in.MentorID, studentID); open > 0 {
		logger.Warn("Student already has pending requests for this mentor",
			zap.String("mentor_id", in.MentorID),
			zap.String("student_id", studentID),
			zap.Int("pending", open))
	}

	req := models.MentorshipRequest{
		ID:          uuid.NewString(),
		StudentID:   studentID,
		MentorID:    in.MentorID,
		Status:      models.RequestPending,
		RequestedAt: s.agg.now(),
		Message:     in.Message,
	}

	updatedStudent, err := s.agg.updateStudent(ctx, studentID, func(st *models.Student) error {
		if !st.AddRequest(req) {
			return errNoChange
		}
		return nil
	})
	if err != nil {
		metrics.RequestsSubmitted.WithLabelValues("error").Inc()
		logger.Error("Failed to record request on student",
			zap.String("mentor_id", in.MentorID),
			zap.String("student_id", studentID),
			zap.Error(err))
		return nil, err
	}

	snapshot := updatedStudent.Snapshot()
	projection := req
	projection.StudentSnapshot = &snapshot

	_, err = s.agg.updateMentor(ctx, in.MentorID, func(m *models.Mentor) error {
		if !m.AddRequest(projection) {
			return errNoChange
		}
		return nil
	})
	if err != nil {
		logger.Warn("Mentor-side request write failed, reconciling",
			zap.String("mentor_id", in.MentorID),
			zap.String("student_id", studentID),
			zap.String("request_id", req.ID),
			zap.Error(err))
		if _, err = s.agg.repairPair(ctx, in.MentorID, studentID); err != nil {
			metrics.RequestsSubmitted.WithLabelValues("conflict").Inc()
			return nil, err
		}
	}

	metrics.RequestsSubmitted.WithLabelValues("success").Inc()
	logger.Info("Mentorship request submitted",
		zap.String("mentor_id", in.MentorID),
		zap.String("student_id", studentID),
		zap.String("request_id", req.ID),
		zap.Duration("duration", time.Since(start)))

	return &projection, nil
}

// Respond accepts or rejects a pending request. Acceptance is refused with
// ErrCapacityExceeded while the mentor has no headroom; the request then stays
// pending. A successful acceptance creates the paired mentorship records.
func (s *RequestService) Respond(ctx context.Context, mentorID, requestID string, in *models.RespondRequestInput) (_ *models.MentorshipRequest, err error) {
	ctx, span := tracing.StartSpan(ctx, "RequestService.Respond",
		attribute.String("mentor_id", mentorID),
		attribute.String("request_id", requestID),
		attribute.String("decision", string(in.Decision)))
	defer func() { tracing.EndSpan(span, err) }()

	decision := string(in.Decision)
	ids := errors.IDs{MentorID: mentorID, RecordID: requestID}
	if err = validateInput(in, ids); err != nil {
		metrics.RequestsResponded.WithLabelValues(decision, "invalid").Inc()
		return nil, err
	}

	unlock, err := s.agg.lockMentor(ctx, mentorID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	mentor, err := s.agg.mentors.GetByID(ctx, mentorID)
	if err != nil {
		return nil, err
	}
	known := mentor.Requests.Find(requestID)
	if known == nil {
		return nil, errors.NotFoundError("request", ids)
	}
	studentID := known.StudentID
	ids.StudentID = studentID

	m, _, err := s.agg.loadPair(ctx, mentorID, studentID)
	if err != nil {
		metrics.RequestsResponded.WithLabelValues(decision, "conflict").Inc()
		return nil, err
	}
	req := m.Requests.Find(requestID)
	if !req.Status.CanTransitionTo(in.Decision) {
		metrics.RequestsResponded.WithLabelValues(decision, "invalid_transition").Inc()
		logger.Warn("Invalid request transition",
			zap.String("mentor_id", mentorID),
			zap.String("request_id", requestID),
			zap.String("from_status", string(req.Status)),
			zap.String("to_status", decision))
		return nil, errors.InvalidTransitionError("request", string(req.Status), decision, ids)
	}

	accepting := in.Decision == models.RequestAccepted
	if accepting && !m.HasHeadroom() {
		return nil, s.capacityExceeded(m, requestID)
	}

	now := s.agg.now()
	ms := models.NewActiveMentorship(requestID, mentorID, studentID, m.MentorshipType(), now)

	_, err = s.agg.updateStudent(ctx, studentID, func(st *models.Student) error {
		if err := st.RespondToRequest(requestID, in.Decision, in.ResponseMessage, now); err != nil {
			return err
		}
		if accepting {
			st.AttachMentorship(ms)
		}
		return nil
	})
	if err != nil {
		metrics.RequestsResponded.WithLabelValues(decision, "error").Inc()
		return nil, err
	}

	_, err = s.agg.updateMentor(ctx, mentorID, func(mt *models.Mentor) error {
		if accepting && !mt.HasHeadroom() {
			return errors.CapacityExceededError(mt.ID, mt.Capacity.CurrentActiveStudents(), mt.Capacity.MaxActiveStudents())
		}
		if err := mt.RespondToRequest(requestID, in.Decision, in.ResponseMessage, now); err != nil {
			return err
		}
		if accepting {
			mt.AttachMentorship(ms)
		}
		return nil
	})
	announced := false
	if err != nil {
		if announced, err = s.recoverMentorWrite(ctx, mentorID, studentID, requestID, decision, err); err != nil {
			return nil, err
		}
	}

	unlock()

	metrics.RequestsResponded.WithLabelValues(decision, "success").Inc()
	logger.Info("Mentorship request answered",
		zap.String("mentor_id", mentorID),
		zap.String("student_id", studentID),
		zap.String("request_id", requestID),
		zap.String("to_status", decision))

	if accepting && !announced {
		s.agg.invalidate(mentorID)
		s.notifier.Notify(ctx, models.Event{
			Type:       models.EventRequestAccepted,
			MentorID:   mentorID,
			StudentID:  studentID,
			RecordID:   requestID,
			OccurredAt: now,
		})
	}

	out := *req
	out.Respond(in.Decision, in.ResponseMessage, now)
	return &out, nil
}

// recoverMentorWrite handles a mentor-side failure after the student side was
// written. A capacity refusal is compensated on the student; anything else is
// repaired by reconciliation, which reports whether it already announced the
// acceptance.
func (s *RequestService) recoverMentorWrite(ctx context.Context, mentorID, studentID, requestID, decision string, writeErr error) (bool, error) {
	if errors.Is(writeErr, errors.ErrCapacityExceeded) {
		metrics.CapacityRejections.Inc()
		_, err := s.agg.updateStudent(ctx, studentID, func(st *models.Student) error {
			if !st.RevertAcceptance(requestID) {
				return errNoChange
			}
			return nil
		})
		if err != nil {
			logger.Error("Failed to compensate student-side acceptance",
				zap.String("mentor_id", mentorID),
				zap.String("student_id", studentID),
				zap.String("request_id", requestID),
				zap.Error(err))
			metrics.RequestsResponded.WithLabelValues(string(models.RequestAccepted), "conflict").Inc()
			return false, errors.ConsistencyConflictError(mentorID, studentID,
				"acceptance of request "+requestID+" could not be undone on the student")
		}
		metrics.RequestsResponded.WithLabelValues(string(models.RequestAccepted), "capacity_exceeded").Inc()
		return false, writeErr
	}

	logger.Warn("Mentor-side response write failed, reconciling",
		zap.String("mentor_id", mentorID),
		zap.String("student_id", studentID),
		zap.String("request_id", requestID),
		zap.Error(writeErr))
	repair, err := s.agg.repairPair(ctx, mentorID, studentID)
	if err != nil {
		metrics.RequestsResponded.WithLabelValues(decision, "conflict").Inc()
		return false, err
	}
	return slices.Contains(repair.Accepted, requestID), nil
}

func (s *RequestService) capacityExceeded(m *models.Mentor, requestID string) error {
	metrics.CapacityRejections.Inc()
	metrics.RequestsResponded.WithLabelValues(string(models.RequestAccepted), "capacity_exceeded").Inc()
	logger.Warn("Mentor has no headroom for another student",
		zap.String("mentor_id", m.ID),
		zap.String("request_id", requestID),
		zap.Int("current", m.Capacity.CurrentActiveStudents()),
		zap.Int("max", m.Capacity.MaxActiveStudents()))
	return errors.CapacityExceededError(m.ID, m.Capacity.CurrentActiveStudents(), m.Capacity.MaxActiveStudents())
}

// GetMentorRequests lists the mentor's request projections, optionally filtered by status
func (s *RequestService) GetMentorRequests(ctx context.Context, mentorID string, statuses []models.RequestStatus) (*models.RequestsResponse, error) {
	if err := checkStatuses(statuses, errors.IDs{MentorID: mentorID}); err != nil {
		return nil, err
	}
	m, err := s.agg.mentors.GetByID(ctx, mentorID)
	if err != nil {
		return nil, err
	}
	requests := m.Requests.WithStatus(statuses...)
	return &models.RequestsResponse{Requests: requests, Total: len(requests)}, nil
}

// GetStudentRequests lists the student's authoritative requests
func (s *RequestService) GetStudentRequests(ctx context.Context, studentID string, statuses []models.RequestStatus) (*models.RequestsResponse, error) {
	if err := checkStatuses(statuses, errors.IDs{StudentID: studentID}); err != nil {
		return nil, err
	}
	st, err := s.agg.students.GetByID(ctx, studentID)
	if err != nil {
		return nil, err
	}
	requests := st.Requests.WithStatus(statuses...)
	return &models.RequestsResponse{Requests: requests, Total: len(requests)}, nil
}

func checkStatuses(statuses []models.RequestStatus, ids errors.IDs) error {
	for _, st := range statuses {
		if !st.IsValid() {
			return errors.ValidationError("status", "unknown request status "+string(st), ids)
		}
	}
	return nil
}
