package services

import (
	"context"
	"strconv"
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

// SessionService drives the session lifecycle and its payment axis. Sessions
// live on the mentor aggregate; the student side only carries the derived
// mentorship counters, which are re-projected after every change.
type SessionService struct {
	agg      *Aggregates
	notifier Notifier
}

// NewSessionService creates a new SessionService
func NewSessionService(agg *Aggregates, notifier Notifier) *SessionService {
	return &SessionService{agg: agg, notifier: orNop(notifier)}
}

// sessionChange is applied to the mentor aggregate under the mentor lock
type sessionChange func(m *models.Mentor, now time.Time) (*models.Session, error)

// Schedule adds a scheduled session to an active mentorship the actor belongs to
func (s *SessionService) Schedule(ctx context.Context, actor models.Actor, in *models.ScheduleSessionInput) (_ *models.Session, err error) {
	ctx, span := tracing.StartSpan(ctx, "SessionService.Schedule",
		attribute.String("actor_role", string(actor.Role)),
		attribute.String("mentorship_id", in.MentorshipID))
	defer func() { tracing.EndSpan(span, err) }()

	if err = validateInput(in, errors.IDs{RecordID: in.MentorshipID}); err != nil {
		metrics.SessionTransitions.WithLabelValues(string(models.SessionScheduled), "invalid").Inc()
		return nil, err
	}

	sessionID := uuid.NewString()
	session, err := s.apply(ctx, actor, in.MentorshipID, string(models.SessionScheduled), func(m *models.Mentor, now time.Time) (*models.Session, error) {
		if _, err := partyMentorship(m, actor, in.MentorshipID); err != nil {
			return nil, err
		}
		amount := in.PaymentAmount
		if amount == nil && m.MentorshipType() == models.MentorshipPaid {
			rate := m.SessionRate
			amount = &rate
		}
		if err := m.ScheduleSession(models.Session{
			ID:              sessionID,
			MentorshipID:    in.MentorshipID,
			ScheduledAt:     in.ScheduledAt,
			DurationMinutes: in.DurationMinutes,
			PaymentAmount:   amount,
			CreatedAt:       now,
			UpdatedAt:       now,
		}); err != nil {
			return nil, err
		}
		out := *m.Sessions.Find(sessionID)
		return &out, nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, models.Event{
		Type:       models.EventSessionScheduled,
		MentorID:   session.MentorID,
		StudentID:  session.StudentID,
		RecordID:   session.ID,
		OccurredAt: session.CreatedAt,
	})
	return session, nil
}

// Complete moves a scheduled session to completed. Only the student may rate
// the mentor and only the mentor may rate themselves.
func (s *SessionService) Complete(ctx context.Context, actor models.Actor, mentorshipID, sessionID string, in *models.CompleteSessionInput) (_ *models.Session, err error) {
	ctx, span := tracing.StartSpan(ctx, "SessionService.Complete",
		attribute.String("actor_role", string(actor.Role)),
		attribute.String("session_id", sessionID))
	defer func() { tracing.EndSpan(span, err) }()

	toStatus := string(models.SessionCompleted)
	ids := errors.IDs{RecordID: sessionID}
	if err = validateInput(in, ids); err != nil {
		metrics.SessionTransitions.WithLabelValues(toStatus, "invalid").Inc()
		return nil, err
	}
	if err = checkRatingAuthor(actor, in, ids); err != nil {
		metrics.SessionTransitions.WithLabelValues(toStatus, "invalid").Inc()
		return nil, err
	}

	session, err := s.apply(ctx, actor, mentorshipID, toStatus, func(m *models.Mentor, now time.Time) (*models.Session, error) {
		if err := ownSession(m, actor, mentorshipID, sessionID); err != nil {
			return nil, err
		}
		return m.CompleteSession(sessionID, *in, now)
	})
	if err != nil {
		return nil, err
	}

	if session.StudentRating != nil {
		stars := *session.StudentRating
		metrics.RatingsRecorded.WithLabelValues(strconv.Itoa(stars)).Inc()
		s.notifier.Notify(ctx, models.Event{
			Type:       models.EventRatingRecorded,
			MentorID:   session.MentorID,
			StudentID:  session.StudentID,
			RecordID:   session.ID,
			OccurredAt: session.UpdatedAt,
			Stars:      stars,
		})
	}
	return session, nil
}

// Cancel moves a scheduled session to cancelled. cancelledBy must name the
// actor's own side and a reason is required.
func (s *SessionService) Cancel(ctx context.Context, actor models.Actor, mentorshipID, sessionID string, in *models.CancelSessionInput) (_ *models.Session, err error) {
	ctx, span := tracing.StartSpan(ctx, "SessionService.Cancel",
		attribute.String("actor_role", string(actor.Role)),
		attribute.String("session_id", sessionID))
	defer func() { tracing.EndSpan(span, err) }()

	toStatus := string(models.SessionCancelled)
	if in.CancelledBy.IsValid() && string(in.CancelledBy) != string(actor.Role) {
		metrics.SessionTransitions.WithLabelValues(toStatus, "invalid").Inc()
		return nil, errors.ValidationError("cancelledBy", "must name the cancelling side", errors.IDs{RecordID: sessionID})
	}

	return s.apply(ctx, actor, mentorshipID, toStatus, func(m *models.Mentor, now time.Time) (*models.Session, error) {
		if err := ownSession(m, actor, mentorshipID, sessionID); err != nil {
			return nil, err
		}
		return m.CancelSession(sessionID, in.CancelledBy, in.CancellationReason, now)
	})
}

// MarkNoShow moves a scheduled session to no_show
func (s *SessionService) MarkNoShow(ctx context.Context, actor models.Actor, mentorshipID, sessionID string) (_ *models.Session, err error) {
	ctx, span := tracing.StartSpan(ctx, "SessionService.MarkNoShow",
		attribute.String("actor_role", string(actor.Role)),
		attribute.String("session_id", sessionID))
	defer func() { tracing.EndSpan(span, err) }()

	return s.apply(ctx, actor, mentorshipID, string(models.SessionNoShow), func(m *models.Mentor, now time.Time) (*models.Session, error) {
		if err := ownSession(m, actor, mentorshipID, sessionID); err != nil {
			return nil, err
		}
		return m.MarkNoShow(sessionID, now)
	})
}

// UpdatePayment moves the payment axis of a session. Setting the current
// payment status again writes nothing.
func (s *SessionService) UpdatePayment(ctx context.Context, actor models.Actor, mentorshipID, sessionID string, in *models.UpdatePaymentInput) (_ *models.Session, err error) {
	ctx, span := tracing.StartSpan(ctx, "SessionService.UpdatePayment",
		attribute.String("actor_role", string(actor.Role)),
		attribute.String("session_id", sessionID),
		attribute.String("to_status", string(in.PaymentStatus)))
	defer func() { tracing.EndSpan(span, err) }()

	toStatus := string(in.PaymentStatus)
	ids := errors.IDs{RecordID: sessionID}
	if err = validateInput(in, ids); err != nil {
		metrics.PaymentTransitions.WithLabelValues(toStatus, "invalid").Inc()
		return nil, err
	}

	mentorID, err := resolveMentor(ctx, s.agg, actor, mentorshipID)
	if err != nil {
		return nil, err
	}

	var changed bool
	m, err := s.agg.updateMentor(ctx, mentorID, func(m *models.Mentor) error {
		if err := ownSession(m, actor, mentorshipID, sessionID); err != nil {
			return err
		}
		var err error
		changed, err = m.UpdatePayment(sessionID, in.PaymentStatus, s.agg.now())
		if err == nil && !changed {
			return errNoChange
		}
		return err
	})
	if err != nil {
		status := "error"
		switch {
		case errors.Is(err, errors.ErrPaymentNotApplicable):
			status = "not_applicable"
		case errors.Is(err, errors.ErrInvalidStateTransition):
			status = "invalid_transition"
		}
		metrics.PaymentTransitions.WithLabelValues(toStatus, status).Inc()
		logger.Warn("Payment update refused",
			zap.String("mentor_id", mentorID),
			zap.String("session_id", sessionID),
			zap.String("to_status", toStatus),
			zap.Error(err))
		return nil, err
	}

	if !changed {
		metrics.PaymentTransitions.WithLabelValues(toStatus, "noop").Inc()
	} else {
		metrics.PaymentTransitions.WithLabelValues(toStatus, "success").Inc()
		logger.Info("Session payment updated",
			zap.String("mentor_id", mentorID),
			zap.String("session_id", sessionID),
			zap.String("to_status", toStatus))
	}

	out := *m.Sessions.Find(sessionID)
	return &out, nil
}

// ListSessions returns the sessions of one mentorship, or every session of a
// mentor actor when mentorshipID is empty.
func (s *SessionService) ListSessions(ctx context.Context, actor models.Actor, mentorshipID string) ([]models.Session, error) {
	if mentorshipID == "" {
		if !actor.IsMentor() {
			return nil, errors.ValidationError("mentorshipId", "is required", errors.IDs{StudentID: actor.ID})
		}
		m, err := s.agg.mentors.GetByID(ctx, actor.ID)
		if err != nil {
			return nil, err
		}
		out := make([]models.Session, len(m.Sessions))
		copy(out, m.Sessions)
		return out, nil
	}

	mentorID, err := resolveMentor(ctx, s.agg, actor, mentorshipID)
	if err != nil {
		return nil, err
	}
	m, err := s.agg.mentors.GetByID(ctx, mentorID)
	if err != nil {
		return nil, err
	}
	if _, err := partyMentorship(m, actor, mentorshipID); err != nil {
		return nil, err
	}
	return m.Sessions.ForMentorship(mentorshipID), nil
}

// apply runs change on the mentor under the mentor lock, then re-projects the
// mentorship counters onto the student. A failed projection is left to the
// reconciliation pass.
func (s *SessionService) apply(ctx context.Context, actor models.Actor, mentorshipID, toStatus string, change sessionChange) (*models.Session, error) {
	mentorID, err := resolveMentor(ctx, s.agg, actor, mentorshipID)
	if err != nil {
		metrics.SessionTransitions.WithLabelValues(toStatus, "not_found").Inc()
		return nil, err
	}

	unlock, err := s.agg.lockMentor(ctx, mentorID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var session *models.Session
	_, err = s.agg.updateMentor(ctx, mentorID, func(m *models.Mentor) error {
		var err error
		session, err = change(m, s.agg.now())
		return err
	})
	if err != nil {
		metrics.SessionTransitions.WithLabelValues(toStatus, sessionErrorLabel(err)).Inc()
		logger.Warn("Session change refused",
			zap.String("mentor_id", mentorID),
			zap.String("mentorship_id", mentorshipID),
			zap.String("to_status", toStatus),
			zap.Error(err))
		return nil, err
	}

	if _, err := s.agg.reconcileOnce(ctx, mentorID, session.StudentID); err != nil {
		logger.Warn("Session counters not yet projected to student",
			zap.String("mentor_id", mentorID),
			zap.String("student_id", session.StudentID),
			zap.String("session_id", session.ID),
			zap.Error(err))
	}

	if session.StudentRating != nil {
		s.agg.invalidate(mentorID)
	}

	metrics.SessionTransitions.WithLabelValues(toStatus, "success").Inc()
	logger.Info("Session status changed",
		zap.String("mentor_id", mentorID),
		zap.String("student_id", session.StudentID),
		zap.String("session_id", session.ID),
		zap.String("to_status", toStatus))
	return session, nil
}

func sessionErrorLabel(err error) string {
	switch {
	case errors.Is(err, errors.ErrValidation):
		return "invalid"
	case errors.Is(err, errors.ErrInvalidStateTransition):
		return "invalid_transition"
	case errors.Is(err, errors.ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}

// partyMentorship returns the mentor-side mentorship when the actor is one of its parties
func partyMentorship(m *models.Mentor, actor models.Actor, mentorshipID string) (*models.ActiveMentorship, error) {
	ms := m.Mentorships.Find(mentorshipID)
	if ms == nil || (actor.IsStudent() && ms.StudentID != actor.ID) {
		return nil, errors.NotFoundError("mentorship", errors.IDs{MentorID: m.ID, RecordID: mentorshipID})
	}
	return ms, nil
}

// ownSession checks that sessionID belongs to mentorshipID and the actor is a party to it
func ownSession(m *models.Mentor, actor models.Actor, mentorshipID, sessionID string) error {
	if _, err := partyMentorship(m, actor, mentorshipID); err != nil {
		return err
	}
	session := m.Sessions.Find(sessionID)
	if session == nil || session.MentorshipID != mentorshipID {
		return errors.NotFoundError("session", errors.IDs{MentorID: m.ID, RecordID: sessionID})
	}
	return nil
}

func checkRatingAuthor(actor models.Actor, in *models.CompleteSessionInput, ids errors.IDs) error {
	if actor.IsStudent() && in.MentorSelfRating != nil {
		return errors.ValidationError("mentorSelfRating", "can only be set by the mentor", ids)
	}
	if actor.IsMentor() {
		if in.StudentRating != nil {
			return errors.ValidationError("studentRating", "can only be set by the student", ids)
		}
		if in.CategoryRatings != nil {
			return errors.ValidationError("categoryRatings", "can only be set by the student", ids)
		}
		if in.StudentFeedback != "" {
			return errors.ValidationError("studentFeedback", "can only be set by the student", ids)
		}
	}
	return nil
}
