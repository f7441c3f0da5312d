package services

import (
	"context"
	"time"

	"github.com/getmentor/mentorship-api/internal/models"
	"github.com/getmentor/mentorship-api/pkg/errors"
	"github.com/getmentor/mentorship-api/pkg/logger"
	"github.com/getmentor/mentorship-api/pkg/metrics"
	"github.com/getmentor/mentorship-api/pkg/tracing"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// RelationshipService owns the active mentorship ledger: status transitions
// on both sides, pair reconciliation and capacity counter repair.
type RelationshipService struct {
	agg *Aggregates
}

// NewRelationshipService creates a new RelationshipService
func NewRelationshipService(agg *Aggregates) *RelationshipService {
	return &RelationshipService{agg: agg}
}

// ReconcileSummary reports the outcome of a reconciliation pass
type ReconcileSummary struct {
	Pairs             int `json:"pairs"`
	Repaired          int `json:"repaired"`
	Conflicts         int `json:"conflicts"`
	CountersCorrected int `json:"countersCorrected"`
	Errors            int `json:"errors"`
}

// Transition moves a mentorship to status on both sides. Moving to the current
// status is a no-op; completed is terminal and releases the mentor's slot once.
func (s *RelationshipService) Transition(ctx context.Context, actor models.Actor, mentorshipID string, in *models.TransitionMentorshipInput) (_ *models.ActiveMentorship, err error) {
	ctx, span := tracing.StartSpan(ctx, "RelationshipService.Transition",
		attribute.String("actor_role", string(actor.Role)),
		attribute.String("mentorship_id", mentorshipID),
		attribute.String("to_status", string(in.Status)))
	defer func() { tracing.EndSpan(span, err) }()

	toStatus := string(in.Status)
	ids := errors.IDs{RecordID: mentorshipID}
	if err = validateInput(in, ids); err != nil {
		return nil, err
	}

	mentorID, err := resolveMentor(ctx, s.agg, actor, mentorshipID)
	if err != nil {
		return nil, err
	}
	ids.MentorID = mentorID

	unlock, err := s.agg.lockMentor(ctx, mentorID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	mentor, err := s.agg.mentors.GetByID(ctx, mentorID)
	if err != nil {
		return nil, err
	}
	studentID, err := pairStudent(mentor, actor, mentorshipID)
	if err != nil {
		return nil, err
	}
	ids.StudentID = studentID

	m, _, err := s.agg.loadPair(ctx, mentorID, studentID)
	if err != nil {
		metrics.MentorshipTransitions.WithLabelValues(toStatus, "conflict").Inc()
		return nil, err
	}
	current := m.Mentorships.Find(mentorshipID)
	if current == nil {
		return nil, errors.NotFoundError("mentorship", ids)
	}
	if current.Status == in.Status {
		metrics.MentorshipTransitions.WithLabelValues(toStatus, "noop").Inc()
		out := *current
		return &out, nil
	}
	if !current.Status.CanTransitionTo(in.Status) {
		metrics.MentorshipTransitions.WithLabelValues(toStatus, "invalid_transition").Inc()
		logger.Warn("Invalid mentorship transition",
			zap.String("mentor_id", mentorID),
			zap.String("student_id", studentID),
			zap.String("mentorship_id", mentorshipID),
			zap.String("from_status", string(current.Status)),
			zap.String("to_status", toStatus))
		return nil, errors.InvalidTransitionError("mentorship", string(current.Status), toStatus, ids)
	}

	now := s.agg.now()
	_, err = s.agg.updateStudent(ctx, studentID, func(st *models.Student) error {
		changed, err := st.TransitionMentorship(mentorshipID, in.Status, now)
		if err == nil && !changed {
			return errNoChange
		}
		return err
	})
	if err != nil {
		metrics.MentorshipTransitions.WithLabelValues(toStatus, "error").Inc()
		return nil, err
	}

	updated, err := s.agg.updateMentor(ctx, mentorID, func(mt *models.Mentor) error {
		changed, err := mt.TransitionMentorship(mentorshipID, in.Status, now)
		if err == nil && !changed {
			return errNoChange
		}
		return err
	})
	if err != nil {
		logger.Warn("Mentor-side transition write failed, reconciling",
			zap.String("mentor_id", mentorID),
			zap.String("student_id", studentID),
			zap.String("mentorship_id", mentorshipID),
			zap.Error(err))
		if _, err = s.agg.repairPair(ctx, mentorID, studentID); err != nil {
			metrics.MentorshipTransitions.WithLabelValues(toStatus, "conflict").Inc()
			return nil, err
		}
		if updated, err = s.agg.mentors.GetByID(ctx, mentorID); err != nil {
			return nil, err
		}
	}

	s.agg.invalidate(mentorID)
	metrics.MentorshipTransitions.WithLabelValues(toStatus, "success").Inc()
	logger.Info("Mentorship status changed",
		zap.String("mentor_id", mentorID),
		zap.String("student_id", studentID),
		zap.String("mentorship_id", mentorshipID),
		zap.String("from_status", string(current.Status)),
		zap.String("to_status", toStatus),
		zap.Int("active_students", updated.Capacity.CurrentActiveStudents()))

	result := updated.Mentorships.Find(mentorshipID)
	if result == nil {
		return nil, errors.NotFoundError("mentorship", ids)
	}
	out := *result
	return &out, nil
}

// Reconcile restores symmetry for one pair. A pair that already agrees is not written.
func (s *RelationshipService) Reconcile(ctx context.Context, mentorID, studentID string) (_ models.PairRepair, err error) {
	ctx, span := tracing.StartSpan(ctx, "RelationshipService.Reconcile",
		attribute.String("mentor_id", mentorID),
		attribute.String("student_id", studentID))
	defer func() { tracing.EndSpan(span, err) }()

	unlock, err := s.agg.lockMentor(ctx, mentorID)
	if err != nil {
		return models.PairRepair{}, err
	}
	defer unlock()

	return s.agg.repairPair(ctx, mentorID, studentID)
}

// ReconcileCapacity recounts the mentor's active and paused mentorships and
// rewrites the counter only when it had drifted. It reports whether it wrote.
func (s *RelationshipService) ReconcileCapacity(ctx context.Context, mentorID string) (corrected bool, err error) {
	ctx, span := tracing.StartSpan(ctx, "RelationshipService.ReconcileCapacity",
		attribute.String("mentor_id", mentorID))
	defer func() { tracing.EndSpan(span, err) }()

	unlock, err := s.agg.lockMentor(ctx, mentorID)
	if err != nil {
		return false, err
	}
	defer unlock()

	var before int
	m, err := s.agg.updateMentor(ctx, mentorID, func(mt *models.Mentor) error {
		before = mt.Capacity.CurrentActiveStudents()
		corrected = mt.RecomputeCapacity()
		if !corrected {
			return errNoChange
		}
		return nil
	})
	if err != nil {
		metrics.CapacityRecomputations.WithLabelValues("error").Inc()
		return false, err
	}

	if !corrected {
		metrics.CapacityRecomputations.WithLabelValues("unchanged").Inc()
		return false, nil
	}

	s.agg.invalidate(mentorID)
	metrics.CapacityRecomputations.WithLabelValues("corrected").Inc()
	logger.Warn("Active student counter had drifted",
		zap.String("mentor_id", mentorID),
		zap.Int("stored", before),
		zap.Int("recounted", m.Capacity.CurrentActiveStudents()))
	return true, nil
}

// GetMentorships lists the actor's own side of every mentorship
func (s *RelationshipService) GetMentorships(ctx context.Context, actor models.Actor) ([]models.ActiveMentorship, error) {
	var list models.MentorshipList
	switch actor.Role {
	case models.RoleMentor:
		m, err := s.agg.mentors.GetByID(ctx, actor.ID)
		if err != nil {
			return nil, err
		}
		list = m.Mentorships
	case models.RoleStudent:
		st, err := s.agg.students.GetByID(ctx, actor.ID)
		if err != nil {
			return nil, err
		}
		list = st.Mentorships
	default:
		return nil, errors.ValidationError("role", "unknown role "+string(actor.Role), errors.IDs{})
	}

	out := make([]models.ActiveMentorship, len(list))
	copy(out, list)
	return out, nil
}

// RunReconciliationPass reconciles every pair referenced by any mentor or
// student, then recomputes each mentor's counter. Failures on one pair are
// counted and do not stop the pass.
func (s *RelationshipService) RunReconciliationPass(ctx context.Context) (ReconcileSummary, error) {
	start := time.Now()
	var summary ReconcileSummary

	pairs, err := s.collectPairs(ctx)
	if err != nil {
		return summary, err
	}

	for _, p := range pairs {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		summary.Pairs++
		repair, err := s.Reconcile(ctx, p.mentorID, p.studentID)
		switch {
		case err == nil && repair.Changed():
			summary.Repaired++
		case err == nil:
		case errors.Is(err, errors.ErrConsistencyConflict):
			summary.Conflicts++
		default:
			summary.Errors++
			logger.Error("Failed to reconcile pair",
				zap.String("mentor_id", p.mentorID),
				zap.String("student_id", p.studentID),
				zap.Error(err))
		}
	}

	mentorIDs, err := s.agg.mentors.ListIDs(ctx)
	if err != nil {
		return summary, err
	}
	for _, id := range mentorIDs {
		corrected, err := s.ReconcileCapacity(ctx, id)
		if err != nil {
			summary.Errors++
			continue
		}
		if corrected {
			summary.CountersCorrected++
		}
	}

	logger.Info("Reconciliation pass finished",
		zap.Int("pairs", summary.Pairs),
		zap.Int("repaired", summary.Repaired),
		zap.Int("conflicts", summary.Conflicts),
		zap.Int("counters_corrected", summary.CountersCorrected),
		zap.Int("errors", summary.Errors),
		zap.Duration("duration", time.Since(start)))
	return summary, nil
}

// Start runs a reconciliation pass every interval until ctx is done
func (s *RelationshipService) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		logger.Info("Background reconciliation disabled")
		return
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				logger.Info("Background reconciliation stopped")
				return
			case <-ticker.C:
				if _, err := s.RunReconciliationPass(ctx); err != nil && ctx.Err() == nil {
					logger.Error("Reconciliation pass failed", zap.Error(err))
				}
			}
		}
	}()
}

type pairKey struct {
	mentorID  string
	studentID string
}

// collectPairs gathers every pair referenced from either side, so records
// present only on the student are found as well.
func (s *RelationshipService) collectPairs(ctx context.Context) ([]pairKey, error) {
	seen := make(map[pairKey]bool)
	pairs := make([]pairKey, 0)
	add := func(mentorID, studentID string) {
		k := pairKey{mentorID: mentorID, studentID: studentID}
		if !seen[k] {
			seen[k] = true
			pairs = append(pairs, k)
		}
	}

	mentorIDs, err := s.agg.mentors.ListIDs(ctx)
	if err != nil {
		return nil, err
	}
	for _, id := range mentorIDs {
		m, err := s.agg.mentors.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		for _, r := range m.Requests {
			add(m.ID, r.StudentID)
		}
		for _, ms := range m.Mentorships {
			add(m.ID, ms.StudentID)
		}
	}

	studentIDs, err := s.agg.students.ListIDs(ctx)
	if err != nil {
		return nil, err
	}
	for _, id := range studentIDs {
		st, err := s.agg.students.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		for _, r := range st.Requests {
			add(r.MentorID, st.ID)
		}
		for _, ms := range st.Mentorships {
			add(ms.MentorID, st.ID)
		}
	}
	return pairs, nil
}

// resolveMentor finds the mentor that owns mentorshipID from the actor's side
func resolveMentor(ctx context.Context, agg *Aggregates, actor models.Actor, mentorshipID string) (string, error) {
	switch actor.Role {
	case models.RoleMentor:
		return actor.ID, nil
	case models.RoleStudent:
		st, err := agg.students.GetByID(ctx, actor.ID)
		if err != nil {
			return "", err
		}
		ms := st.Mentorships.Find(mentorshipID)
		if ms == nil {
			return "", errors.NotFoundError("mentorship", errors.IDs{StudentID: actor.ID, RecordID: mentorshipID})
		}
		return ms.MentorID, nil
	default:
		return "", errors.ValidationError("role", "unknown role "+string(actor.Role), errors.IDs{RecordID: mentorshipID})
	}
}

// pairStudent returns the student of a mentor-side mentorship the actor is party to
// A student actor was already matched by resolveMentor, even if the mentor side
// has not caught up yet.
func pairStudent(m *models.Mentor, actor models.Actor, mentorshipID string) (string, error) {
	if actor.IsStudent() {
		return actor.ID, nil
	}
	ms := m.Mentorships.Find(mentorshipID)
	if ms == nil {
		return "", errors.NotFoundError("mentorship", errors.IDs{MentorID: m.ID, RecordID: mentorshipID})
	}
	return ms.StudentID, nil
}
