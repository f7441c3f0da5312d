package services

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/getmentor/mentorship-api/internal/lock"
	"github.com/getmentor/mentorship-api/internal/models"
	"github.com/getmentor/mentorship-api/internal/repository"
	"github.com/getmentor/mentorship-api/pkg/errors"
	"github.com/getmentor/mentorship-api/pkg/logger"
	"github.com/getmentor/mentorship-api/pkg/metrics"
	"github.com/getmentor/mentorship-api/pkg/retry"
	"go.uber.org/zap"
)

// maxSaveAttempts bounds the reload-and-reapply loop on a version conflict
const maxSaveAttempts = 8

// errNoChange is returned by an update callback that found nothing to write
var errNoChange = stderrors.New("no change")

// AggregatesConfig wires the collaborators shared by every service
type AggregatesConfig struct {
	Mentors     repository.MentorRepository
	Students    repository.StudentRepository
	Locker      lock.Locker
	Profiles    ProfileInvalidator
	RepairRetry retry.Config
	// Notifier receives acceptances that only reconciliation completed
	Notifier Notifier
}

// Aggregates loads, mutates and saves mentor and student documents. Every
// cross-aggregate write goes through it: student side first, then mentor side,
// with reconciliation repairing a second write that did not land.
type Aggregates struct {
	mentors  repository.MentorRepository
	students repository.StudentRepository
	locker   lock.Locker
	profiles ProfileInvalidator
	notifier Notifier
	repair   retry.Config
	now      func() time.Time
}

// NewAggregates creates the shared aggregate helper
func NewAggregates(cfg AggregatesConfig) *Aggregates {
	locker := cfg.Locker
	if locker == nil {
		locker = lock.NewLocalLocker()
	}
	repair := cfg.RepairRetry
	if repair.Multiplier == 0 {
		repair = retry.ReconcileConfig(3, 50*time.Millisecond)
	}
	return &Aggregates{
		mentors:  cfg.Mentors,
		students: cfg.Students,
		locker:   locker,
		profiles: cfg.Profiles,
		notifier: orNop(cfg.Notifier),
		repair:   repair,
		now:      time.Now,
	}
}

// SetClock replaces the time source; used by tests and the reconcile command
func (a *Aggregates) SetClock(now func() time.Time) {
	a.now = now
}

func (a *Aggregates) lockMentor(ctx context.Context, mentorID string) (lock.UnlockFunc, error) {
	unlock, err := a.locker.Lock(ctx, lock.MentorKey(mentorID))
	if err != nil {
		return nil, fmt.Errorf("failed to lock mentor %s: %w", mentorID, err)
	}
	return unlock, nil
}

// updateMentor loads the mentor, applies fn and saves it, reapplying fn to a
// fresh copy when the save lost a version race.
func (a *Aggregates) updateMentor(ctx context.Context, mentorID string, fn func(*models.Mentor) error) (*models.Mentor, error) {
	return update(ctx, "mentor", mentorID, a.mentors.GetByID, a.mentors.Save, a.now,
		func(m *models.Mentor, at time.Time) { m.UpdatedAt = at }, fn)
}

// updateStudent is updateMentor for the student aggregate
func (a *Aggregates) updateStudent(ctx context.Context, studentID string, fn func(*models.Student) error) (*models.Student, error) {
	return update(ctx, "student", studentID, a.students.GetByID, a.students.Save, a.now,
		func(s *models.Student, at time.Time) { s.UpdatedAt = at }, fn)
}

func update[T any](
	ctx context.Context,
	resource, id string,
	load func(context.Context, string) (*T, error),
	save func(context.Context, *T) error,
	now func() time.Time,
	stamp func(*T, time.Time),
	fn func(*T) error,
) (*T, error) {
	for attempt := 1; ; attempt++ {
		doc, err := load(ctx, id)
		if err != nil {
			return nil, err
		}

		if err := fn(doc); err != nil {
			if stderrors.Is(err, errNoChange) {
				return doc, nil
			}
			return nil, err
		}

		stamp(doc, now())
		err = save(ctx, doc)
		if err == nil {
			return doc, nil
		}
		if !errors.Is(err, errors.ErrVersionConflict) {
			return nil, fmt.Errorf("failed to save %s: %w", resource, err)
		}
		if attempt >= maxSaveAttempts {
			logger.Error("Gave up saving aggregate after repeated version conflicts",
				zap.String("resource", resource),
				zap.String("id", id),
				zap.Int("attempts", attempt))
			return nil, errors.InternalError(fmt.Sprintf("%s %s kept changing underneath the update", resource, id))
		}
		logger.Debug("Version conflict, reapplying update",
			zap.String("resource", resource),
			zap.String("id", id),
			zap.Int("attempt", attempt))
	}
}

// loadPair loads both sides of a relationship. When the two sides disagree it
// reconciles them first, so callers always decide on symmetric state.
// The mentor lock must be held.
func (a *Aggregates) loadPair(ctx context.Context, mentorID, studentID string) (*models.Mentor, *models.Student, error) {
	m, s, err := a.getPair(ctx, mentorID, studentID)
	if err != nil {
		return nil, nil, err
	}

	preview, err := models.ReconcilePair(m.Clone(), s.Clone())
	if err != nil {
		metrics.Reconciliations.WithLabelValues("conflict").Inc()
		return nil, nil, err
	}
	if !preview.Changed() {
		return m, s, nil
	}

	logger.Warn("Relationship sides diverged, reconciling before update",
		zap.String("mentor_id", mentorID),
		zap.String("student_id", studentID))
	if _, err := a.repairPair(ctx, mentorID, studentID); err != nil {
		return nil, nil, err
	}
	return a.getPair(ctx, mentorID, studentID)
}

func (a *Aggregates) getPair(ctx context.Context, mentorID, studentID string) (*models.Mentor, *models.Student, error) {
	m, err := a.mentors.GetByID(ctx, mentorID)
	if err != nil {
		return nil, nil, err
	}
	s, err := a.students.GetByID(ctx, studentID)
	if err != nil {
		return nil, nil, err
	}
	return m, s, nil
}

// reconcileOnce runs one reconciliation attempt for the pair. A symmetric pair
// performs no writes. The mentor lock must be held.
func (a *Aggregates) reconcileOnce(ctx context.Context, mentorID, studentID string) (models.PairRepair, error) {
	m, s, err := a.getPair(ctx, mentorID, studentID)
	if err != nil {
		return models.PairRepair{}, err
	}

	repair, err := models.ReconcilePair(m, s)
	if err != nil {
		return models.PairRepair{}, err
	}
	if !repair.Changed() {
		return repair, nil
	}

	now := a.now()
	if repair.StudentChanged {
		s.UpdatedAt = now
		if err := a.students.Save(ctx, s); err != nil {
			return models.PairRepair{}, fmt.Errorf("failed to save student during reconciliation: %w", err)
		}
	}
	if repair.MentorChanged {
		m.UpdatedAt = now
		if err := a.mentors.Save(ctx, m); err != nil {
			return models.PairRepair{}, fmt.Errorf("failed to save mentor during reconciliation: %w", err)
		}
	}
	return repair, nil
}

// repairPair reconciles the pair with bounded retries. Exhausting them, or a
// divergence that cannot be resolved, surfaces as a consistency conflict.
// Each request the repair promoted to accepted on the mentor side is announced
// once here. The mentor lock must be held.
func (a *Aggregates) repairPair(ctx context.Context, mentorID, studentID string) (models.PairRepair, error) {
	repair, err := retry.DoWithResult(ctx, a.repair, "reconcile_pair", func() (models.PairRepair, error) {
		r, err := a.reconcileOnce(ctx, mentorID, studentID)
		if errors.Is(err, errors.ErrConsistencyConflict) || errors.Is(err, errors.ErrNotFound) {
			return r, retry.Permanent(err)
		}
		return r, err
	})

	switch {
	case err == nil && repair.Changed():
		metrics.Reconciliations.WithLabelValues("repaired").Inc()
		logger.Info("Relationship reconciled",
			zap.String("mentor_id", mentorID),
			zap.String("student_id", studentID),
			zap.Int("requests", repair.Requests),
			zap.Int("mentorships", repair.Mentorships),
			zap.Int("session_projections", repair.SessionProjected))
		a.invalidate(mentorID)
		a.announceAcceptances(ctx, mentorID, studentID, repair.Accepted)
		return repair, nil
	case err == nil:
		metrics.Reconciliations.WithLabelValues("noop").Inc()
		return repair, nil
	case errors.Is(err, errors.ErrConsistencyConflict):
		metrics.Reconciliations.WithLabelValues("conflict").Inc()
		logger.Error("Relationship needs manual review",
			zap.String("mentor_id", mentorID),
			zap.String("student_id", studentID),
			zap.Error(err))
		return models.PairRepair{}, err
	case errors.Is(err, errors.ErrNotFound):
		metrics.Reconciliations.WithLabelValues("error").Inc()
		return models.PairRepair{}, err
	default:
		metrics.Reconciliations.WithLabelValues("conflict").Inc()
		logger.Error("Reconciliation retries exhausted",
			zap.String("mentor_id", mentorID),
			zap.String("student_id", studentID),
			zap.Error(err))
		return models.PairRepair{}, errors.ConsistencyConflictError(mentorID, studentID,
			"reconciliation did not converge: "+err.Error())
	}
}

func (a *Aggregates) announceAcceptances(ctx context.Context, mentorID, studentID string, requestIDs []string) {
	for _, id := range requestIDs {
		a.notifier.Notify(ctx, models.Event{
			Type:       models.EventRequestAccepted,
			MentorID:   mentorID,
			StudentID:  studentID,
			RecordID:   id,
			OccurredAt: a.now(),
		})
	}
}

func (a *Aggregates) invalidate(mentorID string) {
	if a.profiles != nil {
		a.profiles.Invalidate(mentorID)
	}
}
