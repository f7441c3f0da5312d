package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/getmentor/mentorship-api/internal/models"
	"github.com/getmentor/mentorship-api/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (f *fixture) schedule(t *testing.T, actor models.Actor, mentorshipID string, in time.Duration) *models.Session {
	t.Helper()
	s, err := f.sessions.Schedule(context.Background(), actor, &models.ScheduleSessionInput{
		MentorshipID:    mentorshipID,
		ScheduledAt:     f.clock().Add(in),
		DurationMinutes: 60,
	})
	require.NoError(t, err)
	return s
}

func TestSessionService_Schedule(t *testing.T) {
	f := newFixture(t)
	id := f.activePair(t, "m1", "s1", 1)

	s := f.schedule(t, studentActor("s1"), id, 24*time.Hour)
	assert.Equal(t, models.SessionScheduled, s.Status)
	assert.Equal(t, models.PaymentPending, s.PaymentStatus)
	assert.Equal(t, "s1", s.StudentID)
	assert.Nil(t, s.PaymentAmount)

	next := f.student(t, "s1").Mentorships.Find(id).NextSessionDate
	require.NotNil(t, next)
	assert.True(t, next.Equal(s.ScheduledAt))
	assert.Len(t, f.notifier.ofType(models.EventSessionScheduled), 1)
}

func TestSessionService_Schedule_PaidDefaultsToRate(t *testing.T) {
	f := newFixture(t)
	f.addMentor(t, "m1", 1, 80)
	f.addStudent(t, "s1")
	id := f.submit(t, "s1", "m1")
	require.NoError(t, f.respond("m1", id, models.RequestAccepted))

	s := f.schedule(t, mentorActor("m1"), id, time.Hour)
	require.NotNil(t, s.PaymentAmount)
	assert.InDelta(t, 80.0, *s.PaymentAmount, 0.001)
}

func TestSessionService_Schedule_PausedMentorship(t *testing.T) {
	f := newFixture(t)
	id := f.activePair(t, "m1", "s1", 1)
	_, err := transition(f, mentorActor("m1"), id, models.MentorshipPaused)
	require.NoError(t, err)

	_, err = f.sessions.Schedule(context.Background(), mentorActor("m1"), &models.ScheduleSessionInput{
		MentorshipID:    id,
		ScheduledAt:     f.clock().Add(time.Hour),
		DurationMinutes: 30,
	})
	assert.True(t, errors.Is(err, errors.ErrInvalidStateTransition))
	assert.Empty(t, f.notifier.ofType(models.EventSessionScheduled))
}

func TestSessionService_CompleteWithRating(t *testing.T) {
	f := newFixture(t)
	id := f.activePair(t, "m1", "s1", 1)
	s := f.schedule(t, mentorActor("m1"), id, time.Hour)

	out, err := f.sessions.Complete(context.Background(), studentActor("s1"), id, s.ID, &models.CompleteSessionInput{
		StudentRating:   intPtr(4),
		StudentFeedback: "Very practical advice",
	})
	require.NoError(t, err)
	assert.Equal(t, models.SessionCompleted, out.Status)
	require.NotNil(t, out.CompletedAt)

	m := f.mentor(t, "m1")
	assert.Equal(t, 1, m.Reputation.TotalRatings())
	assert.InDelta(t, 4.0, m.Reputation.OverallRating(), 0.001)
	assert.Equal(t, 1, m.Mentorships.Find(id).SessionCount)

	stSide := f.student(t, "s1").Mentorships.Find(id)
	assert.Equal(t, 1, stSide.SessionCount)
	require.NotNil(t, stSide.LastSessionDate)
	assert.Nil(t, stSide.NextSessionDate)

	events := f.notifier.ofType(models.EventRatingRecorded)
	require.Len(t, events, 1)
	assert.Equal(t, 4, events[0].Stars)

	_, err = f.sessions.Complete(context.Background(), studentActor("s1"), id, s.ID, &models.CompleteSessionInput{})
	assert.True(t, errors.Is(err, errors.ErrInvalidStateTransition))
	assert.Equal(t, 1, f.mentor(t, "m1").Mentorships.Find(id).SessionCount)
	assert.Equal(t, 1, f.mentor(t, "m1").Reputation.TotalRatings())
}

func TestSessionService_Complete_RatingAuthor(t *testing.T) {
	f := newFixture(t)
	id := f.activePair(t, "m1", "s1", 1)
	s := f.schedule(t, mentorActor("m1"), id, time.Hour)
	ctx := context.Background()

	_, err := f.sessions.Complete(ctx, mentorActor("m1"), id, s.ID, &models.CompleteSessionInput{StudentRating: intPtr(5)})
	assert.True(t, errors.Is(err, errors.ErrValidation))

	_, err = f.sessions.Complete(ctx, studentActor("s1"), id, s.ID, &models.CompleteSessionInput{MentorSelfRating: intPtr(5)})
	assert.True(t, errors.Is(err, errors.ErrValidation))

	_, err = f.sessions.Complete(ctx, studentActor("s1"), id, s.ID, &models.CompleteSessionInput{StudentRating: intPtr(6)})
	assert.True(t, errors.Is(err, errors.ErrValidation))

	m := f.mentor(t, "m1")
	assert.Equal(t, models.SessionScheduled, m.Sessions.Find(s.ID).Status)
	assert.Zero(t, m.Reputation.TotalRatings())

	out, err := f.sessions.Complete(ctx, mentorActor("m1"), id, s.ID, &models.CompleteSessionInput{MentorSelfRating: intPtr(3)})
	require.NoError(t, err)
	require.NotNil(t, out.MentorSelfRating)
	assert.Equal(t, 3, *out.MentorSelfRating)
	assert.Empty(t, f.notifier.ofType(models.EventRatingRecorded))
}

func TestSessionService_Cancel(t *testing.T) {
	f := newFixture(t)
	id := f.activePair(t, "m1", "s1", 1)
	s := f.schedule(t, mentorActor("m1"), id, time.Hour)
	ctx := context.Background()

	_, err := f.sessions.Cancel(ctx, studentActor("s1"), id, s.ID, &models.CancelSessionInput{
		CancelledBy: models.CancelledByStudent,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrValidation))
	assert.Equal(t, models.SessionScheduled, f.mentor(t, "m1").Sessions.Find(s.ID).Status)

	_, err = f.sessions.Cancel(ctx, studentActor("s1"), id, s.ID, &models.CancelSessionInput{
		CancelledBy:        models.CancelledByMentor,
		CancellationReason: "conflict",
	})
	assert.True(t, errors.Is(err, errors.ErrValidation))

	out, err := f.sessions.Cancel(ctx, studentActor("s1"), id, s.ID, &models.CancelSessionInput{
		CancelledBy:        models.CancelledByStudent,
		CancellationReason: "Exam moved to the same day",
	})
	require.NoError(t, err)
	assert.Equal(t, models.SessionCancelled, out.Status)
	assert.Equal(t, models.CancelledByStudent, out.CancelledBy)
	assert.Zero(t, f.mentor(t, "m1").Mentorships.Find(id).SessionCount)
	assert.Nil(t, f.student(t, "s1").Mentorships.Find(id).NextSessionDate)
}

func TestSessionService_MarkNoShow(t *testing.T) {
	f := newFixture(t)
	id := f.activePair(t, "m1", "s1", 1)
	s := f.schedule(t, mentorActor("m1"), id, time.Hour)

	out, err := f.sessions.MarkNoShow(context.Background(), mentorActor("m1"), id, s.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionNoShow, out.Status)

	_, err = f.sessions.MarkNoShow(context.Background(), mentorActor("m1"), id, s.ID)
	assert.True(t, errors.Is(err, errors.ErrInvalidStateTransition))
}

func TestSessionService_UpdatePayment(t *testing.T) {
	f := newFixture(t)
	f.addMentor(t, "m1", 1, 40)
	f.addStudent(t, "s1")
	id := f.submit(t, "s1", "m1")
	require.NoError(t, f.respond("m1", id, models.RequestAccepted))
	ctx := context.Background()
	pay := func(sessionID string, status models.PaymentStatus) (*models.Session, error) {
		return f.sessions.UpdatePayment(ctx, mentorActor("m1"), id, sessionID, &models.UpdatePaymentInput{PaymentStatus: status})
	}

	paid := f.schedule(t, mentorActor("m1"), id, time.Hour)
	out, err := pay(paid.ID, models.PaymentCompleted)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentCompleted, out.PaymentStatus)
	assert.Equal(t, models.SessionScheduled, out.Status)

	before := f.writes()
	_, err = pay(paid.ID, models.PaymentCompleted)
	require.NoError(t, err)
	assert.Equal(t, before, f.writes())

	out, err = pay(paid.ID, models.PaymentRefunded)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentRefunded, out.PaymentStatus)

	_, err = pay(paid.ID, models.PaymentPending)
	assert.True(t, errors.Is(err, errors.ErrInvalidStateTransition))

	cancelled := f.schedule(t, mentorActor("m1"), id, 2*time.Hour)
	_, err = f.sessions.Cancel(ctx, mentorActor("m1"), id, cancelled.ID, &models.CancelSessionInput{
		CancelledBy:        models.CancelledByMentor,
		CancellationReason: "Travelling",
	})
	require.NoError(t, err)

	_, err = pay(cancelled.ID, models.PaymentCompleted)
	assert.True(t, errors.Is(err, errors.ErrPaymentNotApplicable))

	out, err = pay(cancelled.ID, models.PaymentFailed)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentFailed, out.PaymentStatus)
}

func TestSessionService_ListSessions(t *testing.T) {
	f := newFixture(t)
	id := f.activePair(t, "m1", "s1", 2)
	f.addStudent(t, "s2")
	f.schedule(t, mentorActor("m1"), id, time.Hour)
	f.schedule(t, studentActor("s1"), id, 2*time.Hour)
	ctx := context.Background()

	all, err := f.sessions.ListSessions(ctx, mentorActor("m1"), "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	forPair, err := f.sessions.ListSessions(ctx, studentActor("s1"), id)
	require.NoError(t, err)
	assert.Len(t, forPair, 2)

	_, err = f.sessions.ListSessions(ctx, studentActor("s2"), id)
	assert.True(t, errors.Is(err, errors.ErrNotFound))

	_, err = f.sessions.ListSessions(ctx, studentActor("s1"), "")
	assert.True(t, errors.Is(err, errors.ErrValidation))
}
