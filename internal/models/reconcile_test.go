package models_test

import (
	"testing"
	"time"

	"github.com/getmentor/mentorship-api/internal/models"
	"github.com/getmentor/mentorship-api/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPair(maxStudents int) (*models.Mentor, *models.Student) {
	m := newMentor(maxStudents)
	s := &models.Student{ID: "student-1", Name: "Grace Student", Skills: []string{"go"}}
	return m, s
}

func pendingRequest(id string) models.MentorshipRequest {
	return models.MentorshipRequest{
		ID:          id,
		MentorID:    "mentor-1",
		StudentID:   "student-1",
		Status:      models.RequestPending,
		RequestedAt: baseTime,
		Message:     "please mentor me",
	}
}

func TestReconcilePair_SymmetricIsNoOp(t *testing.T) {
	m, s := newPair(2)
	req := pendingRequest("req-1")
	s.AddRequest(req)
	m.AddRequest(req)
	ms := models.NewActiveMentorship("req-0", m.ID, s.ID, models.MentorshipFree, baseTime)
	m.AttachMentorship(ms)
	s.AttachMentorship(ms)

	repair, err := models.ReconcilePair(m, s)
	require.NoError(t, err)
	assert.False(t, repair.Changed())
}

func TestReconcilePair_RebuildsMissingMentorProjection(t *testing.T) {
	m, s := newPair(2)
	s.AddRequest(pendingRequest("req-1"))

	repair, err := models.ReconcilePair(m, s)
	require.NoError(t, err)
	assert.True(t, repair.MentorChanged)
	assert.False(t, repair.StudentChanged)

	projected := m.Requests.Find("req-1")
	require.NotNil(t, projected)
	require.NotNil(t, projected.StudentSnapshot)
	assert.Equal(t, "Grace Student", projected.StudentSnapshot.Name)
	assert.Equal(t, models.RequestPending, projected.Status)
}

func TestReconcilePair_CompletesHalfAppliedAcceptance(t *testing.T) {
	m, s := newPair(2)
	req := pendingRequest("req-1")
	s.AddRequest(req)
	m.AddRequest(req)

	require.NoError(t, s.RespondToRequest("req-1", models.RequestAccepted, "welcome", baseTime))
	s.AttachMentorship(models.NewActiveMentorship("req-1", m.ID, s.ID, models.MentorshipFree, baseTime))

	repair, err := models.ReconcilePair(m, s)
	require.NoError(t, err)
	assert.True(t, repair.MentorChanged)
	assert.Equal(t, models.RequestAccepted, m.Requests.Find("req-1").Status)
	assert.Equal(t, "welcome", m.Requests.Find("req-1").ResponseMessage)
	assert.True(t, m.HasStudent(s.ID))
	assert.Equal(t, 1, m.Capacity.CurrentActiveStudents())
	assert.Equal(t, []string{"req-1"}, repair.Accepted)

	again, err := models.ReconcilePair(m, s)
	require.NoError(t, err)
	assert.False(t, again.Changed())
	assert.Empty(t, again.Accepted)
}

func TestReconcilePair_StudentAheadOnRejectionIsNotAnAcceptance(t *testing.T) {
	m, s := newPair(2)
	req := pendingRequest("req-1")
	s.AddRequest(req)
	m.AddRequest(req)
	require.NoError(t, s.RespondToRequest("req-1", models.RequestRejected, "full", baseTime))

	repair, err := models.ReconcilePair(m, s)
	require.NoError(t, err)
	assert.Equal(t, models.RequestRejected, m.Requests.Find("req-1").Status)
	assert.Empty(t, repair.Accepted)
}

func TestReconcilePair_UnknownMentorshipStatusFails(t *testing.T) {
	m, s := newPair(2)
	ms := models.NewActiveMentorship("req-1", m.ID, s.ID, models.MentorshipFree, baseTime)
	m.AttachMentorship(ms)
	s.AttachMentorship(ms)

	studentSide := s.Mentorships.Find("req-1")
	studentSide.Status = models.MentorshipStatus("archived")
	studentSide.StatusChangedAt = baseTime.Add(time.Hour)

	_, err := models.ReconcilePair(m, s)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidStateTransition))
}

func TestReconcilePair_NeverRegressesTerminalRequest(t *testing.T) {
	m, s := newPair(2)
	req := pendingRequest("req-1")
	s.AddRequest(req)
	m.AddRequest(req)
	require.NoError(t, m.RespondToRequest("req-1", models.RequestRejected, "full", baseTime))

	repair, err := models.ReconcilePair(m, s)
	require.NoError(t, err)
	assert.True(t, repair.StudentChanged)
	assert.Equal(t, models.RequestRejected, s.Requests.Find("req-1").Status)
	assert.Equal(t, models.RequestRejected, m.Requests.Find("req-1").Status)
}

func TestReconcilePair_AcceptedVersusRejectedConflicts(t *testing.T) {
	m, s := newPair(2)
	req := pendingRequest("req-1")
	s.AddRequest(req)
	m.AddRequest(req)
	require.NoError(t, s.RespondToRequest("req-1", models.RequestAccepted, "", baseTime))
	require.NoError(t, m.RespondToRequest("req-1", models.RequestRejected, "", baseTime))

	_, err := models.ReconcilePair(m, s)
	assert.True(t, errors.Is(err, errors.ErrConsistencyConflict))

	var de *errors.DomainError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "mentor-1", de.MentorID)
	assert.Equal(t, "student-1", de.StudentID)
}

func TestReconcilePair_CompletedDominates(t *testing.T) {
	m, s := newPair(2)
	ms := models.NewActiveMentorship("req-1", m.ID, s.ID, models.MentorshipFree, baseTime)
	m.AttachMentorship(ms)
	s.AttachMentorship(ms)
	_, err := s.TransitionMentorship("req-1", models.MentorshipCompleted, baseTime.Add(time.Hour))
	require.NoError(t, err)

	repair, err := models.ReconcilePair(m, s)
	require.NoError(t, err)
	assert.True(t, repair.MentorChanged)
	assert.Equal(t, models.MentorshipCompleted, m.Mentorships.Find("req-1").Status)
	assert.Equal(t, 0, m.Capacity.CurrentActiveStudents())
}

func TestReconcilePair_PausedVersusActiveUsesLatestChange(t *testing.T) {
	m, s := newPair(2)
	ms := models.NewActiveMentorship("req-1", m.ID, s.ID, models.MentorshipFree, baseTime)
	m.AttachMentorship(ms)
	s.AttachMentorship(ms)

	_, err := m.TransitionMentorship("req-1", models.MentorshipPaused, baseTime.Add(time.Hour))
	require.NoError(t, err)

	repair, err := models.ReconcilePair(m, s)
	require.NoError(t, err)
	assert.True(t, repair.StudentChanged)
	assert.False(t, repair.MentorChanged)
	assert.Equal(t, models.MentorshipPaused, s.Mentorships.Find("req-1").Status)
	assert.Equal(t, 1, m.Capacity.CurrentActiveStudents())
}

func TestReconcilePair_ProjectsSessionFields(t *testing.T) {
	m, s := newPair(2)
	ms := models.NewActiveMentorship("req-1", m.ID, s.ID, models.MentorshipFree, baseTime)
	m.AttachMentorship(ms)
	s.AttachMentorship(ms)
	require.NoError(t, m.ScheduleSession(models.Session{ID: "sess-1", MentorshipID: "req-1", ScheduledAt: baseTime, DurationMinutes: 30}))
	_, err := m.CompleteSession("sess-1", models.CompleteSessionInput{}, baseTime)
	require.NoError(t, err)

	repair, err := models.ReconcilePair(m, s)
	require.NoError(t, err)
	assert.True(t, repair.StudentChanged)
	assert.Equal(t, 1, s.Mentorships.Find("req-1").SessionCount)
	require.NotNil(t, s.Mentorships.Find("req-1").LastSessionDate)
}
