package models

import (
	"strings"
	"time"

	"github.com/getmentor/mentorship-api/pkg/errors"
)

// Mentor is the root aggregate for a mentor. It owns the mentor-side
// projections of requests and mentorships, all sessions, the reputation
// aggregate and the capacity counter.
type Mentor struct {
	ID          string          `json:"id"`
	Email       string          `json:"email"`
	Name        string          `json:"name"`
	Headline    string          `json:"headline"`
	Expertise   []string        `json:"expertise"`
	SessionRate float64         `json:"sessionRate"`
	Capacity    Capacity        `json:"capacity"`
	Reputation  Reputation      `json:"reputation"`
	Requests    RequestList     `json:"requests"`
	Mentorships MentorshipList  `json:"mentorships"`
	Sessions    SessionList     `json:"sessions"`
	Security    AccountSecurity `json:"security"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`

	// Version is the optimistic concurrency token maintained by the store
	Version int64 `json:"-"`
}

// Clone returns a copy whose slices can be mutated without touching m.
// Pointer fields on sub-records are replaced, never written through, so they are shared.
func (m *Mentor) Clone() *Mentor {
	c := *m
	c.Expertise = append([]string(nil), m.Expertise...)
	c.Requests = append(RequestList(nil), m.Requests...)
	c.Mentorships = append(MentorshipList(nil), m.Mentorships...)
	c.Sessions = append(SessionList(nil), m.Sessions...)
	return &c
}

// Account exposes the embedded security record
func (m *Mentor) Account() *AccountSecurity {
	return &m.Security
}

// HasHeadroom reports whether the mentor can take another active student
func (m *Mentor) HasHeadroom() bool {
	return m.Capacity.HasHeadroom()
}

// HasStudent is a local lookup for an active mentorship with studentID.
// It can observe transient asymmetry with the student aggregate.
func (m *Mentor) HasStudent(studentID string) bool {
	return m.Mentorships.HasActive(m.ID, studentID)
}

// MentorshipType derives free or paid from the session rate
func (m *Mentor) MentorshipType() MentorshipType {
	if m.SessionRate > 0 {
		return MentorshipPaid
	}
	return MentorshipFree
}

// AddRequest appends a request projection; an existing ID is left alone
func (m *Mentor) AddRequest(req MentorshipRequest) bool {
	if m.Requests.Find(req.ID) != nil {
		return false
	}
	m.Requests = append(m.Requests, req)
	return true
}

// RespondToRequest moves a pending request projection to decision
func (m *Mentor) RespondToRequest(requestID string, decision RequestStatus, responseMessage string, at time.Time) error {
	return respondToRequest(m.Requests, requestID, decision, responseMessage, at)
}

// AttachMentorship adds the mentor-side record and counts it against capacity.
// It returns false when a record with the same ID is already present.
func (m *Mentor) AttachMentorship(ms ActiveMentorship) bool {
	if m.Mentorships.Find(ms.ID) != nil {
		return false
	}
	m.Mentorships = append(m.Mentorships, ms)
	if ms.Status.OccupiesSlot() {
		m.Capacity.increment()
	}
	return true
}

// TransitionMentorship changes the status of a mentor-side record. Moving into
// completed releases the slot; moving to the current status changes nothing.
func (m *Mentor) TransitionMentorship(mentorshipID string, newStatus MentorshipStatus, at time.Time) (bool, error) {
	old, changed, err := transitionMentorship(m.Mentorships, mentorshipID, newStatus, at)
	if err != nil || !changed {
		return changed, err
	}
	if old.OccupiesSlot() && !newStatus.OccupiesSlot() {
		m.Capacity.decrement()
	}
	return true, nil
}

// RecomputeCapacity resets the counter from mentor-side records in active or
// paused status. It returns true when the stored value was wrong.
func (m *Mentor) RecomputeCapacity() bool {
	n := m.Mentorships.CountOccupyingSlots()
	if n == m.Capacity.current {
		return false
	}
	m.Capacity.current = n
	return true
}

// SetMaxActiveStudents changes the limit without touching the counter
func (m *Mentor) SetMaxActiveStudents(n int) {
	m.Capacity.max = n
}

// ScheduleSession appends a scheduled session to an active mentorship
func (m *Mentor) ScheduleSession(s Session) error {
	ms := m.Mentorships.Find(s.MentorshipID)
	if ms == nil {
		return errors.NotFoundError("mentorship", errors.IDs{MentorID: m.ID, RecordID: s.MentorshipID})
	}
	if ms.Status != MentorshipActive {
		return errors.InvalidTransitionError("mentorship", string(ms.Status), "session_scheduled",
			errors.IDs{MentorID: m.ID, StudentID: ms.StudentID, RecordID: ms.ID})
	}
	if s.DurationMinutes <= 0 {
		return errors.ValidationError("durationMinutes", "must be positive", errors.IDs{MentorID: m.ID, RecordID: s.ID})
	}

	s.MentorID = m.ID
	s.StudentID = ms.StudentID
	s.Status = SessionScheduled
	s.PaymentStatus = PaymentPending
	m.Sessions = append(m.Sessions, s)
	ms.NextSessionDate = m.Sessions.NextScheduled(ms.ID)
	return nil
}

// CompleteSession moves a scheduled session to completed. The parent
// mentorship's counters are updated and, when a student rating is present,
// the rating is folded into the reputation aggregate.
func (m *Mentor) CompleteSession(sessionID string, in CompleteSessionInput, at time.Time) (*Session, error) {
	s, ms, err := m.scheduledSession(sessionID, SessionCompleted)
	if err != nil {
		return nil, err
	}
	ids := errors.IDs{MentorID: m.ID, StudentID: s.StudentID, RecordID: s.ID}

	if in.StudentRating != nil && !validRating(*in.StudentRating) {
		return nil, errors.ValidationError("studentRating", "must be between 1 and 5", ids)
	}
	if in.MentorSelfRating != nil && !validRating(*in.MentorSelfRating) {
		return nil, errors.ValidationError("mentorSelfRating", "must be between 1 and 5", ids)
	}
	if in.CategoryRatings != nil {
		if in.StudentRating == nil {
			return nil, errors.ValidationError("categoryRatings", "requires studentRating", ids)
		}
		if err := in.CategoryRatings.Validate(); err != nil {
			return nil, errors.ValidationError("categoryRatings", err.Error(), ids)
		}
	}

	if in.StudentRating != nil {
		category := UniformCategoryRatings(*in.StudentRating)
		if in.CategoryRatings != nil {
			category = *in.CategoryRatings
		}
		if err := m.Reputation.RecordRating(*in.StudentRating, category); err != nil {
			return nil, errors.ValidationError("studentRating", err.Error(), ids)
		}
	}

	completedAt := at
	s.Status = SessionCompleted
	s.StudentRating = in.StudentRating
	s.StudentFeedback = in.StudentFeedback
	s.MentorSelfRating = in.MentorSelfRating
	s.CompletedAt = &completedAt
	s.UpdatedAt = at

	last := s.ScheduledAt
	ms.SessionCount++
	ms.LastSessionDate = &last
	ms.NextSessionDate = m.Sessions.NextScheduled(ms.ID)

	out := *s
	return &out, nil
}

// CancelSession moves a scheduled session to cancelled. Both the cancelling
// side and a reason are required.
func (m *Mentor) CancelSession(sessionID string, by CancelledBy, reason string, at time.Time) (*Session, error) {
	s, ms, err := m.scheduledSession(sessionID, SessionCancelled)
	if err != nil {
		return nil, err
	}
	ids := errors.IDs{MentorID: m.ID, StudentID: s.StudentID, RecordID: s.ID}
	if !by.IsValid() {
		return nil, errors.ValidationError("cancelledBy", "must be mentor or student", ids)
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, errors.ValidationError("cancellationReason", "is required", ids)
	}

	s.Status = SessionCancelled
	s.CancelledBy = by
	s.CancellationReason = reason
	s.UpdatedAt = at
	ms.NextSessionDate = m.Sessions.NextScheduled(ms.ID)

	out := *s
	return &out, nil
}

// MarkNoShow moves a scheduled session to no_show
func (m *Mentor) MarkNoShow(sessionID string, at time.Time) (*Session, error) {
	s, ms, err := m.scheduledSession(sessionID, SessionNoShow)
	if err != nil {
		return nil, err
	}
	s.Status = SessionNoShow
	s.UpdatedAt = at
	ms.NextSessionDate = m.Sessions.NextScheduled(ms.ID)

	out := *s
	return &out, nil
}

// UpdatePayment moves the payment axis of a session. Setting the current
// status again is a no-op and returns false.
func (m *Mentor) UpdatePayment(sessionID string, newStatus PaymentStatus, at time.Time) (bool, error) {
	s := m.Sessions.Find(sessionID)
	if s == nil {
		return false, errors.NotFoundError("session", errors.IDs{MentorID: m.ID, RecordID: sessionID})
	}
	ids := errors.IDs{MentorID: m.ID, StudentID: s.StudentID, RecordID: s.ID}
	if !newStatus.IsValid() {
		return false, errors.ValidationError("paymentStatus", "unknown payment status "+string(newStatus), ids)
	}
	if newStatus == PaymentCompleted && !s.Status.AcceptsPayment() {
		return false, errors.PaymentNotApplicableError(m.ID, s.ID, string(s.Status))
	}
	if s.PaymentStatus == newStatus {
		return false, nil
	}
	if !s.PaymentStatus.CanTransitionTo(newStatus) {
		return false, errors.InvalidTransitionError("payment", string(s.PaymentStatus), string(newStatus), ids)
	}

	s.PaymentStatus = newStatus
	s.UpdatedAt = at
	return true, nil
}

func (m *Mentor) scheduledSession(sessionID string, to SessionStatus) (*Session, *ActiveMentorship, error) {
	s := m.Sessions.Find(sessionID)
	if s == nil {
		return nil, nil, errors.NotFoundError("session", errors.IDs{MentorID: m.ID, RecordID: sessionID})
	}
	if !s.Status.CanTransitionTo(to) {
		return nil, nil, errors.InvalidTransitionError("session", string(s.Status), string(to),
			errors.IDs{MentorID: m.ID, StudentID: s.StudentID, RecordID: s.ID})
	}
	ms := m.Mentorships.Find(s.MentorshipID)
	if ms == nil {
		return nil, nil, errors.NotFoundError("mentorship", errors.IDs{MentorID: m.ID, StudentID: s.StudentID, RecordID: s.MentorshipID})
	}
	return s, ms, nil
}

// Profile returns the public view of the mentor
func (m *Mentor) Profile() MentorProfile {
	return MentorProfile{
		ID:                    m.ID,
		Name:                  m.Name,
		Headline:              m.Headline,
		Expertise:             m.Expertise,
		SessionRate:           m.SessionRate,
		MaxActiveStudents:     m.Capacity.MaxActiveStudents(),
		CurrentActiveStudents: m.Capacity.CurrentActiveStudents(),
		Reputation:            m.Reputation.View(),
	}
}

// MentorProfile is the public API response format for a mentor
type MentorProfile struct {
	ID                    string         `json:"id"`
	Name                  string         `json:"name"`
	Headline              string         `json:"headline"`
	Expertise             []string       `json:"expertise"`
	SessionRate           float64        `json:"sessionRate"`
	MaxActiveStudents     int            `json:"maxActiveStudents"`
	CurrentActiveStudents int            `json:"currentActiveStudents"`
	Reputation            ReputationView `json:"reputation"`
}

// RegisterMentorInput is the payload to create a mentor account
type RegisterMentorInput struct {
	Email             string   `json:"email" binding:"required,email" validate:"required,email"`
	Password          string   `json:"password" binding:"required,max=72" validate:"required,max=72"`
	Name              string   `json:"name" binding:"required,min=2,max=100" validate:"required,min=2,max=100"`
	Headline          string   `json:"headline" binding:"max=200" validate:"max=200"`
	Expertise         []string `json:"expertise" binding:"max=20" validate:"max=20"`
	SessionRate       float64  `json:"sessionRate" binding:"gte=0" validate:"gte=0"`
	MaxActiveStudents int      `json:"maxActiveStudents" binding:"required,min=1,max=100" validate:"required,min=1,max=100"`
}

func validRating(v int) bool {
	return v >= MinRating && v <= MaxRating
}

func respondToRequest(list RequestList, requestID string, decision RequestStatus, responseMessage string, at time.Time) error {
	req := list.Find(requestID)
	if req == nil {
		return errors.NotFoundError("request", errors.IDs{RecordID: requestID})
	}
	if !req.Status.CanTransitionTo(decision) {
		return errors.InvalidTransitionError("request", string(req.Status), string(decision),
			errors.IDs{MentorID: req.MentorID, StudentID: req.StudentID, RecordID: req.ID})
	}
	req.Respond(decision, responseMessage, at)
	return nil
}

func transitionMentorship(list MentorshipList, mentorshipID string, newStatus MentorshipStatus, at time.Time) (MentorshipStatus, bool, error) {
	ms := list.Find(mentorshipID)
	if ms == nil {
		return "", false, errors.NotFoundError("mentorship", errors.IDs{RecordID: mentorshipID})
	}
	old := ms.Status
	if old == newStatus {
		return old, false, nil
	}
	if !old.CanTransitionTo(newStatus) {
		return old, false, errors.InvalidTransitionError("mentorship", string(old), string(newStatus),
			errors.IDs{MentorID: ms.MentorID, StudentID: ms.StudentID, RecordID: ms.ID})
	}
	ms.Status = newStatus
	ms.StatusChangedAt = at
	return old, true, nil
}
