package models

import (
	"time"
)

// MentorshipStatus represents the status of an active mentorship pair
type MentorshipStatus string

const (
	MentorshipActive    MentorshipStatus = "active"
	MentorshipPaused    MentorshipStatus = "paused"
	MentorshipCompleted MentorshipStatus = "completed"
)

// IsValid reports whether s is a known mentorship status
func (s MentorshipStatus) IsValid() bool {
	return s == MentorshipActive || s == MentorshipPaused || s == MentorshipCompleted
}

// IsTerminalStatus returns true for completed
func (s MentorshipStatus) IsTerminalStatus() bool {
	return s == MentorshipCompleted
}

// OccupiesSlot reports whether a mentorship in this status counts toward mentor capacity
func (s MentorshipStatus) OccupiesSlot() bool {
	return s == MentorshipActive || s == MentorshipPaused
}

// CanTransitionTo checks if a status transition is valid. Same-status moves are
// handled by callers as no-ops and are not transitions.
func (s MentorshipStatus) CanTransitionTo(newStatus MentorshipStatus) bool {
	switch s {
	case MentorshipActive:
		return newStatus == MentorshipPaused || newStatus == MentorshipCompleted
	case MentorshipPaused:
		return newStatus == MentorshipActive || newStatus == MentorshipCompleted
	default:
		return false
	}
}

func (s MentorshipStatus) rank() int {
	if s == MentorshipCompleted {
		return 1
	}
	return 0
}

// MentorshipType distinguishes free and paid relationships
type MentorshipType string

const (
	MentorshipFree MentorshipType = "free"
	MentorshipPaid MentorshipType = "paid"
)

// ActiveMentorship is one side's copy of an accepted mentor-student pair.
// ID equals the ID of the request whose acceptance created it.
type ActiveMentorship struct {
	ID                  string           `json:"id"`
	MentorID            string           `json:"mentorId"`
	StudentID           string           `json:"studentId"`
	RelationshipStarted time.Time        `json:"relationshipStarted"`
	SessionCount        int              `json:"sessionCount"`
	LastSessionDate     *time.Time       `json:"lastSessionDate,omitempty"`
	NextSessionDate     *time.Time       `json:"nextSessionDate,omitempty"`
	MentorshipType      MentorshipType   `json:"mentorshipType"`
	Status              MentorshipStatus `json:"status"`
	StatusChangedAt     time.Time        `json:"statusChangedAt"`
}

// NewActiveMentorship builds the record created by an accepted request
func NewActiveMentorship(requestID, mentorID, studentID string, kind MentorshipType, at time.Time) ActiveMentorship {
	return ActiveMentorship{
		ID:                  requestID,
		MentorID:            mentorID,
		StudentID:           studentID,
		RelationshipStarted: at,
		MentorshipType:      kind,
		Status:              MentorshipActive,
		StatusChangedAt:     at,
	}
}

// sameSessionFields reports whether the mentor-owned session counters match
func (m ActiveMentorship) sameSessionFields(other ActiveMentorship) bool {
	return m.SessionCount == other.SessionCount &&
		timePtrEqual(m.LastSessionDate, other.LastSessionDate) &&
		timePtrEqual(m.NextSessionDate, other.NextSessionDate)
}

// MentorshipList is one aggregate's local collection of mentorships
type MentorshipList []ActiveMentorship

// Find returns a pointer into the list, or nil
func (l MentorshipList) Find(id string) *ActiveMentorship {
	for i := range l {
		if l[i].ID == id {
			return &l[i]
		}
	}
	return nil
}

// Latest returns the most recently started mentorship for the pair, or nil
func (l MentorshipList) Latest(mentorID, studentID string) *ActiveMentorship {
	var latest *ActiveMentorship
	for i := range l {
		m := &l[i]
		if m.MentorID != mentorID || m.StudentID != studentID {
			continue
		}
		if latest == nil || m.RelationshipStarted.After(latest.RelationshipStarted) {
			latest = m
		}
	}
	return latest
}

// HasActive reports whether an active record exists for the pair
func (l MentorshipList) HasActive(mentorID, studentID string) bool {
	for _, m := range l {
		if m.MentorID == mentorID && m.StudentID == studentID && m.Status == MentorshipActive {
			return true
		}
	}
	return false
}

// ForPair returns all mentorships between mentorID and studentID
func (l MentorshipList) ForPair(mentorID, studentID string) []ActiveMentorship {
	out := make([]ActiveMentorship, 0)
	for _, m := range l {
		if m.MentorID == mentorID && m.StudentID == studentID {
			out = append(out, m)
		}
	}
	return out
}

// CountOccupyingSlots counts records in active or paused status
func (l MentorshipList) CountOccupyingSlots() int {
	n := 0
	for _, m := range l {
		if m.Status.OccupiesSlot() {
			n++
		}
	}
	return n
}

// TransitionMentorshipInput is the payload to move a pair between statuses
type TransitionMentorshipInput struct {
	Status MentorshipStatus `json:"status" binding:"required,oneof=active paused completed" validate:"required,oneof=active paused completed"`
}

func timePtrEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}
