package models

import (
	"time"
)

// SessionStatus represents the lifecycle status of a mentorship session
type SessionStatus string

const (
	SessionScheduled SessionStatus = "scheduled"
	SessionCompleted SessionStatus = "completed"
	SessionCancelled SessionStatus = "cancelled"
	SessionNoShow    SessionStatus = "no_show"
)

// IsTerminalStatus returns true if the status is terminal (no further transitions allowed)
func (s SessionStatus) IsTerminalStatus() bool {
	return s == SessionCompleted || s == SessionCancelled || s == SessionNoShow
}

// CanTransitionTo checks if a status transition is valid
func (s SessionStatus) CanTransitionTo(newStatus SessionStatus) bool {
	return s == SessionScheduled && newStatus.IsTerminalStatus()
}

// AcceptsPayment reports whether a payment may be completed for a session in this status
func (s SessionStatus) AcceptsPayment() bool {
	return s == SessionScheduled || s == SessionCompleted
}

// PaymentStatus is the independent payment axis of a session
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentRefunded  PaymentStatus = "refunded"
	PaymentFailed    PaymentStatus = "failed"
)

// IsValid reports whether s is a known payment status
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentPending, PaymentCompleted, PaymentRefunded, PaymentFailed:
		return true
	}
	return false
}

// IsTerminalStatus returns true for refunded and failed
func (s PaymentStatus) IsTerminalStatus() bool {
	return s == PaymentRefunded || s == PaymentFailed
}

// CanTransitionTo checks if a payment transition is valid
func (s PaymentStatus) CanTransitionTo(newStatus PaymentStatus) bool {
	switch s {
	case PaymentPending:
		return newStatus == PaymentCompleted || newStatus == PaymentFailed
	case PaymentCompleted:
		return newStatus == PaymentRefunded
	default:
		return false
	}
}

// CancelledBy identifies which side cancelled a session
type CancelledBy string

const (
	CancelledByMentor  CancelledBy = "mentor"
	CancelledByStudent CancelledBy = "student"
)

// IsValid reports whether c names one of the two sides
func (c CancelledBy) IsValid() bool {
	return c == CancelledByMentor || c == CancelledByStudent
}

// Session is a single meeting within an active mentorship. The mentor
// aggregate is the durable owner; students read a projection.
type Session struct {
	ID                 string        `json:"id"`
	MentorshipID       string        `json:"mentorshipId"`
	MentorID           string        `json:"mentorId"`
	StudentID          string        `json:"studentId"`
	ScheduledAt        time.Time     `json:"scheduledAt"`
	DurationMinutes    int           `json:"durationMinutes"`
	Status             SessionStatus `json:"status"`
	CancellationReason string        `json:"cancellationReason,omitempty"`
	CancelledBy        CancelledBy   `json:"cancelledBy,omitempty"`
	PaymentAmount      *float64      `json:"paymentAmount,omitempty"`
	PaymentStatus      PaymentStatus `json:"paymentStatus"`
	StudentRating      *int          `json:"studentRating,omitempty"`
	StudentFeedback    string        `json:"studentFeedback,omitempty"`
	MentorSelfRating   *int          `json:"mentorSelfRating,omitempty"`
	CompletedAt        *time.Time    `json:"completedAt,omitempty"`
	CreatedAt          time.Time     `json:"createdAt"`
	UpdatedAt          time.Time     `json:"updatedAt"`
}

// SessionList is the mentor-owned collection of sessions
type SessionList []Session

// Find returns a pointer into the list, or nil
func (l SessionList) Find(id string) *Session {
	for i := range l {
		if l[i].ID == id {
			return &l[i]
		}
	}
	return nil
}

// ForMentorship returns sessions that belong to mentorshipID
func (l SessionList) ForMentorship(mentorshipID string) []Session {
	out := make([]Session, 0)
	for _, s := range l {
		if s.MentorshipID == mentorshipID {
			out = append(out, s)
		}
	}
	return out
}

// NextScheduled returns the earliest scheduledAt among scheduled sessions of a mentorship
func (l SessionList) NextScheduled(mentorshipID string) *time.Time {
	var next *time.Time
	for _, s := range l {
		if s.MentorshipID != mentorshipID || s.Status != SessionScheduled {
			continue
		}
		if next == nil || s.ScheduledAt.Before(*next) {
			at := s.ScheduledAt
			next = &at
		}
	}
	return next
}

// ScheduleSessionInput is the payload to schedule a session
type ScheduleSessionInput struct {
	MentorshipID    string    `json:"mentorshipId" binding:"required" validate:"required"`
	ScheduledAt     time.Time `json:"scheduledAt" binding:"required" validate:"required"`
	DurationMinutes int       `json:"durationMinutes" binding:"required,min=15,max=480" validate:"required,min=15,max=480"`
	PaymentAmount   *float64  `json:"paymentAmount,omitempty" binding:"omitempty,gte=0" validate:"omitempty,gte=0"`
}

// CompleteSessionInput carries the optional fields allowed on completion
type CompleteSessionInput struct {
	StudentRating    *int             `json:"studentRating,omitempty" binding:"omitempty,min=1,max=5" validate:"omitempty,min=1,max=5"`
	StudentFeedback  string           `json:"studentFeedback,omitempty" binding:"max=4000" validate:"max=4000"`
	MentorSelfRating *int             `json:"mentorSelfRating,omitempty" binding:"omitempty,min=1,max=5" validate:"omitempty,min=1,max=5"`
	CategoryRatings  *CategoryRatings `json:"categoryRatings,omitempty"`
}

// CancelSessionInput carries the fields required to cancel
type CancelSessionInput struct {
	CancelledBy        CancelledBy `json:"cancelledBy"`
	CancellationReason string      `json:"cancellationReason"`
}

// UpdatePaymentInput moves the payment axis
type UpdatePaymentInput struct {
	PaymentStatus PaymentStatus `json:"paymentStatus" binding:"required" validate:"required"`
}
