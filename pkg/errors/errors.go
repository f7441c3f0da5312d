package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Error taxonomy shared by the mentorship core. Every error returned by a
// service wraps exactly one of these so callers can branch with errors.Is.
var (
	// ErrValidation indicates malformed input (e.g. a rating outside 1-5)
	ErrValidation = errors.New("validation error")

	// ErrInvalidStateTransition indicates a transition not permitted from the current state
	ErrInvalidStateTransition = errors.New("invalid state transition")

	// ErrCapacityExceeded indicates the mentor has no headroom for another active student
	ErrCapacityExceeded = errors.New("capacity exceeded")

	// ErrNotFound indicates a referenced aggregate or sub-record is absent
	ErrNotFound = errors.New("not found")

	// ErrConsistencyConflict indicates both sides of a relationship diverged
	// in a way reconciliation cannot repair automatically
	ErrConsistencyConflict = errors.New("consistency conflict")

	// ErrPaymentNotApplicable indicates a payment transition on a session that cannot be paid for
	ErrPaymentNotApplicable = errors.New("payment not applicable")

	// ErrConflict indicates a conflict with existing data (duplicate email)
	ErrConflict = errors.New("conflict")

	// ErrUnauthorized indicates missing or invalid credentials
	ErrUnauthorized = errors.New("unauthorized")

	// ErrAccountLocked indicates the account is temporarily locked after repeated failures
	ErrAccountLocked = errors.New("account locked")

	// ErrVersionConflict is returned by the store when a conditional save lost a race.
	// Services retry on it and never surface it.
	ErrVersionConflict = errors.New("version conflict")

	// ErrInternal indicates an internal server error
	ErrInternal = errors.New("internal error")
)

// DomainError carries the identifiers and the offending field or transition
// alongside one of the taxonomy sentinels.
type DomainError struct {
	Kind      error
	MentorID  string
	StudentID string
	RecordID  string
	Field     string
	From      string
	To        string
	Message   string
}

func (e *DomainError) Error() string {
	parts := make([]string, 0, 6)
	if e.Message != "" {
		parts = append(parts, e.Message)
	}
	if e.Field != "" {
		parts = append(parts, "field="+e.Field)
	}
	if e.From != "" || e.To != "" {
		parts = append(parts, fmt.Sprintf("transition=%s->%s", e.From, e.To))
	}
	if e.MentorID != "" {
		parts = append(parts, "mentor="+e.MentorID)
	}
	if e.StudentID != "" {
		parts = append(parts, "student="+e.StudentID)
	}
	if e.RecordID != "" {
		parts = append(parts, "record="+e.RecordID)
	}
	return fmt.Sprintf("%s: %s", e.Kind.Error(), strings.Join(parts, " "))
}

func (e *DomainError) Unwrap() error {
	return e.Kind
}

// IDs groups the aggregate identifiers attached to a DomainError
type IDs struct {
	MentorID  string
	StudentID string
	RecordID  string
}

func newDomainError(kind error, ids IDs, msg string) *DomainError {
	return &DomainError{
		Kind:      kind,
		MentorID:  ids.MentorID,
		StudentID: ids.StudentID,
		RecordID:  ids.RecordID,
		Message:   msg,
	}
}

// ValidationError creates a validation error for a single field
func ValidationError(field, reason string, ids IDs) error {
	e := newDomainError(ErrValidation, ids, reason)
	e.Field = field
	return e
}

// InvalidTransitionError creates an error describing a rejected state transition
func InvalidTransitionError(entity, from, to string, ids IDs) error {
	e := newDomainError(ErrInvalidStateTransition, ids, entity+" cannot change status")
	e.From = from
	e.To = to
	return e
}

// CapacityExceededError reports that a mentor is at maxActiveStudents
func CapacityExceededError(mentorID string, current, maxStudents int) error {
	e := newDomainError(ErrCapacityExceeded, IDs{MentorID: mentorID},
		fmt.Sprintf("mentor has %d of %d active students", current, maxStudents))
	e.Field = "currentActiveStudents"
	return e
}

// NotFoundError creates a not found error with context
func NotFoundError(resource string, ids IDs) error {
	return newDomainError(ErrNotFound, ids, resource+" not found")
}

// ConsistencyConflictError reports a divergence that needs operator attention
func ConsistencyConflictError(mentorID, studentID, reason string) error {
	return newDomainError(ErrConsistencyConflict, IDs{MentorID: mentorID, StudentID: studentID}, reason)
}

// PaymentNotApplicableError reports a payment change on a session in the wrong state
func PaymentNotApplicableError(mentorID, sessionID, sessionStatus string) error {
	e := newDomainError(ErrPaymentNotApplicable, IDs{MentorID: mentorID, RecordID: sessionID},
		"session status "+sessionStatus+" does not accept payment")
	e.Field = "paymentStatus"
	return e
}

// ConflictError creates a conflict error with context
func ConflictError(field, reason string) error {
	e := newDomainError(ErrConflict, IDs{}, reason)
	e.Field = field
	return e
}

// InternalError creates an internal error with context
func InternalError(msg string) error {
	return fmt.Errorf("%s: %w", msg, ErrInternal)
}

// Is checks if an error matches a target error (works with wrapped errors)
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As is errors.As re-exported so callers do not need both packages
func As(err error, target any) bool {
	return errors.As(err, target)
}
