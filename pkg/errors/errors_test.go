package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomainError_UnwrapsToSentinel(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
	}{
		{"validation", ValidationError("studentRating", "must be between 1 and 5", IDs{MentorID: "m1"}), ErrValidation},
		{"transition", InvalidTransitionError("session", "completed", "cancelled", IDs{RecordID: "s1"}), ErrInvalidStateTransition},
		{"capacity", CapacityExceededError("m1", 1, 1), ErrCapacityExceeded},
		{"not found", NotFoundError("mentor", IDs{MentorID: "m1"}), ErrNotFound},
		{"consistency", ConsistencyConflictError("m1", "s1", "accepted vs rejected"), ErrConsistencyConflict},
		{"payment", PaymentNotApplicableError("m1", "sess1", "cancelled"), ErrPaymentNotApplicable},
		{"conflict", ConflictError("email", "already registered"), ErrConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, Is(tt.err, tt.sentinel))

			wrapped := fmt.Errorf("outer: %w", tt.err)
			assert.True(t, Is(wrapped, tt.sentinel))

			var de *DomainError
			require.True(t, As(wrapped, &de))
			assert.Equal(t, tt.sentinel, de.Kind)
		})
	}
}

func TestDomainError_MessageCarriesIdentifiers(t *testing.T) {
	err := InvalidTransitionError("request", "accepted", "rejected", IDs{MentorID: "m1", StudentID: "s1", RecordID: "r1"})

	msg := err.Error()
	assert.Contains(t, msg, "invalid state transition")
	assert.Contains(t, msg, "transition=accepted->rejected")
	assert.Contains(t, msg, "mentor=m1")
	assert.Contains(t, msg, "student=s1")
	assert.Contains(t, msg, "record=r1")
}

func TestCapacityExceededError_Field(t *testing.T) {
	var de *DomainError
	require.True(t, As(CapacityExceededError("m1", 3, 3), &de))
	assert.Equal(t, "currentActiveStudents", de.Field)
	assert.Equal(t, "m1", de.MentorID)
}
