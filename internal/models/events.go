package models

import "time"

// EventType names a post-commit notification
type EventType string

const (
	EventRequestAccepted  EventType = "request-accepted"
	EventSessionScheduled EventType = "session-scheduled"
	EventRatingRecorded   EventType = "rating-recorded"
)

// Event is the payload delivered to the notification collaborator
type Event struct {
	Type       EventType `json:"type"`
	MentorID   string    `json:"mentorId"`
	StudentID  string    `json:"studentId"`
	RecordID   string    `json:"recordId"`
	OccurredAt time.Time `json:"occurredAt"`
	Stars      int       `json:"stars,omitempty"`
}
