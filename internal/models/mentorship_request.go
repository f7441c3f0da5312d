package models

import (
	"time"
)

// RequestStatus represents the status of a mentorship request
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestAccepted RequestStatus = "accepted"
	RequestRejected RequestStatus = "rejected"
)

// IsValid reports whether s is a known request status
func (s RequestStatus) IsValid() bool {
	return s == RequestPending || s == RequestAccepted || s == RequestRejected
}

// IsTerminalStatus returns true if the status is terminal (no further transitions allowed)
func (s RequestStatus) IsTerminalStatus() bool {
	return s == RequestAccepted || s == RequestRejected
}

// CanTransitionTo checks if a status transition is valid
func (s RequestStatus) CanTransitionTo(newStatus RequestStatus) bool {
	return s == RequestPending && newStatus.IsTerminalStatus()
}

// rank orders statuses for reconciliation; a higher rank dominates
func (s RequestStatus) rank() int {
	if s.IsTerminalStatus() {
		return 1
	}
	return 0
}

// StudentSnapshot is the denormalized student profile a mentor sees on a request
type StudentSnapshot struct {
	Name            string   `json:"name"`
	Headline        string   `json:"headline,omitempty"`
	Skills          []string `json:"skills,omitempty"`
	Goals           string   `json:"goals,omitempty"`
	ExperienceLevel string   `json:"experienceLevel,omitempty"`
}

// MentorshipRequest is a student's request to be mentored. The student holds the
// authoritative copy; the mentor holds a projection carrying a StudentSnapshot.
type MentorshipRequest struct {
	ID              string           `json:"id"`
	StudentID       string           `json:"studentId"`
	MentorID        string           `json:"mentorId"`
	Status          RequestStatus    `json:"status"`
	RequestedAt     time.Time        `json:"requestedAt"`
	RespondedAt     *time.Time       `json:"respondedAt,omitempty"`
	Message         string           `json:"message"`
	ResponseMessage string           `json:"responseMessage,omitempty"`
	StudentSnapshot *StudentSnapshot `json:"studentSnapshot,omitempty"`
}

// Respond moves a pending request into decision
func (r *MentorshipRequest) Respond(decision RequestStatus, responseMessage string, at time.Time) {
	respondedAt := at
	r.Status = decision
	r.RespondedAt = &respondedAt
	r.ResponseMessage = responseMessage
}

// revert undoes Respond; used only to compensate a half-applied acceptance
func (r *MentorshipRequest) revert() {
	r.Status = RequestPending
	r.RespondedAt = nil
	r.ResponseMessage = ""
}

// RequestList is one aggregate's local collection of requests
type RequestList []MentorshipRequest

// Find returns a pointer into the list, or nil
func (l RequestList) Find(id string) *MentorshipRequest {
	for i := range l {
		if l[i].ID == id {
			return &l[i]
		}
	}
	return nil
}

// ForPair returns the requests between mentorID and studentID
func (l RequestList) ForPair(mentorID, studentID string) []MentorshipRequest {
	out := make([]MentorshipRequest, 0)
	for _, r := range l {
		if r.MentorID == mentorID && r.StudentID == studentID {
			out = append(out, r)
		}
	}
	return out
}

// CountPending returns the number of pending requests for the pair
func (l RequestList) CountPending(mentorID, studentID string) int {
	n := 0
	for _, r := range l {
		if r.MentorID == mentorID && r.StudentID == studentID && r.Status == RequestPending {
			n++
		}
	}
	return n
}

// WithStatus filters by status; an empty filter returns everything
func (l RequestList) WithStatus(statuses ...RequestStatus) []MentorshipRequest {
	out := make([]MentorshipRequest, 0, len(l))
	for _, r := range l {
		if len(statuses) == 0 || containsStatus(statuses, r.Status) {
			out = append(out, r)
		}
	}
	return out
}

func containsStatus(statuses []RequestStatus, s RequestStatus) bool {
	for _, candidate := range statuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// SubmitRequestInput is the payload a student sends to request mentorship
type SubmitRequestInput struct {
	MentorID string `json:"mentorId" binding:"required" validate:"required,max=64"`
	Message  string `json:"message" binding:"required,min=10,max=2000" validate:"required,min=10,max=2000"`
}

// RespondRequestInput is the payload a mentor sends to answer a request
type RespondRequestInput struct {
	Decision        RequestStatus `json:"decision" binding:"required,oneof=accepted rejected" validate:"required,oneof=accepted rejected"`
	ResponseMessage string        `json:"responseMessage" binding:"max=2000" validate:"max=2000"`
}

// RequestsResponse is the response for listing requests
type RequestsResponse struct {
	Requests []MentorshipRequest `json:"requests"`
	Total    int                 `json:"total"`
}
