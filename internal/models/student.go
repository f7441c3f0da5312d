package models

import (
	"time"
)

// Student is the root aggregate for a mentee. It holds the authoritative copy
// of every request it submitted and its side of each mentorship.
type Student struct {
	ID              string          `json:"id"`
	Email           string          `json:"email"`
	Name            string          `json:"name"`
	Headline        string          `json:"headline"`
	Skills          []string        `json:"skills"`
	Goals           string          `json:"goals"`
	ExperienceLevel string          `json:"experienceLevel"`
	Requests        RequestList     `json:"requests"`
	Mentorships     MentorshipList  `json:"mentorships"`
	Resume          *Resume         `json:"resume,omitempty"`
	Roadmap         *Roadmap        `json:"roadmap,omitempty"`
	Security        AccountSecurity `json:"security"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`

	// Version is the optimistic concurrency token maintained by the store
	Version int64 `json:"-"`
}

// Clone returns a copy whose slices can be mutated without touching s
func (s *Student) Clone() *Student {
	c := *s
	c.Skills = append([]string(nil), s.Skills...)
	c.Requests = append(RequestList(nil), s.Requests...)
	c.Mentorships = append(MentorshipList(nil), s.Mentorships...)
	if s.Resume != nil {
		r := *s.Resume
		r.Analysis = append([]byte(nil), s.Resume.Analysis...)
		c.Resume = &r
	}
	if s.Roadmap != nil {
		r := *s.Roadmap
		r.MissingSkills = append([]string(nil), s.Roadmap.MissingSkills...)
		r.Plan = append([]byte(nil), s.Roadmap.Plan...)
		c.Roadmap = &r
	}
	return &c
}

// Account exposes the embedded security record
func (s *Student) Account() *AccountSecurity {
	return &s.Security
}

// Snapshot captures the profile fields a mentor sees on a request
func (s *Student) Snapshot() StudentSnapshot {
	return StudentSnapshot{
		Name:            s.Name,
		Headline:        s.Headline,
		Skills:          append([]string(nil), s.Skills...),
		Goals:           s.Goals,
		ExperienceLevel: s.ExperienceLevel,
	}
}

// HasActiveMentor is a local lookup for an active mentorship with mentorID.
// It can observe transient asymmetry with the mentor aggregate.
func (s *Student) HasActiveMentor(mentorID string) bool {
	return s.Mentorships.HasActive(mentorID, s.ID)
}

// AddRequest appends the authoritative request copy; an existing ID is left alone
func (s *Student) AddRequest(req MentorshipRequest) bool {
	if s.Requests.Find(req.ID) != nil {
		return false
	}
	req.StudentSnapshot = nil
	s.Requests = append(s.Requests, req)
	return true
}

// RespondToRequest moves a pending request to decision
func (s *Student) RespondToRequest(requestID string, decision RequestStatus, responseMessage string, at time.Time) error {
	return respondToRequest(s.Requests, requestID, decision, responseMessage, at)
}

// AttachMentorship adds the student-side record
func (s *Student) AttachMentorship(ms ActiveMentorship) bool {
	if s.Mentorships.Find(ms.ID) != nil {
		return false
	}
	s.Mentorships = append(s.Mentorships, ms)
	return true
}

// RevertAcceptance undoes a student-side acceptance whose mentor-side write was
// refused. The request returns to pending and the mentorship it created is dropped.
func (s *Student) RevertAcceptance(requestID string) bool {
	req := s.Requests.Find(requestID)
	if req == nil || req.Status != RequestAccepted {
		return false
	}
	req.revert()

	kept := s.Mentorships[:0]
	for _, ms := range s.Mentorships {
		if ms.ID != requestID {
			kept = append(kept, ms)
		}
	}
	s.Mentorships = kept
	return true
}

// TransitionMentorship changes the status of the student-side record
func (s *Student) TransitionMentorship(mentorshipID string, newStatus MentorshipStatus, at time.Time) (bool, error) {
	_, changed, err := transitionMentorship(s.Mentorships, mentorshipID, newStatus, at)
	return changed, err
}

// SetResume stores an analysis record
func (s *Student) SetResume(r Resume) {
	s.Resume = &r
}

// SetRoadmap replaces the stored learning roadmap
func (s *Student) SetRoadmap(r Roadmap) {
	s.Roadmap = &r
}

// Profile returns the public view of the student
func (s *Student) Profile() StudentProfile {
	return StudentProfile{
		ID:              s.ID,
		Name:            s.Name,
		Headline:        s.Headline,
		Skills:          s.Skills,
		Goals:           s.Goals,
		ExperienceLevel: s.ExperienceLevel,
	}
}

// StudentProfile is the public API response format for a student
type StudentProfile struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Headline        string   `json:"headline"`
	Skills          []string `json:"skills"`
	Goals           string   `json:"goals"`
	ExperienceLevel string   `json:"experienceLevel"`
}

// RegisterStudentInput is the payload to create a student account
type RegisterStudentInput struct {
	Email           string   `json:"email" binding:"required,email" validate:"required,email"`
	Password        string   `json:"password" binding:"required,max=72" validate:"required,max=72"`
	Name            string   `json:"name" binding:"required,min=2,max=100" validate:"required,min=2,max=100"`
	Headline        string   `json:"headline" binding:"max=200" validate:"max=200"`
	Skills          []string `json:"skills" binding:"max=50" validate:"max=50"`
	Goals           string   `json:"goals" binding:"max=2000" validate:"max=2000"`
	ExperienceLevel string   `json:"experienceLevel" binding:"omitempty,oneof=entry junior mid senior lead" validate:"omitempty,oneof=entry junior mid senior lead"`
}

// AccountHolder is implemented by both aggregates
type AccountHolder interface {
	Account() *AccountSecurity
}

var (
	_ AccountHolder = (*Mentor)(nil)
	_ AccountHolder = (*Student)(nil)
)
