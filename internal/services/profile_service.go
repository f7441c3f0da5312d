package services

import (
	"context"

	"github.com/getmentor/mentorship-api/internal/models"
)

// ProfileInvalidator drops a cached mentor profile after a committed change
type ProfileInvalidator interface {
	Invalidate(mentorID string)
}

// ProfileReader serves cached public mentor profiles
type ProfileReader interface {
	Get(ctx context.Context, mentorID string) (models.MentorProfile, error)
}

// ProfileService serves public profiles and reputation
type ProfileService struct {
	agg   *Aggregates
	cache ProfileReader
}

// NewProfileService creates a new ProfileService
func NewProfileService(agg *Aggregates, cache ProfileReader) *ProfileService {
	return &ProfileService{agg: agg, cache: cache}
}

// GetMentorProfile returns the public mentor profile, from cache when possible
func (s *ProfileService) GetMentorProfile(ctx context.Context, mentorID string) (*models.MentorProfile, error) {
	if s.cache != nil {
		profile, err := s.cache.Get(ctx, mentorID)
		if err != nil {
			return nil, err
		}
		return &profile, nil
	}

	m, err := s.agg.mentors.GetByID(ctx, mentorID)
	if err != nil {
		return nil, err
	}
	profile := m.Profile()
	return &profile, nil
}

// GetReputation returns the mentor's rating summary
func (s *ProfileService) GetReputation(ctx context.Context, mentorID string) (*models.ReputationView, error) {
	profile, err := s.GetMentorProfile(ctx, mentorID)
	if err != nil {
		return nil, err
	}
	return &profile.Reputation, nil
}

// GetStudentProfile returns the public student profile
func (s *ProfileService) GetStudentProfile(ctx context.Context, studentID string) (*models.StudentProfile, error) {
	st, err := s.agg.students.GetByID(ctx, studentID)
	if err != nil {
		return nil, err
	}
	profile := st.Profile()
	return &profile, nil
}
