package services_test

import (
	"context"
	"encoding/json"

	"github.com/stretchr/testify/mock"
)

// MockResumeAnalyzer is a mock implementation of services.ResumeAnalyzer
type MockResumeAnalyzer struct {
	mock.Mock
}

func (m *MockResumeAnalyzer) AnalyzeResume(ctx context.Context, resumeText, targetRole string) (json.RawMessage, error) {
	args := m.Called(ctx, resumeText, targetRole)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}

func (m *MockResumeAnalyzer) GenerateRoadmap(ctx context.Context, missingSkills []string, targetRole string) (json.RawMessage, error) {
	args := m.Called(ctx, missingSkills, targetRole)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}

// MockResumeArchiver is a mock implementation of services.ResumeArchiver
type MockResumeArchiver struct {
	mock.Mock
}

func (m *MockResumeArchiver) Put(ctx context.Context, studentID, text string) (string, error) {
	args := m.Called(ctx, studentID, text)
	return args.String(0), args.Error(1)
}

// MockProfileInvalidator is a mock implementation of services.ProfileInvalidator
type MockProfileInvalidator struct {
	mock.Mock
}

func (m *MockProfileInvalidator) Invalidate(mentorID string) {
	m.Called(mentorID)
}
