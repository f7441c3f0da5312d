package services

import (
	"context"

	"github.com/getmentor/mentorship-api/internal/models"
)

// RequestServiceInterface defines the request lifecycle operations
type RequestServiceInterface interface {
	Submit(ctx context.Context, studentID string, in *models.SubmitRequestInput) (*models.MentorshipRequest, error)
	Respond(ctx context.Context, mentorID, requestID string, in *models.RespondRequestInput) (*models.MentorshipRequest, error)
	GetMentorRequests(ctx context.Context, mentorID string, statuses []models.RequestStatus) (*models.RequestsResponse, error)
	GetStudentRequests(ctx context.Context, studentID string, statuses []models.RequestStatus) (*models.RequestsResponse, error)
}

// RelationshipServiceInterface defines the mentorship ledger operations
type RelationshipServiceInterface interface {
	Transition(ctx context.Context, actor models.Actor, mentorshipID string, in *models.TransitionMentorshipInput) (*models.ActiveMentorship, error)
	Reconcile(ctx context.Context, mentorID, studentID string) (models.PairRepair, error)
	ReconcileCapacity(ctx context.Context, mentorID string) (bool, error)
	GetMentorships(ctx context.Context, actor models.Actor) ([]models.ActiveMentorship, error)
	RunReconciliationPass(ctx context.Context) (ReconcileSummary, error)
}

// SessionServiceInterface defines the session lifecycle operations
type SessionServiceInterface interface {
	Schedule(ctx context.Context, actor models.Actor, in *models.ScheduleSessionInput) (*models.Session, error)
	Complete(ctx context.Context, actor models.Actor, mentorshipID, sessionID string, in *models.CompleteSessionInput) (*models.Session, error)
	Cancel(ctx context.Context, actor models.Actor, mentorshipID, sessionID string, in *models.CancelSessionInput) (*models.Session, error)
	MarkNoShow(ctx context.Context, actor models.Actor, mentorshipID, sessionID string) (*models.Session, error)
	UpdatePayment(ctx context.Context, actor models.Actor, mentorshipID, sessionID string, in *models.UpdatePaymentInput) (*models.Session, error)
	ListSessions(ctx context.Context, actor models.Actor, mentorshipID string) ([]models.Session, error)
}

// AccountServiceInterface defines registration and credential bookkeeping
type AccountServiceInterface interface {
	RegisterMentor(ctx context.Context, in *models.RegisterMentorInput) (*models.Mentor, error)
	RegisterStudent(ctx context.Context, in *models.RegisterStudentInput) (*models.Student, error)
	Authenticate(ctx context.Context, role models.Role, email, password string) (*Identity, error)
	ChangePassword(ctx context.Context, actor models.Actor, currentPassword, newPassword string) error
}

// ResumeServiceInterface defines resume analysis operations
type ResumeServiceInterface interface {
	AnalyzeResume(ctx context.Context, studentID string, in *models.AnalyzeResumeInput) (*models.Resume, error)
	GetResume(ctx context.Context, studentID string) (*models.Resume, error)
	GenerateRoadmap(ctx context.Context, studentID string, in *models.GenerateRoadmapInput) (*models.Roadmap, error)
	GetRoadmap(ctx context.Context, studentID string) (*models.Roadmap, error)
}

// ProfileServiceInterface defines public profile reads
type ProfileServiceInterface interface {
	GetMentorProfile(ctx context.Context, mentorID string) (*models.MentorProfile, error)
	GetReputation(ctx context.Context, mentorID string) (*models.ReputationView, error)
	GetStudentProfile(ctx context.Context, studentID string) (*models.StudentProfile, error)
}

// Ensure services implement their interfaces
var (
	_ RequestServiceInterface      = (*RequestService)(nil)
	_ RelationshipServiceInterface = (*RelationshipService)(nil)
	_ SessionServiceInterface      = (*SessionService)(nil)
	_ AccountServiceInterface      = (*AccountService)(nil)
	_ ResumeServiceInterface       = (*ResumeService)(nil)
	_ ProfileServiceInterface      = (*ProfileService)(nil)
	_ Notifier                     = (*TriggerNotifier)(nil)
)
