package services

import (
	"context"
	"strconv"
	"strings"

	"github.com/getmentor/mentorship-api/config"
	"github.com/getmentor/mentorship-api/internal/models"
	"github.com/getmentor/mentorship-api/pkg/errors"
	"github.com/getmentor/mentorship-api/pkg/hasher"
	"github.com/getmentor/mentorship-api/pkg/logger"
	"github.com/getmentor/mentorship-api/pkg/metrics"
	"github.com/getmentor/mentorship-api/pkg/tracing"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Identity is what a successful authentication yields; handlers turn it into a token
type Identity struct {
	Role  models.Role
	ID    string
	Email string
	Name  string
}

// AccountService handles registration, password changes and failed-login
// bookkeeping for both aggregate kinds.
type AccountService struct {
	agg         *Aggregates
	hasher      hasher.Hasher
	policy      models.LockoutPolicy
	minPassword int
}

// NewAccountService creates a new AccountService
func NewAccountService(agg *Aggregates, h hasher.Hasher, cfg *config.Config) *AccountService {
	return &AccountService{
		agg:    agg,
		hasher: h,
		policy: models.LockoutPolicy{
			MaxFailedAttempts: cfg.Security.MaxFailedLogins,
			LockoutDuration:   cfg.Security.LockoutDuration,
		},
		minPassword: cfg.Security.PasswordMinLength,
	}
}

// RegisterMentor creates a mentor with a freshly hashed password
func (s *AccountService) RegisterMentor(ctx context.Context, in *models.RegisterMentorInput) (_ *models.Mentor, err error) {
	ctx, span := tracing.StartSpan(ctx, "AccountService.RegisterMentor")
	defer func() { tracing.EndSpan(span, err) }()

	role := string(models.RoleMentor)
	if err = s.checkRegistration(in, in.Password); err != nil {
		metrics.Registrations.WithLabelValues(role, "invalid").Inc()
		return nil, err
	}

	digest, err := s.hasher.Hash(in.Password)
	if err != nil {
		metrics.Registrations.WithLabelValues(role, "error").Inc()
		return nil, errors.InternalError("failed to hash password")
	}

	now := s.agg.now()
	mentor := &models.Mentor{
		ID:          uuid.NewString(),
		Email:       strings.TrimSpace(in.Email),
		Name:        in.Name,
		Headline:    in.Headline,
		Expertise:   in.Expertise,
		SessionRate: in.SessionRate,
		Capacity:    models.NewCapacity(in.MaxActiveStudents),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	mentor.Security.SetPasswordHash(digest, now)

	if err = s.agg.mentors.Create(ctx, mentor); err != nil {
		metrics.Registrations.WithLabelValues(role, registrationErrorLabel(err)).Inc()
		return nil, err
	}

	metrics.Registrations.WithLabelValues(role, "success").Inc()
	logger.Info("Mentor registered", zap.String("mentor_id", mentor.ID))
	return mentor, nil
}

// RegisterStudent creates a student with a freshly hashed password
func (s *AccountService) RegisterStudent(ctx context.Context, in *models.RegisterStudentInput) (_ *models.Student, err error) {
	ctx, span := tracing.StartSpan(ctx, "AccountService.RegisterStudent")
	defer func() { tracing.EndSpan(span, err) }()

	role := string(models.RoleStudent)
	if err = s.checkRegistration(in, in.Password); err != nil {
		metrics.Registrations.WithLabelValues(role, "invalid").Inc()
		return nil, err
	}

	digest, err := s.hasher.Hash(in.Password)
	if err != nil {
		metrics.Registrations.WithLabelValues(role, "error").Inc()
		return nil, errors.InternalError("failed to hash password")
	}

	now := s.agg.now()
	student := &models.Student{
		ID:              uuid.NewString(),
		Email:           strings.TrimSpace(in.Email),
		Name:            in.Name,
		Headline:        in.Headline,
		Skills:          in.Skills,
		Goals:           in.Goals,
		ExperienceLevel: in.ExperienceLevel,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	student.Security.SetPasswordHash(digest, now)

	if err = s.agg.students.Create(ctx, student); err != nil {
		metrics.Registrations.WithLabelValues(role, registrationErrorLabel(err)).Inc()
		return nil, err
	}

	metrics.Registrations.WithLabelValues(role, "success").Inc()
	logger.Info("Student registered", zap.String("student_id", student.ID))
	return student, nil
}

// Authenticate checks credentials and maintains the failed-login counters.
// A locked account is refused without comparing the password.
func (s *AccountService) Authenticate(ctx context.Context, role models.Role, email, password string) (_ *Identity, err error) {
	ctx, span := tracing.StartSpan(ctx, "AccountService.Authenticate",
		attribute.String("role", string(role)))
	defer func() { tracing.EndSpan(span, err) }()

	switch role {
	case models.RoleMentor:
		return s.authenticateMentor(ctx, email, password)
	case models.RoleStudent:
		return s.authenticateStudent(ctx, email, password)
	default:
		return nil, errors.ValidationError("role", "must be mentor or student", errors.IDs{})
	}
}

func (s *AccountService) authenticateMentor(ctx context.Context, email, password string) (*Identity, error) {
	found, err := s.agg.mentors.GetByEmail(ctx, email)
	if err != nil {
		return nil, s.unknownAccount(models.RoleMentor, err)
	}

	var outcome error
	_, err = s.agg.updateMentor(ctx, found.ID, func(m *models.Mentor) error {
		var write bool
		write, outcome = s.checkPassword(models.RoleMentor, m.ID, m.Account(), password)
		if !write {
			return errNoChange
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if outcome != nil {
		return nil, outcome
	}
	return &Identity{Role: models.RoleMentor, ID: found.ID, Email: found.Email, Name: found.Name}, nil
}

func (s *AccountService) authenticateStudent(ctx context.Context, email, password string) (*Identity, error) {
	found, err := s.agg.students.GetByEmail(ctx, email)
	if err != nil {
		return nil, s.unknownAccount(models.RoleStudent, err)
	}

	var outcome error
	_, err = s.agg.updateStudent(ctx, found.ID, func(st *models.Student) error {
		var write bool
		write, outcome = s.checkPassword(models.RoleStudent, st.ID, st.Account(), password)
		if !write {
			return errNoChange
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if outcome != nil {
		return nil, outcome
	}
	return &Identity{Role: models.RoleStudent, ID: found.ID, Email: found.Email, Name: found.Name}, nil
}

// checkPassword applies one login attempt to acct. It reports whether acct
// changed and must be saved, and the outcome to return to the caller.
func (s *AccountService) checkPassword(role models.Role, id string, acct *models.AccountSecurity, password string) (bool, error) {
	now := s.agg.now()
	if acct.IsLocked(now) {
		metrics.LoginAttempts.WithLabelValues(string(role), "locked").Inc()
		logger.Warn("Login refused for locked account",
			zap.String("role", string(role)),
			zap.String("id", id),
			zap.Timep("locked_until", acct.AccountLockedUntil))
		return false, errors.ErrAccountLocked
	}

	if err := s.hasher.Compare(acct.PasswordHash, password); err != nil {
		metrics.LoginAttempts.WithLabelValues(string(role), "failure").Inc()
		if acct.RecordFailedLogin(now, s.policy) {
			metrics.AccountLockouts.WithLabelValues(string(role)).Inc()
			logger.Warn("Account locked after repeated failed logins",
				zap.String("role", string(role)),
				zap.String("id", id),
				zap.Int("failed_attempts", acct.FailedLoginAttempts))
		}
		return true, errors.ErrUnauthorized
	}

	metrics.LoginAttempts.WithLabelValues(string(role), "success").Inc()
	dirty := acct.FailedLoginAttempts > 0 || acct.AccountLocked
	acct.RecordSuccessfulLogin()
	return dirty, nil
}

func (s *AccountService) unknownAccount(role models.Role, err error) error {
	metrics.LoginAttempts.WithLabelValues(string(role), "failure").Inc()
	if errors.Is(err, errors.ErrNotFound) {
		return errors.ErrUnauthorized
	}
	return err
}

// ChangePassword verifies the current password and stores a fresh digest of the new one
func (s *AccountService) ChangePassword(ctx context.Context, actor models.Actor, currentPassword, newPassword string) (err error) {
	ctx, span := tracing.StartSpan(ctx, "AccountService.ChangePassword",
		attribute.String("role", string(actor.Role)))
	defer func() { tracing.EndSpan(span, err) }()

	ids := actorIDs(actor)
	if err := s.checkPasswordLength("newPassword", newPassword, ids); err != nil {
		return err
	}

	change := func(acct *models.AccountSecurity) error {
		if err := s.hasher.Compare(acct.PasswordHash, currentPassword); err != nil {
			return errors.ErrUnauthorized
		}
		digest, err := s.hasher.Hash(newPassword)
		if err != nil {
			return errors.InternalError("failed to hash password")
		}
		acct.SetPasswordHash(digest, s.agg.now())
		return nil
	}

	switch actor.Role {
	case models.RoleMentor:
		_, err = s.agg.updateMentor(ctx, actor.ID, func(m *models.Mentor) error { return change(m.Account()) })
	case models.RoleStudent:
		_, err = s.agg.updateStudent(ctx, actor.ID, func(st *models.Student) error { return change(st.Account()) })
	default:
		return errors.ValidationError("role", "must be mentor or student", ids)
	}
	if err != nil {
		return err
	}

	logger.Info("Password changed", zap.String("role", string(actor.Role)), zap.String("id", actor.ID))
	return nil
}

func (s *AccountService) checkRegistration(in any, password string) error {
	if err := validateInput(in, errors.IDs{}); err != nil {
		return err
	}
	return s.checkPasswordLength("password", password, errors.IDs{})
}

// checkPasswordLength enforces the configured minimum and bcrypt's byte limit
func (s *AccountService) checkPasswordLength(field, password string, ids errors.IDs) error {
	if len(password) < s.minPassword {
		return errors.ValidationError(field, "must be at least "+strconv.Itoa(s.minPassword)+" characters", ids)
	}
	if len(password) > hasher.MaxPasswordBytes {
		return errors.ValidationError(field, "must not exceed "+strconv.Itoa(hasher.MaxPasswordBytes)+" bytes", ids)
	}
	return nil
}

func registrationErrorLabel(err error) string {
	if errors.Is(err, errors.ErrConflict) {
		return "duplicate"
	}
	return "error"
}

func actorIDs(actor models.Actor) errors.IDs {
	if actor.IsMentor() {
		return errors.IDs{MentorID: actor.ID}
	}
	return errors.IDs{StudentID: actor.ID}
}
