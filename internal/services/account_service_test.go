package services_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/getmentor/mentorship-api/config"
	"github.com/getmentor/mentorship-api/internal/models"
	"github.com/getmentor/mentorship-api/internal/services"
	"github.com/getmentor/mentorship-api/pkg/errors"
	"github.com/getmentor/mentorship-api/pkg/hasher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testPassword = "correct-horse-battery"

func newAccountService(f *fixture) *services.AccountService {
	cfg := &config.Config{
		Security: config.SecurityConfig{
			MaxFailedLogins:   5,
			LockoutDuration:   15 * time.Minute,
			BcryptCost:        bcrypt.MinCost,
			PasswordMinLength: 8,
		},
	}
	return services.NewAccountService(f.agg, hasher.NewBcryptHasher(cfg.Security.BcryptCost), cfg)
}

func registerStudent(t *testing.T, svc *services.AccountService, email string) *models.Student {
	t.Helper()
	st, err := svc.RegisterStudent(context.Background(), &models.RegisterStudentInput{
		Email:           email,
		Password:        testPassword,
		Name:            "Dana Learner",
		Skills:          []string{"python"},
		ExperienceLevel: "junior",
	})
	require.NoError(t, err)
	return st
}

func TestAccountService_RegisterAndAuthenticate(t *testing.T) {
	f := newFixture(t)
	svc := newAccountService(f)
	ctx := context.Background()

	m, err := svc.RegisterMentor(ctx, &models.RegisterMentorInput{
		Email:             "lee@mentors.example",
		Password:          testPassword,
		Name:              "Lee Mentor",
		MaxActiveStudents: 3,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, m.ID)
	assert.Equal(t, 3, m.Capacity.MaxActiveStudents())
	assert.NotEqual(t, hasher.Digest(testPassword), m.Security.PasswordHash)
	assert.NotNil(t, m.Security.PasswordChangedAt)

	id, err := svc.Authenticate(ctx, models.RoleMentor, "LEE@mentors.example", testPassword)
	require.NoError(t, err)
	assert.Equal(t, m.ID, id.ID)
	assert.Equal(t, models.RoleMentor, id.Role)

	// a mentor account is not a student account
	_, err = svc.Authenticate(ctx, models.RoleStudent, "lee@mentors.example", testPassword)
	assert.True(t, errors.Is(err, errors.ErrUnauthorized))
}

func TestAccountService_Register_Invalid(t *testing.T) {
	f := newFixture(t)
	svc := newAccountService(f)
	ctx := context.Background()

	_, err := svc.RegisterStudent(ctx, &models.RegisterStudentInput{
		Email:    "not-an-email",
		Password: testPassword,
		Name:     "Dana",
	})
	assert.True(t, errors.Is(err, errors.ErrValidation))

	_, err = svc.RegisterStudent(ctx, &models.RegisterStudentInput{
		Email:    "dana@students.example",
		Password: "short",
		Name:     "Dana",
	})
	assert.True(t, errors.Is(err, errors.ErrValidation))

	_, err = svc.RegisterStudent(ctx, &models.RegisterStudentInput{
		Email:    "dana@students.example",
		Password: strings.Repeat("p", 80),
		Name:     "Dana",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrValidation))
	assert.False(t, errors.Is(err, errors.ErrInternal))

	_, err = svc.RegisterMentor(ctx, &models.RegisterMentorInput{
		Email:             "lee@mentors.example",
		Password:          strings.Repeat("ü", 40),
		Name:              "Lee Mentor",
		MaxActiveStudents: 2,
	})
	assert.True(t, errors.Is(err, errors.ErrValidation))

	registerStudent(t, svc, "dana@students.example")
	_, err = svc.RegisterStudent(ctx, &models.RegisterStudentInput{
		Email:    "Dana@Students.example",
		Password: testPassword,
		Name:     "Dana Again",
	})
	assert.True(t, errors.Is(err, errors.ErrConflict))
}

func TestAccountService_LockoutAfterRepeatedFailures(t *testing.T) {
	f := newFixture(t)
	svc := newAccountService(f)
	ctx := context.Background()
	st := registerStudent(t, svc, "dana@students.example")

	for i := 1; i <= 4; i++ {
		_, err := svc.Authenticate(ctx, models.RoleStudent, st.Email, "wrong-password")
		require.True(t, errors.Is(err, errors.ErrUnauthorized), "attempt %d", i)
	}
	stored := f.student(t, st.ID)
	assert.Equal(t, 4, stored.Security.FailedLoginAttempts)
	assert.False(t, stored.Security.AccountLocked)

	_, err := svc.Authenticate(ctx, models.RoleStudent, st.Email, "wrong-password")
	assert.True(t, errors.Is(err, errors.ErrUnauthorized))
	stored = f.student(t, st.ID)
	assert.True(t, stored.Security.AccountLocked)
	require.NotNil(t, stored.Security.AccountLockedUntil)
	assert.True(t, stored.Security.AccountLockedUntil.Equal(f.clock().Add(15*time.Minute)))

	// the right password is refused while locked, and nothing is written
	before := f.writes()
	_, err = svc.Authenticate(ctx, models.RoleStudent, st.Email, testPassword)
	assert.True(t, errors.Is(err, errors.ErrAccountLocked))
	assert.Equal(t, before, f.writes())

	f.advance(16 * time.Minute)
	id, err := svc.Authenticate(ctx, models.RoleStudent, st.Email, testPassword)
	require.NoError(t, err)
	assert.Equal(t, st.ID, id.ID)

	stored = f.student(t, st.ID)
	assert.Zero(t, stored.Security.FailedLoginAttempts)
	assert.False(t, stored.Security.AccountLocked)
	assert.Nil(t, stored.Security.AccountLockedUntil)
}

func TestAccountService_SuccessfulLoginWithoutFailuresWritesNothing(t *testing.T) {
	f := newFixture(t)
	svc := newAccountService(f)
	st := registerStudent(t, svc, "dana@students.example")

	before := f.writes()
	_, err := svc.Authenticate(context.Background(), models.RoleStudent, st.Email, testPassword)
	require.NoError(t, err)
	assert.Equal(t, before, f.writes())
}

func TestAccountService_UnknownEmail(t *testing.T) {
	f := newFixture(t)
	svc := newAccountService(f)

	_, err := svc.Authenticate(context.Background(), models.RoleStudent, "ghost@students.example", testPassword)
	assert.True(t, errors.Is(err, errors.ErrUnauthorized))

	_, err = svc.Authenticate(context.Background(), "admin", "ghost@students.example", testPassword)
	assert.True(t, errors.Is(err, errors.ErrValidation))
}

func TestAccountService_ChangePassword(t *testing.T) {
	f := newFixture(t)
	svc := newAccountService(f)
	ctx := context.Background()
	st := registerStudent(t, svc, "dana@students.example")
	actor := studentActor(st.ID)

	err := svc.ChangePassword(ctx, actor, "not-my-password", "another-long-secret")
	assert.True(t, errors.Is(err, errors.ErrUnauthorized))

	err = svc.ChangePassword(ctx, actor, testPassword, "short")
	assert.True(t, errors.Is(err, errors.ErrValidation))

	err = svc.ChangePassword(ctx, actor, testPassword, strings.Repeat("x", 150))
	assert.True(t, errors.Is(err, errors.ErrValidation))
	assert.False(t, errors.Is(err, errors.ErrInternal))

	require.NoError(t, svc.ChangePassword(ctx, actor, testPassword, "another-long-secret"))

	_, err = svc.Authenticate(ctx, models.RoleStudent, st.Email, testPassword)
	assert.True(t, errors.Is(err, errors.ErrUnauthorized))
	_, err = svc.Authenticate(ctx, models.RoleStudent, st.Email, "another-long-secret")
	assert.NoError(t, err)
}
