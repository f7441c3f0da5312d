package services_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/getmentor/mentorship-api/internal/lock"
	"github.com/getmentor/mentorship-api/internal/models"
	"github.com/getmentor/mentorship-api/internal/repository"
	"github.com/getmentor/mentorship-api/internal/services"
	"github.com/getmentor/mentorship-api/pkg/logger"
	"github.com/getmentor/mentorship-api/pkg/retry"
	"github.com/stretchr/testify/require"
)

func init() {
	// Initialize logger for tests
	if err := logger.Initialize(logger.Config{
		Level:       "debug",
		Environment: "development",
	}); err != nil {
		panic(err)
	}
}

var errStoreDown = errors.New("store unavailable")

// flakyMentorRepository fails the next N saves, or every save while down is set
type flakyMentorRepository struct {
	repository.MentorRepository
	failNext atomic.Int32
	down     atomic.Bool
}

func (r *flakyMentorRepository) Save(ctx context.Context, m *models.Mentor) error {
	if r.down.Load() {
		return errStoreDown
	}
	if r.failNext.Load() > 0 {
		r.failNext.Add(-1)
		return errStoreDown
	}
	return r.MentorRepository.Save(ctx, m)
}

// recordingNotifier keeps every event it receives
type recordingNotifier struct {
	mu     sync.Mutex
	events []models.Event
}

func (n *recordingNotifier) Notify(_ context.Context, e models.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, e)
}

func (n *recordingNotifier) ofType(t models.EventType) []models.Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]models.Event, 0)
	for _, e := range n.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

type fixture struct {
	mentorStore  *repository.MemoryMentorRepository
	studentStore *repository.MemoryStudentRepository
	mentors      *flakyMentorRepository
	notifier     *recordingNotifier
	agg          *services.Aggregates

	requests      *services.RequestService
	relationships *services.RelationshipService
	sessions      *services.SessionService

	mu  sync.Mutex
	now time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		mentorStore:  repository.NewMemoryMentorRepository(),
		studentStore: repository.NewMemoryStudentRepository(),
		notifier:     &recordingNotifier{},
		now:          time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
	}
	f.mentors = &flakyMentorRepository{MentorRepository: f.mentorStore}

	repair := retry.ReconcileConfig(2, time.Millisecond)
	repair.Jitter = false

	f.agg = services.NewAggregates(services.AggregatesConfig{
		Mentors:     f.mentors,
		Students:    f.studentStore,
		Locker:      lock.NewLocalLocker(),
		RepairRetry: repair,
		Notifier:    f.notifier,
	})
	f.agg.SetClock(f.clock)

	f.requests = services.NewRequestService(f.agg, f.notifier)
	f.relationships = services.NewRelationshipService(f.agg)
	f.sessions = services.NewSessionService(f.agg, f.notifier)
	return f
}

func (f *fixture) clock() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fixture) advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func (f *fixture) addMentor(t *testing.T, id string, maxStudents int, rate float64) {
	t.Helper()
	require.NoError(t, f.mentorStore.Create(context.Background(), &models.Mentor{
		ID:          id,
		Email:       id + "@mentors.example",
		Name:        "Mentor " + id,
		SessionRate: rate,
		Capacity:    models.NewCapacity(maxStudents),
	}))
}

func (f *fixture) addStudent(t *testing.T, id string) {
	t.Helper()
	require.NoError(t, f.studentStore.Create(context.Background(), &models.Student{
		ID:       id,
		Email:    id + "@students.example",
		Name:     "Student " + id,
		Headline: "Aspiring engineer",
		Skills:   []string{"go"},
	}))
}

func (f *fixture) mentor(t *testing.T, id string) *models.Mentor {
	t.Helper()
	m, err := f.mentorStore.GetByID(context.Background(), id)
	require.NoError(t, err)
	return m
}

func (f *fixture) student(t *testing.T, id string) *models.Student {
	t.Helper()
	s, err := f.studentStore.GetByID(context.Background(), id)
	require.NoError(t, err)
	return s
}

func (f *fixture) writes() int64 {
	return f.mentorStore.Writes() + f.studentStore.Writes()
}

func (f *fixture) submit(t *testing.T, studentID, mentorID string) string {
	t.Helper()
	req, err := f.requests.Submit(context.Background(), studentID, &models.SubmitRequestInput{
		MentorID: mentorID,
		Message:  "I would like help preparing for backend interviews",
	})
	require.NoError(t, err)
	return req.ID
}

func (f *fixture) respond(mentorID, requestID string, decision models.RequestStatus) error {
	_, err := f.requests.Respond(context.Background(), mentorID, requestID, &models.RespondRequestInput{Decision: decision})
	return err
}

// activePair registers a mentor and student and returns the accepted mentorship ID
func (f *fixture) activePair(t *testing.T, mentorID, studentID string, maxStudents int) string {
	t.Helper()
	f.addMentor(t, mentorID, maxStudents, 0)
	f.addStudent(t, studentID)
	id := f.submit(t, studentID, mentorID)
	require.NoError(t, f.respond(mentorID, id, models.RequestAccepted))
	return id
}

func mentorActor(id string) models.Actor  { return models.Actor{Role: models.RoleMentor, ID: id} }
func studentActor(id string) models.Actor { return models.Actor{Role: models.RoleStudent, ID: id} }

func intPtr(v int) *int { return &v }
