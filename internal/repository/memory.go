package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/getmentor/mentorship-api/internal/models"
	"github.com/getmentor/mentorship-api/pkg/errors"
)

// memoryStore keeps documents in process. It backs DB_WORK_OFFLINE mode and
// tests, and honours the same version contract as the Postgres store.
type memoryStore[T any] struct {
	mu       sync.RWMutex
	resource string
	docs     map[string]*T
	emails   map[string]string
	writes   atomic.Int64

	clone   func(*T) *T
	id      func(*T) string
	email   func(*T) string
	version func(*T) *int64
}

func (s *memoryStore[T]) get(id string) (*T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.docs[id]
	if !ok {
		return nil, errors.NotFoundError(s.resource, errors.IDs{RecordID: id})
	}
	return s.clone(doc), nil
}

func (s *memoryStore[T]) getByEmail(email string) (*T, error) {
	s.mu.RLock()
	id, ok := s.emails[normalizeEmail(email)]
	s.mu.RUnlock()
	if !ok {
		return nil, errors.NotFoundError(s.resource, errors.IDs{})
	}
	return s.get(id)
}

func (s *memoryStore[T]) create(doc *T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.id(doc)
	if _, exists := s.docs[id]; exists {
		return errors.ConflictError("id", s.resource+" already exists")
	}
	key := normalizeEmail(s.email(doc))
	if _, taken := s.emails[key]; taken {
		return errors.ConflictError("email", "email already registered")
	}

	*s.version(doc) = 1
	s.docs[id] = s.clone(doc)
	s.emails[key] = id
	s.writes.Add(1)
	return nil
}

func (s *memoryStore[T]) save(doc *T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.id(doc)
	stored, ok := s.docs[id]
	if !ok {
		return errors.NotFoundError(s.resource, errors.IDs{RecordID: id})
	}
	if *s.version(stored) != *s.version(doc) {
		return fmt.Errorf("%s %s: %w", s.resource, id, errors.ErrVersionConflict)
	}

	oldKey := normalizeEmail(s.email(stored))
	newKey := normalizeEmail(s.email(doc))
	if oldKey != newKey {
		if owner, taken := s.emails[newKey]; taken && owner != id {
			return errors.ConflictError("email", "email already registered")
		}
		delete(s.emails, oldKey)
		s.emails[newKey] = id
	}

	*s.version(doc)++
	s.docs[id] = s.clone(doc)
	s.writes.Add(1)
	return nil
}

func (s *memoryStore[T]) listIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.docs))
	for id := range s.docs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// MemoryMentorRepository implements MentorRepository in process
type MemoryMentorRepository struct {
	store *memoryStore[models.Mentor]
}

// NewMemoryMentorRepository creates an empty in-memory mentor store
func NewMemoryMentorRepository() *MemoryMentorRepository {
	return &MemoryMentorRepository{store: &memoryStore[models.Mentor]{
		resource: "mentor",
		docs:     make(map[string]*models.Mentor),
		emails:   make(map[string]string),
		clone:    (*models.Mentor).Clone,
		id:       func(m *models.Mentor) string { return m.ID },
		email:    func(m *models.Mentor) string { return m.Email },
		version:  func(m *models.Mentor) *int64 { return &m.Version },
	}}
}

func (r *MemoryMentorRepository) GetByID(_ context.Context, id string) (*models.Mentor, error) {
	return r.store.get(id)
}

func (r *MemoryMentorRepository) GetByEmail(_ context.Context, email string) (*models.Mentor, error) {
	return r.store.getByEmail(email)
}

func (r *MemoryMentorRepository) Create(_ context.Context, mentor *models.Mentor) error {
	return r.store.create(mentor)
}

func (r *MemoryMentorRepository) Save(_ context.Context, mentor *models.Mentor) error {
	return r.store.save(mentor)
}

func (r *MemoryMentorRepository) ListIDs(_ context.Context) ([]string, error) {
	return r.store.listIDs(), nil
}

// Writes returns the number of successful creates and saves
func (r *MemoryMentorRepository) Writes() int64 {
	return r.store.writes.Load()
}

// MemoryStudentRepository implements StudentRepository in process
type MemoryStudentRepository struct {
	store *memoryStore[models.Student]
}

// NewMemoryStudentRepository creates an empty in-memory student store
func NewMemoryStudentRepository() *MemoryStudentRepository {
	return &MemoryStudentRepository{store: &memoryStore[models.Student]{
		resource: "student",
		docs:     make(map[string]*models.Student),
		emails:   make(map[string]string),
		clone:    (*models.Student).Clone,
		id:       func(s *models.Student) string { return s.ID },
		email:    func(s *models.Student) string { return s.Email },
		version:  func(s *models.Student) *int64 { return &s.Version },
	}}
}

func (r *MemoryStudentRepository) GetByID(_ context.Context, id string) (*models.Student, error) {
	return r.store.get(id)
}

func (r *MemoryStudentRepository) GetByEmail(_ context.Context, email string) (*models.Student, error) {
	return r.store.getByEmail(email)
}

func (r *MemoryStudentRepository) Create(_ context.Context, student *models.Student) error {
	return r.store.create(student)
}

func (r *MemoryStudentRepository) Save(_ context.Context, student *models.Student) error {
	return r.store.save(student)
}

func (r *MemoryStudentRepository) ListIDs(_ context.Context) ([]string, error) {
	return r.store.listIDs(), nil
}

// Writes returns the number of successful creates and saves
func (r *MemoryStudentRepository) Writes() int64 {
	return r.store.writes.Load()
}

// Ensure in-memory stores implement the repository interfaces
var (
	_ MentorRepository  = (*MemoryMentorRepository)(nil)
	_ StudentRepository = (*MemoryStudentRepository)(nil)
)
