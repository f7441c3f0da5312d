package postgres

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/getmentor/mentorship-api/internal/models"
	"github.com/getmentor/mentorship-api/internal/repository"
	"github.com/getmentor/mentorship-api/pkg/errors"
	"github.com/getmentor/mentorship-api/pkg/logger"
	"github.com/getmentor/mentorship-api/pkg/metrics"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

const uniqueViolation = "23505"

// documentStore persists one aggregate per row as JSONB with a version column
type documentStore[T any] struct {
	db       DBTX
	table    string
	resource string

	id      func(*T) string
	email   func(*T) string
	version func(*T) *int64
}

func (s *documentStore[T]) getBy(ctx context.Context, operation, column, value string) (*T, error) {
	start := time.Now()

	// column is one of two fixed identifiers, never user input
	query := fmt.Sprintf(`SELECT document, version FROM %s WHERE %s = $1`, s.table, column)
	if column == "email" {
		query = fmt.Sprintf(`SELECT document, version FROM %s WHERE LOWER(email) = LOWER($1)`, s.table)
	}

	var raw []byte
	var version int64
	err := s.db.QueryRow(ctx, query, value).Scan(&raw, &version)
	duration := metrics.MeasureDuration(start)

	if stderrors.Is(err, pgx.ErrNoRows) {
		recordMetrics(operation, "not_found", duration)
		return nil, errors.NotFoundError(s.resource, errors.IDs{RecordID: value})
	}
	if err != nil {
		recordMetrics(operation, "error", duration)
		logger.LogAPICall("postgres", operation, "error", duration, zap.Error(err))
		return nil, fmt.Errorf("failed to query %s: %w", s.resource, err)
	}

	doc := new(T)
	if err := json.Unmarshal(raw, doc); err != nil {
		recordMetrics(operation, "error", duration)
		return nil, fmt.Errorf("failed to decode %s document: %w", s.resource, err)
	}
	*s.version(doc) = version

	recordMetrics(operation, "success", duration)
	return doc, nil
}

func (s *documentStore[T]) create(ctx context.Context, operation string, doc *T) error {
	start := time.Now()

	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode %s document: %w", s.resource, err)
	}

	query := fmt.Sprintf(`INSERT INTO %s (id, email, document, version) VALUES ($1, $2, $3, 1)`, s.table)
	_, err = s.db.Exec(ctx, query, s.id(doc), strings.TrimSpace(s.email(doc)), raw)
	duration := metrics.MeasureDuration(start)

	if isUniqueViolation(err) {
		recordMetrics(operation, "conflict", duration)
		return errors.ConflictError("email", "email already registered")
	}
	if err != nil {
		recordMetrics(operation, "error", duration)
		logger.LogAPICall("postgres", operation, "error", duration, zap.Error(err))
		return fmt.Errorf("failed to insert %s: %w", s.resource, err)
	}

	*s.version(doc) = 1
	recordMetrics(operation, "success", duration)
	logger.LogAPICall("postgres", operation, "success", duration, zap.String("id", s.id(doc)))
	return nil
}

// save replaces the document only if the stored version is unchanged
func (s *documentStore[T]) save(ctx context.Context, operation string, doc *T) error {
	start := time.Now()

	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode %s document: %w", s.resource, err)
	}

	id := s.id(doc)
	expected := *s.version(doc)
	query := fmt.Sprintf(`
		UPDATE %s
		SET document = $1, email = $2, version = version + 1, updated_at = NOW()
		WHERE id = $3 AND version = $4
	`, s.table)
	result, err := s.db.Exec(ctx, query, raw, strings.TrimSpace(s.email(doc)), id, expected)
	duration := metrics.MeasureDuration(start)

	if isUniqueViolation(err) {
		recordMetrics(operation, "conflict", duration)
		return errors.ConflictError("email", "email already registered")
	}
	if err != nil {
		recordMetrics(operation, "error", duration)
		logger.LogAPICall("postgres", operation, "error", duration, zap.Error(err))
		return fmt.Errorf("failed to update %s: %w", s.resource, err)
	}

	if result.RowsAffected() == 0 {
		var exists bool
		existsQuery := fmt.Sprintf(`SELECT EXISTS(SELECT 1 FROM %s WHERE id = $1)`, s.table)
		if err := s.db.QueryRow(ctx, existsQuery, id).Scan(&exists); err != nil {
			recordMetrics(operation, "error", duration)
			return fmt.Errorf("failed to check %s existence: %w", s.resource, err)
		}
		if !exists {
			recordMetrics(operation, "not_found", duration)
			return errors.NotFoundError(s.resource, errors.IDs{RecordID: id})
		}
		recordMetrics(operation, "version_conflict", duration)
		return fmt.Errorf("%s %s at version %d: %w", s.resource, id, expected, errors.ErrVersionConflict)
	}

	*s.version(doc) = expected + 1
	recordMetrics(operation, "success", duration)
	return nil
}

func (s *documentStore[T]) listIDs(ctx context.Context, operation string) ([]string, error) {
	start := time.Now()

	rows, err := s.db.Query(ctx, fmt.Sprintf(`SELECT id FROM %s ORDER BY id`, s.table))
	if err != nil {
		duration := metrics.MeasureDuration(start)
		recordMetrics(operation, "error", duration)
		logger.LogAPICall("postgres", operation, "error", duration, zap.Error(err))
		return nil, fmt.Errorf("failed to list %s ids: %w", s.resource, err)
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			recordMetrics(operation, "error", metrics.MeasureDuration(start))
			return nil, fmt.Errorf("failed to scan %s id: %w", s.resource, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		recordMetrics(operation, "error", metrics.MeasureDuration(start))
		return nil, fmt.Errorf("error iterating %s ids: %w", s.resource, err)
	}

	recordMetrics(operation, "success", metrics.MeasureDuration(start))
	return ids, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return stderrors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// MentorStore implements repository.MentorRepository on the mentors table
type MentorStore struct {
	docs *documentStore[models.Mentor]
}

// NewMentorStore creates a mentor store backed by the client's pool
func (c *Client) NewMentorStore() *MentorStore {
	return &MentorStore{docs: &documentStore[models.Mentor]{
		db:       c.db,
		table:    "mentors",
		resource: "mentor",
		id:       func(m *models.Mentor) string { return m.ID },
		email:    func(m *models.Mentor) string { return m.Email },
		version:  func(m *models.Mentor) *int64 { return &m.Version },
	}}
}

func (s *MentorStore) GetByID(ctx context.Context, id string) (*models.Mentor, error) {
	return s.docs.getBy(ctx, "getMentorByID", "id", id)
}

func (s *MentorStore) GetByEmail(ctx context.Context, email string) (*models.Mentor, error) {
	return s.docs.getBy(ctx, "getMentorByEmail", "email", email)
}

func (s *MentorStore) Create(ctx context.Context, mentor *models.Mentor) error {
	return s.docs.create(ctx, "createMentor", mentor)
}

func (s *MentorStore) Save(ctx context.Context, mentor *models.Mentor) error {
	return s.docs.save(ctx, "saveMentor", mentor)
}

func (s *MentorStore) ListIDs(ctx context.Context) ([]string, error) {
	return s.docs.listIDs(ctx, "listMentorIDs")
}

// StudentStore implements repository.StudentRepository on the students table
type StudentStore struct {
	docs *documentStore[models.Student]
}

// NewStudentStore creates a student store backed by the client's pool
func (c *Client) NewStudentStore() *StudentStore {
	return &StudentStore{docs: &documentStore[models.Student]{
		db:       c.db,
		table:    "students",
		resource: "student",
		id:       func(s *models.Student) string { return s.ID },
		email:    func(s *models.Student) string { return s.Email },
		version:  func(s *models.Student) *int64 { return &s.Version },
	}}
}

func (s *StudentStore) GetByID(ctx context.Context, id string) (*models.Student, error) {
	return s.docs.getBy(ctx, "getStudentByID", "id", id)
}

func (s *StudentStore) GetByEmail(ctx context.Context, email string) (*models.Student, error) {
	return s.docs.getBy(ctx, "getStudentByEmail", "email", email)
}

func (s *StudentStore) Create(ctx context.Context, student *models.Student) error {
	return s.docs.create(ctx, "createStudent", student)
}

func (s *StudentStore) Save(ctx context.Context, student *models.Student) error {
	return s.docs.save(ctx, "saveStudent", student)
}

func (s *StudentStore) ListIDs(ctx context.Context) ([]string, error) {
	return s.docs.listIDs(ctx, "listStudentIDs")
}

// Ensure the Postgres stores implement the repository interfaces
var (
	_ repository.MentorRepository  = (*MentorStore)(nil)
	_ repository.StudentRepository = (*StudentStore)(nil)
)
