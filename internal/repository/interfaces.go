package repository

import (
	"context"

	"github.com/getmentor/mentorship-api/internal/models"
)

// MentorRepository is the persistence collaborator for mentor aggregates.
// Every call loads or stores a whole document; saves are atomic per document.
type MentorRepository interface {
	// GetByID returns a private copy of the mentor or an ErrNotFound error
	GetByID(ctx context.Context, id string) (*models.Mentor, error)

	// GetByEmail uses the unique email index
	GetByEmail(ctx context.Context, email string) (*models.Mentor, error)

	// Create stores a new aggregate at version 1; a taken email yields ErrConflict
	Create(ctx context.Context, mentor *models.Mentor) error

	// Save replaces the document if its stored version still equals mentor.Version,
	// then bumps mentor.Version. A stale version yields ErrVersionConflict.
	Save(ctx context.Context, mentor *models.Mentor) error

	// ListIDs returns every mentor ID, used by the reconciliation pass
	ListIDs(ctx context.Context) ([]string, error)
}

// StudentRepository is the persistence collaborator for student aggregates
type StudentRepository interface {
	GetByID(ctx context.Context, id string) (*models.Student, error)
	GetByEmail(ctx context.Context, email string) (*models.Student, error)
	Create(ctx context.Context, student *models.Student) error
	Save(ctx context.Context, student *models.Student) error
	ListIDs(ctx context.Context) ([]string, error)
}
