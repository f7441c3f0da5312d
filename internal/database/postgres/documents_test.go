package postgres

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"testing"

	"github.com/getmentor/mentorship-api/internal/models"
	"github.com/getmentor/mentorship-api/pkg/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	for i, d := range dest {
		switch p := d.(type) {
		case *[]byte:
			*p = r.values[i].([]byte)
		case *int64:
			*p = r.values[i].(int64)
		case *bool:
			*p = r.values[i].(bool)
		}
	}
	return nil
}

type fakeDB struct {
	execTag  pgconn.CommandTag
	execErr  error
	rows     []fakeRow
	execArgs []any
}

func (f *fakeDB) Exec(_ context.Context, _ string, args ...any) (pgconn.CommandTag, error) {
	f.execArgs = args
	return f.execTag, f.execErr
}

func (f *fakeDB) Query(_ context.Context, _ string, _ ...any) (pgx.Rows, error) {
	return nil, stderrors.New("not implemented")
}

func (f *fakeDB) QueryRow(_ context.Context, _ string, _ ...any) pgx.Row {
	row := f.rows[0]
	f.rows = f.rows[1:]
	return row
}

func mentorStoreWith(db DBTX) *MentorStore {
	return (&Client{db: db}).NewMentorStore()
}

func TestMentorStore_GetByID_DecodesDocumentAndVersion(t *testing.T) {
	doc, err := json.Marshal(&models.Mentor{ID: "m1", Email: "a@example.com", Capacity: models.NewCapacity(3)})
	require.NoError(t, err)

	store := mentorStoreWith(&fakeDB{rows: []fakeRow{{values: []any{doc, int64(7)}}}})
	m, err := store.GetByID(context.Background(), "m1")
	require.NoError(t, err)
	assert.Equal(t, "m1", m.ID)
	assert.Equal(t, int64(7), m.Version)
	assert.Equal(t, 3, m.Capacity.MaxActiveStudents())
}

func TestMentorStore_GetByID_NotFound(t *testing.T) {
	store := mentorStoreWith(&fakeDB{rows: []fakeRow{{err: pgx.ErrNoRows}}})
	_, err := store.GetByID(context.Background(), "m1")
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestMentorStore_Save(t *testing.T) {
	tests := []struct {
		name        string
		db          *fakeDB
		wantErr     error
		wantVersion int64
	}{
		{
			name:        "version matches",
			db:          &fakeDB{execTag: pgconn.NewCommandTag("UPDATE 1")},
			wantVersion: 4,
		},
		{
			name:        "stale version",
			db:          &fakeDB{execTag: pgconn.NewCommandTag("UPDATE 0"), rows: []fakeRow{{values: []any{true}}}},
			wantErr:     errors.ErrVersionConflict,
			wantVersion: 3,
		},
		{
			name:        "row missing",
			db:          &fakeDB{execTag: pgconn.NewCommandTag("UPDATE 0"), rows: []fakeRow{{values: []any{false}}}},
			wantErr:     errors.ErrNotFound,
			wantVersion: 3,
		},
		{
			name:        "email taken",
			db:          &fakeDB{execErr: &pgconn.PgError{Code: uniqueViolation}},
			wantErr:     errors.ErrConflict,
			wantVersion: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &models.Mentor{ID: "m1", Email: "a@example.com", Version: 3}
			err := mentorStoreWith(tt.db).Save(context.Background(), m)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, int64(3), tt.db.execArgs[3])
			}
			assert.Equal(t, tt.wantVersion, m.Version)
		})
	}
}

func TestMentorStore_Create_UniqueEmail(t *testing.T) {
	store := mentorStoreWith(&fakeDB{execErr: &pgconn.PgError{Code: uniqueViolation}})
	err := store.Create(context.Background(), &models.Mentor{ID: "m1", Email: "a@example.com"})
	assert.True(t, errors.Is(err, errors.ErrConflict))
}
