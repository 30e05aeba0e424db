package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sales440/ivy-ai-platform/internal/domain"
	"github.com/sales440/ivy-ai-platform/internal/sequence"
)

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func TestAdvanceCursorHappyPath(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewEnrollmentRepo(db)

	sentAt := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	next := sentAt.Add(72 * time.Hour)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE enrollments`).
		WithArgs("enr-1", 0, domain.EnrollmentActive, &next, nil, sentAt).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO enrollment_steps`).
		WithArgs("enr-1", 1, sentAt).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.AdvanceCursor(context.Background(), "enr-1", 0, sentAt, &next, false)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdvanceCursorLostRace(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewEnrollmentRepo(db)

	sentAt := time.Now()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE enrollments`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("enr-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectRollback()

	err := repo.AdvanceCursor(context.Background(), "enr-1", 2, sentAt, nil, false)
	assert.ErrorIs(t, err, sequence.ErrInvalidTransition)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdvanceCursorMissingEnrollment(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewEnrollmentRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE enrollments`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT EXISTS`).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectRollback()

	err := repo.AdvanceCursor(context.Background(), "gone", 0, time.Now(), nil, false)
	assert.ErrorIs(t, err, sequence.ErrNotFound)
}

func TestAdvanceCursorCompletion(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewEnrollmentRepo(db)

	sentAt := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE enrollments`).
		WithArgs("enr-1", 2, domain.EnrollmentCompleted, nil, &sentAt, sentAt).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO enrollment_steps`).
		WithArgs("enr-1", 3, sentAt).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.AdvanceCursor(context.Background(), "enr-1", 2, sentAt, nil, true)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStampEngagementUsesCoalesce(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewEnrollmentRepo(db)

	at := time.Now()
	mock.ExpectExec(`UPDATE enrollment_steps\s+SET opened_at = COALESCE\(opened_at`).
		WithArgs("enr-1", 2, at).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.StampEngagement(context.Background(), "enr-1", 2, domain.EventOpened, at)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStampEngagementRejectsOtherTypes(t *testing.T) {
	db, _ := setupMockDB(t)
	repo := NewEnrollmentRepo(db)

	err := repo.StampEngagement(context.Background(), "enr-1", 1, domain.EventBounced, time.Now())
	assert.Error(t, err)
}

func TestGetEnrollmentNotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewEnrollmentRepo(db)

	mock.ExpectQuery(`SELECT .+ FROM enrollments`).
		WithArgs("gone").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetEnrollment(context.Background(), "gone")
	assert.ErrorIs(t, err, sequence.ErrNotFound)
}
