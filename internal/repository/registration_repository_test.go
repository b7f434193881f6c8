package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prasit-p/school-register-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestRegistrationRepositoryCreateDuplicatePair(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	mock.ExpectPrepare("INSERT INTO registrations").
		ExpectQuery().
		WillReturnError(&pq.Error{Code: pq.ErrorCode(pgUniqueViolation)})

	err := repo.Create(context.Background(), &models.Registration{StudentID: 1001, SectionID: 42})
	assert.ErrorIs(t, err, ErrDuplicatePair)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	mock.ExpectPrepare("INSERT INTO registrations").
		ExpectQuery().
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(100)))

	reg := &models.Registration{StudentID: 1001, SectionID: 42}
	require.NoError(t, repo.Create(context.Background(), reg))
	assert.Equal(t, int64(100), reg.ID)
	assert.Equal(t, models.RegistrationStatusCart, reg.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationRepositoryConfirmCart(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)
	confirmedAt := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE registrations SET status").
		WithArgs(string(models.RegistrationStatusEnrolled), confirmedAt, int64(1001), string(models.RegistrationStatusCart)).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	updated, err := repo.ConfirmCart(context.Background(), 1001, 0, confirmedAt)
	require.NoError(t, err)
	assert.Equal(t, int64(3), updated)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationRepositoryConfirmCartSemesterScope(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)
	confirmedAt := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE registrations SET status .+ AND section_id IN \(SELECT id FROM teaching_assignments WHERE semester_id = \$5\)`).
		WithArgs(string(models.RegistrationStatusEnrolled), confirmedAt, int64(1001), string(models.RegistrationStatusCart), int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	updated, err := repo.ConfirmCart(context.Background(), 1001, 3, confirmedAt)
	require.NoError(t, err)
	assert.Equal(t, int64(1), updated)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationRepositoryFindSubjectHoldNone(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	mock.ExpectQuery("SELECT r.id AS registration_id").
		WithArgs(int64(1001), int64(7), int64(3), int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"registration_id", "section_id", "status", "subject_name"}))

	hold, err := repo.FindSubjectHold(context.Background(), 1001, 7, 3, 42)
	require.NoError(t, err)
	assert.Nil(t, hold)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationRepositoryListViewsCartMode(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	rows := sqlmock.NewRows([]string{
		"id", "status", "enrolled_at", "section_id", "subject_code", "subject_name",
		"credit", "teacher_name", "class_level", "room", "capacity", "year", "semester", "enrolled_count",
	}).AddRow(int64(1), "cart", nil, int64(42), "MA101", "Mathematics", 1.5, "ครูสมศรี", "ม.4/1", "301", 40, "2567", 1, 12)

	mock.ExpectQuery(`SELECT r.id, r.status, r.enrolled_at, ta.id AS section_id`).
		WithArgs(int64(1001), string(models.RegistrationStatusCart), int64(3)).
		WillReturnRows(rows)

	views, err := repo.ListViews(context.Background(), 1001, 3, models.ListModeCart)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "MA101", views[0].SubjectCode)
	assert.Equal(t, 12, views[0].EnrolledCount)
	assert.Nil(t, views[0].EnrolledAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	mock.ExpectExec("DELETE FROM registrations WHERE id").
		WithArgs(int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), 9))
	assert.NoError(t, mock.ExpectationsWereMet())
}
