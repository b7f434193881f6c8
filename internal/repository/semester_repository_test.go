package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func semesterRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "semester", "academic_year_id", "is_active", "academic_year"})
}

func TestSemesterRepositoryFindByYearAndSemesterIsLiteral(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSemesterRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE y.name = $1 AND s.semester = $2")).
		WithArgs("2567", 1).
		WillReturnRows(semesterRows().AddRow(int64(3), 1, int64(2), false, "2567"))

	sem, err := repo.FindByYearAndSemester(context.Background(), "2567", 1)
	require.NoError(t, err)
	assert.Equal(t, "2567", sem.AcademicYear)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE y.name = $1 AND s.semester = $2")).
		WithArgs("2024", 1).
		WillReturnRows(semesterRows())

	_, err = repo.FindByYearAndSemester(context.Background(), "2024", 1)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSemesterRepositoryFindActive(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSemesterRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE s.is_active = true")).
		WillReturnRows(semesterRows().AddRow(int64(5), 2, int64(3), true, "2567"))

	sem, err := repo.FindActive(context.Background())
	require.NoError(t, err)
	assert.True(t, sem.IsActive)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSemesterRepositoryFindLatestWithRegistrations(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSemesterRepository(db)

	mock.ExpectQuery(`WHERE ta.semester_id = s.id AND r.student_id = \$1`).
		WithArgs(int64(1001)).
		WillReturnRows(semesterRows().AddRow(int64(4), 1, int64(3), false, "2566"))

	sem, err := repo.FindLatestWithRegistrations(context.Background(), 1001)
	require.NoError(t, err)
	assert.Equal(t, "2566", sem.AcademicYear)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSemesterRepositoryList(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSemesterRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY y.name DESC, s.semester DESC")).
		WillReturnRows(semesterRows().
			AddRow(int64(5), 2, int64(3), true, "2567").
			AddRow(int64(4), 1, int64(3), false, "2567"))

	semesters, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, semesters, 2)
	assert.Equal(t, 2, semesters[0].Semester)
	assert.NoError(t, mock.ExpectationsWereMet())
}
