package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/prasit-p/school-register-api/internal/models"
	appErrors "github.com/prasit-p/school-register-api/pkg/errors"
)

type mockSemesterRepo struct {
	byYear        map[string]*models.Semester
	active        *models.Semester
	latest        *models.Semester
	latestSection *models.Semester
	latestStudent map[int64]*models.Semester
	list          []models.Semester
}

func semKey(year string, semester int) string {
	return year + "#" + string(rune('0'+semester))
}

func (m *mockSemesterRepo) FindByYearAndSemester(ctx context.Context, year string, semester int) (*models.Semester, error) {
	if sem, ok := m.byYear[semKey(year, semester)]; ok {
		return sem, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockSemesterRepo) FindByID(ctx context.Context, id int64) (*models.Semester, error) {
	for _, sem := range m.byYear {
		if sem.ID == id {
			return sem, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockSemesterRepo) FindActive(ctx context.Context) (*models.Semester, error) {
	if m.active == nil {
		return nil, sql.ErrNoRows
	}
	return m.active, nil
}

func (m *mockSemesterRepo) FindLatest(ctx context.Context) (*models.Semester, error) {
	if m.latest == nil {
		return nil, sql.ErrNoRows
	}
	return m.latest, nil
}

func (m *mockSemesterRepo) FindLatestWithSections(ctx context.Context) (*models.Semester, error) {
	if m.latestSection == nil {
		return nil, sql.ErrNoRows
	}
	return m.latestSection, nil
}

func (m *mockSemesterRepo) FindLatestWithRegistrations(ctx context.Context, studentID int64) (*models.Semester, error) {
	if sem, ok := m.latestStudent[studentID]; ok {
		return sem, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockSemesterRepo) List(ctx context.Context) ([]models.Semester, error) {
	return m.list, nil
}

func TestTermServiceResolveCascadeExact(t *testing.T) {
	repo := &mockSemesterRepo{byYear: map[string]*models.Semester{
		semKey("2567", 1): {ID: 10, Semester: 1, AcademicYear: "2567"},
	}}
	svc := NewTermService(repo, zap.NewNop())

	res, err := svc.ResolveCascade(context.Background(), "2567", 1, TermScope{})
	require.NoError(t, err)
	assert.Equal(t, models.StepExact, res.Step)
	assert.Equal(t, int64(10), res.SemesterID)
	assert.Equal(t, "2567", res.Year)
}

func TestTermServiceResolveCascadeBuddhistShift(t *testing.T) {
	repo := &mockSemesterRepo{byYear: map[string]*models.Semester{
		semKey("2567", 1): {ID: 10, Semester: 1, AcademicYear: "2567"},
	}}
	svc := NewTermService(repo, zap.NewNop())

	res, err := svc.ResolveCascade(context.Background(), "2024", 1, TermScope{})
	require.NoError(t, err)
	assert.Equal(t, models.StepBuddhistShift, res.Step)
	assert.Equal(t, "2567", res.Year)
}

func TestTermServiceResolveCascadeNoShiftForBigYears(t *testing.T) {
	// a BE-looking year that misses must not be shifted again
	repo := &mockSemesterRepo{
		byYear: map[string]*models.Semester{
			semKey("3110", 1): {ID: 99, Semester: 1, AcademicYear: "3110"},
		},
		latest: &models.Semester{ID: 7, Semester: 2, AcademicYear: "2566"},
	}
	svc := NewTermService(repo, zap.NewNop())

	res, err := svc.ResolveCascade(context.Background(), "2567", 1, TermScope{})
	require.NoError(t, err)
	assert.Equal(t, models.StepLatest, res.Step)
	assert.Equal(t, "2566", res.Year)
}

func TestTermServiceResolveCascadeLatestScopes(t *testing.T) {
	repo := &mockSemesterRepo{
		latest:        &models.Semester{ID: 1, Semester: 1, AcademicYear: "2565"},
		latestSection: &models.Semester{ID: 2, Semester: 2, AcademicYear: "2566"},
		latestStudent: map[int64]*models.Semester{42: {ID: 3, Semester: 1, AcademicYear: "2567"}},
	}
	svc := NewTermService(repo, zap.NewNop())

	res, err := svc.ResolveCascade(context.Background(), "1999", 1, TermScope{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.SemesterID)

	res, err = svc.ResolveCascade(context.Background(), "1999", 1, TermScope{Sections: true})
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.SemesterID)

	res, err = svc.ResolveCascade(context.Background(), "1999", 1, TermScope{StudentID: 42})
	require.NoError(t, err)
	assert.Equal(t, int64(3), res.SemesterID)
	assert.Equal(t, models.StepLatest, res.Step)
}

func TestTermServiceResolveCascadeExhausted(t *testing.T) {
	repo := &mockSemesterRepo{}
	svc := NewTermService(repo, zap.NewNop())

	_, err := svc.ResolveCascade(context.Background(), "2567", 1, TermScope{StudentID: 7})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrTermNotFound.Code, appErr.Code)
}

func TestTermServiceResolveCascadeRejectsBadInput(t *testing.T) {
	svc := NewTermService(&mockSemesterRepo{}, zap.NewNop())

	_, err := svc.ResolveCascade(context.Background(), "abc", 1, TermScope{})
	require.Error(t, err)

	_, err = svc.ResolveCascade(context.Background(), "2567", 0, TermScope{})
	require.Error(t, err)
}

func TestTermServiceResolveIsLiteral(t *testing.T) {
	repo := &mockSemesterRepo{byYear: map[string]*models.Semester{
		semKey("2567", 1): {ID: 10, Semester: 1, AcademicYear: "2567"},
	}}
	svc := NewTermService(repo, zap.NewNop())

	_, err := svc.Resolve(context.Background(), "2024", 1)
	require.Error(t, err)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrTermNotFound.Code, appErr.Code)

	sem, err := svc.Resolve(context.Background(), "2567", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(10), sem.ID)
}

func TestTermServiceResolveActive(t *testing.T) {
	repo := &mockSemesterRepo{active: &models.Semester{ID: 5, Semester: 2, AcademicYear: "2567", IsActive: true}}
	svc := NewTermService(repo, zap.NewNop())

	sem, err := svc.ResolveActive(context.Background())
	require.NoError(t, err)
	assert.True(t, sem.IsActive)

	_, err = NewTermService(&mockSemesterRepo{}, zap.NewNop()).ResolveActive(context.Background())
	require.Error(t, err)
}
