package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/prasit-p/school-register-api/internal/models"
	"github.com/prasit-p/school-register-api/internal/repository"
	appErrors "github.com/prasit-p/school-register-api/pkg/errors"
)

type mockRegistrationRepo struct {
	byID       map[int64]*models.Registration
	byPair     map[[2]int64]*models.Registration
	holds      map[int64]*models.SubjectHold
	created    *models.Registration
	createErr  error
	confirmed  int64
	confirmSem int64
	deleted    []int64
	views      []models.RegistrationView
	viewsSem   int64
	viewsMode  models.ListMode
}

func (m *mockRegistrationRepo) FindByID(ctx context.Context, id int64) (*models.Registration, error) {
	if reg, ok := m.byID[id]; ok {
		return reg, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockRegistrationRepo) FindByStudentAndSection(ctx context.Context, studentID, sectionID int64) (*models.Registration, error) {
	if reg, ok := m.byPair[[2]int64{studentID, sectionID}]; ok {
		return reg, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockRegistrationRepo) FindSubjectHold(ctx context.Context, studentID, subjectID, semesterID, excludeSectionID int64) (*models.SubjectHold, error) {
	if hold, ok := m.holds[subjectID]; ok {
		return hold, nil
	}
	return nil, nil
}

func (m *mockRegistrationRepo) Create(ctx context.Context, reg *models.Registration) error {
	if m.createErr != nil {
		return m.createErr
	}
	reg.ID = 100
	m.created = reg
	return nil
}

func (m *mockRegistrationRepo) ConfirmCart(ctx context.Context, studentID int64, semesterID int64, confirmedAt time.Time) (int64, error) {
	m.confirmSem = semesterID
	return m.confirmed, nil
}

func (m *mockRegistrationRepo) Delete(ctx context.Context, id int64) error {
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockRegistrationRepo) ListViews(ctx context.Context, studentID int64, semesterID int64, mode models.ListMode) ([]models.RegistrationView, error) {
	m.viewsSem = semesterID
	m.viewsMode = mode
	return m.views, nil
}

type mockSectionReader struct {
	sections  map[int64]*models.Section
	summaries []models.SectionSummary
	schedules map[int64][]models.ScheduleEntry
}

func (m *mockSectionReader) FindByID(ctx context.Context, id int64) (*models.Section, error) {
	if sec, ok := m.sections[id]; ok {
		return sec, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockSectionReader) ListOpen(ctx context.Context, filter models.SectionFilter) ([]models.SectionSummary, error) {
	return m.summaries, nil
}

func (m *mockSectionReader) ListSchedules(ctx context.Context, sectionIDs []int64) ([]models.SectionScheduleRow, error) {
	var rows []models.SectionScheduleRow
	for _, id := range sectionIDs {
		for _, entry := range m.schedules[id] {
			rows = append(rows, models.SectionScheduleRow{SectionID: id, ScheduleEntry: entry})
		}
	}
	return rows, nil
}

type mockTermResolver struct {
	resolution *models.TermResolution
	active     *models.Semester
	err        error
}

func (m *mockTermResolver) ResolveCascade(ctx context.Context, year string, semester int, scope TermScope) (*models.TermResolution, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.resolution, nil
}

func (m *mockTermResolver) ResolveActive(ctx context.Context) (*models.Semester, error) {
	if m.active == nil {
		return nil, appErrors.Clone(appErrors.ErrTermNotFound, "")
	}
	return m.active, nil
}

type mockInvalidator struct {
	patterns []string
}

func (m *mockInvalidator) DeleteByPattern(ctx context.Context, pattern string) error {
	m.patterns = append(m.patterns, pattern)
	return nil
}

func openSection(id int64) *models.Section {
	return &models.Section{ID: id, SubjectID: 7, SemesterID: 3, Status: models.SectionStatusOpen, SubjectName: "Mathematics"}
}

func newRegistrationService(repo *mockRegistrationRepo, sections *mockSectionReader, cache cacheInvalidator) *RegistrationService {
	return NewRegistrationService(repo, sections, &mockTermResolver{}, cache, true, validator.New(), zap.NewNop())
}

func assertCode(t *testing.T, err error, want string) {
	t.Helper()
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, want, appErr.Code)
}

func TestAddToCartHappyPath(t *testing.T) {
	repo := &mockRegistrationRepo{}
	sections := &mockSectionReader{sections: map[int64]*models.Section{42: openSection(42)}}
	cache := &mockInvalidator{}
	svc := newRegistrationService(repo, sections, cache)

	reg, err := svc.AddToCart(context.Background(), 1001, AddToCartRequest{SectionID: 42})
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationStatusCart, reg.Status)
	assert.Equal(t, int64(1001), reg.StudentID)
	assert.Nil(t, reg.EnrolledAt)
	assert.Contains(t, cache.patterns, "catalog:*")
}

func TestAddToCartSectionMissing(t *testing.T) {
	svc := newRegistrationService(&mockRegistrationRepo{}, &mockSectionReader{}, nil)

	_, err := svc.AddToCart(context.Background(), 1001, AddToCartRequest{SectionID: 42})
	assertCode(t, err, appErrors.ErrSectionNotFound.Code)
}

func TestAddToCartSectionClosed(t *testing.T) {
	closed := openSection(42)
	closed.Status = models.SectionStatusClosed
	sections := &mockSectionReader{sections: map[int64]*models.Section{42: closed}}
	svc := newRegistrationService(&mockRegistrationRepo{}, sections, nil)

	_, err := svc.AddToCart(context.Background(), 1001, AddToCartRequest{SectionID: 42})
	assertCode(t, err, appErrors.ErrSectionClosed.Code)
}

func TestAddToCartDuplicatePair(t *testing.T) {
	sections := &mockSectionReader{sections: map[int64]*models.Section{42: openSection(42)}}

	repo := &mockRegistrationRepo{byPair: map[[2]int64]*models.Registration{
		{1001, 42}: {ID: 5, StudentID: 1001, SectionID: 42, Status: models.RegistrationStatusCart},
	}}
	svc := newRegistrationService(repo, sections, nil)
	_, err := svc.AddToCart(context.Background(), 1001, AddToCartRequest{SectionID: 42})
	assertCode(t, err, appErrors.ErrAlreadyInCart.Code)

	repo.byPair[[2]int64{1001, 42}].Status = models.RegistrationStatusEnrolled
	_, err = svc.AddToCart(context.Background(), 1001, AddToCartRequest{SectionID: 42})
	assertCode(t, err, appErrors.ErrAlreadyEnrolled.Code)
}

func TestAddToCartSubjectConflict(t *testing.T) {
	sections := &mockSectionReader{sections: map[int64]*models.Section{42: openSection(42)}}
	repo := &mockRegistrationRepo{holds: map[int64]*models.SubjectHold{
		7: {RegistrationID: 9, SectionID: 41, SubjectName: "Mathematics", Status: models.RegistrationStatusEnrolled},
	}}
	svc := newRegistrationService(repo, sections, nil)

	_, err := svc.AddToCart(context.Background(), 1001, AddToCartRequest{SectionID: 42})
	assertCode(t, err, appErrors.ErrSubjectConflict.Code)
	assert.Contains(t, err.Error(), "Mathematics")
}

func TestAddToCartLosesInsertRace(t *testing.T) {
	sections := &mockSectionReader{sections: map[int64]*models.Section{42: openSection(42)}}
	repo := &mockRegistrationRepo{createErr: repository.ErrDuplicatePair}
	svc := newRegistrationService(repo, sections, nil)

	_, err := svc.AddToCart(context.Background(), 1001, AddToCartRequest{SectionID: 42})
	assertCode(t, err, appErrors.ErrAlreadyInCart.Code)
}

func TestAddToCartClosedRegistrationPeriod(t *testing.T) {
	sections := &mockSectionReader{sections: map[int64]*models.Section{42: openSection(42)}}
	svc := NewRegistrationService(&mockRegistrationRepo{}, sections, &mockTermResolver{}, nil, false, validator.New(), zap.NewNop())

	_, err := svc.AddToCart(context.Background(), 1001, AddToCartRequest{SectionID: 42})
	assertCode(t, err, appErrors.ErrRegistrationClosed.Code)
}

func TestConfirmCart(t *testing.T) {
	repo := &mockRegistrationRepo{confirmed: 3}
	cache := &mockInvalidator{}
	svc := newRegistrationService(repo, &mockSectionReader{}, cache)

	result, err := svc.ConfirmCart(context.Background(), 1001, ConfirmCartRequest{SemesterID: 3})
	require.NoError(t, err)
	assert.Equal(t, int64(3), result.UpdatedCount)
	assert.Equal(t, int64(3), repo.confirmSem)
	assert.NotEmpty(t, cache.patterns)
}

func TestConfirmCartEmptyCartSkipsInvalidation(t *testing.T) {
	repo := &mockRegistrationRepo{confirmed: 0}
	cache := &mockInvalidator{}
	svc := newRegistrationService(repo, &mockSectionReader{}, cache)

	result, err := svc.ConfirmCart(context.Background(), 1001, ConfirmCartRequest{})
	require.NoError(t, err)
	assert.Zero(t, result.UpdatedCount)
	assert.Empty(t, cache.patterns)
}

func TestRemoveOwnership(t *testing.T) {
	repo := &mockRegistrationRepo{byID: map[int64]*models.Registration{
		9: {ID: 9, StudentID: 1001, SectionID: 42, Status: models.RegistrationStatusCart},
	}}
	svc := newRegistrationService(repo, &mockSectionReader{}, nil)

	err := svc.Remove(context.Background(), 9, 2002)
	assertCode(t, err, appErrors.ErrForbidden.Code)
	assert.Empty(t, repo.deleted)

	require.NoError(t, svc.Remove(context.Background(), 9, 1001))
	assert.Contains(t, repo.deleted, int64(9))
}

func TestRemoveStaffBypassesOwnership(t *testing.T) {
	repo := &mockRegistrationRepo{byID: map[int64]*models.Registration{
		9: {ID: 9, StudentID: 1001, SectionID: 42, Status: models.RegistrationStatusEnrolled},
	}}
	svc := newRegistrationService(repo, &mockSectionReader{}, nil)

	require.NoError(t, svc.Remove(context.Background(), 9, 0))
	assert.Contains(t, repo.deleted, int64(9))
}

func TestRemoveWithoutCacheBackend(t *testing.T) {
	repo := &mockRegistrationRepo{byID: map[int64]*models.Registration{
		9: {ID: 9, StudentID: 1001, SectionID: 42, Status: models.RegistrationStatusCart},
	}}
	// A disabled cache arrives as a typed nil pointer behind the interface;
	// invalidation must stay a no-op.
	var cache *repository.CacheRepository
	svc := newRegistrationService(repo, &mockSectionReader{}, cache)

	require.NoError(t, svc.Remove(context.Background(), 9, 1001))
	assert.Contains(t, repo.deleted, int64(9))
}

func TestRemoveMissing(t *testing.T) {
	svc := newRegistrationService(&mockRegistrationRepo{}, &mockSectionReader{}, nil)
	err := svc.Remove(context.Background(), 9, 1001)
	assertCode(t, err, appErrors.ErrNotFound.Code)
}

func TestListResolvesTermAndAttachesSchedules(t *testing.T) {
	repo := &mockRegistrationRepo{views: []models.RegistrationView{
		{ID: 1, SectionID: 42, SubjectCode: "MA101", Status: models.RegistrationStatusEnrolled},
	}}
	sections := &mockSectionReader{schedules: map[int64][]models.ScheduleEntry{
		42: {{DayOfWeek: "จันทร์", TimeRange: "08:00-09:40", Room: "301"}},
	}}
	terms := &mockTermResolver{resolution: &models.TermResolution{SemesterID: 3, Year: "2567", Semester: 1, Step: models.StepBuddhistShift}}
	svc := NewRegistrationService(repo, sections, terms, nil, true, validator.New(), zap.NewNop())

	result, err := svc.List(context.Background(), 1001, "2024", 1, models.ListModeRegistered)
	require.NoError(t, err)
	require.Len(t, result.Registrations, 1)
	assert.Len(t, result.Registrations[0].Schedules, 1)
	assert.Equal(t, int64(3), repo.viewsSem)
	assert.Equal(t, models.ListModeRegistered, repo.viewsMode)
	require.NotNil(t, result.Term)
	assert.Equal(t, models.StepBuddhistShift, result.Term.Step)
}

func TestListTermNotFoundYieldsEmpty(t *testing.T) {
	terms := &mockTermResolver{err: appErrors.Clone(appErrors.ErrTermNotFound, "")}
	svc := NewRegistrationService(&mockRegistrationRepo{}, &mockSectionReader{}, terms, nil, true, validator.New(), zap.NewNop())

	result, err := svc.List(context.Background(), 1001, "2500", 1, models.ListModeCart)
	require.NoError(t, err)
	assert.Empty(t, result.Registrations)
	assert.Nil(t, result.Term)
}
