package service

import (
	"context"
	"database/sql"
	"errors"
	"strconv"

	"go.uber.org/zap"

	"github.com/prasit-p/school-register-api/internal/models"
	appErrors "github.com/prasit-p/school-register-api/pkg/errors"
)

// buddhistEraOffset converts a Gregorian year number to its Buddhist Era
// counterpart. Years at or above buddhistEraFloor are assumed to already
// be BE and are never shifted.
const (
	buddhistEraOffset = 543
	buddhistEraFloor  = 2400
)

type semesterRepository interface {
	FindByYearAndSemester(ctx context.Context, year string, semester int) (*models.Semester, error)
	FindByID(ctx context.Context, id int64) (*models.Semester, error)
	FindActive(ctx context.Context) (*models.Semester, error)
	FindLatest(ctx context.Context) (*models.Semester, error)
	FindLatestWithSections(ctx context.Context) (*models.Semester, error)
	FindLatestWithRegistrations(ctx context.Context, studentID int64) (*models.Semester, error)
	List(ctx context.Context) ([]models.Semester, error)
}

// TermScope selects which data the latest-available fallback ranks over.
type TermScope struct {
	// Sections restricts the fallback to semesters with teaching
	// assignments (catalog browsing).
	Sections bool
	// StudentID, when set, restricts the fallback to semesters in which
	// that student holds registrations.
	StudentID int64
}

// TermService resolves (year, semester) requests against academic terms
// whose stored year labels mix Buddhist Era and Gregorian conventions.
type TermService struct {
	repo   semesterRepository
	logger *zap.Logger
}

// NewTermService constructs a TermService.
func NewTermService(repo semesterRepository, logger *zap.Logger) *TermService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TermService{repo: repo, logger: logger}
}

// Resolve looks up the semester whose academic-year name equals the
// literal year string and whose number equals semester. It never retries
// with a shifted calendar; that is ResolveCascade's job.
func (s *TermService) Resolve(ctx context.Context, year string, semester int) (*models.Semester, error) {
	if _, err := strconv.Atoi(year); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "year must be numeric")
	}
	if semester < 1 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "semester must be a positive number")
	}

	sem, err := s.repo.FindByYearAndSemester(ctx, year, semester)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrTermNotFound, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve term")
	}
	return sem, nil
}

// ResolveCascade resolves a term with the full fallback chain: the year
// as given, then the Buddhist Era reinterpretation (+543 for plausibly
// Gregorian input), then the most recent semester with data in scope.
// The returned resolution names the step that succeeded so the caller can
// tell the user when the displayed term changed.
func (s *TermService) ResolveCascade(ctx context.Context, year string, semester int, scope TermScope) (*models.TermResolution, error) {
	yearNum, err := strconv.Atoi(year)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "year must be numeric")
	}
	if semester < 1 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "semester must be a positive number")
	}

	sem, err := s.lookup(ctx, year, semester)
	if err != nil {
		return nil, err
	}
	if sem != nil {
		return resolution(sem, models.StepExact), nil
	}

	if yearNum < buddhistEraFloor {
		shifted := strconv.Itoa(yearNum + buddhistEraOffset)
		sem, err = s.lookup(ctx, shifted, semester)
		if err != nil {
			return nil, err
		}
		if sem != nil {
			s.logger.Debug("term resolved via buddhist era shift",
				zap.String("requested_year", year), zap.String("matched_year", shifted))
			return resolution(sem, models.StepBuddhistShift), nil
		}
	}

	sem, err = s.latest(ctx, scope)
	if err != nil {
		return nil, err
	}
	if sem == nil {
		return nil, appErrors.Clone(appErrors.ErrTermNotFound, "")
	}
	return resolution(sem, models.StepLatest), nil
}

// ResolveLatest returns the most recent semester with data in scope,
// regardless of any requested year.
func (s *TermService) ResolveLatest(ctx context.Context, scope TermScope) (*models.TermResolution, error) {
	sem, err := s.latest(ctx, scope)
	if err != nil {
		return nil, err
	}
	if sem == nil {
		return nil, appErrors.Clone(appErrors.ErrTermNotFound, "")
	}
	return resolution(sem, models.StepLatest), nil
}

// ResolveActive returns the single semester flagged is_active. This is
// the default display term for features that take no year/semester input.
func (s *TermService) ResolveActive(ctx context.Context) (*models.Semester, error) {
	sem, err := s.repo.FindActive(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrTermNotFound, "no active term configured")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load active term")
	}
	return sem, nil
}

// Get returns a semester by ID.
func (s *TermService) Get(ctx context.Context, id int64) (*models.Semester, error) {
	sem, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrTermNotFound, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load term")
	}
	return sem, nil
}

// List returns every semester, newest first.
func (s *TermService) List(ctx context.Context) ([]models.Semester, error) {
	semesters, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list terms")
	}
	return semesters, nil
}

func (s *TermService) lookup(ctx context.Context, year string, semester int) (*models.Semester, error) {
	sem, err := s.repo.FindByYearAndSemester(ctx, year, semester)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve term")
	}
	return sem, nil
}

func (s *TermService) latest(ctx context.Context, scope TermScope) (*models.Semester, error) {
	var (
		sem *models.Semester
		err error
	)
	switch {
	case scope.StudentID != 0:
		sem, err = s.repo.FindLatestWithRegistrations(ctx, scope.StudentID)
	case scope.Sections:
		sem, err = s.repo.FindLatestWithSections(ctx)
	default:
		sem, err = s.repo.FindLatest(ctx)
	}
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to find latest term")
	}
	return sem, nil
}

func resolution(sem *models.Semester, step models.ResolutionStep) *models.TermResolution {
	return &models.TermResolution{
		SemesterID: sem.ID,
		Year:       sem.AcademicYear,
		Semester:   sem.Semester,
		Step:       step,
	}
}
