package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/prasit-p/school-register-api/internal/models"
	appErrors "github.com/prasit-p/school-register-api/pkg/errors"
)

type advisorReader interface {
	ListByClassroom(ctx context.Context, classroomID int64) ([]models.AdvisorInfo, error)
}

type studentReader interface {
	FindByID(ctx context.Context, id int64) (*models.Student, error)
}

type advisorTermResolver interface {
	Resolve(ctx context.Context, year string, semester int) (*models.Semester, error)
	ResolveActive(ctx context.Context) (*models.Semester, error)
}

// AdvisorService resolves a student's classroom advisors for term-aware
// display. Advisor rows are not versioned by term; the returned
// year/semester only describes the term the lookup ran under.
type AdvisorService struct {
	advisors advisorReader
	students studentReader
	terms    advisorTermResolver
	logger   *zap.Logger
}

// NewAdvisorService constructs an AdvisorService.
func NewAdvisorService(advisors advisorReader, students studentReader, terms advisorTermResolver, logger *zap.Logger) *AdvisorService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdvisorService{advisors: advisors, students: students, terms: terms, logger: logger}
}

// GetAdvisors returns the student's classroom advisors annotated with the
// resolved display term. An omitted year defaults to the active semester.
// A supplied year resolves exactly; callers needing the Buddhist-era
// cascade re-issue the call with shifted years themselves.
func (s *AdvisorService) GetAdvisors(ctx context.Context, studentID int64, year string, semester int) ([]models.AdvisorInfo, error) {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if student.ClassroomID == nil {
		return []models.AdvisorInfo{}, nil
	}

	var term *models.Semester
	if year == "" {
		term, err = s.terms.ResolveActive(ctx)
	} else {
		term, err = s.terms.Resolve(ctx, year, semester)
	}
	if err != nil {
		return nil, err
	}

	advisors, err := s.advisors.ListByClassroom(ctx, *student.ClassroomID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list advisors")
	}

	for i := range advisors {
		advisors[i].Year = term.AcademicYear
		advisors[i].Semester = term.Semester
	}
	return advisors, nil
}
