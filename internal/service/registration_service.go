package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/prasit-p/school-register-api/internal/models"
	"github.com/prasit-p/school-register-api/internal/repository"
	appErrors "github.com/prasit-p/school-register-api/pkg/errors"
)

type registrationRepository interface {
	FindByID(ctx context.Context, id int64) (*models.Registration, error)
	FindByStudentAndSection(ctx context.Context, studentID, sectionID int64) (*models.Registration, error)
	FindSubjectHold(ctx context.Context, studentID, subjectID, semesterID, excludeSectionID int64) (*models.SubjectHold, error)
	Create(ctx context.Context, reg *models.Registration) error
	ConfirmCart(ctx context.Context, studentID int64, semesterID int64, confirmedAt time.Time) (int64, error)
	Delete(ctx context.Context, id int64) error
	ListViews(ctx context.Context, studentID int64, semesterID int64, mode models.ListMode) ([]models.RegistrationView, error)
}

type cacheInvalidator interface {
	DeleteByPattern(ctx context.Context, pattern string) error
}

type registrationTermResolver interface {
	ResolveCascade(ctx context.Context, year string, semester int, scope TermScope) (*models.TermResolution, error)
}

// AddToCartRequest identifies the section a student wants to hold.
type AddToCartRequest struct {
	SectionID int64 `json:"section_id" validate:"required,gt=0"`
}

// ConfirmCartRequest optionally narrows confirmation to one semester.
type ConfirmCartRequest struct {
	SemesterID int64 `json:"semester_id"`
}

// ConfirmCartResult reports the number of rows promoted to enrolled.
type ConfirmCartResult struct {
	UpdatedCount int64 `json:"updated_count"`
}

// RegistrationListResult couples registration views with the term they
// were resolved against.
type RegistrationListResult struct {
	Registrations []models.RegistrationView `json:"registrations"`
	Term          *models.TermResolution    `json:"term,omitempty"`
}

// RegistrationService is the cart → enrolled state machine. It owns every
// business rule on the registrations table; handlers only translate HTTP.
type RegistrationService struct {
	regs      registrationRepository
	sections  sectionReader
	terms     registrationTermResolver
	cache     cacheInvalidator
	open      bool
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRegistrationService constructs a RegistrationService. open gates the
// write path; cache may be nil.
func NewRegistrationService(regs registrationRepository, sections sectionReader, terms registrationTermResolver, cache cacheInvalidator, open bool, validate *validator.Validate, logger *zap.Logger) *RegistrationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RegistrationService{regs: regs, sections: sections, terms: terms, cache: cache, open: open, validator: validate, logger: logger}
}

// AddToCart places a provisional hold on a section for the student. The
// checks run in order: section exists and is open, the exact pair is not
// already held, and no other section of the same subject is active in the
// same semester. Capacity is never checked here.
func (s *RegistrationService) AddToCart(ctx context.Context, studentID int64, req AddToCartRequest) (*models.Registration, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid cart payload")
	}
	if !s.open {
		return nil, appErrors.Clone(appErrors.ErrRegistrationClosed, "")
	}

	section, err := s.sections.FindByID(ctx, req.SectionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrSectionNotFound, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section")
	}
	if section.Status != models.SectionStatusOpen {
		return nil, appErrors.Clone(appErrors.ErrSectionClosed, "")
	}

	existing, err := s.regs.FindByStudentAndSection(ctx, studentID, section.ID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check registration")
	}
	if existing != nil {
		if existing.Status == models.RegistrationStatusCart {
			return nil, appErrors.Clone(appErrors.ErrAlreadyInCart, "")
		}
		return nil, appErrors.Clone(appErrors.ErrAlreadyEnrolled, "")
	}

	hold, err := s.regs.FindSubjectHold(ctx, studentID, section.SubjectID, section.SemesterID, section.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check subject conflict")
	}
	if hold != nil {
		return nil, appErrors.Clone(appErrors.ErrSubjectConflict,
			fmt.Sprintf("already registered for %s in this semester", hold.SubjectName))
	}

	reg := &models.Registration{
		StudentID: studentID,
		SectionID: section.ID,
		Status:    models.RegistrationStatusCart,
	}
	if err := s.regs.Create(ctx, reg); err != nil {
		if errors.Is(err, repository.ErrDuplicatePair) {
			// Lost the race against a concurrent add of the same pair;
			// the unique key held the invariant.
			return nil, appErrors.Clone(appErrors.ErrAlreadyInCart, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create registration")
	}

	s.invalidateCatalog(ctx)
	s.logger.Info("section added to cart",
		zap.Int64("student_id", studentID), zap.Int64("section_id", section.ID))
	return reg, nil
}

// ConfirmCart promotes all of the student's cart rows to enrolled, in one
// transaction, stamping a shared enrolled_at. This is the only path that
// enrolls; cart rows are never promoted implicitly.
func (s *RegistrationService) ConfirmCart(ctx context.Context, studentID int64, req ConfirmCartRequest) (*ConfirmCartResult, error) {
	if !s.open {
		return nil, appErrors.Clone(appErrors.ErrRegistrationClosed, "")
	}

	updated, err := s.regs.ConfirmCart(ctx, studentID, req.SemesterID, time.Now().UTC())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to confirm cart")
	}

	if updated > 0 {
		s.invalidateCatalog(ctx)
	}
	s.logger.Info("cart confirmed",
		zap.Int64("student_id", studentID), zap.Int64("updated", updated))
	return &ConfirmCartResult{UpdatedCount: updated}, nil
}

// Remove deletes a registration row in either state. When actingStudentID
// is non-zero the row must belong to that student; the endpoint is
// reachable from the student's own session and must not allow
// cross-student deletion.
func (s *RegistrationService) Remove(ctx context.Context, registrationID, actingStudentID int64) error {
	reg, err := s.regs.FindByID(ctx, registrationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "registration not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load registration")
	}
	if actingStudentID != 0 && reg.StudentID != actingStudentID {
		return appErrors.Clone(appErrors.ErrForbidden, "registration belongs to another student")
	}

	if err := s.regs.Delete(ctx, reg.ID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete registration")
	}

	s.invalidateCatalog(ctx)
	s.logger.Info("registration removed",
		zap.Int64("registration_id", reg.ID), zap.Int64("student_id", reg.StudentID))
	return nil
}

// List returns the student's cart or registered rows, enriched with the
// catalog's flat section fields and schedules, newest first. A year of ""
// lists across all semesters.
func (s *RegistrationService) List(ctx context.Context, studentID int64, year string, semester int, mode models.ListMode) (*RegistrationListResult, error) {
	var (
		term       *models.TermResolution
		semesterID int64
	)
	if year != "" {
		resolved, err := s.terms.ResolveCascade(ctx, year, semester, TermScope{StudentID: studentID})
		if err != nil {
			var appErr *appErrors.Error
			if errors.As(err, &appErr) && appErr.Code == appErrors.ErrTermNotFound.Code {
				return &RegistrationListResult{Registrations: []models.RegistrationView{}}, nil
			}
			return nil, err
		}
		term = resolved
		semesterID = resolved.SemesterID
	}

	views, err := s.regs.ListViews(ctx, studentID, semesterID, mode)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list registrations")
	}
	if err := s.attachSchedules(ctx, views); err != nil {
		return nil, err
	}
	return &RegistrationListResult{Registrations: views, Term: term}, nil
}

func (s *RegistrationService) attachSchedules(ctx context.Context, views []models.RegistrationView) error {
	if len(views) == 0 {
		return nil
	}
	ids := make([]int64, len(views))
	for i, v := range views {
		ids[i] = v.SectionID
	}
	rows, err := s.sections.ListSchedules(ctx, ids)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedules")
	}
	bySection := make(map[int64][]models.ScheduleEntry)
	for _, row := range rows {
		bySection[row.SectionID] = append(bySection[row.SectionID], row.ScheduleEntry)
	}
	for i := range views {
		entries := bySection[views[i].SectionID]
		if entries == nil {
			entries = []models.ScheduleEntry{}
		}
		views[i].Schedules = entries
	}
	return nil
}

func (s *RegistrationService) invalidateCatalog(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, "catalog:*"); err != nil {
		s.logger.Warn("catalog cache invalidation failed", zap.Error(err))
	}
}
