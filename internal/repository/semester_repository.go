package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/prasit-p/school-register-api/internal/models"
)

// SemesterRepository reads semesters and their academic-year labels.
type SemesterRepository struct {
	db *sqlx.DB
}

// NewSemesterRepository constructs the repository.
func NewSemesterRepository(db *sqlx.DB) *SemesterRepository {
	return &SemesterRepository{db: db}
}

const semesterColumns = `s.id, s.semester, s.academic_year_id, s.is_active, y.name AS academic_year`

// FindByYearAndSemester matches the stored academic-year name against the
// literal year text. No numeric coercion happens here; the Buddhist-era
// retry is the caller's cascade.
func (r *SemesterRepository) FindByYearAndSemester(ctx context.Context, year string, semester int) (*models.Semester, error) {
	query := fmt.Sprintf(`SELECT %s FROM semesters s
JOIN academic_years y ON y.id = s.academic_year_id
WHERE y.name = $1 AND s.semester = $2`, semesterColumns)
	var sem models.Semester
	if err := r.db.GetContext(ctx, &sem, query, year, semester); err != nil {
		return nil, err
	}
	return &sem, nil
}

// FindByID returns a semester row by primary key.
func (r *SemesterRepository) FindByID(ctx context.Context, id int64) (*models.Semester, error) {
	query := fmt.Sprintf(`SELECT %s FROM semesters s
JOIN academic_years y ON y.id = s.academic_year_id
WHERE s.id = $1`, semesterColumns)
	var sem models.Semester
	if err := r.db.GetContext(ctx, &sem, query, id); err != nil {
		return nil, err
	}
	return &sem, nil
}

// FindActive returns the single semester flagged as currently active.
func (r *SemesterRepository) FindActive(ctx context.Context) (*models.Semester, error) {
	query := fmt.Sprintf(`SELECT %s FROM semesters s
JOIN academic_years y ON y.id = s.academic_year_id
WHERE s.is_active = true
LIMIT 1`, semesterColumns)
	var sem models.Semester
	if err := r.db.GetContext(ctx, &sem, query); err != nil {
		return nil, err
	}
	return &sem, nil
}

// FindLatest returns the most recent semester overall, ranked by the year
// label descending then semester number descending.
func (r *SemesterRepository) FindLatest(ctx context.Context) (*models.Semester, error) {
	query := fmt.Sprintf(`SELECT %s FROM semesters s
JOIN academic_years y ON y.id = s.academic_year_id
ORDER BY y.name DESC, s.semester DESC
LIMIT 1`, semesterColumns)
	var sem models.Semester
	if err := r.db.GetContext(ctx, &sem, query); err != nil {
		return nil, err
	}
	return &sem, nil
}

// FindLatestWithSections returns the most recent semester that has any
// teaching assignment.
func (r *SemesterRepository) FindLatestWithSections(ctx context.Context) (*models.Semester, error) {
	query := fmt.Sprintf(`SELECT %s FROM semesters s
JOIN academic_years y ON y.id = s.academic_year_id
WHERE EXISTS (SELECT 1 FROM teaching_assignments ta WHERE ta.semester_id = s.id)
ORDER BY y.name DESC, s.semester DESC
LIMIT 1`, semesterColumns)
	var sem models.Semester
	if err := r.db.GetContext(ctx, &sem, query); err != nil {
		return nil, err
	}
	return &sem, nil
}

// FindLatestWithRegistrations returns the most recent semester in which the
// student holds any registration row.
func (r *SemesterRepository) FindLatestWithRegistrations(ctx context.Context, studentID int64) (*models.Semester, error) {
	query := fmt.Sprintf(`SELECT %s FROM semesters s
JOIN academic_years y ON y.id = s.academic_year_id
WHERE EXISTS (
	SELECT 1 FROM registrations r
	JOIN teaching_assignments ta ON ta.id = r.section_id
	WHERE ta.semester_id = s.id AND r.student_id = $1
)
ORDER BY y.name DESC, s.semester DESC
LIMIT 1`, semesterColumns)
	var sem models.Semester
	if err := r.db.GetContext(ctx, &sem, query, studentID); err != nil {
		return nil, err
	}
	return &sem, nil
}

// List returns all semesters, newest first, for the term picker.
func (r *SemesterRepository) List(ctx context.Context) ([]models.Semester, error) {
	query := fmt.Sprintf(`SELECT %s FROM semesters s
JOIN academic_years y ON y.id = s.academic_year_id
ORDER BY y.name DESC, s.semester DESC`, semesterColumns)
	var semesters []models.Semester
	if err := r.db.SelectContext(ctx, &semesters, query); err != nil {
		return nil, fmt.Errorf("list semesters: %w", err)
	}
	return semesters, nil
}
