package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/prasit-p/school-register-api/internal/models"
)

// SectionRepository is the read-only query surface over teaching
// assignments and their schedule rows.
type SectionRepository struct {
	db *sqlx.DB
}

// NewSectionRepository constructs the repository.
func NewSectionRepository(db *sqlx.DB) *SectionRepository {
	return &SectionRepository{db: db}
}

// FindByID loads a single teaching assignment with its subject fields.
func (r *SectionRepository) FindByID(ctx context.Context, id int64) (*models.Section, error) {
	const query = `SELECT ta.id, ta.subject_id, ta.teacher_id, ta.classroom_id, ta.semester_id,
	ta.capacity, ta.status, sub.code AS subject_code, sub.name AS subject_name
FROM teaching_assignments ta
JOIN subjects sub ON sub.id = ta.subject_id
WHERE ta.id = $1`
	var section models.Section
	if err := r.db.GetContext(ctx, &section, query, id); err != nil {
		return nil, err
	}
	return &section, nil
}

// ListOpen returns open sections matching the filter, subject-code ordered.
// Enrolled counts include only confirmed rows so provisional cart holds do
// not show as taken seats.
func (r *SectionRepository) ListOpen(ctx context.Context, filter models.SectionFilter) ([]models.SectionSummary, error) {
	var conditions []string
	var args []interface{}

	if filter.SemesterID != 0 {
		args = append(args, filter.SemesterID)
		conditions = append(conditions, fmt.Sprintf("ta.semester_id = $%d", len(args)))
	}
	if filter.ClassroomID != 0 {
		args = append(args, filter.ClassroomID)
		conditions = append(conditions, fmt.Sprintf("ta.classroom_id = $%d", len(args)))
	}
	if filter.Keyword != "" {
		args = append(args, "%"+strings.ToLower(filter.Keyword)+"%")
		conditions = append(conditions, fmt.Sprintf("(LOWER(sub.code) LIKE $%d OR LOWER(sub.name) LIKE $%d)", len(args), len(args)))
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " AND " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf(`SELECT ta.id AS section_id, sub.code AS subject_code, sub.name AS subject_name,
	sub.credit, COALESCE(t.full_name, '') AS teacher_name,
	COALESCE(c.name, '') AS class_level, COALESCE(c.room, '') AS room,
	ta.capacity, ta.status, y.name AS year, s.semester,
	(SELECT COUNT(*) FROM registrations r WHERE r.section_id = ta.id AND r.status = 'enrolled') AS enrolled_count
FROM teaching_assignments ta
JOIN subjects sub ON sub.id = ta.subject_id
LEFT JOIN teachers t ON t.id = ta.teacher_id
LEFT JOIN classrooms c ON c.id = ta.classroom_id
JOIN semesters s ON s.id = ta.semester_id
JOIN academic_years y ON y.id = s.academic_year_id
WHERE ta.status = 'open'%s
ORDER BY sub.code ASC, ta.id ASC`, clause)

	var sections []models.SectionSummary
	if err := r.db.SelectContext(ctx, &sections, query, args...); err != nil {
		return nil, fmt.Errorf("list open sections: %w", err)
	}
	return sections, nil
}

// ListSchedules loads normalized schedule entries for the given sections.
// The period, day and room relations are joined loosely; a dangling
// reference normalizes to the empty string rather than dropping the row.
func (r *SectionRepository) ListSchedules(ctx context.Context, sectionIDs []int64) ([]models.SectionScheduleRow, error) {
	if len(sectionIDs) == 0 {
		return nil, nil
	}

	placeholders := make([]string, len(sectionIDs))
	args := make([]interface{}, len(sectionIDs))
	for i, id := range sectionIDs {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}

	query := fmt.Sprintf(`SELECT cs.section_id,
	COALESCE(d.name, '') AS day_of_week,
	COALESCE(p.time_range, '') AS time_range,
	COALESCE(rm.name, '') AS room
FROM class_schedules cs
LEFT JOIN week_days d ON d.id = cs.day_id
LEFT JOIN periods p ON p.id = cs.period_id
LEFT JOIN rooms rm ON rm.id = cs.room_id
WHERE cs.section_id IN (%s)
ORDER BY cs.section_id ASC, cs.day_id ASC, cs.period_id ASC`, strings.Join(placeholders, ","))

	var rows []models.SectionScheduleRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list section schedules: %w", err)
	}
	return rows, nil
}
