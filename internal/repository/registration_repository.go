package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/prasit-p/school-register-api/internal/models"
)

// pgUniqueViolation is the class 23 code raised when the unique key on
// (student_id, section_id) rejects a duplicate insert.
const pgUniqueViolation = "23505"

// RegistrationRepository owns the registrations table, the only shared
// mutable state in the registration core.
type RegistrationRepository struct {
	db *sqlx.DB
}

// NewRegistrationRepository constructs the repository.
func NewRegistrationRepository(db *sqlx.DB) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

// FindByID returns a registration row by primary key.
func (r *RegistrationRepository) FindByID(ctx context.Context, id int64) (*models.Registration, error) {
	const query = `SELECT id, student_id, section_id, status, enrolled_at, created_at FROM registrations WHERE id = $1`
	var reg models.Registration
	if err := r.db.GetContext(ctx, &reg, query, id); err != nil {
		return nil, err
	}
	return &reg, nil
}

// FindByStudentAndSection returns the row for the exact pair, if any.
func (r *RegistrationRepository) FindByStudentAndSection(ctx context.Context, studentID, sectionID int64) (*models.Registration, error) {
	const query = `SELECT id, student_id, section_id, status, enrolled_at, created_at
FROM registrations WHERE student_id = $1 AND section_id = $2`
	var reg models.Registration
	if err := r.db.GetContext(ctx, &reg, query, studentID, sectionID); err != nil {
		return nil, err
	}
	return &reg, nil
}

// FindSubjectHold returns the student's active registration for another
// section of the same subject in the same semester, or nil when none
// exists. Both cart and enrolled rows count as holds.
func (r *RegistrationRepository) FindSubjectHold(ctx context.Context, studentID, subjectID, semesterID, excludeSectionID int64) (*models.SubjectHold, error) {
	const query = `SELECT r.id AS registration_id, r.section_id, r.status, sub.name AS subject_name
FROM registrations r
JOIN teaching_assignments ta ON ta.id = r.section_id
JOIN subjects sub ON sub.id = ta.subject_id
WHERE r.student_id = $1 AND ta.subject_id = $2 AND ta.semester_id = $3 AND r.section_id <> $4
LIMIT 1`
	var hold models.SubjectHold
	if err := r.db.GetContext(ctx, &hold, query, studentID, subjectID, semesterID, excludeSectionID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("check subject hold: %w", err)
	}
	return &hold, nil
}

// Create inserts a cart row. The unique key on (student_id, section_id)
// is the last-resort guard when two concurrent adds race past the
// existence pre-check; that case surfaces as ErrDuplicatePair.
func (r *RegistrationRepository) Create(ctx context.Context, reg *models.Registration) error {
	if reg.Status == "" {
		reg.Status = models.RegistrationStatusCart
	}
	if reg.CreatedAt.IsZero() {
		reg.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO registrations (student_id, section_id, status, enrolled_at, created_at)
VALUES (:student_id, :section_id, :status, :enrolled_at, :created_at)
RETURNING id`
	stmt, err := r.db.PrepareNamedContext(ctx, query)
	if err != nil {
		return fmt.Errorf("prepare create registration: %w", err)
	}
	defer stmt.Close()
	if err := stmt.GetContext(ctx, &reg.ID, reg); err != nil {
		if pqErr, ok := err.(*pq.Error); ok && string(pqErr.Code) == pgUniqueViolation {
			return ErrDuplicatePair
		}
		return fmt.Errorf("create registration: %w", err)
	}
	return nil
}

// ErrDuplicatePair signals the unique (student, section) constraint fired.
var ErrDuplicatePair = fmt.Errorf("registration already exists for student and section")

// ConfirmCart promotes the student's cart rows to enrolled inside one
// transaction, optionally scoped to a semester. A single UPDATE means all
// promoted rows share one enrolled_at and a concurrent read never sees a
// half-confirmed cart.
func (r *RegistrationRepository) ConfirmCart(ctx context.Context, studentID int64, semesterID int64, confirmedAt time.Time) (int64, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin confirm transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	query := `UPDATE registrations SET status = $1, enrolled_at = $2
WHERE student_id = $3 AND status = $4`
	args := []interface{}{models.RegistrationStatusEnrolled, confirmedAt, studentID, models.RegistrationStatusCart}
	if semesterID != 0 {
		args = append(args, semesterID)
		query += fmt.Sprintf(` AND section_id IN (SELECT id FROM teaching_assignments WHERE semester_id = $%d)`, len(args))
	}

	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("confirm cart: %w", err)
	}
	updated, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("confirm cart rows affected: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit confirm: %w", err)
	}
	return updated, nil
}

// Delete removes a registration row. Removal is deletion, not a status.
func (r *RegistrationRepository) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM registrations WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete registration: %w", err)
	}
	return nil
}

// ListViews returns the student's registrations enriched with the flat
// section fields, newest enrollment first. Cart rows carry no enrolled_at
// and sort after confirmed ones by creation time.
func (r *RegistrationRepository) ListViews(ctx context.Context, studentID int64, semesterID int64, mode models.ListMode) ([]models.RegistrationView, error) {
	var conditions []string
	args := []interface{}{studentID}
	conditions = append(conditions, "r.student_id = $1")

	switch mode {
	case models.ListModeCart:
		args = append(args, models.RegistrationStatusCart)
		conditions = append(conditions, fmt.Sprintf("r.status = $%d", len(args)))
	default:
		args = append(args, models.RegistrationStatusCart)
		conditions = append(conditions, fmt.Sprintf("r.status <> $%d", len(args)))
	}
	if semesterID != 0 {
		args = append(args, semesterID)
		conditions = append(conditions, fmt.Sprintf("ta.semester_id = $%d", len(args)))
	}

	query := fmt.Sprintf(`SELECT r.id, r.status, r.enrolled_at, ta.id AS section_id,
	sub.code AS subject_code, sub.name AS subject_name, sub.credit,
	COALESCE(t.full_name, '') AS teacher_name,
	COALESCE(c.name, '') AS class_level, COALESCE(c.room, '') AS room,
	ta.capacity, y.name AS year, s.semester,
	(SELECT COUNT(*) FROM registrations re WHERE re.section_id = ta.id AND re.status = 'enrolled') AS enrolled_count
FROM registrations r
JOIN teaching_assignments ta ON ta.id = r.section_id
JOIN subjects sub ON sub.id = ta.subject_id
LEFT JOIN teachers t ON t.id = ta.teacher_id
LEFT JOIN classrooms c ON c.id = ta.classroom_id
JOIN semesters s ON s.id = ta.semester_id
JOIN academic_years y ON y.id = s.academic_year_id
WHERE %s
ORDER BY r.enrolled_at DESC NULLS LAST, r.created_at DESC`, strings.Join(conditions, " AND "))

	var views []models.RegistrationView
	if err := r.db.SelectContext(ctx, &views, query, args...); err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	return views, nil
}
