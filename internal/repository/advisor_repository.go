package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/prasit-p/school-register-api/internal/models"
)

// AdvisorRepository reads classroom advisor assignments.
type AdvisorRepository struct {
	db *sqlx.DB
}

// NewAdvisorRepository constructs the repository.
func NewAdvisorRepository(db *sqlx.DB) *AdvisorRepository {
	return &AdvisorRepository{db: db}
}

// ListByClassroom returns every advisor assigned to the classroom. A
// classroom may have more than one advisor.
func (r *AdvisorRepository) ListByClassroom(ctx context.Context, classroomID int64) ([]models.AdvisorInfo, error) {
	const query = `SELECT ca.teacher_id, COALESCE(t.full_name, '') AS teacher_name,
	ca.classroom_id, COALESCE(c.name, '') AS classroom_name
FROM classroom_advisors ca
LEFT JOIN teachers t ON t.id = ca.teacher_id
LEFT JOIN classrooms c ON c.id = ca.classroom_id
WHERE ca.classroom_id = $1
ORDER BY t.full_name ASC`
	var advisors []models.AdvisorInfo
	if err := r.db.SelectContext(ctx, &advisors, query, classroomID); err != nil {
		return nil, fmt.Errorf("list classroom advisors: %w", err)
	}
	return advisors, nil
}
