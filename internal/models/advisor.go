package models

// AdvisorInfo is one classroom advisor annotated with the term the lookup
// was resolved against. The advisor relation itself is not versioned by
// term in the schema; Year and Semester describe the display context only.
type AdvisorInfo struct {
	TeacherID     int64  `db:"teacher_id" json:"teacher_id"`
	TeacherName   string `db:"teacher_name" json:"teacher_name"`
	ClassroomID   int64  `db:"classroom_id" json:"classroom_id"`
	ClassroomName string `db:"classroom_name" json:"classroom_name"`
	Year          string `json:"year"`
	Semester      int    `json:"semester"`
}
