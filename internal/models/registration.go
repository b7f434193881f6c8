package models

import "time"

// RegistrationStatus represents the two live states of a registration row.
// Removal deletes the row; there is no terminal status.
type RegistrationStatus string

const (
	RegistrationStatusCart     RegistrationStatus = "cart"
	RegistrationStatusEnrolled RegistrationStatus = "enrolled"
)

// Registration joins a student to a section. A unique key on
// (student_id, section_id) backs the duplicate-prevention invariant even
// when concurrent pre-checks race.
type Registration struct {
	ID         int64              `db:"id" json:"id"`
	StudentID  int64              `db:"student_id" json:"student_id"`
	SectionID  int64              `db:"section_id" json:"section_id"`
	Status     RegistrationStatus `db:"status" json:"status"`
	EnrolledAt *time.Time         `db:"enrolled_at" json:"enrolled_at,omitempty"`
	CreatedAt  time.Time          `db:"created_at" json:"created_at"`
}

// RegistrationView enriches a registration row with the same flat section
// fields the catalog exposes.
type RegistrationView struct {
	ID            int64              `db:"id" json:"id"`
	Status        RegistrationStatus `db:"status" json:"status"`
	EnrolledAt    *time.Time         `db:"enrolled_at" json:"enrolled_at,omitempty"`
	SectionID     int64              `db:"section_id" json:"section_id"`
	SubjectCode   string             `db:"subject_code" json:"subject_code"`
	SubjectName   string             `db:"subject_name" json:"subject_name"`
	Credit        float64            `db:"credit" json:"credit"`
	TeacherName   string             `db:"teacher_name" json:"teacher_name"`
	ClassLevel    string             `db:"class_level" json:"class_level"`
	Room          string             `db:"room" json:"room"`
	Capacity      int                `db:"capacity" json:"capacity"`
	EnrolledCount int                `db:"enrolled_count" json:"enrolled_count"`
	Year          string             `db:"year" json:"year"`
	Semester      int                `db:"semester" json:"semester"`
	Schedules     []ScheduleEntry    `json:"schedules"`
}

// ListMode selects which registration rows a listing returns.
type ListMode string

const (
	// ListModeCart returns provisional cart rows only.
	ListModeCart ListMode = "cart"
	// ListModeRegistered returns everything except cart rows.
	ListModeRegistered ListMode = "registered"
)

// SubjectHold describes the active registration that blocks a second
// section of the same subject in the same semester.
type SubjectHold struct {
	RegistrationID int64              `db:"registration_id"`
	SectionID      int64              `db:"section_id"`
	SubjectName    string             `db:"subject_name"`
	Status         RegistrationStatus `db:"status"`
}
