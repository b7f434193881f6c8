package models

// SectionStatus marks whether a teaching assignment accepts registrations.
type SectionStatus string

const (
	SectionStatusOpen   SectionStatus = "open"
	SectionStatusClosed SectionStatus = "closed"
)

// Section is one subject taught by one teacher to one classroom in one
// semester (a teaching assignment).
type Section struct {
	ID          int64         `db:"id" json:"id"`
	SubjectID   int64         `db:"subject_id" json:"subject_id"`
	TeacherID   *int64        `db:"teacher_id" json:"teacher_id,omitempty"`
	ClassroomID *int64        `db:"classroom_id" json:"classroom_id,omitempty"`
	SemesterID  int64         `db:"semester_id" json:"semester_id"`
	Capacity    int           `db:"capacity" json:"capacity"`
	Status      SectionStatus `db:"status" json:"status"`
	SubjectCode string        `db:"subject_code" json:"subject_code"`
	SubjectName string        `db:"subject_name" json:"subject_name"`
}

// ScheduleEntry is one normalized meeting slot of a section. The raw
// period/day/room rows may reference missing relations; absent values
// normalize to the empty string.
type ScheduleEntry struct {
	DayOfWeek string `db:"day_of_week" json:"day_of_week"`
	TimeRange string `db:"time_range" json:"time_range"`
	Room      string `db:"room" json:"room"`
}

// SectionScheduleRow couples a schedule entry to its section for bulk loads.
type SectionScheduleRow struct {
	SectionID int64 `db:"section_id"`
	ScheduleEntry
}

// SectionSummary is the flat catalog record consumed by the UI layer.
// Capacity and EnrolledCount are informational; nothing in the write path
// enforces capacity.
type SectionSummary struct {
	SectionID     int64           `db:"section_id" json:"section_id"`
	SubjectCode   string          `db:"subject_code" json:"subject_code"`
	SubjectName   string          `db:"subject_name" json:"subject_name"`
	Credit        float64         `db:"credit" json:"credit"`
	TeacherName   string          `db:"teacher_name" json:"teacher_name"`
	ClassLevel    string          `db:"class_level" json:"class_level"`
	Room          string          `db:"room" json:"room"`
	Capacity      int             `db:"capacity" json:"capacity"`
	EnrolledCount int             `db:"enrolled_count" json:"enrolled_count"`
	Year          string          `db:"year" json:"year"`
	Semester      int             `db:"semester" json:"semester"`
	Status        string          `db:"status" json:"status"`
	Schedules     []ScheduleEntry `json:"schedules"`
}

// SectionFilter captures catalog query criteria. SemesterID of zero means
// no term filter was applied.
type SectionFilter struct {
	Keyword     string
	SemesterID  int64
	ClassroomID int64
}
