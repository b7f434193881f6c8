package models

// AcademicYear carries the textual year label. Historical data entry mixed
// Buddhist Era and Gregorian numbers in the same column, so Name is matched
// as a literal string and never coerced to a number.
type AcademicYear struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// Semester identifies one school half-year inside an academic year.
type Semester struct {
	ID             int64  `db:"id" json:"id"`
	Semester       int    `db:"semester" json:"semester"`
	AcademicYearID int64  `db:"academic_year_id" json:"academic_year_id"`
	AcademicYear   string `db:"academic_year" json:"academic_year"`
	IsActive       bool   `db:"is_active" json:"is_active"`
}

// ResolutionStep names the cascade step that produced a term resolution.
type ResolutionStep string

const (
	// StepExact means the requested year/semester matched as given.
	StepExact ResolutionStep = "exact"
	// StepBuddhistShift means the match succeeded after adding 543 to a
	// presumably Gregorian year.
	StepBuddhistShift ResolutionStep = "buddhist_shift"
	// StepLatest means no targeted lookup matched and the most recent
	// semester with data was substituted.
	StepLatest ResolutionStep = "latest"
)

// TermResolution reports which semester a request was resolved to and how.
// Handlers surface it in response meta so the UI can tell the user when the
// displayed year/semester differs from what was asked for.
type TermResolution struct {
	SemesterID int64          `json:"semester_id"`
	Year       string         `json:"year"`
	Semester   int            `json:"semester"`
	Step       ResolutionStep `json:"step"`
}
