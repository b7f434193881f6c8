package models

// Student carries the identity and classroom membership the registration
// core needs. Profile, health and behavior records live elsewhere.
type Student struct {
	ID          int64  `db:"id" json:"id"`
	FullName    string `db:"full_name" json:"full_name"`
	ClassroomID *int64 `db:"classroom_id" json:"classroom_id,omitempty"`
}

// Classroom is the homeroom grouping students belong to between terms.
type Classroom struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
	Room string `db:"room" json:"room"`
}

// Subject is the taught course unit sections are created from.
type Subject struct {
	ID     int64   `db:"id" json:"id"`
	Code   string  `db:"code" json:"code"`
	Name   string  `db:"name" json:"name"`
	Credit float64 `db:"credit" json:"credit"`
}

// Teacher is the minimal staff projection used for display names.
type Teacher struct {
	ID       int64  `db:"id" json:"id"`
	FullName string `db:"full_name" json:"full_name"`
}
