package models

import "time"

// Reference data consumed read-only by the engine. Rosters, catalogues and
// capability flags are maintained by the surrounding platform; the engine
// never writes to these tables.

// Class represents an academic class or section.
type Class struct {
	ID        string    `db:"id" json:"id"`
	SchoolID  string    `db:"school_id" json:"school_id"`
	Name      string    `db:"name" json:"name"`
	Grade     string    `db:"grade" json:"grade"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Subject represents an academic subject.
type Subject struct {
	ID        string    `db:"id" json:"id"`
	SchoolID  string    `db:"school_id" json:"school_id"`
	Code      string    `db:"code" json:"code"`
	Name      string    `db:"name" json:"name"`
	IsCore    bool      `db:"is_core" json:"is_core"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Teacher represents an instructor record.
type Teacher struct {
	ID        string    `db:"id" json:"id"`
	SchoolID  string    `db:"school_id" json:"school_id"`
	FullName  string    `db:"full_name" json:"full_name"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Room represents a teaching space with capability flags the solver filters on.
type Room struct {
	ID            string    `db:"id" json:"id"`
	SchoolID      string    `db:"school_id" json:"school_id"`
	Name          string    `db:"name" json:"name"`
	Capacity      int       `db:"capacity" json:"capacity"`
	IsLab         bool      `db:"is_lab" json:"is_lab"`
	IsComputerLab bool      `db:"is_computer_lab" json:"is_computer_lab"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// TeacherSubject marks a teacher as qualified to teach a subject.
type TeacherSubject struct {
	TeacherID string `db:"teacher_id" json:"teacher_id"`
	SubjectID string `db:"subject_id" json:"subject_id"`
}

// CurriculumLoad states how many periods per week a class needs for a subject.
// These rows are the requirement source for a generation run.
type CurriculumLoad struct {
	ID             string `db:"id" json:"id"`
	SchoolID       string `db:"school_id" json:"school_id"`
	ClassID        string `db:"class_id" json:"class_id"`
	SubjectID      string `db:"subject_id" json:"subject_id"`
	PeriodsPerWeek int    `db:"periods_per_week" json:"periods_per_week"`
}
