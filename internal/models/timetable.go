package models

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx/types"
)

// VersionStatus captures the lifecycle of a timetable version.
type VersionStatus string

const (
	VersionStatusDraft      VersionStatus = "DRAFT"
	VersionStatusPublished  VersionStatus = "PUBLISHED"
	VersionStatusSuperseded VersionStatus = "SUPERSEDED"
	VersionStatusDiscarded  VersionStatus = "DISCARDED"
)

// Scope identifies the (school, academic year, term) a timetable belongs to.
// Versions, publish state and run guards are all keyed by it.
type Scope struct {
	SchoolID     string `db:"school_id" json:"school_id" validate:"required"`
	AcademicYear string `db:"academic_year" json:"academic_year" validate:"required"`
	Term         string `db:"term" json:"term" validate:"required"`
}

// Key renders a stable string form for maps and cache keys.
func (s Scope) Key() string {
	return fmt.Sprintf("%s:%s:%s", s.SchoolID, s.AcademicYear, s.Term)
}

// TimetableVersion is an immutable snapshot of one generation run.
type TimetableVersion struct {
	ID string `db:"id" json:"id"`
	Scope
	Version           int            `db:"version" json:"version"`
	Status            VersionStatus  `db:"status" json:"status"`
	Algorithm         string         `db:"algorithm" json:"algorithm"`
	DurationMs        int64          `db:"duration_ms" json:"duration_ms"`
	ConflictCount     int            `db:"conflict_count" json:"conflict_count"`
	OptimizationScore float64        `db:"optimization_score" json:"optimization_score"`
	Meta              types.JSONText `db:"meta" json:"meta,omitempty"`
	CreatedAt         time.Time      `db:"created_at" json:"created_at"`
	PublishedAt       *time.Time     `db:"published_at" json:"published_at,omitempty"`
}

// VersionMeta is the structured payload stored in TimetableVersion.Meta.
type VersionMeta struct {
	Seed            int64 `json:"seed"`
	TotalUnits      int   `json:"total_units"`
	EntriesCreated  int   `json:"entries_created"`
	UnassignedCount int   `json:"unassigned_count"`
	Backtracks      int   `json:"backtracks"`
	BacktrackBound  int   `json:"backtrack_bound"`
	BoundExceeded   bool  `json:"bound_exceeded"`
}

// TimetableEntry is one placed lesson inside a version. Within a version no
// two entries may share (teacher, day, period), (class, day, period), or
// (room, day, period) when a room is set.
type TimetableEntry struct {
	ID             string    `db:"id" json:"id"`
	VersionID      string    `db:"version_id" json:"version_id"`
	ClassID        string    `db:"class_id" json:"class_id" validate:"required"`
	SubjectID      string    `db:"subject_id" json:"subject_id" validate:"required"`
	TeacherID      string    `db:"teacher_id" json:"teacher_id" validate:"required"`
	RoomID         *string   `db:"room_id" json:"room_id,omitempty"`
	DayOfWeek      Weekday   `db:"day_of_week" json:"day_of_week" validate:"required"`
	PeriodNumber   int       `db:"period_number" json:"period_number" validate:"gte=1"`
	StartTime      string    `db:"start_time" json:"start_time"`
	EndTime        string    `db:"end_time" json:"end_time"`
	IsDoublePeriod bool      `db:"is_double_period" json:"is_double_period"`
	SoftScore      float64   `db:"soft_score" json:"soft_score"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// SlotKey returns the entry's position coordinate.
func (e *TimetableEntry) SlotKey() SlotKey {
	return SlotKey{Day: e.DayOfWeek, Period: e.PeriodNumber}
}

// ConflictType enumerates the violation categories a run can surface.
type ConflictType string

const (
	ConflictTeacherDoubleBooking ConflictType = "TEACHER_DOUBLE_BOOKING"
	ConflictRoomDoubleBooking    ConflictType = "ROOM_DOUBLE_BOOKING"
	ConflictClassDoubleBooking   ConflictType = "CLASS_DOUBLE_BOOKING"
	ConflictConstraintViolation  ConflictType = "CONSTRAINT_VIOLATION"
)

// ConflictSeverity ranks how serious a conflict is.
type ConflictSeverity string

const (
	SeverityHigh   ConflictSeverity = "HIGH"
	SeverityMedium ConflictSeverity = "MEDIUM"
	SeverityLow    ConflictSeverity = "LOW"
)

// TimetableConflict describes one violation tied to a version. Conflicts are
// recomputed per run, never edited in place.
type TimetableConflict struct {
	ID           string           `db:"id" json:"id"`
	VersionID    string           `db:"version_id" json:"version_id"`
	Type         ConflictType     `db:"type" json:"type"`
	Severity     ConflictSeverity `db:"severity" json:"severity"`
	DayOfWeek    *Weekday         `db:"day_of_week" json:"day_of_week,omitempty"`
	PeriodNumber *int             `db:"period_number" json:"period_number,omitempty"`
	ClassID      *string          `db:"class_id" json:"class_id,omitempty"`
	SubjectID    *string          `db:"subject_id" json:"subject_id,omitempty"`
	TeacherID    *string          `db:"teacher_id" json:"teacher_id,omitempty"`
	RoomID       *string          `db:"room_id" json:"room_id,omitempty"`
	Detail       string           `db:"detail" json:"detail"`
	CreatedAt    time.Time        `db:"created_at" json:"created_at"`
}

// VersionFilter narrows version list queries.
type VersionFilter struct {
	SchoolID     string
	AcademicYear string
	Term         string
	Status       string
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}
