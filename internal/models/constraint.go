package models

import "time"

// AvailabilityKind classifies an availability record.
type AvailabilityKind string

const (
	AvailabilityAvailable   AvailabilityKind = "AVAILABLE"
	AvailabilityUnavailable AvailabilityKind = "UNAVAILABLE"
	AvailabilityPreferred   AvailabilityKind = "PREFERRED"
)

// TimeOfDay expresses a coarse daypart preference for a subject.
type TimeOfDay string

const (
	TimeOfDayMorning   TimeOfDay = "MORNING"
	TimeOfDayAfternoon TimeOfDay = "AFTERNOON"
	TimeOfDayAny       TimeOfDay = "ANY"
)

// TeacherAvailability marks a teacher's availability window on a weekday.
// One authoritative record per (teacher, day, start time); writes upsert.
type TeacherAvailability struct {
	ID        string           `db:"id" json:"id"`
	TeacherID string           `db:"teacher_id" json:"teacher_id" validate:"required"`
	DayOfWeek Weekday          `db:"day_of_week" json:"day_of_week" validate:"required"`
	StartTime string           `db:"start_time" json:"start_time" validate:"required"`
	EndTime   string           `db:"end_time" json:"end_time" validate:"required"`
	Kind      AvailabilityKind `db:"kind" json:"kind" validate:"required,oneof=AVAILABLE UNAVAILABLE PREFERRED"`
	Weight    float64          `db:"weight" json:"weight" validate:"gte=0"`
	UpdatedAt time.Time        `db:"updated_at" json:"updated_at"`
}

// RoomAvailability mirrors TeacherAvailability keyed by room.
type RoomAvailability struct {
	ID        string           `db:"id" json:"id"`
	RoomID    string           `db:"room_id" json:"room_id" validate:"required"`
	DayOfWeek Weekday          `db:"day_of_week" json:"day_of_week" validate:"required"`
	StartTime string           `db:"start_time" json:"start_time" validate:"required"`
	EndTime   string           `db:"end_time" json:"end_time" validate:"required"`
	Kind      AvailabilityKind `db:"kind" json:"kind" validate:"required,oneof=AVAILABLE UNAVAILABLE PREFERRED"`
	Weight    float64          `db:"weight" json:"weight" validate:"gte=0"`
	UpdatedAt time.Time        `db:"updated_at" json:"updated_at"`
}

// SubjectRequirement captures room and placement needs for a subject.
// One authoritative record per subject; writes upsert.
type SubjectRequirement struct {
	SubjectID             string    `db:"subject_id" json:"subject_id" validate:"required"`
	RequiresLab           bool      `db:"requires_lab" json:"requires_lab"`
	RequiresComputerLab   bool      `db:"requires_computer_lab" json:"requires_computer_lab"`
	RequiresDoublePeriod  bool      `db:"requires_double_period" json:"requires_double_period"`
	PreferredTimeOfDay    TimeOfDay `db:"preferred_time_of_day" json:"preferred_time_of_day" validate:"omitempty,oneof=MORNING AFTERNOON ANY"`
	MaxConsecutivePeriods int       `db:"max_consecutive_periods" json:"max_consecutive_periods" validate:"gte=0"`
	UpdatedAt             time.Time `db:"updated_at" json:"updated_at"`
}
