package dto

// TeacherAvailabilityRequest upserts one availability window for a teacher.
type TeacherAvailabilityRequest struct {
	TeacherID string  `json:"teacherId" validate:"required"`
	DayOfWeek string  `json:"dayOfWeek" validate:"required"`
	StartTime string  `json:"startTime" validate:"required"`
	EndTime   string  `json:"endTime" validate:"required"`
	Kind      string  `json:"kind" validate:"required,oneof=AVAILABLE UNAVAILABLE PREFERRED"`
	Weight    float64 `json:"weight" validate:"gte=0"`
}

// RoomAvailabilityRequest upserts one availability window for a room.
type RoomAvailabilityRequest struct {
	RoomID    string  `json:"roomId" validate:"required"`
	DayOfWeek string  `json:"dayOfWeek" validate:"required"`
	StartTime string  `json:"startTime" validate:"required"`
	EndTime   string  `json:"endTime" validate:"required"`
	Kind      string  `json:"kind" validate:"required,oneof=AVAILABLE UNAVAILABLE PREFERRED"`
	Weight    float64 `json:"weight" validate:"gte=0"`
}

// SubjectRequirementRequest upserts placement requirements for a subject.
type SubjectRequirementRequest struct {
	SubjectID             string `json:"subjectId" validate:"required"`
	RequiresLab           bool   `json:"requiresLab"`
	RequiresComputerLab   bool   `json:"requiresComputerLab"`
	RequiresDoublePeriod  bool   `json:"requiresDoublePeriod"`
	PreferredTimeOfDay    string `json:"preferredTimeOfDay" validate:"omitempty,oneof=MORNING AFTERNOON ANY"`
	MaxConsecutivePeriods int    `json:"maxConsecutivePeriods" validate:"gte=0"`
}
