package dto

// UpdateScheduleConfigRequest upserts the scheduling parameters for a school.
type UpdateScheduleConfigRequest struct {
	SchoolID                   string          `json:"schoolId" validate:"required"`
	PeriodsPerDay              int             `json:"periodsPerDay" validate:"required,min=1,max=12"`
	WorkingDays                []string        `json:"workingDays" validate:"required,min=1,dive,required"`
	PeriodDurationMinutes      int             `json:"periodDurationMinutes" validate:"required,min=20,max=120"`
	BreakPeriods               []int           `json:"breakPeriods" validate:"omitempty,dive,min=1"`
	MaxPeriodsPerTeacherPerDay int             `json:"maxPeriodsPerTeacherPerDay" validate:"gte=0"`
	MinGapBetweenSameSubject   int             `json:"minGapBetweenSameSubject" validate:"gte=0"`
	AllowDoublePeriods         bool            `json:"allowDoublePeriods"`
	PreferMorningForCore       bool            `json:"preferMorningForCore"`
	Weights                    *WeightsRequest `json:"weights" validate:"omitempty"`
}

// WeightsRequest overrides the optimization weights. Omitted fields keep the
// defaults.
type WeightsRequest struct {
	Conflicts    float64 `json:"conflicts" validate:"gte=0"`
	Preferences  float64 `json:"preferences" validate:"gte=0"`
	Distribution float64 `json:"distribution" validate:"gte=0"`
	Workload     float64 `json:"workload" validate:"gte=0"`
}
