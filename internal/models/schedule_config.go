package models

import "time"

// OptimizationWeights are relative multipliers applied to normalized quality
// metrics when scoring a generated timetable.
type OptimizationWeights struct {
	Conflicts    float64 `db:"weight_conflicts" json:"weight_conflicts" validate:"gte=0"`
	Preferences  float64 `db:"weight_preferences" json:"weight_preferences" validate:"gte=0"`
	Distribution float64 `db:"weight_distribution" json:"weight_distribution" validate:"gte=0"`
	Workload     float64 `db:"weight_workload" json:"weight_workload" validate:"gte=0"`
}

// DefaultOptimizationWeights sum to the scorer base so a maximally bad run
// scores exactly zero.
func DefaultOptimizationWeights() OptimizationWeights {
	return OptimizationWeights{Conflicts: 4, Preferences: 2, Distribution: 2, Workload: 2}
}

// ScheduleConfig holds the per-school scheduling parameters a generation run
// expands into a slot grid. One row per school, maintained by upsert.
type ScheduleConfig struct {
	ID                         string      `db:"id" json:"id"`
	SchoolID                   string      `db:"school_id" json:"school_id" validate:"required"`
	PeriodsPerDay              int         `db:"periods_per_day" json:"periods_per_day" validate:"gte=1,lte=12"`
	WorkingDays                WeekdayList `db:"working_days" json:"working_days" validate:"required,min=1"`
	PeriodDurationMinutes      int         `db:"period_duration_minutes" json:"period_duration_minutes" validate:"gte=20,lte=120"`
	BreakPeriods               IntList     `db:"break_periods" json:"break_periods"`
	MaxPeriodsPerTeacherPerDay int         `db:"max_periods_per_teacher_per_day" json:"max_periods_per_teacher_per_day" validate:"gte=0"`
	MinGapBetweenSameSubject   int         `db:"min_gap_between_same_subject" json:"min_gap_between_same_subject" validate:"gte=0"`
	AllowDoublePeriods         bool        `db:"allow_double_periods" json:"allow_double_periods"`
	PreferMorningForCore       bool        `db:"prefer_morning_for_core" json:"prefer_morning_for_core"`
	OptimizationWeights
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// AssignablePeriods returns how many periods per day accept lessons after
// break periods are excluded.
func (c *ScheduleConfig) AssignablePeriods() int {
	count := 0
	for p := 1; p <= c.PeriodsPerDay; p++ {
		if !c.BreakPeriods.Contains(p) {
			count++
		}
	}
	return count
}
