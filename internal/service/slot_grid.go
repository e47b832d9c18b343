package service

import (
	"fmt"
	"time"

	"github.com/Edufam-Tech/edufam-backend-sub000/internal/models"
	appErrors "github.com/Edufam-Tech/edufam-backend-sub000/pkg/errors"
)

const (
	dayStartMinutes  = 8 * 60 // first period begins at 08:00
	periodGapMinutes = 5
	minutesPerDay    = 24 * 60
)

// BuildSlotGrid expands a schedule configuration into the weekly slot grid:
// one slot per (working day, period) with clock times accumulated from the
// 08:00 anchor and break periods flagged. The expansion is pure, so the same
// configuration always yields the same grid.
func BuildSlotGrid(cfg *models.ScheduleConfig) ([]models.Slot, error) {
	days, err := validateScheduleConfig(cfg)
	if err != nil {
		return nil, err
	}

	grid := make([]models.Slot, 0, len(days)*cfg.PeriodsPerDay)
	for _, day := range days {
		for period := 1; period <= cfg.PeriodsPerDay; period++ {
			start := dayStartMinutes + (period-1)*(cfg.PeriodDurationMinutes+periodGapMinutes)
			grid = append(grid, models.Slot{
				Day:       day,
				Period:    period,
				StartTime: minutesToClock(start),
				EndTime:   minutesToClock(start + cfg.PeriodDurationMinutes),
				IsBreak:   cfg.BreakPeriods.Contains(period),
			})
		}
	}
	return grid, nil
}

// validateScheduleConfig enforces the structural invariants a generation run
// relies on and returns the normalized working-day order: duplicates dropped,
// first occurrence wins.
func validateScheduleConfig(cfg *models.ScheduleConfig) ([]models.Weekday, error) {
	if cfg == nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidConfiguration, "schedule configuration is required")
	}
	if cfg.PeriodsPerDay < 1 || cfg.PeriodsPerDay > 12 {
		return nil, appErrors.Clone(appErrors.ErrInvalidConfiguration, "periods per day must be between 1 and 12")
	}
	if cfg.PeriodDurationMinutes < 1 {
		return nil, appErrors.Clone(appErrors.ErrInvalidConfiguration, "period duration must be positive")
	}
	if len(cfg.WorkingDays) == 0 {
		return nil, appErrors.Clone(appErrors.ErrInvalidConfiguration, "at least one working day is required")
	}

	days := make([]models.Weekday, 0, len(cfg.WorkingDays))
	seen := make(map[models.Weekday]bool, len(cfg.WorkingDays))
	for _, raw := range cfg.WorkingDays {
		day, ok := models.NormalizeWeekday(string(raw))
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrInvalidConfiguration, fmt.Sprintf("unknown working day %q", raw))
		}
		if seen[day] {
			continue
		}
		seen[day] = true
		days = append(days, day)
	}

	for _, p := range cfg.BreakPeriods {
		if p < 1 || p > cfg.PeriodsPerDay {
			return nil, appErrors.Clone(appErrors.ErrInvalidConfiguration, fmt.Sprintf("break period %d is outside 1..%d", p, cfg.PeriodsPerDay))
		}
	}
	if cfg.AssignablePeriods() == 0 {
		return nil, appErrors.Clone(appErrors.ErrInvalidConfiguration, "every period is marked as a break")
	}
	if cfg.MaxPeriodsPerTeacherPerDay < 0 || cfg.MinGapBetweenSameSubject < 0 {
		return nil, appErrors.Clone(appErrors.ErrInvalidConfiguration, "teacher and gap limits must not be negative")
	}
	if cfg.Conflicts < 0 || cfg.Preferences < 0 || cfg.Distribution < 0 || cfg.Workload < 0 {
		return nil, appErrors.Clone(appErrors.ErrInvalidConfiguration, "optimization weights must not be negative")
	}

	lastEnd := dayStartMinutes + cfg.PeriodsPerDay*(cfg.PeriodDurationMinutes+periodGapMinutes) - periodGapMinutes
	if lastEnd >= minutesPerDay {
		return nil, appErrors.Clone(appErrors.ErrInvalidConfiguration, "the school day must end before midnight")
	}
	return days, nil
}

func minutesToClock(total int) string {
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

// parseClock accepts "HH:MM" and the "HH:MM:SS" form Postgres TIME columns
// scan into, returning minutes since midnight.
func parseClock(raw string) (int, bool) {
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Hour()*60 + t.Minute(), true
		}
	}
	return 0, false
}
