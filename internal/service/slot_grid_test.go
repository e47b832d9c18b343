package service

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Edufam-Tech/edufam-backend-sub000/internal/models"
	appErrors "github.com/Edufam-Tech/edufam-backend-sub000/pkg/errors"
)

func TestBuildSlotGridExpandsWeek(t *testing.T) {
	grid, err := BuildSlotGrid(gridTestConfig())

	require.NoError(t, err)
	require.Len(t, grid, 6)

	assert.Equal(t, models.Slot{Day: models.Monday, Period: 1, StartTime: "08:00", EndTime: "08:45"}, grid[0])
	assert.Equal(t, models.Slot{Day: models.Monday, Period: 2, StartTime: "08:50", EndTime: "09:35"}, grid[1])
	assert.Equal(t, models.Slot{Day: models.Monday, Period: 3, StartTime: "09:40", EndTime: "10:25"}, grid[2])

	// The second day repeats the same clock times.
	assert.Equal(t, models.Tuesday, grid[3].Day)
	assert.Equal(t, grid[0].StartTime, grid[3].StartTime)
	assert.Equal(t, grid[2].EndTime, grid[5].EndTime)
}

func TestBuildSlotGridIsDeterministic(t *testing.T) {
	first, err := BuildSlotGrid(gridTestConfig())
	require.NoError(t, err)
	second, err := BuildSlotGrid(gridTestConfig())
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestBuildSlotGridFlagsBreaks(t *testing.T) {
	cfg := gridTestConfig()
	cfg.BreakPeriods = models.IntList{2}

	grid, err := BuildSlotGrid(cfg)

	require.NoError(t, err)
	for _, slot := range grid {
		assert.Equal(t, slot.Period == 2, slot.IsBreak, "period %d on %s", slot.Period, slot.Day)
	}
}

func TestBuildSlotGridNormalizesWorkingDays(t *testing.T) {
	cfg := gridTestConfig()
	cfg.WorkingDays = models.WeekdayList{"monday", " TUESDAY ", "Monday"}

	grid, err := BuildSlotGrid(cfg)

	require.NoError(t, err)
	require.Len(t, grid, 6, "the duplicate day collapses into the first occurrence")
	assert.Equal(t, models.Monday, grid[0].Day)
	assert.Equal(t, models.Tuesday, grid[3].Day)
}

func TestBuildSlotGridRejectsInvalidConfigs(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(cfg *models.ScheduleConfig)
	}{
		{
			name:   "unknown working day",
			mutate: func(cfg *models.ScheduleConfig) { cfg.WorkingDays = models.WeekdayList{"Funday"} },
		},
		{
			name:   "no working days",
			mutate: func(cfg *models.ScheduleConfig) { cfg.WorkingDays = nil },
		},
		{
			name:   "zero periods",
			mutate: func(cfg *models.ScheduleConfig) { cfg.PeriodsPerDay = 0 },
		},
		{
			name:   "too many periods",
			mutate: func(cfg *models.ScheduleConfig) { cfg.PeriodsPerDay = 13 },
		},
		{
			name:   "non positive duration",
			mutate: func(cfg *models.ScheduleConfig) { cfg.PeriodDurationMinutes = 0 },
		},
		{
			name:   "break outside the day",
			mutate: func(cfg *models.ScheduleConfig) { cfg.BreakPeriods = models.IntList{4} },
		},
		{
			name:   "every period is a break",
			mutate: func(cfg *models.ScheduleConfig) { cfg.BreakPeriods = models.IntList{1, 2, 3} },
		},
		{
			name:   "negative teacher cap",
			mutate: func(cfg *models.ScheduleConfig) { cfg.MaxPeriodsPerTeacherPerDay = -1 },
		},
		{
			name:   "negative subject gap",
			mutate: func(cfg *models.ScheduleConfig) { cfg.MinGapBetweenSameSubject = -1 },
		},
		{
			name:   "negative optimization weight",
			mutate: func(cfg *models.ScheduleConfig) { cfg.Conflicts = -1 },
		},
		{
			name: "day runs past midnight",
			mutate: func(cfg *models.ScheduleConfig) {
				cfg.PeriodsPerDay = 12
				cfg.PeriodDurationMinutes = 120
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := gridTestConfig()
			tt.mutate(cfg)

			grid, err := BuildSlotGrid(cfg)

			require.Error(t, err)
			assert.Nil(t, grid)
			assert.Equal(t, appErrors.ErrInvalidConfiguration.Code, appErrors.FromError(err).Code)
		})
	}
}

func TestBuildSlotGridRejectsNilConfig(t *testing.T) {
	grid, err := BuildSlotGrid(nil)

	require.Error(t, err)
	assert.Nil(t, grid)
	assert.Equal(t, appErrors.ErrInvalidConfiguration.Code, appErrors.FromError(err).Code)
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		raw     string
		minutes int
		ok      bool
	}{
		{raw: "08:00", minutes: 480, ok: true},
		{raw: "13:05", minutes: 785, ok: true},
		{raw: "08:00:00", minutes: 480, ok: true},
		{raw: "23:59:59", minutes: 1439, ok: true},
		{raw: "8 am", ok: false},
		{raw: "", ok: false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%q", tt.raw), func(t *testing.T) {
			minutes, ok := parseClock(tt.raw)

			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.minutes, minutes)
		})
	}
}

func TestMinutesToClock(t *testing.T) {
	assert.Equal(t, "08:00", minutesToClock(480))
	assert.Equal(t, "09:05", minutesToClock(545))
	assert.Equal(t, "00:00", minutesToClock(0))
}

// --- Fixtures ---

func gridTestConfig() *models.ScheduleConfig {
	return &models.ScheduleConfig{
		SchoolID:              "school-1",
		PeriodsPerDay:         3,
		WorkingDays:           models.WeekdayList{models.Monday, models.Tuesday},
		PeriodDurationMinutes: 45,
		OptimizationWeights:   models.DefaultOptimizationWeights(),
	}
}
