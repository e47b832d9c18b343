package service

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Edufam-Tech/edufam-backend-sub000/internal/models"
)

func TestSolveTimetablePlacesAllUnits(t *testing.T) {
	in := newSolverInput(t, solverTestConfig(), nil, solverInputOptions{
		Loads: []models.CurriculumLoad{
			{ClassID: "class-a", SubjectID: "math", PeriodsPerWeek: 4},
			{ClassID: "class-a", SubjectID: "english", PeriodsPerWeek: 4},
			{ClassID: "class-a", SubjectID: "science", PeriodsPerWeek: 4},
			{ClassID: "class-b", SubjectID: "math", PeriodsPerWeek: 4},
			{ClassID: "class-b", SubjectID: "english", PeriodsPerWeek: 4},
			{ClassID: "class-b", SubjectID: "science", PeriodsPerWeek: 4},
		},
	})

	res := solveTimetable(in)

	assert.Equal(t, 24, res.TotalUnits)
	assert.Empty(t, res.Unassigned)
	assert.Len(t, res.Entries, 24)
	assert.False(t, res.BoundExceeded)
	assert.Empty(t, DetectConflicts(res.Entries))
	assertNoOverlaps(t, res.Entries)
}

func TestSolveTimetableDeterministicForSeed(t *testing.T) {
	build := func() solverInput {
		return newSolverInput(t, solverTestConfig(), nil, solverInputOptions{
			Loads: []models.CurriculumLoad{
				{ClassID: "class-a", SubjectID: "math", PeriodsPerWeek: 4},
				{ClassID: "class-a", SubjectID: "english", PeriodsPerWeek: 3},
				{ClassID: "class-b", SubjectID: "math", PeriodsPerWeek: 4},
				{ClassID: "class-b", SubjectID: "science", PeriodsPerWeek: 3},
			},
		})
	}

	first := solveTimetable(build())
	second := solveTimetable(build())

	assert.Equal(t, first.Entries, second.Entries)
	assert.Equal(t, first.Unassigned, second.Unassigned)
	assert.Equal(t, first.Backtracks, second.Backtracks)
}

func TestSolveTimetableHonoursTeacherUnavailability(t *testing.T) {
	snap := NewConstraintSnapshot([]models.TeacherAvailability{
		{TeacherID: "t-math", DayOfWeek: models.Monday, StartTime: "07:00", EndTime: "18:00", Kind: models.AvailabilityUnavailable},
	}, nil, nil)
	in := newSolverInput(t, solverTestConfig(), snap, solverInputOptions{
		Loads: []models.CurriculumLoad{
			{ClassID: "class-a", SubjectID: "math", PeriodsPerWeek: 4},
			{ClassID: "class-b", SubjectID: "math", PeriodsPerWeek: 4},
		},
	})

	res := solveTimetable(in)

	require.Empty(t, res.Unassigned)
	for _, entry := range res.Entries {
		if entry.TeacherID == "t-math" {
			assert.NotEqual(t, models.Monday, entry.DayOfWeek, "unavailable day must stay empty")
		}
	}
}

func TestSolveTimetablePrefersPreferredWindow(t *testing.T) {
	snap := NewConstraintSnapshot([]models.TeacherAvailability{
		{TeacherID: "t-math", DayOfWeek: models.Monday, StartTime: "08:00", EndTime: "10:00", Kind: models.AvailabilityPreferred, Weight: 2},
	}, nil, nil)
	in := newSolverInput(t, solverTestConfig(), snap, solverInputOptions{
		Loads: []models.CurriculumLoad{
			{ClassID: "class-a", SubjectID: "math", PeriodsPerWeek: 1},
		},
	})

	res := solveTimetable(in)

	require.Len(t, res.Entries, 1)
	assert.Equal(t, models.Monday, res.Entries[0].DayOfWeek)
	assert.LessOrEqual(t, res.Entries[0].PeriodNumber, 3)
}

func TestSolveTimetablePrefersMorningForCore(t *testing.T) {
	cfg := solverTestConfig()
	cfg.PreferMorningForCore = true
	in := newSolverInput(t, cfg, nil, solverInputOptions{
		Loads: []models.CurriculumLoad{
			{ClassID: "class-a", SubjectID: "math", PeriodsPerWeek: 1},
		},
	})

	res := solveTimetable(in)

	require.Len(t, res.Entries, 1)
	assert.LessOrEqual(t, res.Entries[0].PeriodNumber, 3, "core subjects should land in the morning half")
}

func TestSolveTimetableBuildsDoublePeriods(t *testing.T) {
	snap := NewConstraintSnapshot(nil, nil, []models.SubjectRequirement{
		{SubjectID: "science", RequiresDoublePeriod: true},
	})
	in := newSolverInput(t, solverTestConfig(), snap, solverInputOptions{
		Loads: []models.CurriculumLoad{
			{ClassID: "class-a", SubjectID: "science", PeriodsPerWeek: 4},
		},
	})

	res := solveTimetable(in)

	require.Empty(t, res.Unassigned)
	require.Len(t, res.Entries, 4)
	byDay := make(map[models.Weekday][]int)
	for _, entry := range res.Entries {
		assert.True(t, entry.IsDoublePeriod)
		byDay[entry.DayOfWeek] = append(byDay[entry.DayOfWeek], entry.PeriodNumber)
	}
	for day, periods := range byDay {
		require.Zero(t, len(periods)%2, "day %s has an unpaired block", day)
		for i := 0; i < len(periods); i += 2 {
			assert.Equal(t, periods[i]+1, periods[i+1], "block on %s is not contiguous", day)
		}
	}
}

func TestSolveTimetableReportsUnassignableSubjects(t *testing.T) {
	in := newSolverInput(t, solverTestConfig(), nil, solverInputOptions{
		Loads: []models.CurriculumLoad{
			{ClassID: "class-a", SubjectID: "math", PeriodsPerWeek: 2},
			{ClassID: "class-a", SubjectID: "art", PeriodsPerWeek: 2},
		},
	})

	res := solveTimetable(in)

	assert.Equal(t, 4, res.TotalUnits)
	assert.Len(t, res.Entries, 2)
	require.Len(t, res.Unassigned, 2)
	for _, unit := range res.Unassigned {
		assert.Equal(t, "art", unit.SubjectID)
		assert.Equal(t, "no teacher is qualified for the subject", unit.Reason)
	}
}

func TestSolveTimetableRespectsBacktrackBound(t *testing.T) {
	cfg := solverTestConfig()
	cfg.PeriodsPerDay = 2
	cfg.WorkingDays = models.WeekdayList{models.Monday}
	in := newSolverInput(t, cfg, nil, solverInputOptions{
		Loads: []models.CurriculumLoad{
			{ClassID: "class-a", SubjectID: "math", PeriodsPerWeek: 2},
			{ClassID: "class-b", SubjectID: "math", PeriodsPerWeek: 2},
		},
		MaxBacktracks: 3,
	})

	res := solveTimetable(in)

	assert.Equal(t, 3, res.Bound)
	assert.True(t, res.BoundExceeded)
	assert.LessOrEqual(t, res.Backtracks, 3)
	assert.Len(t, res.Entries, 2, "the greedy tail should still place what fits")
	assert.Len(t, res.Unassigned, 2)
	assert.Empty(t, DetectConflicts(res.Entries))
}

func TestSolveTimetableBoundScaling(t *testing.T) {
	loads := []models.CurriculumLoad{
		{ClassID: "class-a", SubjectID: "math", PeriodsPerWeek: 4},
	}

	res := solveTimetable(newSolverInput(t, solverTestConfig(), nil, solverInputOptions{Loads: loads}))
	assert.Equal(t, 4*defaultBacktracksPerUnit, res.Bound)

	res = solveTimetable(newSolverInput(t, solverTestConfig(), nil, solverInputOptions{Loads: loads, BacktracksPerUnit: 5}))
	assert.Equal(t, 20, res.Bound)

	res = solveTimetable(newSolverInput(t, solverTestConfig(), nil, solverInputOptions{Loads: loads, MaxBacktracks: 7}))
	assert.Equal(t, 7, res.Bound)
}

func TestSolveTimetableRespectsTeacherDayCap(t *testing.T) {
	cfg := solverTestConfig()
	cfg.MaxPeriodsPerTeacherPerDay = 2
	in := newSolverInput(t, cfg, nil, solverInputOptions{
		Loads: []models.CurriculumLoad{
			{ClassID: "class-a", SubjectID: "math", PeriodsPerWeek: 6},
		},
	})

	res := solveTimetable(in)

	require.Empty(t, res.Unassigned)
	perDay := make(map[models.Weekday]int)
	for _, entry := range res.Entries {
		perDay[entry.DayOfWeek]++
	}
	for day, count := range perDay {
		assert.LessOrEqual(t, count, 2, "teacher overloaded on %s", day)
	}
}

func TestSolveTimetableRespectsSubjectGap(t *testing.T) {
	cfg := solverTestConfig()
	cfg.MinGapBetweenSameSubject = 2
	in := newSolverInput(t, cfg, nil, solverInputOptions{
		Loads: []models.CurriculumLoad{
			{ClassID: "class-a", SubjectID: "math", PeriodsPerWeek: 5},
		},
	})

	res := solveTimetable(in)

	require.Empty(t, res.Unassigned)
	byDay := make(map[models.Weekday][]int)
	for _, entry := range res.Entries {
		byDay[entry.DayOfWeek] = append(byDay[entry.DayOfWeek], entry.PeriodNumber)
	}
	for day, periods := range byDay {
		for i := 0; i < len(periods); i++ {
			for j := i + 1; j < len(periods); j++ {
				assert.Greater(t, intAbs(periods[i]-periods[j]), 2, "periods too close on %s", day)
			}
		}
	}
}

func TestSolveTimetableAssignsRequiredLabRooms(t *testing.T) {
	snap := NewConstraintSnapshot(nil, nil, []models.SubjectRequirement{
		{SubjectID: "science", RequiresLab: true},
	})
	in := newSolverInput(t, solverTestConfig(), snap, solverInputOptions{
		Loads: []models.CurriculumLoad{
			{ClassID: "class-a", SubjectID: "science", PeriodsPerWeek: 2},
			{ClassID: "class-b", SubjectID: "science", PeriodsPerWeek: 2},
		},
		Rooms: []models.Room{
			{ID: "room-std", Name: "Room 1"},
			{ID: "room-lab", Name: "Science Lab", IsLab: true},
		},
	})

	res := solveTimetable(in)

	require.Empty(t, res.Unassigned)
	for _, entry := range res.Entries {
		require.NotNil(t, entry.RoomID)
		assert.Equal(t, "room-lab", *entry.RoomID)
	}
	assert.Empty(t, DetectConflicts(res.Entries))
}

// --- Fixtures ---

func solverTestConfig() *models.ScheduleConfig {
	return &models.ScheduleConfig{
		SchoolID:              "school-1",
		PeriodsPerDay:         6,
		WorkingDays:           models.WeekdayList{models.Monday, models.Tuesday, models.Wednesday, models.Thursday, models.Friday},
		PeriodDurationMinutes: 40,
		AllowDoublePeriods:    true,
		OptimizationWeights:   models.DefaultOptimizationWeights(),
	}
}

type solverInputOptions struct {
	Loads             []models.CurriculumLoad
	Rooms             []models.Room
	MaxBacktracks     int
	BacktracksPerUnit int
}

func newSolverInput(t *testing.T, cfg *models.ScheduleConfig, snap *ConstraintSnapshot, opts solverInputOptions) solverInput {
	t.Helper()
	grid, err := BuildSlotGrid(cfg)
	require.NoError(t, err)
	if snap == nil {
		snap = NewConstraintSnapshot(nil, nil, nil)
	}
	return solverInput{
		Config:   cfg,
		Grid:     grid,
		Snapshot: snap,
		Classes: map[string]models.Class{
			"class-a": {ID: "class-a", Name: "10A"},
			"class-b": {ID: "class-b", Name: "10B"},
		},
		Subjects: map[string]models.Subject{
			"math":    {ID: "math", Name: "Mathematics", IsCore: true},
			"english": {ID: "english", Name: "English", IsCore: true},
			"science": {ID: "science", Name: "Science"},
		},
		Rooms: opts.Rooms,
		Eligibility: map[string][]string{
			"math":    {"t-math"},
			"english": {"t-eng"},
			"science": {"t-sci"},
		},
		Loads:             opts.Loads,
		Seed:              42,
		MaxBacktracks:     opts.MaxBacktracks,
		BacktracksPerUnit: opts.BacktracksPerUnit,
	}
}

func assertNoOverlaps(t *testing.T, entries []models.TimetableEntry) {
	t.Helper()
	teacherSeen := make(map[string]bool)
	classSeen := make(map[string]bool)
	for _, entry := range entries {
		teacherKey := fmt.Sprintf("%s|%s|%d", entry.TeacherID, entry.DayOfWeek, entry.PeriodNumber)
		require.False(t, teacherSeen[teacherKey], "teacher double booked at %s", teacherKey)
		teacherSeen[teacherKey] = true
		classKey := fmt.Sprintf("%s|%s|%d", entry.ClassID, entry.DayOfWeek, entry.PeriodNumber)
		require.False(t, classSeen[classKey], "class double booked at %s", classKey)
		classSeen[classKey] = true
	}
}
