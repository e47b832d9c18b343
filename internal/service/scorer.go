package service

import (
	"math"

	"github.com/Edufam-Tech/edufam-backend-sub000/internal/models"
)

// scoreBase is the fixed ceiling every timetable is scored against, so scores
// stay comparable across versions of the same scope.
const scoreBase = 10.0

// ScoreBreakdown exposes the normalized quality metrics behind a score.
type ScoreBreakdown struct {
	ConflictRatio          float64 `json:"conflict_ratio"`
	UnmetPreferenceRatio   float64 `json:"unmet_preference_ratio"`
	WorkloadImbalance      float64 `json:"workload_imbalance"`
	DistributionUnevenness float64 `json:"distribution_unevenness"`
}

// ScoreTimetable rates a completed run: score = max(0, 10 - sum of weighted
// metrics), every metric capped to [0,1]. More conflicts never raise the
// score.
func ScoreTimetable(
	cfg *models.ScheduleConfig,
	grid []models.Slot,
	snap *ConstraintSnapshot,
	entries []models.TimetableEntry,
	conflicts []models.TimetableConflict,
	totalUnits int,
) (float64, ScoreBreakdown) {
	weeklySlots := 0
	days := make([]models.Weekday, 0, 7)
	seenDays := make(map[models.Weekday]bool, 7)
	for _, slot := range grid {
		if !seenDays[slot.Day] {
			seenDays[slot.Day] = true
			days = append(days, slot.Day)
		}
		if !slot.IsBreak {
			weeklySlots++
		}
	}

	breakdown := ScoreBreakdown{
		ConflictRatio:          capRatio(float64(len(conflicts)) / math.Max(1, float64(totalUnits))),
		UnmetPreferenceRatio:   unmetPreferenceRatio(snap, entries),
		WorkloadImbalance:      workloadImbalance(entries, weeklySlots),
		DistributionUnevenness: distributionUnevenness(cfg, days, entries),
	}

	penalty := cfg.Conflicts*breakdown.ConflictRatio +
		cfg.Preferences*breakdown.UnmetPreferenceRatio +
		cfg.Workload*breakdown.WorkloadImbalance +
		cfg.Distribution*breakdown.DistributionUnevenness
	return math.Max(0, scoreBase-penalty), breakdown
}

// unmetPreferenceRatio looks only at teachers that declared PREFERRED windows
// and measures how many of their lessons missed those windows.
func unmetPreferenceRatio(snap *ConstraintSnapshot, entries []models.TimetableEntry) float64 {
	if snap == nil {
		return 0
	}
	considered, unmet := 0, 0
	for _, entry := range entries {
		if !snap.HasPreferred(EntityTeacher, entry.TeacherID) {
			continue
		}
		considered++
		slot := models.Slot{Day: entry.DayOfWeek, Period: entry.PeriodNumber, StartTime: entry.StartTime, EndTime: entry.EndTime}
		if _, weight := snap.Allowed(EntityTeacher, entry.TeacherID, slot); weight <= 0 {
			unmet++
		}
	}
	if considered == 0 {
		return 0
	}
	return capRatio(float64(unmet) / float64(considered))
}

func workloadImbalance(entries []models.TimetableEntry, weeklySlots int) float64 {
	loads := make(map[string]int)
	for _, entry := range entries {
		loads[entry.TeacherID]++
	}
	if len(loads) == 0 {
		return 0
	}
	minLoad, maxLoad := math.MaxInt32, 0
	for _, load := range loads {
		if load < minLoad {
			minLoad = load
		}
		if load > maxLoad {
			maxLoad = load
		}
	}
	return capRatio(float64(maxLoad-minLoad) / math.Max(1, float64(weeklySlots)))
}

// distributionUnevenness averages, over classes, how lopsided the class week
// is: spread between its fullest and emptiest working day, relative to the
// day length.
func distributionUnevenness(cfg *models.ScheduleConfig, days []models.Weekday, entries []models.TimetableEntry) float64 {
	if len(days) == 0 || cfg.PeriodsPerDay == 0 {
		return 0
	}
	perClassDay := make(map[string]map[models.Weekday]int)
	for _, entry := range entries {
		if perClassDay[entry.ClassID] == nil {
			perClassDay[entry.ClassID] = make(map[models.Weekday]int)
		}
		perClassDay[entry.ClassID][entry.DayOfWeek]++
	}
	if len(perClassDay) == 0 {
		return 0
	}
	total := 0.0
	for _, byDay := range perClassDay {
		minCount, maxCount := math.MaxInt32, 0
		for _, day := range days {
			count := byDay[day]
			if count < minCount {
				minCount = count
			}
			if count > maxCount {
				maxCount = count
			}
		}
		total += float64(maxCount-minCount) / float64(cfg.PeriodsPerDay)
	}
	return capRatio(total / float64(len(perClassDay)))
}

func capRatio(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
