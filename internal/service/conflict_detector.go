package service

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Edufam-Tech/edufam-backend-sub000/internal/models"
)

type occupancyKey struct {
	EntityID string
	Day      models.Weekday
	Period   int
}

// DetectConflicts checks a completed entry set for double bookings. It is a
// pure function over its input: no solver state, no persistence, so it can
// validate manually edited entries as well as fresh runs. Each over-occupied
// (entity, day, period) group yields exactly one conflict.
func DetectConflicts(entries []models.TimetableEntry) []models.TimetableConflict {
	teacherGroups := make(map[occupancyKey][]models.TimetableEntry)
	classGroups := make(map[occupancyKey][]models.TimetableEntry)
	roomGroups := make(map[occupancyKey][]models.TimetableEntry)

	for _, entry := range entries {
		teacherKey := occupancyKey{EntityID: entry.TeacherID, Day: entry.DayOfWeek, Period: entry.PeriodNumber}
		teacherGroups[teacherKey] = append(teacherGroups[teacherKey], entry)
		classKey := occupancyKey{EntityID: entry.ClassID, Day: entry.DayOfWeek, Period: entry.PeriodNumber}
		classGroups[classKey] = append(classGroups[classKey], entry)
		if entry.RoomID != nil && *entry.RoomID != "" {
			roomKey := occupancyKey{EntityID: *entry.RoomID, Day: entry.DayOfWeek, Period: entry.PeriodNumber}
			roomGroups[roomKey] = append(roomGroups[roomKey], entry)
		}
	}

	var conflicts []models.TimetableConflict
	for key, group := range teacherGroups {
		if len(group) > 1 {
			conflicts = append(conflicts, doubleBookingConflict(models.ConflictTeacherDoubleBooking, models.SeverityHigh, key, group))
		}
	}
	for key, group := range classGroups {
		if len(group) > 1 {
			conflicts = append(conflicts, doubleBookingConflict(models.ConflictClassDoubleBooking, models.SeverityHigh, key, group))
		}
	}
	for key, group := range roomGroups {
		if len(group) > 1 {
			conflicts = append(conflicts, doubleBookingConflict(models.ConflictRoomDoubleBooking, models.SeverityMedium, key, group))
		}
	}
	sortConflicts(conflicts)
	return conflicts
}

func doubleBookingConflict(kind models.ConflictType, severity models.ConflictSeverity, key occupancyKey, group []models.TimetableEntry) models.TimetableConflict {
	day := key.Day
	period := key.Period
	conflict := models.TimetableConflict{
		Type:         kind,
		Severity:     severity,
		DayOfWeek:    &day,
		PeriodNumber: &period,
	}
	entityID := key.EntityID
	switch kind {
	case models.ConflictTeacherDoubleBooking:
		conflict.TeacherID = &entityID
		conflict.Detail = fmt.Sprintf("teacher %s has %d lessons on %s period %d (classes: %s)",
			entityID, len(group), day, period, joinDistinct(group, func(e models.TimetableEntry) string { return e.ClassID }))
	case models.ConflictClassDoubleBooking:
		conflict.ClassID = &entityID
		conflict.Detail = fmt.Sprintf("class %s has %d lessons on %s period %d (subjects: %s)",
			entityID, len(group), day, period, joinDistinct(group, func(e models.TimetableEntry) string { return e.SubjectID }))
	case models.ConflictRoomDoubleBooking:
		conflict.RoomID = &entityID
		conflict.Detail = fmt.Sprintf("room %s hosts %d lessons on %s period %d (classes: %s)",
			entityID, len(group), day, period, joinDistinct(group, func(e models.TimetableEntry) string { return e.ClassID }))
	}
	return conflict
}

func joinDistinct(group []models.TimetableEntry, pick func(models.TimetableEntry) string) string {
	seen := make(map[string]bool, len(group))
	ids := make([]string, 0, len(group))
	for _, entry := range group {
		id := pick(entry)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return strings.Join(ids, ", ")
}

func sortConflicts(conflicts []models.TimetableConflict) {
	sort.SliceStable(conflicts, func(i, j int) bool {
		if conflicts[i].Type != conflicts[j].Type {
			return conflicts[i].Type < conflicts[j].Type
		}
		di, dj := 0, 0
		if conflicts[i].DayOfWeek != nil {
			di = conflicts[i].DayOfWeek.Index()
		}
		if conflicts[j].DayOfWeek != nil {
			dj = conflicts[j].DayOfWeek.Index()
		}
		if di != dj {
			return di < dj
		}
		pi, pj := 0, 0
		if conflicts[i].PeriodNumber != nil {
			pi = *conflicts[i].PeriodNumber
		}
		if conflicts[j].PeriodNumber != nil {
			pj = *conflicts[j].PeriodNumber
		}
		if pi != pj {
			return pi < pj
		}
		return conflicts[i].Detail < conflicts[j].Detail
	})
}
