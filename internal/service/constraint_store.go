package service

import (
	"github.com/Edufam-Tech/edufam-backend-sub000/internal/models"
)

// EntityKind selects which availability table an Allowed query consults.
type EntityKind string

const (
	EntityTeacher EntityKind = "TEACHER"
	EntityRoom    EntityKind = "ROOM"
)

type availabilityWindow struct {
	day      models.Weekday
	startMin int
	endMin   int
	kind     models.AvailabilityKind
	weight   float64
}

// ConstraintSnapshot is the immutable view of scheduling constraints taken at
// the start of a generation run. The solver answers every availability and
// requirement question from the snapshot; the database is never consulted
// mid-search.
type ConstraintSnapshot struct {
	teacherWindows map[string][]availabilityWindow
	roomWindows    map[string][]availabilityWindow
	requirements   map[string]models.SubjectRequirement
}

// NewConstraintSnapshot indexes availability records and subject requirements
// for slot queries. Rows with unparseable times are skipped.
func NewConstraintSnapshot(
	teachers []models.TeacherAvailability,
	rooms []models.RoomAvailability,
	requirements []models.SubjectRequirement,
) *ConstraintSnapshot {
	snap := &ConstraintSnapshot{
		teacherWindows: make(map[string][]availabilityWindow, len(teachers)),
		roomWindows:    make(map[string][]availabilityWindow, len(rooms)),
		requirements:   make(map[string]models.SubjectRequirement, len(requirements)),
	}
	for _, rec := range teachers {
		if window, ok := newAvailabilityWindow(rec.DayOfWeek, rec.StartTime, rec.EndTime, rec.Kind, rec.Weight); ok {
			snap.teacherWindows[rec.TeacherID] = append(snap.teacherWindows[rec.TeacherID], window)
		}
	}
	for _, rec := range rooms {
		if window, ok := newAvailabilityWindow(rec.DayOfWeek, rec.StartTime, rec.EndTime, rec.Kind, rec.Weight); ok {
			snap.roomWindows[rec.RoomID] = append(snap.roomWindows[rec.RoomID], window)
		}
	}
	for _, req := range requirements {
		snap.requirements[req.SubjectID] = req
	}
	return snap
}

func newAvailabilityWindow(day models.Weekday, start, end string, kind models.AvailabilityKind, weight float64) (availabilityWindow, bool) {
	startMin, okStart := parseClock(start)
	endMin, okEnd := parseClock(end)
	if !okStart || !okEnd || !day.Valid() || endMin <= startMin {
		return availabilityWindow{}, false
	}
	return availabilityWindow{day: day, startMin: startMin, endMin: endMin, kind: kind, weight: weight}, true
}

// Allowed reports whether the entity may be scheduled into the slot and the
// accumulated preference weight. An UNAVAILABLE window covering the slot
// start vetoes the slot; PREFERRED windows add their weight; entities with no
// covering record default to allowed with weight zero.
func (s *ConstraintSnapshot) Allowed(kind EntityKind, entityID string, slot models.Slot) (bool, float64) {
	var windows []availabilityWindow
	switch kind {
	case EntityTeacher:
		windows = s.teacherWindows[entityID]
	case EntityRoom:
		windows = s.roomWindows[entityID]
	default:
		return true, 0
	}
	start, ok := parseClock(slot.StartTime)
	if !ok {
		return true, 0
	}

	weight := 0.0
	for _, w := range windows {
		if w.day != slot.Day || start < w.startMin || start >= w.endMin {
			continue
		}
		switch w.kind {
		case models.AvailabilityUnavailable:
			return false, 0
		case models.AvailabilityPreferred:
			weight += w.weight
		}
	}
	return true, weight
}

// HasPreferred reports whether the entity declared any PREFERRED window.
func (s *ConstraintSnapshot) HasPreferred(kind EntityKind, entityID string) bool {
	var windows []availabilityWindow
	switch kind {
	case EntityTeacher:
		windows = s.teacherWindows[entityID]
	case EntityRoom:
		windows = s.roomWindows[entityID]
	}
	for _, w := range windows {
		if w.kind == models.AvailabilityPreferred {
			return true
		}
	}
	return false
}

// Requirement returns the placement requirements recorded for a subject.
func (s *ConstraintSnapshot) Requirement(subjectID string) (models.SubjectRequirement, bool) {
	req, ok := s.requirements[subjectID]
	return req, ok
}
