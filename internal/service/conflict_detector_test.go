package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Edufam-Tech/edufam-backend-sub000/internal/models"
)

func TestDetectConflictsCleanSet(t *testing.T) {
	entries := []models.TimetableEntry{
		detectorEntry("class-a", "math", "t-1", nil, models.Monday, 1),
		detectorEntry("class-a", "english", "t-2", nil, models.Monday, 2),
		detectorEntry("class-b", "math", "t-1", nil, models.Monday, 2),
	}

	assert.Empty(t, DetectConflicts(entries))
}

func TestDetectConflictsTeacherDoubleBooking(t *testing.T) {
	entries := []models.TimetableEntry{
		detectorEntry("class-a", "math", "t-1", nil, models.Monday, 1),
		detectorEntry("class-b", "math", "t-1", nil, models.Monday, 1),
	}

	conflicts := DetectConflicts(entries)

	// The shared slot double books the teacher; each class sees only one lesson.
	require.Len(t, conflicts, 1)
	c := conflicts[0]
	assert.Equal(t, models.ConflictTeacherDoubleBooking, c.Type)
	assert.Equal(t, models.SeverityHigh, c.Severity)
	require.NotNil(t, c.TeacherID)
	assert.Equal(t, "t-1", *c.TeacherID)
	require.NotNil(t, c.DayOfWeek)
	assert.Equal(t, models.Monday, *c.DayOfWeek)
	require.NotNil(t, c.PeriodNumber)
	assert.Equal(t, 1, *c.PeriodNumber)
	assert.Contains(t, c.Detail, "class-a")
	assert.Contains(t, c.Detail, "class-b")
}

func TestDetectConflictsClassDoubleBooking(t *testing.T) {
	entries := []models.TimetableEntry{
		detectorEntry("class-a", "math", "t-1", nil, models.Tuesday, 3),
		detectorEntry("class-a", "science", "t-2", nil, models.Tuesday, 3),
	}

	conflicts := DetectConflicts(entries)

	require.Len(t, conflicts, 1)
	assert.Equal(t, models.ConflictClassDoubleBooking, conflicts[0].Type)
	assert.Equal(t, models.SeverityHigh, conflicts[0].Severity)
	require.NotNil(t, conflicts[0].ClassID)
	assert.Equal(t, "class-a", *conflicts[0].ClassID)
	assert.Contains(t, conflicts[0].Detail, "math")
	assert.Contains(t, conflicts[0].Detail, "science")
}

func TestDetectConflictsRoomDoubleBookingIsMedium(t *testing.T) {
	room := "room-lab"
	entries := []models.TimetableEntry{
		detectorEntry("class-a", "science", "t-1", &room, models.Friday, 2),
		detectorEntry("class-b", "science", "t-2", &room, models.Friday, 2),
	}

	conflicts := DetectConflicts(entries)

	require.Len(t, conflicts, 1)
	assert.Equal(t, models.ConflictRoomDoubleBooking, conflicts[0].Type)
	assert.Equal(t, models.SeverityMedium, conflicts[0].Severity)
	require.NotNil(t, conflicts[0].RoomID)
	assert.Equal(t, room, *conflicts[0].RoomID)
}

func TestDetectConflictsIgnoresMissingRooms(t *testing.T) {
	entries := []models.TimetableEntry{
		detectorEntry("class-a", "math", "t-1", nil, models.Monday, 1),
		detectorEntry("class-b", "english", "t-2", nil, models.Monday, 1),
	}

	assert.Empty(t, DetectConflicts(entries))
}

func TestDetectConflictsOneConflictPerGroup(t *testing.T) {
	entries := []models.TimetableEntry{
		detectorEntry("class-a", "math", "t-1", nil, models.Monday, 1),
		detectorEntry("class-b", "math", "t-1", nil, models.Monday, 1),
		detectorEntry("class-c", "math", "t-1", nil, models.Monday, 1),
	}

	conflicts := DetectConflicts(entries)

	teacherConflicts := 0
	for _, c := range conflicts {
		if c.Type == models.ConflictTeacherDoubleBooking {
			teacherConflicts++
			assert.Contains(t, c.Detail, "3 lessons")
		}
	}
	assert.Equal(t, 1, teacherConflicts)
}

func TestDetectConflictsDeterministicOrder(t *testing.T) {
	room := "room-1"
	entries := []models.TimetableEntry{
		detectorEntry("class-a", "math", "t-1", &room, models.Tuesday, 4),
		detectorEntry("class-b", "science", "t-1", &room, models.Tuesday, 4),
		detectorEntry("class-a", "english", "t-2", nil, models.Monday, 1),
		detectorEntry("class-a", "art", "t-3", nil, models.Monday, 1),
	}

	first := DetectConflicts(entries)
	second := DetectConflicts(entries)

	require.Equal(t, first, second)
	require.Len(t, first, 3)
	assert.Equal(t, models.ConflictClassDoubleBooking, first[0].Type)
	assert.Equal(t, models.ConflictRoomDoubleBooking, first[1].Type)
	assert.Equal(t, models.ConflictTeacherDoubleBooking, first[2].Type)
}

// --- Fixtures ---

func detectorEntry(classID, subjectID, teacherID string, roomID *string, day models.Weekday, period int) models.TimetableEntry {
	return models.TimetableEntry{
		ClassID:      classID,
		SubjectID:    subjectID,
		TeacherID:    teacherID,
		RoomID:       roomID,
		DayOfWeek:    day,
		PeriodNumber: period,
		StartTime:    "08:00",
		EndTime:      "08:40",
	}
}
