package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Edufam-Tech/edufam-backend-sub000/internal/models"
)

func newTimetableEntryRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestTimetableEntryRepositoryInsertBatch(t *testing.T) {
	db, mock, cleanup := newTimetableEntryRepoMock(t)
	defer cleanup()
	repo := NewTimetableEntryRepository(db)

	roomID := "room-1"
	entries := []models.TimetableEntry{
		{
			VersionID:    "ver-1",
			ClassID:      "class-1",
			SubjectID:    "subj-math",
			TeacherID:    "teacher-1",
			RoomID:       &roomID,
			DayOfWeek:    models.Monday,
			PeriodNumber: 1,
			StartTime:    "08:00",
			EndTime:      "08:40",
			SoftScore:    2.5,
		},
		{
			VersionID:      "ver-1",
			ClassID:        "class-1",
			SubjectID:      "subj-math",
			TeacherID:      "teacher-1",
			DayOfWeek:      models.Tuesday,
			PeriodNumber:   3,
			StartTime:      "09:30",
			EndTime:        "10:10",
			IsDoublePeriod: true,
		},
	}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO timetable_entries")).
		WithArgs(sqlmock.AnyArg(), "ver-1", "class-1", "subj-math", "teacher-1", "room-1", string(models.Monday), 1, "08:00", "08:40", false, 2.5, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO timetable_entries")).
		WithArgs(sqlmock.AnyArg(), "ver-1", "class-1", "subj-math", "teacher-1", nil, string(models.Tuesday), 3, "09:30", "10:10", true, 0.0, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.InsertBatch(context.Background(), nil, entries)
	require.NoError(t, err)
	assert.NotEmpty(t, entries[0].ID)
	assert.NotEmpty(t, entries[1].ID)
	assert.False(t, entries[0].CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableEntryRepositoryInsertBatchRequiresVersion(t *testing.T) {
	db, _, cleanup := newTimetableEntryRepoMock(t)
	defer cleanup()
	repo := NewTimetableEntryRepository(db)

	entries := []models.TimetableEntry{{ClassID: "class-1", SubjectID: "subj-math", TeacherID: "teacher-1"}}
	err := repo.InsertBatch(context.Background(), nil, entries)
	assert.Error(t, err)
}

func TestTimetableEntryRepositoryInsertBatchEmpty(t *testing.T) {
	db, mock, cleanup := newTimetableEntryRepoMock(t)
	defer cleanup()
	repo := NewTimetableEntryRepository(db)

	require.NoError(t, repo.InsertBatch(context.Background(), nil, nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableEntryRepositoryListByVersion(t *testing.T) {
	db, mock, cleanup := newTimetableEntryRepoMock(t)
	defer cleanup()
	repo := NewTimetableEntryRepository(db)

	rows := sqlmock.NewRows([]string{"id", "version_id", "class_id", "subject_id", "teacher_id", "room_id", "day_of_week", "period_number", "start_time", "end_time", "is_double_period", "soft_score", "created_at"}).
		AddRow("entry-1", "ver-1", "class-1", "subj-math", "teacher-1", nil, string(models.Monday), 1, "08:00", "08:40", false, 0.0, time.Now()).
		AddRow("entry-2", "ver-1", "class-1", "subj-eng", "teacher-2", "room-1", string(models.Monday), 2, "08:45", "09:25", false, 1.5, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, version_id, class_id, subject_id, teacher_id, room_id, day_of_week, period_number, start_time, end_time, is_double_period, soft_score, created_at FROM timetable_entries WHERE version_id = $1 ORDER BY array_position(ARRAY['MONDAY','TUESDAY','WEDNESDAY','THURSDAY','FRIDAY','SATURDAY','SUNDAY'], day_of_week) ASC, period_number ASC, class_id ASC")).
		WithArgs("ver-1").
		WillReturnRows(rows)

	entries, err := repo.ListByVersion(context.Background(), "ver-1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, models.Monday, entries[0].DayOfWeek)
	assert.Nil(t, entries[0].RoomID)
	require.NotNil(t, entries[1].RoomID)
	assert.Equal(t, "room-1", *entries[1].RoomID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableEntryRepositoryDeleteByVersion(t *testing.T) {
	db, mock, cleanup := newTimetableEntryRepoMock(t)
	defer cleanup()
	repo := NewTimetableEntryRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM timetable_entries WHERE version_id = $1")).
		WithArgs("ver-1").
		WillReturnResult(sqlmock.NewResult(1, 4))

	require.NoError(t, repo.DeleteByVersion(context.Background(), nil, "ver-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
