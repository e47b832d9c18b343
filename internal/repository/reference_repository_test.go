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
)

func newReferenceRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestReferenceRepositoryListClasses(t *testing.T) {
	db, mock, cleanup := newReferenceRepoMock(t)
	defer cleanup()
	repo := NewReferenceRepository(db)

	rows := sqlmock.NewRows([]string{"id", "school_id", "name", "grade", "created_at"}).
		AddRow("class-1", "school-1", "10A", "10", time.Now()).
		AddRow("class-2", "school-1", "10B", "10", time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, school_id, name, grade, created_at FROM classes WHERE school_id = $1 ORDER BY name ASC, id ASC")).
		WithArgs("school-1").
		WillReturnRows(rows)

	classes, err := repo.ListClasses(context.Background(), "school-1")
	require.NoError(t, err)
	require.Len(t, classes, 2)
	assert.Equal(t, "10A", classes[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReferenceRepositoryListTeachersFiltersInactive(t *testing.T) {
	db, mock, cleanup := newReferenceRepoMock(t)
	defer cleanup()
	repo := NewReferenceRepository(db)

	rows := sqlmock.NewRows([]string{"id", "school_id", "full_name", "active", "created_at"}).
		AddRow("teacher-1", "school-1", "Grace Kamau", true, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, school_id, full_name, active, created_at FROM teachers WHERE school_id = $1 AND active = TRUE ORDER BY full_name ASC, id ASC")).
		WithArgs("school-1").
		WillReturnRows(rows)

	teachers, err := repo.ListTeachers(context.Background(), "school-1")
	require.NoError(t, err)
	require.Len(t, teachers, 1)
	assert.True(t, teachers[0].Active)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReferenceRepositoryListRooms(t *testing.T) {
	db, mock, cleanup := newReferenceRepoMock(t)
	defer cleanup()
	repo := NewReferenceRepository(db)

	rows := sqlmock.NewRows([]string{"id", "school_id", "name", "capacity", "is_lab", "is_computer_lab", "created_at"}).
		AddRow("room-1", "school-1", "Lab 1", 30, true, false, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, school_id, name, capacity, is_lab, is_computer_lab, created_at FROM rooms WHERE school_id = $1 ORDER BY name ASC, id ASC")).
		WithArgs("school-1").
		WillReturnRows(rows)

	rooms, err := repo.ListRooms(context.Background(), "school-1")
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.True(t, rooms[0].IsLab)
	assert.False(t, rooms[0].IsComputerLab)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReferenceRepositoryListTeacherSubjects(t *testing.T) {
	db, mock, cleanup := newReferenceRepoMock(t)
	defer cleanup()
	repo := NewReferenceRepository(db)

	rows := sqlmock.NewRows([]string{"teacher_id", "subject_id"}).
		AddRow("teacher-1", "subj-math").
		AddRow("teacher-2", "subj-math")
	mock.ExpectQuery(regexp.QuoteMeta("JOIN teachers t ON t.id = ts.teacher_id")).
		WithArgs("school-1").
		WillReturnRows(rows)

	pairs, err := repo.ListTeacherSubjects(context.Background(), "school-1")
	require.NoError(t, err)
	require.Len(t, pairs, 2)
	assert.Equal(t, "subj-math", pairs[0].SubjectID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReferenceRepositoryListCurriculumLoads(t *testing.T) {
	db, mock, cleanup := newReferenceRepoMock(t)
	defer cleanup()
	repo := NewReferenceRepository(db)

	rows := sqlmock.NewRows([]string{"id", "school_id", "class_id", "subject_id", "periods_per_week"}).
		AddRow("load-1", "school-1", "class-1", "subj-math", 5)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, school_id, class_id, subject_id, periods_per_week FROM curriculum_loads WHERE school_id = $1 ORDER BY class_id ASC, subject_id ASC")).
		WithArgs("school-1").
		WillReturnRows(rows)

	loads, err := repo.ListCurriculumLoads(context.Background(), "school-1")
	require.NoError(t, err)
	require.Len(t, loads, 1)
	assert.Equal(t, 5, loads[0].PeriodsPerWeek)
	assert.NoError(t, mock.ExpectationsWereMet())
}
