package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Edufam-Tech/edufam-backend-sub000/internal/models"
)

func newScheduleConfigRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestScheduleConfigRepositoryUpsert(t *testing.T) {
	db, mock, cleanup := newScheduleConfigRepoMock(t)
	defer cleanup()
	repo := NewScheduleConfigRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO schedule_configs")).
		WithArgs(sqlmock.AnyArg(), "school-1", 8,
			models.WeekdayList{models.Monday, models.Tuesday, models.Wednesday},
			40, models.IntList{4}, 6, 1, true, true,
			4.0, 2.0, 2.0, 2.0,
			sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	cfg := &models.ScheduleConfig{
		SchoolID:                   "school-1",
		PeriodsPerDay:              8,
		WorkingDays:                models.WeekdayList{models.Monday, models.Tuesday, models.Wednesday},
		PeriodDurationMinutes:      40,
		BreakPeriods:               models.IntList{4},
		MaxPeriodsPerTeacherPerDay: 6,
		MinGapBetweenSameSubject:   1,
		AllowDoublePeriods:         true,
		PreferMorningForCore:       true,
		OptimizationWeights:        models.DefaultOptimizationWeights(),
	}
	err := repo.Upsert(context.Background(), cfg)
	require.NoError(t, err)
	assert.NotEmpty(t, cfg.ID)
	assert.False(t, cfg.UpdatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleConfigRepositoryUpsertRequiresSchool(t *testing.T) {
	db, _, cleanup := newScheduleConfigRepoMock(t)
	defer cleanup()
	repo := NewScheduleConfigRepository(db)

	err := repo.Upsert(context.Background(), &models.ScheduleConfig{PeriodsPerDay: 8})
	assert.Error(t, err)
}

func TestScheduleConfigRepositoryGetBySchool(t *testing.T) {
	db, mock, cleanup := newScheduleConfigRepoMock(t)
	defer cleanup()
	repo := NewScheduleConfigRepository(db)

	rows := sqlmock.NewRows([]string{"id", "school_id", "periods_per_day", "working_days", "period_duration_minutes", "break_periods", "max_periods_per_teacher_per_day", "min_gap_between_same_subject", "allow_double_periods", "prefer_morning_for_core", "weight_conflicts", "weight_preferences", "weight_distribution", "weight_workload", "created_at", "updated_at"}).
		AddRow("cfg-1", "school-1", 8, `{"MONDAY","TUESDAY","WEDNESDAY"}`, 40, `{4}`, 6, 1, true, true, 4.0, 2.0, 2.0, 2.0, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, school_id, periods_per_day, working_days, period_duration_minutes, break_periods, max_periods_per_teacher_per_day, min_gap_between_same_subject, allow_double_periods, prefer_morning_for_core, weight_conflicts, weight_preferences, weight_distribution, weight_workload, created_at, updated_at FROM schedule_configs WHERE school_id = $1")).
		WithArgs("school-1").
		WillReturnRows(rows)

	cfg, err := repo.GetBySchool(context.Background(), "school-1")
	require.NoError(t, err)
	assert.Equal(t, models.WeekdayList{models.Monday, models.Tuesday, models.Wednesday}, cfg.WorkingDays)
	assert.Equal(t, models.IntList{4}, cfg.BreakPeriods)
	assert.Equal(t, 4.0, cfg.Conflicts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleConfigRepositoryGetBySchoolNotFound(t *testing.T) {
	db, mock, cleanup := newScheduleConfigRepoMock(t)
	defer cleanup()
	repo := NewScheduleConfigRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, school_id, periods_per_day, working_days, period_duration_minutes, break_periods, max_periods_per_teacher_per_day, min_gap_between_same_subject, allow_double_periods, prefer_morning_for_core, weight_conflicts, weight_preferences, weight_distribution, weight_workload, created_at, updated_at FROM schedule_configs WHERE school_id = $1")).
		WithArgs("school-missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetBySchool(context.Background(), "school-missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
