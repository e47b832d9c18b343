package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Edufam-Tech/edufam-backend-sub000/internal/models"
)

func newTimetableVersionRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

const timetableVersionSelect = "SELECT id, school_id, academic_year, term, version, status, algorithm, duration_ms, conflict_count, optimization_score, meta, created_at, published_at FROM timetable_versions"

func TestTimetableVersionRepositoryCreateVersioned(t *testing.T) {
	db, mock, cleanup := newTimetableVersionRepoMock(t)
	defer cleanup()
	repo := NewTimetableVersionRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(MAX(version), 0) + 1 FROM timetable_versions WHERE school_id = $1 AND academic_year = $2 AND term = $3")).
		WithArgs("school-1", "2026", "TERM_1").
		WillReturnRows(sqlmock.NewRows([]string{"next"}).AddRow(3))

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO timetable_versions")).
		WithArgs(sqlmock.AnyArg(), "school-1", "2026", "TERM_1", 3, string(models.VersionStatusDraft), "backtracking_v1", int64(1200), 2, 87.5, types.JSONText(`{"seed":42}`), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	payload := &models.TimetableVersion{
		Scope:             models.Scope{SchoolID: "school-1", AcademicYear: "2026", Term: "TERM_1"},
		Algorithm:         "backtracking_v1",
		DurationMs:        1200,
		ConflictCount:     2,
		OptimizationScore: 87.5,
		Meta:              types.JSONText(`{"seed":42}`),
	}
	err := repo.CreateVersioned(context.Background(), nil, payload)
	require.NoError(t, err)
	assert.Equal(t, 3, payload.Version)
	assert.NotEmpty(t, payload.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableVersionRepositoryCreateVersionedMissingScope(t *testing.T) {
	db, _, cleanup := newTimetableVersionRepoMock(t)
	defer cleanup()
	repo := NewTimetableVersionRepository(db)

	payload := &models.TimetableVersion{
		Scope: models.Scope{SchoolID: "school-1", AcademicYear: "2026"},
	}
	err := repo.CreateVersioned(context.Background(), nil, payload)
	assert.Error(t, err)
}

func TestTimetableVersionRepositoryFindByIDForUpdate(t *testing.T) {
	db, mock, cleanup := newTimetableVersionRepoMock(t)
	defer cleanup()
	repo := NewTimetableVersionRepository(db)

	rows := sqlmock.NewRows([]string{"id", "school_id", "academic_year", "term", "version", "status", "algorithm", "duration_ms", "conflict_count", "optimization_score", "meta", "created_at", "published_at"}).
		AddRow("ver-1", "school-1", "2026", "TERM_1", 2, string(models.VersionStatusDraft), "backtracking_v1", int64(900), 0, 91.25, types.JSONText(`{}`), time.Now(), nil)
	mock.ExpectQuery(regexp.QuoteMeta(timetableVersionSelect + " WHERE id = $1 FOR UPDATE")).
		WithArgs("ver-1").
		WillReturnRows(rows)

	version, err := repo.FindByIDForUpdate(context.Background(), nil, "ver-1")
	require.NoError(t, err)
	assert.Equal(t, "ver-1", version.ID)
	assert.Equal(t, 2, version.Version)
	assert.Equal(t, models.VersionStatusDraft, version.Status)
	assert.Nil(t, version.PublishedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableVersionRepositorySupersedePublished(t *testing.T) {
	db, mock, cleanup := newTimetableVersionRepoMock(t)
	defer cleanup()
	repo := NewTimetableVersionRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE timetable_versions SET status = $1 WHERE school_id = $2 AND academic_year = $3 AND term = $4 AND status = $5")).
		WithArgs(string(models.VersionStatusSuperseded), "school-1", "2026", "TERM_1", string(models.VersionStatusPublished)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	affected, err := repo.SupersedePublished(context.Background(), nil, models.Scope{SchoolID: "school-1", AcademicYear: "2026", Term: "TERM_1"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableVersionRepositoryMarkPublished(t *testing.T) {
	db, mock, cleanup := newTimetableVersionRepoMock(t)
	defer cleanup()
	repo := NewTimetableVersionRepository(db)

	publishedAt := time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE timetable_versions SET status = $1, published_at = $2 WHERE id = $3")).
		WithArgs(string(models.VersionStatusPublished), publishedAt, "ver-1").
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.MarkPublished(context.Background(), nil, "ver-1", publishedAt))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableVersionRepositoryMarkPublishedNotFound(t *testing.T) {
	db, mock, cleanup := newTimetableVersionRepoMock(t)
	defer cleanup()
	repo := NewTimetableVersionRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE timetable_versions SET status = $1, published_at = $2 WHERE id = $3")).
		WithArgs(string(models.VersionStatusPublished), sqlmock.AnyArg(), "ver-missing").
		WillReturnResult(sqlmock.NewResult(1, 0))

	err := repo.MarkPublished(context.Background(), nil, "ver-missing", time.Now().UTC())
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableVersionRepositoryUpdateStatusNotFound(t *testing.T) {
	db, mock, cleanup := newTimetableVersionRepoMock(t)
	defer cleanup()
	repo := NewTimetableVersionRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE timetable_versions SET status = $1 WHERE id = $2")).
		WithArgs(string(models.VersionStatusDiscarded), "ver-missing").
		WillReturnResult(sqlmock.NewResult(1, 0))

	err := repo.UpdateStatus(context.Background(), nil, "ver-missing", models.VersionStatusDiscarded)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableVersionRepositoryGetActive(t *testing.T) {
	db, mock, cleanup := newTimetableVersionRepoMock(t)
	defer cleanup()
	repo := NewTimetableVersionRepository(db)

	publishedAt := time.Date(2026, 1, 12, 8, 30, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "school_id", "academic_year", "term", "version", "status", "algorithm", "duration_ms", "conflict_count", "optimization_score", "meta", "created_at", "published_at"}).
		AddRow("ver-2", "school-1", "2026", "TERM_1", 4, string(models.VersionStatusPublished), "backtracking_v1", int64(1500), 0, 95.0, types.JSONText(`{}`), time.Now(), publishedAt)
	mock.ExpectQuery(regexp.QuoteMeta(timetableVersionSelect + " WHERE school_id = $1 AND academic_year = $2 AND term = $3 AND status = $4")).
		WithArgs("school-1", "2026", "TERM_1", string(models.VersionStatusPublished)).
		WillReturnRows(rows)

	version, err := repo.GetActive(context.Background(), models.Scope{SchoolID: "school-1", AcademicYear: "2026", Term: "TERM_1"})
	require.NoError(t, err)
	assert.Equal(t, "ver-2", version.ID)
	require.NotNil(t, version.PublishedAt)
	assert.Equal(t, publishedAt, version.PublishedAt.UTC())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableVersionRepositoryList(t *testing.T) {
	db, mock, cleanup := newTimetableVersionRepoMock(t)
	defer cleanup()
	repo := NewTimetableVersionRepository(db)

	rows := sqlmock.NewRows([]string{"id", "school_id", "academic_year", "term", "version", "status", "algorithm", "duration_ms", "conflict_count", "optimization_score", "meta", "created_at", "published_at"}).
		AddRow("ver-3", "school-1", "2026", "TERM_1", 3, string(models.VersionStatusDraft), "backtracking_v1", int64(800), 1, 72.0, types.JSONText(`{}`), time.Now(), nil)
	mock.ExpectQuery(regexp.QuoteMeta(timetableVersionSelect+" WHERE 1=1 AND school_id = $1 AND status = $2 ORDER BY optimization_score ASC LIMIT 10 OFFSET 10")).
		WithArgs("school-1", string(models.VersionStatusDraft)).
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM timetable_versions WHERE 1=1 AND school_id = $1 AND status = $2")).
		WithArgs("school-1", string(models.VersionStatusDraft)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(11))

	filter := models.VersionFilter{
		SchoolID:  "school-1",
		Status:    string(models.VersionStatusDraft),
		Page:      2,
		PageSize:  10,
		SortBy:    "optimization_score",
		SortOrder: "asc",
	}
	versions, total, err := repo.List(context.Background(), filter)
	require.NoError(t, err)
	assert.Len(t, versions, 1)
	assert.Equal(t, 11, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableVersionRepositoryListDefaults(t *testing.T) {
	db, mock, cleanup := newTimetableVersionRepoMock(t)
	defer cleanup()
	repo := NewTimetableVersionRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(timetableVersionSelect + " WHERE 1=1 ORDER BY created_at DESC LIMIT 20 OFFSET 0")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "school_id", "academic_year", "term", "version", "status", "algorithm", "duration_ms", "conflict_count", "optimization_score", "meta", "created_at", "published_at"}))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM timetable_versions WHERE 1=1")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	versions, total, err := repo.List(context.Background(), models.VersionFilter{SortBy: "meta; DROP TABLE timetable_versions"})
	require.NoError(t, err)
	assert.Empty(t, versions)
	assert.Zero(t, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}
