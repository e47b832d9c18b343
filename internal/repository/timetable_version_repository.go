package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"github.com/Edufam-Tech/edufam-backend-sub000/internal/models"
)

const timetableVersionColumns = `id, school_id, academic_year, term, version, status, algorithm, duration_ms, conflict_count, optimization_score, meta, created_at, published_at`

// TimetableVersionRepository persists versioned timetable snapshots.
type TimetableVersionRepository struct {
	db *sqlx.DB
}

// NewTimetableVersionRepository constructs repository.
func NewTimetableVersionRepository(db *sqlx.DB) *TimetableVersionRepository {
	return &TimetableVersionRepository{db: db}
}

func (r *TimetableVersionRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// CreateVersioned inserts a version assigning the next number for its scope.
// Run it inside the generation transaction so concurrent runs cannot race the
// MAX(version) read.
func (r *TimetableVersionRepository) CreateVersioned(ctx context.Context, exec sqlx.ExtContext, version *models.TimetableVersion) error {
	if version == nil {
		return fmt.Errorf("timetable version payload is nil")
	}
	if version.SchoolID == "" || version.AcademicYear == "" || version.Term == "" {
		return fmt.Errorf("school_id, academic_year and term are required")
	}
	if version.ID == "" {
		version.ID = uuid.NewString()
	}
	if version.Status == "" {
		version.Status = models.VersionStatusDraft
	}
	if len(version.Meta) == 0 {
		version.Meta = types.JSONText(`{}`)
	}
	if version.CreatedAt.IsZero() {
		version.CreatedAt = time.Now().UTC()
	}

	target := r.exec(exec)

	const nextVersionQuery = `SELECT COALESCE(MAX(version), 0) + 1 FROM timetable_versions WHERE school_id = $1 AND academic_year = $2 AND term = $3`
	if err := sqlx.GetContext(ctx, target, &version.Version, nextVersionQuery, version.SchoolID, version.AcademicYear, version.Term); err != nil {
		return fmt.Errorf("compute next timetable version: %w", err)
	}

	const insertQuery = `
INSERT INTO timetable_versions (id, school_id, academic_year, term, version, status, algorithm, duration_ms, conflict_count, optimization_score, meta, created_at)
VALUES (:id, :school_id, :academic_year, :term, :version, :status, :algorithm, :duration_ms, :conflict_count, :optimization_score, :meta, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, target, insertQuery, version); err != nil {
		return fmt.Errorf("insert timetable version: %w", err)
	}
	return nil
}

// FindByID loads a version by its identifier.
func (r *TimetableVersionRepository) FindByID(ctx context.Context, id string) (*models.TimetableVersion, error) {
	query := fmt.Sprintf(`SELECT %s FROM timetable_versions WHERE id = $1`, timetableVersionColumns)
	var version models.TimetableVersion
	if err := r.db.GetContext(ctx, &version, query, id); err != nil {
		return nil, err
	}
	return &version, nil
}

// FindByIDForUpdate loads a version with a row lock. Must run inside a
// transaction; the lock serializes concurrent publishes of the same version.
func (r *TimetableVersionRepository) FindByIDForUpdate(ctx context.Context, exec sqlx.ExtContext, id string) (*models.TimetableVersion, error) {
	query := fmt.Sprintf(`SELECT %s FROM timetable_versions WHERE id = $1 FOR UPDATE`, timetableVersionColumns)
	var version models.TimetableVersion
	if err := sqlx.GetContext(ctx, r.exec(exec), &version, query, id); err != nil {
		return nil, err
	}
	return &version, nil
}

// SupersedePublished demotes the currently published version of the scope and
// returns how many rows changed.
func (r *TimetableVersionRepository) SupersedePublished(ctx context.Context, exec sqlx.ExtContext, scope models.Scope) (int64, error) {
	const query = `UPDATE timetable_versions SET status = $1 WHERE school_id = $2 AND academic_year = $3 AND term = $4 AND status = $5`
	result, err := r.exec(exec).ExecContext(ctx, query, models.VersionStatusSuperseded, scope.SchoolID, scope.AcademicYear, scope.Term, models.VersionStatusPublished)
	if err != nil {
		return 0, fmt.Errorf("supersede published timetable version: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("superseded timetable rows affected: %w", err)
	}
	return affected, nil
}

// MarkPublished promotes a version and stamps the publish time.
func (r *TimetableVersionRepository) MarkPublished(ctx context.Context, exec sqlx.ExtContext, id string, publishedAt time.Time) error {
	const query = `UPDATE timetable_versions SET status = $1, published_at = $2 WHERE id = $3`
	result, err := r.exec(exec).ExecContext(ctx, query, models.VersionStatusPublished, publishedAt, id)
	if err != nil {
		return fmt.Errorf("mark timetable version published: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("published timetable rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// UpdateStatus sets the lifecycle status of a version.
func (r *TimetableVersionRepository) UpdateStatus(ctx context.Context, exec sqlx.ExtContext, id string, status models.VersionStatus) error {
	const query = `UPDATE timetable_versions SET status = $1 WHERE id = $2`
	result, err := r.exec(exec).ExecContext(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("update timetable version status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("timetable version status rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// GetActive returns the published version of a scope.
func (r *TimetableVersionRepository) GetActive(ctx context.Context, scope models.Scope) (*models.TimetableVersion, error) {
	query := fmt.Sprintf(`SELECT %s FROM timetable_versions WHERE school_id = $1 AND academic_year = $2 AND term = $3 AND status = $4`, timetableVersionColumns)
	var version models.TimetableVersion
	if err := r.db.GetContext(ctx, &version, query, scope.SchoolID, scope.AcademicYear, scope.Term, models.VersionStatusPublished); err != nil {
		return nil, err
	}
	return &version, nil
}

// List returns versions with optional filtering and pagination.
func (r *TimetableVersionRepository) List(ctx context.Context, filter models.VersionFilter) ([]models.TimetableVersion, int, error) {
	base := "FROM timetable_versions WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.SchoolID != "" {
		conditions = append(conditions, fmt.Sprintf("school_id = $%d", len(args)+1))
		args = append(args, filter.SchoolID)
	}
	if filter.AcademicYear != "" {
		conditions = append(conditions, fmt.Sprintf("academic_year = $%d", len(args)+1))
		args = append(args, filter.AcademicYear)
	}
	if filter.Term != "" {
		conditions = append(conditions, fmt.Sprintf("term = $%d", len(args)+1))
		args = append(args, filter.Term)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{
		"version":            true,
		"status":             true,
		"optimization_score": true,
		"created_at":         true,
	}
	if !allowedSorts[sortBy] {
		sortBy = "created_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", timetableVersionColumns, base, sortBy, order, size, offset)
	var versions []models.TimetableVersion
	if err := r.db.SelectContext(ctx, &versions, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list timetable versions: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count timetable versions: %w", err)
	}

	return versions, total, nil
}
