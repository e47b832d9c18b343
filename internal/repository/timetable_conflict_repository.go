package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Edufam-Tech/edufam-backend-sub000/internal/models"
)

const timetableConflictColumns = `id, version_id, type, severity, day_of_week, period_number, class_id, subject_id, teacher_id, room_id, detail, created_at`

// TimetableConflictRepository persists the violations detected for a version.
type TimetableConflictRepository struct {
	db *sqlx.DB
}

// NewTimetableConflictRepository constructs repository.
func NewTimetableConflictRepository(db *sqlx.DB) *TimetableConflictRepository {
	return &TimetableConflictRepository{db: db}
}

func (r *TimetableConflictRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// InsertBatch stores the conflicts of a run. Conflicts are recomputed per
// run, never edited afterwards.
func (r *TimetableConflictRepository) InsertBatch(ctx context.Context, exec sqlx.ExtContext, conflicts []models.TimetableConflict) error {
	if len(conflicts) == 0 {
		return nil
	}
	target := r.exec(exec)
	now := time.Now().UTC()

	const query = `
INSERT INTO timetable_conflicts (id, version_id, type, severity, day_of_week, period_number, class_id, subject_id, teacher_id, room_id, detail, created_at)
VALUES (:id, :version_id, :type, :severity, :day_of_week, :period_number, :class_id, :subject_id, :teacher_id, :room_id, :detail, :created_at)`

	for i := range conflicts {
		conflict := &conflicts[i]
		if conflict.VersionID == "" {
			return fmt.Errorf("timetable conflict version_id is required")
		}
		if conflict.ID == "" {
			conflict.ID = uuid.NewString()
		}
		if conflict.CreatedAt.IsZero() {
			conflict.CreatedAt = now
		}
		if _, err := sqlx.NamedExecContext(ctx, target, query, conflict); err != nil {
			return fmt.Errorf("insert timetable conflict: %w", err)
		}
	}
	return nil
}

// ListByVersion returns conflicts for a version, optionally filtered by
// severity.
func (r *TimetableConflictRepository) ListByVersion(ctx context.Context, versionID string, severity string) ([]models.TimetableConflict, error) {
	query := fmt.Sprintf(`SELECT %s FROM timetable_conflicts WHERE version_id = $1`, timetableConflictColumns)
	args := []interface{}{versionID}
	if severity != "" {
		query += " AND severity = $2"
		args = append(args, severity)
	}
	query += " ORDER BY severity ASC, type ASC, created_at ASC"

	var conflicts []models.TimetableConflict
	if err := r.db.SelectContext(ctx, &conflicts, query, args...); err != nil {
		return nil, fmt.Errorf("list timetable conflicts: %w", err)
	}
	return conflicts, nil
}

// DeleteByVersion removes the conflicts of a version, used when a draft is
// discarded.
func (r *TimetableConflictRepository) DeleteByVersion(ctx context.Context, exec sqlx.ExtContext, versionID string) error {
	const query = `DELETE FROM timetable_conflicts WHERE version_id = $1`
	if _, err := r.exec(exec).ExecContext(ctx, query, versionID); err != nil {
		return fmt.Errorf("delete timetable conflicts: %w", err)
	}
	return nil
}
