package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Edufam-Tech/edufam-backend-sub000/internal/models"
)

const timetableEntryColumns = `id, version_id, class_id, subject_id, teacher_id, room_id, day_of_week, period_number, start_time, end_time, is_double_period, soft_score, created_at`

// weekdayOrder sorts day name columns in calendar order instead of
// alphabetically.
const weekdayOrder = `array_position(ARRAY['MONDAY','TUESDAY','WEDNESDAY','THURSDAY','FRIDAY','SATURDAY','SUNDAY'], day_of_week)`

// TimetableEntryRepository persists the placed lessons of a version.
type TimetableEntryRepository struct {
	db *sqlx.DB
}

// NewTimetableEntryRepository constructs repository.
func NewTimetableEntryRepository(db *sqlx.DB) *TimetableEntryRepository {
	return &TimetableEntryRepository{db: db}
}

func (r *TimetableEntryRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// InsertBatch stores the entries of a freshly generated version. Entries are
// immutable once written; a new run creates a new version instead.
func (r *TimetableEntryRepository) InsertBatch(ctx context.Context, exec sqlx.ExtContext, entries []models.TimetableEntry) error {
	if len(entries) == 0 {
		return nil
	}
	target := r.exec(exec)
	now := time.Now().UTC()

	const query = `
INSERT INTO timetable_entries (id, version_id, class_id, subject_id, teacher_id, room_id, day_of_week, period_number, start_time, end_time, is_double_period, soft_score, created_at)
VALUES (:id, :version_id, :class_id, :subject_id, :teacher_id, :room_id, :day_of_week, :period_number, :start_time, :end_time, :is_double_period, :soft_score, :created_at)`

	for i := range entries {
		entry := &entries[i]
		if entry.VersionID == "" {
			return fmt.Errorf("timetable entry version_id is required")
		}
		if entry.ID == "" {
			entry.ID = uuid.NewString()
		}
		if entry.CreatedAt.IsZero() {
			entry.CreatedAt = now
		}
		if _, err := sqlx.NamedExecContext(ctx, target, query, entry); err != nil {
			return fmt.Errorf("insert timetable entry: %w", err)
		}
	}
	return nil
}

// ListByVersion returns the entries of a version in calendar order.
func (r *TimetableEntryRepository) ListByVersion(ctx context.Context, versionID string) ([]models.TimetableEntry, error) {
	query := fmt.Sprintf(`SELECT %s FROM timetable_entries WHERE version_id = $1 ORDER BY %s ASC, period_number ASC, class_id ASC`, timetableEntryColumns, weekdayOrder)
	var entries []models.TimetableEntry
	if err := r.db.SelectContext(ctx, &entries, query, versionID); err != nil {
		return nil, fmt.Errorf("list timetable entries: %w", err)
	}
	return entries, nil
}

// DeleteByVersion removes the entries of a version, used when a draft is
// discarded.
func (r *TimetableEntryRepository) DeleteByVersion(ctx context.Context, exec sqlx.ExtContext, versionID string) error {
	const query = `DELETE FROM timetable_entries WHERE version_id = $1`
	if _, err := r.exec(exec).ExecContext(ctx, query, versionID); err != nil {
		return fmt.Errorf("delete timetable entries: %w", err)
	}
	return nil
}
