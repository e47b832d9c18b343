package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Edufam-Tech/edufam-backend-sub000/internal/models"
)

const teacherAvailabilityColumns = `id, teacher_id, day_of_week, start_time, end_time, kind, weight, updated_at`
const roomAvailabilityColumns = `id, room_id, day_of_week, start_time, end_time, kind, weight, updated_at`
const subjectRequirementColumns = `subject_id, requires_lab, requires_computer_lab, requires_double_period, preferred_time_of_day, max_consecutive_periods, updated_at`

// ConstraintRepository persists the three scheduling constraint tables. All
// writes are upserts on the authoritative key, so duplicate submissions
// overwrite instead of piling up.
type ConstraintRepository struct {
	db *sqlx.DB
}

// NewConstraintRepository constructs repository.
func NewConstraintRepository(db *sqlx.DB) *ConstraintRepository {
	return &ConstraintRepository{db: db}
}

// UpsertTeacherAvailability writes one availability window keyed by
// (teacher_id, day_of_week, start_time).
func (r *ConstraintRepository) UpsertTeacherAvailability(ctx context.Context, rec *models.TeacherAvailability) error {
	if rec == nil {
		return fmt.Errorf("teacher availability payload is nil")
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	rec.UpdatedAt = time.Now().UTC()

	const query = `
INSERT INTO teacher_availability (id, teacher_id, day_of_week, start_time, end_time, kind, weight, updated_at)
VALUES (:id, :teacher_id, :day_of_week, :start_time, :end_time, :kind, :weight, :updated_at)
ON CONFLICT (teacher_id, day_of_week, start_time) DO UPDATE
SET end_time = EXCLUDED.end_time,
    kind = EXCLUDED.kind,
    weight = EXCLUDED.weight,
    updated_at = EXCLUDED.updated_at`
	if _, err := sqlx.NamedExecContext(ctx, r.db, query, rec); err != nil {
		return fmt.Errorf("upsert teacher availability: %w", err)
	}
	return nil
}

// ListTeacherAvailability returns availability windows, optionally narrowed
// to one teacher.
func (r *ConstraintRepository) ListTeacherAvailability(ctx context.Context, teacherID string) ([]models.TeacherAvailability, error) {
	query := fmt.Sprintf(`SELECT %s FROM teacher_availability`, teacherAvailabilityColumns)
	var args []interface{}
	if teacherID != "" {
		query += " WHERE teacher_id = $1"
		args = append(args, teacherID)
	}
	query += " ORDER BY teacher_id ASC, day_of_week ASC, start_time ASC"

	var records []models.TeacherAvailability
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, fmt.Errorf("list teacher availability: %w", err)
	}
	return records, nil
}

// UpsertRoomAvailability writes one availability window keyed by
// (room_id, day_of_week, start_time).
func (r *ConstraintRepository) UpsertRoomAvailability(ctx context.Context, rec *models.RoomAvailability) error {
	if rec == nil {
		return fmt.Errorf("room availability payload is nil")
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	rec.UpdatedAt = time.Now().UTC()

	const query = `
INSERT INTO room_availability (id, room_id, day_of_week, start_time, end_time, kind, weight, updated_at)
VALUES (:id, :room_id, :day_of_week, :start_time, :end_time, :kind, :weight, :updated_at)
ON CONFLICT (room_id, day_of_week, start_time) DO UPDATE
SET end_time = EXCLUDED.end_time,
    kind = EXCLUDED.kind,
    weight = EXCLUDED.weight,
    updated_at = EXCLUDED.updated_at`
	if _, err := sqlx.NamedExecContext(ctx, r.db, query, rec); err != nil {
		return fmt.Errorf("upsert room availability: %w", err)
	}
	return nil
}

// ListRoomAvailability returns availability windows, optionally narrowed to
// one room.
func (r *ConstraintRepository) ListRoomAvailability(ctx context.Context, roomID string) ([]models.RoomAvailability, error) {
	query := fmt.Sprintf(`SELECT %s FROM room_availability`, roomAvailabilityColumns)
	var args []interface{}
	if roomID != "" {
		query += " WHERE room_id = $1"
		args = append(args, roomID)
	}
	query += " ORDER BY room_id ASC, day_of_week ASC, start_time ASC"

	var records []models.RoomAvailability
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, fmt.Errorf("list room availability: %w", err)
	}
	return records, nil
}

// UpsertSubjectRequirement writes the placement requirements of a subject,
// one authoritative row per subject.
func (r *ConstraintRepository) UpsertSubjectRequirement(ctx context.Context, rec *models.SubjectRequirement) error {
	if rec == nil {
		return fmt.Errorf("subject requirement payload is nil")
	}
	if rec.PreferredTimeOfDay == "" {
		rec.PreferredTimeOfDay = models.TimeOfDayAny
	}
	rec.UpdatedAt = time.Now().UTC()

	const query = `
INSERT INTO subject_requirements (subject_id, requires_lab, requires_computer_lab, requires_double_period, preferred_time_of_day, max_consecutive_periods, updated_at)
VALUES (:subject_id, :requires_lab, :requires_computer_lab, :requires_double_period, :preferred_time_of_day, :max_consecutive_periods, :updated_at)
ON CONFLICT (subject_id) DO UPDATE
SET requires_lab = EXCLUDED.requires_lab,
    requires_computer_lab = EXCLUDED.requires_computer_lab,
    requires_double_period = EXCLUDED.requires_double_period,
    preferred_time_of_day = EXCLUDED.preferred_time_of_day,
    max_consecutive_periods = EXCLUDED.max_consecutive_periods,
    updated_at = EXCLUDED.updated_at`
	if _, err := sqlx.NamedExecContext(ctx, r.db, query, rec); err != nil {
		return fmt.Errorf("upsert subject requirement: %w", err)
	}
	return nil
}

// ListSubjectRequirements returns every stored subject requirement.
func (r *ConstraintRepository) ListSubjectRequirements(ctx context.Context) ([]models.SubjectRequirement, error) {
	query := fmt.Sprintf(`SELECT %s FROM subject_requirements ORDER BY subject_id ASC`, subjectRequirementColumns)
	var records []models.SubjectRequirement
	if err := r.db.SelectContext(ctx, &records, query); err != nil {
		return nil, fmt.Errorf("list subject requirements: %w", err)
	}
	return records, nil
}
