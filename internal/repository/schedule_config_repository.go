package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Edufam-Tech/edufam-backend-sub000/internal/models"
)

const scheduleConfigColumns = `id, school_id, periods_per_day, working_days, period_duration_minutes, break_periods, max_periods_per_teacher_per_day, min_gap_between_same_subject, allow_double_periods, prefer_morning_for_core, weight_conflicts, weight_preferences, weight_distribution, weight_workload, created_at, updated_at`

// ScheduleConfigRepository persists per-school scheduling parameters.
type ScheduleConfigRepository struct {
	db *sqlx.DB
}

// NewScheduleConfigRepository constructs repository.
func NewScheduleConfigRepository(db *sqlx.DB) *ScheduleConfigRepository {
	return &ScheduleConfigRepository{db: db}
}

// Upsert writes the configuration for a school. One row per school: a second
// write with the same school_id overwrites the first.
func (r *ScheduleConfigRepository) Upsert(ctx context.Context, cfg *models.ScheduleConfig) error {
	if cfg == nil {
		return fmt.Errorf("schedule config payload is nil")
	}
	if cfg.SchoolID == "" {
		return fmt.Errorf("school_id is required")
	}
	if cfg.ID == "" {
		cfg.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if cfg.CreatedAt.IsZero() {
		cfg.CreatedAt = now
	}
	cfg.UpdatedAt = now

	const query = `
INSERT INTO schedule_configs (id, school_id, periods_per_day, working_days, period_duration_minutes, break_periods, max_periods_per_teacher_per_day, min_gap_between_same_subject, allow_double_periods, prefer_morning_for_core, weight_conflicts, weight_preferences, weight_distribution, weight_workload, created_at, updated_at)
VALUES (:id, :school_id, :periods_per_day, :working_days, :period_duration_minutes, :break_periods, :max_periods_per_teacher_per_day, :min_gap_between_same_subject, :allow_double_periods, :prefer_morning_for_core, :weight_conflicts, :weight_preferences, :weight_distribution, :weight_workload, :created_at, :updated_at)
ON CONFLICT (school_id) DO UPDATE
SET periods_per_day = EXCLUDED.periods_per_day,
    working_days = EXCLUDED.working_days,
    period_duration_minutes = EXCLUDED.period_duration_minutes,
    break_periods = EXCLUDED.break_periods,
    max_periods_per_teacher_per_day = EXCLUDED.max_periods_per_teacher_per_day,
    min_gap_between_same_subject = EXCLUDED.min_gap_between_same_subject,
    allow_double_periods = EXCLUDED.allow_double_periods,
    prefer_morning_for_core = EXCLUDED.prefer_morning_for_core,
    weight_conflicts = EXCLUDED.weight_conflicts,
    weight_preferences = EXCLUDED.weight_preferences,
    weight_distribution = EXCLUDED.weight_distribution,
    weight_workload = EXCLUDED.weight_workload,
    updated_at = EXCLUDED.updated_at`
	if _, err := sqlx.NamedExecContext(ctx, r.db, query, cfg); err != nil {
		return fmt.Errorf("upsert schedule config: %w", err)
	}
	return nil
}

// GetBySchool loads the configuration of a school.
func (r *ScheduleConfigRepository) GetBySchool(ctx context.Context, schoolID string) (*models.ScheduleConfig, error) {
	query := fmt.Sprintf(`SELECT %s FROM schedule_configs WHERE school_id = $1`, scheduleConfigColumns)
	var cfg models.ScheduleConfig
	if err := r.db.GetContext(ctx, &cfg, query, schoolID); err != nil {
		return nil, err
	}
	return &cfg, nil
}
