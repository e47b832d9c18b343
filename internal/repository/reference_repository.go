package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/Edufam-Tech/edufam-backend-sub000/internal/models"
)

// ReferenceRepository reads the roster and catalogue tables maintained by the
// surrounding platform. The engine never writes to them, so every query here
// is a plain select ordered for deterministic consumption.
type ReferenceRepository struct {
	db *sqlx.DB
}

// NewReferenceRepository constructs repository.
func NewReferenceRepository(db *sqlx.DB) *ReferenceRepository {
	return &ReferenceRepository{db: db}
}

// ListClasses returns the classes of a school.
func (r *ReferenceRepository) ListClasses(ctx context.Context, schoolID string) ([]models.Class, error) {
	const query = `SELECT id, school_id, name, grade, created_at FROM classes WHERE school_id = $1 ORDER BY name ASC, id ASC`
	var classes []models.Class
	if err := r.db.SelectContext(ctx, &classes, query, schoolID); err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}
	return classes, nil
}

// ListSubjects returns the subject catalogue of a school.
func (r *ReferenceRepository) ListSubjects(ctx context.Context, schoolID string) ([]models.Subject, error) {
	const query = `SELECT id, school_id, code, name, is_core, created_at FROM subjects WHERE school_id = $1 ORDER BY name ASC, id ASC`
	var subjects []models.Subject
	if err := r.db.SelectContext(ctx, &subjects, query, schoolID); err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	return subjects, nil
}

// ListTeachers returns the active teachers of a school.
func (r *ReferenceRepository) ListTeachers(ctx context.Context, schoolID string) ([]models.Teacher, error) {
	const query = `SELECT id, school_id, full_name, active, created_at FROM teachers WHERE school_id = $1 AND active = TRUE ORDER BY full_name ASC, id ASC`
	var teachers []models.Teacher
	if err := r.db.SelectContext(ctx, &teachers, query, schoolID); err != nil {
		return nil, fmt.Errorf("list teachers: %w", err)
	}
	return teachers, nil
}

// ListRooms returns the rooms of a school with their capability flags.
func (r *ReferenceRepository) ListRooms(ctx context.Context, schoolID string) ([]models.Room, error) {
	const query = `SELECT id, school_id, name, capacity, is_lab, is_computer_lab, created_at FROM rooms WHERE school_id = $1 ORDER BY name ASC, id ASC`
	var rooms []models.Room
	if err := r.db.SelectContext(ctx, &rooms, query, schoolID); err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	return rooms, nil
}

// ListTeacherSubjects returns the qualification pairs of a school's active
// teachers.
func (r *ReferenceRepository) ListTeacherSubjects(ctx context.Context, schoolID string) ([]models.TeacherSubject, error) {
	const query = `
SELECT ts.teacher_id, ts.subject_id
FROM teacher_subjects ts
JOIN teachers t ON t.id = ts.teacher_id
WHERE t.school_id = $1 AND t.active = TRUE
ORDER BY ts.subject_id ASC, ts.teacher_id ASC`
	var pairs []models.TeacherSubject
	if err := r.db.SelectContext(ctx, &pairs, query, schoolID); err != nil {
		return nil, fmt.Errorf("list teacher subjects: %w", err)
	}
	return pairs, nil
}

// ListCurriculumLoads returns the weekly period demand per class and subject.
func (r *ReferenceRepository) ListCurriculumLoads(ctx context.Context, schoolID string) ([]models.CurriculumLoad, error) {
	const query = `SELECT id, school_id, class_id, subject_id, periods_per_week FROM curriculum_loads WHERE school_id = $1 ORDER BY class_id ASC, subject_id ASC`
	var loads []models.CurriculumLoad
	if err := r.db.SelectContext(ctx, &loads, query, schoolID); err != nil {
		return nil, fmt.Errorf("list curriculum loads: %w", err)
	}
	return loads, nil
}
