package service

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/Edufam-Tech/edufam-backend-sub000/internal/dto"
	"github.com/Edufam-Tech/edufam-backend-sub000/internal/models"
	appErrors "github.com/Edufam-Tech/edufam-backend-sub000/pkg/errors"
)

type constraintRepository interface {
	UpsertTeacherAvailability(ctx context.Context, rec *models.TeacherAvailability) error
	ListTeacherAvailability(ctx context.Context, teacherID string) ([]models.TeacherAvailability, error)
	UpsertRoomAvailability(ctx context.Context, rec *models.RoomAvailability) error
	ListRoomAvailability(ctx context.Context, roomID string) ([]models.RoomAvailability, error)
	UpsertSubjectRequirement(ctx context.Context, rec *models.SubjectRequirement) error
	ListSubjectRequirements(ctx context.Context) ([]models.SubjectRequirement, error)
}

// ConstraintService maintains availability windows and subject requirements.
// Writes are upserts keyed by the record's natural key, so repeated
// submissions converge on one authoritative row.
type ConstraintService struct {
	repo      constraintRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewConstraintService constructs a ConstraintService.
func NewConstraintService(repo constraintRepository, validate *validator.Validate, logger *zap.Logger) *ConstraintService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConstraintService{
		repo:      repo,
		validator: validate,
		logger:    logger,
	}
}

// UpsertTeacherAvailability stores one availability window for a teacher.
func (s *ConstraintService) UpsertTeacherAvailability(ctx context.Context, req dto.TeacherAvailabilityRequest) (*models.TeacherAvailability, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teacher availability payload")
	}
	day, start, end, err := validateWindow(req.DayOfWeek, req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}
	rec := &models.TeacherAvailability{
		TeacherID: req.TeacherID,
		DayOfWeek: day,
		StartTime: start,
		EndTime:   end,
		Kind:      models.AvailabilityKind(req.Kind),
		Weight:    req.Weight,
	}
	if err := s.repo.UpsertTeacherAvailability(ctx, rec); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to store teacher availability")
	}
	return rec, nil
}

// ListTeacherAvailability returns windows, optionally narrowed to one teacher.
func (s *ConstraintService) ListTeacherAvailability(ctx context.Context, teacherID string) ([]models.TeacherAvailability, error) {
	rows, err := s.repo.ListTeacherAvailability(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teacher availability")
	}
	return rows, nil
}

// UpsertRoomAvailability stores one availability window for a room.
func (s *ConstraintService) UpsertRoomAvailability(ctx context.Context, req dto.RoomAvailabilityRequest) (*models.RoomAvailability, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid room availability payload")
	}
	day, start, end, err := validateWindow(req.DayOfWeek, req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}
	rec := &models.RoomAvailability{
		RoomID:    req.RoomID,
		DayOfWeek: day,
		StartTime: start,
		EndTime:   end,
		Kind:      models.AvailabilityKind(req.Kind),
		Weight:    req.Weight,
	}
	if err := s.repo.UpsertRoomAvailability(ctx, rec); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to store room availability")
	}
	return rec, nil
}

// ListRoomAvailability returns windows, optionally narrowed to one room.
func (s *ConstraintService) ListRoomAvailability(ctx context.Context, roomID string) ([]models.RoomAvailability, error) {
	rows, err := s.repo.ListRoomAvailability(ctx, roomID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list room availability")
	}
	return rows, nil
}

// UpsertSubjectRequirement stores placement requirements for a subject.
func (s *ConstraintService) UpsertSubjectRequirement(ctx context.Context, req dto.SubjectRequirementRequest) (*models.SubjectRequirement, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subject requirement payload")
	}
	timeOfDay := models.TimeOfDay(req.PreferredTimeOfDay)
	if timeOfDay == "" {
		timeOfDay = models.TimeOfDayAny
	}
	rec := &models.SubjectRequirement{
		SubjectID:             req.SubjectID,
		RequiresLab:           req.RequiresLab,
		RequiresComputerLab:   req.RequiresComputerLab,
		RequiresDoublePeriod:  req.RequiresDoublePeriod,
		PreferredTimeOfDay:    timeOfDay,
		MaxConsecutivePeriods: req.MaxConsecutivePeriods,
	}
	if err := s.repo.UpsertSubjectRequirement(ctx, rec); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to store subject requirement")
	}
	return rec, nil
}

// ListSubjectRequirements returns all stored subject requirements.
func (s *ConstraintService) ListSubjectRequirements(ctx context.Context) ([]models.SubjectRequirement, error) {
	rows, err := s.repo.ListSubjectRequirements(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list subject requirements")
	}
	return rows, nil
}

// Snapshot loads every stored constraint into an in-memory view for a
// generation run.
func (s *ConstraintService) Snapshot(ctx context.Context) (*ConstraintSnapshot, error) {
	teachers, err := s.repo.ListTeacherAvailability(ctx, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher availability")
	}
	rooms, err := s.repo.ListRoomAvailability(ctx, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load room availability")
	}
	requirements, err := s.repo.ListSubjectRequirements(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject requirements")
	}
	return NewConstraintSnapshot(teachers, rooms, requirements), nil
}

func validateWindow(rawDay, rawStart, rawEnd string) (models.Weekday, string, string, error) {
	day, ok := models.NormalizeWeekday(rawDay)
	if !ok {
		return "", "", "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown day of week %q", rawDay))
	}
	startMin, ok := parseClock(rawStart)
	if !ok {
		return "", "", "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unparseable start time %q", rawStart))
	}
	endMin, ok := parseClock(rawEnd)
	if !ok {
		return "", "", "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unparseable end time %q", rawEnd))
	}
	if endMin <= startMin {
		return "", "", "", appErrors.Clone(appErrors.ErrValidation, "end time must be after start time")
	}
	return day, minutesToClock(startMin), minutesToClock(endMin), nil
}
