package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/Edufam-Tech/edufam-backend-sub000/internal/dto"
	"github.com/Edufam-Tech/edufam-backend-sub000/internal/models"
	appErrors "github.com/Edufam-Tech/edufam-backend-sub000/pkg/errors"
)

type scheduleConfigRepository interface {
	Upsert(ctx context.Context, cfg *models.ScheduleConfig) error
	GetBySchool(ctx context.Context, schoolID string) (*models.ScheduleConfig, error)
}

// ScheduleConfigService maintains the per-school scheduling parameters that
// generation runs expand into slot grids.
type ScheduleConfigService struct {
	repo      scheduleConfigRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewScheduleConfigService constructs a ScheduleConfigService.
func NewScheduleConfigService(repo scheduleConfigRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *ScheduleConfigService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleConfigService{
		repo:      repo,
		cache:     cache,
		validator: validate,
		logger:    logger,
	}
}

// Get returns the stored configuration for a school.
func (s *ScheduleConfigService) Get(ctx context.Context, schoolID string) (*models.ScheduleConfig, error) {
	if strings.TrimSpace(schoolID) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "schoolId is required")
	}
	cfg, err := s.repo.GetBySchool(ctx, schoolID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule configuration not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule configuration")
	}
	return cfg, nil
}

// Upsert validates and stores the configuration. The full parameter set is
// replaced on every write; there are no partial updates.
func (s *ScheduleConfigService) Upsert(ctx context.Context, req dto.UpdateScheduleConfigRequest) (*models.ScheduleConfig, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule configuration payload")
	}

	cfg := &models.ScheduleConfig{
		SchoolID:                   req.SchoolID,
		PeriodsPerDay:              req.PeriodsPerDay,
		WorkingDays:                normalizeWorkingDays(req.WorkingDays),
		PeriodDurationMinutes:      req.PeriodDurationMinutes,
		BreakPeriods:               models.IntList(req.BreakPeriods),
		MaxPeriodsPerTeacherPerDay: req.MaxPeriodsPerTeacherPerDay,
		MinGapBetweenSameSubject:   req.MinGapBetweenSameSubject,
		AllowDoublePeriods:         req.AllowDoublePeriods,
		PreferMorningForCore:       req.PreferMorningForCore,
		OptimizationWeights:        models.DefaultOptimizationWeights(),
	}
	if req.Weights != nil {
		cfg.OptimizationWeights = models.OptimizationWeights{
			Conflicts:    req.Weights.Conflicts,
			Preferences:  req.Weights.Preferences,
			Distribution: req.Weights.Distribution,
			Workload:     req.Weights.Workload,
		}
		if cfg.Conflicts+cfg.Preferences+cfg.Distribution+cfg.Workload <= 0 {
			return nil, appErrors.Clone(appErrors.ErrInvalidWeights, "at least one optimization weight must be positive")
		}
	}

	// Expanding the grid exercises every structural rule (day names, break
	// bounds, day length), so a config that stores is a config that runs.
	if _, err := BuildSlotGrid(cfg); err != nil {
		return nil, err
	}

	if err := s.repo.Upsert(ctx, cfg); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to store schedule configuration")
	}
	s.invalidateCache(ctx, req.SchoolID)
	return cfg, nil
}

func (s *ScheduleConfigService) invalidateCache(ctx context.Context, schoolID string) {
	if s.cache == nil || !s.cache.Enabled() {
		return
	}
	if err := s.cache.Invalidate(ctx, "timetable:"+schoolID+":*"); err != nil {
		s.logger.Warn("failed to invalidate timetable cache", zap.String("school_id", schoolID), zap.Error(err))
	}
}

func normalizeWorkingDays(raw []string) models.WeekdayList {
	days := make(models.WeekdayList, 0, len(raw))
	for _, d := range raw {
		days = append(days, models.Weekday(strings.ToUpper(strings.TrimSpace(d))))
	}
	return days
}
