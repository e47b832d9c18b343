package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/Edufam-Tech/edufam-backend-sub000/internal/dto"
	"github.com/Edufam-Tech/edufam-backend-sub000/internal/models"
	appErrors "github.com/Edufam-Tech/edufam-backend-sub000/pkg/errors"
)

type timetableVersionStore interface {
	FindByID(ctx context.Context, id string) (*models.TimetableVersion, error)
	FindByIDForUpdate(ctx context.Context, exec sqlx.ExtContext, id string) (*models.TimetableVersion, error)
	SupersedePublished(ctx context.Context, exec sqlx.ExtContext, scope models.Scope) (int64, error)
	MarkPublished(ctx context.Context, exec sqlx.ExtContext, id string, publishedAt time.Time) error
	UpdateStatus(ctx context.Context, exec sqlx.ExtContext, id string, status models.VersionStatus) error
	GetActive(ctx context.Context, scope models.Scope) (*models.TimetableVersion, error)
	List(ctx context.Context, filter models.VersionFilter) ([]models.TimetableVersion, int, error)
}

type timetableEntryReader interface {
	ListByVersion(ctx context.Context, versionID string) ([]models.TimetableEntry, error)
}

type timetableConflictReader interface {
	ListByVersion(ctx context.Context, versionID string, severity string) ([]models.TimetableConflict, error)
}

type publishMetricsRecorder interface {
	RecordPublish()
}

// TimetableVersionServiceConfig tunes read caching.
type TimetableVersionServiceConfig struct {
	ReadCacheTTL time.Duration
}

// TimetableVersionService manages the version lifecycle after generation:
// publish with scope-exclusive atomicity, listing, entry and conflict reads,
// draft discard, and the standalone conflict detector.
type TimetableVersionService struct {
	versions  timetableVersionStore
	entries   timetableEntryReader
	conflicts timetableConflictReader
	tx        txProvider
	cache     *CacheService
	metrics   publishMetricsRecorder
	validator *validator.Validate
	logger    *zap.Logger
	cfg       TimetableVersionServiceConfig
}

// NewTimetableVersionService wires version lifecycle dependencies.
func NewTimetableVersionService(
	versions timetableVersionStore,
	entries timetableEntryReader,
	conflicts timetableConflictReader,
	tx txProvider,
	cache *CacheService,
	metrics publishMetricsRecorder,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg TimetableVersionServiceConfig,
) *TimetableVersionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ReadCacheTTL <= 0 {
		cfg.ReadCacheTTL = 5 * time.Minute
	}
	return &TimetableVersionService{
		versions:  versions,
		entries:   entries,
		conflicts: conflicts,
		tx:        tx,
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
	}
}

// Publish promotes a draft to the single published version of its scope.
// The row lock, supersede of the previous publication, and status flip all
// commit as one transaction, so readers never observe two active versions.
func (s *TimetableVersionService) Publish(ctx context.Context, versionID string, req dto.PublishTimetableRequest) (*models.TimetableVersion, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid publish payload")
	}
	if s.tx == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to begin publish transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	version, err := s.versions.FindByIDForUpdate(ctx, tx, versionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = appErrors.Clone(appErrors.ErrVersionNotFound, "timetable version not found")
			return nil, err
		}
		err = appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to lock timetable version")
		return nil, err
	}
	if version.Scope != req.Scope() {
		err = appErrors.Clone(appErrors.ErrScopeConflict, "version belongs to a different scope")
		return nil, err
	}
	if version.Status != models.VersionStatusDraft {
		err = appErrors.Clone(appErrors.ErrScopeConflict, fmt.Sprintf("only draft versions can be published, current status is %s", version.Status))
		return nil, err
	}

	if _, err = s.versions.SupersedePublished(ctx, tx, version.Scope); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to supersede published version")
		return nil, err
	}
	publishedAt := time.Now().UTC()
	if err = s.versions.MarkPublished(ctx, tx, versionID, publishedAt); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to mark version published")
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to commit publish transaction")
		return nil, err
	}

	version.Status = models.VersionStatusPublished
	version.PublishedAt = &publishedAt
	if s.metrics != nil {
		s.metrics.RecordPublish()
	}
	s.invalidateScope(ctx, version.Scope)
	s.logger.Info("timetable version published",
		zap.String("version_id", version.ID),
		zap.Int("version", version.Version),
		zap.String("scope", version.Scope.Key()))
	return version, nil
}

// Discard retires a draft without publishing it. Discarded is terminal.
func (s *TimetableVersionService) Discard(ctx context.Context, versionID string) (*models.TimetableVersion, error) {
	if s.tx == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to begin discard transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	version, err := s.versions.FindByIDForUpdate(ctx, tx, versionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = appErrors.Clone(appErrors.ErrVersionNotFound, "timetable version not found")
			return nil, err
		}
		err = appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to lock timetable version")
		return nil, err
	}
	if version.Status != models.VersionStatusDraft {
		err = appErrors.Clone(appErrors.ErrScopeConflict, fmt.Sprintf("only draft versions can be discarded, current status is %s", version.Status))
		return nil, err
	}
	if err = s.versions.UpdateStatus(ctx, tx, versionID, models.VersionStatusDiscarded); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to discard version")
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to commit discard transaction")
		return nil, err
	}
	version.Status = models.VersionStatusDiscarded
	return version, nil
}

// GetActive returns the currently published version for a scope.
func (s *TimetableVersionService) GetActive(ctx context.Context, query dto.ActiveTimetableQuery) (*models.TimetableVersion, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "schoolId, academicYear and term are required")
	}
	scope := models.Scope{SchoolID: query.SchoolID, AcademicYear: query.AcademicYear, Term: query.Term}
	version, err := s.versions.GetActive(ctx, scope)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrVersionNotFound, "no published timetable for this scope")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load active timetable")
	}
	return version, nil
}

// Get returns one version by id.
func (s *TimetableVersionService) Get(ctx context.Context, versionID string) (*models.TimetableVersion, error) {
	return s.findVersion(ctx, versionID)
}

// List returns versions matching the filter with pagination metadata.
func (s *TimetableVersionService) List(ctx context.Context, query dto.TimetableVersionQuery) ([]models.TimetableVersion, *models.Pagination, error) {
	filter := models.VersionFilter{
		SchoolID:     query.SchoolID,
		AcademicYear: query.AcademicYear,
		Term:         query.Term,
		Status:       strings.ToUpper(strings.TrimSpace(query.Status)),
		Page:         query.Page,
		PageSize:     query.PageSize,
		SortBy:       query.SortBy,
		SortOrder:    query.SortOrder,
	}
	if filter.Status != "" && !validVersionStatus(filter.Status) {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "unknown version status filter")
	}
	items, total, err := s.versions.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list timetable versions")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size < 1 {
		size = 20
	}
	return items, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Entries returns the ordered lesson entries of a version and reports whether
// the read was served from cache. Entries are immutable once written, so
// reads go through the cache.
func (s *TimetableVersionService) Entries(ctx context.Context, versionID string) ([]models.TimetableEntry, bool, error) {
	version, err := s.findVersion(ctx, versionID)
	if err != nil {
		return nil, false, err
	}

	cacheKey := fmt.Sprintf("timetable:%s:entries:%s", version.SchoolID, versionID)
	if s.cache != nil && s.cache.Enabled() {
		var cached []models.TimetableEntry
		if hit, cacheErr := s.cache.Get(ctx, cacheKey, &cached); cacheErr == nil && hit {
			return cached, true, nil
		}
	}

	entries, err := s.entries.ListByVersion(ctx, versionID)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list timetable entries")
	}
	if s.cache != nil && s.cache.Enabled() {
		if cacheErr := s.cache.Set(ctx, cacheKey, entries, s.cfg.ReadCacheTTL); cacheErr != nil {
			s.logger.Warn("failed to cache timetable entries", zap.String("version_id", versionID), zap.Error(cacheErr))
		}
	}
	return entries, false, nil
}

// Conflicts returns a version's conflicts, optionally filtered by severity.
func (s *TimetableVersionService) Conflicts(ctx context.Context, versionID string, severity string) ([]models.TimetableConflict, error) {
	if _, err := s.findVersion(ctx, versionID); err != nil {
		return nil, err
	}
	severity = strings.ToUpper(strings.TrimSpace(severity))
	switch models.ConflictSeverity(severity) {
	case "", models.SeverityHigh, models.SeverityMedium, models.SeverityLow:
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown severity filter")
	}
	rows, err := s.conflicts.ListByVersion(ctx, versionID, severity)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list timetable conflicts")
	}
	return rows, nil
}

// Detect runs the conflict detector over caller-provided entries without
// touching any stored version. Used to validate hand-edited timetables.
func (s *TimetableVersionService) Detect(ctx context.Context, req dto.DetectConflictsRequest) (*dto.DetectConflictsResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid detect payload")
	}
	entries := make([]models.TimetableEntry, 0, len(req.Entries))
	for i, in := range req.Entries {
		day, ok := models.NormalizeWeekday(in.DayOfWeek)
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("entry %d has unknown day of week %q", i, in.DayOfWeek))
		}
		entries = append(entries, models.TimetableEntry{
			ClassID:      in.ClassID,
			SubjectID:    in.SubjectID,
			TeacherID:    in.TeacherID,
			RoomID:       in.RoomID,
			DayOfWeek:    day,
			PeriodNumber: in.PeriodNumber,
		})
	}
	conflicts := DetectConflicts(entries)
	return &dto.DetectConflictsResponse{Conflicts: conflicts, Count: len(conflicts)}, nil
}

func (s *TimetableVersionService) findVersion(ctx context.Context, versionID string) (*models.TimetableVersion, error) {
	if strings.TrimSpace(versionID) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "version id is required")
	}
	version, err := s.versions.FindByID(ctx, versionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrVersionNotFound, "timetable version not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable version")
	}
	return version, nil
}

func (s *TimetableVersionService) invalidateScope(ctx context.Context, scope models.Scope) {
	if s.cache == nil || !s.cache.Enabled() {
		return
	}
	if err := s.cache.Invalidate(ctx, "timetable:"+scope.SchoolID+":*"); err != nil {
		s.logger.Warn("failed to invalidate timetable cache", zap.String("scope", scope.Key()), zap.Error(err))
	}
}

func validVersionStatus(raw string) bool {
	switch models.VersionStatus(raw) {
	case models.VersionStatusDraft, models.VersionStatusPublished, models.VersionStatusSuperseded, models.VersionStatusDiscarded:
		return true
	default:
		return false
	}
}
