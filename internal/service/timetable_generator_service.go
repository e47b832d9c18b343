package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/Edufam-Tech/edufam-backend-sub000/internal/dto"
	"github.com/Edufam-Tech/edufam-backend-sub000/internal/models"
	appErrors "github.com/Edufam-Tech/edufam-backend-sub000/pkg/errors"
	"github.com/Edufam-Tech/edufam-backend-sub000/pkg/jobs"
)

const generationAlgorithm = "backtracking_v1"

type timetableVersionWriter interface {
	CreateVersioned(ctx context.Context, exec sqlx.ExtContext, version *models.TimetableVersion) error
}

type timetableEntryWriter interface {
	InsertBatch(ctx context.Context, exec sqlx.ExtContext, entries []models.TimetableEntry) error
}

type timetableConflictWriter interface {
	InsertBatch(ctx context.Context, exec sqlx.ExtContext, conflicts []models.TimetableConflict) error
}

type scheduleConfigReader interface {
	GetBySchool(ctx context.Context, schoolID string) (*models.ScheduleConfig, error)
}

type constraintSnapshotLoader interface {
	Snapshot(ctx context.Context) (*ConstraintSnapshot, error)
}

type referenceReader interface {
	ListClasses(ctx context.Context, schoolID string) ([]models.Class, error)
	ListSubjects(ctx context.Context, schoolID string) ([]models.Subject, error)
	ListTeachers(ctx context.Context, schoolID string) ([]models.Teacher, error)
	ListRooms(ctx context.Context, schoolID string) ([]models.Room, error)
	ListTeacherSubjects(ctx context.Context, schoolID string) ([]models.TeacherSubject, error)
	ListCurriculumLoads(ctx context.Context, schoolID string) ([]models.CurriculumLoad, error)
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

type runMetricsRecorder interface {
	ObserveGenerationRun(outcome string, duration time.Duration, conflicts int)
}

// --- Scope guard ---

// scopeGuard serializes generation runs per scope within this process. A
// second request for a scope whose run is still in flight is rejected, not
// queued, because concurrent solvers would race on version numbers.
type scopeGuard struct {
	mu     sync.Mutex
	active map[string]struct{}
}

func newScopeGuard() *scopeGuard {
	return &scopeGuard{active: make(map[string]struct{})}
}

func (g *scopeGuard) tryAcquire(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.active[key]; busy {
		return false
	}
	g.active[key] = struct{}{}
	return true
}

func (g *scopeGuard) release(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.active, key)
}

// --- Generator service ---

// TimetableGeneratorConfig governs run defaults and dispatch behaviour.
type TimetableGeneratorConfig struct {
	DefaultSeed       int64
	BacktracksPerUnit int
	Timeout           time.Duration
}

// TimetableGeneratorService orchestrates a full generation run: expand the
// school configuration into a slot grid, snapshot constraints and reference
// data, solve, detect conflicts, score, and persist the result as a new
// draft version. Runs execute on the shared job queue so one school's
// search does not block another's API calls.
type TimetableGeneratorService struct {
	versions  timetableVersionWriter
	entries   timetableEntryWriter
	conflicts timetableConflictWriter
	configs   scheduleConfigReader
	snapshots constraintSnapshotLoader
	reference referenceReader
	tx        txProvider
	queue     jobDispatcher
	cache     *CacheService
	metrics   runMetricsRecorder
	validator *validator.Validate
	logger    *zap.Logger
	cfg       TimetableGeneratorConfig

	guard   *scopeGuard
	mu      sync.Mutex
	pending map[string]*generationRun
}

type generationRun struct {
	scope models.Scope
	cfg   *models.ScheduleConfig
	grid  []models.Slot
	seed  int64
	bound int
	reply chan generationOutcome
}

type generationOutcome struct {
	resp *dto.GenerateTimetableResponse
	err  error
}

// NewTimetableGeneratorService wires generation dependencies.
func NewTimetableGeneratorService(
	versions timetableVersionWriter,
	entries timetableEntryWriter,
	conflicts timetableConflictWriter,
	configs scheduleConfigReader,
	snapshots constraintSnapshotLoader,
	reference referenceReader,
	tx txProvider,
	cache *CacheService,
	metrics runMetricsRecorder,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg TimetableGeneratorConfig,
) *TimetableGeneratorService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Minute
	}
	return &TimetableGeneratorService{
		versions:  versions,
		entries:   entries,
		conflicts: conflicts,
		configs:   configs,
		snapshots: snapshots,
		reference: reference,
		tx:        tx,
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
		guard:     newScopeGuard(),
		pending:   make(map[string]*generationRun),
	}
}

// AttachQueue injects the dispatcher after the queue is built. The queue's
// handler is this service's HandleJob, so construction is two-phase.
func (s *TimetableGeneratorService) AttachQueue(queue jobDispatcher) {
	s.queue = queue
}

// Generate validates the request, reserves the scope, and dispatches a run
// to the worker queue. It blocks until the run finishes or the configured
// timeout elapses; the run itself keeps going either way and releases the
// scope when done.
func (s *TimetableGeneratorService) Generate(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.GenerateTimetableResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid generation payload")
	}
	if s.queue == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "generation queue unavailable")
	}

	cfg, err := s.configs.GetBySchool(ctx, req.SchoolID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidConfiguration, "no schedule configuration for school")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule configuration")
	}
	grid, err := BuildSlotGrid(cfg)
	if err != nil {
		return nil, err
	}

	scope := req.Scope()
	if !s.guard.tryAcquire(scope.Key()) {
		return nil, appErrors.Clone(appErrors.ErrScopeConflict, "a generation run is already in progress for this scope")
	}

	run := &generationRun{
		scope: scope,
		cfg:   cfg,
		grid:  grid,
		seed:  s.resolveSeed(req.Seed),
		bound: s.resolveBound(req.MaxBacktracks),
		reply: make(chan generationOutcome, 1),
	}
	runID := uuid.NewString()
	s.mu.Lock()
	s.pending[runID] = run
	s.mu.Unlock()

	if err := s.queue.Enqueue(jobs.Job{ID: runID, Type: "timetable_generation"}); err != nil {
		s.forgetRun(runID)
		s.guard.release(scope.Key())
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue generation run")
	}

	timer := time.NewTimer(s.cfg.Timeout)
	defer timer.Stop()
	select {
	case outcome := <-run.reply:
		return outcome.resp, outcome.err
	case <-ctx.Done():
		return nil, appErrors.Wrap(ctx.Err(), appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "generation interrupted; the run continues in the background")
	case <-timer.C:
		return nil, appErrors.Clone(appErrors.ErrInternal, "generation timed out; the run continues in the background")
	}
}

// HandleJob is the queue handler for generation runs. It always returns nil:
// run failures are reported to the waiting caller, and replaying a partially
// persisted run through queue retries would double-create versions.
func (s *TimetableGeneratorService) HandleJob(ctx context.Context, job jobs.Job) error {
	s.mu.Lock()
	run, ok := s.pending[job.ID]
	s.mu.Unlock()
	if !ok {
		s.logger.Warn("generation job without pending run", zap.String("job_id", job.ID))
		return nil
	}
	defer s.forgetRun(job.ID)
	defer s.guard.release(run.scope.Key())

	started := time.Now()
	resp, err := s.execute(ctx, run)
	duration := time.Since(started)

	outcome := RunOutcomeSuccess
	if err != nil {
		outcome = RunOutcomeFailure
	}
	conflictCount := 0
	if resp != nil {
		conflictCount = len(resp.Conflicts)
	}
	if s.metrics != nil {
		s.metrics.ObserveGenerationRun(outcome, duration, conflictCount)
	}
	if err != nil {
		s.logger.Error("generation run failed",
			zap.String("scope", run.scope.Key()),
			zap.Duration("duration", duration),
			zap.Error(err))
	} else {
		s.logger.Info("generation run finished",
			zap.String("scope", run.scope.Key()),
			zap.String("version_id", resp.Version.ID),
			zap.Int("version", resp.Version.Version),
			zap.Int("entries", resp.EntriesCreated),
			zap.Int("unassigned", resp.UnassignedCount),
			zap.Int("conflicts", conflictCount),
			zap.Float64("score", resp.Version.OptimizationScore),
			zap.Duration("duration", duration))
	}

	run.reply <- generationOutcome{resp: resp, err: err}
	return nil
}

func (s *TimetableGeneratorService) execute(ctx context.Context, run *generationRun) (*dto.GenerateTimetableResponse, error) {
	snap, err := s.snapshots.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	input, err := s.buildSolverInput(ctx, run, snap)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	result := solveTimetable(*input)
	conflicts := DetectConflicts(result.Entries)
	conflicts = append(conflicts, unassignedConflicts(result.Unassigned)...)
	score, breakdown := ScoreTimetable(run.cfg, run.grid, snap, result.Entries, conflicts, result.TotalUnits)
	solveDuration := time.Since(started)

	s.logger.Debug("run scored",
		zap.String("scope", run.scope.Key()),
		zap.Float64("score", score),
		zap.Float64("conflict_ratio", breakdown.ConflictRatio),
		zap.Float64("unmet_preference_ratio", breakdown.UnmetPreferenceRatio),
		zap.Float64("workload_imbalance", breakdown.WorkloadImbalance),
		zap.Float64("distribution_unevenness", breakdown.DistributionUnevenness))

	meta, err := json.Marshal(models.VersionMeta{
		Seed:            run.seed,
		TotalUnits:      result.TotalUnits,
		EntriesCreated:  len(result.Entries),
		UnassignedCount: len(result.Unassigned),
		Backtracks:      result.Backtracks,
		BacktrackBound:  result.Bound,
		BoundExceeded:   result.BoundExceeded,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode run metadata")
	}

	version := &models.TimetableVersion{
		Scope:             run.scope,
		Status:            models.VersionStatusDraft,
		Algorithm:         generationAlgorithm,
		DurationMs:        solveDuration.Milliseconds(),
		ConflictCount:     len(conflicts),
		OptimizationScore: score,
		Meta:              types.JSONText(meta),
	}
	if err := s.persist(ctx, version, result.Entries, conflicts); err != nil {
		return nil, err
	}
	s.invalidateScope(ctx, run.scope)

	return &dto.GenerateTimetableResponse{
		Version:         *version,
		EntriesCreated:  len(result.Entries),
		UnassignedCount: len(result.Unassigned),
		Backtracks:      result.Backtracks,
		BoundExceeded:   result.BoundExceeded,
		Conflicts:       conflicts,
	}, nil
}

func (s *TimetableGeneratorService) buildSolverInput(ctx context.Context, run *generationRun, snap *ConstraintSnapshot) (*solverInput, error) {
	schoolID := run.scope.SchoolID

	classes, err := s.reference.ListClasses(ctx, schoolID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load classes")
	}
	subjects, err := s.reference.ListSubjects(ctx, schoolID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subjects")
	}
	teachers, err := s.reference.ListTeachers(ctx, schoolID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teachers")
	}
	rooms, err := s.reference.ListRooms(ctx, schoolID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rooms")
	}
	pairs, err := s.reference.ListTeacherSubjects(ctx, schoolID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher eligibility")
	}
	loads, err := s.reference.ListCurriculumLoads(ctx, schoolID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load curriculum")
	}
	if len(loads) == 0 {
		return nil, appErrors.Clone(appErrors.ErrInvalidConfiguration, "curriculum defines no period requirements for this school")
	}

	classByID := make(map[string]models.Class, len(classes))
	for _, c := range classes {
		classByID[c.ID] = c
	}
	subjectByID := make(map[string]models.Subject, len(subjects))
	for _, sub := range subjects {
		subjectByID[sub.ID] = sub
	}
	activeTeachers := make(map[string]bool, len(teachers))
	for _, t := range teachers {
		activeTeachers[t.ID] = true
	}
	eligibility := make(map[string][]string, len(subjects))
	for _, pair := range pairs {
		if !activeTeachers[pair.TeacherID] {
			continue
		}
		eligibility[pair.SubjectID] = append(eligibility[pair.SubjectID], pair.TeacherID)
	}
	for subjectID := range eligibility {
		sort.Strings(eligibility[subjectID])
	}

	return &solverInput{
		Config:            run.cfg,
		Grid:              run.grid,
		Snapshot:          snap,
		Classes:           classByID,
		Subjects:          subjectByID,
		Rooms:             rooms,
		Eligibility:       eligibility,
		Loads:             loads,
		Seed:              run.seed,
		MaxBacktracks:     run.bound,
		BacktracksPerUnit: s.cfg.BacktracksPerUnit,
	}, nil
}

func (s *TimetableGeneratorService) persist(ctx context.Context, version *models.TimetableVersion, entries []models.TimetableEntry, conflicts []models.TimetableConflict) error {
	if s.tx == nil {
		return appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = s.versions.CreateVersioned(ctx, tx, version); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to create timetable version")
		return err
	}
	for i := range entries {
		entries[i].VersionID = version.ID
	}
	for i := range conflicts {
		conflicts[i].VersionID = version.ID
	}
	if err = s.entries.InsertBatch(ctx, tx, entries); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to persist timetable entries")
		return err
	}
	if err = s.conflicts.InsertBatch(ctx, tx, conflicts); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to persist timetable conflicts")
		return err
	}
	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to commit generation transaction")
		return err
	}
	return nil
}

func (s *TimetableGeneratorService) invalidateScope(ctx context.Context, scope models.Scope) {
	if s.cache == nil || !s.cache.Enabled() {
		return
	}
	if err := s.cache.Invalidate(ctx, "timetable:"+scope.SchoolID+":*"); err != nil {
		s.logger.Warn("failed to invalidate timetable cache", zap.String("scope", scope.Key()), zap.Error(err))
	}
}

func (s *TimetableGeneratorService) forgetRun(runID string) {
	s.mu.Lock()
	delete(s.pending, runID)
	s.mu.Unlock()
}

func (s *TimetableGeneratorService) resolveSeed(seed *int64) int64 {
	if seed != nil {
		return *seed
	}
	if s.cfg.DefaultSeed != 0 {
		return s.cfg.DefaultSeed
	}
	return time.Now().UnixNano()
}

// resolveBound keeps an explicit request override; otherwise the solver
// scales the configured per-unit factor by the requirement count.
func (s *TimetableGeneratorService) resolveBound(bound *int) int {
	if bound != nil && *bound > 0 {
		return *bound
	}
	return 0
}

// unassignedConflicts converts units the solver left unplaced into
// constraint violation records so partial results stay visible.
func unassignedConflicts(unassigned []unassignedUnit) []models.TimetableConflict {
	out := make([]models.TimetableConflict, 0, len(unassigned))
	for _, u := range unassigned {
		classID := u.ClassID
		subjectID := u.SubjectID
		out = append(out, models.TimetableConflict{
			Type:      models.ConflictConstraintViolation,
			Severity:  models.SeverityHigh,
			ClassID:   &classID,
			SubjectID: &subjectID,
			Detail:    fmt.Sprintf("%d period(s) of subject %s for class %s unassigned: %s", u.BlockSize, subjectID, classID, u.Reason),
		})
	}
	return out
}
