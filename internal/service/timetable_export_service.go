package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Edufam-Tech/edufam-backend-sub000/internal/dto"
	"github.com/Edufam-Tech/edufam-backend-sub000/internal/models"
	appErrors "github.com/Edufam-Tech/edufam-backend-sub000/pkg/errors"
	"github.com/Edufam-Tech/edufam-backend-sub000/pkg/export"
	"github.com/Edufam-Tech/edufam-backend-sub000/pkg/storage"
)

type exportVersionReader interface {
	FindByID(ctx context.Context, id string) (*models.TimetableVersion, error)
}

type exportReferenceReader interface {
	ListClasses(ctx context.Context, schoolID string) ([]models.Class, error)
	ListSubjects(ctx context.Context, schoolID string) ([]models.Subject, error)
	ListTeachers(ctx context.Context, schoolID string) ([]models.Teacher, error)
	ListRooms(ctx context.Context, schoolID string) ([]models.Room, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

// exportColumns fixes the sheet layout; buildDataset emits cells in this order.
var exportColumns = []string{"Day", "Period", "Start Time", "End Time", "Class", "Subject", "Teacher", "Room", "Double Period"}

// TimetableExportConfig tunes export rendering and retention.
type TimetableExportConfig struct {
	APIPrefix       string
	ResultTTL       time.Duration
	CleanupInterval time.Duration
}

// TimetableDownload carries a resolved export file handle.
type TimetableDownload struct {
	File      *os.File
	Filename  string
	SizeBytes int64
	ExpiresAt time.Time
}

// TimetableExportService renders version entries to CSV files served through
// signed, expiring download links. The token itself carries the grant, so
// downloads need no session.
type TimetableExportService struct {
	versions  exportVersionReader
	entries   timetableEntryReader
	reference exportReferenceReader
	storage   fileStorage
	csv       csvRenderer
	signer    *storage.SignedURLSigner
	logger    *zap.Logger
	cfg       TimetableExportConfig
}

// NewTimetableExportService constructs a TimetableExportService.
func NewTimetableExportService(
	versions exportVersionReader,
	entries timetableEntryReader,
	reference exportReferenceReader,
	fileStore fileStorage,
	signer *storage.SignedURLSigner,
	csv csvRenderer,
	logger *zap.Logger,
	cfg TimetableExportConfig,
) *TimetableExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	return &TimetableExportService{
		versions:  versions,
		entries:   entries,
		reference: reference,
		storage:   fileStore,
		csv:       csv,
		signer:    signer,
		logger:    logger,
		cfg:       cfg,
	}
}

// Export renders a version's entries to CSV and returns a signed link.
func (s *TimetableExportService) Export(ctx context.Context, versionID string, req dto.ExportTimetableRequest) (*dto.ExportTimetableResponse, error) {
	format := strings.ToLower(strings.TrimSpace(req.Format))
	if format == "" {
		format = "csv"
	}
	if format != "csv" {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", req.Format))
	}

	version, err := s.versions.FindByID(ctx, versionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrVersionNotFound, "timetable version not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable version")
	}
	rows, err := s.entries.ListByVersion(ctx, versionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list timetable entries")
	}

	dataset, err := s.buildDataset(ctx, version, rows)
	if err != nil {
		return nil, err
	}
	payload, err := s.csv.Render(dataset)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	filename := s.buildFilename(version)
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store export file")
	}
	token, expiresAt, err := s.signer.Generate(versionID, relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download link")
	}

	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}
	return &dto.ExportTimetableResponse{
		Filename:    filename,
		DownloadURL: fmt.Sprintf("%s/timetable/exports/download?token=%s", prefix, token),
		ExpiresAt:   expiresAt.Unix(),
	}, nil
}

// ResolveDownload validates the token and opens the stored file.
func (s *TimetableExportService) ResolveDownload(ctx context.Context, token string) (*TimetableDownload, error) {
	grant, err := s.signer.Parse(token)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")
	}
	if _, err := s.versions.FindByID(ctx, grant.VersionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrVersionNotFound, "timetable version not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable version")
	}
	file, err := s.storage.Open(grant.Path)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open export file")
	}
	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to stat export file")
	}
	return &TimetableDownload{
		File:      file,
		Filename:  lastPathSegment(grant.Path),
		SizeBytes: info.Size(),
		ExpiresAt: grant.ExpiresAt,
	}, nil
}

// StartCleanup boots a goroutine that purges expired export files.
func (s *TimetableExportService) StartCleanup(ctx context.Context) {
	if s.cfg.CleanupInterval <= 0 {
		return
	}
	ticker := time.NewTicker(s.cfg.CleanupInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				removed, err := s.storage.CleanupOlderThan(s.cfg.ResultTTL)
				if err != nil {
					s.logger.Warn("export cleanup failed", zap.Error(err))
					continue
				}
				if len(removed) > 0 {
					s.logger.Info("expired exports removed", zap.Int("count", len(removed)))
				}
			}
		}
	}()
}

func (s *TimetableExportService) buildDataset(ctx context.Context, version *models.TimetableVersion, rows []models.TimetableEntry) (export.Dataset, error) {
	classNames, subjectNames, teacherNames, roomNames, err := s.nameLookups(ctx, version.SchoolID)
	if err != nil {
		return export.Dataset{}, err
	}

	dataRows := make([][]string, 0, len(rows))
	for _, entry := range rows {
		room := ""
		if entry.RoomID != nil {
			room = nameOrID(roomNames, *entry.RoomID)
		}
		double := "no"
		if entry.IsDoublePeriod {
			double = "yes"
		}
		dataRows = append(dataRows, []string{
			string(entry.DayOfWeek),
			strconv.Itoa(entry.PeriodNumber),
			entry.StartTime,
			entry.EndTime,
			nameOrID(classNames, entry.ClassID),
			nameOrID(subjectNames, entry.SubjectID),
			nameOrID(teacherNames, entry.TeacherID),
			room,
			double,
		})
	}
	return export.Dataset{
		Headers: exportColumns,
		Rows:    dataRows,
	}, nil
}

func (s *TimetableExportService) nameLookups(ctx context.Context, schoolID string) (map[string]string, map[string]string, map[string]string, map[string]string, error) {
	classes, err := s.reference.ListClasses(ctx, schoolID)
	if err != nil {
		return nil, nil, nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load classes")
	}
	subjects, err := s.reference.ListSubjects(ctx, schoolID)
	if err != nil {
		return nil, nil, nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subjects")
	}
	teachers, err := s.reference.ListTeachers(ctx, schoolID)
	if err != nil {
		return nil, nil, nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teachers")
	}
	rooms, err := s.reference.ListRooms(ctx, schoolID)
	if err != nil {
		return nil, nil, nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rooms")
	}

	classNames := make(map[string]string, len(classes))
	for _, c := range classes {
		classNames[c.ID] = c.Name
	}
	subjectNames := make(map[string]string, len(subjects))
	for _, sub := range subjects {
		subjectNames[sub.ID] = sub.Name
	}
	teacherNames := make(map[string]string, len(teachers))
	for _, t := range teachers {
		teacherNames[t.ID] = t.FullName
	}
	roomNames := make(map[string]string, len(rooms))
	for _, r := range rooms {
		roomNames[r.ID] = r.Name
	}
	return classNames, subjectNames, teacherNames, roomNames, nil
}

func (s *TimetableExportService) buildFilename(version *models.TimetableVersion) string {
	timestamp := time.Now().UTC().Format("20060102_150405")
	scopePart := sanitizeFilename(fmt.Sprintf("%s_%s_%s", version.SchoolID, version.AcademicYear, version.Term))
	return fmt.Sprintf("timetable_%s_v%d_%s.csv", scopePart, version.Version, timestamp)
}

func nameOrID(names map[string]string, id string) string {
	if name, ok := names[id]; ok && name != "" {
		return name
	}
	return id
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}

func lastPathSegment(path string) string {
	parts := strings.Split(path, "/")
	return parts[len(parts)-1]
}
