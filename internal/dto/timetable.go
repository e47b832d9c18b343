package dto

import "github.com/Edufam-Tech/edufam-backend-sub000/internal/models"

// GenerateTimetableRequest starts a generation run for one scope.
type GenerateTimetableRequest struct {
	SchoolID      string `json:"schoolId" validate:"required"`
	AcademicYear  string `json:"academicYear" validate:"required"`
	Term          string `json:"term" validate:"required"`
	Seed          *int64 `json:"seed" validate:"omitempty"`
	MaxBacktracks *int   `json:"maxBacktracks" validate:"omitempty,min=1"`
}

// Scope converts the request into the version scope it targets.
func (r *GenerateTimetableRequest) Scope() models.Scope {
	return models.Scope{SchoolID: r.SchoolID, AcademicYear: r.AcademicYear, Term: r.Term}
}

// GenerateTimetableResponse returns the persisted draft and run statistics.
type GenerateTimetableResponse struct {
	Version         models.TimetableVersion    `json:"version"`
	EntriesCreated  int                        `json:"entriesCreated"`
	UnassignedCount int                        `json:"unassignedCount"`
	Backtracks      int                        `json:"backtracks"`
	BoundExceeded   bool                       `json:"boundExceeded"`
	Conflicts       []models.TimetableConflict `json:"conflicts"`
}

// PublishTimetableRequest confirms the scope the caller believes the version
// belongs to. A mismatch aborts the publish.
type PublishTimetableRequest struct {
	SchoolID     string `json:"schoolId" validate:"required"`
	AcademicYear string `json:"academicYear" validate:"required"`
	Term         string `json:"term" validate:"required"`
}

// Scope converts the request into the expected version scope.
func (r *PublishTimetableRequest) Scope() models.Scope {
	return models.Scope{SchoolID: r.SchoolID, AcademicYear: r.AcademicYear, Term: r.Term}
}

// ActiveTimetableQuery selects the published version of one scope.
type ActiveTimetableQuery struct {
	SchoolID     string `form:"schoolId" validate:"required"`
	AcademicYear string `form:"academicYear" validate:"required"`
	Term         string `form:"term" validate:"required"`
}

// TimetableVersionQuery filters the paginated version listing.
type TimetableVersionQuery struct {
	SchoolID     string `form:"schoolId"`
	AcademicYear string `form:"academicYear"`
	Term         string `form:"term"`
	Status       string `form:"status"`
	Page         int    `form:"page"`
	PageSize     int    `form:"pageSize"`
	SortBy       string `form:"sortBy"`
	SortOrder    string `form:"sortOrder"`
}

// EntryInput is one lesson placement submitted to the standalone detector.
type EntryInput struct {
	ClassID      string  `json:"classId" validate:"required"`
	SubjectID    string  `json:"subjectId" validate:"required"`
	TeacherID    string  `json:"teacherId" validate:"required"`
	RoomID       *string `json:"roomId,omitempty"`
	DayOfWeek    string  `json:"dayOfWeek" validate:"required"`
	PeriodNumber int     `json:"periodNumber" validate:"required,min=1"`
}

// DetectConflictsRequest runs the detector over posted entries without
// touching persisted versions.
type DetectConflictsRequest struct {
	Entries []EntryInput `json:"entries" validate:"required,min=1,dive"`
}

// DetectConflictsResponse returns the violations found.
type DetectConflictsResponse struct {
	Conflicts []models.TimetableConflict `json:"conflicts"`
	Count     int                        `json:"count"`
}

// ExportTimetableRequest selects the export format. Only CSV is supported.
type ExportTimetableRequest struct {
	Format string `json:"format" validate:"omitempty,oneof=csv"`
}

// ExportTimetableResponse carries the signed download link for the export.
type ExportTimetableResponse struct {
	Filename    string `json:"filename"`
	DownloadURL string `json:"downloadUrl"`
	ExpiresAt   int64  `json:"expiresAt"`
}
