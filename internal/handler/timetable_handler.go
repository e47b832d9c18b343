package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Edufam-Tech/edufam-backend-sub000/internal/dto"
	"github.com/Edufam-Tech/edufam-backend-sub000/internal/middleware"
	"github.com/Edufam-Tech/edufam-backend-sub000/internal/models"
	"github.com/Edufam-Tech/edufam-backend-sub000/internal/service"
	appErrors "github.com/Edufam-Tech/edufam-backend-sub000/pkg/errors"
	"github.com/Edufam-Tech/edufam-backend-sub000/pkg/response"
)

type timetableGenerator interface {
	Generate(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.GenerateTimetableResponse, error)
}

type timetableVersionManager interface {
	Publish(ctx context.Context, versionID string, req dto.PublishTimetableRequest) (*models.TimetableVersion, error)
	Discard(ctx context.Context, versionID string) (*models.TimetableVersion, error)
	GetActive(ctx context.Context, query dto.ActiveTimetableQuery) (*models.TimetableVersion, error)
	Get(ctx context.Context, versionID string) (*models.TimetableVersion, error)
	List(ctx context.Context, query dto.TimetableVersionQuery) ([]models.TimetableVersion, *models.Pagination, error)
	Entries(ctx context.Context, versionID string) ([]models.TimetableEntry, bool, error)
	Conflicts(ctx context.Context, versionID string, severity string) ([]models.TimetableConflict, error)
	Detect(ctx context.Context, req dto.DetectConflictsRequest) (*dto.DetectConflictsResponse, error)
}

type timetableExporter interface {
	Export(ctx context.Context, versionID string, req dto.ExportTimetableRequest) (*dto.ExportTimetableResponse, error)
	ResolveDownload(ctx context.Context, token string) (*service.TimetableDownload, error)
}

// TimetableHandler exposes generation, lifecycle and export endpoints.
type TimetableHandler struct {
	generator timetableGenerator
	versions  timetableVersionManager
	exporter  timetableExporter
}

// NewTimetableHandler constructs the handler. The exporter may be nil when
// exports are disabled.
func NewTimetableHandler(generator *service.TimetableGeneratorService, versions *service.TimetableVersionService, exporter *service.TimetableExportService) *TimetableHandler {
	h := &TimetableHandler{generator: generator, versions: versions}
	if exporter != nil {
		h.exporter = exporter
	}
	return h
}

// Generate godoc
// @Summary Run timetable generation for a scope
// @Description Builds the slot grid, solves assignments and persists a new draft version. At most one run per scope at a time.
// @Tags Timetable
// @Accept json
// @Produce json
// @Param payload body dto.GenerateTimetableRequest true "Generation payload"
// @Success 201 {object} response.Envelope
// @Router /timetable/generate [post]
func (h *TimetableHandler) Generate(c *gin.Context) {
	var req dto.GenerateTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid generation payload"))
		return
	}
	result, err := h.generator.Generate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Publish godoc
// @Summary Publish a draft version
// @Description Atomically supersedes the currently published version of the scope.
// @Tags Timetable
// @Accept json
// @Produce json
// @Param id path string true "Version ID"
// @Param payload body dto.PublishTimetableRequest true "Expected scope"
// @Success 200 {object} response.Envelope
// @Router /timetable/versions/{id}/publish [post]
func (h *TimetableHandler) Publish(c *gin.Context) {
	var req dto.PublishTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid publish payload"))
		return
	}
	version, err := h.versions.Publish(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, version, nil)
}

// Discard godoc
// @Summary Discard a draft version
// @Tags Timetable
// @Produce json
// @Param id path string true "Version ID"
// @Success 200 {object} response.Envelope
// @Router /timetable/versions/{id} [delete]
func (h *TimetableHandler) Discard(c *gin.Context) {
	version, err := h.versions.Discard(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, version, nil)
}

// Active godoc
// @Summary Get the published version for a scope
// @Tags Timetable
// @Produce json
// @Param schoolId query string false "School ID (defaults to the caller's school)"
// @Param academicYear query string true "Academic year"
// @Param term query string true "Term"
// @Success 200 {object} response.Envelope
// @Router /timetable/active [get]
func (h *TimetableHandler) Active(c *gin.Context) {
	query := dto.ActiveTimetableQuery{
		SchoolID:     c.Query("schoolId"),
		AcademicYear: c.Query("academicYear"),
		Term:         c.Query("term"),
	}
	if query.SchoolID == "" {
		if claims := claimsFromContext(c); claims != nil {
			query.SchoolID = claims.SchoolID
		}
	}
	version, err := h.versions.GetActive(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, version, nil)
}

// Get godoc
// @Summary Get one version by id
// @Tags Timetable
// @Produce json
// @Param id path string true "Version ID"
// @Success 200 {object} response.Envelope
// @Router /timetable/versions/{id} [get]
func (h *TimetableHandler) Get(c *gin.Context) {
	version, err := h.versions.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, version, nil)
}

// List godoc
// @Summary List versions
// @Tags Timetable
// @Produce json
// @Param schoolId query string false "Filter by school"
// @Param academicYear query string false "Filter by academic year"
// @Param term query string false "Filter by term"
// @Param status query string false "Filter by status"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /timetable/versions [get]
func (h *TimetableHandler) List(c *gin.Context) {
	query := dto.TimetableVersionQuery{
		SchoolID:     c.Query("schoolId"),
		AcademicYear: c.Query("academicYear"),
		Term:         c.Query("term"),
		Status:       c.Query("status"),
		SortBy:       c.Query("sortBy"),
		SortOrder:    c.Query("sortOrder"),
	}
	if query.SchoolID == "" {
		if claims := claimsFromContext(c); claims != nil {
			query.SchoolID = claims.SchoolID
		}
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		query.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("pageSize", "20")); err == nil {
		query.PageSize = size
	}
	versions, pagination, err := h.versions.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, versions, pagination)
}

// Entries godoc
// @Summary List the lesson entries of a version
// @Tags Timetable
// @Produce json
// @Param id path string true "Version ID"
// @Success 200 {object} response.Envelope
// @Router /timetable/versions/{id}/entries [get]
func (h *TimetableHandler) Entries(c *gin.Context) {
	entries, cacheHit, err := h.versions.Entries(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, entries, nil, middleware.ExtractMeta(c))
}

// Conflicts godoc
// @Summary List the conflicts of a version
// @Tags Timetable
// @Produce json
// @Param id path string true "Version ID"
// @Param severity query string false "Filter by severity (HIGH, MEDIUM, LOW)"
// @Success 200 {object} response.Envelope
// @Router /timetable/versions/{id}/conflicts [get]
func (h *TimetableHandler) Conflicts(c *gin.Context) {
	conflicts, err := h.versions.Conflicts(c.Request.Context(), c.Param("id"), c.Query("severity"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, conflicts, nil)
}

// Detect godoc
// @Summary Detect conflicts in a posted entry set
// @Description Runs the detector over caller-provided entries without touching stored versions.
// @Tags Timetable
// @Accept json
// @Produce json
// @Param payload body dto.DetectConflictsRequest true "Entries to check"
// @Success 200 {object} response.Envelope
// @Router /timetable/conflicts/detect [post]
func (h *TimetableHandler) Detect(c *gin.Context) {
	var req dto.DetectConflictsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid detect payload"))
		return
	}
	result, err := h.versions.Detect(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Export godoc
// @Summary Export a version to CSV
// @Tags Timetable
// @Accept json
// @Produce json
// @Param id path string true "Version ID"
// @Param payload body dto.ExportTimetableRequest false "Export options"
// @Success 201 {object} response.Envelope
// @Router /timetable/versions/{id}/export [post]
func (h *TimetableHandler) Export(c *gin.Context) {
	if h.exporter == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "exports are disabled"))
		return
	}
	var req dto.ExportTimetableRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid export payload"))
			return
		}
	}
	result, err := h.exporter.Export(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Download godoc
// @Summary Download an exported timetable via signed token
// @Tags Timetable
// @Produce octet-stream
// @Param token query string true "Signed token"
// @Success 200 {file} binary
// @Router /timetable/exports/download [get]
func (h *TimetableHandler) Download(c *gin.Context) {
	if h.exporter == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "exports are disabled"))
		return
	}
	token := strings.TrimSpace(c.Query("token"))
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token is required"))
		return
	}
	result, err := h.exporter.ResolveDownload(c.Request.Context(), token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer result.File.Close() //nolint:errcheck
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", result.Filename))
	c.Header("Cache-Control", "no-store")
	c.DataFromReader(http.StatusOK, result.SizeBytes, "text/csv", result.File, nil)
}
