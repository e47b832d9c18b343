package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Edufam-Tech/edufam-backend-sub000/internal/dto"
	"github.com/Edufam-Tech/edufam-backend-sub000/internal/models"
	"github.com/Edufam-Tech/edufam-backend-sub000/internal/service"
	appErrors "github.com/Edufam-Tech/edufam-backend-sub000/pkg/errors"
	"github.com/Edufam-Tech/edufam-backend-sub000/pkg/response"
)

type constraintManager interface {
	UpsertTeacherAvailability(ctx context.Context, req dto.TeacherAvailabilityRequest) (*models.TeacherAvailability, error)
	ListTeacherAvailability(ctx context.Context, teacherID string) ([]models.TeacherAvailability, error)
	UpsertRoomAvailability(ctx context.Context, req dto.RoomAvailabilityRequest) (*models.RoomAvailability, error)
	ListRoomAvailability(ctx context.Context, roomID string) ([]models.RoomAvailability, error)
	UpsertSubjectRequirement(ctx context.Context, req dto.SubjectRequirementRequest) (*models.SubjectRequirement, error)
	ListSubjectRequirements(ctx context.Context) ([]models.SubjectRequirement, error)
}

// ConstraintHandler exposes availability and subject requirement endpoints.
type ConstraintHandler struct {
	service constraintManager
}

// NewConstraintHandler constructs the handler.
func NewConstraintHandler(svc *service.ConstraintService) *ConstraintHandler {
	return &ConstraintHandler{service: svc}
}

// ListTeacherAvailability godoc
// @Summary List teacher availability windows
// @Tags Scheduling
// @Produce json
// @Param teacherId query string false "Filter by teacher"
// @Success 200 {object} response.Envelope
// @Router /scheduling/constraints/teacher-availability [get]
func (h *ConstraintHandler) ListTeacherAvailability(c *gin.Context) {
	rows, err := h.service.ListTeacherAvailability(c.Request.Context(), c.Query("teacherId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}

// UpsertTeacherAvailability godoc
// @Summary Create or replace a teacher availability window
// @Description Writes upsert on (teacher, day, start time), so resubmitting a window overwrites it.
// @Tags Scheduling
// @Accept json
// @Produce json
// @Param payload body dto.TeacherAvailabilityRequest true "Availability window"
// @Success 200 {object} response.Envelope
// @Router /scheduling/constraints/teacher-availability [put]
func (h *ConstraintHandler) UpsertTeacherAvailability(c *gin.Context) {
	var req dto.TeacherAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid availability payload"))
		return
	}
	rec, err := h.service.UpsertTeacherAvailability(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rec, nil)
}

// ListRoomAvailability godoc
// @Summary List room availability windows
// @Tags Scheduling
// @Produce json
// @Param roomId query string false "Filter by room"
// @Success 200 {object} response.Envelope
// @Router /scheduling/constraints/room-availability [get]
func (h *ConstraintHandler) ListRoomAvailability(c *gin.Context) {
	rows, err := h.service.ListRoomAvailability(c.Request.Context(), c.Query("roomId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}

// UpsertRoomAvailability godoc
// @Summary Create or replace a room availability window
// @Tags Scheduling
// @Accept json
// @Produce json
// @Param payload body dto.RoomAvailabilityRequest true "Availability window"
// @Success 200 {object} response.Envelope
// @Router /scheduling/constraints/room-availability [put]
func (h *ConstraintHandler) UpsertRoomAvailability(c *gin.Context) {
	var req dto.RoomAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid availability payload"))
		return
	}
	rec, err := h.service.UpsertRoomAvailability(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rec, nil)
}

// ListSubjectRequirements godoc
// @Summary List subject placement requirements
// @Tags Scheduling
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /scheduling/constraints/subject-requirements [get]
func (h *ConstraintHandler) ListSubjectRequirements(c *gin.Context) {
	rows, err := h.service.ListSubjectRequirements(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}

// UpsertSubjectRequirement godoc
// @Summary Create or replace the placement requirements of a subject
// @Tags Scheduling
// @Accept json
// @Produce json
// @Param payload body dto.SubjectRequirementRequest true "Subject requirement"
// @Success 200 {object} response.Envelope
// @Router /scheduling/constraints/subject-requirements [put]
func (h *ConstraintHandler) UpsertSubjectRequirement(c *gin.Context) {
	var req dto.SubjectRequirementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid requirement payload"))
		return
	}
	rec, err := h.service.UpsertSubjectRequirement(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rec, nil)
}
