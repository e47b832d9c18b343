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

type scheduleConfigManager interface {
	Get(ctx context.Context, schoolID string) (*models.ScheduleConfig, error)
	Upsert(ctx context.Context, req dto.UpdateScheduleConfigRequest) (*models.ScheduleConfig, error)
}

// ScheduleConfigHandler exposes the per-school scheduling parameters.
type ScheduleConfigHandler struct {
	service scheduleConfigManager
}

// NewScheduleConfigHandler constructs the handler.
func NewScheduleConfigHandler(svc *service.ScheduleConfigService) *ScheduleConfigHandler {
	return &ScheduleConfigHandler{service: svc}
}

// Get godoc
// @Summary Get the schedule configuration of a school
// @Tags Scheduling
// @Produce json
// @Param schoolId query string true "School ID"
// @Success 200 {object} response.Envelope
// @Router /scheduling/config [get]
func (h *ScheduleConfigHandler) Get(c *gin.Context) {
	cfg, err := h.service.Get(c.Request.Context(), c.Query("schoolId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cfg, nil)
}

// Upsert godoc
// @Summary Create or replace the schedule configuration of a school
// @Description The full parameter set is validated by expanding it into a slot grid before it is stored.
// @Tags Scheduling
// @Accept json
// @Produce json
// @Param payload body dto.UpdateScheduleConfigRequest true "Configuration payload"
// @Success 200 {object} response.Envelope
// @Router /scheduling/config [put]
func (h *ScheduleConfigHandler) Upsert(c *gin.Context) {
	var req dto.UpdateScheduleConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid configuration payload"))
		return
	}
	cfg, err := h.service.Upsert(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cfg, nil)
}
