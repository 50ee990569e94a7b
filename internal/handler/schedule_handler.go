package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/horario-api/internal/models"
	"github.com/noah-isme/horario-api/internal/service"
	appErrors "github.com/noah-isme/horario-api/pkg/errors"
	"github.com/noah-isme/horario-api/pkg/response"
)

// ScheduleHandler exposes the assignment mutation endpoints.
type ScheduleHandler struct {
	service *service.ScheduleService
}

// NewScheduleHandler constructs a schedule handler.
func NewScheduleHandler(svc *service.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{service: svc}
}

// parseSlot reads the day and period URL segments. Days accept the Spanish
// label or a zero-based index; periods are the row index.
func parseSlot(c *gin.Context) (models.Day, models.Period, error) {
	rawDay := c.Param("day")
	day, err := models.ParseDay(rawDay)
	if err != nil {
		idx, convErr := strconv.Atoi(rawDay)
		if convErr != nil || !models.Day(idx).Valid() {
			return 0, 0, appErrors.Clone(appErrors.ErrValidation, "unknown day "+rawDay)
		}
		day = models.Day(idx)
	}
	period, err := models.ParsePeriod(c.Param("period"))
	if err != nil {
		return 0, 0, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	return day, period, nil
}

// SetAssignment places or replaces a subject in a group's cell. A conflict
// is rejected with the conflict payload unless the request carries confirm.
func (h *ScheduleHandler) SetAssignment(c *gin.Context) {
	day, period, err := parseSlot(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.SetAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	assignment, err := h.service.SetAssignment(c.Request.Context(), c.Param("id"), day, period, req)
	if err != nil {
		respondPlacement(c, err)
		return
	}
	if assignment == nil {
		response.NoContent(c)
		return
	}
	response.JSON(c, http.StatusOK, assignment)
}

// ClearAssignment empties a group's cell unconditionally.
func (h *ScheduleHandler) ClearAssignment(c *gin.Context) {
	day, period, err := parseSlot(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	_, err = h.service.SetAssignment(c.Request.Context(), c.Param("id"), day, period, service.SetAssignmentRequest{})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// respondPlacement surfaces conflict rejections with the structured conflict
// so clients can ask the user to confirm.
func respondPlacement(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	if conflictErr, ok := appErr.Err.(*models.PlacementConflictError); ok {
		c.Header("Cache-Control", "no-store")
		c.JSON(appErr.Status, response.Envelope{Data: conflictErr, Error: appErr})
		return
	}
	response.Error(c, err)
}
