package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/horario-api/internal/service"
	appErrors "github.com/noah-isme/horario-api/pkg/errors"
	"github.com/noah-isme/horario-api/pkg/response"
)

// TeacherHandler exposes the derived teacher views and the block endpoints.
type TeacherHandler struct {
	teachers *service.TeacherService
	schedule *service.ScheduleService
}

// NewTeacherHandler constructs a teacher handler.
func NewTeacherHandler(teachers *service.TeacherService, schedule *service.ScheduleService) *TeacherHandler {
	return &TeacherHandler{teachers: teachers, schedule: schedule}
}

// List returns the distinct teacher names.
func (h *TeacherHandler) List(c *gin.Context) {
	names, err := h.teachers.Teachers(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, names, map[string]interface{}{"count": len(names)})
}

// Schedule returns the teacher's computed weekly grid.
func (h *TeacherHandler) Schedule(c *gin.Context) {
	view, err := h.teachers.Schedule(c.Request.Context(), c.Param("name"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view)
}

// Summary returns the teacher's per-subject hour totals.
func (h *TeacherHandler) Summary(c *gin.Context) {
	summary, err := h.teachers.Summary(c.Request.Context(), c.Param("name"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary)
}

// SetBlock creates or updates a block; assignments at the slot are cleared.
func (h *TeacherHandler) SetBlock(c *gin.Context) {
	day, period, err := parseSlot(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.SetTeacherBlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.schedule.SetTeacherBlock(c.Request.Context(), c.Param("name"), day, period, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// DeleteBlock removes a block; assignments at the slot are cleared too.
func (h *TeacherHandler) DeleteBlock(c *gin.Context) {
	day, period, err := parseSlot(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	_, err = h.schedule.SetTeacherBlock(c.Request.Context(), c.Param("name"), day, period, service.SetTeacherBlockRequest{})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
