package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/horario-api/internal/models"
	"github.com/noah-isme/horario-api/internal/service"
	appErrors "github.com/noah-isme/horario-api/pkg/errors"
	"github.com/noah-isme/horario-api/pkg/response"
)

// ConflictHandler exposes the dataset-wide conflict scan and the placement
// pre-check used to warn before committing.
type ConflictHandler struct {
	service *service.ConflictService
}

// NewConflictHandler constructs a conflict handler.
func NewConflictHandler(svc *service.ConflictService) *ConflictHandler {
	return &ConflictHandler{service: svc}
}

// List returns every slot where two or more distinct teachers collide.
func (h *ConflictHandler) List(c *gin.Context) {
	conflicts := h.service.FindAll(c.Request.Context())
	response.JSON(c, http.StatusOK, conflicts, map[string]interface{}{"count": len(conflicts)})
}

// CheckRequest describes a placement to probe without committing it.
type CheckRequest struct {
	Teacher string `json:"teacher" binding:"required"`
	Day     string `json:"day" binding:"required"`
	Period  int    `json:"period"`
	GroupID string `json:"group_id"`
}

// Check reports the conflict a placement would create, if any. It never
// mutates anything; the mutation endpoint repeats the check on commit.
func (h *ConflictHandler) Check(c *gin.Context) {
	var req CheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	day, err := models.ParseDay(req.Day)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}
	period := models.Period(req.Period)
	if !period.Schedulable() {
		response.Error(c, appErrors.Clone(appErrors.ErrNotSchedulable, ""))
		return
	}
	conflict := h.service.CheckTeacherPlacement(c.Request.Context(), req.Teacher, day, period, req.GroupID)
	response.JSON(c, http.StatusOK, gin.H{"conflict": conflict})
}
