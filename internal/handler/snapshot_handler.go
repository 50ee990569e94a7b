package handler

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/horario-api/internal/service"
	appErrors "github.com/noah-isme/horario-api/pkg/errors"
	"github.com/noah-isme/horario-api/pkg/response"
)

// snapshotUploadLimit caps import payloads at 10 MiB.
const snapshotUploadLimit = 10 << 20

// SnapshotHandler exposes whole-dataset export, import and reset.
type SnapshotHandler struct {
	service *service.SnapshotService
}

// NewSnapshotHandler constructs a snapshot handler.
func NewSnapshotHandler(svc *service.SnapshotService) *SnapshotHandler {
	return &SnapshotHandler{service: svc}
}

// Export streams the full dataset as a downloadable JSON document.
func (h *SnapshotHandler) Export(c *gin.Context) {
	data, err := h.service.Export(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", service.SnapshotFilename))
	c.Data(http.StatusOK, "application/json", data)
}

// Import replaces the dataset with the uploaded document. The body is the
// raw snapshot JSON, same format Export produces.
func (h *SnapshotHandler) Import(c *gin.Context) {
	data, err := io.ReadAll(io.LimitReader(c.Request.Body, snapshotUploadLimit))
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "failed to read snapshot body"))
		return
	}
	result, err := h.service.Import(c.Request.Context(), data)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// Reset wipes the dataset back to empty.
func (h *SnapshotHandler) Reset(c *gin.Context) {
	if err := h.service.Reset(c.Request.Context()); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
