package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/eduscheduler-api/internal/dto"
	"github.com/noah-isme/eduscheduler-api/internal/models"
	"github.com/noah-isme/eduscheduler-api/internal/service"
	"github.com/noah-isme/eduscheduler-api/pkg/response"
)

type exportService interface {
	Render(ctx context.Context, timetableID string, format string) (*service.ExportFile, error)
	Enqueue(ctx context.Context, timetableID string, format string) (*models.ExportJob, error)
	Job(ctx context.Context, id string) (*models.ExportJob, error)
	Download(ctx context.Context, token string) (*service.ExportFile, error)
}

// ExportHandler serves timetable exports.
type ExportHandler struct {
	service exportService
}

// NewExportHandler constructs an export handler.
func NewExportHandler(svc exportService) *ExportHandler {
	return &ExportHandler{service: svc}
}

// Export godoc
// @Summary Download timetable export
// @Tags Exports
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Timetable ID"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /timetables/{id}/export [get]
func (h *ExportHandler) Export(c *gin.Context) {
	file, err := h.service.Render(c.Request.Context(), c.Param("id"), c.DefaultQuery("format", string(models.ExportFormatCSV)))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Payload)
}

// Enqueue godoc
// @Summary Queue timetable export
// @Tags Exports
// @Accept json
// @Produce json
// @Param id path string true "Timetable ID"
// @Param payload body dto.CreateExportRequest true "Export format"
// @Success 202 {object} response.Envelope
// @Router /timetables/{id}/exports [post]
func (h *ExportHandler) Enqueue(c *gin.Context) {
	var req dto.CreateExportRequest
	if !bindJSON(c, &req, "invalid export payload") {
		return
	}
	job, err := h.service.Enqueue(c.Request.Context(), c.Param("id"), req.Format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, job)
}

// Status godoc
// @Summary Get export job status
// @Tags Exports
// @Produce json
// @Param jobId path string true "Export job ID"
// @Success 200 {object} response.Envelope
// @Router /exports/{jobId} [get]
func (h *ExportHandler) Status(c *gin.Context) {
	job, err := h.service.Job(c.Request.Context(), c.Param("jobId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, job, nil)
}

// Download godoc
// @Summary Download a finished export
// @Tags Exports
// @Param token path string true "Signed download token"
// @Success 200 {file} file
// @Failure 403 {object} response.Envelope
// @Router /exports/download/{token} [get]
func (h *ExportHandler) Download(c *gin.Context) {
	file, err := h.service.Download(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Payload)
}
