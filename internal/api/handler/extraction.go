package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/timmy/analystai/internal/api/middleware"
	"github.com/timmy/analystai/internal/repository"
	"github.com/timmy/analystai/internal/service"
)

// ExtractionHandler handles extraction task endpoints.
type ExtractionHandler struct {
	extractionService *service.ExtractionService
}

// NewExtractionHandler creates a new extraction handler.
// Parameters:
//   - extractionService: extraction service instance.
// Returns:
//   - *ExtractionHandler: initialized handler.
func NewExtractionHandler(extractionService *service.ExtractionService) *ExtractionHandler {
	return &ExtractionHandler{
		extractionService: extractionService,
	}
}

// SubmitExtractionRequest is the form body of POST /api/extract-pdf.
type SubmitExtractionRequest struct {
	FileID  string `form:"fileId"`
	Options string `form:"options"`
}

// SubmitExtractionResponse is returned once the task is registered.
type SubmitExtractionResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// Submit handles POST /api/extract-pdf.
// Accepts multipart or urlencoded form fields fileId and options; other bodies are ignored.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *ExtractionHandler) Submit(c *gin.Context) {
	var req SubmitExtractionRequest
	if err := c.ShouldBindWith(&req, binding.Form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid form data: " + err.Error(),
		})
		return
	}
	if req.FileID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "fileId is required",
		})
		return
	}

	opts, err := service.ParseExtractionOptions(req.Options)
	if err != nil {
		middleware.GetLogger(c).WithError(err).Error("Error starting PDF extraction")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": err.Error(),
		})
		return
	}

	task, err := h.extractionService.Submit(c.Request.Context(), req.FileID, opts)
	if err != nil {
		middleware.GetLogger(c).WithError(err).Error("Error starting PDF extraction")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, SubmitExtractionResponse{
		ID:     task.ID,
		Status: string(task.Status),
	})
}

// Status handles GET /api/extraction-status/:task_id.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *ExtractionHandler) Status(c *gin.Context) {
	task, err := h.extractionService.GetStatus(c.Request.Context(), c.Param("task_id"))
	if err != nil {
		writeTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, task)
}

// Download handles GET /api/download/:task_id.
// The optional format query parameter defaults to json; only JSON is produced.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON attachment).
func (h *ExtractionHandler) Download(c *gin.Context) {
	id := c.Param("task_id")
	format := c.DefaultQuery("format", service.DefaultDownloadFormat)

	task, err := h.extractionService.Download(c.Request.Context(), id, format)
	if err != nil {
		writeTaskError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="extraction-%s.json"`, task.ID))
	c.JSON(http.StatusOK, task)
}

func writeTaskError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrTaskNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Extraction task not found",
		})
	case errors.Is(err, service.ErrTaskNotCompleted):
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Extraction not yet completed",
		})
	default:
		middleware.GetLogger(c).WithError(err).Error("Extraction task lookup failed")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": err.Error(),
		})
	}
}
