package handlers

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/phambaophuc/pdf-watermark/internal/config"
	"github.com/phambaophuc/pdf-watermark/internal/models"
	"github.com/phambaophuc/pdf-watermark/internal/services/processor"
	"github.com/phambaophuc/pdf-watermark/internal/services/storage"
	"github.com/phambaophuc/pdf-watermark/pkg/utils"
	"go.uber.org/zap"
)

const (
	fileParamKey   = "pdfFile"
	phraseParamKey = "phrase"
	modeParamKey   = "watermarkMode"
	urlParamKey    = "pdfUrl"

	msgNoPhrase      = "No watermark phrase given!"
	msgNoFile        = "Select a PDF file!"
	msgProcessFailed = "Could not process file"
	msgTooLarge      = "PDF file is too large"
	msgUnavailable   = "Background processing is not available"
	msgJobNotFound   = "Job not found"
	msgBadURL        = "PDF URL must be a public http(s) address"
)

// JobStore persists async job inputs and state.
type JobStore interface {
	SaveUpload(ctx context.Context, data []byte, filename string) (string, error)
	SaveJob(ctx context.Context, job *models.WatermarkJob) error
	GetJob(ctx context.Context, id string) (*models.WatermarkJob, error)
	HealthCheck(ctx context.Context) map[string]string
}

// JobQueue hands async jobs to the workers.
type JobQueue interface {
	PublishJob(ctx context.Context, job *models.WatermarkJob) error
	Stats() (*models.QueueStats, error)
	HealthCheck() string
}

type PDFHandler struct {
	processor *processor.PDFProcessor
	storage   JobStore
	queue     JobQueue
	logger    *zap.Logger
	config    *config.Config
}

// NewPDFHandler wires the handler. storage and queue may be nil, in which case
// only the synchronous endpoints work.
func NewPDFHandler(
	processor *processor.PDFProcessor,
	storage JobStore,
	queue JobQueue,
	logger *zap.Logger,
	config *config.Config,
) *PDFHandler {
	return &PDFHandler{
		processor: processor,
		storage:   storage,
		queue:     queue,
		logger:    logger,
		config:    config,
	}
}

// === MAIN API ENDPOINTS ===

// Watermark stamps the uploaded PDF and returns it as a download.
func (h *PDFHandler) Watermark(c *gin.Context) {
	form, ok := h.parseUpload(c)
	if !ok {
		return
	}
	defer form.file.Close()

	if err := h.processor.ValidatePDF(form.file, h.config.Storage.MaxFileSize); err != nil {
		h.respondProcessingError(c, err)
		return
	}

	buffer := &bytes.Buffer{}
	started := time.Now()
	if err := h.processor.Stamp(form.file, buffer, form.request.Phrase, form.request.Mode); err != nil {
		h.respondProcessingError(c, err)
		return
	}

	filename := utils.WatermarkedFilename(form.header.Filename)
	h.logger.Info("PDF watermarked",
		zap.String("filename", filename),
		zap.String("mode", form.request.Mode.String()),
		zap.Int64("input_size", form.header.Size),
		zap.Int("output_size", buffer.Len()),
		zap.Duration("duration", time.Since(started)),
	)

	h.respondWithFile(c, buffer.Bytes(), filename)
}

// CreateJob queues a watermark job for an uploaded file or a PDF URL.
func (h *PDFHandler) CreateJob(c *gin.Context) {
	if h.storage == nil || h.queue == nil {
		h.respondError(c, http.StatusServiceUnavailable, msgUnavailable)
		return
	}

	job, ok := h.buildJob(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if err := h.storage.SaveJob(ctx, job); err != nil {
		h.logger.Error("Failed to save job", zap.String("job_id", job.ID), zap.Error(err))
		h.respondError(c, http.StatusInternalServerError, msgProcessFailed)
		return
	}

	if err := h.queue.PublishJob(ctx, job); err != nil {
		h.logger.Error("Failed to publish job", zap.String("job_id", job.ID), zap.Error(err))
		job.Status = models.StatusFailed
		job.Error = "failed to queue job"
		if err := h.storage.SaveJob(ctx, job); err != nil {
			h.logger.Warn("Failed to record queue failure", zap.String("job_id", job.ID), zap.Error(err))
		}
		h.respondError(c, http.StatusServiceUnavailable, msgUnavailable)
		return
	}

	c.JSON(http.StatusAccepted, models.APIResponse{
		Success: true,
		Data:    job,
	})
}

// GetJob reports the state of an async job.
func (h *PDFHandler) GetJob(c *gin.Context) {
	if h.storage == nil {
		h.respondError(c, http.StatusServiceUnavailable, msgUnavailable)
		return
	}

	job, err := h.storage.GetJob(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, storage.ErrJobNotFound) {
			h.respondError(c, http.StatusNotFound, msgJobNotFound)
			return
		}
		h.logger.Error("Failed to load job", zap.String("job_id", c.Param("id")), zap.Error(err))
		h.respondError(c, http.StatusInternalServerError, "Failed to load job")
		return
	}

	c.JSON(http.StatusOK, models.APIResponse{
		Success: true,
		Data:    job,
	})
}

// GetStats reports the async queue backlog.
func (h *PDFHandler) GetStats(c *gin.Context) {
	if h.queue == nil {
		h.respondError(c, http.StatusServiceUnavailable, msgUnavailable)
		return
	}

	stats, err := h.queue.Stats()
	if err != nil {
		h.logger.Error("Failed to read queue stats", zap.Error(err))
		h.respondError(c, http.StatusServiceUnavailable, msgUnavailable)
		return
	}

	c.JSON(http.StatusOK, models.APIResponse{
		Success: true,
		Data:    stats,
	})
}

// HealthCheck
func (h *PDFHandler) HealthCheck(c *gin.Context) {
	services := map[string]string{"processor": "healthy"}

	if h.storage != nil {
		for name, status := range h.storage.HealthCheck(c.Request.Context()) {
			services[name] = status
		}
	} else {
		services["storage"] = "not configured"
	}

	if h.queue != nil {
		services["rabbitmq"] = h.queue.HealthCheck()
	} else {
		services["rabbitmq"] = "not configured"
	}

	overall := h.calculateOverallHealth(services)

	statusCode := http.StatusOK
	if overall == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, models.APIResponse{
		Success: overall == "healthy",
		Data: models.HealthCheck{
			Status:    overall,
			Timestamp: time.Now(),
			Services:  services,
		},
	})
}

func (h *PDFHandler) buildJob(c *gin.Context) (*models.WatermarkJob, bool) {
	job := &models.WatermarkJob{
		ID:        uuid.New().String(),
		Status:    models.StatusPending,
		CreatedAt: time.Now(),
	}
	job.UpdatedAt = job.CreatedAt

	if !h.parseMultipart(c) {
		return nil, false
	}

	sourceURL := strings.TrimSpace(c.PostForm(urlParamKey))
	if sourceURL != "" {
		request, ok := h.parseRequest(c)
		if !ok {
			return nil, false
		}
		if _, err := utils.ValidateSourceURL(sourceURL); err != nil {
			h.logger.Warn("Rejected PDF URL", zap.String("url", sourceURL), zap.Error(err))
			h.respondError(c, http.StatusBadRequest, msgBadURL)
			return nil, false
		}
		job.Request = *request
		job.SourceURL = sourceURL
		job.Filename = filenameFromURL(sourceURL)
		return job, true
	}

	form, ok := h.parseUpload(c)
	if !ok {
		return nil, false
	}
	defer form.file.Close()

	data, err := h.readValidated(form)
	if err != nil {
		h.respondProcessingError(c, err)
		return nil, false
	}

	key, err := h.storage.SaveUpload(c.Request.Context(), data, form.header.Filename)
	if err != nil {
		h.logger.Error("Failed to store upload", zap.String("job_id", job.ID), zap.Error(err))
		h.respondError(c, http.StatusInternalServerError, msgProcessFailed)
		return nil, false
	}

	job.Request = *form.request
	job.InputKey = key
	job.Filename = form.header.Filename
	return job, true
}
