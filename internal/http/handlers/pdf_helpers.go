package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/pdf-watermark/internal/models"
	"github.com/phambaophuc/pdf-watermark/internal/services/processor"
	"go.uber.org/zap"
)

const multipartMemory = 32 << 20

type uploadForm struct {
	file    multipart.File
	header  *multipart.FileHeader
	request *models.WatermarkRequest
}

// === REQUEST PARSING ===

// parseMultipart parses the request body once, answering 413 when the body
// limit was hit. Other parse errors leave an empty form behind so the field
// checks report what is missing.
func (h *PDFHandler) parseMultipart(c *gin.Context) bool {
	if c.Request.MultipartForm != nil {
		return true
	}

	if err := c.Request.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.respondError(c, http.StatusRequestEntityTooLarge, msgTooLarge)
			return false
		}
		h.logger.Debug("Failed to parse multipart form", zap.Error(err))
	}
	return true
}

// parseRequest validates the phrase before anything else, as the form always
// did: a missing phrase wins over a missing file.
func (h *PDFHandler) parseRequest(c *gin.Context) (*models.WatermarkRequest, bool) {
	phrase := c.PostForm(phraseParamKey)
	if strings.TrimSpace(phrase) == "" {
		h.respondError(c, http.StatusBadRequest, msgNoPhrase)
		return nil, false
	}

	return &models.WatermarkRequest{
		Phrase: phrase,
		Mode:   h.parseMode(c.PostForm(modeParamKey)),
	}, true
}

func (h *PDFHandler) parseUpload(c *gin.Context) (*uploadForm, bool) {
	if !h.parseMultipart(c) {
		return nil, false
	}

	request, ok := h.parseRequest(c)
	if !ok {
		return nil, false
	}

	file, header, err := c.Request.FormFile(fileParamKey)
	if err != nil {
		h.respondError(c, http.StatusBadRequest, msgNoFile)
		return nil, false
	}

	if header.Size <= 0 {
		file.Close()
		h.respondError(c, http.StatusBadRequest, msgNoFile)
		return nil, false
	}

	return &uploadForm{file: file, header: header, request: request}, true
}

func (h *PDFHandler) parseMode(value string) models.WatermarkMode {
	mode, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return models.ModeLastPage
	}
	return models.ParseWatermarkMode(mode)
}

// === FILE OPERATIONS ===

func (h *PDFHandler) readValidated(form *uploadForm) ([]byte, error) {
	if err := h.processor.ValidatePDF(form.file, h.config.Storage.MaxFileSize); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(form.file)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", processor.ErrIO, err)
	}

	// make sure pdfcpu can open it before it is queued
	if _, err := h.processor.PageCount(bytes.NewReader(data)); err != nil {
		return nil, err
	}
	return data, nil
}

func filenameFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "document.pdf"
	}

	name := path.Base(u.Path)
	if name == "" || name == "." || name == "/" {
		return "document.pdf"
	}
	return name
}

// === RESPONSE HANDLING ===

func (h *PDFHandler) respondError(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, models.APIResponse{
		Success: false,
		Error:   message,
	})
}

// respondProcessingError maps processor errors to user facing messages.
// Library error text is only logged.
func (h *PDFHandler) respondProcessingError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, processor.ErrNoFile):
		h.respondError(c, http.StatusBadRequest, msgNoFile)
	case errors.Is(err, processor.ErrEmptyPhrase):
		h.respondError(c, http.StatusBadRequest, msgNoPhrase)
	case errors.Is(err, processor.ErrFileTooLarge):
		h.respondError(c, http.StatusRequestEntityTooLarge, msgTooLarge)
	case errors.Is(err, processor.ErrInvalidDocument):
		h.logger.Warn("Rejected PDF", zap.Error(err))
		h.respondError(c, http.StatusUnprocessableEntity, msgProcessFailed)
	default:
		h.logger.Error("Processing failed", zap.Error(err))
		h.respondError(c, http.StatusInternalServerError, msgProcessFailed)
	}
}

func (h *PDFHandler) respondWithFile(c *gin.Context, data []byte, filename string) {
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	c.Header("Cache-Control", "no-store, no-cache, must-revalidate")
	c.Header("Pragma", "no-cache")
	c.Data(http.StatusOK, "application/octet-stream", data)
}

// === UTILITY METHODS ===

func (h *PDFHandler) calculateOverallHealth(services map[string]string) string {
	for _, status := range services {
		if status != "healthy" && status != "not configured" {
			return "unhealthy"
		}
	}
	return "healthy"
}
