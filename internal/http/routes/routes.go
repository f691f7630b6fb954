package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/pdf-watermark/internal/http/handlers"
	"github.com/phambaophuc/pdf-watermark/internal/http/middleware"
	"go.uber.org/zap"
)

type Router struct {
	pdfHandler  *handlers.PDFHandler
	logger      *zap.Logger
	maxFileSize int64
}

func NewRouter(
	pdfHandler *handlers.PDFHandler,
	logger *zap.Logger,
	maxFileSize int64,
) *Router {
	return &Router{
		pdfHandler:  pdfHandler,
		logger:      logger,
		maxFileSize: maxFileSize,
	}
}

func (r *Router) SetupRoutes() *gin.Engine {
	router := gin.New()

	router.Use(middleware.Logger(r.logger))
	router.Use(middleware.ErrorHandler(r.logger))
	router.Use(middleware.CORS())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.LimitBodySize(r.maxFileSize))

	// form endpoint kept for existing clients
	router.POST("/Home/Watermark", r.pdfHandler.Watermark)

	// API version 1
	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", r.pdfHandler.HealthCheck)
		v1.GET("/stats", r.pdfHandler.GetStats)

		pdf := v1.Group("/pdf")
		pdf.Use(middleware.ValidateContentType())
		{
			pdf.POST("/watermark", r.pdfHandler.Watermark)
		}

		jobs := v1.Group("/jobs")
		jobs.Use(middleware.ValidateContentType())
		{
			jobs.POST("", r.pdfHandler.CreateJob)
			jobs.GET("/:id", r.pdfHandler.GetJob)
		}
	}

	router.GET("/", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{
			"status":  "OK",
			"message": "PDF watermarking is running",
		})
	})

	return router
}
