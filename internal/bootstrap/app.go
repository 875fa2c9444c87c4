// Package bootstrap wires the application's dependencies in one place so
// main stays a few lines and tests can assemble partial apps.
package bootstrap

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"gradermate-backend/internal/canvas"
	"gradermate-backend/internal/extract"
	"gradermate-backend/internal/feedback"
	"gradermate-backend/internal/llm"
	"gradermate-backend/internal/ocr"
	"gradermate-backend/internal/shared/config"
	"gradermate-backend/internal/shared/server"
)

// App holds shared dependencies.
type App struct {
	Config config.Config
	Router *gin.Engine

	OCR       *ocr.Tesseract
	LLM       *llm.Client
	Extractor *extract.Service

	FeedbackService *feedback.Service
	FeedbackHandler *feedback.Handler
	CanvasHandler   *canvas.Handler
}

// Build prepares shared dependencies and the HTTP router.
func Build(cfg config.Config) *App {
	httpClient := &http.Client{Timeout: cfg.FetchTimeout}

	ocrEngine := ocr.NewTesseract()
	gateway := llm.NewClient(cfg.LLMTimeout)

	extractor := extract.NewService(ocrEngine, gateway, extract.Options{
		HTTPClient:    httpClient,
		FetchTimeout:  cfg.FetchTimeout,
		OCRTimeout:    cfg.OCRTimeout,
		VisionTimeout: cfg.VisionTimeout,
		PdftoppmPath:  cfg.PdftoppmPath,
	})

	feedbackSvc := &feedback.Service{
		Extractor:  extractor,
		Gateway:    gateway,
		HTTPClient: httpClient,
		LLMTimeout: cfg.LLMTimeout,
	}

	app := &App{
		Config:          cfg,
		OCR:             ocrEngine,
		LLM:             gateway,
		Extractor:       extractor,
		FeedbackService: feedbackSvc,
		FeedbackHandler: feedback.NewHandler(feedbackSvc),
		CanvasHandler:   canvas.NewHandler(&http.Client{Timeout: 30 * time.Second}),
	}
	app.Router = server.NewRouter(cfg, app.CanvasHandler, app.FeedbackHandler)
	return app
}

// Close releases long-lived resources, currently just the OCR worker.
func (a *App) Close() {
	if a.OCR != nil {
		a.OCR.Close()
	}
}
