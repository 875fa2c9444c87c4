package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gradermate-backend/internal/canvas"
	"gradermate-backend/internal/feedback"
	"gradermate-backend/internal/shared/config"
	"gradermate-backend/internal/shared/metrics"
	"gradermate-backend/internal/shared/server/middleware"
	"gradermate-backend/internal/shared/server/respond"
)

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(cfg config.Config, canvasHandler *canvas.Handler, feedbackHandler *feedback.Handler) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(cfg.CORSAllowOrigin),
		middleware.RateLimit(middleware.RateLimitConfig{
			GroupFor: rateLimitGroup,
			Rules: map[string]middleware.RateLimitRule{
				// Feedback generation fans out into provider calls, so it is
				// limited much harder than plain Canvas reads.
				"DEFAULT":  {Rate: 5, Burst: 20},
				"FEEDBACK": {Rate: 0.5, Burst: 3},
			},
		}),
	)

	r.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api")
	canvasHandler.RegisterRoutes(api)
	feedbackHandler.RegisterRoutes(api)

	return r
}

func rateLimitGroup(c *gin.Context) string {
	if c.Request.Method == http.MethodPost && c.FullPath() == "/api/llm/generate-feedback" {
		return "FEEDBACK"
	}
	return "DEFAULT"
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
