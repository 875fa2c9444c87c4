package config

import (
	"os"
	"strings"
	"time"
)

// Config holds application configuration.
type Config struct {
	Port            string
	CORSAllowOrigin []string
	Env             string

	// Canvas LMS defaults. The UI normally supplies both per request; these
	// exist so the CLI and integration tests can run against a fixed school.
	CanvasToken     string
	CanvasSchoolURL string

	// Timeouts for the extraction pipeline's suspension points. Every network
	// call is bounded so a single slow attachment cannot stall a submission.
	FetchTimeout  time.Duration
	OCRTimeout    time.Duration
	VisionTimeout time.Duration
	LLMTimeout    time.Duration

	// External tool paths.
	PdftoppmPath string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	return Config{
		Port:            getEnv("PORT", "8080"),
		CORSAllowOrigin: splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173")),
		Env:             normalizeEnv(getEnv("ENV", "dev")),
		CanvasToken:     getEnv("CANVAS_TOKEN", ""),
		CanvasSchoolURL: getEnv("CANVAS_SCHOOL_URL", ""),
		FetchTimeout:    getDuration("FETCH_TIMEOUT", 30*time.Second),
		OCRTimeout:      getDuration("OCR_TIMEOUT", 20*time.Second),
		VisionTimeout:   getDuration("VISION_TIMEOUT", 45*time.Second),
		LLMTimeout:      getDuration("LLM_TIMEOUT", 120*time.Second),
		PdftoppmPath:    getEnv("PDFTOPPM_PATH", "pdftoppm"),
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	case "development", "dev":
		return "dev"
	default:
		return "dev"
	}
}
