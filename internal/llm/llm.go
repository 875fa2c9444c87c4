// Package llm routes grading-feedback and vision-description requests to the
// configured model provider.
package llm

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// AIConfig selects the provider and models a request is addressed to. It is
// supplied by the caller (the grading UI) and never mutated here.
type AIConfig struct {
	Platform     string `json:"platform"`
	APIKey       string `json:"api_key"`
	TextModel    string `json:"text_model"`
	AudioModel   string `json:"audio_model,omitempty"`
	SystemPrompt string `json:"system_prompt,omitempty"`
}

// FeedbackRequest is a request to generate AI feedback for a submission.
type FeedbackRequest struct {
	Config      AIConfig
	Prompt      string
	MaxTokens   int
	Temperature float64
}

// VisionRequest asks a vision-capable model for a short description of an
// image. ImageBase64 carries the raw payload without a data-URL prefix.
type VisionRequest struct {
	Config      AIConfig
	Prompt      string
	MimeType    string
	ImageBase64 string
	MaxTokens   int
	Temperature float64
}

// Gateway abstracts the model providers for callers.
type Gateway interface {
	GenerateFeedback(ctx context.Context, req FeedbackRequest) (string, error)
	DescribeImage(ctx context.Context, req VisionRequest) (string, error)
}

const (
	defaultFeedbackMaxTokens = 6000
	defaultFeedbackTemp      = 0.7

	defaultVisionMaxTokens = 480
	defaultVisionTemp      = 0.2
)

const defaultFeedbackSystemPrompt = "You are a teaching assistant helping to grade student assignments. Provide constructive, detailed feedback."

const visionSystemPrompt = "You help teaching assistants interpret student-uploaded visuals. Provide concise descriptions that highlight elements relevant to grading."

// DefaultVisionPrompt is the fixed instructional prompt used when an image is
// sent for description.
const DefaultVisionPrompt = "Describe the image in 2-3 bullet points, focusing on structure, relationships, and labels relevant for grading."

// Client implements Gateway against the public provider APIs.
type Client struct {
	httpClient *http.Client

	// Endpoints are fields so tests can point the client at a fake server.
	openAIURL    string
	anthropicURL string
	geminiURL    string
}

// NewClient constructs a provider-routing client with the given request
// timeout.
func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		httpClient:   &http.Client{Timeout: timeout},
		openAIURL:    "https://api.openai.com/v1/chat/completions",
		anthropicURL: "https://api.anthropic.com/v1/messages",
		geminiURL:    "https://generativelanguage.googleapis.com/v1beta/models",
	}
}

// GenerateFeedback routes a text-generation request to the configured
// platform.
func (c *Client) GenerateFeedback(ctx context.Context, req FeedbackRequest) (string, error) {
	if req.MaxTokens == 0 {
		req.MaxTokens = defaultFeedbackMaxTokens
	}
	if req.Temperature == 0 {
		req.Temperature = defaultFeedbackTemp
	}

	switch strings.ToLower(strings.TrimSpace(req.Config.Platform)) {
	case "openai":
		return c.openAIFeedback(ctx, req)
	case "anthropic":
		return c.anthropicFeedback(ctx, req)
	case "google":
		return c.geminiFeedback(ctx, req)
	default:
		return "", &UnsupportedPlatformError{Platform: req.Config.Platform}
	}
}

// DescribeImage routes a vision-description request. Only OpenAI models
// accept image input here.
func (c *Client) DescribeImage(ctx context.Context, req VisionRequest) (string, error) {
	if req.MaxTokens == 0 {
		req.MaxTokens = defaultVisionMaxTokens
	}
	if req.Temperature == 0 {
		req.Temperature = defaultVisionTemp
	}
	if strings.TrimSpace(req.Prompt) == "" {
		req.Prompt = DefaultVisionPrompt
	}

	switch strings.ToLower(strings.TrimSpace(req.Config.Platform)) {
	case "openai":
		return c.openAIVision(ctx, req)
	default:
		return "", &UnsupportedPlatformError{Platform: req.Config.Platform, Vision: true}
	}
}

// UnsupportedPlatformError reports a request routed to a platform the gateway
// cannot serve.
type UnsupportedPlatformError struct {
	Platform string
	Vision   bool
}

func (e *UnsupportedPlatformError) Error() string {
	if e.Vision {
		return "vision analysis not supported for platform: " + e.Platform
	}
	return "unsupported platform: " + e.Platform
}

func systemPromptOrDefault(cfg AIConfig) string {
	if strings.TrimSpace(cfg.SystemPrompt) != "" {
		return cfg.SystemPrompt
	}
	return defaultFeedbackSystemPrompt
}
