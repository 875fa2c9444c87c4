// Package feedback turns one student submission into AI grading feedback:
// it extracts the submission's content, builds a grading prompt, and proxies
// the prompt to the configured LLM provider.
package feedback

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"gradermate-backend/internal/canvas"
	"gradermate-backend/internal/extract"
	"gradermate-backend/internal/llm"
	"gradermate-backend/internal/shared/telemetry"
)

var ErrInvalidInput = errors.New("invalid feedback request")

// Extractor is the submission-content pipeline the service runs before
// prompting.
type Extractor interface {
	ExtractSubmission(ctx context.Context, sub extract.Submission, cfg llm.AIConfig) string
}

// Service contains the grading-feedback business logic.
type Service struct {
	Extractor  Extractor
	Gateway    llm.Gateway
	HTTPClient *http.Client
	LLMTimeout time.Duration
}

// SubmissionPayload is an inline submission, for callers that already hold
// the submission data and don't want a Canvas round trip.
type SubmissionPayload struct {
	Type        string               `json:"type"`
	Body        string               `json:"body,omitempty"`
	URL         string               `json:"url,omitempty"`
	Attachments []extract.Attachment `json:"attachments,omitempty"`
	Token       string               `json:"token,omitempty"`
}

// CanvasRef points at a submission stored in Canvas.
type CanvasRef struct {
	Token        string `json:"token"`
	SchoolURL    string `json:"school_url"`
	CourseID     int    `json:"course_id"`
	AssignmentID int    `json:"assignment_id"`
	UserID       int    `json:"user_id"`
}

// Request carries either an inline submission or a Canvas reference, plus
// the caller's provider config and grading instructions.
type Request struct {
	Submission   *SubmissionPayload `json:"submission,omitempty"`
	Canvas       *CanvasRef         `json:"canvas,omitempty"`
	AI           llm.AIConfig       `json:"ai"`
	Instructions string             `json:"instructions,omitempty"`
	MaxTokens    int                `json:"max_tokens,omitempty"`
	Temperature  float64            `json:"temperature,omitempty"`
}

type Result struct {
	ID               string `json:"id"`
	Feedback         string `json:"feedback"`
	ExtractedContent string `json:"extracted_content"`
	Model            string `json:"model"`
}

// Generate runs extraction and prompting for one submission.
func (s *Service) Generate(ctx context.Context, req Request) (*Result, error) {
	if req.AI.Platform == "" || req.AI.APIKey == "" {
		return nil, fmt.Errorf("%w: ai platform and api_key are required", ErrInvalidInput)
	}
	if req.Submission == nil && req.Canvas == nil {
		return nil, fmt.Errorf("%w: submission or canvas reference is required", ErrInvalidInput)
	}

	id := uuid.NewString()
	sub, assignment, err := s.resolveSubmission(ctx, req)
	if err != nil {
		return nil, err
	}

	extracted := s.Extractor.ExtractSubmission(ctx, sub, req.AI)
	prompt := buildGradingPrompt(assignment, req.Instructions, extracted)

	llmCtx := ctx
	if s.LLMTimeout > 0 {
		var cancel context.CancelFunc
		llmCtx, cancel = context.WithTimeout(ctx, s.LLMTimeout)
		defer cancel()
	}
	feedbackText, err := s.Gateway.GenerateFeedback(llmCtx, llm.FeedbackRequest{
		Config:      req.AI,
		Prompt:      prompt,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("generate feedback: %w", err)
	}

	telemetry.Info("feedback.generated", map[string]any{
		"feedback_id":     id,
		"platform":        req.AI.Platform,
		"model":           req.AI.TextModel,
		"extracted_chars": len(extracted),
	})
	return &Result{
		ID:               id,
		Feedback:         feedbackText,
		ExtractedContent: extracted,
		Model:            req.AI.TextModel,
	}, nil
}

// resolveSubmission turns the request into an extract.Submission, fetching
// from Canvas when an inline payload wasn't supplied.
func (s *Service) resolveSubmission(ctx context.Context, req Request) (extract.Submission, *canvas.Assignment, error) {
	if req.Submission != nil {
		p := req.Submission
		return extract.Submission{
			Type:        p.Type,
			Body:        p.Body,
			URL:         p.URL,
			Attachments: p.Attachments,
			Token:       p.Token,
		}, nil, nil
	}

	ref := req.Canvas
	if ref.Token == "" || ref.SchoolURL == "" {
		return extract.Submission{}, nil, fmt.Errorf("%w: canvas token and school_url are required", ErrInvalidInput)
	}
	client := canvas.NewClient(ref.Token, ref.SchoolURL, s.HTTPClient)

	sub, err := client.Submission(ctx, ref.CourseID, ref.AssignmentID, ref.UserID)
	if err != nil {
		return extract.Submission{}, nil, fmt.Errorf("fetch submission: %w", err)
	}
	assignment, err := client.Assignment(ctx, ref.CourseID, ref.AssignmentID)
	if err != nil {
		// The prompt degrades gracefully without assignment context.
		telemetry.Warn("feedback.assignment_fetch_failed", map[string]any{"error": err.Error()})
		assignment = nil
	}
	return fromCanvas(sub, ref.Token), assignment, nil
}

// fromCanvas maps a Canvas submission onto the extraction input.
func fromCanvas(sub *canvas.Submission, token string) extract.Submission {
	out := extract.Submission{
		Type:  sub.SubmissionType,
		Body:  sub.Body,
		URL:   sub.URL,
		Token: token,
	}
	if out.Type == "" && sub.MediaComment != nil {
		out.Type = extract.TypeMediaRecording
	}
	for _, att := range sub.Attachments {
		name := att.Filename
		if name == "" {
			name = att.DisplayName
		}
		out.Attachments = append(out.Attachments, extract.Attachment{
			Filename:  name,
			URL:       att.URL,
			MimeType:  strings.ToLower(att.ContentType),
			SizeBytes: att.Size,
		})
	}
	return out
}
