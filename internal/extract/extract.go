// Package extract turns the heterogeneous content of a student submission
// (free text, uploaded files, embedded images, scanned pages) into a single
// bounded text blob suitable for a text-only LLM prompt.
package extract

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"gradermate-backend/internal/extract/vision"
	"gradermate-backend/internal/llm"
	"gradermate-backend/internal/ocr"
	"gradermate-backend/internal/shared/metrics"
	"gradermate-backend/internal/shared/telemetry"
)

// textTruncateLimit caps how many characters of one text attachment are
// embedded in the prompt.
const textTruncateLimit = 10_000

const (
	noContentPlaceholder     = "(no extractable content)"
	decodeFailurePlaceholder = "(content could not be processed)"
	mediaRecordingNote       = "(Audio/video recording submission – please review the recording manually)"
)

// Describer sends a downsampled image to a vision-capable model and returns
// a short description. Satisfied by *llm.Client.
type Describer interface {
	DescribeImage(ctx context.Context, req llm.VisionRequest) (string, error)
}

// Service runs submission content extraction. Failures degrade to placeholder
// text per item; ExtractSubmission always returns a usable string.
type Service struct {
	ocr      ocr.Engine
	describe Describer
	client   *http.Client

	fetchTimeout  time.Duration
	ocrTimeout    time.Duration
	visionTimeout time.Duration

	pdftoppmPath string

	// Seams over the PDF engine so the page loop is testable without
	// real PDF bytes or a poppler install.
	openPDF   func(data []byte) (pdfDocument, error)
	rasterize func(ctx context.Context, data []byte, page int) ([]byte, error)
}

// Options tune the service's suspension-point timeouts and tool paths.
// Zero values fall back to defaults.
type Options struct {
	HTTPClient    *http.Client
	FetchTimeout  time.Duration
	OCRTimeout    time.Duration
	VisionTimeout time.Duration
	PdftoppmPath  string
}

// NewService wires an extraction service.
func NewService(ocrEngine ocr.Engine, describer Describer, opts Options) *Service {
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = 30 * time.Second
	}
	if opts.OCRTimeout <= 0 {
		opts.OCRTimeout = 20 * time.Second
	}
	if opts.VisionTimeout <= 0 {
		opts.VisionTimeout = 45 * time.Second
	}
	if opts.PdftoppmPath == "" {
		opts.PdftoppmPath = "pdftoppm"
	}
	s := &Service{
		ocr:           ocrEngine,
		describe:      describer,
		client:        opts.HTTPClient,
		fetchTimeout:  opts.FetchTimeout,
		ocrTimeout:    opts.OCRTimeout,
		visionTimeout: opts.VisionTimeout,
		pdftoppmPath:  opts.PdftoppmPath,
	}
	s.openPDF = openPDFDocument
	s.rasterize = s.rasterizePage
	return s
}

// ExtractSubmission reduces one submission to a bounded prompt section. It
// never returns an error: every per-item failure becomes placeholder text and
// processing continues with the next item.
func (s *Service) ExtractSubmission(ctx context.Context, sub Submission, cfg llm.AIConfig) string {
	metrics.IncExtractionStarted()
	start := time.Now()
	defer func() {
		metrics.ObserveExtractionDurationMs(float64(time.Since(start).Microseconds()) / 1000.0)
		metrics.IncExtractionCompleted()
	}()

	switch sub.Type {
	case TypeTextEntry:
		return "TEXT SUBMISSION:\n" + sub.Body
	case TypeURL:
		return "URL SUBMISSION:\n" + sub.URL
	case TypeMediaRecording:
		return "MEDIA RECORDING SUBMISSION:\n" + mediaRecordingNote
	case TypeFileUpload:
		return s.extractFileUpload(ctx, sub, cfg)
	default:
		return "SUBMISSION:\n" + noContentPlaceholder
	}
}

func (s *Service) extractFileUpload(ctx context.Context, sub Submission, cfg llm.AIConfig) string {
	// One budget per submission, threaded through every attachment, page,
	// and image processed in this pass.
	budget := vision.NewBudget(llm.SupportsVision(cfg))

	var sections []string
	for _, att := range sub.Attachments {
		sections = append(sections, s.attachmentSection(ctx, sub.Token, att, budget, cfg))
	}
	if len(sections) == 0 {
		return "FILE SUBMISSION:\n" + noContentPlaceholder
	}

	out := "FILE SUBMISSION:\n\n" + strings.Join(sections, "\n\n")
	if used := budget.Used(); used > 0 {
		out += "\n\n" + visionUsageSummary(cfg.TextModel, used, budget.Sources())
	}
	return out
}

// attachmentSection renders one attachment as a labeled section. A decoder
// failure is caught here and replaced with a placeholder so the remaining
// attachments still get processed.
func (s *Service) attachmentSection(ctx context.Context, token string, att Attachment, budget *vision.Budget, cfg llm.AIConfig) string {
	header := fmt.Sprintf("=== %s (%s, %d bytes) ===", att.Filename, att.MimeType, att.SizeBytes)

	content, ok, err := s.decodeAttachment(ctx, token, att, budget, cfg)
	if err != nil {
		telemetry.Error("extract.attachment_failed", map[string]any{
			"filename": att.Filename,
			"mime":     att.MimeType,
			"error":    err.Error(),
		})
		if errors.Is(err, errFetch) {
			return header + "\n" + noContentPlaceholder
		}
		return header + "\n" + decodeFailurePlaceholder
	}
	if !ok || strings.TrimSpace(content) == "" {
		return header + "\n" + noContentPlaceholder
	}
	return header + "\n" + content
}

// decodeAttachment dispatches by file extension/MIME type. ok=false means
// the format is unsupported and no extraction was attempted.
func (s *Service) decodeAttachment(ctx context.Context, token string, att Attachment, budget *vision.Budget, cfg llm.AIConfig) (content string, ok bool, err error) {
	switch {
	case isTextAttachment(att):
		content, err = s.decodeText(ctx, token, att)
		return content, true, err
	case isDOCXAttachment(att):
		content, err = s.decodeDOCX(ctx, token, att, budget, cfg)
		return content, true, err
	case isPDFAttachment(att):
		content, err = s.decodePDF(ctx, token, att, budget, cfg)
		return content, true, err
	case isImageAttachment(att):
		content, err = s.decodeImage(ctx, token, att, budget, cfg)
		return content, true, err
	default:
		return "", false, nil
	}
}

// visionUsageSummary is appended once per submission when at least one vision
// call was issued.
func visionUsageSummary(model string, used int, sources []string) string {
	return fmt.Sprintf("[Vision analysis: %d image(s) described by %s — sources: %s]",
		used, model, strings.Join(sources, ", "))
}
