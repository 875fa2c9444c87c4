package extract

import (
	"context"
	"encoding/base64"
	"fmt"
	"path/filepath"
	"strings"

	"gradermate-backend/internal/extract/imaging"
	"gradermate-backend/internal/extract/vision"
	"gradermate-backend/internal/llm"
	sharedmetrics "gradermate-backend/internal/shared/metrics"
	"gradermate-backend/internal/shared/telemetry"
	"gradermate-backend/internal/shared/util"
)

// visionSummaryLimit caps how much of a vision description is embedded.
const visionSummaryLimit = 1_500

const (
	visionSkippedUnsupported = "(skipped – current model does not support vision input)"
	visionSkippedExhausted   = "(skipped – vision analysis limit reached for this submission)"
	visionFailedPlaceholder  = "(failed to analyse)"
	ocrNonePlaceholder       = "(no text detected)"
)

var imageExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
	".webp": true, ".bmp": true, ".tiff": true, ".tif": true,
}

func isImageAttachment(att Attachment) bool {
	if strings.HasPrefix(strings.ToLower(att.MimeType), "image/") {
		return true
	}
	return imageExtensions[strings.ToLower(filepath.Ext(att.Filename))]
}

// decodeImage handles a raster-image attachment: fetch, then run the shared
// per-image analysis with no forced vision pass.
func (s *Service) decodeImage(ctx context.Context, token string, att Attachment, budget *vision.Budget, cfg llm.AIConfig) (string, error) {
	data, err := s.fetch(ctx, att.URL, token)
	if err != nil {
		return "", err
	}
	return s.analyzeImage(ctx, data, att.MimeType, att.Filename, false, budget, cfg), nil
}

// analyzeImage runs one image through structural analysis, OCR, the vision
// decision, and, budget permitting, a vision-description call. It returns
// a formatted analysis block and never fails: every sub-step degrades to a
// placeholder.
//
// force bypasses the heuristic entirely (used for text-free PDF pages).
func (s *Service) analyzeImage(ctx context.Context, data []byte, mimeType, label string, force bool, budget *vision.Budget, cfg llm.AIConfig) string {
	metrics, err := imaging.Analyze(data)
	if err != nil {
		telemetry.Warn("extract.image_metrics_failed", map[string]any{"source": label, "error": err.Error()})
		metrics = nil
	}

	// OCR runs on the downscaled JPEG when available; decode failures fall
	// back to the original payload.
	ocrPayload := data
	if metrics != nil {
		ocrPayload = metrics.Scaled
	}
	ocrCtx, cancel := context.WithTimeout(ctx, s.ocrTimeout)
	ocrText := strings.TrimSpace(s.ocr.Recognize(ocrCtx, ocrPayload).Text)
	cancel()

	useVision := vision.Decide(len(ocrText), metrics, force)

	var visionLine string
	visionSucceeded := false
	if useVision {
		switch budget.Acquire(label) {
		case vision.Granted:
			sharedmetrics.IncVisionCalls()
			summary, err := s.describeImage(ctx, data, mimeType, metrics, cfg)
			if err != nil {
				telemetry.Warn("extract.vision_failed", map[string]any{"source": label, "error": err.Error()})
				visionLine = "Vision Summary: " + visionFailedPlaceholder
			} else {
				visionLine = "Vision Summary:\n" + util.Truncate(summary, visionSummaryLimit)
				visionSucceeded = true
			}
		case vision.Exhausted:
			sharedmetrics.IncVisionSkipped()
			visionLine = "Vision Summary: " + visionSkippedExhausted
		case vision.Disabled:
			sharedmetrics.IncVisionSkipped()
			visionLine = "Vision Summary: " + visionSkippedUnsupported
		}
	}

	var parts []string
	if visionLine != "" {
		parts = append(parts, visionLine)
	}
	if ocrText != "" {
		parts = append(parts, "Text (OCR):\n"+ocrText)
	} else if !visionSucceeded {
		// A successful vision summary already explains the image, so the
		// "no text" placeholder would only add noise.
		parts = append(parts, "Text (OCR): "+ocrNonePlaceholder)
	}
	if metrics != nil && !visionSucceeded {
		parts = append(parts, fmt.Sprintf("Structure: edge density %.2f, color diversity %d",
			metrics.EdgeDensity, metrics.ColorDiversity))
	}

	return strings.Join(parts, "\n")
}

// describeImage issues the vision-description request using the downscaled
// JPEG payload when one exists, keeping request bodies small.
func (s *Service) describeImage(ctx context.Context, data []byte, mimeType string, metrics *imaging.Metrics, cfg llm.AIConfig) (string, error) {
	payload := data
	payloadMime := mimeType
	if metrics != nil {
		payload = metrics.Scaled
		payloadMime = metrics.ScaledMime
	}

	ctx, cancel := context.WithTimeout(ctx, s.visionTimeout)
	defer cancel()

	return s.describe.DescribeImage(ctx, llm.VisionRequest{
		Config:      cfg,
		Prompt:      llm.DefaultVisionPrompt,
		MimeType:    payloadMime,
		ImageBase64: base64.StdEncoding.EncodeToString(payload),
	})
}
