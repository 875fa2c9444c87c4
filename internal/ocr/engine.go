package ocr

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"unicode"

	"github.com/otiai10/gosseract/v2"
	"golang.org/x/sync/singleflight"

	"gradermate-backend/internal/shared/metrics"
	"gradermate-backend/internal/shared/telemetry"
)

// Result is the outcome of a recognition pass. Confidence is nil when the
// engine cannot estimate one.
type Result struct {
	Text       string
	Confidence *float64
}

// Engine recognizes text in raster images. Implementations must degrade to an
// empty-text Result on internal failure rather than returning an error, so
// callers never abort an extraction because OCR is unavailable.
type Engine interface {
	Recognize(ctx context.Context, image []byte) Result
}

// Tesseract wraps a single long-lived gosseract client. The client is created
// the first time it is needed; concurrent first callers share one
// initialization attempt, and an initialization failure is remembered for the
// life of the process so later calls short-circuit instead of retrying.
type Tesseract struct {
	lang string

	flight singleflight.Group

	mu      sync.Mutex
	client  *gosseract.Client
	initErr error
	started bool
}

// NewTesseract returns an uninitialized engine. No worker is created until
// the first Recognize call.
func NewTesseract() *Tesseract {
	return &Tesseract{lang: "eng"}
}

// Recognize runs OCR on the given image bytes. Any failure, from a missing
// tesseract installation to a bad image, yields an empty Result.
func (t *Tesseract) Recognize(ctx context.Context, image []byte) Result {
	if ctx.Err() != nil || len(image) == 0 {
		return Result{}
	}

	client, err := t.ensureClient()
	if err != nil {
		metrics.IncOCRFailures()
		return Result{}
	}

	// gosseract clients are not safe for concurrent use; recognition is
	// serialized on the shared worker.
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := client.SetImageFromBytes(image); err != nil {
		telemetry.Warn("ocr.set_image_failed", map[string]any{"error": err.Error()})
		metrics.IncOCRFailures()
		return Result{}
	}
	text, err := client.Text()
	if err != nil {
		telemetry.Warn("ocr.recognize_failed", map[string]any{"error": err.Error()})
		metrics.IncOCRFailures()
		return Result{}
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return Result{}
	}
	conf := estimateConfidence(text)
	return Result{Text: text, Confidence: &conf}
}

// ensureClient creates the worker on first use. Both success and failure are
// cached; a failed initialization is permanent until the process restarts.
func (t *Tesseract) ensureClient() (*gosseract.Client, error) {
	t.mu.Lock()
	if t.started {
		client, initErr := t.client, t.initErr
		t.mu.Unlock()
		return client, initErr
	}
	t.mu.Unlock()

	_, err, _ := t.flight.Do("init", func() (any, error) {
		client := gosseract.NewClient()
		if err := client.SetLanguage(t.lang); err != nil {
			client.Close()
			return nil, fmt.Errorf("ocr init: %w", err)
		}

		t.mu.Lock()
		t.client = client
		t.started = true
		t.mu.Unlock()

		telemetry.Info("ocr.worker_ready", map[string]any{"lang": t.lang})
		return nil, nil
	})
	if err != nil {
		t.mu.Lock()
		if !t.started {
			t.started = true
			t.initErr = err
		}
		t.mu.Unlock()
		telemetry.Error("ocr.init_failed", map[string]any{"error": err.Error()})
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	return t.client, t.initErr
}

// Close releases the underlying worker, if one was created.
func (t *Tesseract) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.client != nil {
		t.client.Close()
		t.client = nil
	}
}

// estimateConfidence derives a rough confidence score from text quality
// indicators, since plain recognition does not report one.
func estimateConfidence(text string) float64 {
	confidence := 0.5

	if len(text) > 1000 {
		confidence += 0.1
	}
	if len(words(text)) > 100 {
		confidence += 0.1
	}

	alpha := 0
	total := 0
	for _, r := range text {
		total++
		if unicode.IsLetter(r) {
			alpha++
		}
	}
	if total > 0 {
		ratio := float64(alpha) / float64(total)
		if ratio > 0.5 && ratio < 0.9 {
			confidence += 0.1
		}
	}

	if confidence > 0.85 {
		confidence = 0.85
	}
	return confidence
}

func words(s string) []string {
	return strings.Fields(s)
}
