package vision

import (
	"testing"

	"gradermate-backend/internal/extract/imaging"
)

func metrics(edge float64, colors int) *imaging.Metrics {
	return &imaging.Metrics{EdgeDensity: edge, ColorDiversity: colors}
}

func TestDecide(t *testing.T) {
	tests := []struct {
		name    string
		ocrLen  int
		metrics *imaging.Metrics
		force   bool
		want    bool
	}{
		{"force overrides text-heavy cutoff", 5000, metrics(0, 1), true, true},
		{"force overrides missing metrics", 0, nil, true, true},
		{"long ocr text never uses vision", 220, metrics(0.99, 999), false, false},
		{"no metrics, empty ocr uses vision", 0, nil, false, true},
		{"no metrics, sparse ocr uses vision", 40, nil, false, true},
		{"no metrics, middling ocr skips vision", 41, nil, false, false},
		{"sparse ocr uses vision regardless of metrics", 12, metrics(0, 1), false, true},
		{"middling ocr, high edge density", 100, metrics(0.12, 1), false, true},
		{"middling ocr, high color diversity", 100, metrics(0, 45), false, true},
		{"middling ocr, simple image", 100, metrics(0.119, 44), false, false},
		{"boundary: 219 chars still eligible", 219, metrics(0.5, 100), false, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Decide(tc.ocrLen, tc.metrics, tc.force); got != tc.want {
				t.Fatalf("Decide(%d, %v, %v) = %v, want %v", tc.ocrLen, tc.metrics, tc.force, got, tc.want)
			}
		})
	}
}

func TestBudgetCapsAtMax(t *testing.T) {
	b := NewBudget(true)

	for i := 0; i < MaxCallsPerSubmission; i++ {
		if got := b.Acquire("page 1"); got != Granted {
			t.Fatalf("acquire %d: expected Granted, got %v", i, got)
		}
	}
	if got := b.Acquire("page 1"); got != Exhausted {
		t.Fatalf("expected Exhausted after %d uses, got %v", MaxCallsPerSubmission, got)
	}
	if b.Used() != MaxCallsPerSubmission {
		t.Fatalf("used must never exceed max: %d", b.Used())
	}
}

func TestBudgetDisabled(t *testing.T) {
	b := NewBudget(false)
	if got := b.Acquire("image.png"); got != Disabled {
		t.Fatalf("expected Disabled, got %v", got)
	}
	if b.Used() != 0 {
		t.Fatalf("disabled budget must not consume, used=%d", b.Used())
	}
}

func TestBudgetDeduplicatesSources(t *testing.T) {
	b := NewBudget(true)
	b.Acquire("doc.docx")
	b.Acquire("doc.docx")
	b.Acquire("photo.png")

	sources := b.Sources()
	if len(sources) != 2 {
		t.Fatalf("expected 2 deduplicated sources, got %v", sources)
	}
	if sources[0] != "doc.docx" || sources[1] != "photo.png" {
		t.Fatalf("expected first-use order, got %v", sources)
	}
	if b.Used() != 3 {
		t.Fatalf("expected 3 uses, got %d", b.Used())
	}
}
