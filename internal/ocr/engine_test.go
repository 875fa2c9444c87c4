package ocr

import (
	"context"
	"strings"
	"testing"
)

func TestRecognizeDegradesWithoutInput(t *testing.T) {
	engine := NewTesseract()
	defer engine.Close()

	if got := engine.Recognize(context.Background(), nil); got.Text != "" || got.Confidence != nil {
		t.Fatalf("empty image should yield empty result, got %+v", got)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if got := engine.Recognize(ctx, []byte("data")); got.Text != "" {
		t.Fatalf("canceled context should yield empty result, got %+v", got)
	}
}

func TestEstimateConfidence(t *testing.T) {
	cases := []struct {
		name string
		text string
		min  float64
		max  float64
	}{
		{"short junk", "@@@@ ####", 0.4, 0.55},
		{"normal prose", strings.Repeat("a sentence of plain words ", 50), 0.6, 0.85},
	}
	for _, c := range cases {
		got := estimateConfidence(c.text)
		if got < c.min || got > c.max {
			t.Errorf("%s: confidence = %.2f, want within [%.2f, %.2f]", c.name, got, c.min, c.max)
		}
		if got > 0.85 {
			t.Errorf("%s: confidence exceeds cap", c.name)
		}
	}
}
