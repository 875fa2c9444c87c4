package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func solidImage(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestAnalyzeRejectsGarbage(t *testing.T) {
	if _, err := Analyze([]byte("not an image")); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestAnalyzeSolidColorHasLowComplexity(t *testing.T) {
	data := encodePNG(t, solidImage(200, 100, color.RGBA{R: 200, G: 200, B: 200, A: 255}))

	m, err := Analyze(data)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if m.EdgeDensity != 0 {
		t.Fatalf("expected zero edge density for solid image, got %f", m.EdgeDensity)
	}
	if m.ColorDiversity != 1 {
		t.Fatalf("expected a single quantized color, got %d", m.ColorDiversity)
	}
	if m.ScaledMime != "image/jpeg" {
		t.Fatalf("expected jpeg payload, got %s", m.ScaledMime)
	}
	if len(m.Scaled) == 0 {
		t.Fatalf("expected re-encoded payload")
	}
}

func TestAnalyzeCheckerboardHasHighEdgeDensity(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 128, 128))
	for y := 0; y < 128; y++ {
		for x := 0; x < 128; x++ {
			if (x+y)%2 == 0 {
				img.Set(x, y, color.RGBA{A: 255})
			} else {
				img.Set(x, y, color.RGBA{R: 255, G: 255, B: 255, A: 255})
			}
		}
	}
	data := encodePNG(t, img)

	m, err := Analyze(data)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	// Adjacent samples alternate between black and white; every sampled point
	// should register as an edge.
	if m.EdgeDensity < 0.9 {
		t.Fatalf("expected near-total edge density, got %f", m.EdgeDensity)
	}
}

func TestAnalyzeDownscalesLargeImages(t *testing.T) {
	data := encodePNG(t, solidImage(2000, 1000, color.RGBA{R: 10, G: 10, B: 10, A: 255}))

	m, err := Analyze(data)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}

	decoded, _, err := image.Decode(bytes.NewReader(m.Scaled))
	if err != nil {
		t.Fatalf("decode scaled payload: %v", err)
	}
	b := decoded.Bounds()
	if b.Dx() > 768 || b.Dy() > 768 {
		t.Fatalf("expected longer side <= 768, got %dx%d", b.Dx(), b.Dy())
	}
}

func TestAnalyzeNeverUpscales(t *testing.T) {
	data := encodePNG(t, solidImage(64, 32, color.RGBA{R: 1, G: 2, B: 3, A: 255}))

	m, err := Analyze(data)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	decoded, _, err := image.Decode(bytes.NewReader(m.Scaled))
	if err != nil {
		t.Fatalf("decode scaled payload: %v", err)
	}
	b := decoded.Bounds()
	if b.Dx() != 64 || b.Dy() != 32 {
		t.Fatalf("expected original size preserved, got %dx%d", b.Dx(), b.Dy())
	}
}
