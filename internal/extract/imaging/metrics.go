// Package imaging computes cheap structural complexity metrics for raster
// images. The metrics are local proxies for "this image is visually complex
// enough to need model-based description rather than text-only OCR".
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	_ "image/gif"
	_ "image/png"

	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const (
	// maxDimension is the longest side of the working raster. Images are
	// downscaled to this bound, never upscaled.
	maxDimension = 768

	// edgeGridSteps is the approximate number of sample steps along the
	// longer side when measuring edge density.
	edgeGridSteps = 256

	// edgeLuminanceThreshold marks a sample as an edge when the summed
	// absolute luminance difference to its right and lower neighbors
	// exceeds it.
	edgeLuminanceThreshold = 80.0

	// colorSampleStride walks every 8th pixel (32 bytes of RGBA) when
	// counting distinct quantized colors.
	colorSampleStride = 32

	jpegQuality = 90
)

// Metrics holds the structural measurements for one image, plus a compact
// JPEG re-encode of the downscaled raster for use as a vision payload.
type Metrics struct {
	EdgeDensity    float64 // fraction of sampled points that are edges, in [0,1]
	ColorDiversity int     // count of distinct quantized 15-bit colors
	Scaled         []byte
	ScaledMime     string
}

// Analyze decodes an image, downsamples it, and computes structural metrics.
// A payload that cannot be decoded to a raster with known dimensions yields
// an error; callers treat that as "no metrics available".
func Analyze(data []byte) (*Metrics, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := src.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("image has unknown dimensions")
	}

	rgba := downscale(src, width, height)

	scaled, err := encodeJPEG(rgba)
	if err != nil {
		return nil, fmt.Errorf("re-encode image: %w", err)
	}

	return &Metrics{
		EdgeDensity:    edgeDensity(rgba),
		ColorDiversity: colorDiversity(rgba),
		Scaled:         scaled,
		ScaledMime:     "image/jpeg",
	}, nil
}

// downscale converts to RGBA with the longer side capped at maxDimension.
func downscale(src image.Image, width, height int) *image.RGBA {
	longer := width
	if height > longer {
		longer = height
	}

	outW, outH := width, height
	if longer > maxDimension {
		scale := float64(maxDimension) / float64(longer)
		outW = int(float64(width) * scale)
		outH = int(float64(height) * scale)
		if outW < 1 {
			outW = 1
		}
		if outH < 1 {
			outH = 1
		}
	}

	dst := image.NewRGBA(image.Rect(0, 0, outW, outH))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}

// edgeDensity samples the raster on a coarse grid and measures how often
// neighboring samples differ sharply in luminance.
func edgeDensity(img *image.RGBA) float64 {
	width := img.Rect.Dx()
	height := img.Rect.Dy()

	longer := width
	if height > longer {
		longer = height
	}
	stride := longer / edgeGridSteps
	if stride < 1 {
		stride = 1
	}

	edges := 0
	samples := 0
	for y := 0; y+stride < height; y += stride {
		for x := 0; x+stride < width; x += stride {
			center := luminanceAt(img, x, y)
			right := luminanceAt(img, x+stride, y)
			down := luminanceAt(img, x, y+stride)

			diff := abs(center-right) + abs(center-down)
			if diff > edgeLuminanceThreshold {
				edges++
			}
			samples++
		}
	}

	if samples == 0 {
		return 0
	}
	return float64(edges) / float64(samples)
}

// colorDiversity counts distinct colors after dropping the low 5 bits of each
// channel, forming a 15-bit key per sampled pixel.
func colorDiversity(img *image.RGBA) int {
	seen := make(map[uint16]struct{})
	pix := img.Pix
	for i := 0; i+2 < len(pix); i += colorSampleStride {
		r := uint16(pix[i] >> 3)
		g := uint16(pix[i+1] >> 3)
		b := uint16(pix[i+2] >> 3)
		key := r<<10 | g<<5 | b
		seen[key] = struct{}{}
	}
	return len(seen)
}

func luminanceAt(img *image.RGBA, x, y int) float64 {
	i := img.PixOffset(img.Rect.Min.X+x, img.Rect.Min.Y+y)
	r := float64(img.Pix[i])
	g := float64(img.Pix[i+1])
	b := float64(img.Pix[i+2])
	return 0.299*r + 0.587*g + 0.114*b
}

func encodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
