// Package vision decides which images are worth an expensive vision-model
// call, and bounds how many such calls one submission may spend.
package vision

import "gradermate-backend/internal/extract/imaging"

// Heuristic thresholds. These are contract values that encode a spend
// trade-off, not tunables: changing them changes which images get paid
// vision analysis.
const (
	// ocrSelfSufficientLen: OCR output at least this long describes the
	// image well enough on its own.
	ocrSelfSufficientLen = 220

	// ocrSparseLen: OCR output at or below this length says almost nothing,
	// so the image likely carries non-textual content.
	ocrSparseLen = 40

	// edgeDensityMin and colorDiversityMin mark an image as structurally
	// complex (diagrams, charts, photos) when OCR output is middling.
	edgeDensityMin    = 0.12
	colorDiversityMin = 45
)

// Decide reports whether an image merits a vision-model call, given the
// length of its OCR text, its structural metrics (nil when the image could
// not be measured), and whether a vision pass is forced.
//
// Evaluation order is the tie-break: force dominates everything, then the
// text-heavy cutoff dominates the structural thresholds.
func Decide(ocrTextLen int, metrics *imaging.Metrics, force bool) bool {
	if force {
		return true
	}
	if ocrTextLen >= ocrSelfSufficientLen {
		return false
	}
	if metrics == nil {
		return ocrTextLen <= ocrSparseLen
	}
	if ocrTextLen <= ocrSparseLen {
		return true
	}
	return metrics.EdgeDensity >= edgeDensityMin || metrics.ColorDiversity >= colorDiversityMin
}
