package annotation

import (
	"fmt"
	"math"
)

// ScaleFactors are the resized-to-original ratios for one document. They
// are computed once per document, applied uniformly to every box in it,
// and never persisted.
type ScaleFactors struct {
	Width  float64
	Height float64
}

// FitResult is the outcome of fitting a document into the canvas bounds.
type FitResult struct {
	Width  int
	Height int
	Scale  ScaleFactors
}

// FitWithin resizes (w, h) to fit inside (maxW, maxH) preserving aspect
// ratio: width is pinned to maxW first, and if the resulting height
// overflows, height is pinned instead. Small sources are scaled up to the
// limiting bound; that matches the display behavior the review flow was
// built around, so it is deliberately not clamped.
func FitWithin(w, h, maxW, maxH int) (*FitResult, error) {
	if w <= 0 || h <= 0 {
		return nil, NewValidationError(fmt.Sprintf("document size %dx%d is not positive", w, h), nil)
	}
	if maxW <= 0 || maxH <= 0 {
		return nil, NewValidationError(fmt.Sprintf("canvas bounds %dx%d are not positive", maxW, maxH), nil)
	}

	aspect := float64(h) / float64(w)
	newW := maxW
	newH := int(math.Round(float64(newW) * aspect))

	if newH > maxH {
		newH = maxH
		newW = int(math.Round(float64(newH) / aspect))
	}

	return &FitResult{
		Width:  newW,
		Height: newH,
		Scale: ScaleFactors{
			Width:  float64(newW) / float64(w),
			Height: float64(newH) / float64(h),
		},
	}, nil
}

// ScaleBoxes returns a copy of boxes with geometry mapped into resized
// space. The input is left untouched; callers keep it for persistence.
func ScaleBoxes(boxes []BoundingBox, scale ScaleFactors) []BoundingBox {
	scaled := make([]BoundingBox, len(boxes))
	copy(scaled, boxes)
	for i := range scaled {
		scaled[i].Left *= scale.Width
		scaled[i].Top *= scale.Height
		scaled[i].Width *= scale.Width
		scaled[i].Height *= scale.Height
	}
	return scaled
}

// UnscaleBoxes maps geometry from resized space back to original space.
func UnscaleBoxes(boxes []BoundingBox, scale ScaleFactors) ([]BoundingBox, error) {
	if scale.Width == 0 || scale.Height == 0 {
		return nil, NewValidationError("scale factors must be non-zero", nil)
	}
	inverse := ScaleFactors{Width: 1 / scale.Width, Height: 1 / scale.Height}
	return ScaleBoxes(boxes, inverse), nil
}
