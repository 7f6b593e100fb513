package overlay

import (
	"image"

	"github.com/disintegration/imaging"
)

// Composite places the overlay onto every measured face and returns a fresh
// NRGBA image; the input image is never mutated. Faces are drawn in the
// given order, so later entries paint over earlier ones where they overlap.
// Overlays reaching outside the canvas are clipped silently. An empty
// measurement list returns the base image converted to NRGBA, unmodified
// otherwise.
func (e *Engine) Composite(base image.Image, measurements []FaceMeasurement, scale float64) *image.NRGBA {
	out := imaging.Clone(base)

	for _, m := range measurements {
		fg, at := e.Transform(m, scale)
		if fg.Bounds().Empty() {
			continue
		}
		out = imaging.Overlay(out, fg, at, 1.0)
	}

	return out
}
