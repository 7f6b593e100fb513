package overlay

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"
)

// Engine places a single overlay asset onto faces. The asset bitmap and the
// positioning policy are fixed at construction and shared read-only across
// calls, so one Engine is safe for concurrent use.
type Engine struct {
	asset *image.NRGBA
	cfg   PositioningConfig
	log   *logrus.Logger
}

func NewEngine(asset image.Image, cfg PositioningConfig, log *logrus.Logger) *Engine {
	return &Engine{
		asset: imaging.Clone(asset),
		cfg:   cfg,
		log:   log,
	}
}

// Positioning returns a copy of the engine's placement policy.
func (e *Engine) Positioning() PositioningConfig {
	return e.cfg
}

// Transform resizes and rotates the asset for one face and returns the
// bitmap together with its top-left placement offset in base-image pixels.
// Identical inputs always produce identical output.
//
// The overlay is rotated by the negative of the measured tilt angle so it
// lines up with the head in screen coordinates, where y grows downward.
//
// A non-positive target width (including the degenerate zero eye-distance
// case) yields a zero-area bitmap with a valid placement, never an error.
func (e *Engine) Transform(m FaceMeasurement, scale float64) (*image.NRGBA, image.Point) {
	ref := e.referenceWidth(m)

	targetW := int(math.Round(ref * e.cfg.WidthMultiplier * scale))
	assetW := e.asset.Bounds().Dx()
	assetH := e.asset.Bounds().Dy()
	targetH := 0
	if assetW > 0 {
		targetH = int(math.Round(float64(targetW) * float64(assetH) / float64(assetW)))
	}

	targetX, targetY := e.targetPoint(m)

	if targetW <= 0 || targetH <= 0 {
		empty := image.NewNRGBA(image.Rect(0, 0, 0, 0))
		return empty, image.Pt(roundToInt(targetX), roundToInt(targetY))
	}

	resized := imaging.Resize(e.asset, targetW, targetH, imaging.Lanczos)
	rotated := imaging.Rotate(resized, -m.TiltAngle, color.NRGBA{})

	// Anchor on the resized bitmap, carried through the same rotation about
	// the bitmap's center into the expanded canvas.
	anchorX := float64(resized.Bounds().Dx()) * e.cfg.AnchorPoint.X
	anchorY := float64(resized.Bounds().Dy()) * e.cfg.AnchorPoint.Y

	rad := -m.TiltAngle * math.Pi / 180
	cos, sin := math.Cos(rad), math.Sin(rad)

	relX := anchorX - float64(resized.Bounds().Dx())/2
	relY := anchorY - float64(resized.Bounds().Dy())/2

	rotatedAnchorX := relX*cos - relY*sin + float64(rotated.Bounds().Dx())/2
	rotatedAnchorY := relX*sin + relY*cos + float64(rotated.Bounds().Dy())/2

	offset := image.Pt(
		roundToInt(targetX-rotatedAnchorX),
		roundToInt(targetY-rotatedAnchorY),
	)

	return rotated, offset
}

func (e *Engine) referenceWidth(m FaceMeasurement) float64 {
	switch e.cfg.WidthReference {
	case WidthReferenceEyeDistance:
		return m.EyeDistance
	case WidthReferenceForeheadWidth:
		return m.ForeheadWidth
	default:
		if e.log != nil {
			e.log.Warnf("unknown width_reference %q, falling back to eye_distance", e.cfg.WidthReference)
		}
		return m.EyeDistance
	}
}

func (e *Engine) targetPoint(m FaceMeasurement) (float64, float64) {
	var x float64
	switch e.cfg.HorizontalCenter {
	case HorizontalCenterEyeMidpoint:
		x = m.EyeMidpoint.X
	case HorizontalCenterForeheadTop:
		x = m.ForeheadTop.X
	default:
		if e.log != nil {
			e.log.Warnf("unknown horizontal_center %q, falling back to midpoint_between_eyes", e.cfg.HorizontalCenter)
		}
		x = m.EyeMidpoint.X
	}

	var y float64
	switch e.cfg.VerticalAnchor {
	case VerticalAnchorForeheadTop:
		y = m.ForeheadTop.Y
	default:
		if e.log != nil {
			e.log.Warnf("unknown vertical_anchor %q, falling back to forehead_top", e.cfg.VerticalAnchor)
		}
		y = m.ForeheadTop.Y
	}

	return x, y + float64(e.cfg.VerticalOffsetPx)
}

// roundToInt rounds half away from zero, the one rounding rule used for all
// placement offsets.
func roundToInt(v float64) int {
	return int(math.Round(v))
}
