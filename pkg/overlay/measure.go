package overlay

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrLandmarkCount      = errors.New("landmark count does not match scheme")
	ErrNonFiniteLandmark  = errors.New("landmark coordinate is not finite")
	ErrInvalidImageBounds = errors.New("image dimensions must be positive")
)

// Landmark is a single detector point, normalized to [0,1] relative to the
// image width and height. The detector's z component is not carried here.
type Landmark struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// FaceLandmarkSet is the ordered, fixed-length landmark list for one face.
type FaceLandmarkSet []Landmark

// Point is a position in base-image pixel space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// FaceMeasurement is the derived semantic geometry for one face. It is
// computed once per detection and never mutated.
type FaceMeasurement struct {
	ForeheadTop   Point   `json:"forehead_top"`
	EyeMidpoint   Point   `json:"eye_midpoint"`
	EyeDistance   float64 `json:"eye_distance"`
	ForeheadWidth float64 `json:"forehead_width"`
	TiltAngle     float64 `json:"tilt_angle"`
	Landmarks     []Point `json:"landmarks,omitempty"`
}

// Extractor turns one face's landmark set into a FaceMeasurement using the
// injected index scheme.
type Extractor struct {
	scheme LandmarkIndexScheme
}

func NewExtractor(scheme LandmarkIndexScheme) *Extractor {
	return &Extractor{scheme: scheme}
}

// ExtractMeasurement converts the six semantic landmarks to pixel space and
// derives eye distance, eye midpoint, forehead width and tilt angle.
//
// The tilt angle is atan2(dy, dx) in degrees for (dx, dy) = rightEye - leftEye,
// positive when the right eye sits lower than the left. Zero distances are
// valid and propagate unchanged; the transformer turns them into a zero-area
// overlay.
func (e *Extractor) ExtractMeasurement(set FaceLandmarkSet, width, height int) (FaceMeasurement, error) {
	if width <= 0 || height <= 0 {
		return FaceMeasurement{}, fmt.Errorf("%w: %dx%d", ErrInvalidImageBounds, width, height)
	}
	if len(set) != e.scheme.LandmarkCount {
		return FaceMeasurement{}, fmt.Errorf("%w: got %d, want %d", ErrLandmarkCount, len(set), e.scheme.LandmarkCount)
	}

	required := []int{
		e.scheme.ForeheadTop,
		e.scheme.ForeheadLeft,
		e.scheme.ForeheadRight,
		e.scheme.Chin,
		e.scheme.LeftEyeOuter,
		e.scheme.RightEyeOuter,
	}
	for _, idx := range required {
		lm := set[idx]
		if !isFinite(lm.X) || !isFinite(lm.Y) {
			return FaceMeasurement{}, fmt.Errorf("%w: index %d", ErrNonFiniteLandmark, idx)
		}
	}

	foreheadTop := toPixel(set[e.scheme.ForeheadTop], width, height)
	foreheadLeft := toPixel(set[e.scheme.ForeheadLeft], width, height)
	foreheadRight := toPixel(set[e.scheme.ForeheadRight], width, height)
	leftEye := toPixel(set[e.scheme.LeftEyeOuter], width, height)
	rightEye := toPixel(set[e.scheme.RightEyeOuter], width, height)

	dx := rightEye.X - leftEye.X
	dy := rightEye.Y - leftEye.Y

	pixels := make([]Point, len(set))
	for i, lm := range set {
		pixels[i] = toPixel(lm, width, height)
	}

	return FaceMeasurement{
		ForeheadTop: foreheadTop,
		EyeMidpoint: Point{
			X: (leftEye.X + rightEye.X) / 2,
			Y: (leftEye.Y + rightEye.Y) / 2,
		},
		EyeDistance:   math.Hypot(dx, dy),
		ForeheadWidth: math.Hypot(foreheadRight.X-foreheadLeft.X, foreheadRight.Y-foreheadLeft.Y),
		TiltAngle:     toDegrees(math.Atan2(dy, dx)),
		Landmarks:     pixels,
	}, nil
}

func toPixel(lm Landmark, width, height int) Point {
	return Point{X: lm.X * float64(width), Y: lm.Y * float64(height)}
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func toDegrees(rad float64) float64 {
	return rad * 180 / math.Pi
}
