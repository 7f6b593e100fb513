package overlay

// WidthReference selects which facial measurement drives the overlay width.
type WidthReference string

const (
	WidthReferenceEyeDistance   WidthReference = "eye_distance"
	WidthReferenceForeheadWidth WidthReference = "forehead_width"
)

// HorizontalCenter selects the facial point the overlay is centered on
// horizontally.
type HorizontalCenter string

const (
	HorizontalCenterEyeMidpoint HorizontalCenter = "midpoint_between_eyes"
	HorizontalCenterForeheadTop HorizontalCenter = "forehead_top"
)

// VerticalAnchor selects the facial point the overlay hangs from vertically.
type VerticalAnchor string

const (
	VerticalAnchorForeheadTop VerticalAnchor = "forehead_top"
)

// AnchorPoint is a point on the overlay bitmap in relative [0,1] coordinates.
// It is the point that gets pinned to the computed target position.
type AnchorPoint struct {
	X float64 `json:"x" validate:"gte=0,lte=1"`
	Y float64 `json:"y" validate:"gte=0,lte=1"`
}

// PositioningConfig is the declarative placement policy for one overlay
// asset. It is loaded once next to the asset and must not be mutated after
// construction; swapping policies at runtime requires replacing the whole
// engine. Unrecognized enum values do not fail validation: the transformer
// resolves them to the documented defaults and emits a warning.
type PositioningConfig struct {
	WidthReference   WidthReference   `json:"width_reference"`
	WidthMultiplier  float64          `json:"width_multiplier" validate:"gt=0"`
	AnchorPoint      AnchorPoint      `json:"anchor_point"`
	HorizontalCenter HorizontalCenter `json:"horizontal_center"`
	VerticalAnchor   VerticalAnchor   `json:"vertical_anchor"`
	VerticalOffsetPx int              `json:"vertical_offset_px"`
}

// DefaultPositioning mirrors the stock santa-hat policy: twice the eye
// distance wide, anchored near the bottom center of the hat, centered
// between the eyes and hanging 30px below the forehead top.
func DefaultPositioning() PositioningConfig {
	return PositioningConfig{
		WidthReference:   WidthReferenceEyeDistance,
		WidthMultiplier:  2.0,
		AnchorPoint:      AnchorPoint{X: 0.5, Y: 0.95},
		HorizontalCenter: HorizontalCenterEyeMidpoint,
		VerticalAnchor:   VerticalAnchorForeheadTop,
		VerticalOffsetPx: 30,
	}
}
