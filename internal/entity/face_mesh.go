package entity

// NormalizedLandmark is one point of the face-mesh sidecar response,
// normalized to [0,1] relative to the frame dimensions. Z is the sidecar's
// relative depth and is not used for placement.
type NormalizedLandmark struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// FaceMeshResult is the wire format of the landmark-detection sidecar: one
// fixed-length landmark list per detected face.
type FaceMeshResult struct {
	Faces [][]NormalizedLandmark `json:"faces"`
	Error string                 `json:"error,omitempty"`
}
