package overlay

// LandmarkIndexScheme maps the semantic points the placement math needs to
// positions inside the detector's landmark list. The indices are a contract
// with the external face-mesh service; inject a different scheme to support
// a detector with another topology.
type LandmarkIndexScheme struct {
	ForeheadTop   int
	ForeheadLeft  int
	ForeheadRight int
	Chin          int
	LeftEyeOuter  int
	RightEyeOuter int
	LandmarkCount int
}

// MediaPipeFaceMeshScheme returns the scheme for the MediaPipe face-mesh
// model (468 landmarks).
func MediaPipeFaceMeshScheme() LandmarkIndexScheme {
	return LandmarkIndexScheme{
		ForeheadTop:   10,
		ForeheadLeft:  109,
		ForeheadRight: 338,
		Chin:          151,
		LeftEyeOuter:  33,
		RightEyeOuter: 263,
		LandmarkCount: 468,
	}
}
