package hatify

// URLRequest asks the service to fetch a remote photo and hatify it.
type URLRequest struct {
	ImageURL string  `json:"image_url" validate:"required"`
	Scale    float64 `json:"scale"`
}

// ProcessResult carries the final JPEG plus the metadata exposed through
// response headers.
type ProcessResult struct {
	Data      []byte
	FaceCount int
	CacheKey  string
	CacheHit  bool
}

// LimitsResponse wraps the public safety-limits payload.
type LimitsResponse struct {
	Limits map[string]interface{} `json:"limits"`
}

// MinScale and MaxScale bound the user-supplied overlay scale multiplier.
const (
	MinScale = 0.0
	MaxScale = 5.0
)
