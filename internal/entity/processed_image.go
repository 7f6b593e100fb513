package entity

import "time"

// ProcessedImageMeta is the per-cache-key record kept in redis so cache hits
// can report detection metadata without reprocessing the image.
type ProcessedImageMeta struct {
	CacheKey    string    `json:"cache_key"`
	FaceCount   int       `json:"face_count"`
	Scale       float64   `json:"scale"`
	ProcessedAt time.Time `json:"processed_at"`
}
