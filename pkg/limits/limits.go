package limits

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

var (
	ErrURLTooLong       = errors.New("url exceeds maximum length")
	ErrBlockedURL       = errors.New("urls pointing to private or internal networks are not allowed")
	ErrInvalidURLScheme = errors.New("url must start with http:// or https://")
)

// Limits holds the request-safety configuration for the service. It is
// loaded from the environment once at startup and shared read-only.
type Limits struct {
	MaxFileSizeBytes int64
	MaxImageWidth    int
	MaxImageHeight   int
	MaxImagePixels   int
	MaxFaces         int
	URLFetchTimeout  time.Duration
	MaxURLLength     int

	allowedImageTypes map[string]struct{}
	blockedURLParts   []string
}

func New() *Limits {
	maxFileSizeMB := envInt("MAX_FILE_SIZE_MB", 10)

	return &Limits{
		MaxFileSizeBytes: int64(maxFileSizeMB) * 1024 * 1024,
		MaxImageWidth:    envInt("MAX_IMAGE_WIDTH", 4000),
		MaxImageHeight:   envInt("MAX_IMAGE_HEIGHT", 4000),
		MaxImagePixels:   envInt("MAX_IMAGE_PIXELS", 16000000),
		MaxFaces:         envInt("MAX_FACES", 10),
		URLFetchTimeout:  time.Duration(envInt("URL_FETCH_TIMEOUT_SECONDS", 30)) * time.Second,
		MaxURLLength:     envInt("MAX_URL_LENGTH", 2048),
		allowedImageTypes: map[string]struct{}{
			"image/jpeg": {},
			"image/png":  {},
			"image/webp": {},
			"image/gif":  {},
			"image/bmp":  {},
		},
		blockedURLParts: []string{
			"localhost",
			"127.0.0.1",
			"0.0.0.0",
			"169.254.169.254", // cloud metadata endpoint
			"[::1]",
			"10.",
			"172.16.",
			"192.168.",
		},
	}
}

// IsAllowedImageType reports whether the given MIME type may be uploaded.
func (l *Limits) IsAllowedImageType(contentType string) bool {
	mime := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	_, ok := l.allowedImageTypes[mime]
	return ok
}

// ValidateURLSafety rejects URLs that are too long, use a non-HTTP scheme,
// or point at private or internal network targets.
func (l *Limits) ValidateURLSafety(rawURL string) error {
	if len(rawURL) > l.MaxURLLength {
		return fmt.Errorf("%w (max %d characters)", ErrURLTooLong, l.MaxURLLength)
	}

	lower := strings.ToLower(rawURL)

	for _, part := range l.blockedURLParts {
		if strings.Contains(lower, part) {
			return ErrBlockedURL
		}
	}

	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		return ErrInvalidURLScheme
	}

	return nil
}

// Info returns the current limits for the public limits endpoint.
func (l *Limits) Info() map[string]interface{} {
	types := make([]string, 0, len(l.allowedImageTypes))
	for t := range l.allowedImageTypes {
		types = append(types, t)
	}

	return map[string]interface{}{
		"max_file_size_mb":          l.MaxFileSizeBytes / (1024 * 1024),
		"max_image_width":           l.MaxImageWidth,
		"max_image_height":          l.MaxImageHeight,
		"max_image_pixels":          l.MaxImagePixels,
		"max_faces":                 l.MaxFaces,
		"url_fetch_timeout_seconds": int(l.URLFetchTimeout.Seconds()),
		"allowed_image_types":       types,
	}
}

func envInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
