package limits

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateURLSafety(t *testing.T) {
	l := New()

	tests := []struct {
		name    string
		url     string
		wantErr error
	}{
		{name: "public https url", url: "https://example.com/photo.jpg", wantErr: nil},
		{name: "public http url", url: "http://example.com/photo.jpg", wantErr: nil},
		{name: "localhost", url: "http://localhost:8000/x.jpg", wantErr: ErrBlockedURL},
		{name: "loopback ip", url: "http://127.0.0.1/x.jpg", wantErr: ErrBlockedURL},
		{name: "metadata endpoint", url: "http://169.254.169.254/latest/meta-data", wantErr: ErrBlockedURL},
		{name: "ipv6 loopback", url: "http://[::1]/x.jpg", wantErr: ErrBlockedURL},
		{name: "private 10 range", url: "http://10.0.0.5/x.jpg", wantErr: ErrBlockedURL},
		{name: "private 192.168 range", url: "http://192.168.1.10/x.jpg", wantErr: ErrBlockedURL},
		{name: "uppercase host is still blocked", url: "http://LOCALHOST/x.jpg", wantErr: ErrBlockedURL},
		{name: "ftp scheme", url: "ftp://example.com/x.jpg", wantErr: ErrInvalidURLScheme},
		{name: "bare path", url: "/etc/passwd", wantErr: ErrInvalidURLScheme},
		{name: "overlong url", url: "https://example.com/" + strings.Repeat("a", 3000), wantErr: ErrURLTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := l.ValidateURLSafety(tt.url)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestIsAllowedImageType(t *testing.T) {
	l := New()

	assert.True(t, l.IsAllowedImageType("image/jpeg"))
	assert.True(t, l.IsAllowedImageType("image/png; charset=binary"))
	assert.True(t, l.IsAllowedImageType("IMAGE/JPEG"))
	assert.False(t, l.IsAllowedImageType("application/pdf"))
	assert.False(t, l.IsAllowedImageType("text/html"))
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("MAX_FILE_SIZE_MB", "2")
	t.Setenv("MAX_FACES", "3")
	t.Setenv("MAX_IMAGE_WIDTH", "not-a-number")

	l := New()

	assert.Equal(t, int64(2*1024*1024), l.MaxFileSizeBytes)
	assert.Equal(t, 3, l.MaxFaces)
	assert.Equal(t, 4000, l.MaxImageWidth)
}

func TestInfoContainsConfiguredLimits(t *testing.T) {
	info := New().Info()

	assert.Equal(t, int64(10), info["max_file_size_mb"])
	assert.Equal(t, 10, info["max_faces"])
	assert.Contains(t, info["allowed_image_types"], "image/jpeg")
}
