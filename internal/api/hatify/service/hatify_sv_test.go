package hatifyService

import (
	"ProjectHatify/internal/api/hatify"
	"ProjectHatify/internal/entity"
	"ProjectHatify/pkg/limits"
	"ProjectHatify/pkg/overlay"
	s3Pkg "ProjectHatify/pkg/s3"
	utilsPkg "ProjectHatify/pkg/utils"
	"bytes"
	"image"
	"image/jpeg"
	"image/png"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/context"
)

type fakeFaceMesh struct {
	sets []overlay.FaceLandmarkSet
	err  error
}

func (f *fakeFaceMesh) DetectLandmarks(frame []byte) ([]overlay.FaceLandmarkSet, error) {
	return f.sets, f.err
}
func (f *fakeFaceMesh) IsConnected() bool { return true }
func (f *fakeFaceMesh) Reconnect() error  { return nil }
func (f *fakeFaceMesh) Close()            {}

type fakeS3 struct {
	enabled bool
	store   map[string][]byte
}

func (f *fakeS3) Enabled() bool { return f.enabled }

func (f *fakeS3) GetImage(ctx context.Context, key string) ([]byte, error) {
	return f.store[key], nil
}

func (f *fakeS3) PutImage(ctx context.Context, key string, data []byte, metadata map[string]string) error {
	f.store[key] = data
	return nil
}

type fakeRedis struct {
	meta map[string]entity.ProcessedImageMeta
}

func (f *fakeRedis) SetProcessedMeta(ctx context.Context, meta entity.ProcessedImageMeta, expiration time.Duration) error {
	f.meta[meta.CacheKey] = meta
	return nil
}

func (f *fakeRedis) GetProcessedMeta(ctx context.Context, cacheKey string) (*entity.ProcessedImageMeta, error) {
	m, ok := f.meta[cacheKey]
	if !ok {
		return nil, nil
	}
	return &m, nil
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(bytes.NewBuffer(nil))
	return logger
}

// faceSet fills a full MediaPipe landmark list and places the semantic points
// at sensible normalized positions for a face around (cx, cy).
func faceSet(cx, cy float64) overlay.FaceLandmarkSet {
	scheme := overlay.MediaPipeFaceMeshScheme()
	set := make(overlay.FaceLandmarkSet, scheme.LandmarkCount)
	for i := range set {
		set[i] = overlay.Landmark{X: cx, Y: cy}
	}
	set[scheme.ForeheadTop] = overlay.Landmark{X: cx, Y: cy - 0.15}
	set[scheme.ForeheadLeft] = overlay.Landmark{X: cx - 0.08, Y: cy - 0.12}
	set[scheme.ForeheadRight] = overlay.Landmark{X: cx + 0.08, Y: cy - 0.12}
	set[scheme.Chin] = overlay.Landmark{X: cx, Y: cy + 0.15}
	set[scheme.LeftEyeOuter] = overlay.Landmark{X: cx - 0.1, Y: cy - 0.05}
	set[scheme.RightEyeOuter] = overlay.Landmark{X: cx + 0.1, Y: cy - 0.05}
	return set
}

func testPhoto(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	buf := new(bytes.Buffer)
	require.NoError(t, png.Encode(buf, img))
	return buf.Bytes()
}

func newTestService(t *testing.T, mesh *fakeFaceMesh, s3Client *fakeS3, redis *fakeRedis) IHatifyService {
	t.Helper()

	logger := testLogger()
	asset := image.NewNRGBA(image.Rect(0, 0, 100, 50))
	for i := 3; i < len(asset.Pix); i += 4 {
		asset.Pix[i-3] = 0xc0
		asset.Pix[i] = 0xff
	}
	engine := overlay.NewEngine(asset, overlay.DefaultPositioning(), logger)
	extractor := overlay.NewExtractor(overlay.MediaPipeFaceMeshScheme())

	return NewHatifyService(
		logger,
		mesh,
		extractor,
		engine,
		s3Client,
		redis,
		utilsPkg.New(),
		limits.New(),
	)
}

func TestHatifyImage_ScaleValidation(t *testing.T) {
	svc := newTestService(t,
		&fakeFaceMesh{},
		&fakeS3{store: map[string][]byte{}},
		&fakeRedis{meta: map[string]entity.ProcessedImageMeta{}},
	)

	tests := []struct {
		name  string
		scale float64
	}{
		{name: "zero scale", scale: 0},
		{name: "negative scale", scale: -1},
		{name: "above maximum", scale: 5.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.HatifyImage(context.Background(), testPhoto(t, 100, 100), tt.scale)
			assert.ErrorIs(t, err, hatify.ErrInvalidScale)
		})
	}
}

func TestHatifyImage_InvalidImage(t *testing.T) {
	svc := newTestService(t,
		&fakeFaceMesh{},
		&fakeS3{store: map[string][]byte{}},
		&fakeRedis{meta: map[string]entity.ProcessedImageMeta{}},
	)

	_, err := svc.HatifyImage(context.Background(), []byte("not an image"), 1.0)
	assert.ErrorIs(t, err, hatify.ErrInvalidImage)
}

func TestHatifyImage_NoFaces(t *testing.T) {
	svc := newTestService(t,
		&fakeFaceMesh{sets: nil},
		&fakeS3{store: map[string][]byte{}},
		&fakeRedis{meta: map[string]entity.ProcessedImageMeta{}},
	)

	_, err := svc.HatifyImage(context.Background(), testPhoto(t, 200, 200), 1.0)
	assert.ErrorIs(t, err, hatify.ErrNoFacesDetected)
}

func TestHatifyImage_DetectorUnavailable(t *testing.T) {
	svc := newTestService(t,
		&fakeFaceMesh{err: assert.AnError},
		&fakeS3{store: map[string][]byte{}},
		&fakeRedis{meta: map[string]entity.ProcessedImageMeta{}},
	)

	_, err := svc.HatifyImage(context.Background(), testPhoto(t, 200, 200), 1.0)
	assert.ErrorIs(t, err, hatify.ErrDetectorUnavailable)
}

func TestHatifyImage_SingleFace(t *testing.T) {
	s3Client := &fakeS3{enabled: true, store: map[string][]byte{}}
	redis := &fakeRedis{meta: map[string]entity.ProcessedImageMeta{}}
	svc := newTestService(t,
		&fakeFaceMesh{sets: []overlay.FaceLandmarkSet{faceSet(0.5, 0.5)}},
		s3Client,
		redis,
	)

	result, err := svc.HatifyImage(context.Background(), testPhoto(t, 400, 400), 1.0)
	require.NoError(t, err)

	assert.Equal(t, 1, result.FaceCount)
	assert.False(t, result.CacheHit)
	assert.NotEmpty(t, result.CacheKey)

	decoded, format, err := image.Decode(bytes.NewReader(result.Data))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 400, decoded.Bounds().Dx())
	assert.Equal(t, 400, decoded.Bounds().Dy())

	assert.Contains(t, s3Client.store, result.CacheKey)
	assert.Contains(t, redis.meta, result.CacheKey)
}

func TestHatifyImage_SkipsInvalidFace(t *testing.T) {
	badSet := make(overlay.FaceLandmarkSet, 10)

	svc := newTestService(t,
		&fakeFaceMesh{sets: []overlay.FaceLandmarkSet{badSet, faceSet(0.5, 0.5)}},
		&fakeS3{store: map[string][]byte{}},
		&fakeRedis{meta: map[string]entity.ProcessedImageMeta{}},
	)

	result, err := svc.HatifyImage(context.Background(), testPhoto(t, 400, 400), 1.0)
	require.NoError(t, err)
	assert.Equal(t, 1, result.FaceCount)
}

func TestHatifyImage_CacheHit(t *testing.T) {
	photo := testPhoto(t, 400, 400)
	cacheKey := s3Pkg.CacheKeyFromContent(photo, 2.0)

	cached := new(bytes.Buffer)
	require.NoError(t, jpeg.Encode(cached, image.NewNRGBA(image.Rect(0, 0, 4, 4)), nil))

	s3Client := &fakeS3{enabled: true, store: map[string][]byte{cacheKey: cached.Bytes()}}
	redis := &fakeRedis{meta: map[string]entity.ProcessedImageMeta{
		cacheKey: {CacheKey: cacheKey, FaceCount: 3, Scale: 2.0},
	}}

	svc := newTestService(t, &fakeFaceMesh{err: assert.AnError}, s3Client, redis)

	result, err := svc.HatifyImage(context.Background(), photo, 2.0)
	require.NoError(t, err)

	assert.True(t, result.CacheHit)
	assert.Equal(t, 3, result.FaceCount)
	assert.Equal(t, cached.Bytes(), result.Data)
}

func TestHatifyImage_DimensionLimit(t *testing.T) {
	t.Setenv("MAX_IMAGE_WIDTH", "100")

	svc := newTestService(t,
		&fakeFaceMesh{sets: []overlay.FaceLandmarkSet{faceSet(0.5, 0.5)}},
		&fakeS3{store: map[string][]byte{}},
		&fakeRedis{meta: map[string]entity.ProcessedImageMeta{}},
	)

	_, err := svc.HatifyImage(context.Background(), testPhoto(t, 200, 100), 1.0)
	assert.ErrorIs(t, err, hatify.ErrImageTooLarge)
}

func TestHatifyImage_MaxFacesTruncated(t *testing.T) {
	t.Setenv("MAX_FACES", "2")

	sets := []overlay.FaceLandmarkSet{
		faceSet(0.25, 0.4),
		faceSet(0.5, 0.4),
		faceSet(0.75, 0.4),
	}

	svc := newTestService(t,
		&fakeFaceMesh{sets: sets},
		&fakeS3{store: map[string][]byte{}},
		&fakeRedis{meta: map[string]entity.ProcessedImageMeta{}},
	)

	result, err := svc.HatifyImage(context.Background(), testPhoto(t, 400, 400), 1.0)
	require.NoError(t, err)
	assert.Equal(t, 2, result.FaceCount)
}

func TestHatifyFrame_RoundTrip(t *testing.T) {
	svc := newTestService(t,
		&fakeFaceMesh{sets: []overlay.FaceLandmarkSet{faceSet(0.5, 0.5)}},
		&fakeS3{store: map[string][]byte{}},
		&fakeRedis{meta: map[string]entity.ProcessedImageMeta{}},
	)

	frame, err := svc.HatifyFrame(testPhoto(t, 320, 240))
	require.NoError(t, err)

	decoded, format, err := image.Decode(bytes.NewReader(frame))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 320, decoded.Bounds().Dx())
}

func TestHatifyURL_RejectsUnsafeURL(t *testing.T) {
	svc := newTestService(t,
		&fakeFaceMesh{},
		&fakeS3{store: map[string][]byte{}},
		&fakeRedis{meta: map[string]entity.ProcessedImageMeta{}},
	)

	tests := []struct {
		name string
		url  string
	}{
		{name: "loopback", url: "http://127.0.0.1/cat.jpg"},
		{name: "metadata endpoint", url: "http://169.254.169.254/latest/meta-data"},
		{name: "file scheme", url: "file:///etc/passwd"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.HatifyURL(context.Background(), tt.url, 1.0)
			assert.ErrorIs(t, err, hatify.ErrUnsafeURL)
		})
	}
}
