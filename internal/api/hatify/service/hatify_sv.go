package hatifyService

import (
	"ProjectHatify/internal/api/hatify"
	"ProjectHatify/internal/entity"
	"ProjectHatify/pkg/log"
	"ProjectHatify/pkg/overlay"
	s3Pkg "ProjectHatify/pkg/s3"
	"strconv"
	"time"

	"golang.org/x/net/context"
)

const (
	outputJPEGQuality = 95
	frameJPEGQuality  = 80

	metaExpiration = 24 * time.Hour
)

// HatifyImage runs the full pipeline on raw upload bytes: cache lookup,
// decode, landmark detection, overlay compositing and JPEG encoding. The
// result for a given (content, scale) pair is deterministic, which is what
// makes the content-hash cache safe.
func (s *hatifyService) HatifyImage(ctx context.Context, data []byte, scale float64) (*hatify.ProcessResult, error) {
	if scale <= hatify.MinScale || scale > hatify.MaxScale {
		return nil, hatify.ErrInvalidScale
	}

	cacheKey := s3Pkg.CacheKeyFromContent(data, scale)

	if cached := s.lookupCache(ctx, cacheKey); cached != nil {
		return cached, nil
	}

	return s.process(ctx, data, scale, cacheKey)
}

// HatifyFrame processes a single streamed frame without touching the cache.
// Frames that contain no face come back unchanged so the stream never stalls.
func (s *hatifyService) HatifyFrame(frame []byte) ([]byte, error) {
	img, _, err := s.utils.DecodeImage(frame)
	if err != nil {
		return nil, hatify.ErrInvalidImage
	}

	measurements, err := s.measureFaces(frame, img.Bounds().Dx(), img.Bounds().Dy())
	if err != nil {
		return nil, err
	}

	composited := s.engine.Composite(img, measurements, 1.0)

	return s.utils.EncodeJPEG(s.utils.FlattenOnWhite(composited), frameJPEGQuality)
}

func (s *hatifyService) process(ctx context.Context, data []byte, scale float64, cacheKey string) (*hatify.ProcessResult, error) {
	img, format, err := s.utils.DecodeImage(data)
	if err != nil {
		s.log.WithFields(log.Fields{"error": err.Error()}).Warn("Failed to decode uploaded image")
		return nil, hatify.ErrInvalidImage
	}

	width := img.Bounds().Dx()
	height := img.Bounds().Dy()

	if width > s.limits.MaxImageWidth || height > s.limits.MaxImageHeight || width*height > s.limits.MaxImagePixels {
		s.log.WithFields(log.Fields{
			"width":  width,
			"height": height,
			"format": format,
		}).Warn("Rejected image exceeding dimension limits")
		return nil, hatify.ErrImageTooLarge
	}

	measurements, err := s.measureFaces(data, width, height)
	if err != nil {
		return nil, err
	}

	if len(measurements) == 0 {
		return nil, hatify.ErrNoFacesDetected
	}

	composited := s.engine.Composite(img, measurements, scale)

	encoded, err := s.utils.EncodeJPEG(s.utils.FlattenOnWhite(composited), outputJPEGQuality)
	if err != nil {
		s.log.WithFields(log.Fields{"error": err.Error()}).Error("Failed to encode processed image")
		return nil, hatify.ErrInternalServerError
	}

	s.storeCache(ctx, cacheKey, encoded, len(measurements), scale)

	return &hatify.ProcessResult{
		Data:      encoded,
		FaceCount: len(measurements),
		CacheKey:  cacheKey,
		CacheHit:  false,
	}, nil
}

// measureFaces asks the sidecar for landmarks and converts them to pixel
// measurements. A face whose landmark set violates the geometry contract is
// skipped with a warning instead of failing the whole request.
func (s *hatifyService) measureFaces(frame []byte, width, height int) ([]overlay.FaceMeasurement, error) {
	sets, err := s.faceMesh.DetectLandmarks(frame)
	if err != nil {
		s.log.WithFields(log.Fields{"error": err.Error()}).Error("Face detection failed")
		return nil, hatify.ErrDetectorUnavailable
	}

	if len(sets) > s.limits.MaxFaces {
		s.log.WithFields(log.Fields{
			"detected": len(sets),
			"max":      s.limits.MaxFaces,
		}).Warn("Truncating detected faces to limit")
		sets = sets[:s.limits.MaxFaces]
	}

	measurements := make([]overlay.FaceMeasurement, 0, len(sets))
	for i, set := range sets {
		m, err := s.extractor.ExtractMeasurement(set, width, height)
		if err != nil {
			s.log.WithFields(log.Fields{
				"face":  i,
				"error": err.Error(),
			}).Warn("Skipping face with invalid landmarks")
			continue
		}
		measurements = append(measurements, m)
	}

	return measurements, nil
}

func (s *hatifyService) lookupCache(ctx context.Context, cacheKey string) *hatify.ProcessResult {
	if !s.s3Client.Enabled() {
		return nil
	}

	data, err := s.s3Client.GetImage(ctx, cacheKey)
	if err != nil {
		s.log.WithFields(log.Fields{
			"cache_key": cacheKey,
			"error":     err.Error(),
		}).Warn("Cache lookup failed, reprocessing")
		return nil
	}
	if data == nil {
		return nil
	}

	faceCount := 0
	if meta, err := s.redis.GetProcessedMeta(ctx, cacheKey); err == nil && meta != nil {
		faceCount = meta.FaceCount
	}

	s.log.WithFields(log.Fields{"cache_key": cacheKey}).Info("Cache hit")

	return &hatify.ProcessResult{
		Data:      data,
		FaceCount: faceCount,
		CacheKey:  cacheKey,
		CacheHit:  true,
	}
}

// storeCache is best effort: a failed write never fails the request.
func (s *hatifyService) storeCache(ctx context.Context, cacheKey string, data []byte, faceCount int, scale float64) {
	if s.s3Client.Enabled() {
		metadata := map[string]string{
			"faces-detected": strconv.Itoa(faceCount),
		}
		if err := s.s3Client.PutImage(ctx, cacheKey, data, metadata); err != nil {
			s.log.WithFields(log.Fields{
				"cache_key": cacheKey,
				"error":     err.Error(),
			}).Warn("Failed to write processed image to cache")
		}
	}

	meta := entity.ProcessedImageMeta{
		CacheKey:    cacheKey,
		FaceCount:   faceCount,
		Scale:       scale,
		ProcessedAt: time.Now().UTC(),
	}
	if err := s.redis.SetProcessedMeta(ctx, meta, metaExpiration); err != nil {
		s.log.WithFields(log.Fields{
			"cache_key": cacheKey,
			"error":     err.Error(),
		}).Warn("Failed to store processed image metadata")
	}
}
