package hatifyService

import (
	"ProjectHatify/internal/api/hatify"
	"ProjectHatify/pkg/log"
	s3Pkg "ProjectHatify/pkg/s3"
	"io"
	"net/http"

	"golang.org/x/net/context"
)

// HatifyURL fetches a remote photo and runs it through the same pipeline as
// an upload. The cache key comes from the server's freshness identifiers
// (ETag or Last-Modified) so a re-published image under the same URL does not
// serve a stale result.
func (s *hatifyService) HatifyURL(ctx context.Context, imageURL string, scale float64) (*hatify.ProcessResult, error) {
	if scale <= hatify.MinScale || scale > hatify.MaxScale {
		return nil, hatify.ErrInvalidScale
	}

	if err := s.limits.ValidateURLSafety(imageURL); err != nil {
		s.log.WithFields(log.Fields{
			"url":   imageURL,
			"error": err.Error(),
		}).Warn("Rejected unsafe image URL")
		return nil, hatify.ErrUnsafeURL
	}

	cacheKey := s.cacheKeyForURL(ctx, imageURL, scale)

	if cached := s.lookupCache(ctx, cacheKey); cached != nil {
		return cached, nil
	}

	data, err := s.fetchImage(ctx, imageURL)
	if err != nil {
		return nil, err
	}

	return s.process(ctx, data, scale, cacheKey)
}

// cacheKeyForURL probes the URL with a HEAD request and keys the cache on
// ETag, falling back to Last-Modified, falling back to the URL itself when
// the server exposes neither.
func (s *hatifyService) cacheKeyForURL(ctx context.Context, imageURL string, scale float64) string {
	identifier := imageURL

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, imageURL, nil)
	if err == nil {
		if resp, err := s.httpClient.Do(req); err == nil {
			resp.Body.Close()
			if etag := resp.Header.Get("ETag"); etag != "" {
				identifier = imageURL + "|" + etag
			} else if lastModified := resp.Header.Get("Last-Modified"); lastModified != "" {
				identifier = imageURL + "|" + lastModified
			}
		}
	}

	return s3Pkg.CacheKeyFromIdentifier(identifier, scale)
}

func (s *hatifyService) fetchImage(ctx context.Context, imageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, hatify.ErrBadRequest
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.log.WithFields(log.Fields{
			"url":   imageURL,
			"error": err.Error(),
		}).Warn("Failed to fetch image from URL")
		return nil, hatify.ErrURLFetchFailed
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		s.log.WithFields(log.Fields{
			"url":    imageURL,
			"status": resp.StatusCode,
		}).Warn("Image URL answered with non-OK status")
		return nil, hatify.ErrURLFetchFailed
	}

	if contentType := resp.Header.Get("Content-Type"); contentType != "" && !s.limits.IsAllowedImageType(contentType) {
		return nil, hatify.ErrInvalidFileType
	}

	// One extra byte past the cap distinguishes at-limit from over-limit.
	limited := io.LimitReader(resp.Body, s.limits.MaxFileSizeBytes+1)
	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, hatify.ErrURLFetchFailed
	}

	if int64(len(data)) > s.limits.MaxFileSizeBytes {
		return nil, hatify.ErrFileTooLarge
	}

	return data, nil
}
