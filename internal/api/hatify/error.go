package hatify

import (
	"ProjectHatify/pkg/response"
	"net/http"
)

var (
	ErrInternalServerError = response.NewError(http.StatusInternalServerError, "internal server error")
	ErrBadRequest          = response.NewError(http.StatusBadRequest, "bad request")
	ErrInvalidFileType     = response.NewError(http.StatusBadRequest, "invalid file type, please upload an image")
	ErrFileTooLarge        = response.NewError(http.StatusBadRequest, "file size exceeds limit")
	ErrInvalidImage        = response.NewError(http.StatusBadRequest, "could not decode image")
	ErrImageTooLarge       = response.NewError(http.StatusBadRequest, "image dimensions exceed limits")
	ErrInvalidScale        = response.NewError(http.StatusBadRequest, "scale must be greater than 0 and at most 5")
	ErrUnsafeURL           = response.NewError(http.StatusBadRequest, "url is not allowed")
	ErrURLFetchFailed      = response.NewError(http.StatusBadGateway, "failed to fetch image from url")
	ErrNoFacesDetected     = response.NewError(http.StatusNotFound, "no faces detected in the image")
	ErrDetectorUnavailable = response.NewError(http.StatusServiceUnavailable, "face detection service unavailable")
)
