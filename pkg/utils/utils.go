package utils

import (
	"bytes"
	"crypto/rand"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"mime/multipart"
	"time"

	_ "image/gif"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/disintegration/imaging"
	"github.com/oklog/ulid/v2"
)

type IUtils interface {
	NewULIDFromTimestamp(t time.Time) (string, error)
	ValidateImageFile(file *multipart.FileHeader, maxSize int64) error
	DecodeImage(data []byte) (image.Image, string, error)
	FlattenOnWhite(img *image.NRGBA) *image.NRGBA
	EncodeJPEG(img image.Image, quality int) ([]byte, error)
}

type utils struct{}

func New() IUtils {
	return &utils{}
}

func (u *utils) NewULIDFromTimestamp(t time.Time) (string, error) {
	ms := ulid.Timestamp(t)
	entropy := ulid.Monotonic(rand.Reader, 0)

	id, err := ulid.New(ms, entropy)
	if err != nil {
		return "", err
	}

	return id.String(), nil
}

func (u *utils) ValidateImageFile(file *multipart.FileHeader, maxSize int64) error {
	if file == nil {
		return errors.New("no file uploaded")
	}

	if file.Size > maxSize {
		return errors.New("file size exceeds limit")
	}

	return nil
}

// DecodeImage decodes JPEG, PNG or GIF bytes into an in-memory image and
// reports the detected format name.
func (u *utils) DecodeImage(data []byte) (image.Image, string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}
	return img, format, nil
}

// FlattenOnWhite composites the image onto an opaque white background,
// dropping the alpha channel's visual effect before JPEG encoding.
func (u *utils) FlattenOnWhite(img *image.NRGBA) *image.NRGBA {
	white := imaging.New(img.Bounds().Dx(), img.Bounds().Dy(), color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	return imaging.Overlay(white, img, image.Pt(0, 0), 1.0)
}

func (u *utils) EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("failed to encode JPEG: %w", err)
	}
	return buf.Bytes(), nil
}
