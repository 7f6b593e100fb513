package utils

import (
	"bytes"
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
)

func TestNewULIDFromTimestamp(t *testing.T) {
	u := New()

	id, err := u.NewULIDFromTimestamp(time.Now())
	require.NoError(t, err)
	assert.Len(t, id, 26)
}

func TestFlattenOnWhite(t *testing.T) {
	u := New()

	img := imaging.New(4, 4, color.NRGBA{})
	// One half-transparent red pixel over an otherwise transparent image.
	img.SetNRGBA(1, 1, color.NRGBA{R: 255, A: 128})

	flat := u.FlattenOnWhite(img)

	// Fully transparent pixels become white.
	corner := flat.NRGBAAt(0, 0)
	assert.Equal(t, color.NRGBA{R: 255, G: 255, B: 255, A: 255}, corner)

	// The blended pixel is opaque and between red and white.
	blended := flat.NRGBAAt(1, 1)
	assert.EqualValues(t, 255, blended.A)
	assert.EqualValues(t, 255, blended.R)
	assert.Greater(t, blended.G, uint8(100))
	assert.Less(t, blended.G, uint8(140))
}

func TestEncodeDecodeJPEG(t *testing.T) {
	u := New()

	src := imaging.New(8, 8, color.NRGBA{R: 90, G: 120, B: 40, A: 255})
	data, err := u.EncodeJPEG(src, 95)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	decoded, format, err := u.DecodeImage(data)
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, image.Rect(0, 0, 8, 8), decoded.Bounds())
}

// Every MIME type the limits allowlist advertises must have a registered
// decoder; BMP stands in for the formats outside the stdlib set.
func TestDecodeImageSupportsBMP(t *testing.T) {
	u := New()

	src := imaging.New(6, 3, color.NRGBA{R: 200, G: 10, B: 10, A: 255})
	buf := new(bytes.Buffer)
	require.NoError(t, bmp.Encode(buf, src))

	decoded, format, err := u.DecodeImage(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "bmp", format)
	assert.Equal(t, image.Rect(0, 0, 6, 3), decoded.Bounds())
}

func TestDecodeImageRejectsGarbage(t *testing.T) {
	u := New()

	_, _, err := u.DecodeImage([]byte("definitely not an image"))
	assert.Error(t, err)
}
