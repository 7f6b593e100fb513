package overlay

import (
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestAsset(t *testing.T, dir string, sidecar string) string {
	t.Helper()

	imagePath := filepath.Join(dir, "hat.png")
	require.NoError(t, imaging.Save(testAsset(40, 20, color.NRGBA{R: 255, A: 255}), imagePath))

	if sidecar != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "hat.json"), []byte(sidecar), 0o644))
	}

	return imagePath
}

func TestLoadAssetWithoutSidecar(t *testing.T) {
	path := writeTestAsset(t, t.TempDir(), "")

	asset, err := LoadAsset(path)
	require.NoError(t, err)

	assert.Equal(t, 40, asset.Image.Bounds().Dx())
	assert.Equal(t, 20, asset.Image.Bounds().Dy())
	assert.Equal(t, DefaultPositioning(), asset.Positioning)
}

func TestLoadAssetMergesSidecar(t *testing.T) {
	sidecar := `{"positioning": {"width_reference": "forehead_width", "width_multiplier": 1.4, "vertical_offset_px": -10}}`
	path := writeTestAsset(t, t.TempDir(), sidecar)

	asset, err := LoadAsset(path)
	require.NoError(t, err)

	assert.Equal(t, WidthReferenceForeheadWidth, asset.Positioning.WidthReference)
	assert.InDelta(t, 1.4, asset.Positioning.WidthMultiplier, 1e-9)
	assert.Equal(t, -10, asset.Positioning.VerticalOffsetPx)
	// Fields missing from the sidecar keep their defaults.
	assert.Equal(t, AnchorPoint{X: 0.5, Y: 0.95}, asset.Positioning.AnchorPoint)
	assert.Equal(t, HorizontalCenterEyeMidpoint, asset.Positioning.HorizontalCenter)
}

func TestLoadAssetErrors(t *testing.T) {
	t.Run("missing image", func(t *testing.T) {
		_, err := LoadAsset(filepath.Join(t.TempDir(), "missing.png"))
		assert.Error(t, err)
	})

	t.Run("malformed sidecar", func(t *testing.T) {
		path := writeTestAsset(t, t.TempDir(), "{not json")
		_, err := LoadAsset(path)
		assert.Error(t, err)
	})
}
