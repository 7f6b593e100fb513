package overlay

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	jsoniter "github.com/json-iterator/go"
)

// Asset is an overlay bitmap plus its placement policy. Both are read-only
// after loading.
type Asset struct {
	Image       *image.NRGBA
	Positioning PositioningConfig
}

type assetMetadata struct {
	Positioning *PositioningConfig `json:"positioning"`
}

// LoadAsset reads the overlay bitmap and, when a sidecar file with the same
// name and a .json extension exists, its positioning policy. Fields missing
// from the sidecar keep their defaults; a missing sidecar means the stock
// policy.
func LoadAsset(imagePath string) (*Asset, error) {
	img, err := imaging.Open(imagePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open overlay asset %s: %w", imagePath, err)
	}

	cfg := DefaultPositioning()

	metaPath := strings.TrimSuffix(imagePath, filepath.Ext(imagePath)) + ".json"
	if data, err := os.ReadFile(metaPath); err == nil {
		meta := assetMetadata{Positioning: &cfg}
		if err := jsoniter.Unmarshal(data, &meta); err != nil {
			return nil, fmt.Errorf("failed to parse positioning metadata %s: %w", metaPath, err)
		}
	}

	return &Asset{
		Image:       imaging.Clone(img),
		Positioning: cfg,
	}, nil
}
