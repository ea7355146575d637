package media

import (
	"bytes"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

// GenerateThumbnail fits an image into maxWidth x maxHeight and saves it as
// a JPEG with a UUID filename, returning the full path where it was saved.
func GenerateThumbnail(img image.Image, thumbnailDir string, maxWidth, maxHeight int) (string, error) {
	if err := os.MkdirAll(thumbnailDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create thumbnail directory %s: %w", thumbnailDir, err)
	}

	thumb := imaging.Fit(img, maxWidth, maxHeight, imaging.Lanczos)

	thumbUUID, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("failed to generate UUID for thumbnail: %w", err)
	}
	thumbFilename := thumbUUID.String() + ".jpg"
	thumbnailSavePath := filepath.Join(thumbnailDir, thumbFilename)

	err = imaging.Save(thumb, thumbnailSavePath, imaging.JPEGQuality(80))
	if err != nil {
		return "", fmt.Errorf("failed to save thumbnail to %s: %w", thumbnailSavePath, err)
	}

	return thumbnailSavePath, nil
}

// SaveThumbnailAs decodes fetched thumb content, fits it to the size bounds
// and writes it to destPath. Used by the prefetch workers, which name cache
// files by album id so repeat fetches are cheap to detect.
func SaveThumbnailAs(data []byte, destPath string, maxWidth, maxHeight int) error {
	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return fmt.Errorf("failed to create thumbnail directory %s: %w", filepath.Dir(destPath), err)
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to decode thumb content: %w", err)
	}
	thumb := imaging.Fit(img, maxWidth, maxHeight, imaging.Lanczos)

	if err := imaging.Save(thumb, destPath, imaging.JPEGQuality(80)); err != nil {
		return fmt.Errorf("failed to save thumbnail to %s: %w", destPath, err)
	}
	return nil
}
