package media

import (
	"bytes"
	"fmt"
	"image"
	"image/gif"
)

// GIFInfo summarizes a decoded album animation.
type GIFInfo struct {
	PageCount int
	Width     int
	Height    int
}

// InspectGIF decodes data as a GIF animation and reports its page count and
// dimensions. A single-frame image is still a valid album of one page.
func InspectGIF(data []byte) (GIFInfo, error) {
	g, err := gif.DecodeAll(bytes.NewReader(data))
	if err != nil {
		return GIFInfo{}, fmt.Errorf("failed to decode GIF: %w", err)
	}
	info := GIFInfo{
		PageCount: len(g.Image),
		Width:     g.Config.Width,
		Height:    g.Config.Height,
	}
	return info, nil
}

// FirstFrame decodes the first frame of a GIF animation for thumbnailing.
func FirstFrame(data []byte) (image.Image, error) {
	g, err := gif.DecodeAll(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode GIF: %w", err)
	}
	if len(g.Image) == 0 {
		return nil, fmt.Errorf("GIF has no frames")
	}
	return g.Image[0], nil
}
