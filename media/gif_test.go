package media

import (
	"bytes"
	"image"
	"image/color/palette"
	"image/gif"
	"testing"
)

func encodeTestGIF(t *testing.T, frames int, width, height int) []byte {
	t.Helper()
	g := &gif.GIF{}
	for i := 0; i < frames; i++ {
		frame := image.NewPaletted(image.Rect(0, 0, width, height), palette.Plan9)
		g.Image = append(g.Image, frame)
		g.Delay = append(g.Delay, 10)
	}
	var buf bytes.Buffer
	if err := gif.EncodeAll(&buf, g); err != nil {
		t.Fatalf("failed to encode test gif: %v", err)
	}
	return buf.Bytes()
}

func TestInspectGIF(t *testing.T) {
	data := encodeTestGIF(t, 3, 8, 6)
	info, err := InspectGIF(data)
	if err != nil {
		t.Fatalf("InspectGIF failed: %v", err)
	}
	if info.PageCount != 3 {
		t.Errorf("page count = %d, want 3", info.PageCount)
	}
	if info.Width != 8 || info.Height != 6 {
		t.Errorf("dimensions = %dx%d, want 8x6", info.Width, info.Height)
	}
}

func TestInspectGIFRejectsNonGIF(t *testing.T) {
	if _, err := InspectGIF([]byte("not a gif")); err == nil {
		t.Error("non-GIF data must be rejected")
	}
}

func TestFirstFrame(t *testing.T) {
	data := encodeTestGIF(t, 2, 8, 6)
	frame, err := FirstFrame(data)
	if err != nil {
		t.Fatalf("FirstFrame failed: %v", err)
	}
	if got := frame.Bounds().Dx(); got != 8 {
		t.Errorf("frame width = %d, want 8", got)
	}
}

func TestContentDigestStable(t *testing.T) {
	a := ContentDigest([]byte("gifdata"))
	if a != ContentDigest([]byte("gifdata")) {
		t.Error("digest must be deterministic")
	}
	if a == ContentDigest([]byte("other")) {
		t.Error("distinct content must not collide")
	}
	if len(a) != 64 {
		t.Errorf("digest length = %d, want 64 hex chars", len(a))
	}
}
