package media

import (
	"testing"
	"time"
)

func TestParseCaptureName(t *testing.T) {
	got, err := ParseCaptureName("gp-20230102-030405.gif")
	if err != nil {
		t.Fatalf("ParseCaptureName failed: %v", err)
	}
	want := time.Date(2023, 1, 2, 3, 4, 5, 0, time.Local)
	if !got.Equal(want) {
		t.Errorf("parsed = %v, want %v", got, want)
	}

	// full paths are accepted, only the base name matters
	if _, err := ParseCaptureName("/some/dir/gp-20230102-030405.gif"); err != nil {
		t.Errorf("path form rejected: %v", err)
	}
}

func TestParseCaptureNameRejections(t *testing.T) {
	bad := []string{
		"animation.gif",
		"gp-2023.gif",
		"gp-20230102030405.gif",
		"gp-20231302-030405.gif",
		"gp-20230102-030405-extra.gif",
	}
	for _, name := range bad {
		if _, err := ParseCaptureName(name); err == nil {
			t.Errorf("ParseCaptureName(%q) accepted an invalid name", name)
		}
	}
}

func TestFormatCaptureNameRoundTrip(t *testing.T) {
	when := time.Date(2023, 5, 6, 7, 8, 9, 0, time.Local)
	name := FormatCaptureName(when)
	if name != "gp-20230506-070809.gif" {
		t.Errorf("name = %q", name)
	}
	parsed, err := ParseCaptureName(name)
	if err != nil {
		t.Fatalf("round trip failed: %v", err)
	}
	if !parsed.Equal(when) {
		t.Errorf("round trip = %v, want %v", parsed, when)
	}
}
