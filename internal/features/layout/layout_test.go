package layout

import (
	"image"
	"image/color"
	"math"
	"testing"

	"adscope/internal/frame"
)

func fillFrame(t *testing.T, c color.RGBA, width, height int) *frame.Frame {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	fr, err := frame.FromImage(img, frame.MaxAnalysisDim)
	if err != nil {
		t.Fatalf("FromImage: %v", err)
	}
	return fr
}

func TestAspectRatio(t *testing.T) {
	if got := AspectRatio(1920, 1080); math.Abs(got-1.7777) > 0.001 {
		t.Fatalf("aspect = %v, want ~1.7778", got)
	}
	if got := AspectRatio(1080, 1920); math.Abs(got-0.5625) > 0.001 {
		t.Fatalf("aspect = %v, want 0.5625", got)
	}
}

func TestWhitespaceRatioWhiteFrame(t *testing.T) {
	fr := fillFrame(t, color.RGBA{R: 255, G: 255, B: 255, A: 255}, 64, 48)
	if got := WhitespaceRatio(fr); got < 0.99 {
		t.Fatalf("white frame whitespace = %v, want ~1", got)
	}
}

func TestWhitespaceRatioDarkFrame(t *testing.T) {
	fr := fillFrame(t, color.RGBA{R: 20, G: 20, B: 20, A: 255}, 64, 48)
	if got := WhitespaceRatio(fr); got > 0.01 {
		t.Fatalf("dark frame whitespace = %v, want ~0", got)
	}
}

func TestWhitespaceRatioSaturatedBright(t *testing.T) {
	// Bright but fully saturated yellow is not whitespace.
	fr := fillFrame(t, color.RGBA{R: 255, G: 255, B: 0, A: 255}, 64, 48)
	if got := WhitespaceRatio(fr); got > 0.01 {
		t.Fatalf("saturated frame whitespace = %v, want ~0", got)
	}
}

func TestWhitespaceRatioMixed(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			if y < 32 {
				img.Set(x, y, color.RGBA{R: 250, G: 250, B: 250, A: 255})
			} else {
				img.Set(x, y, color.RGBA{R: 255, A: 255})
			}
		}
	}
	fr, err := frame.FromImage(img, frame.MaxAnalysisDim)
	if err != nil {
		t.Fatalf("FromImage: %v", err)
	}
	got := WhitespaceRatio(fr)
	if math.Abs(got-0.5) > 0.05 {
		t.Fatalf("mixed frame whitespace = %v, want ~0.5", got)
	}
}
