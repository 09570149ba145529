// Package layout derives composition features: the frame aspect ratio and the
// share of the frame reading as whitespace.
package layout

import "adscope/internal/frame"

// Whitespace thresholds: a pixel counts as whitespace when it is both bright
// and nearly unsaturated.
const (
	whitespaceMinLuminance  = 209.0 // of 255
	whitespaceMaxSaturation = 0.12
)

// AspectRatio is width over height. Callers guarantee positive dimensions.
func AspectRatio(width, height int) float64 {
	return float64(width) / float64(height)
}

// WhitespaceRatio is the fraction of pixels in [0, 1] that are bright and
// low-saturation. A pure white frame scores 1, a saturated or dark frame 0.
func WhitespaceRatio(fr *frame.Frame) float64 {
	total := fr.PixelCount()
	if total == 0 {
		return 0
	}
	white := 0
	for i := 0; i < total; i++ {
		b, g, r := fr.BGRAt(i)
		maxC, minC := channelRange(r, g, b)
		if maxC == 0 {
			continue
		}
		luminance := (299*float64(r) + 587*float64(g) + 114*float64(b)) / 1000.0
		saturation := float64(maxC-minC) / float64(maxC)
		if luminance >= whitespaceMinLuminance && saturation <= whitespaceMaxSaturation {
			white++
		}
	}
	return float64(white) / float64(total)
}

func channelRange(r, g, b uint8) (uint8, uint8) {
	maxC, minC := r, r
	if g > maxC {
		maxC = g
	}
	if g < minC {
		minC = g
	}
	if b > maxC {
		maxC = b
	}
	if b < minC {
		minC = b
	}
	return maxC, minC
}
