// Package frame provides the raster frame abstraction shared by the feature
// analyzers. Frames carry interleaved BGR pixels plus the decoded image for
// libraries that want image.Image directly.
package frame

import (
	"errors"
	"image"

	"github.com/disintegration/imaging"
)

// MaxAnalysisDim is the bounding box applied to frames before numeric
// analysis. Larger sources are downscaled; feature values are computed on the
// scaled raster so per-frame cost stays bounded regardless of source size.
const MaxAnalysisDim = 512

// Frame is a decoded raster frame in BGR channel order.
type Frame struct {
	Width  int
	Height int
	// Pix holds interleaved B, G, R bytes, row-major, 3 bytes per pixel.
	Pix []uint8
	// Img is the (possibly downscaled) decoded image backing Pix.
	Img image.Image
}

// FromImage converts a decoded image into an analysis frame, downscaling to
// fit maxDim when the source exceeds it. maxDim <= 0 disables scaling.
func FromImage(img image.Image, maxDim int) (*Frame, error) {
	if img == nil {
		return nil, errors.New("frame: nil image")
	}
	bounds := img.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return nil, errors.New("frame: empty image")
	}

	if maxDim > 0 && (bounds.Dx() > maxDim || bounds.Dy() > maxDim) {
		img = imaging.Fit(img, maxDim, maxDim, imaging.Lanczos)
		bounds = img.Bounds()
	}

	width := bounds.Dx()
	height := bounds.Dy()
	pix := make([]uint8, 0, width*height*3)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			pix = append(pix, uint8(b>>8), uint8(g>>8), uint8(r>>8))
		}
	}

	return &Frame{Width: width, Height: height, Pix: pix, Img: img}, nil
}

// PixelCount returns the number of pixels in the frame.
func (f *Frame) PixelCount() int {
	return f.Width * f.Height
}

// BGRAt returns the blue, green, and red components of the pixel at index i
// (row-major pixel index, not byte offset).
func (f *Frame) BGRAt(i int) (uint8, uint8, uint8) {
	off := i * 3
	return f.Pix[off], f.Pix[off+1], f.Pix[off+2]
}

// Gray returns the frame collapsed to 8-bit luminance values, one per pixel,
// using the Rec. 601 weights.
func (f *Frame) Gray() []uint8 {
	out := make([]uint8, f.PixelCount())
	for i := range out {
		b, g, r := f.BGRAt(i)
		out[i] = uint8((299*int(r) + 587*int(g) + 114*int(b)) / 1000)
	}
	return out
}
