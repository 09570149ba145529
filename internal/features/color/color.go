// Package color computes the color statistics of a frame: channel means and
// deviations, opponent-space colorfulness, and a dominant palette.
package color

import (
	"fmt"
	"math"
	"sort"

	"github.com/EdlinOrg/prominentcolor"

	"adscope/internal/frame"
	"adscope/internal/services"
)

// PaletteSize is the fixed number of palette entries in a feature record.
const PaletteSize = 5

// neutralHex pads the palette when clustering yields fewer distinct colors
// than PaletteSize.
const neutralHex = "#808080"

// Stats holds per-channel pixel statistics in BGR order.
type Stats struct {
	MeanBGR [3]float64
	StdBGR  [3]float64
}

// Compute returns the channel statistics of a single frame.
func Compute(fr *frame.Frame) Stats {
	n := float64(fr.PixelCount())
	var sum, sumSq [3]float64
	for i := 0; i < fr.PixelCount(); i++ {
		b, g, r := fr.BGRAt(i)
		for c, v := range [3]float64{float64(b), float64(g), float64(r)} {
			sum[c] += v
			sumSq[c] += v * v
		}
	}
	var stats Stats
	for c := 0; c < 3; c++ {
		mean := sum[c] / n
		variance := sumSq[c]/n - mean*mean
		if variance < 0 {
			variance = 0
		}
		stats.MeanBGR[c] = mean
		stats.StdBGR[c] = math.Sqrt(variance)
	}
	return stats
}

// Colorfulness computes the Hasler-Suesstrunk colorfulness metric from the
// red-green and yellow-blue opponent channels. A monochrome frame scores 0.
func Colorfulness(fr *frame.Frame) float64 {
	n := float64(fr.PixelCount())
	var sumRG, sumSqRG, sumYB, sumSqYB float64
	for i := 0; i < fr.PixelCount(); i++ {
		b, g, r := fr.BGRAt(i)
		rg := float64(r) - float64(g)
		yb := 0.5*(float64(r)+float64(g)) - float64(b)
		sumRG += rg
		sumSqRG += rg * rg
		sumYB += yb
		sumSqYB += yb * yb
	}
	meanRG := sumRG / n
	meanYB := sumYB / n
	varRG := sumSqRG/n - meanRG*meanRG
	varYB := sumSqYB/n - meanYB*meanYB
	if varRG < 0 {
		varRG = 0
	}
	if varYB < 0 {
		varYB = 0
	}
	stdRoot := math.Sqrt(varRG + varYB)
	meanRoot := math.Sqrt(meanRG*meanRG + meanYB*meanYB)
	return stdRoot + 0.3*meanRoot
}

// Palette clusters the frame into PaletteSize dominant colors, ordered by
// cluster population (largest first) with luminance breaking ties, and padded
// with a neutral gray when fewer clusters emerge. Falls back to a histogram
// quantizer if k-means cannot converge.
func Palette(fr *frame.Frame) ([]string, error) {
	if fr.Img == nil {
		return nil, services.Wrap(services.ErrFeatureFault, "color", "palette", "frame carries no image", nil)
	}
	items, err := prominentcolor.KmeansWithAll(PaletteSize, fr.Img,
		prominentcolor.ArgumentNoCropping, prominentcolor.DefaultSize, nil)
	if err != nil || len(items) == 0 {
		return histogramPalette(fr), nil
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Cnt != items[j].Cnt {
			return items[i].Cnt > items[j].Cnt
		}
		return luminance(items[i].Color.R, items[i].Color.G, items[i].Color.B) >
			luminance(items[j].Color.R, items[j].Color.G, items[j].Color.B)
	})
	palette := make([]string, 0, PaletteSize)
	for _, item := range items {
		palette = append(palette, hexColor(item.Color.R, item.Color.G, item.Color.B))
		if len(palette) == PaletteSize {
			break
		}
	}
	return padPalette(palette), nil
}

// histogramPalette buckets pixels at 4 bits per channel and returns the
// centers of the most populated buckets. Used when k-means fails, typically
// on frames with very few distinct colors.
func histogramPalette(fr *frame.Frame) []string {
	type bucket struct {
		count   int
		r, g, b uint64
	}
	buckets := make(map[uint32]*bucket)
	for i := 0; i < fr.PixelCount(); i++ {
		b, g, r := fr.BGRAt(i)
		key := uint32(r>>4)<<8 | uint32(g>>4)<<4 | uint32(b>>4)
		bk := buckets[key]
		if bk == nil {
			bk = &bucket{}
			buckets[key] = bk
		}
		bk.count++
		bk.r += uint64(r)
		bk.g += uint64(g)
		bk.b += uint64(b)
	}
	ordered := make([]*bucket, 0, len(buckets))
	for _, bk := range buckets {
		ordered = append(ordered, bk)
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].count != ordered[j].count {
			return ordered[i].count > ordered[j].count
		}
		li := luminance(uint32(ordered[i].r/uint64(ordered[i].count)),
			uint32(ordered[i].g/uint64(ordered[i].count)),
			uint32(ordered[i].b/uint64(ordered[i].count)))
		lj := luminance(uint32(ordered[j].r/uint64(ordered[j].count)),
			uint32(ordered[j].g/uint64(ordered[j].count)),
			uint32(ordered[j].b/uint64(ordered[j].count)))
		return li > lj
	})
	palette := make([]string, 0, PaletteSize)
	for _, bk := range ordered {
		n := uint64(bk.count)
		palette = append(palette, hexColor(uint32(bk.r/n), uint32(bk.g/n), uint32(bk.b/n)))
		if len(palette) == PaletteSize {
			break
		}
	}
	return padPalette(palette)
}

func padPalette(palette []string) []string {
	for len(palette) < PaletteSize {
		palette = append(palette, neutralHex)
	}
	return palette
}

func hexColor(r, g, b uint32) string {
	return fmt.Sprintf("#%02x%02x%02x", uint8(r), uint8(g), uint8(b))
}

func luminance(r, g, b uint32) float64 {
	return 0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)
}
