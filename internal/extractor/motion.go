package extractor

import (
	"math"

	"adscope/internal/frame"
)

// motionMetrics summarizes temporal change across the sampled frames.
type motionMetrics struct {
	// Intensity is the mean absolute grayscale difference between
	// consecutive sampled frames, in [0, 255].
	Intensity float64
	// Cuts is the number of frame transitions whose difference exceeds the
	// mean by two standard deviations.
	Cuts int
}

// computeMotion measures frame-to-frame change. Fewer than two frames yields
// zero metrics. Frames of mismatched dimensions are compared over the
// overlapping region implied by the shorter gray buffer.
func computeMotion(frames []*frame.Frame) motionMetrics {
	if len(frames) < 2 {
		return motionMetrics{}
	}
	diffs := make([]float64, 0, len(frames)-1)
	prev := frames[0].Gray()
	for _, fr := range frames[1:] {
		cur := fr.Gray()
		n := len(prev)
		if len(cur) < n {
			n = len(cur)
		}
		if n == 0 {
			prev = cur
			continue
		}
		var sum float64
		for i := 0; i < n; i++ {
			d := float64(prev[i]) - float64(cur[i])
			if d < 0 {
				d = -d
			}
			sum += d
		}
		diffs = append(diffs, sum/float64(n))
		prev = cur
	}
	if len(diffs) == 0 {
		return motionMetrics{}
	}

	var mean float64
	for _, d := range diffs {
		mean += d
	}
	mean /= float64(len(diffs))

	var variance float64
	for _, d := range diffs {
		variance += (d - mean) * (d - mean)
	}
	variance /= float64(len(diffs))
	threshold := mean + 2*math.Sqrt(variance)

	cuts := 0
	for _, d := range diffs {
		if d > threshold {
			cuts++
		}
	}
	return motionMetrics{Intensity: mean, Cuts: cuts}
}

// cutsPerMinute normalizes a cut count by the clip duration. Unknown duration
// yields zero rather than a fabricated rate.
func cutsPerMinute(cuts int, durationSeconds float64) float64 {
	if cuts == 0 || durationSeconds <= 0 {
		return 0
	}
	return float64(cuts) / (durationSeconds / 60.0)
}
