// Package sample plans which video frames to analyze and extracts them with
// ffmpeg. Analysis and OCR use separate plans because OCR tolerates a higher
// frame cap than the pixel statistics do.
package sample

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"log/slog"
	"math"
	"os"
	"os/exec"
	"sort"
	"strings"
	"sync"

	_ "image/png"

	"adscope/internal/config"
	"adscope/internal/fileutil"
	"adscope/internal/frame"
	"adscope/internal/logging"
	"adscope/internal/services"
)

// Plan is an ordered list of seek timestamps, in seconds.
type Plan struct {
	Timestamps []float64
}

// Sampled pairs an extracted frame with the timestamp it was seeked to.
type Sampled struct {
	Timestamp float64
	Frame     *frame.Frame
}

// AnalysisPlan selects evenly spaced frames for pixel statistics. When the
// source frame count and rate are known, indices are spread across the full
// index range; otherwise timestamps are spread across the duration, and as a
// last resort a short fixed ladder from the start of the file is used.
func AnalysisPlan(frameCount int64, fps, durationSeconds float64, maxFrames, fallbackFrames int) Plan {
	if maxFrames < 1 {
		maxFrames = 1
	}
	if frameCount > 0 && fps > 0 {
		k := int64(maxFrames)
		if frameCount < k {
			k = frameCount
		}
		timestamps := make([]float64, 0, k)
		for _, idx := range evenIndices(frameCount, k) {
			timestamps = append(timestamps, float64(idx)/fps)
		}
		return Plan{Timestamps: timestamps}
	}
	if durationSeconds > 0 {
		return Plan{Timestamps: spreadOverDuration(durationSeconds, maxFrames)}
	}
	return fallbackPlan(fallbackFrames)
}

// OCRPlan selects frames for text recognition at the target sampling rate,
// clamped to [1, maxFrames].
func OCRPlan(frameCount int64, fps, durationSeconds float64, targetFPS, maxFrames, fallbackFrames int) Plan {
	if maxFrames < 1 {
		maxFrames = 1
	}
	if durationSeconds <= 0 && frameCount > 0 && fps > 0 {
		durationSeconds = float64(frameCount) / fps
	}
	if durationSeconds <= 0 {
		return fallbackPlan(fallbackFrames)
	}
	desired := int(math.Round(durationSeconds * float64(targetFPS)))
	if desired < 1 {
		desired = 1
	}
	if desired > maxFrames {
		desired = maxFrames
	}
	if frameCount > 0 && fps > 0 {
		k := int64(desired)
		if frameCount < k {
			k = frameCount
		}
		timestamps := make([]float64, 0, k)
		for _, idx := range evenIndices(frameCount, k) {
			timestamps = append(timestamps, float64(idx)/fps)
		}
		return Plan{Timestamps: timestamps}
	}
	return Plan{Timestamps: spreadOverDuration(durationSeconds, desired)}
}

// evenIndices spreads k indices over [0, total-1] with round-to-nearest
// spacing. k must be <= total and >= 1.
func evenIndices(total, k int64) []int64 {
	if k <= 1 {
		return []int64{0}
	}
	indices := make([]int64, 0, k)
	last := int64(-1)
	for i := int64(0); i < k; i++ {
		idx := int64(math.Round(float64(i) * float64(total-1) / float64(k-1)))
		if idx == last {
			continue
		}
		indices = append(indices, idx)
		last = idx
	}
	return indices
}

func spreadOverDuration(durationSeconds float64, k int) []float64 {
	if k <= 1 {
		return []float64{0}
	}
	// Stay short of the final instant; seeking to the exact end often yields
	// no frame.
	end := durationSeconds * float64(k-1) / float64(k)
	timestamps := make([]float64, 0, k)
	for i := 0; i < k; i++ {
		timestamps = append(timestamps, end*float64(i)/float64(k-1))
	}
	return timestamps
}

func fallbackPlan(n int) Plan {
	if n < 1 {
		n = 1
	}
	timestamps := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		timestamps = append(timestamps, float64(i)*0.5)
	}
	return Plan{Timestamps: timestamps}
}

// Sampler extracts planned frames from a staged video file.
type Sampler struct {
	cfg    *config.Config
	logger *slog.Logger
}

// New constructs a Sampler.
func New(cfg *config.Config, logger *slog.Logger) *Sampler {
	return &Sampler{cfg: cfg, logger: logging.NewComponentLogger(logger, "sample")}
}

// Extract seeks to each planned timestamp and decodes one frame. Individual
// seek failures are logged and skipped; the call fails only when no frame at
// all could be extracted.
func (s *Sampler) Extract(ctx context.Context, videoPath string, plan Plan) ([]Sampled, error) {
	if len(plan.Timestamps) == 0 {
		return nil, services.Wrap(services.ErrFeatureFault, "sample", "extract frames", "empty plan", nil)
	}

	workers := s.cfg.Sampling.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(plan.Timestamps) {
		workers = len(plan.Timestamps)
	}

	results := make([]*Sampled, len(plan.Timestamps))
	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				ts := plan.Timestamps[i]
				fr, err := s.extractOne(ctx, videoPath, ts)
				if err != nil {
					s.logger.Warn("frame extraction failed",
						logging.Float64("timestamp", ts),
						logging.Error(err))
					continue
				}
				results[i] = &Sampled{Timestamp: ts, Frame: fr}
			}
		}()
	}
feed:
	for i := range plan.Timestamps {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, services.Wrap(services.ErrTimeout, "sample", "extract frames", "", err)
	}

	sampled := make([]Sampled, 0, len(results))
	for _, r := range results {
		if r != nil {
			sampled = append(sampled, *r)
		}
	}
	sort.Slice(sampled, func(i, j int) bool { return sampled[i].Timestamp < sampled[j].Timestamp })
	if len(sampled) == 0 {
		return nil, services.Wrap(services.ErrDecode, "sample", "extract frames", "no frames decoded", nil)
	}
	return sampled, nil
}

func (s *Sampler) extractOne(ctx context.Context, videoPath string, timestamp float64) (*frame.Frame, error) {
	outPath, err := fileutil.WriteTemp(s.cfg.Paths.DataDir, "adscope-frame-*.png", nil)
	if err != nil {
		return nil, fmt.Errorf("stage frame file: %w", err)
	}
	defer fileutil.RemoveQuiet(outPath)

	args := []string{
		"-v", "error",
		"-y",
		"-ss", fmt.Sprintf("%.4f", timestamp),
		"-i", videoPath,
		"-frames:v", "1",
		outPath,
	}
	cmd := exec.CommandContext(ctx, s.cfg.Tools.FFmpeg, args...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("ffmpeg seek %.4fs: %w (output: %s)", timestamp, err, strings.TrimSpace(string(output)))
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		return nil, fmt.Errorf("read extracted frame: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("ffmpeg produced no frame at %.4fs", timestamp)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode extracted frame: %w", err)
	}
	return frame.FromImage(img, frame.MaxAnalysisDim)
}
