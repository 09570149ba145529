// Package probe wraps ffprobe for video container inspection.
package probe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
)

// Result represents the parsed output from an ffprobe inspection.
type Result struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

// Stream describes a single stream in the media container.
type Stream struct {
	Index        int    `json:"index"`
	CodecName    string `json:"codec_name"`
	CodecType    string `json:"codec_type"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	RFrameRate   string `json:"r_frame_rate"`
	AvgFrameRate string `json:"avg_frame_rate"`
	NBFrames     string `json:"nb_frames"`
	Duration     string `json:"duration"`
}

// Format captures container-level metadata extracted by ffprobe.
type Format struct {
	Filename   string `json:"filename"`
	NBStreams  int    `json:"nb_streams"`
	Duration   string `json:"duration"`
	FormatName string `json:"format_name"`
}

// Inspect executes ffprobe against the provided path and decodes the JSON response.
func Inspect(ctx context.Context, binary string, path string) (Result, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return Result{}, errors.New("ffprobe inspect: empty path")
	}

	cmd := exec.CommandContext(ctx, binary, "-v", "error", "-hide_banner", "-show_format", "-show_streams", "-of", "json", "--", path)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return Result{}, fmt.Errorf("ffprobe inspect: %w: %s", err, strings.TrimSpace(string(output)))
	}

	var result Result
	if err := json.Unmarshal(output, &result); err != nil {
		return Result{}, fmt.Errorf("ffprobe parse: %w", err)
	}
	return result, nil
}

// VideoStream returns the first video stream, or false when the container has
// none.
func (r Result) VideoStream() (Stream, bool) {
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, "video") {
			return stream, true
		}
	}
	return Stream{}, false
}

// FPS returns the stream's nominal frame rate, or 0 when it cannot be
// determined with confidence.
func (s Stream) FPS() float64 {
	if fps := parseRational(s.RFrameRate); fps > 0 {
		return fps
	}
	return parseRational(s.AvgFrameRate)
}

// FrameCount returns the reported total frame count, or 0 when unavailable.
func (s Stream) FrameCount() int64 {
	cleaned := strings.TrimSpace(s.NBFrames)
	if cleaned == "" || cleaned == "N/A" {
		return 0
	}
	count, err := strconv.ParseInt(cleaned, 10, 64)
	if err != nil || count < 0 {
		return 0
	}
	return count
}

// DurationSeconds returns the container duration in seconds, preferring the
// stream value over the format value, or 0 when unavailable.
func (r Result) DurationSeconds() float64 {
	if stream, ok := r.VideoStream(); ok {
		if d := parseFloat(stream.Duration); d > 0 && !math.IsNaN(d) {
			return d
		}
	}
	d := parseFloat(r.Format.Duration)
	if math.IsNaN(d) || d < 0 {
		return 0
	}
	return d
}

// parseRational parses ffprobe's "num/den" frame-rate notation. Plain numbers
// are accepted too. Returns 0 for unknown or degenerate values like "0/0".
func parseRational(value string) float64 {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" || cleaned == "N/A" {
		return 0
	}
	if num, den, ok := strings.Cut(cleaned, "/"); ok {
		n, errN := strconv.ParseFloat(strings.TrimSpace(num), 64)
		d, errD := strconv.ParseFloat(strings.TrimSpace(den), 64)
		if errN != nil || errD != nil || d == 0 || n <= 0 {
			return 0
		}
		return n / d
	}
	parsed, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || parsed <= 0 {
		return 0
	}
	return parsed
}

func parseFloat(value string) float64 {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" || cleaned == "N/A" {
		return 0
	}
	if parsed, err := strconv.ParseFloat(cleaned, 64); err == nil {
		return parsed
	}
	return math.NaN()
}
