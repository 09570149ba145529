// Package api defines the wire contract of the extraction service: the
// FeatureRecord response, the error envelope, the health report, and an HTTP
// client used by the CLI.
package api

import (
	"adscope/internal/deps"
	"adscope/internal/features/objects"
)

// Version identifies the feature schema. Bump it whenever an algorithm or
// field change could alter downstream interpretation of records.
const Version = "fx-0.1.0"

// FeatureRecord is the top-level extraction response. It is assembled once
// per request and never mutated afterwards.
type FeatureRecord struct {
	AdID     string    `json:"ad_id"`
	Media    MediaInfo `json:"media"`
	Features Features  `json:"features"`
	Version  string    `json:"version"`
}

// MediaInfo describes the decoded input. DurationMS and FPS are null for
// images, and null for videos whose container metadata was incomplete.
type MediaInfo struct {
	Modality   string   `json:"modality"`
	Width      int      `json:"width"`
	Height     int      `json:"height"`
	DurationMS *int64   `json:"duration_ms"`
	FPS        *float64 `json:"fps"`
}

// Features groups the per-record feature blocks. Video is null exactly when
// the modality is image.
type Features struct {
	Color   ColorFeatures       `json:"color"`
	Layout  LayoutFeatures      `json:"layout"`
	Video   *VideoFeatures      `json:"video"`
	OCR     OCRResult           `json:"ocr"`
	Objects []objects.Detection `json:"objects"`
	Logos   objects.LogoSummary `json:"logos"`
}

// ColorFeatures carries the color statistics of the representative frame.
// Channel tuples are in BGR order. PaletteHex always holds exactly five
// entries, most dominant first.
type ColorFeatures struct {
	Colorfulness float64    `json:"colorfulness"`
	MeanBGR      [3]float64 `json:"mean_bgr"`
	StdBGR       [3]float64 `json:"std_bgr"`
	PaletteHex   []string   `json:"palette_hex"`
}

// LayoutFeatures carries composition measurements.
type LayoutFeatures struct {
	AspectRatio     float64 `json:"aspect_ratio"`
	WhitespaceRatio float64 `json:"whitespace_ratio"`
}

// VideoFeatures carries the temporal aggregates computed over the sampled
// frame set. TextFirstSecondPct and AudioEnergy are reserved fields pinned at
// zero until their subsystems exist.
type VideoFeatures struct {
	SampledFrames      int     `json:"sampled_frames"`
	MotionIntensity    float64 `json:"motion_intensity"`
	CutsPerMin         float64 `json:"cuts_per_min"`
	TextFirstSecondPct float64 `json:"text_first_second_pct"`
	AudioEnergy        float64 `json:"audio_energy"`
}

// OCRResult holds recognized-text aggregates. With OCR disabled it is the
// zero placeholder, indistinguishable from an enabled pass that found no
// text.
type OCRResult struct {
	CoveragePct float64 `json:"coverage_pct"`
	Text        string  `json:"text"`
}

// ErrorResponse is the envelope returned for every non-2xx response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail names the failure category and carries the request id for log
// correlation.
type ErrorDetail struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// HealthResponse is the GET /health body.
type HealthResponse struct {
	Status    string        `json:"status"`
	Version   string        `json:"version"`
	Endpoints []string      `json:"endpoints"`
	Deps      []deps.Status `json:"deps"`
	Records   *RecordsInfo  `json:"records,omitempty"`
}

// RecordsInfo summarizes the optional record cache when it is enabled.
type RecordsInfo struct {
	Enabled bool  `json:"enabled"`
	Count   int64 `json:"count"`
}
