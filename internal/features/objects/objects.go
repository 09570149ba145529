// Package objects defines the object and logo detection surface. The shipped
// detector is a placeholder that reports no detections; the interface exists
// so a real model-backed detector can slot in without touching the pipeline.
package objects

import (
	"context"

	"adscope/internal/frame"
)

// Detection is one recognized object label with its confidence.
type Detection struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// LogoSummary describes logo presence across the analyzed frames.
type LogoSummary struct {
	Present bool    `json:"present"`
	AreaPct float64 `json:"area_pct"`
}

// Detector inspects frames for objects and logos.
type Detector interface {
	Detect(ctx context.Context, frames []*frame.Frame) ([]Detection, LogoSummary, error)
}

// NoopDetector reports nothing. It stands in until a model backend is wired.
type NoopDetector struct{}

// NewNoop returns the placeholder detector.
func NewNoop() *NoopDetector {
	return &NoopDetector{}
}

// Detect returns an empty detection list and an absent-logo summary.
func (*NoopDetector) Detect(_ context.Context, _ []*frame.Frame) ([]Detection, LogoSummary, error) {
	return []Detection{}, LogoSummary{Present: false, AreaPct: 0}, nil
}
