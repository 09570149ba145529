package sample

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"adscope/internal/config"
	"adscope/internal/logging"
)

func TestAnalysisPlanKnownFrameCount(t *testing.T) {
	plan := AnalysisPlan(100, 10, 10, 40, 5)
	if len(plan.Timestamps) != 40 {
		t.Fatalf("got %d timestamps, want 40", len(plan.Timestamps))
	}
	if plan.Timestamps[0] != 0 {
		t.Fatalf("first timestamp = %v, want 0", plan.Timestamps[0])
	}
	last := plan.Timestamps[len(plan.Timestamps)-1]
	if last != 9.9 {
		t.Fatalf("last timestamp = %v, want 9.9 (index 99 at 10fps)", last)
	}
}

func TestAnalysisPlanShortVideoTakesEveryFrame(t *testing.T) {
	plan := AnalysisPlan(8, 4, 2, 40, 5)
	if len(plan.Timestamps) != 8 {
		t.Fatalf("got %d timestamps, want 8", len(plan.Timestamps))
	}
}

func TestAnalysisPlanDurationOnly(t *testing.T) {
	plan := AnalysisPlan(0, 0, 12, 40, 5)
	if len(plan.Timestamps) != 40 {
		t.Fatalf("got %d timestamps, want 40", len(plan.Timestamps))
	}
	if plan.Timestamps[0] != 0 {
		t.Fatalf("first timestamp = %v, want 0", plan.Timestamps[0])
	}
	last := plan.Timestamps[len(plan.Timestamps)-1]
	if last <= 0 || last >= 12 {
		t.Fatalf("last timestamp = %v, want inside (0, 12)", last)
	}
}

func TestAnalysisPlanNoMetadataFallback(t *testing.T) {
	plan := AnalysisPlan(0, 0, 0, 40, 5)
	if len(plan.Timestamps) != 5 {
		t.Fatalf("got %d timestamps, want 5 fallback frames", len(plan.Timestamps))
	}
}

func TestOCRPlanClamping(t *testing.T) {
	cases := []struct {
		name            string
		frameCount      int64
		fps             float64
		durationSeconds float64
		want            int
	}{
		{"long video hits cap", 9000, 30, 300, 60},
		{"short video rounds", 75, 30, 2.5, 25},
		{"sub-second yields one", 15, 30, 0.04, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			plan := OCRPlan(tc.frameCount, tc.fps, tc.durationSeconds, 10, 60, 5)
			if len(plan.Timestamps) != tc.want {
				t.Fatalf("got %d timestamps, want %d", len(plan.Timestamps), tc.want)
			}
		})
	}
}

func TestEvenIndicesEndpoints(t *testing.T) {
	indices := evenIndices(300, 40)
	if indices[0] != 0 {
		t.Fatalf("first index = %d, want 0", indices[0])
	}
	if indices[len(indices)-1] != 299 {
		t.Fatalf("last index = %d, want 299", indices[len(indices)-1])
	}
	for i := 1; i < len(indices); i++ {
		if indices[i] <= indices[i-1] {
			t.Fatalf("indices not strictly increasing at %d: %v", i, indices)
		}
	}
}

func TestEvenIndicesDeduplicates(t *testing.T) {
	indices := evenIndices(3, 3)
	want := []int64{0, 1, 2}
	if len(indices) != len(want) {
		t.Fatalf("got %v, want %v", indices, want)
	}
	for i := range want {
		if indices[i] != want[i] {
			t.Fatalf("got %v, want %v", indices, want)
		}
	}
}

// stubFFmpeg writes a shell script that copies a fixture PNG to the output
// path ffmpeg would have produced (its last argument).
func stubFFmpeg(t *testing.T, fixture string) string {
	t.Helper()
	dir := t.TempDir()
	script := filepath.Join(dir, "ffmpeg")
	body := fmt.Sprintf("#!/bin/sh\nout=\"\"\nfor a in \"$@\"; do out=\"$a\"; done\ncp %q \"$out\"\n", fixture)
	if err := os.WriteFile(script, []byte(body), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	return script
}

func TestExtractUsesWorkerPool(t *testing.T) {
	dir := t.TempDir()

	img := image.NewRGBA(image.Rect(0, 0, 32, 24))
	for y := 0; y < 24; y++ {
		for x := 0; x < 32; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 100, B: 50, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	fixture := filepath.Join(dir, "fixture.png")
	if err := os.WriteFile(fixture, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	cfg := config.Default()
	cfg.Paths.DataDir = dir
	cfg.Sampling.Workers = 3
	cfg.Tools.FFmpeg = stubFFmpeg(t, fixture)

	s := New(&cfg, logging.NewNop())
	plan := Plan{Timestamps: []float64{0, 0.5, 1.0, 1.5}}
	sampled, err := s.Extract(context.Background(), filepath.Join(dir, "video.mp4"), plan)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(sampled) != 4 {
		t.Fatalf("got %d frames, want 4", len(sampled))
	}
	for i := 1; i < len(sampled); i++ {
		if sampled[i].Timestamp < sampled[i-1].Timestamp {
			t.Fatal("frames not ordered by timestamp")
		}
	}
	if sampled[0].Frame.Width != 32 || sampled[0].Frame.Height != 24 {
		t.Fatalf("frame dimensions = %dx%d, want 32x24", sampled[0].Frame.Width, sampled[0].Frame.Height)
	}
}

func TestExtractFailsWhenNothingDecodes(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = dir
	cfg.Tools.FFmpeg = filepath.Join(dir, "missing-binary")

	s := New(&cfg, logging.NewNop())
	_, err := s.Extract(context.Background(), filepath.Join(dir, "video.mp4"), Plan{Timestamps: []float64{0}})
	if err == nil {
		t.Fatal("expected error when no frames decode")
	}
}
