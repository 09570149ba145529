package extractor

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"adscope/internal/config"
	"adscope/internal/features/objects"
	"adscope/internal/frame"
	"adscope/internal/logging"
	"adscope/internal/ocr"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.DataDir = t.TempDir()
	return &cfg
}

func encodePNG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestAdIDDeterministic(t *testing.T) {
	data := []byte("the same ad bytes")
	first, second := AdID(data), AdID(data)
	if first != second {
		t.Fatalf("ad ids differ: %q vs %q", first, second)
	}
	if len(first) != 16 {
		t.Fatalf("ad id length = %d, want 16", len(first))
	}
	if AdID([]byte("different bytes")) == first {
		t.Fatal("distinct inputs produced the same ad id")
	}
}

func TestExtractImage(t *testing.T) {
	cfg := testConfig(t)
	a := New(cfg, logging.NewNop(), ocr.NoopEngine{}, objects.NewNoop())
	data := encodePNG(t, 640, 480)

	record, err := a.Extract(context.Background(), data, "image/png", "banner.png")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if record.Media.Modality != "image" {
		t.Fatalf("modality = %q", record.Media.Modality)
	}
	if record.Media.Width != 640 || record.Media.Height != 480 {
		t.Fatalf("dimensions = %dx%d", record.Media.Width, record.Media.Height)
	}
	if record.Media.DurationMS != nil || record.Media.FPS != nil {
		t.Fatal("image records must not carry duration or fps")
	}
	if record.Features.Video != nil {
		t.Fatal("features.video must be null for images")
	}
	if len(record.Features.Color.PaletteHex) != 5 {
		t.Fatalf("palette length = %d, want 5", len(record.Features.Color.PaletteHex))
	}
	if record.Features.Layout.AspectRatio <= 1.3 || record.Features.Layout.AspectRatio >= 1.4 {
		t.Fatalf("aspect ratio = %v, want ~1.333", record.Features.Layout.AspectRatio)
	}
	if ws := record.Features.Layout.WhitespaceRatio; ws < 0 || ws > 1 {
		t.Fatalf("whitespace ratio %v out of [0,1]", ws)
	}
	if record.Features.OCR.CoveragePct != 0 || record.Features.OCR.Text != "" {
		t.Fatalf("ocr = %+v, want placeholder with noop engine", record.Features.OCR)
	}
	if record.Features.Objects == nil || len(record.Features.Objects) != 0 {
		t.Fatalf("objects = %v, want empty slice", record.Features.Objects)
	}
	if record.Features.Logos.Present {
		t.Fatal("logos must be absent")
	}
	if record.Version != "fx-0.1.0" {
		t.Fatalf("version = %q", record.Version)
	}
	if record.AdID != AdID(data) {
		t.Fatal("record ad id must hash the raw upload bytes")
	}
}

func TestExtractDeterministicFeatures(t *testing.T) {
	cfg := testConfig(t)
	a := New(cfg, logging.NewNop(), ocr.NoopEngine{}, objects.NewNoop())
	data := encodePNG(t, 320, 240)

	first, err := a.Extract(context.Background(), data, "image/png", "a.png")
	if err != nil {
		t.Fatalf("first Extract: %v", err)
	}
	second, err := a.Extract(context.Background(), data, "image/png", "a.png")
	if err != nil {
		t.Fatalf("second Extract: %v", err)
	}
	if first.AdID != second.AdID {
		t.Fatal("ad ids differ across runs")
	}
	if first.Features.Color.MeanBGR != second.Features.Color.MeanBGR {
		t.Fatal("mean bgr differs across runs")
	}
	if first.Features.Layout != second.Features.Layout {
		t.Fatal("layout differs across runs")
	}
}

type failingDetector struct{}

func (failingDetector) Detect(context.Context, []*frame.Frame) ([]objects.Detection, objects.LogoSummary, error) {
	return nil, objects.LogoSummary{}, errors.New("model backend unavailable")
}

func TestExtractSurvivesDetectorFailure(t *testing.T) {
	cfg := testConfig(t)
	a := New(cfg, logging.NewNop(), ocr.NoopEngine{}, failingDetector{})

	record, err := a.Extract(context.Background(), encodePNG(t, 64, 64), "image/png", "banner.png")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if record.Features.Objects == nil || len(record.Features.Objects) != 0 {
		t.Fatalf("objects = %v, want placeholder empty slice", record.Features.Objects)
	}
	if record.Features.Logos.Present || record.Features.Logos.AreaPct != 0 {
		t.Fatalf("logos = %+v, want placeholder", record.Features.Logos)
	}
}

type panickingEngine struct{}

func (panickingEngine) Recognize(context.Context, *frame.Frame) (ocr.FrameResult, error) {
	panic("recognizer crashed")
}

func (panickingEngine) Available() bool { return true }

func TestExtractSurvivesOCRPanic(t *testing.T) {
	cfg := testConfig(t)
	cfg.OCR.Enabled = true
	a := New(cfg, logging.NewNop(), panickingEngine{}, objects.NewNoop())

	record, err := a.Extract(context.Background(), encodePNG(t, 64, 64), "image/png", "banner.png")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if record.Features.OCR.CoveragePct != 0 || record.Features.OCR.Text != "" {
		t.Fatalf("ocr = %+v, want placeholder after panic", record.Features.OCR)
	}
}

func TestExtractRejectsUnsupportedType(t *testing.T) {
	cfg := testConfig(t)
	a := New(cfg, logging.NewNop(), ocr.NoopEngine{}, objects.NewNoop())
	_, err := a.Extract(context.Background(), []byte("GIF89a..."), "image/gif", "banner.gif")
	if err == nil {
		t.Fatal("expected rejection")
	}
}

func grayFrame(t *testing.T, shade uint8) *frame.Frame {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			img.Set(x, y, color.RGBA{R: shade, G: shade, B: shade, A: 255})
		}
	}
	fr, err := frame.FromImage(img, frame.MaxAnalysisDim)
	if err != nil {
		t.Fatalf("FromImage: %v", err)
	}
	return fr
}

func TestComputeMotionStaticClip(t *testing.T) {
	frames := []*frame.Frame{grayFrame(t, 100), grayFrame(t, 100), grayFrame(t, 100)}
	motion := computeMotion(frames)
	if motion.Intensity != 0 || motion.Cuts != 0 {
		t.Fatalf("motion = %+v, want zero for static clip", motion)
	}
}

func TestComputeMotionDetectsCut(t *testing.T) {
	frames := make([]*frame.Frame, 0, 11)
	for i := 0; i < 10; i++ {
		frames = append(frames, grayFrame(t, 100))
	}
	frames = append(frames, grayFrame(t, 220)) // hard cut at the end
	motion := computeMotion(frames)
	if motion.Intensity <= 0 {
		t.Fatalf("intensity = %v, want > 0", motion.Intensity)
	}
	if motion.Cuts != 1 {
		t.Fatalf("cuts = %d, want 1", motion.Cuts)
	}
}

func TestComputeMotionTooFewFrames(t *testing.T) {
	if m := computeMotion([]*frame.Frame{grayFrame(t, 50)}); m.Intensity != 0 || m.Cuts != 0 {
		t.Fatalf("motion = %+v, want zero", m)
	}
}

func TestCutsPerMinute(t *testing.T) {
	if got := cutsPerMinute(3, 30); got != 6 {
		t.Fatalf("cuts/min = %v, want 6", got)
	}
	if got := cutsPerMinute(3, 0); got != 0 {
		t.Fatalf("unknown duration cuts/min = %v, want 0", got)
	}
	if got := cutsPerMinute(0, 60); got != 0 {
		t.Fatalf("zero cuts/min = %v, want 0", got)
	}
}
