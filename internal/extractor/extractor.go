// Package extractor assembles feature records. It fans the decoded frames out
// to the four feature groups, applies the partial-failure policy, and stamps
// the result with the content-derived ad id and schema version.
package extractor

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sync"

	"adscope/internal/api"
	"adscope/internal/config"
	"adscope/internal/features/color"
	"adscope/internal/features/layout"
	"adscope/internal/features/objects"
	"adscope/internal/frame"
	"adscope/internal/logging"
	"adscope/internal/media/ingest"
	"adscope/internal/media/sample"
	"adscope/internal/ocr"
	"adscope/internal/services"
)

// adIDLength is the number of hex digits kept from the content hash.
const adIDLength = 16

// Assembler turns raw upload bytes into a FeatureRecord.
type Assembler struct {
	cfg      *config.Config
	logger   *slog.Logger
	ingestor *ingest.Ingestor
	sampler  *sample.Sampler
	engine   ocr.Engine
	detector objects.Detector
}

// New wires an Assembler. The OCR engine and detector are injected so the
// daemon can select implementations from configuration and tool availability.
func New(cfg *config.Config, logger *slog.Logger, engine ocr.Engine, detector objects.Detector) *Assembler {
	return &Assembler{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "extractor"),
		ingestor: ingest.New(cfg, logger),
		sampler:  sample.New(cfg, logger),
		engine:   engine,
		detector: detector,
	}
}

// AdID derives the stable record identifier from the raw upload bytes.
func AdID(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])[:adIDLength]
}

// Extract decodes the upload and computes its feature record. The processing
// budget from configuration bounds the whole call.
func (a *Assembler) Extract(ctx context.Context, data []byte, contentType, filename string) (*api.FeatureRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, a.cfg.Limits.ProcessingTimeout())
	defer cancel()

	adID := AdID(data)
	ctx = services.WithAdID(ctx, adID)

	media, cleanup, err := a.ingestor.Ingest(ctx, data, contentType, filename)
	if err != nil {
		return nil, err
	}
	defer cleanup()
	ctx = services.WithModality(ctx, string(media.Descriptor.Modality))

	var (
		analysisFrames []*frame.Frame
		videoBlock     *api.VideoFeatures
	)
	if media.IsVideo() {
		plan := sample.AnalysisPlan(
			media.FrameCount, media.SourceFPS, media.DurationSeconds,
			a.cfg.Sampling.MaxAnalysisFrames, a.cfg.Sampling.FallbackFrames)
		sampled, err := a.sampler.Extract(ctx, media.VideoPath, plan)
		if err != nil {
			return nil, err
		}
		analysisFrames = make([]*frame.Frame, 0, len(sampled))
		for _, s := range sampled {
			analysisFrames = append(analysisFrames, s.Frame)
		}
		motion := computeMotion(analysisFrames)
		videoBlock = &api.VideoFeatures{
			SampledFrames:   len(analysisFrames),
			MotionIntensity: motion.Intensity,
			CutsPerMin:      cutsPerMinute(motion.Cuts, media.DurationSeconds),
		}
	} else {
		analysisFrames = []*frame.Frame{media.Frame}
	}

	record := &api.FeatureRecord{
		AdID: adID,
		Media: api.MediaInfo{
			Modality:   string(media.Descriptor.Modality),
			Width:      media.Descriptor.Width,
			Height:     media.Descriptor.Height,
			DurationMS: media.Descriptor.DurationMS,
			FPS:        media.Descriptor.FPS,
		},
		Version: api.Version,
	}
	record.Features.Video = videoBlock

	if err := a.runFeatureGroups(ctx, media, analysisFrames, record); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, services.Wrap(services.ErrTimeout, "extractor", "assemble record", "", err)
	}
	return record, nil
}

// runFeatureGroups executes the four feature groups concurrently over the
// representative frame (color, layout) and the full frame set (ocr, objects).
// Color and layout failures abort the request; ocr and object faults fall
// back to their placeholders.
func (a *Assembler) runFeatureGroups(ctx context.Context, media *ingest.Media, frames []*frame.Frame, record *api.FeatureRecord) error {
	representative := frames[0]

	var (
		wg       sync.WaitGroup
		colorErr error
	)

	wg.Add(4)
	go func() {
		defer wg.Done()
		defer recoverGroup(a.logger, "color", &colorErr)
		stats := color.Compute(representative)
		palette, err := color.Palette(representative)
		if err != nil {
			colorErr = err
			return
		}
		record.Features.Color = api.ColorFeatures{
			Colorfulness: color.Colorfulness(representative),
			MeanBGR:      stats.MeanBGR,
			StdBGR:       stats.StdBGR,
			PaletteHex:   palette,
		}
	}()
	go func() {
		defer wg.Done()
		record.Features.Layout = api.LayoutFeatures{
			AspectRatio:     layout.AspectRatio(media.Descriptor.Width, media.Descriptor.Height),
			WhitespaceRatio: layout.WhitespaceRatio(representative),
		}
	}()
	go func() {
		defer wg.Done()
		record.Features.OCR = a.recognizeText(ctx, media, frames)
	}()
	go func() {
		defer wg.Done()
		record.Features.Objects, record.Features.Logos = a.detectObjects(ctx, frames)
	}()
	wg.Wait()

	if colorErr != nil {
		return services.Wrap(services.ErrFeatureFault, "extractor", "color analysis", "", colorErr)
	}
	return nil
}

// recognizeText runs the OCR group. Any fault degrades to the placeholder
// result instead of failing the request.
func (a *Assembler) recognizeText(ctx context.Context, media *ingest.Media, frames []*frame.Frame) (result api.OCRResult) {
	placeholder := api.OCRResult{CoveragePct: 0, Text: ""}
	if !a.engine.Available() {
		return placeholder
	}
	defer func() {
		if r := recover(); r != nil {
			a.logger.Warn("ocr group panicked", logging.Any("panic", r))
			result = placeholder
		}
	}()

	ocrFrames := frames
	if media.IsVideo() {
		plan := sample.OCRPlan(
			media.FrameCount, media.SourceFPS, media.DurationSeconds,
			a.cfg.Sampling.TargetFPS, a.cfg.Sampling.MaxOCRFrames, a.cfg.Sampling.FallbackFrames)
		sampled, err := a.sampler.Extract(ctx, media.VideoPath, plan)
		if err != nil {
			a.logger.Warn("ocr frame sampling failed", logging.Error(err))
			return placeholder
		}
		ocrFrames = make([]*frame.Frame, 0, len(sampled))
		for _, s := range sampled {
			ocrFrames = append(ocrFrames, s.Frame)
		}
	}

	results := ocr.RecognizeAll(ctx, a.engine, ocrFrames, a.logger)
	summary := ocr.Aggregate(results)
	return api.OCRResult{CoveragePct: summary.CoveragePct, Text: summary.Text}
}

// detectObjects runs the object/logo group with the same degradation policy
// as OCR.
func (a *Assembler) detectObjects(ctx context.Context, frames []*frame.Frame) (detections []objects.Detection, logos objects.LogoSummary) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Warn("object group panicked", logging.Any("panic", r))
			detections = []objects.Detection{}
			logos = objects.LogoSummary{}
		}
	}()
	found, summary, err := a.detector.Detect(ctx, frames)
	if err != nil {
		a.logger.Warn("object detection failed", logging.Error(err))
		return []objects.Detection{}, objects.LogoSummary{}
	}
	if found == nil {
		found = []objects.Detection{}
	}
	return found, summary
}

func recoverGroup(logger *slog.Logger, group string, errOut *error) {
	if r := recover(); r != nil {
		logger.Error("feature group panicked",
			logging.String("group", group),
			logging.Any("panic", r))
		if *errOut == nil {
			*errOut = fmt.Errorf("%s group panicked: %v", group, r)
		}
	}
}
