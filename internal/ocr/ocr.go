// Package ocr recognizes text in frames through an external tesseract binary
// and aggregates the results into the coverage and text fields of a feature
// record.
package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"

	"adscope/internal/config"
	"adscope/internal/fileutil"
	"adscope/internal/frame"
	"adscope/internal/logging"
	"adscope/internal/textutil"
)

// Word is one recognized token with its bounding box in frame coordinates.
type Word struct {
	Text       string
	Confidence float64
	Left       int
	Top        int
	Width      int
	Height     int
}

// FrameResult is the recognition outcome for a single frame.
type FrameResult struct {
	Words []Word
	// CoveragePct is the confident word-box area as a percentage of the
	// frame area, clamped to [0, 100].
	CoveragePct float64
	// Text is the normalized concatenation of confident words.
	Text string
}

// Engine recognizes text in one frame.
type Engine interface {
	Recognize(ctx context.Context, fr *frame.Frame) (FrameResult, error)
	Available() bool
}

// NoopEngine is used when OCR is disabled or tesseract is missing.
type NoopEngine struct{}

func (NoopEngine) Recognize(context.Context, *frame.Frame) (FrameResult, error) {
	return FrameResult{}, nil
}

func (NoopEngine) Available() bool { return false }

// TesseractEngine shells out to tesseract for each frame and parses its TSV
// output.
type TesseractEngine struct {
	binary        string
	dataDir       string
	minConfidence float64
	logger        *slog.Logger
}

// NewTesseract constructs a tesseract-backed engine from the configuration.
func NewTesseract(cfg *config.Config, logger *slog.Logger) *TesseractEngine {
	return &TesseractEngine{
		binary:        cfg.Tools.Tesseract,
		dataDir:       cfg.Paths.DataDir,
		minConfidence: cfg.OCR.MinWordConfidence,
		logger:        logging.NewComponentLogger(logger, "ocr"),
	}
}

func (e *TesseractEngine) Available() bool { return true }

// Recognize renders the frame to a temp PNG and runs tesseract in TSV mode.
func (e *TesseractEngine) Recognize(ctx context.Context, fr *frame.Frame) (FrameResult, error) {
	if fr == nil || fr.Img == nil {
		return FrameResult{}, fmt.Errorf("ocr: frame carries no image")
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, fr.Img); err != nil {
		return FrameResult{}, fmt.Errorf("ocr: encode frame: %w", err)
	}
	path, err := fileutil.WriteTemp(e.dataDir, "adscope-ocr-*.png", buf.Bytes())
	if err != nil {
		return FrameResult{}, fmt.Errorf("ocr: stage frame: %w", err)
	}
	defer fileutil.RemoveQuiet(path)

	cmd := exec.CommandContext(ctx, e.binary, path, "stdout", "tsv")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return FrameResult{}, fmt.Errorf("ocr: tesseract: %w (stderr: %s)", err, strings.TrimSpace(stderr.String()))
	}

	words := parseTSV(stdout.String(), e.minConfidence)
	return buildResult(words, fr.Width, fr.Height), nil
}

// parseTSV extracts confident word rows from tesseract TSV output. Columns:
// level page block par line word left top width height conf text.
func parseTSV(output string, minConfidence float64) []Word {
	var words []Word
	for i, line := range strings.Split(output, "\n") {
		if i == 0 {
			continue // header
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 12 {
			continue
		}
		level, err := strconv.Atoi(fields[0])
		if err != nil || level != 5 {
			continue // only word-level rows
		}
		conf, err := strconv.ParseFloat(fields[10], 64)
		if err != nil || conf < minConfidence {
			continue
		}
		text := strings.TrimSpace(fields[11])
		if text == "" {
			continue
		}
		left, _ := strconv.Atoi(fields[6])
		top, _ := strconv.Atoi(fields[7])
		width, _ := strconv.Atoi(fields[8])
		height, _ := strconv.Atoi(fields[9])
		if width <= 0 || height <= 0 {
			continue
		}
		words = append(words, Word{
			Text:       text,
			Confidence: conf,
			Left:       left,
			Top:        top,
			Width:      width,
			Height:     height,
		})
	}
	return words
}

func buildResult(words []Word, frameWidth, frameHeight int) FrameResult {
	if len(words) == 0 {
		return FrameResult{}
	}
	area := float64(frameWidth * frameHeight)
	var boxArea float64
	tokens := make([]string, 0, len(words))
	for _, w := range words {
		boxArea += float64(w.Width * w.Height)
		tokens = append(tokens, w.Text)
	}
	coverage := 0.0
	if area > 0 {
		coverage = boxArea / area * 100.0
		if coverage > 100 {
			coverage = 100
		}
	}
	text := textutil.NormalizeRecognizedText(strings.Join(tokens, " "))
	if textutil.IsTrivial(text) {
		text = ""
	}
	return FrameResult{Words: words, CoveragePct: coverage, Text: text}
}

// Summary aggregates frame results into the record-level OCR fields: mean
// coverage across frames and the newline-joined distinct frame texts.
type Summary struct {
	CoveragePct float64
	Text        string
}

// Aggregate combines per-frame results. For a single frame (images) the
// coverage is that frame's coverage; for many frames it is the mean.
func Aggregate(results []FrameResult) Summary {
	if len(results) == 0 {
		return Summary{}
	}
	var sum float64
	texts := make([]string, 0, len(results))
	for _, r := range results {
		sum += r.CoveragePct
		texts = append(texts, r.Text)
	}
	return Summary{
		CoveragePct: sum / float64(len(results)),
		Text:        textutil.JoinFrames(texts),
	}
}

// RecognizeAll runs the engine over every frame, skipping frames that fail.
func RecognizeAll(ctx context.Context, engine Engine, frames []*frame.Frame, logger *slog.Logger) []FrameResult {
	results := make([]FrameResult, 0, len(frames))
	for _, fr := range frames {
		if err := ctx.Err(); err != nil {
			break
		}
		res, err := engine.Recognize(ctx, fr)
		if err != nil {
			if logger != nil {
				logger.Warn("ocr frame failed", logging.Error(err))
			}
			continue
		}
		results = append(results, res)
	}
	return results
}
