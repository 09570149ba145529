// Package ingest validates uploaded media, classifies its modality, and
// decodes it into the form the feature pipeline consumes: a raster frame for
// images, a staged container file plus metadata for videos.
package ingest

import (
	"bytes"
	"context"
	"image"
	"log/slog"
	"math"
	"path/filepath"
	"strings"

	// Allow-listed still-image formats. GIF is deliberately absent.
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"adscope/internal/config"
	"adscope/internal/fileutil"
	"adscope/internal/frame"
	"adscope/internal/logging"
	"adscope/internal/media/probe"
	"adscope/internal/services"
)

// Modality distinguishes still images from videos.
type Modality string

const (
	ModalityImage Modality = "image"
	ModalityVideo Modality = "video"
)

// imageTypes and videoTypes form the fixed allow-list of declared content
// types. Everything else is rejected before any decoding happens.
var imageTypes = map[string]struct{}{
	"image/png":  {},
	"image/jpeg": {},
	"image/jpg":  {},
	"image/webp": {},
	"image/bmp":  {},
}

var videoTypes = map[string]struct{}{
	"video/mp4": {},
}

var imageExtensions = map[string]struct{}{
	".png":  {},
	".jpg":  {},
	".jpeg": {},
	".webp": {},
	".bmp":  {},
}

var videoExtensions = map[string]struct{}{
	".mp4": {},
}

// Descriptor captures the immutable media metadata computed from the decoded
// input.
type Descriptor struct {
	Modality Modality
	Width    int
	Height   int
	// DurationMS is populated only when both total frame count and fps are
	// known with confidence; nil otherwise.
	DurationMS *int64
	// FPS is the nominal source frame rate, nil when unknown.
	FPS *float64
}

// Media is the decoded form of an upload handed to the feature pipeline.
type Media struct {
	Descriptor Descriptor

	// Frame is the decoded raster for image uploads; nil for videos.
	Frame *frame.Frame

	// VideoPath is the staged container file for video uploads; empty for
	// images. FrameCount, SourceFPS, and DurationSeconds mirror the probe
	// results (zero when unknown).
	VideoPath       string
	FrameCount      int64
	SourceFPS       float64
	DurationSeconds float64
}

// IsVideo reports whether the upload decoded as video.
func (m *Media) IsVideo() bool {
	return m.Descriptor.Modality == ModalityVideo
}

// Ingestor decodes uploads into Media.
type Ingestor struct {
	cfg    *config.Config
	logger *slog.Logger
}

// New constructs an Ingestor.
func New(cfg *config.Config, logger *slog.Logger) *Ingestor {
	return &Ingestor{cfg: cfg, logger: logging.NewComponentLogger(logger, "ingest")}
}

// Ingest classifies and decodes the upload. The returned cleanup func releases
// any staged temp file and is always safe to call.
func (ing *Ingestor) Ingest(ctx context.Context, data []byte, contentType, filename string) (*Media, func(), error) {
	noop := func() {}
	if len(data) == 0 {
		return nil, noop, services.Wrap(services.ErrValidation, "ingest", "read upload", "empty payload", nil)
	}

	modality, ok := classify(contentType, filename, data)
	if !ok {
		detail := strings.TrimSpace(contentType)
		if detail == "" {
			detail = filepath.Ext(filename)
		}
		return nil, noop, services.Wrap(services.ErrUnsupportedMedia, "ingest", "classify", detail, nil)
	}

	switch modality {
	case ModalityImage:
		media, err := ing.ingestImage(data)
		return media, noop, err
	default:
		return ing.ingestVideo(ctx, data, filename)
	}
}

func (ing *Ingestor) ingestImage(data []byte) (*Media, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, services.Wrap(services.ErrDecode, "ingest", "decode image", "", err)
	}
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width <= 0 || height <= 0 {
		return nil, services.Wrap(services.ErrDecode, "ingest", "decode image", "degenerate dimensions", nil)
	}

	fr, err := frame.FromImage(img, frame.MaxAnalysisDim)
	if err != nil {
		return nil, services.Wrap(services.ErrDecode, "ingest", "build frame", "", err)
	}

	ing.logger.Debug("decoded image",
		logging.String("format", format),
		logging.Int("width", width),
		logging.Int("height", height))

	return &Media{
		Descriptor: Descriptor{
			Modality: ModalityImage,
			Width:    width,
			Height:   height,
		},
		Frame: fr,
	}, nil
}

func (ing *Ingestor) ingestVideo(ctx context.Context, data []byte, filename string) (*Media, func(), error) {
	noop := func() {}
	pattern := fileutil.TempPattern("adscope-", filename, ".mp4")
	path, err := fileutil.WriteTemp(ing.cfg.Paths.DataDir, pattern, data)
	if err != nil {
		return nil, noop, services.Wrap(services.ErrDecode, "ingest", "stage video", "", err)
	}
	cleanup := func() { fileutil.RemoveQuiet(path) }

	result, err := probe.Inspect(ctx, ing.cfg.Tools.FFprobe, path)
	if err != nil {
		cleanup()
		return nil, noop, services.Wrap(services.ErrDecode, "ingest", "probe video", "", err)
	}
	stream, ok := result.VideoStream()
	if !ok {
		cleanup()
		return nil, noop, services.Wrap(services.ErrDecode, "ingest", "probe video", "no video stream", nil)
	}
	if stream.Width <= 0 || stream.Height <= 0 {
		cleanup()
		return nil, noop, services.Wrap(services.ErrDecode, "ingest", "probe video", "degenerate dimensions", nil)
	}

	fps := stream.FPS()
	frameCount := stream.FrameCount()
	descriptor := Descriptor{
		Modality: ModalityVideo,
		Width:    stream.Width,
		Height:   stream.Height,
	}
	if fps > 0 {
		rounded := math.Round(fps*10000) / 10000
		descriptor.FPS = &rounded
	}
	// Duration is reported only when both frame count and fps are trustworthy;
	// it is never synthesized from one alone.
	if frameCount > 0 && fps > 0 {
		durationMS := int64(math.Round(float64(frameCount) / fps * 1000.0))
		descriptor.DurationMS = &durationMS
	}

	ing.logger.Debug("probed video",
		logging.Int("width", stream.Width),
		logging.Int("height", stream.Height),
		logging.Float64("fps", fps),
		logging.Int64("frames", frameCount))

	return &Media{
		Descriptor:      descriptor,
		VideoPath:       path,
		FrameCount:      frameCount,
		SourceFPS:       fps,
		DurationSeconds: result.DurationSeconds(),
	}, cleanup, nil
}

// classify resolves the modality from the declared content type, falling back
// to the filename extension, then to the byte signature.
func classify(contentType, filename string, data []byte) (Modality, bool) {
	declared := strings.ToLower(strings.TrimSpace(contentType))
	if mime, _, ok := strings.Cut(declared, ";"); ok {
		declared = strings.TrimSpace(mime)
	}
	if _, ok := imageTypes[declared]; ok {
		return ModalityImage, true
	}
	if _, ok := videoTypes[declared]; ok {
		return ModalityVideo, true
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := imageExtensions[ext]; ok {
		return ModalityImage, true
	}
	if _, ok := videoExtensions[ext]; ok {
		return ModalityVideo, true
	}

	return sniff(data)
}

// sniff inspects magic bytes as a last resort for uploads with no usable
// declared type.
func sniff(data []byte) (Modality, bool) {
	switch {
	case len(data) >= 8 && bytes.Equal(data[:8], []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}):
		return ModalityImage, true
	case len(data) >= 3 && bytes.Equal(data[:3], []byte{0xff, 0xd8, 0xff}):
		return ModalityImage, true
	case len(data) >= 12 && bytes.Equal(data[:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP")):
		return ModalityImage, true
	case len(data) >= 2 && data[0] == 'B' && data[1] == 'M':
		return ModalityImage, true
	case len(data) >= 12 && bytes.Equal(data[4:8], []byte("ftyp")):
		return ModalityVideo, true
	default:
		return "", false
	}
}
