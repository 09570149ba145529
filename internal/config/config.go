package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
	APIBind string `toml:"api_bind"`
}

// Limits contains per-request processing bounds.
type Limits struct {
	// MaxUploadBytes caps the accepted multipart payload size.
	MaxUploadBytes int64 `toml:"max_upload_bytes"`
	// ProcessingTimeoutSeconds bounds a single extraction; overruns surface
	// as a timeout condition rather than a hung request.
	ProcessingTimeoutSeconds int `toml:"processing_timeout_seconds"`
}

// ProcessingTimeout returns the extraction budget as a duration.
func (l Limits) ProcessingTimeout() time.Duration {
	return time.Duration(l.ProcessingTimeoutSeconds) * time.Second
}

// Sampling contains video frame sampling configuration.
type Sampling struct {
	// TargetFPS is the output sampling rate in frames per second,
	// independent of the source frame rate.
	TargetFPS int `toml:"target_fps"`
	// MaxAnalysisFrames caps samples used for color/layout/motion analysis.
	MaxAnalysisFrames int `toml:"max_analysis_frames"`
	// MaxOCRFrames caps frames submitted to text recognition.
	MaxOCRFrames int `toml:"max_ocr_frames"`
	// FallbackFrames is the fixed sample count used when time metadata is
	// unavailable.
	FallbackFrames int `toml:"fallback_frames"`
	// Workers bounds the concurrent ffmpeg frame extractions.
	Workers int `toml:"workers"`
}

// OCR contains text-recognition configuration.
type OCR struct {
	Enabled bool `toml:"enabled"`
	// MinWordConfidence is the recognizer confidence required before a word
	// contributes to coverage.
	MinWordConfidence float64 `toml:"min_word_confidence"`
}

// Tools contains external binary names or paths.
type Tools struct {
	FFprobe   string `toml:"ffprobe"`
	FFmpeg    string `toml:"ffmpeg"`
	Tesseract string `toml:"tesseract"`
}

// Records contains configuration for the optional feature-record cache.
type Records struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for adscope.
//
// Configuration sections by subsystem:
//   - Paths: data/log directories and API bind address
//   - Limits: upload size cap and per-request processing budget
//   - Sampling: video frame sampling rates and bounds
//   - OCR: optional on-frame text recognition
//   - Tools: external binary names (ffprobe, ffmpeg, tesseract)
//   - Records: opt-in sqlite cache of feature records keyed by ad_id
//   - Logging: log format and level
type Config struct {
	Paths    Paths    `toml:"paths"`
	Limits   Limits   `toml:"limits"`
	Sampling Sampling `toml:"sampling"`
	OCR      OCR      `toml:"ocr"`
	Tools    Tools    `toml:"tools"`
	Records  Records  `toml:"records"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/adscope/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config
// has all path fields expanded, environment overrides applied, and defaults
// filled in.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnvOverrides(os.Getenv)

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("adscope.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if c.Records.Enabled {
		if dir := filepath.Dir(c.Records.Path); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create records directory %q: %w", dir, err)
			}
		}
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
