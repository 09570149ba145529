package config

import (
	"strconv"
	"strings"
)

func (c *Config) normalize() error {
	var err error
	if c.Paths.DataDir, err = expandPath(strings.TrimSpace(c.Paths.DataDir)); err != nil {
		return err
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return err
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)

	if c.Records.Path, err = expandPath(strings.TrimSpace(c.Records.Path)); err != nil {
		return err
	}

	c.Tools.FFprobe = strings.TrimSpace(c.Tools.FFprobe)
	c.Tools.FFmpeg = strings.TrimSpace(c.Tools.FFmpeg)
	c.Tools.Tesseract = strings.TrimSpace(c.Tools.Tesseract)
	if c.Tools.FFprobe == "" {
		c.Tools.FFprobe = defaultFFprobeBinary
	}
	if c.Tools.FFmpeg == "" {
		c.Tools.FFmpeg = defaultFFmpegBinary
	}
	if c.Tools.Tesseract == "" {
		c.Tools.Tesseract = defaultTesseractBinary
	}

	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	return nil
}

// applyEnvOverrides layers the recognized environment options over whatever the
// config file provided. getenv is injectable for tests.
func (c *Config) applyEnvOverrides(getenv func(string) string) {
	if value := strings.TrimSpace(getenv("ENABLE_OCR")); value != "" {
		c.OCR.Enabled = parseBool(value)
	}
	if value := strings.TrimSpace(getenv("VIDEO_OCR_FPS")); value != "" {
		if fps, err := strconv.Atoi(value); err == nil && fps > 0 {
			c.Sampling.TargetFPS = fps
		}
	}
	if value := strings.TrimSpace(getenv("LOG_LEVEL")); value != "" {
		c.Logging.Level = strings.ToLower(value)
	}
	if value := strings.TrimSpace(getenv("TESSERACT_CMD")); value != "" {
		c.Tools.Tesseract = value
	}
}

func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
