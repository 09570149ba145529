package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateLimits(); err != nil {
		return err
	}
	if err := c.validateSampling(); err != nil {
		return err
	}
	if err := c.validateOCR(); err != nil {
		return err
	}
	if err := c.validateRecords(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.DataDir == "" {
		return errors.New("paths.data_dir must be set")
	}
	if c.Paths.LogDir == "" {
		return errors.New("paths.log_dir must be set")
	}
	if c.Paths.APIBind == "" {
		return errors.New("paths.api_bind must be set")
	}
	return nil
}

func (c *Config) validateLimits() error {
	if c.Limits.MaxUploadBytes <= 0 {
		return errors.New("limits.max_upload_bytes must be positive")
	}
	if c.Limits.ProcessingTimeoutSeconds <= 0 {
		return errors.New("limits.processing_timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateSampling() error {
	if err := ensurePositiveMap(map[string]int{
		"sampling.target_fps":          c.Sampling.TargetFPS,
		"sampling.max_analysis_frames": c.Sampling.MaxAnalysisFrames,
		"sampling.max_ocr_frames":      c.Sampling.MaxOCRFrames,
		"sampling.fallback_frames":     c.Sampling.FallbackFrames,
		"sampling.workers":             c.Sampling.Workers,
	}); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateOCR() error {
	if c.OCR.MinWordConfidence < 0 || c.OCR.MinWordConfidence > 100 {
		return errors.New("ocr.min_word_confidence must be between 0 and 100")
	}
	return nil
}

func (c *Config) validateRecords() error {
	if !c.Records.Enabled {
		return nil
	}
	if c.Records.Path == "" {
		return errors.New("records.path must be set when records.enabled is true")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
