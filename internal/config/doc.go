// Package config loads, validates, and normalizes adscope configuration.
//
// Configuration comes from a TOML file (~/.config/adscope/config.toml or a
// project-local adscope.toml), layered with the recognized environment
// overrides (ENABLE_OCR, VIDEO_OCR_FPS, LOG_LEVEL, TESSERACT_CMD). All path
// fields are tilde-expanded and made absolute during load.
package config
