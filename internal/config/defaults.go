package config

const (
	defaultDataDir                  = "~/.local/share/adscope"
	defaultLogDir                   = "~/.local/share/adscope/logs"
	defaultAPIBind                  = "127.0.0.1:8011"
	defaultMaxUploadBytes           = 64 << 20
	defaultProcessingTimeoutSeconds = 60
	defaultTargetFPS                = 10
	defaultMaxAnalysisFrames        = 40
	defaultMaxOCRFrames             = 60
	defaultFallbackFrames           = 5
	defaultSamplingWorkers          = 4
	defaultMinWordConfidence        = 40.0
	defaultFFprobeBinary            = "ffprobe"
	defaultFFmpegBinary             = "ffmpeg"
	defaultTesseractBinary          = "tesseract"
	defaultRecordsPath              = "~/.local/share/adscope/records.db"
	defaultLogFormat                = "console"
	defaultLogLevel                 = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		Limits: Limits{
			MaxUploadBytes:           defaultMaxUploadBytes,
			ProcessingTimeoutSeconds: defaultProcessingTimeoutSeconds,
		},
		Sampling: Sampling{
			TargetFPS:         defaultTargetFPS,
			MaxAnalysisFrames: defaultMaxAnalysisFrames,
			MaxOCRFrames:      defaultMaxOCRFrames,
			FallbackFrames:    defaultFallbackFrames,
			Workers:           defaultSamplingWorkers,
		},
		OCR: OCR{
			Enabled:           false,
			MinWordConfidence: defaultMinWordConfidence,
		},
		Tools: Tools{
			FFprobe:   defaultFFprobeBinary,
			FFmpeg:    defaultFFmpegBinary,
			Tesseract: defaultTesseractBinary,
		},
		Records: Records{
			Enabled: false,
			Path:    defaultRecordsPath,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
