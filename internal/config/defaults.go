package config

const (
	defaultConfigPath            = "~/.config/tubescribe/config.toml"
	projectConfigName            = "tubescribe.toml"
	defaultOutputDir             = "."
	defaultModelCacheDirName     = "model-cache"
	defaultHistoryRelPath        = ".tubescribe/history.db"
	defaultModel                 = "tiny"
	defaultChunkDurationSeconds  = 3600
	defaultChunkThresholdSeconds = 7200
	defaultAudioFormat           = "mp3"
	defaultYTDLPBinary           = "yt-dlp"
	defaultFFmpegBinary          = "ffmpeg"
	defaultFFprobeBinary         = "ffprobe"
	defaultEngineBinary          = "uvx"
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
)

// ValidModels lists the model sizes the transcription engine accepts.
var ValidModels = []string{"tiny", "base", "small", "medium", "large", "large-v2", "large-v3"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir: defaultOutputDir,
		},
		Download: Download{
			Enabled:     true,
			YTDLPBinary: defaultYTDLPBinary,
			AudioFormat: defaultAudioFormat,
		},
		Transcription: Transcription{
			Enabled:               true,
			Model:                 defaultModel,
			ChunkDurationSeconds:  defaultChunkDurationSeconds,
			ChunkThresholdSeconds: defaultChunkThresholdSeconds,
			EngineBinary:          defaultEngineBinary,
			FFmpegBinary:          defaultFFmpegBinary,
			FFprobeBinary:         defaultFFprobeBinary,
		},
		History: History{
			Enabled: true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
