package config

const (
	defaultDataDir             = "~/.local/share/shortfilm/data"
	defaultLogDir              = "~/.local/share/shortfilm/logs"
	defaultOutputDir           = "~/shortfilm"
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
	defaultBackendBaseURL      = "https://dashscope.aliyuncs.com/api/v1"
	defaultChatModel           = "qwen-plus"
	defaultImageModel          = "wanx-v1"
	defaultSpeechModel         = "sambert-zhichu-v1"
	defaultVideoModel          = "wanx-video-v1"
	defaultBackendTimeout      = 120
	defaultPollInterval        = 5
	defaultMaxParallel         = 2
	defaultStageTimeoutSeconds = 900
	defaultRetryAttempts       = 3
	defaultRetryBaseDelay      = 2
	defaultRetryMaxDelay       = 30
	defaultResolution          = "1920x1080"
	defaultOutputFormat        = "mp4"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:   defaultDataDir,
			LogDir:    defaultLogDir,
			OutputDir: defaultOutputDir,
		},
		Backend: Backend{
			BaseURL:             defaultBackendBaseURL,
			ChatModel:           defaultChatModel,
			ImageModel:          defaultImageModel,
			SpeechModel:         defaultSpeechModel,
			VideoModel:          defaultVideoModel,
			TimeoutSeconds:      defaultBackendTimeout,
			PollIntervalSeconds: defaultPollInterval,
		},
		Workflow: Workflow{
			MaxParallel:           defaultMaxParallel,
			StageTimeoutSeconds:   defaultStageTimeoutSeconds,
			RetryAttempts:         defaultRetryAttempts,
			RetryBaseDelaySeconds: defaultRetryBaseDelay,
			RetryMaxDelaySeconds:  defaultRetryMaxDelay,
		},
		Stages: map[string]string{},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Output: Output{
			Resolution: defaultResolution,
			Format:     defaultOutputFormat,
		},
	}
}
