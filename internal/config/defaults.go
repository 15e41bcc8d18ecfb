package config

const (
	defaultConfigPath                = "~/.config/synthkit/config.toml"
	defaultBaseURL                   = "https://fabric.dev.aws.ydata.ai/api"
	defaultTimeoutSeconds            = 30
	defaultRateLimit                 = 10.0
	defaultRateBurst                 = 5
	defaultPollIntervalSeconds       = 10
	defaultSamplePollIntervalSeconds = 10
	defaultLogFormat                 = "console"
	defaultLogLevel                  = "warn"
	defaultS3Region                  = "us-east-1"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		API: API{
			BaseURL:        defaultBaseURL,
			TimeoutSeconds: defaultTimeoutSeconds,
			RateLimit:      defaultRateLimit,
			RateBurst:      defaultRateBurst,
		},
		Workflow: Workflow{
			PollIntervalSeconds:       defaultPollIntervalSeconds,
			SamplePollIntervalSeconds: defaultSamplePollIntervalSeconds,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Export: Export{
			S3Region: defaultS3Region,
			S3UseSSL: true,
		},
	}
}
