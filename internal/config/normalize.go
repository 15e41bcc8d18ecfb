package config

import (
	"os"
	"strings"
)

func (c *Config) normalize() {
	c.normalizeAPI()
	c.normalizeWorkflow()
	c.normalizeLogging()
	c.normalizeExport()
}

// envOverride returns the trimmed value of the first non-empty environment variable.
func envOverride(current string, keys ...string) string {
	for _, key := range keys {
		if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value)
		}
	}
	return strings.TrimSpace(current)
}

func (c *Config) normalizeAPI() {
	c.API.BaseURL = strings.TrimRight(envOverride(c.API.BaseURL, "SYNTHKIT_URL"), "/")
	if c.API.BaseURL == "" {
		c.API.BaseURL = defaultBaseURL
	}
	c.API.StaticURL = strings.TrimRight(strings.TrimSpace(c.API.StaticURL), "/")
	if c.API.StaticURL == "" {
		c.API.StaticURL = c.API.BaseURL
	}
	c.API.Token = envOverride(c.API.Token, "SYNTHKIT_TOKEN", "YDATA_TOKEN")
	c.API.UserAgent = strings.TrimSpace(c.API.UserAgent)
	if c.API.TimeoutSeconds <= 0 {
		c.API.TimeoutSeconds = defaultTimeoutSeconds
	}
	if c.API.RateLimit == 0 {
		c.API.RateLimit = defaultRateLimit
	}
	if c.API.RateBurst <= 0 {
		c.API.RateBurst = defaultRateBurst
	}
}

func (c *Config) normalizeWorkflow() {
	if c.Workflow.PollIntervalSeconds <= 0 {
		c.Workflow.PollIntervalSeconds = defaultPollIntervalSeconds
	}
	if c.Workflow.SamplePollIntervalSeconds <= 0 {
		c.Workflow.SamplePollIntervalSeconds = defaultSamplePollIntervalSeconds
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(envOverride(c.Logging.Level, "SYNTHKIT_LOG_LEVEL", "LOG_LEVEL"))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func (c *Config) normalizeExport() {
	c.Export.S3Endpoint = envOverride(c.Export.S3Endpoint, "SYNTHKIT_S3_ENDPOINT")
	c.Export.S3AccessKey = envOverride(c.Export.S3AccessKey, "SYNTHKIT_S3_ACCESS_KEY", "AWS_ACCESS_KEY_ID")
	c.Export.S3SecretKey = envOverride(c.Export.S3SecretKey, "SYNTHKIT_S3_SECRET_KEY", "AWS_SECRET_ACCESS_KEY")
	c.Export.S3Region = strings.TrimSpace(c.Export.S3Region)
	if c.Export.S3Region == "" {
		c.Export.S3Region = defaultS3Region
	}
	// An explicit scheme decides TLS; minio expects a bare host:port.
	lower := strings.ToLower(c.Export.S3Endpoint)
	switch {
	case strings.HasPrefix(lower, "http://"):
		c.Export.S3UseSSL = false
		c.Export.S3Endpoint = c.Export.S3Endpoint[len("http://"):]
	case strings.HasPrefix(lower, "https://"):
		c.Export.S3UseSSL = true
		c.Export.S3Endpoint = c.Export.S3Endpoint[len("https://"):]
	}
	c.Export.S3Endpoint = strings.TrimRight(c.Export.S3Endpoint, "/")
}
