package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateAPI(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateExport(); err != nil {
		return err
	}
	return nil
}

// RequireToken reports a usable error when no API token is configured. Commands that
// never reach the service (config init/validate) skip this check.
func (c *Config) RequireToken() error {
	if strings.TrimSpace(c.API.Token) == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = defaultConfigPath
		}
		return fmt.Errorf("api.token is required. Set SYNTHKIT_TOKEN env var or edit %s (create with 'synthkit config init')", defaultPath)
	}
	return nil
}

func (c *Config) validateAPI() error {
	for key, raw := range map[string]string{
		"api.base_url":   c.API.BaseURL,
		"api.static_url": c.API.StaticURL,
	} {
		parsed, err := url.Parse(raw)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		if parsed.Scheme != "http" && parsed.Scheme != "https" {
			return fmt.Errorf("%s must be an http(s) URL, got %q", key, raw)
		}
	}
	if c.API.TimeoutSeconds <= 0 {
		return errors.New("api.timeout_seconds must be positive")
	}
	if c.API.RateLimit > 0 && c.API.RateBurst <= 0 {
		return errors.New("api.rate_burst must be positive when api.rate_limit is set")
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	return ensurePositiveMap(map[string]int{
		"workflow.poll_interval_seconds":        c.Workflow.PollIntervalSeconds,
		"workflow.sample_poll_interval_seconds": c.Workflow.SamplePollIntervalSeconds,
	})
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
		return nil
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error (got %q)", c.Logging.Level)
	}
}

func (c *Config) validateExport() error {
	if c.Export.S3Endpoint == "" {
		return nil
	}
	if c.Export.S3AccessKey == "" || c.Export.S3SecretKey == "" {
		return errors.New("export.s3_access_key and export.s3_secret_key must be set when export.s3_endpoint is set")
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
