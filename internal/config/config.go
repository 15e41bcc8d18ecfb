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

// API contains connection settings for the synthetic data service.
type API struct {
	BaseURL        string  `toml:"base_url"`
	StaticURL      string  `toml:"static_url"`
	Token          string  `toml:"token"`
	UserAgent      string  `toml:"user_agent"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
	RateLimit      float64 `toml:"rate_limit"`
	RateBurst      int     `toml:"rate_burst"`
}

// Workflow contains polling intervals for long-running remote jobs.
type Workflow struct {
	PollIntervalSeconds       int `toml:"poll_interval_seconds"`
	SamplePollIntervalSeconds int `toml:"sample_poll_interval_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Export contains credentials for writing samples to S3-compatible storage.
type Export struct {
	S3Endpoint  string `toml:"s3_endpoint"`
	S3Region    string `toml:"s3_region"`
	S3AccessKey string `toml:"s3_access_key"`
	S3SecretKey string `toml:"s3_secret_key"`
	S3UseSSL    bool   `toml:"s3_use_ssl"`
}

// Config encapsulates all configuration values for the synthkit CLI.
//
// Configuration sections by subsystem:
//   - API: service endpoint, token, and request shaping
//   - Workflow: training and sampling poll intervals
//   - Logging: log format and level
//   - Export: S3-compatible sink for downloaded samples
type Config struct {
	API      API      `toml:"api"`
	Workflow Workflow `toml:"workflow"`
	Logging  Logging  `toml:"logging"`
	Export   Export   `toml:"export"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. A missing file is not an
// error: defaults and environment fallbacks are used instead.
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

	cfg.normalize()

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

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("synthkit.toml")
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

// Timeout returns the per-request HTTP timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.API.TimeoutSeconds) * time.Second
}

// PollInterval returns the interval between training status reads.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Workflow.PollIntervalSeconds) * time.Second
}

// SamplePollInterval returns the interval between sample history reads.
func (c *Config) SamplePollInterval() time.Duration {
	return time.Duration(c.Workflow.SamplePollIntervalSeconds) * time.Second
}

// S3Enabled reports whether enough export settings exist to reach a bucket.
func (c *Config) S3Enabled() bool {
	return c.Export.S3Endpoint != "" && c.Export.S3AccessKey != "" && c.Export.S3SecretKey != ""
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

	if err := os.WriteFile(path, []byte(sampleConfig), 0o600); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
