package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"synthkit/internal/config"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"SYNTHKIT_TOKEN", "YDATA_TOKEN", "SYNTHKIT_URL", "SYNTHKIT_LOG_LEVEL", "LOG_LEVEL",
		"SYNTHKIT_S3_ENDPOINT", "SYNTHKIT_S3_ACCESS_KEY", "SYNTHKIT_S3_SECRET_KEY",
		"AWS_ACCESS_KEY_ID", "AWS_SECRET_ACCESS_KEY",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaultConfigUsesEnvToken(t *testing.T) {
	clearEnv(t)
	t.Setenv("SYNTHKIT_TOKEN", "test-token")
	t.Setenv("HOME", t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}
	if cfg.API.Token != "test-token" {
		t.Fatalf("expected token from env, got %q", cfg.API.Token)
	}
	if cfg.API.BaseURL != config.Default().API.BaseURL {
		t.Fatalf("unexpected base url: %q", cfg.API.BaseURL)
	}
	if cfg.API.StaticURL != cfg.API.BaseURL {
		t.Fatalf("expected static url to default to base url, got %q", cfg.API.StaticURL)
	}
	if cfg.PollInterval() != 10*time.Second {
		t.Fatalf("unexpected poll interval: %v", cfg.PollInterval())
	}
	if cfg.Logging.Format != "console" {
		t.Fatalf("unexpected log format: %q", cfg.Logging.Format)
	}
	if cfg.S3Enabled() {
		t.Fatal("expected S3 export disabled by default")
	}
	if err := cfg.RequireToken(); err != nil {
		t.Fatalf("RequireToken: %v", err)
	}
}

func TestLoadCustomPath(t *testing.T) {
	clearEnv(t)
	configPath := filepath.Join(t.TempDir(), "synthkit.toml")

	type payload struct {
		API struct {
			BaseURL string `toml:"base_url"`
			Token   string `toml:"token"`
		} `toml:"api"`
		Workflow struct {
			PollIntervalSeconds int `toml:"poll_interval_seconds"`
		} `toml:"workflow"`
		Logging struct {
			Format string `toml:"format"`
			Level  string `toml:"level"`
		} `toml:"logging"`
	}
	custom := payload{}
	custom.API.BaseURL = "https://example.com/api/"
	custom.API.Token = "file-token"
	custom.Workflow.PollIntervalSeconds = 3
	custom.Logging.Format = "JSON"
	custom.Logging.Level = "Debug"
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.API.BaseURL != "https://example.com/api" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.API.BaseURL)
	}
	if cfg.API.Token != "file-token" {
		t.Fatalf("expected token from file, got %q", cfg.API.Token)
	}
	if cfg.PollInterval() != 3*time.Second {
		t.Fatalf("expected poll interval 3s, got %v", cfg.PollInterval())
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("expected lower-cased logging settings, got %+v", cfg.Logging)
	}
}

func TestEnvVarOverridesConfigFile(t *testing.T) {
	clearEnv(t)
	configPath := filepath.Join(t.TempDir(), "synthkit.toml")
	contents := `
[api]
base_url = "https://file.example.com"
token = "file-token"

[export]
s3_endpoint = "https://minio.local:9000/"
s3_access_key = "file-access"
s3_secret_key = "file-secret"
`
	if err := os.WriteFile(configPath, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("SYNTHKIT_TOKEN", "env-token")
	t.Setenv("SYNTHKIT_URL", "https://env.example.com")
	t.Setenv("SYNTHKIT_S3_SECRET_KEY", "env-secret")

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.API.Token != "env-token" {
		t.Errorf("expected token from env, got %q", cfg.API.Token)
	}
	if cfg.API.BaseURL != "https://env.example.com" {
		t.Errorf("expected base url from env, got %q", cfg.API.BaseURL)
	}
	if cfg.Export.S3SecretKey != "env-secret" {
		t.Errorf("expected S3 secret from env, got %q", cfg.Export.S3SecretKey)
	}
	if cfg.Export.S3AccessKey != "file-access" {
		t.Errorf("expected S3 access key from file, got %q", cfg.Export.S3AccessKey)
	}
	if cfg.Export.S3Endpoint != "minio.local:9000" {
		t.Errorf("expected bare S3 endpoint, got %q", cfg.Export.S3Endpoint)
	}
	if !cfg.S3Enabled() {
		t.Error("expected S3 export to be enabled")
	}
}

func TestS3EndpointSchemeDecidesTLS(t *testing.T) {
	cases := []struct {
		endpoint string
		useSSL   string
		host     string
		wantSSL  bool
	}{
		{endpoint: "http://127.0.0.1:9000", useSSL: "true", host: "127.0.0.1:9000", wantSSL: false},
		{endpoint: "HTTP://127.0.0.1:9000/", useSSL: "true", host: "127.0.0.1:9000", wantSSL: false},
		{endpoint: "https://minio.local", useSSL: "false", host: "minio.local", wantSSL: true},
		{endpoint: "minio.local:9000", useSSL: "false", host: "minio.local:9000", wantSSL: false},
		{endpoint: "minio.local:9000", useSSL: "true", host: "minio.local:9000", wantSSL: true},
	}
	for _, tc := range cases {
		clearEnv(t)
		configPath := filepath.Join(t.TempDir(), "synthkit.toml")
		contents := `
[export]
s3_endpoint = "` + tc.endpoint + `"
s3_access_key = "access"
s3_secret_key = "secret"
s3_use_ssl = ` + tc.useSSL + `
`
		if err := os.WriteFile(configPath, []byte(contents), 0o644); err != nil {
			t.Fatalf("write config: %v", err)
		}
		cfg, _, _, err := config.Load(configPath)
		if err != nil {
			t.Fatalf("Load(%s) returned error: %v", tc.endpoint, err)
		}
		if cfg.Export.S3Endpoint != tc.host {
			t.Errorf("%s: expected endpoint %q, got %q", tc.endpoint, tc.host, cfg.Export.S3Endpoint)
		}
		if cfg.Export.S3UseSSL != tc.wantSSL {
			t.Errorf("%s (s3_use_ssl=%s): expected use_ssl=%v, got %v", tc.endpoint, tc.useSSL, tc.wantSSL, cfg.Export.S3UseSSL)
		}
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(contents), "your_api_token_here") {
		t.Fatalf("sample config missing placeholder token: %s", contents)
	}

	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if cfg.Workflow.PollIntervalSeconds != 10 {
		t.Fatalf("expected sample poll interval 10, got %d", cfg.Workflow.PollIntervalSeconds)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	cfg := config.Default()
	cfg.API.BaseURL = "ftp://example.com"
	cfg.API.StaticURL = "https://example.com"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for non-http base url")
	}

	cfg = config.Default()
	cfg.API.StaticURL = cfg.API.BaseURL
	cfg.Workflow.PollIntervalSeconds = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for poll interval")
	}

	cfg = config.Default()
	cfg.API.StaticURL = cfg.API.BaseURL
	cfg.Logging.Level = "verbose"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown log level")
	}

	cfg = config.Default()
	cfg.API.StaticURL = cfg.API.BaseURL
	cfg.Export.S3Endpoint = "minio:9000"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when S3 endpoint set without credentials")
	}
}

func TestRequireTokenMentionsEnvVar(t *testing.T) {
	cfg := config.Default()
	err := cfg.RequireToken()
	if err == nil {
		t.Fatal("expected error without token")
	}
	if !strings.Contains(err.Error(), "SYNTHKIT_TOKEN") {
		t.Fatalf("expected hint about SYNTHKIT_TOKEN, got %v", err)
	}
}
