package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"synthkit/internal/config"
	"synthkit/internal/export"
	"synthkit/internal/logging"
	"synthkit/pkg/connector"
	"synthkit/pkg/datasource"
	"synthkit/pkg/synthesizer"
	"synthkit/pkg/transport"
)

var version = "dev"

type commandContext struct {
	configFlag   *string
	outputFlag   *string
	logLevelFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	clientOnce sync.Once
	transport  *transport.Client
	logger     *slog.Logger
	clientErr  error
}

func newCommandContext(configFlag, outputFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		outputFlag:   outputFlag,
		logLevelFlag: logLevelFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if c.logLevelFlag != nil && strings.TrimSpace(*c.logLevelFlag) != "" {
			cfg.Logging.Level = strings.TrimSpace(*c.logLevelFlag)
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// ensureClient builds the shared transport and logger once per invocation.
func (c *commandContext) ensureClient(cmd *cobra.Command) (*transport.Client, *slog.Logger, error) {
	c.clientOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.clientErr = err
			return
		}
		if err := cfg.RequireToken(); err != nil {
			c.clientErr = err
			return
		}
		logger, err := logging.NewFromConfig(cfg, cmd.ErrOrStderr())
		if err != nil {
			c.clientErr = err
			return
		}
		userAgent := cfg.API.UserAgent
		if userAgent == "" {
			userAgent = "synthkit/" + version
		}
		client, err := transport.New(transport.Config{
			BaseURL:   cfg.API.BaseURL,
			StaticURL: cfg.API.StaticURL,
			Token:     cfg.API.Token,
			UserAgent: userAgent,
			Timeout:   cfg.Timeout(),
			RateLimit: cfg.API.RateLimit,
			RateBurst: cfg.API.RateBurst,
		}, transport.WithLogger(logger))
		if err != nil {
			c.clientErr = fmt.Errorf("create api client: %w", err)
			return
		}
		c.transport = client
		c.logger = logger
	})
	return c.transport, c.logger, c.clientErr
}

func (c *commandContext) connectors(cmd *cobra.Command) (*connector.Client, error) {
	tr, logger, err := c.ensureClient(cmd)
	if err != nil {
		return nil, err
	}
	return connector.New(tr, connector.WithLogger(logger)), nil
}

func (c *commandContext) datasources(cmd *cobra.Command) (*datasource.Client, error) {
	tr, logger, err := c.ensureClient(cmd)
	if err != nil {
		return nil, err
	}
	return datasource.New(tr, datasource.WithLogger(logger)), nil
}

func (c *commandContext) synthesizers(cmd *cobra.Command) (*synthesizer.Client, error) {
	tr, logger, err := c.ensureClient(cmd)
	if err != nil {
		return nil, err
	}
	return synthesizer.New(tr, synthesizer.WithLogger(logger)), nil
}

func (c *commandContext) exportSettings() export.S3Settings {
	cfg, err := c.ensureConfig()
	if err != nil || cfg == nil {
		return export.S3Settings{}
	}
	return export.S3Settings{
		Endpoint:  cfg.Export.S3Endpoint,
		Region:    cfg.Export.S3Region,
		AccessKey: cfg.Export.S3AccessKey,
		SecretKey: cfg.Export.S3SecretKey,
		UseSSL:    cfg.Export.S3UseSSL,
	}
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
