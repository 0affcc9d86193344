package client

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aleph-zero/flutterddl/telemetry"
)

type ApplyConfig struct {
	ClientConfig *Config
	Filename     string
}

type ApplyOption func(*ApplyConfig)

func NewApplyConfig(options ...ApplyOption) *ApplyConfig {
	cfg := &ApplyConfig{}
	for _, option := range options {
		option(cfg)
	}
	return cfg
}

func WithFilename(filename string) ApplyOption {
	return func(cfg *ApplyConfig) {
		cfg.Filename = filename
	}
}

func WithClientConfig(clientConfig *Config) ApplyOption {
	return func(cfg *ApplyConfig) {
		cfg.ClientConfig = clientConfig
	}
}

func BootstrapApply(config *ApplyConfig) {
	shutdown, err := telemetry.New(serviceName, serviceVersion, collectorURL)
	if err == nil {
		defer shutdown()
	}

	response, err := Apply(context.Background(), New(config.ClientConfig), config.Filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error applying '%s': %s\n", config.Filename, err)
		os.Exit(1)
	}

	Print(os.Stdout, response)
	if response.Failure != nil {
		os.Exit(1)
	}
}

// Apply streams filename to the server as a single request. Files ending in
// .json are sent as JSON script payloads, anything else as plain text.
func Apply(ctx context.Context, c *Client, filename string) (*Response, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return c.Submit(ctx, file, contentType(filename))
}

func contentType(filename string) string {
	if strings.EqualFold(filepath.Ext(filename), ".json") {
		return "application/json"
	}
	return "text/plain"
}
