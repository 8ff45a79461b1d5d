package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// effectiveConfig mirrors the viper keys in YAML for `stackby-mcp config`.
type effectiveConfig struct {
	API struct {
		Key         string        `yaml:"key"`
		URL         string        `yaml:"url"`
		HTTPTimeout time.Duration `yaml:"http_timeout"`
	} `yaml:"api"`
	HTTP struct {
		Listen  string `yaml:"listen"`
		MCPPath string `yaml:"mcp_path"`
	} `yaml:"http"`
	Telemetry struct {
		MetricsListen string `yaml:"metrics_listen"`
		PprofListen   string `yaml:"pprof_listen"`
		OTLPEndpoint  string `yaml:"otlp_endpoint"`
	} `yaml:"telemetry"`
}

func newConfigCommand() *cobra.Command {
	var revealKey bool
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			var cfg effectiveConfig
			cfg.API.Key = redactKey(viper.GetString(apiKeyKey), revealKey)
			cfg.API.URL = strings.TrimSpace(viper.GetString(apiURLKey))
			cfg.API.HTTPTimeout = viper.GetDuration(httpTimeoutKey)
			cfg.HTTP.Listen = strings.TrimSpace(viper.GetString(listenKey))
			cfg.HTTP.MCPPath = strings.TrimSpace(viper.GetString(mcpPathKey))
			cfg.Telemetry.MetricsListen = strings.TrimSpace(viper.GetString(metricsListenKey))
			cfg.Telemetry.PprofListen = strings.TrimSpace(viper.GetString(pprofListenKey))
			cfg.Telemetry.OTLPEndpoint = strings.TrimSpace(viper.GetString(otlpEndpointKey))

			data, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("marshal config: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	cmd.Flags().BoolVar(&revealKey, "reveal-key", false, "print the API key instead of a redacted placeholder")
	return cmd
}

func redactKey(key string, reveal bool) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return ""
	}
	if reveal {
		return key
	}
	if len(key) <= 8 {
		return "(redacted)"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
