package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/stackbyhq/stackby-mcp/internal/logfields"
	"github.com/stackbyhq/stackby-mcp/mcp"
	"pkt.systems/pslog"
)

// Viper keys and their environment aliases. Flags, env, and defaults all
// funnel through viper so `stackby-mcp config` shows the effective values.
const (
	apiKeyKey      = "api.key"
	apiURLKey      = "api.url"
	httpTimeoutKey = "api.http_timeout"

	listenKey        = "http.listen"
	mcpPathKey       = "http.mcp_path"
	metricsListenKey = "telemetry.metrics_listen"
	pprofListenKey   = "telemetry.pprof_listen"
	otlpEndpointKey  = "telemetry.otlp_endpoint"
)

func submain(ctx context.Context) int {
	// Logs go to stderr unconditionally: in stdio mode stdout carries the
	// protocol stream and must stay clean.
	baseLogger := pslog.LoggerFromEnv(
		pslog.WithEnvPrefix("STACKBY_LOG_"),
		pslog.WithEnvOptions(pslog.Options{Mode: pslog.ModeStructured, MinLevel: pslog.InfoLevel}),
		pslog.WithEnvWriter(os.Stderr),
	).With("app", "stackby-mcp")
	cmd := newRootCommand(baseLogger)
	if _, err := cmd.ExecuteContextC(ctx); err != nil {
		if err != context.Canceled {
			logfields.WithSubsystem(baseLogger, "cli.root").Error("command failed", "error", err)
		}
		return 1
	}
	return 0
}

func newRootCommand(baseLogger pslog.Logger) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "stackby-mcp",
		Short:         "MCP server exposing Stackby workspaces, tables and rows as tools",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return mcp.Serve(ctx, mcp.StdioConfig{
				APIKey:      strings.TrimSpace(viper.GetString(apiKeyKey)),
				APIURL:      strings.TrimSpace(viper.GetString(apiURLKey)),
				HTTPTimeout: viper.GetDuration(httpTimeoutKey),
			}, baseLogger)
		},
	}

	persistent := rootCmd.PersistentFlags()
	persistent.String("api-key", "", "Stackby API key or personal access token (pat_...)")
	persistent.String("api-url", "", "Stackby API base URL override")
	persistent.Duration("http-timeout", 30*time.Second, "timeout per outbound API call")

	mustBindFlag(apiKeyKey, "STACKBY_API_KEY", persistent.Lookup("api-key"))
	mustBindFlag(apiURLKey, "STACKBY_API_URL", persistent.Lookup("api-url"))
	mustBindFlag(httpTimeoutKey, "STACKBY_HTTP_TIMEOUT", persistent.Lookup("http-timeout"))

	rootCmd.AddCommand(newHTTPCommand(baseLogger))
	rootCmd.AddCommand(newConfigCommand())
	rootCmd.AddCommand(newVersionCommand())
	return rootCmd
}

func mustBindFlag(key, env string, flag *pflag.Flag) {
	if flag == nil {
		panic(fmt.Sprintf("flag for key %s not found", key))
	}
	if err := viper.BindPFlag(key, flag); err != nil {
		panic(err)
	}
	if env != "" {
		if err := viper.BindEnv(key, env); err != nil {
			panic(err)
		}
	}
}
