package main

import (
	"context"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/stackbyhq/stackby-mcp/mcp"
	"pkt.systems/pslog"
)

func newHTTPCommand(baseLogger pslog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "http",
		Short: "Serve MCP over HTTP with per-request credentials",
		Long: "Serve the streamable HTTP transport. Each request authenticates " +
			"itself with an api-key header or a bearer Authorization token; the " +
			"process needs no key of its own.",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := mcp.NewServer(mcp.NewServerRequest{
				Config: httpConfigFromViper(),
				Logger: baseLogger,
			})
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return svc.Run(ctx)
		},
	}

	flags := cmd.Flags()
	flags.StringP("listen", "l", "127.0.0.1:8384", "listen address for the MCP endpoint")
	flags.String("mcp-path", "/mcp", "HTTP path for the MCP streamable endpoint")
	flags.String("metrics-listen", "", "serve Prometheus metrics on this address (disabled when empty)")
	flags.String("pprof-listen", "", "serve net/http/pprof on this address (disabled when empty)")
	flags.String("otlp-endpoint", "", "OTLP trace collector endpoint (grpc://host:port or http(s)://host:port)")

	mustBindFlag(listenKey, "STACKBY_LISTEN", flags.Lookup("listen"))
	mustBindFlag(mcpPathKey, "STACKBY_MCP_PATH", flags.Lookup("mcp-path"))
	mustBindFlag(metricsListenKey, "STACKBY_METRICS_LISTEN", flags.Lookup("metrics-listen"))
	mustBindFlag(pprofListenKey, "STACKBY_PPROF_LISTEN", flags.Lookup("pprof-listen"))
	mustBindFlag(otlpEndpointKey, "STACKBY_OTLP_ENDPOINT", flags.Lookup("otlp-endpoint"))

	return cmd
}

func httpConfigFromViper() mcp.Config {
	return mcp.Config{
		Listen:            strings.TrimSpace(viper.GetString(listenKey)),
		MCPPath:           strings.TrimSpace(viper.GetString(mcpPathKey)),
		APIKey:            strings.TrimSpace(viper.GetString(apiKeyKey)),
		APIURL:            strings.TrimSpace(viper.GetString(apiURLKey)),
		HTTPTimeout:       viper.GetDuration(httpTimeoutKey),
		MetricsListen:     strings.TrimSpace(viper.GetString(metricsListenKey)),
		PprofListen:       strings.TrimSpace(viper.GetString(pprofListenKey)),
		OTLPTraceEndpoint: strings.TrimSpace(viper.GetString(otlpEndpointKey)),
	}
}
