package mcp

import (
	"context"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/stackbyhq/stackby-mcp/client"
	"github.com/stackbyhq/stackby-mcp/internal/logfields"
	"pkt.systems/pslog"
)

// StdioConfig configures the single-caller stdio transport. The API key is
// process-wide here: stdio serves exactly one client, so there is no
// per-request credential channel.
type StdioConfig struct {
	APIKey      string
	APIURL      string
	HTTPTimeout time.Duration
}

// Serve speaks the protocol over stdin/stdout until ctx is cancelled or the
// peer disconnects. The logger must write to stderr; stdout belongs to the
// protocol stream.
func Serve(ctx context.Context, cfg StdioConfig, logger pslog.Logger) error {
	if logger == nil {
		logger = pslog.NoopLogger()
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 30 * time.Second
	}
	upstream, err := client.New(cfg.APIURL,
		client.WithAPIKey(cfg.APIKey),
		client.WithLogger(logger),
		client.WithHTTPTimeout(cfg.HTTPTimeout),
	)
	if err != nil {
		return err
	}
	tools := newToolServer(upstream, logfields.WithSubsystem(logger, "mcp.tools"), nil)
	logfields.WithSubsystem(logger, "mcp.transport.stdio").Info("serving on stdio")
	return tools.buildServer().Run(ctx, &mcpsdk.StdioTransport{})
}
