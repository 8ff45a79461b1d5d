package mcp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus"

	stackbymcp "github.com/stackbyhq/stackby-mcp"
	"github.com/stackbyhq/stackby-mcp/client"
	"github.com/stackbyhq/stackby-mcp/internal/logfields"
	"pkt.systems/pslog"
)

// Config controls the HTTP server variant.
type Config struct {
	// Listen is the TCP endpoint for the MCP listener.
	Listen string
	// MCPPath is the HTTP path serving protocol traffic.
	MCPPath string
	// APIKey optionally configures a process-wide fallback key. HTTP callers
	// always authenticate per request; the fallback only feeds tools invoked
	// through other embeddings of the registry.
	APIKey string
	// APIURL overrides the remote API base URL.
	APIURL string
	// HTTPTimeout bounds each outbound remote call.
	HTTPTimeout time.Duration
	// MetricsListen exposes Prometheus metrics when set.
	MetricsListen string
	// PprofListen exposes net/http/pprof when set.
	PprofListen string
	// OTLPTraceEndpoint enables OTLP trace export when set
	// (grpc://host:port or http(s)://host:port).
	OTLPTraceEndpoint string
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.Listen) == "" {
		cfg.Listen = "127.0.0.1:8384"
	}
	if strings.TrimSpace(cfg.MCPPath) == "" {
		cfg.MCPPath = "/mcp"
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 30 * time.Second
	}
}

func validateConfig(cfg Config) error {
	if !strings.HasPrefix(cfg.MCPPath, "/") {
		return fmt.Errorf("mcp path must start with /: %q", cfg.MCPPath)
	}
	return nil
}

// Server is the HTTP service contract.
type Server interface {
	Run(context.Context) error
}

// NewServerRequest wraps constructor inputs.
type NewServerRequest struct {
	Config Config
	Logger pslog.Logger
}

type server struct {
	cfg          Config
	logger       pslog.Logger
	lifecycleLog pslog.Logger
	transportLog pslog.Logger
	registry     *prometheus.Registry
	httpServer   *http.Server
	startedAt    time.Time
}

// NewServer constructs the HTTP variant: one listener, many concurrent
// callers, credentials per request.
func NewServer(req NewServerRequest) (Server, error) {
	cfg := req.Config
	applyDefaults(&cfg)
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	logger := req.Logger
	if logger == nil {
		logger = pslog.NoopLogger()
	}

	s := &server{
		cfg:          cfg,
		logger:       logger,
		lifecycleLog: logfields.WithSubsystem(logger, "server.lifecycle"),
		transportLog: logfields.WithSubsystem(logger, "mcp.transport.http"),
		registry:     prometheus.NewRegistry(),
		startedAt:    time.Now(),
	}

	upstream, err := client.New(cfg.APIURL,
		client.WithAPIKey(cfg.APIKey),
		client.WithLogger(logger),
		client.WithHTTPTimeout(cfg.HTTPTimeout),
	)
	if err != nil {
		return nil, err
	}

	tools := newToolServer(upstream, logfields.WithSubsystem(logger, "mcp.tools"), newToolMetrics(s.registry))
	s.httpServer = &http.Server{
		Addr:    cfg.Listen,
		Handler: s.buildMux(tools.buildServer()),
	}
	return s, nil
}

func (s *server) Run(ctx context.Context) error {
	s.lifecycleLog.Info("starting stackby MCP server", "listen", s.cfg.Listen, "mcp_path", s.cfg.MCPPath)

	telemetry, err := stackbymcp.StartTelemetry(ctx, stackbymcp.TelemetryConfig{
		MetricsListen:     s.cfg.MetricsListen,
		PprofListen:       s.cfg.PprofListen,
		OTLPTraceEndpoint: s.cfg.OTLPTraceEndpoint,
	}, s.registry, s.logger)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = telemetry.Shutdown(shutdownCtx)
	}()

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *server) buildMux(mcpSrv *mcpsdk.Server) *http.ServeMux {
	streamable := mcpsdk.NewStreamableHTTPHandler(func(_ *http.Request) *mcpsdk.Server {
		return mcpSrv
	}, nil)

	var mcpHandler http.Handler = streamable
	mcpHandler = s.requireCredentials(mcpHandler)
	mcpHandler = s.recoverPanics(mcpHandler)
	mcpHandler = s.withRequestID(mcpHandler)

	mux := http.NewServeMux()
	mux.Handle(s.cfg.MCPPath, mcpHandler)
	mux.HandleFunc("GET /health", s.handleHealth)
	return mux
}
