// Package stackbymcp carries the process-level plumbing shared by the
// stackby-mcp transports: the telemetry bundle that serves Prometheus
// metrics, exports OTLP traces, and exposes pprof.
//
// The interesting packages live below:
//
//   - client wraps the Stackby REST API with per-request credential
//     resolution and response envelope normalization.
//   - mcp registers the tool set and runs it over stdio or streamable HTTP.
//   - credentials attaches a caller's API key to a context so concurrent
//     HTTP callers stay isolated.
//   - api holds the wire types shared by client and mcp.
//
// # Serving
//
//	svc, err := mcp.NewServer(mcp.NewServerRequest{
//	    Config: mcp.Config{Listen: ":8384"},
//	    Logger: logger,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := svc.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// HTTP callers authenticate every request with an api-key header or a
// bearer Authorization token; the stdio transport takes one key from the
// process environment instead.
package stackbymcp
