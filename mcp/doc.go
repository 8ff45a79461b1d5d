// Package mcp exposes the Stackby API as Model Context Protocol tools.
//
// Two transports share one tool registry. Serve speaks the protocol over
// stdin/stdout for a single local caller whose API key comes from process
// configuration. NewServer runs a streamable HTTP endpoint where every
// request carries its own credentials in headers; the credentials ride the
// request context into the client, so concurrent callers stay isolated.
package mcp
