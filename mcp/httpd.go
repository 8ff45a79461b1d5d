package mcp

import (
	"encoding/json"
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/stackbyhq/stackby-mcp/credentials"
)

// Inbound header names. HeaderAPIKey carries the remote API key;
// HeaderAPIURL optionally redirects the request at a different remote
// base URL (useful for self-hosted deployments).
const (
	HeaderAPIKey    = "api-key"
	HeaderAPIURL    = "x-stackby-api-url"
	headerRequestID = "X-Request-Id"
	headerPanic     = "X-Stackby-Error"
)

// requireCredentials rejects requests that carry no remote API key and
// attaches the per-request credentials to the request context otherwise.
// Every downstream call reads credentials from the context, so two
// concurrent callers can never observe each other's key.
func (s *server) requireCredentials(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimSpace(r.Header.Get(HeaderAPIKey))
		if key == "" {
			key = bearerToken(r.Header.Get("Authorization"))
		}
		if key == "" {
			s.transportLog.Warn("request without credentials rejected",
				"method", r.Method, "path", r.URL.Path, "remote", r.RemoteAddr)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"error":   "unauthorized",
				"message": "supply an api-key header or a bearer Authorization token",
			})
			return
		}
		creds := credentials.Credentials{
			APIKey: key,
			APIURL: strings.TrimSpace(r.Header.Get(HeaderAPIURL)),
		}
		next.ServeHTTP(w, r.WithContext(credentials.WithContext(r.Context(), creds)))
	})
}

func bearerToken(authorization string) string {
	const prefix = "Bearer "
	if len(authorization) > len(prefix) && strings.EqualFold(authorization[:len(prefix)], prefix) {
		return strings.TrimSpace(authorization[len(prefix):])
	}
	return ""
}

// withRequestID assigns a sortable v7 UUID to requests that arrive without
// one and echoes it back so clients can correlate logs.
func (s *server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := strings.TrimSpace(r.Header.Get(headerRequestID))
		if requestID == "" {
			if id, err := uuid.NewV7(); err == nil {
				requestID = id.String()
			}
		}
		if requestID != "" {
			w.Header().Set(headerRequestID, requestID)
		}
		s.transportLog.Debug("request", "method", r.Method, "path", r.URL.Path, "request_id", requestID)
		next.ServeHTTP(w, r)
	})
}

// panicEnvelope is the body written when a handler panics.
type panicEnvelope struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
	Stack   string `json:"stack"`
}

// recoverPanics converts handler panics into a 500 with a structured body.
// If the response already started streaming only the diagnostic header is
// attempted; the write is best effort at that point.
func (s *server) recoverPanics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tracked := &trackingResponseWriter{ResponseWriter: w}
		defer func() {
			recovered := recover()
			if recovered == nil {
				return
			}
			message := fmt.Sprintf("%v", recovered)
			stack := string(debug.Stack())
			s.transportLog.Error("handler panic", "path", r.URL.Path, "panic", message)
			tracked.Header().Set(headerPanic, "panic: "+truncate(message, 128))
			if tracked.wroteHeader {
				return
			}
			tracked.Header().Set("Content-Type", "application/json")
			tracked.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(tracked).Encode(panicEnvelope{
				Kind:    "panic",
				Message: message,
				Stack:   stack,
			})
		}()
		next.ServeHTTP(tracked, r)
	})
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

// trackingResponseWriter records whether the header was already sent so the
// panic boundary knows when a JSON body is still possible.
type trackingResponseWriter struct {
	http.ResponseWriter
	wroteHeader bool
}

func (w *trackingResponseWriter) WriteHeader(statusCode int) {
	w.wroteHeader = true
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *trackingResponseWriter) Write(p []byte) (int, error) {
	w.wroteHeader = true
	return w.ResponseWriter.Write(p)
}

func (w *trackingResponseWriter) Flush() {
	if flusher, ok := w.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "ok: started %s\n", humanize.Time(s.startedAt))
}
